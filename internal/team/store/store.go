// Package store persists team members. Every implementation satisfies
// ordering.Store[models.Member] so the ordering manager can own positions,
// plus the profile reads and writes the team service needs.
package store

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"binoqule/internal/ordering"
	"binoqule/internal/team/models"
	"binoqule/pkg/platform/sentinel"
)

// ErrNotFound is re-exported so callers can match store misses without
// importing the sentinel package.
var ErrNotFound = sentinel.ErrNotFound

func toItem(m models.Member) ordering.Item[models.Member] {
	return ordering.Item[models.Member]{ID: m.ID, Position: m.Position, Payload: m}
}

// isMemberID reports whether id can name a stored member. Ids are UUIDs, so
// anything else cannot match a row and is treated as a miss.
func isMemberID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func newID(m models.Member) string {
	if m.ID != "" {
		return m.ID
	}
	return uuid.NewString()
}

func sortItems(items []ordering.Item[models.Member]) {
	slices.SortStableFunc(items, func(a, b ordering.Item[models.Member]) int {
		if c := cmp.Compare(a.Position, b.Position); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// checkRow is the read-side boundary check: rows that fail the member
// invariants are reported instead of being passed along.
func checkRow(m models.Member) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("%w: member row %q: %v", sentinel.ErrInvalidRecord, m.ID, err)
	}
	return nil
}

// checkWrite guards inserts and profile updates.
func checkWrite(m models.Member) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("%w: %v", sentinel.ErrInvalidRecord, err)
	}
	return nil
}
