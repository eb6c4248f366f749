package ordering

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"binoqule/pkg/platform/sentinel"
)

var errInjected = errors.New("injected write failure")

type member struct {
	Name string
}

// fakeStore is an in-memory Store with per-call failure injection.
type fakeStore struct {
	rows    map[string]Item[member]
	nextID  int
	updates int
	// failUpdate, when set, is consulted before every UpdatePosition with the
	// 1-based count of update calls made so far.
	failUpdate func(call int, id string) error
	failInsert error
	failDelete error
	failFetch  error
}

func newFakeStore(names ...string) *fakeStore {
	s := &fakeStore{rows: make(map[string]Item[member])}
	for i, name := range names {
		s.rows[name] = Item[member]{ID: name, Position: i, Payload: member{Name: name}}
	}
	return s
}

func (s *fakeStore) FetchAll(_ context.Context) ([]Item[member], error) {
	if s.failFetch != nil {
		return nil, s.failFetch
	}
	items := make([]Item[member], 0, len(s.rows))
	for _, it := range s.rows {
		items = append(items, it)
	}
	slices.SortFunc(items, compareItems[member])
	return items, nil
}

func (s *fakeStore) Insert(_ context.Context, item Item[member]) (string, error) {
	if s.failInsert != nil {
		return "", s.failInsert
	}
	s.nextID++
	item.ID = fmt.Sprintf("new-%d", s.nextID)
	s.rows[item.ID] = item
	return item.ID, nil
}

func (s *fakeStore) UpdatePosition(_ context.Context, id string, position int) error {
	s.updates++
	if s.failUpdate != nil {
		if err := s.failUpdate(s.updates, id); err != nil {
			return err
		}
	}
	it, ok := s.rows[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	it.Position = position
	s.rows[id] = it
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	if s.failDelete != nil {
		return s.failDelete
	}
	if _, ok := s.rows[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

// positions returns id -> stored position.
func (s *fakeStore) positions() map[string]int {
	out := make(map[string]int, len(s.rows))
	for id, it := range s.rows {
		out[id] = it.Position
	}
	return out
}

// storedOrder returns ids sorted the way FetchAll does.
func (s *fakeStore) storedOrder() []string {
	items, _ := s.FetchAll(context.Background())
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

func failOnCall(n int) func(int, string) error {
	return func(call int, _ string) error {
		if call == n {
			return errInjected
		}
		return nil
	}
}
