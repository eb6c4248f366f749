// Package ordering keeps an externally persisted collection numbered 0..N-1.
//
// A Manager holds the last loaded snapshot of a collection and is the only
// writer of positions. Moves exchange the positions of two neighbours (two
// writes), deletes shift every later item down by one, and Reconcile rewrites
// positions to match a caller-supplied sequence. Each position write is an
// independent store call; there is no multi-row transaction, so a failure in
// the middle of an operation is reported as ErrPartialReorder and the Manager
// refuses further mutations until Load, Reconcile or Repair succeeds.
//
// A Manager is not safe for concurrent use. Callers serialize access to a
// collection themselves.
package ordering

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"binoqule/pkg/platform/sentinel"
)

// Item is one ordered record. Payload is carried opaquely.
type Item[T any] struct {
	ID       string
	Position int
	Payload  T
}

// Store is the persistence collaborator. Implementations return
// sentinel.ErrNotFound (optionally wrapped) for unknown ids.
type Store[T any] interface {
	// FetchAll returns every item, ascending by position.
	FetchAll(ctx context.Context) ([]Item[T], error)
	// Insert persists a new item and returns its id.
	Insert(ctx context.Context, item Item[T]) (string, error)
	UpdatePosition(ctx context.Context, id string, position int) error
	Delete(ctx context.Context, id string) error
}

// Manager maintains the ordering of one collection.
type Manager[T any] struct {
	store  Store[T]
	items  []Item[T]
	loaded bool
	stale  bool
}

// NewManager constructs a Manager over store. No I/O happens until the first call.
func NewManager[T any](store Store[T]) *Manager[T] {
	return &Manager[T]{store: store}
}

// Load replaces the snapshot with the store's current order. Gaps or
// duplicate positions left by an earlier partial failure are returned as
// stored; use Repair to renumber them.
func (m *Manager[T]) Load(ctx context.Context) ([]Item[T], error) {
	items, err := m.store.FetchAll(ctx)
	if err != nil {
		return nil, m.fail(OpLoad, "", err)
	}
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, compareItems[T])
	m.items = sorted
	m.loaded = true
	m.stale = false
	return m.Items(), nil
}

// Items returns a copy of the snapshot in order.
func (m *Manager[T]) Items() []Item[T] {
	return slices.Clone(m.items)
}

// IDs returns the snapshot's ids in order. After a partial failure this is
// the order the failed operation was trying to reach.
func (m *Manager[T]) IDs() []string {
	ids := make([]string, len(m.items))
	for i, it := range m.items {
		ids[i] = it.ID
	}
	return ids
}

// Len is the number of items in the snapshot.
func (m *Manager[T]) Len() int {
	return len(m.items)
}

// Stale reports whether a partial failure has left the snapshot out of sync.
func (m *Manager[T]) Stale() bool {
	return m.stale
}

// Append persists payload at position N and adds it to the end of the snapshot.
func (m *Manager[T]) Append(ctx context.Context, payload T) (Item[T], error) {
	if err := m.ready(ctx, OpAppend); err != nil {
		return Item[T]{}, err
	}
	item := Item[T]{Position: len(m.items), Payload: payload}
	id, err := m.store.Insert(ctx, item)
	if err != nil {
		return Item[T]{}, m.fail(OpAppend, "", err)
	}
	item.ID = id
	m.items = append(m.items, item)
	return item, nil
}

// MoveUp exchanges the item at index with the one before it.
// Index 0 is a no-op.
func (m *Manager[T]) MoveUp(ctx context.Context, index int) ([]Item[T], error) {
	return m.swap(ctx, OpMoveUp, index, index-1)
}

// MoveDown exchanges the item at index with the one after it.
// The last index is a no-op.
func (m *Manager[T]) MoveDown(ctx context.Context, index int) ([]Item[T], error) {
	return m.swap(ctx, OpMoveDown, index, index+1)
}

func (m *Manager[T]) swap(ctx context.Context, op Op, index, neighbor int) ([]Item[T], error) {
	if err := m.ready(ctx, op); err != nil {
		return nil, err
	}
	if index < 0 || index >= len(m.items) {
		return nil, &Error{Op: op, Kind: ErrNotFound}
	}
	if neighbor < 0 || neighbor >= len(m.items) {
		return m.Items(), nil
	}

	a, b := m.items[index], m.items[neighbor]
	if err := m.store.UpdatePosition(ctx, a.ID, b.Position); err != nil {
		return nil, m.fail(op, a.ID, err)
	}

	a.Position, b.Position = b.Position, a.Position
	m.items[index], m.items[neighbor] = b, a

	if err := m.store.UpdatePosition(ctx, b.ID, b.Position); err != nil {
		m.stale = true
		return nil, &Error{Op: op, Kind: ErrPartialReorder, ID: b.ID, Applied: 1, Err: err}
	}
	return m.Items(), nil
}

// Delete removes id and closes the gap it leaves.
func (m *Manager[T]) Delete(ctx context.Context, id string) ([]Item[T], error) {
	if err := m.ready(ctx, OpDelete); err != nil {
		return nil, err
	}
	idx := slices.IndexFunc(m.items, func(it Item[T]) bool { return it.ID == id })
	if idx < 0 {
		return nil, &Error{Op: OpDelete, Kind: ErrNotFound, ID: id}
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return nil, m.fail(OpDelete, id, err)
	}

	removed := m.items[idx]
	m.items = slices.Delete(m.items, idx, idx+1)

	applied := 1
	for i := idx; i < len(m.items); i++ {
		it := &m.items[i]
		if it.Position <= removed.Position {
			continue
		}
		it.Position--
		if err := m.store.UpdatePosition(ctx, it.ID, it.Position); err != nil {
			m.stale = true
			return nil, &Error{Op: OpDelete, Kind: ErrPartialReorder, ID: it.ID, Applied: applied, Err: err}
		}
		applied++
	}
	return m.Items(), nil
}

// Reconcile makes the stored order match ids exactly: the item ids[i] ends at
// position i. It reads the store first and only writes positions that differ.
// ids must name every stored item once.
func (m *Manager[T]) Reconcile(ctx context.Context, ids []string) ([]Item[T], error) {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return nil, &Error{Op: OpReconcile, Kind: ErrInvalidSequence, ID: id}
		}
		seen[id] = struct{}{}
	}

	current, err := m.store.FetchAll(ctx)
	if err != nil {
		return nil, m.fail(OpReconcile, "", err)
	}
	byID := make(map[string]Item[T], len(current))
	for _, it := range current {
		byID[it.ID] = it
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, &Error{Op: OpReconcile, Kind: ErrNotFound, ID: id}
		}
	}
	if len(ids) != len(current) {
		return nil, &Error{Op: OpReconcile, Kind: ErrInvalidSequence}
	}

	target := make([]Item[T], len(ids))
	for i, id := range ids {
		it := byID[id]
		it.Position = i
		target[i] = it
	}

	applied := 0
	for i, id := range ids {
		if byID[id].Position == i {
			continue
		}
		if err := m.store.UpdatePosition(ctx, id, i); err != nil {
			if applied == 0 {
				return nil, m.fail(OpReconcile, id, err)
			}
			m.items = target
			m.loaded = true
			m.stale = true
			return nil, &Error{Op: OpReconcile, Kind: ErrPartialReorder, ID: id, Applied: applied, Err: err}
		}
		applied++
	}

	m.items = target
	m.loaded = true
	m.stale = false
	return m.Items(), nil
}

// Repair renumbers the stored collection to 0..N-1 keeping its stored order.
func (m *Manager[T]) Repair(ctx context.Context) ([]Item[T], error) {
	if _, err := m.Load(ctx); err != nil {
		return nil, err
	}
	return m.Reconcile(ctx, m.IDs())
}

func (m *Manager[T]) ready(ctx context.Context, op Op) error {
	if m.stale {
		return &Error{Op: op, Kind: ErrStale}
	}
	if m.loaded {
		return nil
	}
	_, err := m.Load(ctx)
	return err
}

func (m *Manager[T]) fail(op Op, id string, err error) error {
	kind := ErrPersistence
	if errors.Is(err, sentinel.ErrNotFound) {
		kind = ErrNotFound
	}
	return &Error{Op: op, Kind: kind, ID: id, Err: err}
}

// Contiguous reports whether items, in order, hold positions exactly 0..N-1.
func Contiguous[T any](items []Item[T]) bool {
	for i, it := range items {
		if it.Position != i {
			return false
		}
	}
	return true
}

func compareItems[T any](a, b Item[T]) int {
	if c := cmp.Compare(a.Position, b.Position); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
