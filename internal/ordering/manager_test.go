package ordering

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/suite"

	"binoqule/pkg/platform/sentinel"
)

type ManagerSuite struct {
	suite.Suite
	ctx context.Context
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *ManagerSuite) loaded(names ...string) (*Manager[member], *fakeStore) {
	store := newFakeStore(names...)
	m := NewManager[member](store)
	_, err := m.Load(s.ctx)
	s.Require().NoError(err)
	return m, store
}

func (s *ManagerSuite) requireOrder(want []string, items []Item[member]) {
	got := make([]string, len(items))
	for i, it := range items {
		got[i] = it.ID
		s.Equal(i, it.Position, "item %s position", it.ID)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		s.Failf("order mismatch", "(-want +got):\n%s", diff)
	}
}

func (s *ManagerSuite) requireStoreGapless(store *fakeStore) {
	seen := make(map[int]string)
	for id, pos := range store.positions() {
		if other, dup := seen[pos]; dup {
			s.Failf("duplicate position", "%s and %s both at %d", id, other, pos)
		}
		seen[pos] = id
	}
	for i := range len(seen) {
		_, ok := seen[i]
		s.True(ok, "position %d missing", i)
	}
}

func (s *ManagerSuite) TestLoad() {
	s.Run("returns items ascending by position", func() {
		store := newFakeStore()
		store.rows["c"] = Item[member]{ID: "c", Position: 2}
		store.rows["a"] = Item[member]{ID: "a", Position: 0}
		store.rows["b"] = Item[member]{ID: "b", Position: 1}
		m := NewManager[member](store)

		items, err := m.Load(s.ctx)
		s.Require().NoError(err)
		s.requireOrder([]string{"a", "b", "c"}, items)
	})

	s.Run("does not repair gaps", func() {
		store := newFakeStore()
		store.rows["a"] = Item[member]{ID: "a", Position: 0}
		store.rows["b"] = Item[member]{ID: "b", Position: 4}
		m := NewManager[member](store)

		items, err := m.Load(s.ctx)
		s.Require().NoError(err)
		s.Equal(4, items[1].Position)
		s.False(Contiguous(items))
		s.Zero(store.updates)
	})

	s.Run("fetch failure is a persistence error", func() {
		store := newFakeStore("a")
		store.failFetch = errInjected
		m := NewManager[member](store)

		_, err := m.Load(s.ctx)
		s.Require().ErrorIs(err, ErrPersistence)
		s.ErrorIs(err, errInjected)
	})
}

func (s *ManagerSuite) TestMoveScenario() {
	m, store := s.loaded("A", "B", "C")

	items, err := m.MoveDown(s.ctx, 0)
	s.Require().NoError(err)
	s.requireOrder([]string{"B", "A", "C"}, items)

	items, err = m.MoveUp(s.ctx, 2)
	s.Require().NoError(err)
	s.requireOrder([]string{"B", "C", "A"}, items)

	s.Equal(4, store.updates, "each move is exactly two writes")
	s.Equal(m.IDs(), store.storedOrder())
	s.requireStoreGapless(store)
}

func (s *ManagerSuite) TestMoveBoundaries() {
	s.Run("move up at index 0 is a no-op", func() {
		m, store := s.loaded("A", "B", "C")
		items, err := m.MoveUp(s.ctx, 0)
		s.Require().NoError(err)
		s.requireOrder([]string{"A", "B", "C"}, items)
		s.Zero(store.updates)
	})

	s.Run("move down at last index is a no-op", func() {
		m, store := s.loaded("A", "B", "C")
		items, err := m.MoveDown(s.ctx, 2)
		s.Require().NoError(err)
		s.requireOrder([]string{"A", "B", "C"}, items)
		s.Zero(store.updates)
	})

	s.Run("out of range index is not found", func() {
		m, _ := s.loaded("A", "B")
		_, err := m.MoveUp(s.ctx, 5)
		s.ErrorIs(err, ErrNotFound)
		_, err = m.MoveDown(s.ctx, -1)
		s.ErrorIs(err, ErrNotFound)
	})

	s.Run("single item collection", func() {
		m, store := s.loaded("A")
		_, err := m.MoveUp(s.ctx, 0)
		s.Require().NoError(err)
		_, err = m.MoveDown(s.ctx, 0)
		s.Require().NoError(err)
		s.Zero(store.updates)
	})
}

func (s *ManagerSuite) TestMoveInverseLaw() {
	names := []string{"A", "B", "C", "D", "E"}
	for i := 1; i < len(names); i++ {
		m, store := s.loaded(names...)
		_, err := m.MoveUp(s.ctx, i)
		s.Require().NoError(err)
		items, err := m.MoveDown(s.ctx, i-1)
		s.Require().NoError(err)
		s.requireOrder(names, items)
		s.Equal(names, store.storedOrder())
	}
}

func (s *ManagerSuite) TestMoveTouchesOnlyTwoItems() {
	m, store := s.loaded("A", "B", "C", "D")
	before := store.positions()

	_, err := m.MoveDown(s.ctx, 1)
	s.Require().NoError(err)

	after := store.positions()
	s.Equal(before["A"], after["A"])
	s.Equal(before["D"], after["D"])
	s.Equal(before["B"], after["C"])
	s.Equal(before["C"], after["B"])
}

func (s *ManagerSuite) TestMoveFailures() {
	s.Run("first write failure leaves everything unchanged", func() {
		m, store := s.loaded("A", "B", "C")
		store.failUpdate = failOnCall(1)

		_, err := m.MoveDown(s.ctx, 0)
		s.Require().ErrorIs(err, ErrPersistence)
		s.False(IsPartial(err))
		s.False(m.Stale())
		s.Equal([]string{"A", "B", "C"}, m.IDs())
		s.Equal([]string{"A", "B", "C"}, store.storedOrder())
	})

	s.Run("second write failure is a partial reorder", func() {
		m, store := s.loaded("A", "B", "C")
		knownGood := m.IDs()
		store.failUpdate = failOnCall(2)

		_, err := m.MoveDown(s.ctx, 0)
		s.Require().ErrorIs(err, ErrPartialReorder)
		s.ErrorIs(err, errInjected)
		var oe *Error
		s.Require().True(errors.As(err, &oe))
		s.Equal(1, oe.Applied)
		s.Equal("B", oe.ID)
		s.True(m.Stale())

		// A was written to 1 while B still holds 1.
		s.Equal(map[string]int{"A": 1, "B": 1, "C": 2}, store.positions())

		_, err = m.MoveUp(s.ctx, 1)
		s.ErrorIs(err, ErrStale, "further moves are refused until recovery")
		_, err = m.Append(s.ctx, member{Name: "D"})
		s.ErrorIs(err, ErrStale)

		store.failUpdate = nil
		items, err := m.Load(s.ctx)
		s.Require().NoError(err)
		s.False(Contiguous(items), "load reflects the inconsistent store")
		s.False(m.Stale())

		items, err = m.Reconcile(s.ctx, knownGood)
		s.Require().NoError(err)
		s.requireOrder([]string{"A", "B", "C"}, items)
		s.requireStoreGapless(store)
	})

	s.Run("reconcile against the snapshot completes the interrupted move", func() {
		m, store := s.loaded("A", "B", "C")
		store.failUpdate = failOnCall(2)

		_, err := m.MoveDown(s.ctx, 0)
		s.Require().True(IsPartial(err))
		s.Equal([]string{"B", "A", "C"}, m.IDs())

		store.failUpdate = nil
		items, err := m.Reconcile(s.ctx, m.IDs())
		s.Require().NoError(err)
		s.requireOrder([]string{"B", "A", "C"}, items)
		s.False(m.Stale())
	})

	s.Run("concurrently deleted neighbour is not found", func() {
		m, store := s.loaded("A", "B")
		delete(store.rows, "A")

		_, err := m.MoveDown(s.ctx, 0)
		s.Require().ErrorIs(err, ErrNotFound)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *ManagerSuite) TestAppend() {
	s.Run("assigns position N", func() {
		m, store := s.loaded("A", "B")
		item, err := m.Append(s.ctx, member{Name: "C"})
		s.Require().NoError(err)
		s.Equal(2, item.Position)
		s.NotEmpty(item.ID)
		s.Equal(3, m.Len())
		s.Equal(m.IDs(), store.storedOrder())
	})

	s.Run("loads implicitly on first use", func() {
		store := newFakeStore("A")
		m := NewManager[member](store)
		item, err := m.Append(s.ctx, member{Name: "B"})
		s.Require().NoError(err)
		s.Equal(1, item.Position)
	})

	s.Run("failed insert does not change the snapshot", func() {
		m, store := s.loaded("A", "B")
		store.failInsert = errInjected

		_, err := m.Append(s.ctx, member{Name: "C"})
		s.Require().ErrorIs(err, ErrPersistence)
		s.Equal([]string{"A", "B"}, m.IDs())
		s.False(m.Stale())
	})
}

func (s *ManagerSuite) TestDelete() {
	s.Run("middle item closes the gap", func() {
		m, store := s.loaded("A", "B", "C")
		items, err := m.Delete(s.ctx, "B")
		s.Require().NoError(err)
		s.requireOrder([]string{"A", "C"}, items)
		s.Equal(map[string]int{"A": 0, "C": 1}, store.positions())
		s.Equal(1, store.updates, "only items after the deleted one are shifted")
	})

	s.Run("last item needs no shifts", func() {
		m, store := s.loaded("A", "B", "C")
		_, err := m.Delete(s.ctx, "C")
		s.Require().NoError(err)
		s.Zero(store.updates)
	})

	s.Run("append after delete lands at N-1", func() {
		m, _ := s.loaded("A", "B", "C")
		_, err := m.Delete(s.ctx, "A")
		s.Require().NoError(err)
		item, err := m.Append(s.ctx, member{Name: "D"})
		s.Require().NoError(err)
		s.Equal(m.Len()-1, item.Position)
		s.Equal(2, item.Position)
	})

	s.Run("unknown id is not found", func() {
		m, _ := s.loaded("A")
		_, err := m.Delete(s.ctx, "missing")
		s.Require().ErrorIs(err, ErrNotFound)
	})

	s.Run("delete race reported as not found", func() {
		m, store := s.loaded("A", "B")
		delete(store.rows, "A")
		_, err := m.Delete(s.ctx, "A")
		s.Require().ErrorIs(err, ErrNotFound)
		s.False(m.Stale())
	})

	s.Run("failed delete is a persistence error", func() {
		m, store := s.loaded("A", "B")
		store.failDelete = errInjected
		_, err := m.Delete(s.ctx, "A")
		s.Require().ErrorIs(err, ErrPersistence)
		s.Equal([]string{"A", "B"}, m.IDs())
	})

	s.Run("failed shift is a partial reorder", func() {
		m, store := s.loaded("A", "B", "C", "D")
		store.failUpdate = failOnCall(2)

		_, err := m.Delete(s.ctx, "A")
		s.Require().ErrorIs(err, ErrPartialReorder)
		var oe *Error
		s.Require().True(errors.As(err, &oe))
		s.Equal("C", oe.ID)
		s.Equal(2, oe.Applied)
		s.True(m.Stale())
		s.Equal([]string{"B", "C", "D"}, m.IDs())

		store.failUpdate = nil
		items, err := m.Reconcile(s.ctx, m.IDs())
		s.Require().NoError(err)
		s.requireOrder([]string{"B", "C", "D"}, items)
	})
}

func (s *ManagerSuite) TestReconcile() {
	s.Run("writes only positions that differ", func() {
		m, store := s.loaded("A", "B", "C", "D")
		items, err := m.Reconcile(s.ctx, []string{"A", "C", "B", "D"})
		s.Require().NoError(err)
		s.requireOrder([]string{"A", "C", "B", "D"}, items)
		s.Equal(2, store.updates)
	})

	s.Run("identity sequence writes nothing", func() {
		m, store := s.loaded("A", "B")
		_, err := m.Reconcile(s.ctx, []string{"A", "B"})
		s.Require().NoError(err)
		s.Zero(store.updates)
	})

	s.Run("rejects duplicates", func() {
		m, _ := s.loaded("A", "B")
		_, err := m.Reconcile(s.ctx, []string{"A", "A"})
		s.ErrorIs(err, ErrInvalidSequence)
	})

	s.Run("rejects unknown ids", func() {
		m, _ := s.loaded("A", "B")
		_, err := m.Reconcile(s.ctx, []string{"A", "Z"})
		s.ErrorIs(err, ErrNotFound)
	})

	s.Run("rejects incomplete sequence", func() {
		m, _ := s.loaded("A", "B", "C")
		_, err := m.Reconcile(s.ctx, []string{"C", "A"})
		s.ErrorIs(err, ErrInvalidSequence)
	})

	s.Run("failure after a write is partial", func() {
		m, store := s.loaded("A", "B", "C")
		store.failUpdate = failOnCall(2)
		_, err := m.Reconcile(s.ctx, []string{"C", "B", "A"})
		s.Require().ErrorIs(err, ErrPartialReorder)
		s.True(m.Stale())
		s.Equal([]string{"C", "B", "A"}, m.IDs())
	})

	s.Run("failure on the first write is a persistence error", func() {
		m, store := s.loaded("A", "B")
		store.failUpdate = failOnCall(1)
		_, err := m.Reconcile(s.ctx, []string{"B", "A"})
		s.Require().ErrorIs(err, ErrPersistence)
		s.False(m.Stale())
	})
}

func (s *ManagerSuite) TestRepair() {
	store := newFakeStore()
	store.rows["a"] = Item[member]{ID: "a", Position: 0}
	store.rows["b"] = Item[member]{ID: "b", Position: 2}
	store.rows["c"] = Item[member]{ID: "c", Position: 2}
	store.rows["d"] = Item[member]{ID: "d", Position: 7}
	m := NewManager[member](store)

	items, err := m.Repair(s.ctx)
	s.Require().NoError(err)
	s.requireOrder([]string{"a", "b", "c", "d"}, items)
	s.requireStoreGapless(store)
	s.Equal(2, store.updates, "c already holds position 2")
}

// TestRandomOperationsKeepPositionsGapless drives the manager with a seeded
// random mix of operations and checks the invariant after every step.
func (s *ManagerSuite) TestRandomOperationsKeepPositionsGapless() {
	rng := rand.New(rand.NewPCG(7, 42))
	m, store := s.loaded("A", "B", "C")

	for step := range 500 {
		n := m.Len()
		var err error
		switch op := rng.IntN(4); {
		case op == 0 || n == 0:
			_, err = m.Append(s.ctx, member{})
		case op == 1:
			_, err = m.MoveUp(s.ctx, rng.IntN(n))
		case op == 2:
			_, err = m.MoveDown(s.ctx, rng.IntN(n))
		default:
			ids := m.IDs()
			_, err = m.Delete(s.ctx, ids[rng.IntN(n)])
		}
		s.Require().NoError(err, "step %d", step)
		s.Require().True(Contiguous(m.Items()), "step %d snapshot", step)
		s.requireStoreGapless(store)
		s.Require().Equal(m.IDs(), store.storedOrder(), "step %d", step)
	}
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Op: OpMoveDown, Kind: ErrPartialReorder, ID: "b", Applied: 1, Err: errInjected}
	want := `ordering: move_down "b": partial reorder after 1 write(s): injected write failure`
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}
