package ordering

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Match with errors.Is against an error returned by a Manager.
var (
	// ErrPersistence: a single read or write failed; nothing was changed.
	ErrPersistence = errors.New("persistence failure")
	// ErrPartialReorder: a multi-write operation stopped part way; the store
	// no longer matches the snapshot and the caller must reload or reconcile.
	ErrPartialReorder = errors.New("partial reorder")
	// ErrNotFound: the id or index is not in the collection.
	ErrNotFound = errors.New("item not found")
	// ErrStale: a previous partial reorder has not been recovered from yet.
	ErrStale = errors.New("order is stale, reload required")
	// ErrInvalidSequence: a reconcile sequence has duplicates or misses items.
	ErrInvalidSequence = errors.New("invalid sequence")
)

// Op names the manager operation that failed.
type Op string

const (
	OpLoad      Op = "load"
	OpAppend    Op = "append"
	OpMoveUp    Op = "move_up"
	OpMoveDown  Op = "move_down"
	OpDelete    Op = "delete"
	OpReconcile Op = "reconcile"
)

// Error describes a failed manager operation.
type Error struct {
	Op   Op
	Kind error
	// ID is the item the failure is about, when there is one.
	ID string
	// Applied counts writes that succeeded before the failure.
	Applied int
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("ordering: ")
	b.WriteString(string(e.Op))
	if e.ID != "" {
		fmt.Fprintf(&b, " %q", e.ID)
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Applied > 0 {
		fmt.Fprintf(&b, " after %d write(s)", e.Applied)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IsPartial reports whether err leaves the store out of sync with the caller's view.
func IsPartial(err error) bool {
	return errors.Is(err, ErrPartialReorder)
}
