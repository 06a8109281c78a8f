package record

import (
	"context"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/tablekit/pkg/types"
)

// ErrAbort is returned by a before hook to cancel the verb. The caller
// sees an Aborted result, not an error.
var ErrAbort = errors.New("aborted by hook")

// Point is a hook point.
type Point int

// Hook points, one before and one after each verb.
const (
	BeforeGet Point = iota
	AfterGet
	BeforeInsert
	AfterInsert
	BeforeUpdate
	AfterUpdate
	BeforeDelete
	AfterDelete
	pointCount
)

var pointNames = [pointCount]string{
	BeforeGet:    types.HookBeforeGet,
	AfterGet:     types.HookAfterGet,
	BeforeInsert: types.HookBeforeInsert,
	AfterInsert:  types.HookAfterInsert,
	BeforeUpdate: types.HookBeforeUpdate,
	AfterUpdate:  types.HookAfterUpdate,
	BeforeDelete: types.HookBeforeDelete,
	AfterDelete:  types.HookAfterDelete,
}

func (p Point) String() string {
	if p < 0 || p >= pointCount {
		return fmt.Sprintf("point(%d)", int(p))
	}
	return pointNames[p]
}

// ParsePoint maps a declared point name such as "before_update" to its Point.
func ParsePoint(name string) (Point, bool) {
	for p, n := range pointNames {
		if n == name {
			return Point(p), true
		}
	}
	return 0, false
}

// Event is the data passed through a hook chain. Each handler receives
// the previous handler's output.
type Event struct {
	Point Point
	Table string
	// Row is the insert or update payload.
	Row types.Row
	// Primary holds the primary values constraining the verb.
	Primary any
	// Result is set for after hooks: *GetResult, *WriteResult, or the
	// inserted id.
	Result any
}

// Hook handles one event. Returning ErrAbort from a before hook cancels
// the verb; any other error stops the chain and fails the verb.
type Hook func(ctx context.Context, ev Event) (Event, error)

// Hooks holds the ordered handlers of every point.
type Hooks struct {
	handlers [pointCount][]Hook
}

// Register appends handlers to point p.
func (h *Hooks) Register(p Point, fns ...Hook) {
	if p < 0 || p >= pointCount {
		return
	}
	h.handlers[p] = append(h.handlers[p], fns...)
}

// Len returns the number of handlers registered at p.
func (h *Hooks) Len(p Point) int {
	if p < 0 || p >= pointCount {
		return 0
	}
	return len(h.handlers[p])
}

// trigger runs the chain for p. With no handlers ev comes back unchanged.
// aborted is true when a handler returned ErrAbort; ev is then the last
// event before the aborting handler. Each handler gets its own copy of
// the row, so in-place edits only reach the verb through the returned
// event.
func (h *Hooks) trigger(ctx context.Context, p Point, ev Event) (out Event, aborted bool, err error) {
	ev.Point = p
	for _, fn := range h.handlers[p] {
		in := ev
		in.Row = ev.Row.Clone()
		next, err := fn(ctx, in)
		if errors.Is(err, ErrAbort) {
			return ev, true, nil
		}
		if err != nil {
			return ev, false, fmt.Errorf("%s hook on %s: %w", p, ev.Table, err)
		}
		next.Point = p
		ev = next
	}
	return ev, false, nil
}

// bind resolves the named hook bindings of a model against funcs.
func (h *Hooks) bind(bindings map[string][]string, funcs map[string]Hook) error {
	for point, names := range bindings {
		p, ok := ParsePoint(point)
		if !ok {
			return fmt.Errorf("hook point %q: %w", point, types.ErrInvalidModel)
		}
		for _, name := range names {
			fn, ok := funcs[name]
			if !ok {
				return fmt.Errorf("%s hook %q: %w", point, name, types.ErrUndefinedHook)
			}
			h.Register(p, fn)
		}
	}
	return nil
}
