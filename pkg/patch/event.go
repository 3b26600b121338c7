package patch

import (
	"fmt"

	"github.com/goliatone/go-formengine/pkg/fieldpath"
)

// Op enumerates the edit operations a change event can carry.
type Op string

const (
	OpUpdate      Op = "update"
	OpRemove      Op = "remove"
	OpArrayAdd    Op = "array-add"
	OpArrayRemove Op = "array-remove"
)

// Event is a single declarative edit produced by rendering glue and consumed
// exactly once by Apply.
type Event struct {
	Op    Op             `json:"op"`
	Path  fieldpath.Path `json:"path"`
	Value any            `json:"value,omitempty"`
}

// Update sets the value at path, creating intermediate containers.
func Update(path fieldpath.Path, value any) Event {
	return Event{Op: OpUpdate, Path: path, Value: value}
}

// Remove clears the value at path. Sequence slots become holes.
func Remove(path fieldpath.Path) Event {
	return Event{Op: OpRemove, Path: path}
}

// ArrayAdd appends value; callers pick path as one past the last index.
func ArrayAdd(path fieldpath.Path, value any) Event {
	return Event{Op: OpArrayAdd, Path: path, Value: value}
}

// ArrayRemove splices the element at path out of its sequence.
func ArrayRemove(path fieldpath.Path) Event {
	return Event{Op: OpArrayRemove, Path: path}
}

// Validate reports events that cannot be applied at all: unknown ops and
// paths holding negative indices.
func (e Event) Validate() error {
	for _, seg := range e.Path {
		if seg.IsIndex() && seg.Index() < 0 {
			return fmt.Errorf("patch: negative index in path %q", e.Path.String())
		}
	}
	switch e.Op {
	case OpUpdate, OpRemove, OpArrayAdd, OpArrayRemove:
		return nil
	case "":
		return fmt.Errorf("patch: event op is required")
	default:
		return fmt.Errorf("patch: unknown op %q", e.Op)
	}
}

// String renders the event for logs.
func (e Event) String() string {
	return fmt.Sprintf("%s(%s)", e.Op, e.Path.String())
}
