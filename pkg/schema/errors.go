package schema

import (
	"errors"
	"fmt"
)

// ErrSchema matches every *SchemaError via errors.Is.
var ErrSchema = errors.New("schema: invalid schema")

// SchemaError reports a schema that violates the well-formedness invariants
// the engine relies on. It signals a programmer error, never bad user input.
type SchemaError struct {
	Kind   Kind
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := "schema: " + e.Reason
	if e.Kind != "" {
		msg += fmt.Sprintf(" (kind %s)", e.Kind)
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" at %q", e.Path)
	}
	return msg
}

// Is lets errors.Is(err, ErrSchema) match.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

func schemaErr(kind Kind, path, format string, args ...any) *SchemaError {
	return &SchemaError{Kind: kind, Path: path, Reason: fmt.Sprintf(format, args...)}
}
