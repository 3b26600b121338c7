package validation

import (
	"sort"

	"github.com/goliatone/go-formengine/pkg/fieldpath"
)

// Issue is a user-facing validation problem. Issues are data: they are
// accumulated per path and never returned as errors.
type Issue struct {
	Path    fieldpath.Path `json:"path"`
	Message string         `json:"message"`
	Code    string         `json:"code,omitempty"`
}

// Name is the serialized path the issue belongs to.
func (i Issue) Name() string {
	return i.Path.String()
}

// Errors groups issues by serialized owning path. A nil or empty map means
// no errors; use NoErrors for the shared empty value.
type Errors map[string][]Issue

// NoErrors is the shared "no errors" value. Valid results and clean forms
// reuse it so callers can test for it cheaply with IsNoErrors. It is a nil
// map: reads see no issues and writes panic instead of leaking into every
// form that holds it.
var NoErrors Errors

// IsNoErrors reports whether e is the shared NoErrors value or empty.
func IsNoErrors(e Errors) bool {
	return len(e) == 0
}

// GroupIssues builds an Errors map, preserving the order of issues within
// each path. An empty input yields NoErrors.
func GroupIssues(issues []Issue) Errors {
	if len(issues) == 0 {
		return NoErrors
	}
	out := make(Errors)
	for _, issue := range issues {
		name := issue.Name()
		out[name] = append(out[name], issue)
	}
	return out
}

// Clone returns a copy that shares no map or slice with e. Empty maps
// clone to NoErrors.
func (e Errors) Clone() Errors {
	if len(e) == 0 {
		return NoErrors
	}
	out := make(Errors, len(e))
	for name, issues := range e {
		out[name] = append([]Issue(nil), issues...)
	}
	return out
}

// Empty reports whether there are no issues at all.
func (e Errors) Empty() bool {
	return len(e) == 0
}

// At returns the issues recorded for a serialized path.
func (e Errors) At(name string) []Issue {
	return e[name]
}

// First returns the first message recorded for a path, or "".
func (e Errors) First(name string) string {
	if issues := e[name]; len(issues) > 0 {
		return issues[0].Message
	}
	return ""
}

// Paths lists the paths with issues in sorted order.
func (e Errors) Paths() []string {
	out := make([]string, 0, len(e))
	for name := range e {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Flatten lists every issue ordered by path, keeping per-path order.
func (e Errors) Flatten() []Issue {
	var out []Issue
	for _, name := range e.Paths() {
		out = append(out, e[name]...)
	}
	return out
}

// Count is the total number of issues.
func (e Errors) Count() int {
	n := 0
	for _, issues := range e {
		n += len(issues)
	}
	return n
}
