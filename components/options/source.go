package options

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goliatone/go-formengine/pkg/form"
	"github.com/goliatone/go-formengine/pkg/render"
)

// ErrUnknownField is returned by a Source that has no choices for the
// requested field. The handler answers 404.
var ErrUnknownField = errors.New("options: unknown field")

// Option is one choice in a response.
type Option struct {
	Value any    `json:"value"`
	Label string `json:"label"`
}

func (o Option) text() string {
	if s, ok := o.Value.(string); ok {
		return s
	}
	return fmt.Sprint(o.Value)
}

// Source returns the choices of field for request r.
type Source func(r *http.Request, field string) ([]Option, error)

// Static serves items for every field name.
func Static(items []Option) Source {
	items = append([]Option{}, items...)
	return func(*http.Request, string) ([]Option, error) {
		return items, nil
	}
}

// LoadList reads one choice per line. A line is either a value, used as its
// own label, or value|label. Blank lines and lines starting with # are
// skipped, and repeated values keep their first occurrence.
func LoadList(r io.Reader) ([]Option, error) {
	if r == nil {
		return nil, errors.New("options: missing reader")
	}

	scanner := bufio.NewScanner(r)
	items := make([]Option, 0, 64)
	seen := map[string]struct{}{}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		value, label, ok := strings.Cut(line, "|")
		value = strings.TrimSpace(value)
		label = strings.TrimSpace(label)
		if !ok || label == "" {
			label = value
		}
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		items = append(items, Option{Value: value, Label: label})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// FromForm returns the choices the renderer would offer for the visible
// field named name: enum options, multi-choice options or discriminator
// variants, with UI schema labels applied.
func FromForm(f *form.Form, name string) ([]Option, error) {
	var (
		found []render.Option
		ok    bool
	)
	collect := render.RendererFunc(func(props render.Props, _ []render.Unit) (render.Unit, error) {
		if props.Name == name && len(props.Options) > 0 {
			found, ok = props.Options, true
		}
		return nil, nil
	})
	if _, err := f.Render(collect); err != nil {
		return nil, fmt.Errorf("options: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	out := make([]Option, 0, len(found))
	for _, opt := range found {
		out = append(out, Option{Value: opt.Value, Label: opt.Label})
	}
	return out, nil
}

// FormSource builds a form per request with build and serves the choices
// of its visible fields. Visibility follows the form data, so build may
// seed it from the request.
func FormSource(build func(r *http.Request) (*form.Form, error)) Source {
	return func(r *http.Request, field string) ([]Option, error) {
		f, err := build(r)
		if err != nil {
			return nil, err
		}
		return FromForm(f, field)
	}
}
