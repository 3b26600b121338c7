package html

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-formengine/pkg/form"
	"github.com/goliatone/go-formengine/pkg/patch"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/schema"
)

// Action reports which list button, if any, submitted a posted form.
type Action struct {
	// Add is the list path whose add button was pressed.
	Add string
	// Remove is the item path whose remove button was pressed.
	Remove string
}

// Submitted reports a plain submission, not a list edit.
func (a Action) Submitted() bool {
	return a.Add == "" && a.Remove == ""
}

// DefaultMaxPostedItems bounds list growth during Decode for lists that
// declare no MaxItems.
const DefaultMaxPostedItems = 1000

// ErrTooManyItems reports a posted item index beyond a list's limit.
var ErrTooManyItems = errors.New("html: posted item index beyond limit")

// DecodeOption configures Decode.
type DecodeOption func(*decodeConfig)

type decodeConfig struct {
	maxItems int
}

// WithMaxPostedItems replaces DefaultMaxPostedItems. A declared MaxItems
// below n still wins.
func WithMaxPostedItems(n int) DecodeOption {
	return func(c *decodeConfig) {
		if n > 0 {
			c.maxItems = n
		}
	}
}

// Decode feeds the values of a form posted from Render's markup into f
// through its change events, then performs the pressed list button.
//
// Values for controls the form does not render are ignored. Rendered
// checkboxes that were not posted are unchecked. Lists grow once to hold
// every posted item index, so a fresh form can replay a post; an index at
// or beyond the list's limit fails with ErrTooManyItems.
func Decode(f *form.Form, values url.Values, opts ...DecodeOption) (Action, error) {
	cfg := decodeConfig{maxItems: DefaultMaxPostedItems}
	for _, opt := range opts {
		opt(&cfg)
	}
	action := Action{Add: values.Get("add"), Remove: values.Get("remove")}
	applied := make(map[string]bool)

	for {
		nodes, err := collect(f)
		if err != nil {
			return action, err
		}
		changed, structural := false, false
		for _, props := range nodes {
			if applied[props.Name] {
				continue
			}
			applied[props.Name] = true
			if props.Role == render.RoleList {
				posted := postedItems(values, props.Name)
				if limit := itemLimit(props, cfg.maxItems); posted > limit {
					return action, fmt.Errorf("%w: %s[%d], limit %d", ErrTooManyItems, props.Name, posted-1, limit)
				}
				if posted > props.Len {
					if err := props.Grow(posted); err != nil {
						return action, fmt.Errorf("html: grow %s: %w", props.Name, err)
					}
					changed = true
				}
			} else {
				ok, err := decodeValue(f, props, values)
				if err != nil {
					return action, fmt.Errorf("html: decode %s: %w", props.Name, err)
				}
				changed = changed || ok
				structural = ok && props.Role == render.RoleDiscriminator
			}
			// A new variant invalidates the rest of this walk; grown items
			// are picked up by the next one.
			if structural {
				break
			}
		}
		if !changed {
			break
		}
	}

	if err := perform(f, action); err != nil {
		return action, err
	}
	return action, nil
}

func itemLimit(props render.Props, fallback int) int {
	if props.MaxItems != nil && *props.MaxItems < fallback {
		return *props.MaxItems
	}
	return fallback
}

func decodeValue(f *form.Form, props render.Props, values url.Values) (bool, error) {
	raw, posted := values[props.Name]
	switch props.Role {
	case render.RoleMultiChoice:
		picked := make([]any, 0, len(raw))
		for _, v := range raw {
			picked = append(picked, v)
		}
		return true, props.OnChange(picked)

	case render.RoleDiscriminator:
		if !posted {
			return false, nil
		}
		for _, opt := range props.Options {
			if literalText(opt.Value) == raw[0] {
				return true, props.OnChange(opt.Value)
			}
		}
		return true, props.OnChange(raw[0])

	case render.RoleField:
		if props.Kind == schema.KindBoolean {
			return true, props.OnChange(posted && raw[0] != "" && raw[0] != "false")
		}
		if !posted {
			return false, nil
		}
		text := strings.TrimSpace(raw[0])
		if props.Kind == schema.KindDate && text == "" {
			return true, f.OnChange(patch.Remove(props.Path))
		}
		if props.Kind != schema.KindNumber {
			return true, props.OnChange(raw[0])
		}
		if text == "" {
			return true, props.OnChange(nil)
		}
		n, err := strconv.ParseFloat(text, 64)
		if err != nil {
			// Left as text so validation reports the type mismatch.
			return true, props.OnChange(text)
		}
		return true, props.OnChange(n)
	}
	return false, nil
}

func perform(f *form.Form, action Action) error {
	if action.Submitted() {
		return nil
	}
	nodes, err := collect(f)
	if err != nil {
		return err
	}

	if action.Add != "" {
		for _, props := range nodes {
			if props.Role == render.RoleList && props.Name == action.Add && underMax(props) {
				return props.Add(nil)
			}
		}
		return nil
	}

	open := strings.LastIndex(action.Remove, "[")
	if open < 0 || !strings.HasSuffix(action.Remove, "]") {
		return fmt.Errorf("html: malformed remove target %q", action.Remove)
	}
	index, err := strconv.Atoi(action.Remove[open+1 : len(action.Remove)-1])
	if err != nil {
		return fmt.Errorf("html: malformed remove target %q", action.Remove)
	}
	list := action.Remove[:open]
	for _, props := range nodes {
		if props.Role != render.RoleList || props.Name != list {
			continue
		}
		if index >= props.Len || (props.MinItems != nil && props.Len <= *props.MinItems) {
			return nil
		}
		return props.RemoveAt(index)
	}
	return nil
}

func underMax(props render.Props) bool {
	return props.MaxItems == nil || props.Len < *props.MaxItems
}

// postedItems returns one past the highest item index posted under list.
func postedItems(values url.Values, list string) int {
	prefix := list + "["
	n := 0
	for key := range values {
		rest, ok := strings.CutPrefix(key, prefix)
		if !ok {
			continue
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			continue
		}
		i, err := strconv.Atoi(rest[:end])
		if err == nil && i+1 > n {
			n = i + 1
		}
	}
	return n
}

func literalText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// collector records every control of one walk in render order.
type collector struct {
	nodes []render.Props
}

func (c *collector) RenderNode(props render.Props, _ []render.Unit) (render.Unit, error) {
	switch props.Role {
	case render.RoleField, render.RoleDiscriminator, render.RoleMultiChoice, render.RoleList:
		c.nodes = append(c.nodes, props)
	}
	return nil, nil
}

func collect(f *form.Form) ([]render.Props, error) {
	c := &collector{}
	if _, err := f.Render(c); err != nil {
		return nil, err
	}
	return c.nodes, nil
}
