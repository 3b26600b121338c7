package html

import (
	"fmt"
	"sort"
	"strings"
)

// HiddenField is a hidden input emitted right after the form element, for
// tokens and versions the schema does not describe. Decode ignores it.
type HiddenField struct {
	Name  string
	Value string
}

// Hidden returns a HiddenField for an arbitrary name/value pair.
func Hidden(name string, value any) HiddenField {
	return HiddenField{Name: strings.TrimSpace(name), Value: fmt.Sprint(value)}
}

// CSRFToken carries token under the input name the backend expects.
func CSRFToken(name, token string) HiddenField {
	return Hidden(name, token)
}

// VersionField carries a version used for optimistic locking.
func VersionField(name string, version any) HiddenField {
	return Hidden(name, version)
}

// WithHiddenFields adds hidden inputs. Empty names are ignored and later
// fields win on name collisions.
func WithHiddenFields(fields ...HiddenField) Option {
	return func(cfg *config) {
		if cfg.hidden == nil {
			cfg.hidden = make(map[string]string, len(fields))
		}
		for _, field := range fields {
			if name := strings.TrimSpace(field.Name); name != "" {
				cfg.hidden[name] = field.Value
			}
		}
	}
}

func sortedHidden(fields map[string]string) []map[string]string {
	if len(fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]map[string]string, 0, len(names))
	for _, name := range names {
		out = append(out, map[string]string{"name": name, "value": fields[name]})
	}
	return out
}
