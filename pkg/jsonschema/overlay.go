package jsonschema

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-openapi/jsonpointer"
	"github.com/goccy/go-json"

	"github.com/goliatone/go-formengine/pkg/patch"
)

// OverlaySchemaID is the $schema an overlay document must declare.
const OverlaySchemaID = "x-ui-overlay/v1"

// Overlay adds vendor extensions, titles and descriptions to nodes of a
// resolved schema without editing its source. Extensions become annotations
// of the converted nodes, so an overlay can pick widgets or ordering for a
// document owned by someone else.
type Overlay struct {
	Overrides []OverlayOverride
}

// OverlayOverride sets x-* extensions, title or description on the schema
// object at Path, a JSON pointer into the resolved document. A leading '#'
// marks the URI fragment form, which is percent-decoded first.
type OverlayOverride struct {
	Path       string
	Extensions map[string]any
}

// OverlayError reports a malformed overlay document or an override whose
// path does not land on a schema object.
type OverlayError struct {
	Path   string
	Reason string
}

func (e *OverlayError) Error() string {
	if e.Path == "" {
		return "jsonschema overlay: " + e.Reason
	}
	return fmt.Sprintf("jsonschema overlay: %s at %q", e.Reason, e.Path)
}

type overlayDocument struct {
	Schema    string           `json:"$schema"`
	Overrides []map[string]any `json:"overrides"`
}

// ParseOverlay decodes an overlay document. Overrides that carry nothing but
// a path are dropped.
func ParseOverlay(raw []byte) (Overlay, error) {
	var doc overlayDocument
	if err := json.Unmarshal(bytes.TrimSpace(raw), &doc); err != nil {
		return Overlay{}, &OverlayError{Reason: fmt.Sprintf("parse: %v", err)}
	}
	if id := strings.TrimSuffix(strings.TrimSpace(doc.Schema), "#"); id != OverlaySchemaID {
		return Overlay{}, &OverlayError{Reason: fmt.Sprintf("$schema must be %q, got %q", OverlaySchemaID, id)}
	}

	var overlay Overlay
	for i, entry := range doc.Overrides {
		path, _ := entry["path"].(string)
		path = strings.TrimSpace(path)
		if path == "" {
			return Overlay{}, &OverlayError{Reason: fmt.Sprintf("overrides[%d] has no path", i)}
		}
		extensions := make(map[string]any, len(entry)-1)
		for _, key := range sortedKeys(entry) {
			if key == "path" {
				continue
			}
			if !isVendorExtension(key) && key != "title" && key != "description" {
				return Overlay{}, &OverlayError{Path: path, Reason: fmt.Sprintf("%q cannot be overridden", key)}
			}
			extensions[key] = entry[key]
		}
		if len(extensions) > 0 {
			overlay.Overrides = append(overlay.Overrides, OverlayOverride{Path: path, Extensions: extensions})
		}
	}
	return overlay, nil
}

// ApplyOverlay writes the overlay's extensions into payload in order.
// Object-valued extensions merge key by key into an existing object value;
// anything else replaces.
func ApplyOverlay(payload map[string]any, overlay Overlay) error {
	for _, override := range overlay.Overrides {
		target, err := overlayTarget(payload, override.Path)
		if err != nil {
			return &OverlayError{Path: override.Path, Reason: err.Error()}
		}
		for key, value := range override.Extensions {
			incoming, isObject := value.(map[string]any)
			existing, hasObject := target[key].(map[string]any)
			if !isObject || !hasObject {
				target[key] = patch.Clone(value)
				continue
			}
			merged := patch.Clone(existing).(map[string]any)
			for k, v := range incoming {
				merged[k] = patch.Clone(v)
			}
			target[key] = merged
		}
	}
	return nil
}

func overlayTarget(root map[string]any, path string) (map[string]any, error) {
	pointer := strings.TrimSpace(path)
	if fragment, ok := strings.CutPrefix(pointer, "#"); ok {
		decoded, err := url.PathUnescape(fragment)
		if err != nil {
			return nil, err
		}
		pointer = decoded
	}
	if pointer == "/" {
		pointer = ""
	}
	ptr, err := jsonpointer.New(pointer)
	if err != nil {
		return nil, err
	}
	value, _, err := ptr.Get(root)
	if err != nil {
		return nil, err
	}
	target, ok := value.(map[string]any)
	if !ok {
		return nil, errors.New("path does not name a schema object")
	}
	return target, nil
}
