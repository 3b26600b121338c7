package jsonschema

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestApplyOverlay(t *testing.T) {
	overlay, err := ParseOverlay([]byte(`{
  "$schema": "x-ui-overlay/v1",
  "overrides": [
    {"path": "/properties/title", "x-ui": {"label": "Overlay"}},
    {"path": "#/properties/a%20b", "x-widget": "textarea", "description": "Spaced"},
    {"path": "/", "x-order": 1},
    {"path": "/properties/skipped"}
  ]
}`))
	if err != nil {
		t.Fatalf("parse overlay: %v", err)
	}
	if len(overlay.Overrides) != 3 {
		t.Fatalf("expected path-only override to be dropped, got %+v", overlay.Overrides)
	}

	payload, err := parseJSONSchema([]byte(`{
  "type": "object",
  "properties": {
    "title": {"type": "string", "x-ui": {"label": "Inline", "widget": "text"}},
    "a b": {"type": "string"}
  }
}`))
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	if err := ApplyOverlay(payload, overlay); err != nil {
		t.Fatalf("apply overlay: %v", err)
	}

	want := map[string]any{
		"type":    "object",
		"x-order": float64(1),
		"properties": map[string]any{
			"title": map[string]any{"type": "string", "x-ui": map[string]any{"label": "Overlay", "widget": "text"}},
			"a b":   map[string]any{"type": "string", "x-widget": "textarea", "description": "Spaced"},
		},
	}
	if diff := cmp.Diff(want, payload); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyOverlay_BadTargets(t *testing.T) {
	payload := map[string]any{
		"type":       "object",
		"required":   []any{"title"},
		"properties": map[string]any{"title": map[string]any{"type": "string"}},
	}
	for _, path := range []string{"/properties/missing", "/required/0", "properties"} {
		overlay := Overlay{Overrides: []OverlayOverride{{Path: path, Extensions: map[string]any{"x-ui": "x"}}}}
		err := ApplyOverlay(payload, overlay)
		var overlayErr *OverlayError
		if !errors.As(err, &overlayErr) || overlayErr.Path != path {
			t.Fatalf("%s: expected *OverlayError, got %v", path, err)
		}
	}
}

func TestParseOverlay_Errors(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantPath string
		wantMsg  string
	}{
		{name: "empty", raw: ``, wantMsg: "parse"},
		{name: "missing schema", raw: `{"overrides": []}`, wantMsg: "$schema must be"},
		{name: "other version", raw: `{"$schema": "x-ui-overlay/v2"}`, wantMsg: `got "x-ui-overlay/v2"`},
		{name: "overrides not a list", raw: `{"$schema": "x-ui-overlay/v1", "overrides": {}}`, wantMsg: "parse"},
		{name: "missing path", raw: `{"$schema": "x-ui-overlay/v1", "overrides": [{"x-ui": {}}]}`, wantMsg: "overrides[0] has no path"},
		{
			name:     "core keyword",
			raw:      `{"$schema": "x-ui-overlay/v1", "overrides": [{"path": "/properties/title", "type": "number"}]}`,
			wantPath: "/properties/title",
			wantMsg:  `"type" cannot be overridden`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOverlay([]byte(tt.raw))
			var overlayErr *OverlayError
			if !errors.As(err, &overlayErr) {
				t.Fatalf("expected *OverlayError, got %v", err)
			}
			if overlayErr.Path != tt.wantPath || !strings.Contains(overlayErr.Reason, tt.wantMsg) {
				t.Fatalf("got %v, want path %q and reason containing %q", err, tt.wantPath, tt.wantMsg)
			}
		})
	}
}
