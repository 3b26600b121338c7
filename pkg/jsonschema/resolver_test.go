package jsonschema

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/openapi"
	"github.com/goliatone/go-formengine/pkg/schema"
)

const draftHeader = `"$schema":"https://json-schema.org/draft/2020-12/schema"`

// memoryLoader serves documents by location and counts loads.
type memoryLoader struct {
	docs  map[string]string
	loads map[string]int
}

func (m *memoryLoader) Load(_ context.Context, src openapi.Source) (openapi.Document, error) {
	if m.loads != nil {
		m.loads[src.Location()]++
	}
	raw, ok := m.docs[src.Location()]
	if !ok {
		return openapi.Document{}, fmt.Errorf("missing document %q", src.Location())
	}
	return openapi.NewDocument(src, []byte(raw))
}

func resolveFS(t *testing.T, loader Loader, opts ResolveOptions, name, raw string) (map[string]any, error) {
	t.Helper()
	doc, err := openapi.NewDocument(openapi.SourceFromFS(name), []byte(raw))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	payload, err := parseJSONSchema(doc.Raw())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return NewResolver(loader, opts).Resolve(context.Background(), doc, payload)
}

func TestResolver_Expands(t *testing.T) {
	defs := `{` + draftHeader + `,"$defs":{"name":{"type":"string","minLength":1}}}`
	tests := []struct {
		name string
		root string
		at   []string
		want map[string]any
	}{
		{
			name: "local pointer",
			root: `{` + draftHeader + `,"$defs":{"name":{"type":"string"}},"properties":{"name":{"$ref":"#/$defs/name"}}}`,
			at:   []string{"properties", "name"},
			want: map[string]any{"type": "string"},
		},
		{
			name: "anchor",
			root: `{` + draftHeader + `,"$defs":{"t":{"$anchor":"Title","type":"string"}},"properties":{"title":{"$ref":"#Title"}}}`,
			at:   []string{"properties", "title"},
			want: map[string]any{"$anchor": "Title", "type": "string"},
		},
		{
			name: "escaped pointer",
			root: `{` + draftHeader + `,"$defs":{"a/b":{"type":"number"}},"properties":{"n":{"$ref":"#/$defs/a~1b"}}}`,
			at:   []string{"properties", "n"},
			want: map[string]any{"type": "number"},
		},
		{
			name: "external document",
			root: `{` + draftHeader + `,"properties":{"name":{"$ref":"defs.json#/$defs/name"}}}`,
			at:   []string{"properties", "name"},
			want: map[string]any{"type": "string", "minLength": float64(1)},
		},
		{
			name: "siblings override target",
			root: `{` + draftHeader + `,"properties":{"name":{"$ref":"defs.json#/$defs/name","title":"Name","x-widget":"text"}}}`,
			at:   []string{"properties", "name"},
			want: map[string]any{"type": "string", "minLength": float64(1), "title": "Name", "x-widget": "text"},
		},
		{
			name: "array items and variants",
			root: `{` + draftHeader + `,"$defs":{"s":{"type":"string"}},"properties":{"tags":{"type":"array","items":{"oneOf":[{"$ref":"#/$defs/s"}]}}}}`,
			at:   []string{"properties", "tags", "items"},
			want: map[string]any{"oneOf": []any{map[string]any{"type": "string"}}},
		},
		{
			name: "root ref keeps its defs",
			root: `{` + draftHeader + `,"$ref":"#/$defs/form","$defs":{"form":{"type":"object","properties":{"n":{"type":"string"}}}}}`,
			want: map[string]any{
				"type":       "object",
				"properties": map[string]any{"n": map[string]any{"type": "string"}},
				"$defs": map[string]any{"form": map[string]any{
					"type":       "object",
					"properties": map[string]any{"n": map[string]any{"type": "string"}},
				}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := &memoryLoader{docs: map[string]string{"defs.json": defs}}
			resolved, err := resolveFS(t, loader, ResolveOptions{}, "root.json", tt.root)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			var got any = resolved
			for _, key := range tt.at {
				got = got.(map[string]any)[key]
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("resolved mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolver_LeavesPayloadIntact(t *testing.T) {
	root := `{` + draftHeader + `,"$defs":{"s":{"type":"string"}},"properties":{"a":{"$ref":"#/$defs/s"},"b":{"$ref":"#/$defs/s"}}}`
	doc, err := openapi.NewDocument(openapi.SourceFromFS("root.json"), []byte(root))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	payload, err := parseJSONSchema(doc.Raw())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	resolved, err := NewResolver(nil, ResolveOptions{}).Resolve(context.Background(), doc, payload)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	props := resolved["properties"].(map[string]any)
	props["a"].(map[string]any)["type"] = "number"
	if got := props["b"].(map[string]any)["type"]; got != "string" {
		t.Fatalf("refs to one target should not share maps, b.type = %v", got)
	}
	if _, ok := payload["properties"].(map[string]any)["a"].(map[string]any)["$ref"]; !ok {
		t.Fatalf("payload should keep its $ref")
	}
}

func TestResolver_SchemaErrors(t *testing.T) {
	tests := []struct {
		name     string
		root     string
		wantPath string
		wantMsg  string
	}{
		{
			name:     "mutual cycle",
			root:     `{` + draftHeader + `,"$defs":{"a":{"$ref":"#/$defs/b"},"b":{"$ref":"#/$defs/a"}}}`,
			wantPath: "#/$defs/a",
			wantMsg:  "$ref cycle #/$defs/b -> #/$defs/a -> #/$defs/b",
		},
		{
			name:     "root refers to itself",
			root:     `{` + draftHeader + `,"$defs":{"a":{"$ref":"#/$defs/a"}},"$ref":"#/$defs/a"}`,
			wantPath: "#",
			wantMsg:  "$ref cycle #/$defs/a -> #/$defs/a",
		},
		{
			name:     "recursive object",
			root:     `{` + draftHeader + `,"$defs":{"node":{"type":"object","properties":{"next":{"$ref":"#/$defs/node"}}}}}`,
			wantPath: "#/$defs/node/properties/next",
			wantMsg:  "$ref cycle",
		},
		{
			name:     "dangling pointer",
			root:     `{` + draftHeader + `,"properties":{"a":{"$ref":"#/$defs/missing"}}}`,
			wantPath: "#/properties/a",
			wantMsg:  "#/$defs/missing",
		},
		{
			name:     "unknown anchor",
			root:     `{` + draftHeader + `,"properties":{"a":{"$ref":"#Nope"}}}`,
			wantPath: "#/properties/a",
			wantMsg:  `no $anchor "Nope"`,
		},
		{
			name:    "duplicate anchor",
			root:    `{` + draftHeader + `,"$defs":{"a":{"$anchor":"X"},"b":{"$anchor":"X"}}}`,
			wantMsg: `duplicate $anchor "X"`,
		},
		{
			name:     "unsupported sibling",
			root:     `{` + draftHeader + `,"$defs":{"s":{"type":"string"}},"properties":{"a":{"$ref":"#/$defs/s","minLength":2}}}`,
			wantPath: "#/properties/a",
			wantMsg:  `unsupported $ref sibling "minLength"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolveFS(t, nil, ResolveOptions{}, "root.json", tt.root)
			var se *schema.SchemaError
			if !errors.As(err, &se) {
				t.Fatalf("expected *schema.SchemaError, got %v", err)
			}
			if tt.wantPath != "" && se.Path != tt.wantPath {
				t.Fatalf("path = %q, want %q (%v)", se.Path, tt.wantPath, err)
			}
			if !strings.Contains(se.Reason, tt.wantMsg) {
				t.Fatalf("reason %q does not contain %q", se.Reason, tt.wantMsg)
			}
		})
	}
}

func TestResolver_Guardrails(t *testing.T) {
	defs := `{` + draftHeader + `,"$defs":{"name":{"type":"string","description":"a description long enough to trip the byte limit"}}}`
	external := `{` + draftHeader + `,"properties":{"name":{"$ref":"defs.json#/$defs/name"}}}`
	tests := []struct {
		name    string
		docName string
		root    string
		loader  Loader
		opts    ResolveOptions
		wantMsg string
	}{
		{
			name:    "external ref without loader",
			docName: "root.json",
			root:    external,
			wantMsg: "need a loader",
		},
		{
			name:    "path traversal",
			docName: "schemas/root.json",
			root:    `{` + draftHeader + `,"properties":{"secret":{"$ref":"../secret.json"}}}`,
			loader:  &memoryLoader{},
			wantMsg: "escapes",
		},
		{
			name:    "max documents",
			docName: "root.json",
			root:    external,
			loader:  &memoryLoader{docs: map[string]string{"defs.json": defs}},
			opts:    ResolveOptions{MaxDocuments: 1},
			wantMsg: "more than 1 documents",
		},
		{
			name:    "max document bytes",
			docName: "root.json",
			root:    external,
			loader:  &memoryLoader{docs: map[string]string{"defs.json": defs}},
			opts:    ResolveOptions{MaxDocumentBytes: int64(len(external))},
			wantMsg: "bytes, limit",
		},
		{
			name:    "http disabled",
			docName: "root.json",
			root:    `{` + draftHeader + `,"properties":{"remote":{"$ref":"http://example.com/schema.json"}}}`,
			loader:  &memoryLoader{},
			wantMsg: "http references are disabled",
		},
		{
			name:    "unsupported scheme",
			docName: "root.json",
			root:    `{` + draftHeader + `,"properties":{"remote":{"$ref":"ftp://example.com/schema.json"}}}`,
			loader:  &memoryLoader{},
			wantMsg: `unsupported scheme "ftp"`,
		},
		{
			name:    "ref depth",
			docName: "root.json",
			root:    `{` + draftHeader + `,"$defs":{"a":{"$ref":"#/$defs/b"},"b":{"$ref":"#/$defs/c"},"c":{"type":"string"}}}`,
			opts:    ResolveOptions{MaxRefDepth: 1},
			wantMsg: "nests deeper than 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolveFS(t, tt.loader, tt.opts, tt.docName, tt.root)
			if err == nil || !strings.Contains(err.Error(), tt.wantMsg) {
				t.Fatalf("expected error containing %q, got %v", tt.wantMsg, err)
			}
		})
	}
}

func TestResolver_HTTPRefs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/root.json":
			_, _ = w.Write([]byte(`{` + draftHeader + `,"$defs":{"code":{"$ref":"codes.json"}}}`))
		case "/codes.json":
			_, _ = w.Write([]byte(`{` + draftHeader + `,"type":"string","pattern":"^[A-Z]+$"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	root := fmt.Sprintf(`{`+draftHeader+`,"properties":{"code":{"$ref":"%s/root.json#/$defs/code"}}}`, server.URL)
	loader := openapi.NewLoader(openapi.WithHTTPClient(server.Client()))
	resolved, err := resolveFS(t, loader, ResolveOptions{AllowHTTPRefs: true}, "root.json", root)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	code := resolved["properties"].(map[string]any)["code"].(map[string]any)
	if code["type"] != "string" || code["pattern"] != "^[A-Z]+$" {
		t.Fatalf("expected relative http ref to resolve, got %#v", code)
	}
}

func TestResolver_LoadsEachDocumentOnce(t *testing.T) {
	root := `{` + draftHeader + `,"properties":{"first":{"$ref":"defs.json#/$defs/name"},"second":{"$ref":"./defs.json#/$defs/name"}}}`
	loader := &memoryLoader{
		docs:  map[string]string{"defs.json": `{` + draftHeader + `,"$defs":{"name":{"type":"string"}}}`},
		loads: make(map[string]int),
	}
	if _, err := resolveFS(t, loader, ResolveOptions{}, "root.json", root); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if diff := cmp.Diff(map[string]int{"defs.json": 1}, loader.loads); diff != "" {
		t.Fatalf("loads mismatch (-want +got):\n%s", diff)
	}
}
