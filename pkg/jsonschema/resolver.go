package jsonschema

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-openapi/jsonpointer"

	"github.com/goliatone/go-formengine/pkg/openapi"
	"github.com/goliatone/go-formengine/pkg/patch"
	"github.com/goliatone/go-formengine/pkg/schema"
)

// ResolveOptions bounds $ref expansion. Zero values select the defaults.
type ResolveOptions struct {
	// AllowHTTPRefs permits references to http and https documents.
	AllowHTTPRefs bool
	// AllowPathTraversal permits references outside the root document's
	// directory.
	AllowPathTraversal bool
	// MaxDocumentBytes caps each document, 5 MiB by default.
	MaxDocumentBytes int64
	// MaxDocuments caps the documents one Resolve touches, root included,
	// 128 by default.
	MaxDocuments int
	// MaxRefDepth caps nested $ref hops, 64 by default.
	MaxRefDepth int
}

func (o ResolveOptions) normalized() ResolveOptions {
	if o.MaxDocumentBytes <= 0 {
		o.MaxDocumentBytes = 5 << 20
	}
	if o.MaxDocuments <= 0 {
		o.MaxDocuments = 128
	}
	if o.MaxRefDepth <= 0 {
		o.MaxRefDepth = 64
	}
	return o
}

// Resolver expands $ref references wherever the converter reads a schema:
// under $defs, properties, items and oneOf. Fragment references need no
// loader; references to other documents do.
type Resolver struct {
	loader Loader
	opts   ResolveOptions
}

// NewResolver returns a resolver. loader may be nil.
func NewResolver(loader Loader, opts ResolveOptions) *Resolver {
	return &Resolver{loader: loader, opts: opts.normalized()}
}

// Resolve returns a copy of payload with every reachable $ref replaced by
// its target. Dangling pointers, cycles and $ref misuse fail with a
// *schema.SchemaError located at the JSON pointer of the offending $ref.
func (r *Resolver) Resolve(ctx context.Context, doc openapi.Document, payload map[string]any) (map[string]any, error) {
	if payload == nil {
		return nil, errors.New("jsonschema: payload is nil")
	}
	if doc.Source() == nil {
		return nil, errors.New("jsonschema: document has no source")
	}
	if size := int64(len(doc.Raw())); size > r.opts.MaxDocumentBytes {
		return nil, fmt.Errorf("jsonschema: %s is %d bytes, limit %d", doc.Location(), size, r.opts.MaxDocumentBytes)
	}
	root, err := newSchemaDoc(doc.Source(), payload)
	if err != nil {
		return nil, err
	}

	x := &expansion{
		ctx:    ctx,
		loader: r.loader,
		opts:   r.opts,
		root:   root,
		docs:   map[string]*schemaDoc{root.key: root},
	}
	out, err := x.expand(root, payload, RootComponent)
	if err != nil {
		return nil, err
	}
	resolved, ok := out.(map[string]any)
	if !ok {
		return nil, &schema.SchemaError{Path: RootComponent, Reason: "root $ref does not resolve to an object"}
	}
	return resolved, nil
}

// schemaDoc is one parsed document taking part in a resolution.
type schemaDoc struct {
	src openapi.Source
	// key identifies the document across relative spellings.
	key string
	// dir is what relative references resolve against.
	dir     string
	data    map[string]any
	anchors map[string]string
}

func newSchemaDoc(src openapi.Source, data map[string]any) (*schemaDoc, error) {
	key, dir, err := identify(src)
	if err != nil {
		return nil, err
	}
	d := &schemaDoc{src: src, key: key, dir: dir, data: data, anchors: make(map[string]string)}
	if err := d.index(data, ""); err != nil {
		return nil, err
	}
	return d, nil
}

func identify(src openapi.Source) (key, dir string, err error) {
	location := src.Location()
	switch src.Kind() {
	case openapi.SourceKindFile:
		abs, err := filepath.Abs(location)
		if err != nil {
			return "", "", err
		}
		return "file:" + abs, filepath.Dir(abs), nil
	case openapi.SourceKindFS:
		name := path.Clean(strings.TrimPrefix(location, "/"))
		return "fs:" + name, path.Dir(name), nil
	case openapi.SourceKindURL:
		return "url:" + location, location, nil
	default:
		return "", "", fmt.Errorf("jsonschema: unsupported source kind %q", src.Kind())
	}
}

// index records the JSON pointer of every $anchor.
func (d *schemaDoc) index(node any, pointer string) error {
	switch typed := node.(type) {
	case map[string]any:
		if name, _ := typed["$anchor"].(string); strings.TrimSpace(name) != "" {
			name = strings.TrimSpace(name)
			if _, dup := d.anchors[name]; dup {
				return &schema.SchemaError{Path: "#" + pointer, Reason: fmt.Sprintf("duplicate $anchor %q", name)}
			}
			d.anchors[name] = pointer
		}
		for key, value := range typed {
			if isVendorExtension(key) {
				continue
			}
			if err := d.index(value, pointer+"/"+escapeJSONPointer(key)); err != nil {
				return err
			}
		}
	case []any:
		for i, value := range typed {
			if err := d.index(value, pointer+"/"+strconv.Itoa(i)); err != nil {
				return err
			}
		}
	}
	return nil
}

// target returns a copy of the value a fragment names: empty for the whole
// document, a JSON pointer, or an $anchor name.
func (d *schemaDoc) target(fragment string) (any, error) {
	pointer := fragment
	if fragment != "" && !strings.HasPrefix(fragment, "/") {
		p, ok := d.anchors[fragment]
		if !ok {
			return nil, fmt.Errorf("no $anchor %q in %s", fragment, d.src.Location())
		}
		pointer = p
	}
	ptr, err := jsonpointer.New(pointer)
	if err != nil {
		return nil, err
	}
	value, _, err := ptr.Get(d.data)
	if err != nil {
		return nil, fmt.Errorf("%s#%s: %w", d.src.Location(), pointer, err)
	}
	return patch.Clone(value), nil
}

// frame is one $ref being expanded.
type frame struct {
	key string
	ref string
	at  string
}

type expansion struct {
	ctx    context.Context
	loader Loader
	opts   ResolveOptions
	root   *schemaDoc
	docs   map[string]*schemaDoc
	stack  []frame
}

func (x *expansion) expand(doc *schemaDoc, node any, at string) (any, error) {
	payload, ok := node.(map[string]any)
	if !ok {
		return node, nil
	}
	if ref, ok := payload["$ref"].(string); ok {
		return x.follow(doc, payload, strings.TrimSpace(ref), at)
	}

	out := make(map[string]any, len(payload))
	for key, value := range payload {
		out[key] = value
	}
	for _, key := range []string{"$defs", "properties"} {
		children, ok := payload[key].(map[string]any)
		if !ok {
			continue
		}
		expanded := make(map[string]any, len(children))
		for _, name := range sortedKeys(children) {
			child, err := x.expand(doc, children[name], joinPath(at, key, name))
			if err != nil {
				return nil, err
			}
			expanded[name] = child
		}
		out[key] = expanded
	}
	if items, ok := payload["items"]; ok {
		child, err := x.expand(doc, items, joinPath(at, "items"))
		if err != nil {
			return nil, err
		}
		out["items"] = child
	}
	if variants, ok := payload["oneOf"].([]any); ok {
		expanded := make([]any, len(variants))
		for i, variant := range variants {
			child, err := x.expand(doc, variant, joinPath(at, "oneOf", strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			expanded[i] = child
		}
		out["oneOf"] = expanded
	}
	return out, nil
}

func (x *expansion) follow(doc *schemaDoc, site map[string]any, ref, at string) (any, error) {
	invalid := func(format string, args ...any) error {
		return &schema.SchemaError{Path: at, Reason: fmt.Sprintf(format, args...)}
	}
	if len(x.stack) >= x.opts.MaxRefDepth {
		return nil, invalid("$ref %q nests deeper than %d", ref, x.opts.MaxRefDepth)
	}
	u, err := url.Parse(ref)
	if err != nil || ref == "" {
		return nil, invalid("invalid $ref %q", ref)
	}
	fragment := u.Fragment
	u.Fragment, u.RawFragment = "", ""

	target := doc
	if u.String() != "" {
		if target, err = x.document(doc, u); err != nil {
			return nil, fmt.Errorf("jsonschema: %s: $ref %q: %w", at, ref, err)
		}
	}

	key := target.key + "#" + fragment
	for i, f := range x.stack {
		if f.key != key {
			continue
		}
		chain := make([]string, 0, len(x.stack)-i+1)
		for _, open := range x.stack[i:] {
			chain = append(chain, open.ref)
		}
		return nil, &schema.SchemaError{
			Path:   f.at,
			Reason: fmt.Sprintf("$ref cycle %s -> %s", strings.Join(chain, " -> "), ref),
		}
	}

	value, err := target.target(fragment)
	if err != nil {
		return nil, invalid("$ref %q: %v", ref, err)
	}
	merged, err := withSiblings(value, site)
	if err != nil {
		return nil, invalid("%v", err)
	}

	x.stack = append(x.stack, frame{key: key, ref: ref, at: at})
	out, err := x.expand(target, merged, at)
	x.stack = x.stack[:len(x.stack)-1]
	if err != nil {
		return nil, err
	}

	// A root that is itself a $ref keeps its own $defs.
	if defs, ok := site["$defs"]; ok {
		holder, err := x.expand(doc, map[string]any{"$defs": defs}, at)
		if err != nil {
			return nil, err
		}
		if resolved, ok := out.(map[string]any); ok {
			resolved["$defs"] = holder.(map[string]any)["$defs"]
		}
	}
	return out, nil
}

// withSiblings lays the annotations written next to a $ref over its target.
// Document keywords beside it stay with the document.
func withSiblings(target any, site map[string]any) (any, error) {
	payload, isObject := target.(map[string]any)
	for _, key := range sortedKeys(site) {
		switch key {
		case "$ref", "$schema", "$id", "$comment", "$anchor", "$defs":
			continue
		}
		if key != "title" && key != "description" && key != "default" && !isVendorExtension(key) {
			return nil, fmt.Errorf("unsupported $ref sibling %q", key)
		}
		if !isObject {
			return nil, fmt.Errorf("$ref sibling %q needs an object target", key)
		}
		payload[key] = site[key]
	}
	return target, nil
}

func (x *expansion) document(base *schemaDoc, u *url.URL) (*schemaDoc, error) {
	src, err := x.locate(base, u)
	if err != nil {
		return nil, err
	}
	key, _, err := identify(src)
	if err != nil {
		return nil, err
	}
	if cached, ok := x.docs[key]; ok {
		return cached, nil
	}
	if x.loader == nil {
		return nil, fmt.Errorf("%s: external references need a loader", src.Location())
	}
	if len(x.docs) >= x.opts.MaxDocuments {
		return nil, fmt.Errorf("more than %d documents", x.opts.MaxDocuments)
	}
	if err := x.ctx.Err(); err != nil {
		return nil, err
	}

	loaded, err := x.loader.Load(x.ctx, src)
	if err != nil {
		return nil, err
	}
	if size := int64(len(loaded.Raw())); size > x.opts.MaxDocumentBytes {
		return nil, fmt.Errorf("%s is %d bytes, limit %d", src.Location(), size, x.opts.MaxDocumentBytes)
	}
	payload, err := parseJSONSchema(loaded.Raw())
	if err != nil {
		return nil, err
	}
	if err := validateDialect(payload); err != nil {
		return nil, err
	}
	d, err := newSchemaDoc(src, payload)
	if err != nil {
		return nil, err
	}
	x.docs[d.key] = d
	return d, nil
}

// locate turns a fragment-free reference into a source, relative to base.
func (x *expansion) locate(base *schemaDoc, u *url.URL) (openapi.Source, error) {
	switch u.Scheme {
	case "http", "https":
		if !x.opts.AllowHTTPRefs {
			return nil, errors.New("http references are disabled")
		}
		return openapi.SourceFromURL(u.String())
	case "file":
		return x.contain(openapi.SourceFromFile(u.Path))
	case "":
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	switch base.src.Kind() {
	case openapi.SourceKindURL:
		if !x.opts.AllowHTTPRefs {
			return nil, errors.New("http references are disabled")
		}
		baseURL, err := url.Parse(base.dir)
		if err != nil {
			return nil, err
		}
		return openapi.SourceFromURL(baseURL.ResolveReference(u).String())
	case openapi.SourceKindFile:
		name := filepath.FromSlash(u.Path)
		if !filepath.IsAbs(name) {
			name = filepath.Join(base.dir, name)
		}
		return x.contain(openapi.SourceFromFile(name))
	default:
		return x.contain(openapi.SourceFromFS(path.Join(base.dir, u.Path)))
	}
}

// contain rejects sources outside the root document's directory unless
// AllowPathTraversal is set.
func (x *expansion) contain(src openapi.Source) (openapi.Source, error) {
	if x.opts.AllowPathTraversal {
		return src, nil
	}
	escapes := fmt.Errorf("%s escapes %s", src.Location(), x.root.dir)
	if src.Kind() != x.root.src.Kind() {
		return nil, escapes
	}
	_, dir, err := identify(src)
	if err != nil {
		return nil, err
	}
	switch src.Kind() {
	case openapi.SourceKindFile:
		rel, err := filepath.Rel(x.root.dir, dir)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, escapes
		}
	default:
		if x.root.dir != "." && dir != x.root.dir && !strings.HasPrefix(dir, x.root.dir+"/") {
			return nil, escapes
		}
		if dir == ".." || strings.HasPrefix(dir, "../") {
			return nil, escapes
		}
	}
	return src, nil
}
