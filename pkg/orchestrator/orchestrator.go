package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/goliatone/go-formengine/pkg/form"
	"github.com/goliatone/go-formengine/pkg/jsonschema"
	"github.com/goliatone/go-formengine/pkg/openapi"
	"github.com/goliatone/go-formengine/pkg/renderers/html"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/uischema"
)

// ErrFormNotFound is returned when a request names a UI schema form the store
// does not hold.
var ErrFormNotFound = errors.New("orchestrator: ui schema form not found")

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithLoader injects a configured OpenAPI loader.
func WithLoader(loader *openapi.Loader) Option {
	return func(o *Orchestrator) {
		o.loader = loader
	}
}

// WithParseOptions forwards options to the OpenAPI parser.
func WithParseOptions(opts ...openapi.ParseOption) Option {
	return func(o *Orchestrator) {
		o.parseOpts = append(o.parseOpts, opts...)
	}
}

// WithJSONSchemaOptions forwards options to the JSON Schema adapter used for
// documents that are not OpenAPI. The orchestrator's loader is always passed
// for external references.
func WithJSONSchemaOptions(opts ...jsonschema.Option) Option {
	return func(o *Orchestrator) {
		o.jsonOpts = append(o.jsonOpts, opts...)
	}
}

// WithUIStore supplies an already loaded UI schema store.
func WithUIStore(store *uischema.Store) Option {
	return func(o *Orchestrator) {
		o.store = store
	}
}

// WithUISchemaFS loads every UI schema document found in fsys.
func WithUISchemaFS(fsys fs.FS) Option {
	return func(o *Orchestrator) {
		o.uiFS = fsys
	}
}

// WithSchemaTransformer registers a Transformer that runs after conversion
// and before the form is built.
func WithSchemaTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.transformers = append(o.transformers, t)
		}
	}
}

// WithFormOptions appends options applied to every form the orchestrator
// builds.
func WithFormOptions(opts ...form.Option) Option {
	return func(o *Orchestrator) {
		o.formOpts = append(o.formOpts, opts...)
	}
}

// WithRenderer overrides the HTML renderer used by Generate.
func WithRenderer(r *html.Renderer) Option {
	return func(o *Orchestrator) {
		o.renderer = r
	}
}

// WithLogger sets the logger used for pipeline diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator coordinates the pipeline from an OpenAPI or JSON Schema
// document to a live form and its HTML rendition.
type Orchestrator struct {
	loader       *openapi.Loader
	parseOpts    []openapi.ParseOption
	jsonOpts     []jsonschema.Option
	store        *uischema.Store
	uiFS         fs.FS
	transformers []Transformer
	formOpts     []form.Option
	renderer     *html.Renderer
	logger       *slog.Logger
}

// New constructs an Orchestrator. Missing dependencies get the built-in
// implementations: a file system loader, an empty UI store and the default
// HTML renderer.
func New(options ...Option) (*Orchestrator, error) {
	o := &Orchestrator{logger: slog.Default()}
	for _, opt := range options {
		if opt != nil {
			opt(o)
		}
	}

	if o.loader == nil {
		o.loader = openapi.NewLoader()
	}
	if o.store == nil {
		store, err := uischema.LoadFS(o.uiFS)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: load ui schema: %w", err)
		}
		o.store = store
	}
	if o.renderer == nil {
		renderer, err := html.New()
		if err != nil {
			return nil, fmt.Errorf("orchestrator: default renderer: %w", err)
		}
		o.renderer = renderer
	}
	return o, nil
}

// Request describes which schema to build a form for.
type Request struct {
	// Source identifies where the OpenAPI document lives. Optional when
	// Document is supplied.
	Source openapi.Source

	// Document bypasses the loader when the caller already holds the bytes.
	Document *openapi.Document

	// Component names the schema under components.schemas, or the $defs
	// entry of a JSON Schema document. JSON Schema documents convert their
	// root when Component is empty.
	Component string

	// FormID selects the UI schema form. When empty the component name is
	// tried and a missing form is not an error.
	FormID string

	// Data seeds the form through the Default Values Provider.
	Data any
}

// Schema loads the document and converts the requested component.
func (o *Orchestrator) Schema(ctx context.Context, req Request) (*schema.Node, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := o.resolveDocument(ctx, req)
	if err != nil {
		return nil, err
	}
	var node *schema.Node
	if jsonschema.Detect(doc.Raw()) {
		opts := append([]jsonschema.Option{jsonschema.WithLoader(o.loader)}, o.jsonOpts...)
		node, err = jsonschema.FromDocument(ctx, doc, req.Component, opts...)
	} else {
		if req.Component == "" {
			return nil, errors.New("orchestrator: component is required")
		}
		node, err = openapi.FromDocument(ctx, doc, req.Component, o.parseOpts...)
	}
	if err != nil {
		return nil, fmt.Errorf("orchestrator: convert %q: %w", req.Component, err)
	}
	for _, t := range o.transformers {
		node, err = t.Transform(ctx, node)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: transform schema: %w", err)
		}
		if node == nil {
			return nil, errors.New("orchestrator: transformer returned no schema")
		}
	}
	o.logger.Debug("schema converted", "component", req.Component, "source", doc.Location())
	return node, nil
}

// UISchema returns the UI schema form selected by req, or nil when the
// request does not name one and none matches the component.
func (o *Orchestrator) UISchema(req Request) (*uischema.Node, error) {
	if req.FormID != "" {
		node, ok := o.store.Form(req.FormID)
		if !ok {
			return nil, fmt.Errorf("%w: %q (known: %v)", ErrFormNotFound, req.FormID, o.store.IDs())
		}
		return node, nil
	}
	if node, ok := o.store.Form(req.Component); ok {
		return node, nil
	}
	return nil, nil
}

// Form runs the pipeline up to a live form. extra options are applied after
// the orchestrator's own.
func (o *Orchestrator) Form(ctx context.Context, req Request, extra ...form.Option) (*form.Form, error) {
	node, err := o.Schema(ctx, req)
	if err != nil {
		return nil, err
	}
	ui, err := o.UISchema(req)
	if err != nil {
		return nil, err
	}

	opts := []form.Option{form.WithLogger(o.logger)}
	if ui != nil {
		opts = append(opts, form.WithUISchema(ui))
	}
	if req.Data != nil {
		opts = append(opts, form.WithDefaultValues(req.Data))
	}
	opts = append(opts, o.formOpts...)
	opts = append(opts, extra...)

	f, err := form.New(node, opts...)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: build form: %w", err)
	}
	return f, nil
}

// Generate builds the form and renders it to HTML.
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	f, err := o.Form(ctx, req)
	if err != nil {
		return nil, err
	}
	out, err := o.renderer.Render(f)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	return out, nil
}

// Components lists the schema components of the requested document.
func (o *Orchestrator) Components(ctx context.Context, req Request) ([]string, error) {
	doc, err := o.resolveDocument(ctx, req)
	if err != nil {
		return nil, err
	}
	if jsonschema.Detect(doc.Raw()) {
		return jsonschema.Components(doc.Raw())
	}
	return openapi.Components(ctx, doc.Raw(), o.parseOpts...)
}

// Forms lists the UI schema form ids known to the store.
func (o *Orchestrator) Forms() []string {
	return o.store.IDs()
}

func (o *Orchestrator) resolveDocument(ctx context.Context, req Request) (openapi.Document, error) {
	if req.Document != nil {
		return *req.Document, nil
	}
	if req.Source == nil {
		return openapi.Document{}, errors.New("orchestrator: source or document is required")
	}
	doc, err := o.loader.Load(ctx, req.Source)
	if err != nil {
		return openapi.Document{}, fmt.Errorf("orchestrator: load document: %w", err)
	}
	return doc, nil
}
