package jsonschema

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	sjs "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/goliatone/go-formengine/pkg/openapi"
	"github.com/goliatone/go-formengine/pkg/schema"
)

// RootComponent names the document root in Components and FromDocument.
const RootComponent = "#"

// ErrComponentNotFound is returned when the requested $defs entry does not
// exist.
var ErrComponentNotFound = errors.New("jsonschema: component not found")

// Option configures FromDocument.
type Option func(*config)

type config struct {
	loader   Loader
	resolve  ResolveOptions
	overlays []Overlay
	meta     bool
}

// WithLoader supplies the loader used for external references.
func WithLoader(loader Loader) Option {
	return func(c *config) {
		c.loader = loader
	}
}

// WithResolveOptions replaces the resolver guardrails.
func WithResolveOptions(opts ResolveOptions) Option {
	return func(c *config) {
		c.resolve = opts
	}
}

// WithOverlay applies overlay to the resolved document before conversion.
// Overlays apply in the order given.
func WithOverlay(overlay Overlay) Option {
	return func(c *config) {
		c.overlays = append(c.overlays, overlay)
	}
}

// WithMetaValidation validates the document against the draft 2020-12
// metaschema before conversion.
func WithMetaValidation() Option {
	return func(c *config) {
		c.meta = true
	}
}

// Components lists RootComponent followed by the sorted $defs names of raw.
func Components(raw []byte) ([]string, error) {
	payload, err := parseJSONSchema(raw)
	if err != nil {
		return nil, err
	}
	if err := validateDialect(payload); err != nil {
		return nil, err
	}
	defs, _ := payload["$defs"].(map[string]any)
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return append([]string{RootComponent}, names...), nil
}

// FromDocument resolves doc and converts the component named component. An
// empty component or RootComponent converts the root schema; other names
// select an entry of $defs.
func FromDocument(ctx context.Context, doc openapi.Document, component string, opts ...Option) (*schema.Node, error) {
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	payload, err := parseJSONSchema(doc.Raw())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", doc.Location(), err)
	}
	if err := validateDialect(payload); err != nil {
		return nil, fmt.Errorf("%s: %w", doc.Location(), err)
	}
	if cfg.meta {
		if err := MetaValidate(doc.Raw()); err != nil {
			return nil, fmt.Errorf("%s: %w", doc.Location(), err)
		}
	}

	resolved, err := NewResolver(cfg.loader, cfg.resolve).Resolve(ctx, doc, payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", doc.Location(), err)
	}
	for _, overlay := range cfg.overlays {
		if err := ApplyOverlay(resolved, overlay); err != nil {
			return nil, fmt.Errorf("%s: %w", doc.Location(), err)
		}
	}

	target, at, err := selectComponent(resolved, component)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", doc.Location(), err)
	}
	node, err := convert(target, at)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", doc.Location(), err)
	}
	return node, nil
}

func selectComponent(resolved map[string]any, component string) (map[string]any, string, error) {
	name := strings.TrimSpace(component)
	if name == "" || name == RootComponent {
		return resolved, RootComponent, nil
	}
	name = strings.TrimPrefix(name, "#/$defs/")
	defs, _ := resolved["$defs"].(map[string]any)
	target, ok := defs[name].(map[string]any)
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", ErrComponentNotFound, name)
	}
	return target, joinPath(RootComponent, "$defs", name), nil
}

// MetaValidate checks raw against the draft 2020-12 metaschema.
func MetaValidate(raw []byte) error {
	instance, err := sjs.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("jsonschema: parse schema: %w", err)
	}
	compiler := sjs.NewCompiler()
	meta, err := compiler.Compile(Draft202012)
	if err != nil {
		return fmt.Errorf("jsonschema: compile metaschema: %w", err)
	}
	if err := meta.Validate(instance); err != nil {
		return fmt.Errorf("jsonschema: metaschema: %w", err)
	}
	return nil
}
