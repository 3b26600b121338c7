// Package formengine is the top-level entry point: it re-exports the
// orchestrator constructor and a few one-call helpers so simple callers do
// not need to import the pipeline packages one by one.
package formengine

import (
	"context"
	"io/fs"

	"github.com/goliatone/go-formengine/pkg/openapi"
	"github.com/goliatone/go-formengine/pkg/orchestrator"
	"github.com/goliatone/go-formengine/pkg/renderers/html"
)

// Request aliases orchestrator.Request.
type Request = orchestrator.Request

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) (*orchestrator.Orchestrator, error) {
	return orchestrator.New(options...)
}

// NewLoader constructs an OpenAPI loader.
func NewLoader(options ...openapi.LoaderOption) *openapi.Loader {
	return openapi.NewLoader(options...)
}

// GenerateHTML loads source, converts component and renders it as HTML. The
// UI schema form named formID is applied when the options supply a store
// holding it.
func GenerateHTML(ctx context.Context, source openapi.Source, component, formID string, options ...orchestrator.Option) ([]byte, error) {
	o, err := orchestrator.New(options...)
	if err != nil {
		return nil, err
	}
	return o.Generate(ctx, Request{
		Source:    source,
		Component: component,
		FormID:    formID,
	})
}

// EmbeddedTemplates exposes the built-in HTML templates so callers can copy
// or extend them without importing the renderer package.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}
