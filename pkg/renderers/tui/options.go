package tui

import (
	"io"

	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/widgets"
)

// OutputFormat controls how the submitted value is serialized.
type OutputFormat string

const (
	// OutputFormatJSON emits indented JSON.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatFormURLEncoded emits application/x-www-form-urlencoded
	// pairs keyed by serialized field path.
	OutputFormatFormURLEncoded OutputFormat = "form"
	// OutputFormatPrettyText emits one "path: value" line per leaf.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// Theme captures optional message prefixes the filler applies.
type Theme struct {
	PromptPrefix string
	InfoPrefix   string
	ErrorPrefix  string
}

// DefaultMaxAttempts bounds how often a field that failed validation is
// prompted again.
const DefaultMaxAttempts = 3

// Option configures the TUI filler.
type Option func(*Filler)

// WithPromptDriver overrides the prompt driver used by the filler.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Filler) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithOutput sends info lines of the default survey driver to w.
func WithOutput(w io.Writer) Option {
	return func(r *Filler) {
		r.out = w
	}
}

// WithOutputFormat selects the output serialization format.
func WithOutputFormat(format OutputFormat) Option {
	return func(r *Filler) {
		if format != "" {
			r.outputFormat = format
		}
	}
}

// WithMaxAttempts bounds re-prompts per failing field. Values below one
// disable re-prompting.
func WithMaxAttempts(n int) Option {
	return func(r *Filler) {
		r.maxAttempts = n
	}
}

// WithLocalizer translates labels shown in prompts.
func WithLocalizer(l *render.Localizer) Option {
	return func(r *Filler) {
		r.localizer = l
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(r *Filler) {
		r.theme = theme
	}
}

// WithWidgets replaces the registry that picks password and multi-line
// prompts for string fields.
func WithWidgets(registry *widgets.Registry) Option {
	return func(r *Filler) {
		if registry != nil {
			r.widgets = registry
		}
	}
}
