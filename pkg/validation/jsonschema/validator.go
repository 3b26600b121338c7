package jsonschema

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	sjs "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/goliatone/go-formengine/pkg/fieldpath"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/validation"
)

const resourceURL = "form-schema.json"

// Option configures a Validator.
type Option func(*Validator)

// WithLanguage selects the language used for issue messages.
func WithLanguage(tag language.Tag) Option {
	return func(v *Validator) {
		v.printer = message.NewPrinter(tag)
	}
}

// WithRequiredMessage overrides the message reported for missing fields.
func WithRequiredMessage(msg string) Option {
	return func(v *Validator) {
		if msg != "" {
			v.required = msg
		}
	}
}

// Validator checks data structurally with a compiled JSON Schema, then runs
// refinements and transforms to produce the output value. Compiled schemas
// are cached per node; nodes are immutable so the pointer is a stable key.
type Validator struct {
	printer  *message.Printer
	required string

	mu    sync.Mutex
	cache map[*schema.Node]*sjs.Schema
}

var _ validation.Validator = (*Validator)(nil)

// New creates a Validator.
func New(opts ...Option) *Validator {
	v := &Validator{
		printer:  message.NewPrinter(language.English),
		required: "Required",
		cache:    make(map[*schema.Node]*sjs.Schema),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// Validate implements validation.Validator. Schema compilation failures are
// reported as a single root issue since the capability has no error return.
func (v *Validator) Validate(node *schema.Node, data any) validation.Outcome {
	compiled, err := v.compiled(node)
	if err != nil {
		return validation.Invalid(validation.Issue{Message: err.Error(), Code: "schema"})
	}

	instance, err := toInstance(data)
	if err != nil {
		return validation.Invalid(validation.Issue{Message: err.Error(), Code: "encode"})
	}

	var issues []validation.Issue
	if err := compiled.Validate(instance); err != nil {
		var verr *sjs.ValidationError
		if !errors.As(err, &verr) {
			return validation.Invalid(validation.Issue{Message: err.Error()})
		}
		issues = v.collect(verr, instance, nil)
	}

	p := producer{structural: issues}
	value, _ := p.produce(node, data, true, nil)
	issues = append(issues, p.issues...)
	if len(issues) > 0 {
		return validation.Invalid(issues...)
	}
	return validation.Valid(value)
}

// compiled returns the compiled schema for node, compiling it on first use.
func (v *Validator) compiled(node *schema.Node) (*sjs.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if compiled, ok := v.cache[node]; ok {
		return compiled, nil
	}

	doc, err := Document(node)
	if err != nil {
		return nil, fmt.Errorf("jsonschema: %w", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("jsonschema: encode schema: %w", err)
	}
	parsed, err := sjs.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("jsonschema: decode schema: %w", err)
	}

	c := sjs.NewCompiler()
	c.DefaultDraft(sjs.Draft2020)
	c.AssertFormat()
	c.RegisterFormat(&sjs.Format{Name: dateFormat, Validate: validateDate})
	if err := c.AddResource(resourceURL, parsed); err != nil {
		return nil, fmt.Errorf("jsonschema: add schema: %w", err)
	}
	compiled, err := c.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("jsonschema: compile: %w", err)
	}
	v.cache[node] = compiled
	return compiled, nil
}

// toInstance converts Go values into the JSON value model the compiled schema
// validates against. Dates become RFC 3339 strings.
func toInstance(data any) (any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("jsonschema: encode data: %w", err)
	}
	instance, err := sjs.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("jsonschema: decode data: %w", err)
	}
	return instance, nil
}

func validateDate(v any) error {
	text, ok := v.(string)
	if !ok {
		return nil
	}
	if _, err := time.Parse(time.RFC3339, text); err == nil {
		return nil
	}
	if _, err := time.Parse(time.DateOnly, text); err == nil {
		return nil
	}
	return fmt.Errorf("%q is not a valid date", text)
}

// collect flattens the error tree into leaf issues. A missing-properties
// failure becomes one issue per missing child so each field owns its error.
func (v *Validator) collect(verr *sjs.ValidationError, instance any, out []validation.Issue) []validation.Issue {
	if len(verr.Causes) > 0 {
		for _, cause := range verr.Causes {
			out = v.collect(cause, instance, out)
		}
		return out
	}

	at := locate(instance, verr.InstanceLocation)
	if required, ok := verr.ErrorKind.(*kind.Required); ok {
		for _, name := range required.Missing {
			out = append(out, validation.Issue{Path: at.Child(name), Message: v.required, Code: "required"})
		}
		return out
	}
	return append(out, validation.Issue{
		Path:    at,
		Message: verr.ErrorKind.LocalizedString(v.printer),
		Code:    code(verr.ErrorKind),
	})
}

func code(k sjs.ErrorKind) string {
	keywords := k.KeywordPath()
	if len(keywords) == 0 {
		return ""
	}
	return keywords[len(keywords)-1]
}

// locate turns an instance location into a field path, using the instance
// to tell sequence indices from object keys.
func locate(instance any, location []string) fieldpath.Path {
	var out fieldpath.Path
	current := instance
	for _, token := range location {
		switch typed := current.(type) {
		case []any:
			idx, err := strconv.Atoi(token)
			if err != nil || idx < 0 || idx >= len(typed) {
				out = out.Child(token)
				current = nil
				continue
			}
			out = out.At(idx)
			current = typed[idx]
		case map[string]any:
			out = out.Child(token)
			current = typed[token]
		default:
			out = out.Child(token)
			current = nil
		}
	}
	return out
}
