package validation

import (
	"fmt"

	"github.com/goliatone/go-formengine/pkg/conditions"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/uischema"
)

// Outcome is what a validator capability reports: either OK with the
// output value, or the ordered list of issues.
type Outcome struct {
	OK     bool
	Value  any
	Issues []Issue
}

// Valid builds a successful Outcome.
func Valid(value any) Outcome {
	return Outcome{OK: true, Value: value}
}

// Invalid builds a failed Outcome.
func Invalid(issues ...Issue) Outcome {
	return Outcome{Issues: issues}
}

// Validator is the external validation capability. It receives the schema
// and data that already had hidden fields stripped. Implementations must be
// synchronous and must not mutate data.
type Validator interface {
	Validate(node *schema.Node, data any) Outcome
}

// ValidatorFunc adapts a function into a Validator.
type ValidatorFunc func(node *schema.Node, data any) Outcome

// Validate delegates to the underlying function.
func (fn ValidatorFunc) Validate(node *schema.Node, data any) Outcome {
	return fn(node, data)
}

// Result is the orchestrated validation outcome.
type Result struct {
	Valid  bool
	Value  any
	Errors Errors
}

// Orchestrator strips hidden fields, delegates to the validator and regroups
// its issues by path. It never retries and never coerces data itself.
type Orchestrator struct {
	validator Validator
	resolver  *conditions.Resolver
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithResolver sets the condition resolver used to strip hidden fields.
func WithResolver(resolver *conditions.Resolver) OrchestratorOption {
	return func(o *Orchestrator) {
		if resolver != nil {
			o.resolver = resolver
		}
	}
}

// NewOrchestrator wires a validator capability.
func NewOrchestrator(validator Validator, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{validator: validator, resolver: conditions.NewResolver()}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// Validate runs StripHidden, then the validator. Errors are returned only
// for misconfiguration (missing validator, failing rule); validation issues
// always come back inside Result.
func (o *Orchestrator) Validate(data any, node *schema.Node, ui *uischema.Node) (Result, error) {
	if o == nil || o.validator == nil {
		return Result{}, fmt.Errorf("validation: validator is not configured")
	}
	stripped, err := o.resolver.StripHidden(data, ui)
	if err != nil {
		return Result{}, fmt.Errorf("validation: strip hidden: %w", err)
	}

	outcome := o.validator.Validate(node, stripped)
	if outcome.OK {
		return Result{Valid: true, Value: outcome.Value, Errors: NoErrors}, nil
	}
	errs := GroupIssues(outcome.Issues)
	if errs.Empty() {
		// a failed outcome without issues still has to surface somewhere
		errs = Errors{"": {{Message: "invalid value"}}}
	}
	return Result{Errors: errs}, nil
}
