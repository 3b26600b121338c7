package form

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"sync"

	"github.com/goliatone/go-formengine/pkg/conditions"
	"github.com/goliatone/go-formengine/pkg/defaults"
	"github.com/goliatone/go-formengine/pkg/patch"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/uischema"
	"github.com/goliatone/go-formengine/pkg/validation"
	"github.com/goliatone/go-formengine/pkg/validation/jsonschema"
)

// State is the validity state of a form.
type State string

const (
	StateClean            State = "clean"
	StateDirtyUnvalidated State = "dirty-unvalidated"
	StateDirtyInvalid     State = "dirty-invalid"
	StateSubmittedValid   State = "submitted-valid"
)

// Change is delivered to change listeners after an event was applied.
type Change struct {
	Event patch.Event
	// Patch is the minimal tree describing the edit.
	Patch any
	// Data is a snapshot of the full data after the edit.
	Data any
}

type (
	ChangeListener func(Change)
	SubmitListener func(value any)
	ErrorsListener func(issues []validation.Issue)
)

// Option configures a Form.
type Option func(*Form)

// WithUISchema attaches the UI schema carrying labels and conditions.
func WithUISchema(ui *uischema.Node) Option {
	return func(f *Form) {
		f.ui = ui
	}
}

// WithValidator replaces the default JSON Schema validator.
func WithValidator(v validation.Validator) Option {
	return func(f *Form) {
		if v != nil {
			f.validator = v
		}
	}
}

// WithLiveValidation re-validates after every edit.
func WithLiveValidation(enabled bool) Option {
	return func(f *Form) {
		f.live = enabled
	}
}

// WithDefaultValues replaces the data derived from the schema.
func WithDefaultValues(data any) Option {
	return func(f *Form) {
		f.initial = data
	}
}

// WithResolver sets the condition resolver used for visibility.
func WithResolver(r *conditions.Resolver) Option {
	return func(f *Form) {
		if r != nil {
			f.resolver = r
		}
	}
}

// WithLogger enables debug logging of state transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithChangeListener registers fn for applied change events.
func WithChangeListener(fn ChangeListener) Option {
	return func(f *Form) {
		if fn != nil {
			f.onChange = append(f.onChange, fn)
		}
	}
}

// WithSubmitListener registers fn for successful submissions.
func WithSubmitListener(fn SubmitListener) Option {
	return func(f *Form) {
		if fn != nil {
			f.onSubmit = append(f.onSubmit, fn)
		}
	}
}

// WithErrorsListener registers fn for every replacement of the errors map.
func WithErrorsListener(fn ErrorsListener) Option {
	return func(f *Form) {
		if fn != nil {
			f.onErrors = append(f.onErrors, fn)
		}
	}
}

// Form owns one data tree together with its visibility map, errors map and
// validity state. Events are handled one at a time; listeners run after the
// event completed, outside the form's lock, so they may call back into it.
type Form struct {
	node *schema.Node
	ui   *uischema.Node

	validator    validation.Validator
	resolver     *conditions.Resolver
	orchestrator *validation.Orchestrator
	live         bool
	initial      any
	logger       *slog.Logger

	onChange []ChangeListener
	onSubmit []SubmitListener
	onErrors []ErrorsListener

	mu     sync.Mutex
	data   any
	conds  conditions.Map
	errors validation.Errors
	state  State
}

// New builds a form for node. Schema problems are reported here, before any
// edit is accepted.
func New(node *schema.Node, opts ...Option) (*Form, error) {
	f := &Form{
		node:     node,
		resolver: conditions.NewResolver(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		errors:   validation.NoErrors,
		state:    StateClean,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if err := schema.Check(node); err != nil {
		return nil, fmt.Errorf("form: %w", err)
	}
	if f.validator == nil {
		f.validator = jsonschema.New()
	}
	f.orchestrator = validation.NewOrchestrator(f.validator, validation.WithResolver(f.resolver))

	data, err := defaults.ForForm(node, f.initial)
	if err != nil {
		return nil, fmt.Errorf("form: defaults: %w", err)
	}
	conds, err := f.resolver.ResolveMap(f.ui, data)
	if err != nil {
		return nil, fmt.Errorf("form: conditions: %w", err)
	}
	f.data, f.conds = data, conds
	return f, nil
}

type notification struct {
	change    *Change
	submitted bool
	value     any
	errors    bool
	issues    []validation.Issue
}

func (f *Form) notify(n notification) {
	if n.change != nil {
		for _, fn := range f.onChange {
			fn(*n.change)
		}
	}
	if n.errors {
		for _, fn := range f.onErrors {
			fn(n.issues)
		}
	}
	if n.submitted {
		for _, fn := range f.onSubmit {
			fn(n.value)
		}
	}
}

// OnChange applies event, recomputes visibility and moves the state. Errors
// are returned for malformed events and misconfiguration only.
func (f *Form) OnChange(event patch.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("form: %w", err)
	}

	f.mu.Lock()
	next, err := patch.Apply(f.data, event)
	if err != nil {
		f.mu.Unlock()
		return fmt.Errorf("form: %w", err)
	}
	n, err := f.edited(next, event.String())
	if err != nil {
		f.mu.Unlock()
		return err
	}
	n.change = &Change{Event: event, Patch: patch.Diff(event), Data: patch.Clone(f.data)}
	f.mu.Unlock()

	f.notify(n)
	return nil
}

// OnExternalSet replaces the data from outside the form.
func (f *Form) OnExternalSet(data any) error {
	f.mu.Lock()
	n, err := f.edited(patch.Clone(data), "external-set")
	f.mu.Unlock()
	if err != nil {
		return err
	}
	f.notify(n)
	return nil
}

// Update runs fn on a private copy of the data and stores its result with
// external-set semantics. A nil result keeps the (possibly mutated) copy.
func (f *Form) Update(fn func(draft any) any) error {
	if fn == nil {
		return fmt.Errorf("form: updater is required")
	}
	draft := f.Data()
	if out := fn(draft); out != nil {
		draft = out
	}
	return f.OnExternalSet(draft)
}

// edited stores next and moves the state for an edit. Callers hold f.mu.
func (f *Form) edited(next any, cause string) (notification, error) {
	conds, err := f.resolver.ResolveMap(f.ui, next)
	if err != nil {
		return notification{}, fmt.Errorf("form: conditions: %w", err)
	}
	f.data, f.conds = next, conds

	if f.state == StateSubmittedValid {
		f.transition(StateDirtyUnvalidated, cause)
	}

	if f.live {
		result, err := f.orchestrator.Validate(f.data, f.node, f.ui)
		if err != nil {
			return notification{}, fmt.Errorf("form: %w", err)
		}
		if result.Valid {
			f.transition(StateClean, cause)
		} else {
			f.transition(StateDirtyInvalid, cause)
		}
		return f.replaceErrors(result.Errors), nil
	}

	if f.state == StateClean {
		f.transition(StateDirtyUnvalidated, cause)
	}
	return notification{}, nil
}

// OnSubmit validates regardless of live validation. Success emits the
// validated value to submit listeners.
func (f *Form) OnSubmit() (validation.Result, error) {
	f.mu.Lock()
	result, err := f.orchestrator.Validate(f.data, f.node, f.ui)
	if err != nil {
		f.mu.Unlock()
		return validation.Result{}, fmt.Errorf("form: %w", err)
	}
	n := f.replaceErrors(result.Errors)
	if result.Valid {
		f.transition(StateSubmittedValid, "submit")
		n.submitted, n.value = true, result.Value
	} else {
		f.transition(StateDirtyInvalid, "submit")
	}
	f.mu.Unlock()

	f.notify(n)
	return result, nil
}

func (f *Form) replaceErrors(errs validation.Errors) notification {
	if validation.IsNoErrors(errs) {
		errs = validation.NoErrors
	}
	if validation.IsNoErrors(f.errors) && validation.IsNoErrors(errs) {
		return notification{}
	}
	f.errors = errs
	return notification{errors: true, issues: errs.Flatten()}
}

func (f *Form) transition(to State, cause string) {
	if f.state == to {
		return
	}
	f.logger.Debug("form transition", "from", f.state, "to", to, "cause", cause)
	f.state = to
}

// Data returns a copy of the current data.
func (f *Form) Data() any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return patch.Clone(f.data)
}

// Errors returns a copy of the current errors map.
func (f *Form) Errors() validation.Errors {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errors.Clone()
}

// Conditions returns a copy of the visibility map.
func (f *Form) Conditions() conditions.Map {
	f.mu.Lock()
	defer f.mu.Unlock()
	return maps.Clone(f.conds)
}

// State returns the current validity state.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Visible reports whether the serialized path is currently visible.
func (f *Form) Visible(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conds.Visible(name)
}

// Schema returns the schema the form was built from.
func (f *Form) Schema() *schema.Node { return f.node }

// UISchema returns the attached UI schema, if any.
func (f *Form) UISchema() *uischema.Node { return f.ui }

// Context snapshots the form for rendering code. Dispatch feeds OnChange.
func (f *Form) Context() render.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	return render.Context{
		Value:    patch.Clone(f.data),
		Errors:   f.errors.Clone(),
		Conds:    maps.Clone(f.conds),
		Dispatch: f.OnChange,
	}
}

// Render walks the visible nodes with renderer.
func (f *Form) Render(renderer render.Renderer, opts ...render.WalkOption) (render.Unit, error) {
	return render.Walk(f.Context(), f.node, f.ui, renderer, opts...)
}
