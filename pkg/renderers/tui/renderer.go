package tui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-formengine/pkg/fieldpath"
	"github.com/goliatone/go-formengine/pkg/form"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/validation"
	"github.com/goliatone/go-formengine/pkg/widgets"
)

// Filler fills a form from the terminal. It walks the form after every
// answer, so conditional fields and union variants appear as soon as the
// answers that reveal them are given.
type Filler struct {
	driver       PromptDriver
	out          io.Writer
	outputFormat OutputFormat
	maxAttempts  int
	localizer    *render.Localizer
	widgets      *widgets.Registry
	theme        Theme
}

// New constructs a filler with defaults (survey driver, JSON output).
func New(options ...Option) *Filler {
	r := &Filler{
		outputFormat: OutputFormatJSON,
		maxAttempts:  DefaultMaxAttempts,
		widgets:      widgets.NewRegistry(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(r.out)
	}
	return r
}

// Name reports the renderer identifier.
func (r *Filler) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Filler) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Render fills f and serializes the submitted value.
func (r *Filler) Render(ctx context.Context, f *form.Form) ([]byte, error) {
	result, err := r.Fill(ctx, f)
	if err != nil {
		return nil, err
	}
	return r.serialize(result.Value)
}

// Fill prompts the first visible node that was not asked yet until none is
// left, then submits. Fields with issues are asked again, each at most the
// configured number of times; after that the invalid result is returned
// together with ErrInvalid.
func (r *Filler) Fill(ctx context.Context, f *form.Form) (validation.Result, error) {
	if ctx == nil {
		return validation.Result{}, errors.New("tui: context is required")
	}
	if f == nil {
		return validation.Result{}, errors.New("tui: form is nil")
	}
	s := newSession(r.maxAttempts)

	for {
		if err := ctx.Err(); err != nil {
			return validation.Result{}, err
		}
		c := &collector{}
		if _, err := f.Render(c, render.WithLocalizer(r.localizer)); err != nil {
			return validation.Result{}, fmt.Errorf("tui: %w", err)
		}

		if node, ok := s.next(c.nodes); ok {
			if err := r.prompt(ctx, node, s); err != nil {
				return validation.Result{}, err
			}
			continue
		}

		result, err := f.OnSubmit()
		if err != nil {
			return validation.Result{}, fmt.Errorf("tui: %w", err)
		}
		if result.Valid {
			return result, nil
		}
		if !s.reopen(result.Errors, c.nodes) {
			for _, issue := range result.Errors.Flatten() {
				_ = r.info(ctx, r.theme.ErrorPrefix+issueLine(issue))
			}
			return result, ErrInvalid
		}
	}
}

func (r *Filler) prompt(ctx context.Context, props render.Props, s *session) error {
	if props.Error != "" {
		if err := r.info(ctx, fmt.Sprintf("%s%s: %s", r.theme.ErrorPrefix, props.Label, props.Error)); err != nil {
			return err
		}
	}

	var err error
	done := true
	switch props.Role {
	case render.RoleList:
		done, err = r.promptList(ctx, props)
	case render.RoleMultiChoice:
		err = r.promptMultiChoice(ctx, props)
	case render.RoleDiscriminator:
		err = r.promptSelect(ctx, props)
	default:
		err = r.promptLeaf(ctx, props)
	}

	var parseErr *inputError
	if errors.As(err, &parseErr) {
		if infoErr := r.info(ctx, fmt.Sprintf("%s%s: %s", r.theme.ErrorPrefix, props.Label, parseErr.msg)); infoErr != nil {
			return infoErr
		}
		if !s.retry(props.Name) {
			return fmt.Errorf("%w: %s: %s", ErrInvalid, props.Name, parseErr.msg)
		}
		return nil
	}
	if err != nil {
		return err
	}
	if done {
		s.mark(props.Name)
	}
	return nil
}

// inputError is an answer that could not be turned into a value.
type inputError struct {
	msg string
}

func (e *inputError) Error() string { return e.msg }

func (r *Filler) promptLeaf(ctx context.Context, props render.Props) error {
	switch props.Kind {
	case schema.KindBoolean:
		current, _ := props.Value.(bool)
		answer, err := r.driver.Confirm(ctx, ConfirmConfig{
			Message: r.message(props),
			Default: current,
			Help:    props.Description,
		})
		if err != nil {
			return err
		}
		return props.OnChange(answer)

	case schema.KindEnum:
		return r.promptSelect(ctx, props)

	case schema.KindNumber:
		answer, err := r.driver.Input(ctx, InputConfig{
			Message:   r.message(props),
			Default:   textValue(props.Value),
			Help:      help(props),
			Validator: func(s string) error { _, err := parseNumber(s, props.Integer); return err },
		})
		if err != nil {
			return err
		}
		value, err := parseNumber(answer, props.Integer)
		if err != nil {
			return err
		}
		return props.OnChange(value)

	case schema.KindDate:
		answer, err := r.driver.Input(ctx, InputConfig{
			Message:   r.message(props),
			Default:   textValue(props.Value),
			Help:      help(props),
			Validator: func(s string) error { _, err := parseDate(s); return err },
		})
		if err != nil {
			return err
		}
		value, err := parseDate(answer)
		if err != nil {
			return err
		}
		if value == "" {
			return nil
		}
		return props.OnChange(value)

	default:
		cfg := InputConfig{
			Message: r.message(props),
			Default: textValue(props.Value),
			Help:    help(props),
		}
		var (
			answer string
			err    error
		)
		widget, _ := r.widgets.Resolve(props)
		switch widget {
		case widgets.WidgetPassword:
			answer, err = r.driver.Password(ctx, cfg)
		case widgets.WidgetTextarea:
			answer, err = r.driver.TextArea(ctx, TextAreaConfig{Message: cfg.Message, Default: cfg.Default, Help: cfg.Help})
		default:
			answer, err = r.driver.Input(ctx, cfg)
		}
		if err != nil {
			return err
		}
		return props.OnChange(answer)
	}
}

// promptSelect asks for one option. Optional fields get a leading "(none)"
// entry that clears the value.
func (r *Filler) promptSelect(ctx context.Context, props render.Props) error {
	var labels []string
	offset := 0
	if !props.Required {
		labels = append(labels, "(none)")
		offset = 1
	}
	selected := -1
	for i, opt := range props.Options {
		labels = append(labels, opt.Label)
		if props.Selected(opt.Value) {
			selected = i + offset
		}
	}
	if selected < 0 && offset == 1 {
		selected = 0
	}

	idx, err := r.driver.Select(ctx, SelectConfig{
		Message:      r.message(props),
		Options:      labels,
		DefaultIndex: selected,
		Help:         props.Description,
	})
	if err != nil {
		return err
	}
	switch {
	case idx < 0 || idx >= len(labels):
		return nil
	case idx < offset:
		return props.OnChange("")
	default:
		return props.OnChange(props.Options[idx-offset].Value)
	}
}

func (r *Filler) promptMultiChoice(ctx context.Context, props render.Props) error {
	labels := make([]string, 0, len(props.Options))
	var defaults []int
	for i, opt := range props.Options {
		labels = append(labels, opt.Label)
		if props.Selected(opt.Value) {
			defaults = append(defaults, i)
		}
	}
	picked, err := r.driver.MultiSelect(ctx, SelectConfig{
		Message:  r.message(props),
		Options:  labels,
		Defaults: defaults,
		Help:     props.Description,
	})
	if err != nil {
		return err
	}
	values := make([]any, 0, len(picked))
	for _, i := range picked {
		if i >= 0 && i < len(props.Options) {
			values = append(values, props.Options[i].Value)
		}
	}
	return props.OnChange(values)
}

// promptList offers adding and removing items. It reports true once the
// user is done with the list.
func (r *Filler) promptList(ctx context.Context, props render.Props) (bool, error) {
	labels := []string{"Done"}
	actions := []func() error{nil}

	if props.MaxItems == nil || props.Len < *props.MaxItems {
		labels = append(labels, "Add item")
		actions = append(actions, func() error { return props.Add(nil) })
	}
	if props.MinItems == nil || props.Len > *props.MinItems {
		for i := 0; i < props.Len; i++ {
			index := i
			labels = append(labels, fmt.Sprintf("Remove item %d", i+1))
			actions = append(actions, func() error { return props.RemoveAt(index) })
		}
	}

	idx, err := r.driver.Select(ctx, SelectConfig{
		Message: fmt.Sprintf("%s (%d items)", r.message(props), props.Len),
		Options: labels,
		Help:    props.Description,
	})
	if err != nil {
		return false, err
	}
	if idx <= 0 || idx >= len(actions) {
		return true, nil
	}
	return false, actions[idx]()
}

func (r *Filler) message(props render.Props) string {
	return r.theme.PromptPrefix + props.Label
}

func (r *Filler) info(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, r.theme.InfoPrefix+msg)
}

func help(props render.Props) string {
	if props.Placeholder == "" {
		return props.Description
	}
	if props.Description == "" {
		return props.Placeholder
	}
	return props.Description + " (" + props.Placeholder + ")"
}

func issueLine(issue validation.Issue) string {
	if name := issue.Name(); name != "" {
		return name + ": " + issue.Message
	}
	return issue.Message
}

func parseNumber(s string, integer bool) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if integer {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, &inputError{msg: fmt.Sprintf("%q is not a whole number", s)}
		}
		return float64(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, &inputError{msg: fmt.Sprintf("%q is not a number", s)}
	}
	return f, nil
}

func parseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return "", &inputError{msg: fmt.Sprintf("%q is not a date (YYYY-MM-DD)", s)}
	}
	return s, nil
}

func textValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return t.Format(time.DateOnly)
	default:
		return fmt.Sprint(v)
	}
}

func (r *Filler) serialize(value any) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		values := url.Values{}
		flatten(value, nil, func(name string, v any) {
			values.Add(name, textValue(v))
		})
		return []byte(values.Encode()), nil
	case OutputFormatPrettyText:
		var buf bytes.Buffer
		flatten(value, nil, func(name string, v any) {
			fmt.Fprintf(&buf, "%s: %s\n", name, textValue(v))
		})
		return buf.Bytes(), nil
	default:
		out, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("tui: encode value: %w", err)
		}
		return append(out, '\n'), nil
	}
}

// flatten visits every leaf of value in key order with its serialized path.
func flatten(value any, at fieldpath.Path, visit func(name string, v any)) {
	switch t := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flatten(t[k], at.Child(k), visit)
		}
	case []any:
		for i, item := range t {
			flatten(item, at.At(i), visit)
		}
	default:
		visit(at.String(), value)
	}
}
