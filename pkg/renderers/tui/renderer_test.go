package tui_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/form"
	"github.com/goliatone/go-formengine/pkg/renderers/tui"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/testsupport"
)

// step is one scripted answer. method names the driver call expected to
// consume it.
type step struct {
	method string
	answer any
	err    error
}

type scriptedDriver struct {
	steps    []step
	pos      int
	messages []string
	infos    []string
	selects  [][]string
}

func (d *scriptedDriver) take(method, message string) (step, error) {
	d.messages = append(d.messages, method+":"+message)
	if d.pos >= len(d.steps) {
		return step{}, fmt.Errorf("no answer scripted for %s %q", method, message)
	}
	s := d.steps[d.pos]
	d.pos++
	if s.method != method {
		return step{}, fmt.Errorf("expected %s prompt, got %s %q", s.method, method, message)
	}
	return s, s.err
}

func (d *scriptedDriver) Input(_ context.Context, cfg tui.InputConfig) (string, error) {
	s, err := d.take("input", cfg.Message)
	if err != nil {
		return "", err
	}
	return s.answer.(string), nil
}

func (d *scriptedDriver) Password(_ context.Context, cfg tui.InputConfig) (string, error) {
	s, err := d.take("password", cfg.Message)
	if err != nil {
		return "", err
	}
	return s.answer.(string), nil
}

func (d *scriptedDriver) Confirm(_ context.Context, cfg tui.ConfirmConfig) (bool, error) {
	s, err := d.take("confirm", cfg.Message)
	if err != nil {
		return false, err
	}
	return s.answer.(bool), nil
}

func (d *scriptedDriver) Select(_ context.Context, cfg tui.SelectConfig) (int, error) {
	d.selects = append(d.selects, cfg.Options)
	s, err := d.take("select", cfg.Message)
	if err != nil {
		return -1, err
	}
	return s.answer.(int), nil
}

func (d *scriptedDriver) MultiSelect(_ context.Context, cfg tui.SelectConfig) ([]int, error) {
	s, err := d.take("multiselect", cfg.Message)
	if err != nil {
		return nil, err
	}
	return s.answer.([]int), nil
}

func (d *scriptedDriver) TextArea(_ context.Context, cfg tui.TextAreaConfig) (string, error) {
	s, err := d.take("textarea", cfg.Message)
	if err != nil {
		return "", err
	}
	return s.answer.(string), nil
}

func (d *scriptedDriver) Info(_ context.Context, msg string) error {
	d.infos = append(d.infos, msg)
	return nil
}

func TestFill_Checkout(t *testing.T) {
	driver := &scriptedDriver{steps: []step{
		{method: "input", answer: "Ada"},
		{method: "input", answer: ""},
		{method: "select", answer: 1},
		{method: "input", answer: "Grace"},
		{method: "input", answer: ""},
		{method: "select", answer: 0},
		{method: "input", answer: "17"},
		{method: "select", answer: 1},
		{method: "input", answer: "PP-1"},
		{method: "confirm", answer: true},
		{method: "input", answer: "20"},
	}}
	f, err := form.New(testsupport.CheckoutSchema(), form.WithUISchema(testsupport.CheckoutUI()))
	if err != nil {
		t.Fatalf("new form: %v", err)
	}

	result, err := tui.New(tui.WithPromptDriver(driver)).Fill(context.Background(), f)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if !result.Valid || f.State() != form.StateSubmittedValid {
		t.Fatalf("expected valid submission, got %+v in state %s", result, f.State())
	}

	wantValue := map[string]any{
		"people":        []any{map[string]any{"name": "Ada"}, map[string]any{"name": "Grace"}},
		"age":           float64(20),
		"paymentMethod": "payPal",
		"paypalNumber":  "PP-1",
		"newsletter":    true,
	}
	if diff := cmp.Diff(wantValue, result.Value); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}

	wantMessages := []string{
		"input:Name",
		"input:Nickname",
		"select:People (1 items)",
		"input:Name",
		"input:Nickname",
		"select:People (2 items)",
		"input:Age",
		"select:Payment method",
		"input:PayPal number",
		"confirm:Newsletter",
		"input:Age",
	}
	if diff := cmp.Diff(wantMessages, driver.messages); diff != "" {
		t.Fatalf("prompt order mismatch (-want +got):\n%s", diff)
	}

	wantSelects := [][]string{
		{"Done", "Add item"},
		{"Done", "Add item", "Remove item 1", "Remove item 2"},
		{"Credit card", "PayPal"},
	}
	if diff := cmp.Diff(wantSelects, driver.selects); diff != "" {
		t.Fatalf("select options mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Age: must be at least 18"}, driver.infos); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
}

func adultSchema() *schema.Node {
	return schema.Object(
		schema.F("age", schema.Number().Int().Refine(testsupport.AtLeast(18), "must be at least 18")),
	)
}

func TestFill_GivesUpAfterMaxAttempts(t *testing.T) {
	driver := &scriptedDriver{steps: []step{
		{method: "input", answer: "10"},
		{method: "input", answer: "11"},
	}}
	f, err := form.New(adultSchema())
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	result, err := tui.New(tui.WithPromptDriver(driver), tui.WithMaxAttempts(1), tui.WithTheme(tui.Theme{ErrorPrefix: "! "})).Fill(context.Background(), f)
	if !errors.Is(err, tui.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if result.Valid || f.State() != form.StateDirtyInvalid {
		t.Fatalf("expected invalid result, got %+v in state %s", result, f.State())
	}
	want := []string{"! age: must be at least 18", "! age: must be at least 18"}
	if diff := cmp.Diff(want, driver.infos); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
}

func TestFill_RepromptsUnparsableInput(t *testing.T) {
	driver := &scriptedDriver{steps: []step{
		{method: "input", answer: "abc"},
		{method: "input", answer: "30"},
	}}
	f, err := form.New(adultSchema())
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	result, err := tui.New(tui.WithPromptDriver(driver)).Fill(context.Background(), f)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"age": float64(30)}, result.Value); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
	if len(driver.infos) != 1 || !strings.Contains(driver.infos[0], "not a whole number") {
		t.Fatalf("expected parse message, got %v", driver.infos)
	}
}

func TestFill_Aborted(t *testing.T) {
	driver := &scriptedDriver{steps: []step{{method: "input", err: tui.ErrAborted}}}
	f, err := form.New(adultSchema())
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	if _, err := tui.New(tui.WithPromptDriver(driver)).Fill(context.Background(), f); !errors.Is(err, tui.ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := tui.New(tui.WithPromptDriver(&scriptedDriver{})).Fill(ctx, f); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestFill_DiscriminatedUnion(t *testing.T) {
	node := schema.Object(
		schema.F("payment", schema.DiscriminatedUnion("type",
			schema.Object(schema.F("type", schema.Literal("card")), schema.F("cardNumber", schema.String())),
			schema.Object(schema.F("type", schema.Literal("paypal")), schema.F("email", schema.String())),
		)),
	)
	driver := &scriptedDriver{steps: []step{
		{method: "select", answer: 1},
		{method: "input", answer: "ada@example.com"},
	}}
	f, err := form.New(node)
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	result, err := tui.New(tui.WithPromptDriver(driver)).Fill(context.Background(), f)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	want := map[string]any{"payment": map[string]any{"type": "paypal", "email": "ada@example.com"}}
	if diff := cmp.Diff(want, result.Value); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"select:Type", "input:Email"}, driver.messages); diff != "" {
		t.Fatalf("prompt order mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_OutputFormats(t *testing.T) {
	node := schema.Object(
		schema.F("name", schema.String()),
		schema.F("tags", schema.Array(schema.Enum("a", "b", "c"))),
	)
	tests := []struct {
		format tui.OutputFormat
		want   string
		ctype  string
	}{
		{format: tui.OutputFormatJSON, want: "{\n  \"name\": \"Ada\",\n  \"tags\": [\n    \"a\",\n    \"c\"\n  ]\n}\n", ctype: "application/json"},
		{format: tui.OutputFormatPrettyText, want: "name: Ada\ntags[0]: a\ntags[1]: c\n", ctype: "text/plain"},
		{format: tui.OutputFormatFormURLEncoded, want: "name=Ada&tags%5B0%5D=a&tags%5B1%5D=c", ctype: "application/x-www-form-urlencoded"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			driver := &scriptedDriver{steps: []step{
				{method: "input", answer: "Ada"},
				{method: "multiselect", answer: []int{0, 2}},
			}}
			f, err := form.New(node)
			if err != nil {
				t.Fatalf("new form: %v", err)
			}
			filler := tui.New(tui.WithPromptDriver(driver), tui.WithOutputFormat(tt.format))
			out, err := filler.Render(context.Background(), f)
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if diff := cmp.Diff(tt.want, string(out)); diff != "" {
				t.Fatalf("output mismatch (-want +got):\n%s", diff)
			}
			if filler.ContentType() != tt.ctype {
				t.Fatalf("content type = %q", filler.ContentType())
			}
		})
	}
}

func TestFill_Widgets(t *testing.T) {
	node := schema.Object(
		schema.F("secret", schema.String().Annotate("format", "password")),
		schema.F("bio", schema.String().MaxLength(2000)),
		schema.F("nick", schema.String()),
	)
	driver := &scriptedDriver{steps: []step{
		{method: "password", answer: "hunter2"},
		{method: "textarea", answer: "Hello\nthere"},
		{method: "input", answer: "ada"},
	}}
	f, err := form.New(node)
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	result, err := tui.New(tui.WithPromptDriver(driver)).Fill(context.Background(), f)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	want := map[string]any{"secret": "hunter2", "bio": "Hello\nthere", "nick": "ada"}
	if diff := cmp.Diff(want, result.Value); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
}
