package orchestrator_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/jsonschema"
	"github.com/goliatone/go-formengine/pkg/openapi"
	"github.com/goliatone/go-formengine/pkg/orchestrator"
)

func newOrchestrator(t *testing.T, opts ...orchestrator.Option) *orchestrator.Orchestrator {
	t.Helper()
	opts = append([]orchestrator.Option{orchestrator.WithUISchemaFS(os.DirFS(filepath.Join("testdata", "ui")))}, opts...)
	o, err := orchestrator.New(opts...)
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	return o
}

func signupRequest() orchestrator.Request {
	return orchestrator.Request{
		Source:    openapi.SourceFromFile(filepath.Join("testdata", "api.yaml")),
		Component: "Signup",
		FormID:    "signup",
	}
}

func TestGenerate(t *testing.T) {
	o := newOrchestrator(t)

	out, err := o.Generate(context.Background(), signupRequest())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	markup := string(out)
	for _, want := range []string{
		`for="fe-email">E-mail`,
		`<option value="free" selected>Free</option>`,
		`<input type="number" id="fe-age" name="age" value="" required min="18" step="1">`,
	} {
		if !strings.Contains(markup, want) {
			t.Fatalf("expected %q in markup:\n%s", want, markup)
		}
	}
	if strings.Contains(markup, "promoCode") {
		t.Fatalf("promo code should be hidden for the free plan:\n%s", markup)
	}

	req := signupRequest()
	req.Data = map[string]any{"plan": "pro"}
	out, err = o.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("generate with data: %v", err)
	}
	if !strings.Contains(string(out), `name="promoCode"`) {
		t.Fatalf("promo code should be visible for the pro plan:\n%s", out)
	}
}

func TestForm_SubmitAndTransformer(t *testing.T) {
	mustHaveAt := orchestrator.RefineField("email", func(v any) bool {
		s, _ := v.(string)
		return strings.Contains(s, "@")
	}, "must contain @")
	o := newOrchestrator(t, orchestrator.WithSchemaTransformer(mustHaveAt))

	req := signupRequest()
	req.Data = map[string]any{"email": "ada", "age": float64(30)}
	f, err := o.Form(context.Background(), req)
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	result, err := f.OnSubmit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Valid {
		t.Fatalf("expected refinement to fail")
	}
	if diff := cmp.Diff([]string{"email"}, result.Errors.Paths()); diff != "" {
		t.Fatalf("error paths mismatch (-want +got):\n%s", diff)
	}
	if got := result.Errors.First("email"); got != "must contain @" {
		t.Fatalf("email message = %q", got)
	}

	req.Data = map[string]any{"email": "ada@example.com", "age": float64(30)}
	f, err = o.Form(context.Background(), req)
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	result, err = f.OnSubmit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	want := map[string]any{"email": "ada@example.com", "age": float64(30), "plan": "free"}
	if diff := cmp.Diff(want, result.Value); !result.Valid || diff != "" {
		t.Fatalf("expected valid submission, valid=%v (-want +got):\n%s", result.Valid, diff)
	}
}

func TestErrors(t *testing.T) {
	o := newOrchestrator(t)

	req := signupRequest()
	req.FormID = "nope"
	if _, err := o.Form(context.Background(), req); !errors.Is(err, orchestrator.ErrFormNotFound) {
		t.Fatalf("expected ErrFormNotFound, got %v", err)
	}

	req = signupRequest()
	req.Component = "Missing"
	if _, err := o.Schema(context.Background(), req); !errors.Is(err, openapi.ErrComponentNotFound) {
		t.Fatalf("expected ErrComponentNotFound, got %v", err)
	}

	if _, err := o.Schema(context.Background(), orchestrator.Request{Component: "Signup"}); err == nil {
		t.Fatalf("expected missing source error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := o.Schema(ctx, signupRequest()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestListingAndDocuments(t *testing.T) {
	o := newOrchestrator(t)

	raw, err := os.ReadFile(filepath.Join("testdata", "api.yaml"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	doc, err := openapi.NewDocument(openapi.SourceFromFile("inline.yaml"), raw)
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	req := orchestrator.Request{Document: &doc, Component: "Signup"}

	names, err := o.Components(context.Background(), req)
	if err != nil {
		t.Fatalf("components: %v", err)
	}
	if diff := cmp.Diff([]string{"Signup"}, names); diff != "" {
		t.Fatalf("components mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"signup"}, o.Forms()); diff != "" {
		t.Fatalf("forms mismatch (-want +got):\n%s", diff)
	}

	// No FormID and no form named after the component: the form has no UI.
	f, err := o.Form(context.Background(), req)
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	if f.UISchema() != nil {
		t.Fatalf("expected no ui schema, got %+v", f.UISchema())
	}
}

func TestJSONSchemaDocument(t *testing.T) {
	o := newOrchestrator(t)
	req := orchestrator.Request{
		Source: openapi.SourceFromFile(filepath.Join("testdata", "signup.schema.json")),
		FormID: "signup",
	}

	names, err := o.Components(context.Background(), req)
	if err != nil {
		t.Fatalf("components: %v", err)
	}
	if diff := cmp.Diff([]string{"#", "Plan"}, names); diff != "" {
		t.Fatalf("components mismatch (-want +got):\n%s", diff)
	}

	out, err := o.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	markup := string(out)
	for _, want := range []string{
		`<input type="email" id="fe-email" name="email" value="" required>`,
		`<option value="free" selected>Free</option>`,
	} {
		if !strings.Contains(markup, want) {
			t.Fatalf("expected %q in markup:\n%s", want, markup)
		}
	}
	if strings.Contains(markup, "promoCode") {
		t.Fatalf("promo code should be hidden for the free plan:\n%s", markup)
	}

	req.Component = "Missing"
	if _, err := o.Schema(context.Background(), req); !errors.Is(err, jsonschema.ErrComponentNotFound) {
		t.Fatalf("expected ErrComponentNotFound, got %v", err)
	}
}
