package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/renderers/tui"
)

var baseArgs = []string{
	"--schema", filepath.Join("testdata", "api.yaml"),
	"--component", "Signup",
	"--ui", filepath.Join("testdata", "ui.yaml"),
	"--form", "signup",
}

func execute(t *testing.T, driver tui.PromptDriver, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(environment{
		stdin:  strings.NewReader(stdin),
		stdout: &stdout,
		stderr: &stderr,
		driver: driver,
	})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func withBase(cmd string, extra ...string) []string {
	return append(append([]string{cmd}, baseArgs...), extra...)
}

func TestDefaultsAndConds(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "defaults", args: withBase("defaults"), want: "{\n  \"plan\": \"free\"\n}\n"},
		{name: "defaults with set", args: withBase("defaults", "--set", "age=30"), want: "{\n  \"age\": 30,\n  \"plan\": \"free\"\n}\n"},
		{name: "conds", args: withBase("conds"), want: "{\n  \"promoCode\": false\n}\n"},
		{name: "conds after edit", args: withBase("conds", "--set", "plan=pro"), want: "{\n  \"promoCode\": true\n}\n"},
		{name: "hidden", args: withBase("conds", "--hidden"), want: "[\n  \"promoCode\"\n]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, nil, "", tt.args...)
			if err != nil {
				t.Fatalf("execute: %v", err)
			}
			if diff := cmp.Diff(tt.want, out); diff != "" {
				t.Fatalf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	out, _, err := execute(t, nil, "", withBase("validate")...)
	if !errors.Is(err, errPrinted) {
		t.Fatalf("expected reported failure, got %v", err)
	}
	var invalid validateOutput
	if err := json.Unmarshal([]byte(out), &invalid); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if invalid.Valid || len(invalid.Errors["age"]) == 0 || len(invalid.Errors["email"]) == 0 {
		t.Fatalf("expected age and email errors, got %+v", invalid)
	}

	out, _, err = execute(t, nil, `{"email": "ada@example.com"}`,
		withBase("validate", "--data", "-", "--set", "age=30", "--set", "plan=pro")...)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	var valid validateOutput
	if err := json.Unmarshal([]byte(out), &valid); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	want := validateOutput{
		Valid: true,
		Value: map[string]any{"email": "ada@example.com", "age": float64(30), "plan": "pro"},
	}
	if diff := cmp.Diff(want, valid); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestRender(t *testing.T) {
	out, _, err := execute(t, nil, "", withBase("render", "--action", "/signup")...)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{
		`<form class="fe-form" action="/signup" method="post" novalidate>`,
		`for="fe-email">E-mail`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}

	target := filepath.Join(t.TempDir(), "signup.html")
	if _, _, err := execute(t, nil, "", withBase("render", "-o", target)...); err != nil {
		t.Fatalf("render to file: %v", err)
	}
	written, err := os.ReadFile(target)
	if err != nil || !bytes.Contains(written, []byte(`name="email"`)) {
		t.Fatalf("unexpected file contents %q (%v)", written, err)
	}

	out, _, err = execute(t, nil, "", withBase("render", "--format", "json")...)
	if err != nil {
		t.Fatalf("render json: %v", err)
	}
	var tree struct {
		State string `json:"state"`
		Root  struct {
			Role     string `json:"role"`
			Children []struct {
				Name  string `json:"name"`
				Label string `json:"label"`
			} `json:"children"`
		} `json:"root"`
	}
	if err := json.Unmarshal([]byte(out), &tree); err != nil {
		t.Fatalf("decode tree: %v\n%s", err, out)
	}
	if tree.State != "clean" || tree.Root.Role != "root" || len(tree.Root.Children) == 0 {
		t.Fatalf("unexpected tree:\n%s", out)
	}
	if first := tree.Root.Children[0]; first.Name != "email" || first.Label != "E-mail" {
		t.Fatalf("unexpected first child %+v", first)
	}

	if _, _, err := execute(t, nil, "", withBase("render", "--format", "pdf")...); err == nil {
		t.Fatalf("expected unknown format error")
	}
}

// answers replays one answer per prompt regardless of the prompt type.
type answers struct {
	queue []any
}

func (a *answers) next(message string) (any, error) {
	if len(a.queue) == 0 {
		return nil, fmt.Errorf("no answer for %q", message)
	}
	v := a.queue[0]
	a.queue = a.queue[1:]
	return v, nil
}

func (a *answers) Input(_ context.Context, cfg tui.InputConfig) (string, error) {
	v, err := a.next(cfg.Message)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (a *answers) Password(ctx context.Context, cfg tui.InputConfig) (string, error) {
	return a.Input(ctx, cfg)
}

func (a *answers) Confirm(_ context.Context, cfg tui.ConfirmConfig) (bool, error) {
	v, err := a.next(cfg.Message)
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (a *answers) Select(_ context.Context, cfg tui.SelectConfig) (int, error) {
	v, err := a.next(cfg.Message)
	if err != nil {
		return -1, err
	}
	return v.(int), nil
}

func (a *answers) MultiSelect(_ context.Context, cfg tui.SelectConfig) ([]int, error) {
	v, err := a.next(cfg.Message)
	if err != nil {
		return nil, err
	}
	return v.([]int), nil
}

func (a *answers) TextArea(_ context.Context, cfg tui.TextAreaConfig) (string, error) {
	v, err := a.next(cfg.Message)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (a *answers) Info(context.Context, string) error { return nil }

func TestFill(t *testing.T) {
	driver := &answers{queue: []any{"ada@example.com", "30", 1, "SPRING"}}
	out, _, err := execute(t, driver, "", withBase("fill", "--format", "pretty")...)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	want := "age: 30\nemail: ada@example.com\nplan: pro\npromoCode: SPRING\n"
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}

	if _, _, err := execute(t, &answers{}, "", withBase("fill", "--format", "xml")...); err == nil {
		t.Fatalf("expected unknown format error")
	}
}

func TestComponentsAndFlagErrors(t *testing.T) {
	out, _, err := execute(t, nil, "", "components", "--schema", filepath.Join("testdata", "api.yaml"))
	if err != nil || out != "Signup\n" {
		t.Fatalf("components = %q, %v", out, err)
	}
	out, _, err = execute(t, nil, "", "components", "--forms", "--ui", filepath.Join("testdata", "ui.yaml"))
	if err != nil || out != "signup\n" {
		t.Fatalf("forms = %q, %v", out, err)
	}

	tests := map[string][]string{
		"missing schema":    {"defaults", "--component", "Signup"},
		"missing component": {"defaults", "--schema", filepath.Join("testdata", "api.yaml")},
		"bad set":           withBase("defaults", "--set", "age"),
		"unknown form":      {"defaults", "--schema", filepath.Join("testdata", "api.yaml"), "--component", "Signup", "--ui", filepath.Join("testdata", "ui.yaml"), "--form", "nope"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			if _, _, err := execute(t, nil, "", args...); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLint(t *testing.T) {
	out, _, err := execute(t, nil, "", withBase("lint")...)
	if err != nil || out != "" {
		t.Fatalf("lint = %q, %v", out, err)
	}

	ui := filepath.Join(t.TempDir(), "ui.yaml")
	doc := "forms:\n  signup:\n    fields:\n      emial: {}\n"
	if err := os.WriteFile(ui, []byte(doc), 0o644); err != nil {
		t.Fatalf("write ui: %v", err)
	}
	out, _, err = execute(t, nil, "", "lint", "--schema", filepath.Join("testdata", "api.yaml"), "--component", "Signup", "--ui", ui, "--form", "signup")
	if !errors.Is(err, errPrinted) {
		t.Fatalf("expected reported failure, got %v", err)
	}
	if diff := cmp.Diff("emial: no such field in the schema\n", out); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONSchema(t *testing.T) {
	schemaArgs := []string{"--schema", filepath.Join("testdata", "signup.schema.json")}

	out, _, err := execute(t, nil, "", append([]string{"components"}, schemaArgs...)...)
	if err != nil || out != "#\nPlan\n" {
		t.Fatalf("components = %q, %v", out, err)
	}

	out, _, err = execute(t, nil, "", append([]string{"defaults", "--validate-document"}, schemaArgs...)...)
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if diff := cmp.Diff("{\n  \"plan\": \"free\"\n}\n", out); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}

	args := append([]string{"render", "--overlay", filepath.Join("testdata", "overlay.json")}, schemaArgs...)
	out, _, err = execute(t, nil, "", args...)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, `<input type="password" id="fe-promoCode" name="promoCode"`) {
		t.Fatalf("expected overlay widget in:\n%s", out)
	}
	if strings.Index(out, `name="promoCode"`) > strings.Index(out, `name="email"`) {
		t.Fatalf("overlay x-order should move promoCode first:\n%s", out)
	}
}
