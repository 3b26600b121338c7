package orchestrator_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/orchestrator"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/testsupport"
	"github.com/goliatone/go-formengine/pkg/uischema"
)

func TestLint(t *testing.T) {
	node := schema.Object(
		schema.F("name", schema.String()),
		schema.F("plan", schema.Enum("free", "pro").Optional()),
		schema.F("tags", schema.Array(schema.String())),
		schema.F("payment", schema.DiscriminatedUnion("type",
			schema.Object(schema.F("type", schema.Literal("card")), schema.F("number", schema.String())),
			schema.Object(schema.F("type", schema.Literal("paypal")), schema.F("email", schema.String())),
		)),
	)
	ui := &uischema.Node{Fields: map[string]*uischema.Node{
		"nmae": {UI: &uischema.Props{Label: "Name"}},
		"name": {Element: &uischema.Node{}},
		"plan": {UI: &uischema.Props{OptionLabels: map[string]string{"free": "Free", "gold": "Gold"}}},
		"tags": {Element: &uischema.Node{Fields: map[string]*uischema.Node{"x": {}}}},
		"payment": {
			Discriminator: &uischema.Props{OptionLabels: map[string]string{"cash": "Cash"}},
			Elements: map[string]*uischema.Node{
				"card":   {Fields: map[string]*uischema.Node{"numbr": {}}},
				"crypto": {},
			},
		},
	}}

	got, err := orchestrator.Lint(node, ui)
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	want := []orchestrator.Violation{
		{Path: "name", Message: "element given for a string"},
		{Path: "nmae", Message: "no such field in the schema"},
		{Path: "payment", Message: `no variant with type "crypto"`},
		{Path: "payment.numbr", Message: "no such field in the schema"},
		{Path: "payment.type", Message: `option label for unknown value "cash"`},
		{Path: "plan", Message: `option label for unknown value "gold"`},
		{Path: "tags[]", Message: "fields given for a string"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("violations mismatch (-want +got):\n%s", diff)
	}
	if got[0].String() != "name: element given for a string" {
		t.Fatalf("String() = %q", got[0].String())
	}
}

func TestLint_CleanForms(t *testing.T) {
	got, err := orchestrator.Lint(testsupport.CheckoutSchema(), testsupport.CheckoutUI())
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no violations, got %v", got)
	}

	o := newOrchestrator(t)
	got, err = o.Lint(context.Background(), signupRequest())
	if err != nil {
		t.Fatalf("lint signup: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no violations, got %v", got)
	}
}
