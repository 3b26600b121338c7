package render_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/conditions"
	"github.com/goliatone/go-formengine/pkg/fieldpath"
	"github.com/goliatone/go-formengine/pkg/patch"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/testsupport"
	"github.com/goliatone/go-formengine/pkg/uischema"
	"github.com/goliatone/go-formengine/pkg/validation"
)

type recorder struct {
	props map[string]render.Props
	order []string
}

func newRecorder() *recorder {
	return &recorder{props: make(map[string]render.Props)}
}

func (r *recorder) RenderNode(props render.Props, children []render.Unit) (render.Unit, error) {
	key := string(props.Role) + ":" + props.Name
	r.props[key] = props
	r.order = append(r.order, key)
	return key, nil
}

type eventView struct {
	Op    patch.Op
	Path  string
	Value any
}

func checkoutContext(events *[]eventView) render.Context {
	return render.Context{
		Value: map[string]any{
			"people":        []any{map[string]any{"name": "Ada"}},
			"paymentMethod": "creditCard",
			"paypalNumber":  "123",
		},
		Errors:   validation.NoErrors,
		Conds:    conditions.Map{"paypalNumber": false},
		Dispatch: func(e patch.Event) error {
			*events = append(*events, eventView{Op: e.Op, Path: e.Path.String(), Value: e.Value})
			return nil
		},
	}
}

func TestWalk_VisitsVisibleNodesChildrenFirst(t *testing.T) {
	var events []eventView
	rec := newRecorder()
	unit, err := render.Walk(checkoutContext(&events), testsupport.CheckoutSchema(), testsupport.CheckoutUI(), rec)
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	want := []string{
		"field:people[0].name",
		"field:people[0].nickname",
		"group:people[0]",
		"list:people",
		"field:age",
		"field:paymentMethod",
		"field:newsletter",
		"root:",
	}
	if diff := cmp.Diff(want, rec.order); diff != "" {
		t.Fatalf("render order mismatch (-want +got):\n%s", diff)
	}
	if unit != "root:" {
		t.Fatalf("expected root unit, got %v", unit)
	}

	people := rec.props["list:people"]
	if people.Label != "People" || people.Len != 1 || people.MinItems == nil || *people.MinItems != 1 {
		t.Fatalf("unexpected list props: %+v", people)
	}
	name := rec.props["field:people[0].name"]
	if name.Label != "Name" || name.Placeholder != "Ada Lovelace" || name.Description != "Full name" || !name.Required {
		t.Fatalf("unexpected template props: %+v", name)
	}
	if nick := rec.props["field:people[0].nickname"]; nick.Required || nick.Present || nick.Label != "Nickname" {
		t.Fatalf("unexpected optional field: %+v", nick)
	}
	method := rec.props["field:paymentMethod"]
	wantOptions := []render.Option{{Value: "creditCard", Label: "Credit card"}, {Value: "payPal", Label: "PayPal"}}
	if diff := cmp.Diff(wantOptions, method.Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if !method.Selected("creditCard") || method.OptionLabel("payPal") != "PayPal" {
		t.Fatalf("selection helpers failed: %+v", method)
	}
}

func TestWalk_LeafGlue(t *testing.T) {
	var events []eventView
	rec := newRecorder()
	if _, err := render.Walk(checkoutContext(&events), testsupport.CheckoutSchema(), testsupport.CheckoutUI(), rec); err != nil {
		t.Fatalf("walk: %v", err)
	}

	calls := []func() error{
		func() error { return rec.props["field:people[0].nickname"].OnChange("") },
		func() error { return rec.props["field:people[0].name"].OnChange("") },
		func() error { return rec.props["field:age"].OnChange(math.NaN()) },
		func() error { return rec.props["field:age"].OnChange(20) },
		func() error { return rec.props["field:paymentMethod"].OnChange("") },
		func() error { return rec.props["field:newsletter"].OnChange(true) },
		func() error { return rec.props["list:people"].Add(nil) },
		func() error { return rec.props["list:people"].RemoveAt(0) },
	}
	for i, call := range calls {
		if err := call(); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}

	want := []eventView{
		{Op: patch.OpRemove, Path: "people[0].nickname"},
		{Op: patch.OpUpdate, Path: "people[0].name", Value: ""},
		{Op: patch.OpRemove, Path: "age"},
		{Op: patch.OpUpdate, Path: "age", Value: 20},
		{Op: patch.OpRemove, Path: "paymentMethod"},
		{Op: patch.OpUpdate, Path: "newsletter", Value: true},
		{Op: patch.OpArrayAdd, Path: "people[1]", Value: map[string]any{}},
		{Op: patch.OpArrayRemove, Path: "people[0]"},
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func paymentForm() *schema.Node {
	return schema.Object(
		schema.F("payment", schema.DiscriminatedUnion("type",
			schema.Object(
				schema.F("type", schema.Literal("card")),
				schema.F("cardNumber", schema.String()),
			),
			schema.Object(
				schema.F("type", schema.Literal("paypal")),
				schema.F("email", schema.String()),
			),
		)),
		schema.F("tags", schema.Array(schema.Enum("a", "b"))),
	)
}

func paymentUI() *uischema.Node {
	return &uischema.Node{Fields: map[string]*uischema.Node{
		"payment": {
			Discriminator: &uischema.Props{Label: "Method"},
			Elements: map[string]*uischema.Node{
				"card": {UI: &uischema.Props{OptionLabel: "Card"}, Fields: map[string]*uischema.Node{
					"cardNumber": {UI: &uischema.Props{Label: "Card number"}},
				}},
			},
		},
	}}
}

func TestWalk_DiscriminatedUnion(t *testing.T) {
	tests := []struct {
		name  string
		value map[string]any
		want  []string
	}{
		{
			name:  "no selection renders selector only",
			value: map[string]any{},
			want:  []string{"discriminator:payment.type", "union:payment", "multiChoice:tags", "root:"},
		},
		{
			name:  "selected variant renders at union path",
			value: map[string]any{"payment": map[string]any{"type": "card"}},
			want: []string{
				"discriminator:payment.type",
				"field:payment.cardNumber",
				"group:payment",
				"union:payment",
				"multiChoice:tags",
				"root:",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newRecorder()
			ctx := render.Context{Value: tt.value}
			if _, err := render.Walk(ctx, paymentForm(), paymentUI(), rec); err != nil {
				t.Fatalf("walk: %v", err)
			}
			if diff := cmp.Diff(tt.want, rec.order); diff != "" {
				t.Fatalf("render order mismatch (-want +got):\n%s", diff)
			}
			selector := rec.props["discriminator:payment.type"]
			wantOptions := []render.Option{{Value: "card", Label: "Card"}, {Value: "paypal", Label: "paypal"}}
			if diff := cmp.Diff(wantOptions, selector.Options); diff != "" {
				t.Fatalf("selector options mismatch (-want +got):\n%s", diff)
			}
			if selector.Label != "Method" || !selector.Required {
				t.Fatalf("unexpected selector props: %+v", selector)
			}
		})
	}
}

func TestWalk_ComponentSubstitution(t *testing.T) {
	rec := newRecorder()
	registry := render.NewRegistry()
	var custom []string
	registry.MustRegister("stars", render.RendererFunc(func(props render.Props, _ []render.Unit) (render.Unit, error) {
		custom = append(custom, props.Name)
		return nil, nil
	}))
	ui := testsupport.CheckoutUI()
	ui.Fields["age"].UI.Component = "stars"

	if _, err := render.Walk(render.Context{Value: map[string]any{}}, testsupport.CheckoutSchema(), ui, rec, render.WithRegistry(registry)); err != nil {
		t.Fatalf("walk: %v", err)
	}
	if diff := cmp.Diff([]string{"age"}, custom); diff != "" {
		t.Fatalf("custom renderer calls mismatch (-want +got):\n%s", diff)
	}
	if _, ok := rec.props["field:age"]; ok {
		t.Fatalf("default renderer should not render substituted node")
	}
}

func TestWalk_ErrorsReachProps(t *testing.T) {
	rec := newRecorder()
	ctx := render.Context{
		Value: map[string]any{},
		Errors: validation.GroupIssues([]validation.Issue{
			{Path: fieldpath.MustParse("age"), Message: "must be at least 18"},
		}),
	}
	if _, err := render.Walk(ctx, testsupport.CheckoutSchema(), nil, rec); err != nil {
		t.Fatalf("walk: %v", err)
	}
	if got := rec.props["field:age"].Error; got != "must be at least 18" {
		t.Fatalf("error message = %q", got)
	}
}

func TestWalk_RejectsNonFormRoot(t *testing.T) {
	if _, err := render.Walk(render.Context{}, schema.String(), nil, newRecorder()); err == nil {
		t.Fatalf("expected schema error")
	}
}
