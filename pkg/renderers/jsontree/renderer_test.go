package jsontree_test

import (
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/form"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/renderers/jsontree"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/testsupport"
	"github.com/goliatone/go-formengine/pkg/widgets"
)

func childNames(el *jsontree.Element) []string {
	var names []string
	for _, c := range el.Children {
		names = append(names, c.Name)
	}
	return names
}

func child(t *testing.T, el *jsontree.Element, name string) *jsontree.Element {
	t.Helper()
	for _, c := range el.Children {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no child %q under %q (have %v)", name, el.Name, childNames(el))
	return nil
}

func TestTree_Checkout(t *testing.T) {
	f, err := form.New(testsupport.CheckoutSchema(),
		form.WithUISchema(testsupport.CheckoutUI()),
		form.WithDefaultValues(map[string]any{
			"people":        []any{map[string]any{"name": "Ada"}},
			"paymentMethod": "creditCard",
		}))
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	doc, err := jsontree.New().Tree(f)
	if err != nil {
		t.Fatalf("tree: %v", err)
	}

	if doc.State != "clean" || doc.Root.Role != render.RoleRoot {
		t.Fatalf("unexpected document: state %q role %q", doc.State, doc.Root.Role)
	}
	if diff := cmp.Diff([]string{"people", "age", "paymentMethod", "newsletter"}, childNames(doc.Root)); diff != "" {
		t.Fatalf("visible children mismatch (-want +got):\n%s", diff)
	}

	method := child(t, doc.Root, "paymentMethod")
	wantOptions := []jsontree.Choice{{Value: "creditCard", Label: "Credit card"}, {Value: "payPal", Label: "PayPal"}}
	if diff := cmp.Diff(wantOptions, method.Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if method.Value != "creditCard" || !method.Required || method.Label != "Payment method" {
		t.Fatalf("unexpected payment method: %+v", method)
	}

	age := child(t, doc.Root, "age")
	if age.Rules == nil || !age.Rules.Integer {
		t.Fatalf("age rules = %+v", age.Rules)
	}

	people := child(t, doc.Root, "people")
	if people.Role != render.RoleList || people.Rules == nil || people.Rules.MinItems == nil || *people.Rules.MinItems != 1 {
		t.Fatalf("unexpected people: %+v", people)
	}
	person := child(t, people, "people[0]")
	if diff := cmp.Diff([]string{"people[0].name", "people[0].nickname"}, childNames(person)); diff != "" {
		t.Fatalf("person children mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_Encodes(t *testing.T) {
	node := schema.Object(
		schema.F("email", schema.String().Annotate("format", "email")),
		schema.F("bio", schema.String().Annotate("x-widget", "stars").Optional()),
	)
	f, err := form.New(node)
	if err != nil {
		t.Fatalf("new form: %v", err)
	}

	out, err := jsontree.New(jsontree.WithIndent("  ")).Render(f)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	root := got["root"].(map[string]any)
	children := root["children"].([]any)
	email := children[0].(map[string]any)
	if got["state"] != "clean" || email["widget"] != "email" || email["name"] != "email" {
		t.Fatalf("unexpected output:\n%s", out)
	}

	doc, err := jsontree.New(jsontree.WithWidgets(&widgets.Registry{})).Tree(f)
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	if w := child(t, doc.Root, "email").Widget; w != "" {
		t.Fatalf("empty registry should not pick a widget, got %q", w)
	}
	if w := child(t, doc.Root, "bio").Widget; w != "stars" {
		t.Fatalf("explicit widget = %q", w)
	}
}

func TestRender_Golden(t *testing.T) {
	node := schema.Object(
		schema.F("email", schema.String().Annotate("format", "email")),
		schema.F("plan", schema.Enum("free", "pro").DefaultTo("free")),
		schema.F("nickname", schema.String().MaxLength(40).Optional()),
	)
	f, err := form.New(node, form.WithDefaultValues(map[string]any{"email": "ada@example.com", "plan": "pro"}))
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	out, err := jsontree.New(jsontree.WithIndent("  ")).Render(f)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	path := filepath.Join("testdata", "signup.golden.json")
	if testsupport.WriteMaybeGolden(t, path, out) {
		return
	}
	var want, got jsontree.Document
	if err := json.Unmarshal(testsupport.MustReadGolden(t, path), &want); err != nil {
		t.Fatalf("decode golden: %v", err)
	}
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if diff := testsupport.CompareGolden(want, got); diff != "" {
		t.Fatalf("golden mismatch (-want +got):\n%s", diff)
	}
}
