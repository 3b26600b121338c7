package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/fieldpath"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/uischema"
)

// PathComparer lets cmp compare values holding field paths, whose segments
// keep their fields unexported.
var PathComparer = cmp.Comparer(func(a, b fieldpath.Path) bool { return a.Equal(b) })

// AtLeast builds a refinement check for numeric values of any Go type.
func AtLeast(min float64) func(any) bool {
	return func(v any) bool {
		switch n := v.(type) {
		case int:
			return float64(n) >= min
		case int64:
			return float64(n) >= min
		case float64:
			return n >= min
		case json.Number:
			f, err := n.Float64()
			return err == nil && f >= min
		}
		return false
	}
}

// CheckoutSchema is the shared checkout fixture: a list of people, a
// payment method and a PayPal number that is only relevant for PayPal.
func CheckoutSchema() *schema.Node {
	person := schema.Object(
		schema.F("name", schema.String().MinLength(1).Describe("Full name")),
		schema.F("nickname", schema.String().Optional()),
	)
	return schema.Object(
		schema.F("people", schema.Array(person).MinItems(1).Describe("People")),
		schema.F("age", schema.Number().Int().Refine(AtLeast(18), "must be at least 18")),
		schema.F("paymentMethod", schema.Enum("creditCard", "payPal").DefaultTo("creditCard")),
		schema.F("paypalNumber", schema.String().Optional()),
		schema.F("newsletter", schema.Boolean().Optional()),
	)
}

// CheckoutUI pairs CheckoutSchema with labels and the PayPal condition.
func CheckoutUI() *uischema.Node {
	return &uischema.Node{
		Fields: map[string]*uischema.Node{
			"people": {
				UI: &uischema.Props{Label: "People"},
				Element: &uischema.Node{Fields: map[string]*uischema.Node{
					"name": {UI: &uischema.Props{Label: "Name", Placeholder: "Ada Lovelace"}},
				}},
			},
			"age":           {UI: &uischema.Props{Label: "Age"}},
			"paymentMethod": {UI: &uischema.Props{Label: "Payment method", OptionLabels: map[string]string{"creditCard": "Credit card", "payPal": "PayPal"}}},
			"paypalNumber":  {UI: &uischema.Props{Label: "PayPal number", Cond: uischema.Rule(`paymentMethod == "payPal"`)}},
		},
	}
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got, PathComparer)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

