package uischema_test

import (
	"testing"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-formengine/pkg/uischema"
)

func TestCondition_JSONRoundTrip(t *testing.T) {
	cases := []struct {
		raw      string
		wantKind uischema.ConditionKind
	}{
		{raw: `true`, wantKind: uischema.ConditionStatic},
		{raw: `false`, wantKind: uischema.ConditionStatic},
		{raw: `"age == 18"`, wantKind: uischema.ConditionRule},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			var cond uischema.Condition
			if err := json.Unmarshal([]byte(tc.raw), &cond); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if cond.Kind() != tc.wantKind {
				t.Fatalf("kind = %v, want %v", cond.Kind(), tc.wantKind)
			}
			out, err := json.Marshal(&cond)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(out) != tc.raw {
				t.Fatalf("round trip = %s, want %s", out, tc.raw)
			}
		})
	}
}

func TestCondition_PredicateCannotMarshal(t *testing.T) {
	cond := uischema.When(func(any) bool { return true })
	if _, err := json.Marshal(cond); err == nil {
		t.Fatalf("expected predicate marshal error")
	}
	if cond.String() != "<predicate>" {
		t.Fatalf("String() = %q", cond.String())
	}
}

func TestCondition_NilIsVisible(t *testing.T) {
	var cond *uischema.Condition
	if v, ok := cond.StaticValue(); !ok || !v {
		t.Fatalf("nil condition must be statically visible")
	}
}
