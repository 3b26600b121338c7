package uischema

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ConditionKind tags how a Condition is evaluated.
type ConditionKind int

const (
	ConditionStatic ConditionKind = iota
	ConditionPredicate
	ConditionRule
)

func (k ConditionKind) String() string {
	switch k {
	case ConditionStatic:
		return "static"
	case ConditionPredicate:
		return "predicate"
	case ConditionRule:
		return "rule"
	default:
		return fmt.Sprintf("ConditionKind(%d)", int(k))
	}
}

// Predicate receives the whole current data tree.
type Predicate func(data any) bool

// Condition is a visibility condition: a static boolean, a Go predicate or a
// rule expression evaluated by a visibility.Evaluator. Conditions are
// immutable once built.
type Condition struct {
	kind      ConditionKind
	static    bool
	predicate Predicate
	rule      string
}

// Static returns a condition that always evaluates to visible.
func Static(visible bool) *Condition {
	return &Condition{kind: ConditionStatic, static: visible}
}

// When wraps a predicate over the whole data tree.
func When(fn Predicate) *Condition {
	return &Condition{kind: ConditionPredicate, predicate: fn}
}

// Rule wraps a rule expression such as `paymentMethod == "payPal"`.
func Rule(expr string) *Condition {
	return &Condition{kind: ConditionRule, rule: strings.TrimSpace(expr)}
}

func (c *Condition) Kind() ConditionKind {
	if c == nil {
		return ConditionStatic
	}
	return c.kind
}

// StaticValue returns the literal of a static condition. A nil condition is
// statically visible.
func (c *Condition) StaticValue() (bool, bool) {
	if c == nil {
		return true, true
	}
	if c.kind != ConditionStatic {
		return false, false
	}
	return c.static, true
}

func (c *Condition) Predicate() Predicate {
	if c == nil {
		return nil
	}
	return c.predicate
}

func (c *Condition) RuleText() string {
	if c == nil {
		return ""
	}
	return c.rule
}

func (c *Condition) String() string {
	switch c.Kind() {
	case ConditionPredicate:
		return "<predicate>"
	case ConditionRule:
		return c.rule
	default:
		v, _ := c.StaticValue()
		return fmt.Sprintf("%t", v)
	}
}

// UnmarshalJSON accepts a boolean (static) or a string (rule).
func (c *Condition) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("true")):
		*c = *Static(true)
	case bytes.Equal(trimmed, []byte("false")):
		*c = *Static(false)
	default:
		var expr string
		if err := json.Unmarshal(trimmed, &expr); err != nil {
			return fmt.Errorf("uischema: cond must be a boolean or rule string: %w", err)
		}
		*c = *Rule(expr)
	}
	return nil
}

// MarshalJSON writes static and rule conditions back out. Predicates have
// no textual form.
func (c *Condition) MarshalJSON() ([]byte, error) {
	switch c.Kind() {
	case ConditionPredicate:
		return nil, fmt.Errorf("uischema: predicate conditions cannot be serialised")
	case ConditionRule:
		return json.Marshal(c.rule)
	default:
		v, _ := c.StaticValue()
		return json.Marshal(v)
	}
}

// UnmarshalYAML accepts the same scalars as UnmarshalJSON.
func (c *Condition) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("uischema: line %d: cond must be a scalar", value.Line)
	}
	switch value.ShortTag() {
	case "!!bool":
		var v bool
		if err := value.Decode(&v); err != nil {
			return err
		}
		*c = *Static(v)
		return nil
	case "!!str":
		*c = *Rule(value.Value)
		return nil
	default:
		return fmt.Errorf("uischema: line %d: cond must be a boolean or rule string, got %s", value.Line, value.ShortTag())
	}
}
