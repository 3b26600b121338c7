// Package visibility defines the contract for evaluating textual visibility
// rules declared in UI schemas.
package visibility

// Evaluator decides whether the field at fieldPath is visible according to
// rule. Rules see the whole data tree, not only the field's own subtree.
type Evaluator interface {
	Eval(fieldPath, rule string, ctx Context) (bool, error)
}

// Context provides inputs to an Evaluator. Data is the current form data
// tree; Extras lets callers inject values such as user roles or feature
// flags, addressed with the `extras.` prefix.
type Context struct {
	Data   any
	Extras map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(fieldPath, rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(fieldPath, rule string, ctx Context) (bool, error) {
	return fn(fieldPath, rule, ctx)
}
