package html

// ChromeClasses names the CSS classes of the containers and the field
// wrapper. Empty entries keep the defaults.
type ChromeClasses struct {
	Form  string
	Group string
	List  string
	Union string
	Field string
}

// Default chrome classes.
const (
	DefaultFormClass  = "fe-form"
	DefaultGroupClass = "fe-group"
	DefaultListClass  = "fe-list"
	DefaultUnionClass = "fe-union"
	DefaultFieldClass = "fe-field"
)

// WithChromeClasses overrides the chrome classes. Element modifiers such as
// fe-field--invalid are not affected.
func WithChromeClasses(classes ChromeClasses) Option {
	return func(cfg *config) {
		cfg.classes = classes
	}
}

func (c ChromeClasses) withDefaults() ChromeClasses {
	pick := func(v, fallback string) string {
		if v == "" {
			return fallback
		}
		return v
	}
	return ChromeClasses{
		Form:  pick(c.Form, DefaultFormClass),
		Group: pick(c.Group, DefaultGroupClass),
		List:  pick(c.List, DefaultListClass),
		Union: pick(c.Union, DefaultUnionClass),
		Field: pick(c.Field, DefaultFieldClass),
	}
}

func (c ChromeClasses) context() map[string]string {
	return map[string]string{
		"form":  c.Form,
		"group": c.Group,
		"list":  c.List,
		"union": c.Union,
		"field": c.Field,
	}
}
