package html

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formengine/pkg/form"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/uischema"
	"github.com/goliatone/go-formengine/pkg/widgets"
)

// Option configures the HTML renderer.
type Option func(*config)

type config struct {
	templateFS fs.FS
	action     string
	method     string
	submit     string
	widgets    *widgets.Registry
	classes    ChromeClasses
	hidden     map[string]string
	walkOpts   []render.WalkOption
}

// WithTemplatesFS layers templates over the embedded bundle. Files missing
// from files fall back to the built-in ones.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir layers templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if strings.TrimSpace(path) == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithAction sets the form element's action and method attributes.
func WithAction(action, method string) Option {
	return func(cfg *config) {
		cfg.action = strings.TrimSpace(action)
		if m := strings.TrimSpace(method); m != "" {
			cfg.method = strings.ToLower(m)
		}
	}
}

// WithSubmitLabel sets the submit button text. An empty label omits the
// button.
func WithSubmitLabel(label string) Option {
	return func(cfg *config) {
		cfg.submit = label
	}
}

// WithWidgets replaces the widget registry. A nil registry keeps the
// built-in matchers.
func WithWidgets(registry *widgets.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.widgets = registry
		}
	}
}

// WithRegistry substitutes named components while walking.
func WithRegistry(registry *render.Registry) Option {
	return func(cfg *config) {
		cfg.walkOpts = append(cfg.walkOpts, render.WithRegistry(registry))
	}
}

// WithLocalizer translates labels while walking.
func WithLocalizer(l *render.Localizer) Option {
	return func(cfg *config) {
		cfg.walkOpts = append(cfg.walkOpts, render.WithLocalizer(l))
	}
}

// Renderer turns visible form nodes into HTML fragments. Every unit it
// returns is a string; the root unit is a complete form element.
type Renderer struct {
	mu        sync.RWMutex
	set       *pongo2.TemplateSet
	templates map[string]*pongo2.Template

	labels       *bluemonday.Policy
	descriptions *bluemonday.Policy

	action   string
	method   string
	submit   string
	widgets  *widgets.Registry
	classes  map[string]string
	hidden   []map[string]string
	walkOpts []render.WalkOption
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{method: "post", submit: "Submit", widgets: widgets.NewRegistry()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	registerFilters()

	var loaders []pongo2.TemplateLoader
	if cfg.templateFS != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templateFS))
	}
	loaders = append(loaders, pongo2.NewFSLoader(TemplatesFS()))

	return &Renderer{
		set:          pongo2.NewSet("formengine-html", loaders...),
		templates:    make(map[string]*pongo2.Template),
		labels:       bluemonday.StrictPolicy(),
		descriptions: descriptionPolicy(),
		action:       cfg.action,
		method:       cfg.method,
		submit:       cfg.submit,
		widgets:      cfg.widgets,
		classes:      cfg.classes.withDefaults().context(),
		hidden:       sortedHidden(cfg.hidden),
		walkOpts:     cfg.walkOpts,
	}, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "html"
}

// ContentType reports the media type produced by Render.
func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render walks f and returns the markup of its visible nodes.
func (r *Renderer) Render(f *form.Form) ([]byte, error) {
	if f == nil {
		return nil, fmt.Errorf("html renderer: form is nil")
	}
	unit, err := f.Render(r, r.walkOpts...)
	if err != nil {
		return nil, fmt.Errorf("html renderer: %w", err)
	}
	markup, err := unitString(unit)
	if err != nil {
		return nil, fmt.Errorf("html renderer: %w", err)
	}
	return []byte(markup), nil
}

// RenderNode implements render.Renderer.
func (r *Renderer) RenderNode(props render.Props, children []render.Unit) (render.Unit, error) {
	parts := make([]string, 0, len(children))
	for _, child := range children {
		s, err := unitString(child)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", props.Name, err)
		}
		if s != "" {
			parts = append(parts, s)
		}
	}

	data := r.viewData(props)
	data["children"] = parts

	switch props.Role {
	case render.RoleRoot:
		data["action"], data["method"], data["submit"] = r.action, r.method, r.submit
		data["hidden"] = r.hidden
		return r.execute("containers/root.html", data)
	case render.RoleGroup:
		return r.execute("containers/group.html", data)
	case render.RoleUnion:
		return r.execute("containers/union.html", data)
	case render.RoleList:
		data["canAdd"] = props.MaxItems == nil || props.Len < *props.MaxItems
		data["canRemove"] = props.MinItems == nil || props.Len > *props.MinItems
		return r.execute("containers/list.html", data)
	case render.RoleMultiChoice:
		data["labelFor"] = false
		return r.field("controls/multichoice.html", data)
	case render.RoleDiscriminator:
		return r.field(r.control(props, data, "controls/select.html"), data)
	case render.RoleField:
		return r.field(r.control(props, data, controlTemplate(props.Kind)), data)
	default:
		return nil, fmt.Errorf("%s: unsupported role %q", props.Name, props.Role)
	}
}

// field renders the control, then wraps it in the label and message chrome.
func (r *Renderer) field(control string, data pongo2.Context) (render.Unit, error) {
	markup, err := r.execute(control, data)
	if err != nil {
		return nil, err
	}
	data["control"] = markup
	return r.execute("chrome/field.html", data)
}

// control picks the template of the widget resolved for props. Widgets the
// package does not bundle load from widgets/<name>.html when the template
// set has one.
func (r *Renderer) control(props render.Props, data pongo2.Context, fallback string) string {
	widget, ok := r.widgets.Resolve(props)
	if !ok || !widgets.Supports(widget, props.Kind) {
		return fallback
	}
	data["widget"] = widget
	switch widget {
	case widgets.WidgetEmail, widgets.WidgetURL:
		data["inputType"] = widget
		return fallback
	case widgets.WidgetPassword:
		data["inputType"], data["value"] = widget, ""
		return fallback
	case widgets.WidgetToggle:
		data["switch"] = true
		return fallback
	case widgets.WidgetTextarea:
		return "controls/textarea.html"
	case widgets.WidgetRadio:
		data["labelFor"] = false
		return "controls/radio.html"
	}
	name := "widgets/" + widget + ".html"
	if _, err := r.template(name); err != nil {
		return fallback
	}
	return name
}

func controlTemplate(kind schema.Kind) string {
	switch kind {
	case schema.KindNumber:
		return "controls/number.html"
	case schema.KindBoolean:
		return "controls/boolean.html"
	case schema.KindDate:
		return "controls/date.html"
	case schema.KindEnum:
		return "controls/select.html"
	default:
		return "controls/string.html"
	}
}

func (r *Renderer) viewData(props render.Props) pongo2.Context {
	options := make([]map[string]any, 0, len(props.Options))
	for _, opt := range props.Options {
		options = append(options, map[string]any{
			"value":    formatValue(opt.Value),
			"label":    r.labels.Sanitize(opt.Label),
			"selected": props.Selected(opt.Value),
		})
	}

	step := "any"
	if props.Integer {
		step = "1"
	}

	return pongo2.Context{
		"role":        string(props.Role),
		"kind":        string(props.Kind),
		"name":        props.Name,
		"label":       r.labels.Sanitize(props.Label),
		"description": r.descriptions.Sanitize(props.Description),
		"placeholder": props.Placeholder,
		"icon":        uischema.SanitizeIcon(props.UI.Icon),
		"required":    props.Required,
		"present":     props.Present && props.Value != nil,
		"value":       formatValue(props.Value),
		"checked":     props.Value == true,
		"error":       props.Error,
		"options":     options,
		"min":         formatFloat(props.Min),
		"max":         formatFloat(props.Max),
		"step":        step,
		"minLength":   formatInt(props.MinLength),
		"maxLength":   formatInt(props.MaxLength),
		"pattern":     props.Pattern,
		"len":         props.Len,
		"labelFor":    true,
		"inputType":   "text",
		"classes":     r.classes,
	}
}

func (r *Renderer) execute(name string, data pongo2.Context) (string, error) {
	tmpl, err := r.template(name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(data, &buf); err != nil {
		return "", fmt.Errorf("execute template %q: %w", name, err)
	}
	return buf.String(), nil
}

func (r *Renderer) template(name string) (*pongo2.Template, error) {
	r.mu.RLock()
	if tmpl, ok := r.templates[name]; ok {
		r.mu.RUnlock()
		return tmpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if tmpl, ok := r.templates[name]; ok {
		return tmpl, nil
	}
	tmpl, err := r.set.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("load template %q: %w", name, err)
	}
	r.templates[name] = tmpl
	return tmpl, nil
}

func unitString(unit render.Unit) (string, error) {
	switch u := unit.(type) {
	case nil:
		return "", nil
	case string:
		return u, nil
	case []byte:
		return string(u), nil
	case fmt.Stringer:
		return u.String(), nil
	default:
		return "", fmt.Errorf("unsupported unit %T", unit)
	}
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return t.Format(time.DateOnly)
	case []any:
		return ""
	case map[string]any:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
