package uischema

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// IconPolicy returns the policy applied to inline SVG icon markup. Anything
// that is not a drawing element or a presentation attribute is dropped.
var IconPolicy = sync.OnceValue(func() *bluemonday.Policy {
	policy := bluemonday.StrictPolicy()

	shapes := []string{"path", "circle", "rect", "line", "polyline", "polygon", "ellipse"}
	policy.AllowElements(append([]string{"svg", "g", "title", "desc", "defs", "use", "clipPath"}, shapes...)...)

	policy.AllowAttrs("xmlns", "viewBox", "width", "height", "aria-hidden", "role", "focusable").OnElements("svg")
	policy.AllowAttrs("fill", "stroke", "stroke-width", "stroke-linecap", "stroke-linejoin", "class").
		OnElements(append([]string{"svg", "g"}, shapes...)...)
	policy.AllowAttrs("d", "cx", "cy", "r", "rx", "ry", "x", "y", "x1", "y1", "x2", "y2", "points").
		OnElements(shapes...)
	policy.AllowAttrs("href", "xlink:href", "clip-path").OnElements("use")
	policy.AllowAttrs("id").OnElements("g", "defs", "clipPath")
	policy.AllowAttrs("clipPathUnits").OnElements("clipPath")
	return policy
})

// SanitizeIcon cleans icon markup, returning "" when nothing survives.
func SanitizeIcon(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(IconPolicy().Sanitize(raw))
}
