package html

import (
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"
)

var registerOnce sync.Once

// pongo2 filters are process-wide; they must exist before templates parse.
func registerFilters() {
	registerOnce.Do(func() {
		if !pongo2.FilterExists("controlid") {
			_ = pongo2.RegisterFilter("controlid", filterControlID)
		}
	})
}

var idReplacer = strings.NewReplacer("[", "-", "]", "", ".", "-", " ", "-")

// ControlID derives the element id used for the control of a serialized
// path: "people[0].name" becomes "fe-people-0-name".
func ControlID(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "fe-root"
	}
	return "fe-" + idReplacer.Replace(name)
}

func filterControlID(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(ControlID(in.String())), nil
}

// descriptionPolicy keeps inline formatting and plain links in help text.
func descriptionPolicy() *bluemonday.Policy {
	policy := bluemonday.NewPolicy()
	policy.AllowElements("b", "strong", "i", "em", "code", "br")
	policy.AllowStandardURLs()
	policy.AllowAttrs("href").OnElements("a")
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	return policy
}
