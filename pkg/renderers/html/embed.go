package html

import (
	"embed"
	"io/fs"
)

//go:embed templates/chrome/*.html templates/controls/*.html templates/containers/*.html
var embeddedTemplates embed.FS

// TemplatesFS exposes the built-in template bundle rooted at its template
// directory, so overrides use the same relative names.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}
