// Package html renders forms to server-side HTML with pongo2 templates.
//
// Each visible node is rendered by a template chosen from its role and
// kind: containers/ for the form, groups, lists and unions, controls/ for
// leaf inputs, and chrome/field.html around every control. Templates can be
// overridden per file with WithTemplatesFS. Labels and descriptions are
// sanitized with bluemonday before they reach a template.
package html
