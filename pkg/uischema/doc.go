// Package uischema loads UI schema trees that mirror a form's data shape.
// Each node may carry display props for renderers and a visibility
// condition consumed by the conditions package. Documents are JSON or YAML
// files of the form `forms: {<id>: <node>}`.
package uischema
