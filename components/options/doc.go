// Package options serves the choices of a form field as JSON, filtered by a
// search query. It backs comboboxes for enums too long to render as a plain
// select.
//
// The handler responds to GET and HEAD requests and supports field, query
// and limit parameters. Choices come from a Source, either a fixed list or
// the visible fields of a form built per request.
package options
