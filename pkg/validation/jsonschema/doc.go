// Package jsonschema provides the default validation capability. A schema
// node is compiled into a Draft 2020-12 JSON Schema document, data is checked
// structurally against it, and then effects run: refinements add issues and
// transforms shape the output value.
package jsonschema
