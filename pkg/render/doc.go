// Package render is the glue between a form and a rendering capability.
//
// Walk visits the visible schema nodes of a form, resolves their props from
// the schema, the UI schema, the current value and the errors map, and wires
// change callbacks that translate widget input into patch events. Renderers
// only ever see Props; they never touch form state directly.
package render
