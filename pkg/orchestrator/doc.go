// Package orchestrator wires the OpenAPI loader, the schema converter, the UI
// schema store and the form runtime into a single entry point. It is what the
// formctl command drives; library callers can use it the same way.
package orchestrator
