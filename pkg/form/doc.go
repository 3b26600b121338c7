// Package form sequences the engine into a form state machine.
//
// A Form owns its data tree. Change events from rendering glue are applied
// through the patch engine, visibility is recomputed after every edit, and
// validation runs on submit (or after every edit with live validation). The
// state moves between clean, dirty-unvalidated, dirty-invalid and
// submitted-valid; a submitted form only leaves submitted-valid through a
// later edit.
package form
