// Package validation orchestrates form validation: hidden fields are
// stripped, an injected Validator checks the remaining data, and the issues
// it reports are grouped by the path they belong to.
package validation
