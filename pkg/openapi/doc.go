// Package openapi turns OpenAPI 3 component schemas into form schemas.
//
// Documents are read through a Loader from files, an fs.FS or (opt-in)
// HTTP, parsed with kin-openapi, and a named component is converted with
// FromDocument or FromOpenAPI. Already parsed schemas convert with
// FromSchemaRef.
package openapi
