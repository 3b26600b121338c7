// Package jsonschema converts standalone JSON Schema (draft 2020-12)
// documents into form schemas. $ref references are expanded first, with
// guardrails on document count, size, depth and location.
package jsonschema

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-formengine/pkg/openapi"
)

// Loader fetches documents named by external references. *openapi.Loader
// satisfies it.
type Loader interface {
	Load(ctx context.Context, src openapi.Source) (openapi.Document, error)
}

// Draft202012 is the only dialect accepted in $schema.
const Draft202012 = "https://json-schema.org/draft/2020-12/schema"

// Detect reports whether raw appears to be a JSON Schema document rather
// than an OpenAPI one.
func Detect(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	var payload map[string]any
	if err := json.Unmarshal(trimmed, &payload); err != nil || payload == nil {
		return false
	}
	if _, ok := payload["openapi"]; ok {
		return false
	}
	if _, ok := payload["swagger"]; ok {
		return false
	}
	for _, key := range []string{"$schema", "$id", "$defs", "properties", "type", "items"} {
		if _, ok := payload[key]; ok {
			return true
		}
	}
	return false
}

func parseJSONSchema(raw []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("jsonschema: raw schema is empty")
	}
	var payload map[string]any
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, fmt.Errorf("jsonschema: parse schema: %w", err)
	}
	if payload == nil {
		return nil, errors.New("jsonschema: schema is nil")
	}
	return payload, nil
}

func validateDialect(payload map[string]any) error {
	value := strings.TrimSpace(readString(payload, "$schema"))
	if value == "" {
		return errors.New("jsonschema: $schema is required")
	}
	if !isDraft202012(value) {
		return fmt.Errorf("jsonschema: unsupported $schema %q", value)
	}
	return nil
}

func isDraft202012(value string) bool {
	trimmed := strings.TrimSuffix(strings.TrimSpace(value), "#")
	switch trimmed {
	case Draft202012, "http://json-schema.org/draft/2020-12/schema":
		return true
	default:
		return false
	}
}

func readString(payload map[string]any, key string) string {
	if payload == nil {
		return ""
	}
	str, _ := payload[key].(string)
	return str
}
