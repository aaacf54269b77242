// Package validation validates inbound dispatch payloads against JSON schemas.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Result holds the outcome of a schema validation.
type Result struct {
	Valid  bool
	Errors []string
}

// Error renders all violations as one message.
func (r *Result) Error() string {
	return strings.Join(r.Errors, "; ")
}

// Schema wraps a compiled JSON schema.
type Schema struct {
	schema *gojsonschema.Schema
}

// MustCompile compiles a schema document and panics on a malformed schema.
// Schemas are package constants, so a failure here is a programming error.
func MustCompile(document string) *Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(document))
	if err != nil {
		panic(fmt.Sprintf("invalid schema: %v", err))
	}
	return &Schema{schema: schema}
}

// ValidateBytes checks a raw JSON payload against the schema.
func (s *Schema) ValidateBytes(payload []byte) *Result {
	res, err := s.schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return &Result{Valid: false, Errors: []string{err.Error()}}
	}
	if res.Valid() {
		return &Result{Valid: true}
	}

	errs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		errs = append(errs, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	return &Result{Valid: false, Errors: errs}
}
