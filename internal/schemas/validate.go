// Package schemas provides JSON Schema validation for raw profile documents.
package schemas

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// profileSchema checks presence and primitive type of every required
// top-level profile key. Nested entry shapes are intentionally left to the
// merge manager, which validates entries at merge time.
const profileSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": [
    "personal_info", "experience", "education", "certifications",
    "projects", "skills", "languages", "completion_status", "version"
  ],
  "properties": {
    "personal_info":        {"type": "object"},
    "summary":              {"type": "string"},
    "experience":           {"type": "array"},
    "education":            {"type": "array"},
    "certifications":       {"type": "array"},
    "projects":             {"type": "array"},
    "skills":               {"type": "array"},
    "languages":            {"type": "array"},
    "selected_template":    {"type": "string"},
    "generated_output_url": {"type": "string"},
    "completion_status":    {"type": "object"},
    "version":              {"type": "integer"},
    "last_updated":         {"type": "string"}
  }
}`

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema: %s", e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// ValidateProfileDocument validates a raw profile document against the
// embedded profile schema.
func ValidateProfileDocument(raw []byte) error {
	return validateAgainst(profileSchema, string(raw))
}

// validateAgainst validates JSON string content against schema string content
func validateAgainst(schemaContent, jsonContent string) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaContent)
	documentLoader := gojsonschema.NewStringLoader(jsonContent)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}

	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}

	return validationErr
}
