// Package jsonschema validates JSON response bodies against JSON Schema
// documents.
package jsonschema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const resourceName = "schema.json"

// ValidationErrors represents a collection of validation errors
type ValidationErrors []error

// Error implements the error interface for ValidationErrors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, err := range ve {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Schema is a compiled JSON Schema.
type Schema struct {
	schema *jsonschema.Schema
}

// Compile compiles a schema document. Format keywords are asserted.
func Compile(schema []byte) (*Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	if err := compiler.AddResource(resourceName, bytes.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	s, err := compiler.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	return &Schema{schema: s}, nil
}

// CompileFile reads and compiles a schema from a local file.
func CompileFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	return Compile(data)
}

// Validate checks a JSON document. It returns nil when the document is valid.
func (s *Schema) Validate(data []byte) ValidationErrors {
	doc, err := decode(data)
	if err != nil {
		return ValidationErrors{err}
	}

	err = s.schema.Validate(doc)
	if err == nil {
		return nil
	}

	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) {
		return extractValidationErrors(validationErr)
	}
	return ValidationErrors{err}
}

// decode parses data the way the validator expects it, numbers kept as
// json.Number.
func decode(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return doc, nil
}

// ValidateWithErrors validates a JSON document against a JSON Schema and
// returns every failure found.
func ValidateWithErrors(data, schema []byte) (bool, ValidationErrors) {
	s, err := Compile(schema)
	if err != nil {
		return false, ValidationErrors{err}
	}

	errs := s.Validate(data)
	return len(errs) == 0, errs
}

// extractValidationErrors flattens the cause tree to its leaves.
func extractValidationErrors(err *jsonschema.ValidationError) ValidationErrors {
	if len(err.Causes) == 0 {
		location := err.InstanceLocation
		if location == "" {
			location = "/"
		}
		return ValidationErrors{fmt.Errorf("validation error at %s: %s", location, err.Message)}
	}

	var errs ValidationErrors
	for _, cause := range err.Causes {
		errs = append(errs, extractValidationErrors(cause)...)
	}
	return errs
}
