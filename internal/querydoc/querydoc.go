// Package querydoc decodes query documents from JSON or YAML text and
// validates them against the query JSON Schema.
package querydoc

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/kartikbazzad/bunbase/bunquery"
)

// Format of a query document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ValidationError lists every schema violation of a query document.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "query document invalid against schema: " + strings.Join(e.Violations, "; ")
}

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(querySchema))
	})
	return schema, schemaErr
}

// FormatFromPath picks the format from a file extension; JSON by default.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Decode parses raw into a query document. The top-level value must be a
// keyed structure, otherwise the error wraps bunquery.ErrInvalidQuery.
func Decode(raw []byte, format Format) (bunquery.Query, error) {
	var v any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("failed to parse YAML query: %w", err)
		}
	default:
		if !gjson.ValidBytes(raw) {
			return nil, fmt.Errorf("%w: malformed JSON", bunquery.ErrInvalidQuery)
		}
		v = gjson.ParseBytes(raw).Value()
	}

	doc, ok := v.(map[string]any)
	if !ok || doc == nil {
		return nil, fmt.Errorf("%w: got %T", bunquery.ErrInvalidQuery, v)
	}
	return doc, nil
}

// Validate checks doc against the query schema.
func Validate(doc bunquery.Query) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("invalid json schema: %w", err)
	}

	result, err := s.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{}
	for _, desc := range result.Errors() {
		verr.Violations = append(verr.Violations, desc.String())
	}
	return verr
}

// Load decodes and validates in one step.
func Load(raw []byte, format Format) (bunquery.Query, error) {
	doc, err := Decode(raw, format)
	if err != nil {
		return nil, err
	}
	if err := Validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}
