// Package jsonio loads records from JSON or JSON Lines input and encodes
// filter results.
package jsonio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// ErrInvalidJSON is returned for input that is not well-formed JSON.
var ErrInvalidJSON = errors.New("invalid JSON")

// IsJSONLines reports whether name looks like a JSON Lines file.
func IsJSONLines(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jsonl", ".ndjson":
		return true
	}
	return false
}

// Decode parses a JSON document into plain Go values (map[string]any,
// []any, float64, string, bool, nil). The top-level value is returned as-is
// so the caller decides whether it is a valid collection.
func Decode(data []byte) (any, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	return gjson.ParseBytes(data).Value(), nil
}

// DecodeLines parses JSON Lines input into a sequence. Each non-blank line
// must hold exactly one JSON value; errors name the 1-based line number.
func DecodeLines(data []byte) ([]any, error) {
	records := make([]any, 0)
	for i, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if !gjson.ValidBytes(line) {
			return nil, fmt.Errorf("%w at line %d", ErrInvalidJSON, i+1)
		}
		records = append(records, gjson.ParseBytes(line).Value())
	}
	return records, nil
}

// Load decodes data according to the file name.
func Load(name string, data []byte) (any, error) {
	if IsJSONLines(name) {
		return DecodeLines(data)
	}
	return Decode(data)
}

// Envelope builds {"source":..., "count":N, "results":[...]}.
func Envelope(source string, results []any, indent bool) ([]byte, error) {
	raw, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("failed to encode results: %w", err)
	}

	doc := []byte(`{}`)
	if doc, err = sjson.SetBytes(doc, "source", source); err != nil {
		return nil, err
	}
	if doc, err = sjson.SetBytes(doc, "count", len(results)); err != nil {
		return nil, err
	}
	if doc, err = sjson.SetRawBytes(doc, "results", raw); err != nil {
		return nil, err
	}

	if indent {
		return pretty.Pretty(doc), nil
	}
	return append(doc, '\n'), nil
}
