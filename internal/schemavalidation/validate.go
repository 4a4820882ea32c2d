// Package schemavalidation checks JSON documents against the embedded
// JSON Schemas for configuration files and action tables.
package schemavalidation

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema names.
const (
	Config      = "config-v1.schema.json"
	ActionTable = "action-table-v1.schema.json"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	compiledMu sync.Mutex
	compiled   = make(map[string]*jsonschema.Schema)
)

// Schema returns the compiled schema with the given name. Compiled schemas
// are cached for the life of the process.
func Schema(name string) (*jsonschema.Schema, error) {
	compiledMu.Lock()
	defer compiledMu.Unlock()

	if s, ok := compiled[name]; ok {
		return s, nil
	}

	data, err := schemaFS.ReadFile(path.Join("schemas", name))
	if err != nil {
		return nil, fmt.Errorf("unknown schema %q: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	s, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}

	compiled[name] = s
	return s, nil
}

// ValidateJSON decodes data and validates it against the named schema.
func ValidateJSON(name string, data []byte) error {
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("decode JSON: %w", err)
	}
	return Validate(name, instance)
}

// Validate validates an already decoded JSON value.
func Validate(name string, instance any) error {
	s, err := Schema(name)
	if err != nil {
		return err
	}
	if err := s.Validate(instance); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", name, err)
	}
	return nil
}
