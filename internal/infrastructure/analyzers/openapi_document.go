package analyzers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const openAPIDocumentSchemaURL = "mem://seca-traffic/openapi-document.json"

// openAPIDocumentSchema accepts Swagger 2 and OpenAPI 3 documents at the
// level of their required top-level members.
const openAPIDocumentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["info", "paths"],
  "properties": {
    "openapi": {"type": "string", "pattern": "^3\\."},
    "swagger": {"type": "string", "pattern": "^2\\."},
    "info": {
      "type": "object",
      "required": ["title", "version"]
    },
    "paths": {"type": "object"}
  },
  "oneOf": [
    {"required": ["openapi"]},
    {"required": ["swagger"]}
  ]
}`

type documentValidator struct {
	schema *jsonschema.Schema
}

func newDocumentValidator() (*documentValidator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(openAPIDocumentSchemaURL, strings.NewReader(openAPIDocumentSchema)); err != nil {
		return nil, fmt.Errorf("load openapi document schema: %w", err)
	}
	schema, err := c.Compile(openAPIDocumentSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile openapi document schema: %w", err)
	}
	return &documentValidator{schema: schema}, nil
}

// validate decodes body as JSON, or YAML when it is not JSON, and checks it
// against the document schema.
func (v *documentValidator) validate(body []byte) error {
	doc, err := decodeDocument(body)
	if err != nil {
		return err
	}
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("not an OpenAPI document: %v", err)
	}
	return nil
}

func decodeDocument(body []byte) (any, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	if trimmed[0] == '{' {
		var doc any
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("invalid JSON document: %v", err)
		}
		return doc, nil
	}
	var raw any
	if err := yaml.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("invalid YAML document: %v", err)
	}
	return normalizeYAML(raw), nil
}

// normalizeYAML converts yaml.v3 values into the JSON-shaped values the
// schema validator expects.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeYAML(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeYAML(val)
		}
		return out
	case int:
		return json.Number(fmt.Sprint(t))
	case float64:
		return json.Number(fmt.Sprint(t))
	case time.Time:
		return t.Format(time.RFC3339)
	}
	return v
}
