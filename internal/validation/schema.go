// Package validation checks outgoing document payloads against JSON schemas.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrSchemaInvalid reports a schema that cannot be loaded or compiled.
var ErrSchemaInvalid = errors.New("payload validation: schema invalid")

// ErrSchemaValidation reports a payload rejected by its schema.
var ErrSchemaValidation = errors.New("payload validation: schema validation failed")

// ValidationIssue is one failed keyword, located by JSON pointer into the
// payload.
type ValidationIssue struct {
	Location string
	Message  string
}

func (i ValidationIssue) String() string {
	pointer := "#" + strings.TrimPrefix(strings.TrimSpace(i.Location), "#")
	if i.Message == "" {
		return pointer
	}
	return pointer + ": " + i.Message
}

// PayloadValidationError is returned when a payload does not match the
// schema. It matches ErrSchemaValidation with errors.Is.
type PayloadValidationError struct {
	Issues []ValidationIssue
	Cause  error
}

func (e *PayloadValidationError) Error() string {
	switch {
	case len(e.Issues) > 0:
		var b strings.Builder
		for idx, issue := range e.Issues {
			if idx > 0 {
				b.WriteString("; ")
			}
			b.WriteString(issue.String())
		}
		return b.String()
	case e.Cause != nil:
		return e.Cause.Error()
	default:
		return ErrSchemaValidation.Error()
	}
}

func (e *PayloadValidationError) Unwrap() error { return ErrSchemaValidation }

// Issues lists the leaf failures carried by err.
func Issues(err error) []ValidationIssue {
	var (
		payloadErr *PayloadValidationError
		schemaErr  *jsonschema.ValidationError
	)
	switch {
	case err == nil:
		return nil
	case errors.As(err, &payloadErr):
		return payloadErr.Issues
	case errors.As(err, &schemaErr):
		return leafIssues(schemaErr, nil)
	default:
		return []ValidationIssue{{Message: err.Error()}}
	}
}

// Validator checks outgoing payloads against a compiled JSON schema.
type Validator struct {
	schema *jsonschema.Schema
}

// Compile normalises and compiles schema. A nil Validator is returned for an
// empty schema; its Validate accepts every payload.
func Compile(schema map[string]any) (*Validator, error) {
	normalized := NormalizeSchema(schema)
	if normalized == nil {
		return nil, nil
	}
	compiled, err := compileSchema(normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	return &Validator{schema: compiled}, nil
}

// LoadFile compiles the JSON schema stored at path.
func LoadFile(path string) (*Validator, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSchemaInvalid, path, err)
	}
	return Compile(schema)
}

// Validate checks payload as it will be sent on the wire.
func (v *Validator) Validate(payload map[string]any) error {
	if v == nil || v.schema == nil {
		return nil
	}
	instance, err := wireValue(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}
	if err := v.schema.Validate(instance); err != nil {
		return &PayloadValidationError{Issues: Issues(err), Cause: err}
	}
	return nil
}

// ValidateSchema ensures the schema can be compiled.
func ValidateSchema(schema map[string]any) error {
	_, err := Compile(schema)
	return err
}

// ValidatePayload validates payload against the provided schema.
func ValidatePayload(schema map[string]any, payload map[string]any) error {
	v, err := Compile(schema)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}
	return v.Validate(payload)
}

// wireValue re-decodes payload from its JSON encoding so typed values such
// as structs and json.Number validate the way the API receives them.
func wireValue(payload map[string]any) (any, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(encoded))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// NormalizeSchema returns schema unchanged when it is already a JSON schema.
// Otherwise it reads a Payload style field list,
//
//	{"fields": [{"name": "title", "type": "text", "required": true}, "content"]}
//
// and builds an object schema from it. Unknown properties are rejected
// unless "additionalProperties" is true. It returns nil when there is
// nothing to validate.
func NormalizeSchema(schema map[string]any) map[string]any {
	if len(schema) == 0 {
		return nil
	}
	for _, keyword := range jsonSchemaKeywords {
		if _, ok := schema[keyword]; ok {
			return schema
		}
	}
	entries, ok := schema["fields"].([]any)
	if !ok {
		return nil
	}

	properties := map[string]any{}
	required := []any{}
	for _, entry := range entries {
		field := fieldSpec(entry)
		name, _ := field["name"].(string)
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		properties[name] = fieldSchema(field)
		if flag, _ := field["required"].(bool); flag {
			required = append(required, name)
		}
	}
	if len(properties) == 0 {
		return nil
	}

	additional, _ := schema["additionalProperties"].(bool)
	normalized := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": additional,
	}
	if len(required) > 0 {
		normalized["required"] = required
	}
	return normalized
}

var jsonSchemaKeywords = []string{"$schema", "type", "properties", "oneOf", "anyOf", "allOf"}

// fieldTypes maps Payload field types, and plain JSON types, to the JSON type
// of their REST value. An empty entry accepts any value.
var fieldTypes = map[string]string{
	"text":         "string",
	"textarea":     "string",
	"email":        "string",
	"code":         "string",
	"date":         "string",
	"select":       "string",
	"radio":        "string",
	"number":       "number",
	"checkbox":     "boolean",
	"group":        "object",
	"array":        "array",
	"blocks":       "array",
	"richText":     "",
	"json":         "",
	"relationship": "",
	"upload":       "",
	"string":       "string",
	"integer":      "integer",
	"boolean":      "boolean",
	"object":       "object",
	"null":         "null",
}

func fieldSpec(entry any) map[string]any {
	switch typed := entry.(type) {
	case map[string]any:
		return typed
	case string:
		return map[string]any{"name": typed}
	default:
		return nil
	}
}

func fieldSchema(field map[string]any) map[string]any {
	if explicit, ok := field["schema"].(map[string]any); ok {
		return explicit
	}
	kind, _ := field["type"].(string)
	item := map[string]any{}
	if jsonType := fieldTypes[strings.TrimSpace(kind)]; jsonType != "" {
		item["type"] = jsonType
	}
	if hasMany, _ := field["hasMany"].(bool); hasMany {
		return map[string]any{"type": "array", "items": item}
	}
	return item
}

func compileSchema(schema map[string]any) (*jsonschema.Schema, error) {
	encoded, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	const resource = "payload.schema.json"
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(resource, bytes.NewReader(encoded)); err != nil {
		return nil, err
	}
	return compiler.Compile(resource)
}

// leafIssues appends the failures of the innermost causes of node.
func leafIssues(node *jsonschema.ValidationError, out []ValidationIssue) []ValidationIssue {
	if node == nil {
		return out
	}
	if len(node.Causes) == 0 {
		return append(out, ValidationIssue{
			Location: node.InstanceLocation,
			Message:  strings.TrimSpace(node.Message),
		})
	}
	for _, cause := range node.Causes {
		out = leafIssues(cause, out)
	}
	return out
}
