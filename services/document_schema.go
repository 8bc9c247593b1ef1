package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"checklistapi/models"
)

// documentSchema describes the persisted checklist document. Optional fields
// accept null because documents written by earlier tools store them that way.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["checklists"],
  "properties": {
    "checklists": {
      "type": "object",
      "additionalProperties": {"$ref": "#/definitions/checklist"}
    },
    "next_id": {"type": "integer", "minimum": 0}
  },
  "definitions": {
    "checklist": {
      "type": "object",
      "required": ["name"],
      "properties": {
        "id": {"type": "string"},
        "name": {"type": "string"},
        "categories": {"type": ["array", "null"], "items": {"$ref": "#/definitions/category"}},
        "isCloned": {"type": ["boolean", "null"]},
        "clonedFrom": {"type": ["string", "null"]},
        "userEmail": {"type": ["string", "null"]},
        "created_at": {"type": "string", "format": "date-time"},
        "updated_at": {"type": "string", "format": "date-time"}
      }
    },
    "category": {
      "type": "object",
      "required": ["id", "name"],
      "properties": {
        "id": {"type": "string"},
        "name": {"type": "string"},
        "items": {"type": ["array", "null"], "items": {"$ref": "#/definitions/item"}}
      }
    },
    "item": {
      "type": "object",
      "required": ["id", "name"],
      "properties": {
        "id": {"type": "string"},
        "name": {"type": "string"},
        "files": {"type": ["array", "null"], "items": {"type": "object"}}
      }
    }
  }
}`

// DocumentValidator checks raw document bytes before they are decoded.
type DocumentValidator struct {
	schema *jsonschema.Schema
}

// NewDocumentValidator compiles the embedded document schema.
func NewDocumentValidator() (*DocumentValidator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource("checklists.schema.json", strings.NewReader(documentSchema)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile("checklists.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &DocumentValidator{schema: schema}, nil
}

// Decode parses data, validates it against the schema and returns the
// normalized document.
func (v *DocumentValidator) Decode(data []byte) (*models.Document, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	if err := v.schema.Validate(raw); err != nil {
		return nil, schemaError(err)
	}

	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	if doc.Checklists == nil {
		doc.Checklists = map[string]models.Checklist{}
	}
	for id, c := range doc.Checklists {
		if c.ID == "" {
			c.ID = id
		}
		c.Normalize()
		doc.Checklists[id] = c
	}
	return &doc, nil
}

// schemaError reduces a validation error tree to its first leaf cause.
func schemaError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("validate document: %w", err)
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	location := ve.InstanceLocation
	if location == "" {
		location = "/"
	}
	return fmt.Errorf("document invalid at %s: %s", location, ve.Message)
}
