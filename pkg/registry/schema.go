// pkg/registry/schema.go
package registry

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// routeTableSchema validates the shape of a parsed route table before it is
// trusted. Content rules (route targets existing, etc.) are the resolver's
// concern, not the schema's.
const routeTableSchema = `{
  "type": "object",
  "properties": {
    "keywords": {
      "type": "object",
      "additionalProperties": {
        "type": "array",
        "items": {"type": "string"}
      }
    },
    "routes": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "properties": {
          "handler": {"type": "string"},
          "min_confidence": {"type": "number", "minimum": 0, "maximum": 1},
          "context": {"type": "array", "items": {"type": "string"}},
          "tools": {"type": "array", "items": {"type": "string"}}
        },
        "required": ["handler"]
      }
    },
    "workflows": {
      "type": "object",
      "additionalProperties": {
        "type": "array",
        "items": {"type": "string"}
      }
    },
    "triggers": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string"},
          "phrases": {"type": "array", "items": {"type": "string"}}
        },
        "required": ["name", "phrases"]
      }
    },
    "bulk_keywords": {"type": "array", "items": {"type": "string"}},
    "bulk_name": {"type": "string"},
    "skips": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "intent": {"type": "string"},
          "resource": {"type": "string"}
        },
        "required": ["intent", "resource"]
      }
    }
  }
}`

// validateTable checks a decoded route table document against the schema.
func validateTable(document map[string]interface{}) error {
	schemaLoader := gojsonschema.NewStringLoader(routeTableSchema)
	documentLoader := gojsonschema.NewGoLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("route table validation failed: %v", errs)
	}

	return nil
}
