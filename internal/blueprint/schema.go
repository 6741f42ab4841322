package blueprint

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/keremk/tutopanda/internal/errkind"
)

// documentSchemaJSON constrains a decoded Document's shape: required
// meta fields, and a non-empty "name" on every declared node regardless
// of which TOML/YAML encoding produced it. It cannot express the
// dimension-symbol cross-references validateEndpointSymbols checks,
// since those depend on how nodes resolve against each other rather
// than on the document's shape alone.
const documentSchemaJSON = `{
  "type": "object",
  "required": ["meta"],
  "properties": {
    "meta": {
      "type": "object",
      "required": ["id", "name"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "name": {"type": "string", "minLength": 1}
      }
    },
    "inputs": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {"name": {"type": "string", "minLength": 1}}
      }
    },
    "artefacts": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {"name": {"type": "string", "minLength": 1}}
      }
    },
    "producers": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {"name": {"type": "string", "minLength": 1}}
      }
    },
    "subBlueprints": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {"name": {"type": "string", "minLength": 1}}
      }
    },
    "edges": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["from", "to"],
        "properties": {
          "from": {"type": "string", "minLength": 1},
          "to": {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`

var documentSchema = compileDocumentSchema()

func compileDocumentSchema() *jsonschema.Schema {
	var schemaDoc any
	if err := json.Unmarshal([]byte(documentSchemaJSON), &schemaDoc); err != nil {
		panic(fmt.Sprintf("blueprint: invalid embedded document schema: %v", err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("document.json", schemaDoc); err != nil {
		panic(fmt.Sprintf("blueprint: add document schema resource: %v", err))
	}
	schema, err := c.Compile("document.json")
	if err != nil {
		panic(fmt.Sprintf("blueprint: compile document schema: %v", err))
	}
	return schema
}

// validateDocumentShape structurally validates doc against
// documentSchema before the dimension-symbol checks in validate.go run.
func validateDocumentShape(path string, doc Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return errkind.Wrap(errkind.UserInput, err, "encode blueprint %s for schema validation", path)
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return errkind.Wrap(errkind.UserInput, err, "decode blueprint %s for schema validation", path)
	}
	if err := documentSchema.Validate(decoded); err != nil {
		return errkind.Wrap(errkind.UserInput, err, "blueprint %s failed schema validation", path)
	}
	return nil
}
