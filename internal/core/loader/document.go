package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Document is the initial state of a world. JSON documents are accepted too,
// since every JSON document is valid YAML.
type Document struct {
	Rows              int          `yaml:"rows" json:"rows"`
	Cols              int          `yaml:"cols" json:"cols"`
	DefaultBackground string       `yaml:"default_background" json:"default_background,omitempty"`
	Background        [][]string   `yaml:"background" json:"background,omitempty"`
	Entities          []EntitySpec `yaml:"entities" json:"entities"`
}

// EntitySpec places one entity. Which parameters apply depends on Kind.
type EntitySpec struct {
	Kind string `yaml:"kind" json:"kind"`
	ID   string `yaml:"id" json:"id"`
	Col  int    `yaml:"col" json:"col"`
	Row  int    `yaml:"row" json:"row"`

	ActionPeriod    float64 `yaml:"action_period,omitempty" json:"action_period,omitempty"`
	AnimationPeriod float64 `yaml:"animation_period,omitempty" json:"animation_period,omitempty"`
	ResourceLimit   int     `yaml:"resource_limit,omitempty" json:"resource_limit,omitempty"`
	Health          int     `yaml:"health,omitempty" json:"health,omitempty"`
}

const documentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["rows", "cols"],
  "properties": {
    "rows": {"type": "integer", "minimum": 1},
    "cols": {"type": "integer", "minimum": 1},
    "default_background": {"type": "string"},
    "background": {
      "type": "array",
      "items": {"type": "array", "items": {"type": "string"}}
    },
    "entities": {
      "type": "array",
      "items": {"$ref": "#/$defs/entity"}
    }
  },
  "$defs": {
    "entity": {
      "type": "object",
      "required": ["kind", "id", "col", "row"],
      "properties": {
        "kind": {"type": "string", "minLength": 1},
        "id": {"type": "string", "minLength": 1},
        "col": {"type": "integer"},
        "row": {"type": "integer"},
        "action_period": {"type": "number", "exclusiveMinimum": 0},
        "animation_period": {"type": "number", "exclusiveMinimum": 0},
        "resource_limit": {"type": "integer", "minimum": 1},
        "health": {"type": "integer"}
      },
      "allOf": [
        {
          "if": {"properties": {"kind": {"enum": ["worker", "worker_full", "tree", "fairy"]}}},
          "then": {"required": ["action_period", "animation_period"]}
        },
        {
          "if": {"properties": {"kind": {"enum": ["worker", "worker_full"]}}},
          "then": {"required": ["resource_limit"]}
        },
        {
          "if": {"properties": {"kind": {"const": "tree"}}},
          "then": {"required": ["health"]}
        },
        {
          "if": {"properties": {"kind": {"const": "obstacle"}}},
          "then": {"required": ["animation_period"]}
        }
      ]
    }
  }
}`

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.CompileString("world-document.schema.json", documentSchema)
})

// Decode validates r against the document schema and decodes it.
func Decode(r io.Reader) (*Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read world document: %w", err)
	}

	var tree any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if err := validate(tree); err != nil {
		return nil, err
	}

	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return &doc, nil
}

func DecodeFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// validate runs the schema over the JSON rendering of a decoded YAML tree.
func validate(tree any) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile document schema: %w", err)
	}

	b, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return nil
}
