package slots

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// SchemaFileName is the JSON Schema companion written next to the slot
// configuration. Editors use it for completion and validation.
const SchemaFileName = "slots.schema.json"

// variablePattern is the allowed variable name syntax; it matches the
// placeholder names the template engine recognizes.
const variablePattern = `^[A-Z_][A-Z0-9_]*$`

// Schema returns the JSON Schema describing configuration files of the
// given shape.
func Schema(shape Shape) ([]byte, error) {
	scalar := map[string]any{"type": []string{"string", "number"}}
	variables := map[string]any{
		"type":                 "object",
		"patternProperties":    map[string]any{variablePattern: scalar},
		"additionalProperties": false,
	}

	var slots map[string]any
	switch s := shape.(type) {
	case ArrayShape:
		idKey := s.IDKey
		if idKey == "" {
			idKey = "slot"
		}
		entry := map[string]any{
			"type":                 "object",
			"required":             []string{idKey},
			"properties":           map[string]any{idKey: map[string]any{"type": []string{"integer", "string"}}},
			"patternProperties":    map[string]any{variablePattern: scalar},
			"additionalProperties": false,
		}
		slots = map[string]any{"type": "array", "minItems": 1, "items": entry}
	default:
		slots = map[string]any{
			"type":                 "object",
			"minProperties":        1,
			"additionalProperties": variables,
		}
	}

	schema := map[string]any{
		"$schema":  "https://json-schema.org/draft-07/schema#",
		"title":    "worktree-slots configuration",
		"type":     "object",
		"required": []string{keySlots},
		"properties": map[string]any{
			keySchema:        map[string]any{"type": "string"},
			keyCopyFromRoot:  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			keyAutoGrowSlots: map[string]any{"type": "boolean"},
			keySlots:         slots,
		},
		"additionalProperties": false,
	}

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// WriteSchema writes the schema companion into configDir.
func WriteSchema(configDir string, shape Shape) error {
	data, err := Schema(shape)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(configDir, SchemaFileName), data, 0644)
}
