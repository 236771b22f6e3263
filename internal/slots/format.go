package slots

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Syntax is the file syntax of a slot configuration.
type Syntax string

const (
	// SyntaxYAML is used for slots.yaml / slots.yml.
	SyntaxYAML Syntax = "yaml"

	// SyntaxJSON covers plain JSON and JSON with comments (JSONC).
	SyntaxJSON Syntax = "json"

	// SyntaxTOML is used for slots.toml.
	SyntaxTOML Syntax = "toml"
)

// candidateFiles lists the configuration file names Read looks for, in
// priority order. The syntax follows from the extension.
var candidateFiles = []string{
	"slots.yaml",
	"slots.yml",
	"slots.json",
	"slots.config.json",
	"slots.config.jsonc",
	"slots.jsonc",
	"slots.toml",
}

// SyntaxFromPath infers the syntax from a file extension.
func SyntaxFromPath(path string) (Syntax, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return SyntaxYAML, nil
	case ".json", ".jsonc":
		return SyntaxJSON, nil
	case ".toml":
		return SyntaxTOML, nil
	default:
		return "", fmt.Errorf("unsupported slot config file %q (want .yaml, .json, .jsonc or .toml)", filepath.Base(path))
	}
}

// Format describes how a configuration is laid out on disk.
type Format struct {
	Syntax Syntax
	Shape  Shape
}

// FileName returns the default file name for the format.
func (f Format) FileName() string {
	switch f.Syntax {
	case SyntaxYAML:
		return "slots.yaml"
	case SyntaxTOML:
		return "slots.toml"
	default:
		return "slots.config.jsonc"
	}
}

// String renders the format as "syntax/shape".
func (f Format) String() string {
	shape := "table"
	if f.Shape != nil {
		shape = f.Shape.Name()
	}
	return fmt.Sprintf("%s/%s", f.Syntax, shape)
}

// ParseFormat maps a user-facing format name to a Format.
//
//	yaml  → slots.yaml, array shape keyed by "slot"
//	json  → slots.config.jsonc, table shape
//	jsonc → same as json
//	toml  → slots.toml, table shape
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "yaml", "yml":
		return Format{Syntax: SyntaxYAML, Shape: ArrayShape{IDKey: "slot"}}, nil
	case "json", "jsonc":
		return Format{Syntax: SyntaxJSON, Shape: TableShape{}}, nil
	case "toml":
		return Format{Syntax: SyntaxTOML, Shape: TableShape{}}, nil
	default:
		return Format{}, fmt.Errorf("invalid format %q (valid: yaml, json, toml)", name)
	}
}
