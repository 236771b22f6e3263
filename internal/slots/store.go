package slots

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/worktree-slots/internal/model"
)

// Top-level keys shared by every file shape.
const (
	keySlots         = "slots"
	keyCopyFromRoot  = "copyFromRootRepo"
	keyAutoGrowSlots = "autoGrowSlots"
	keySchema        = "$schema"
)

// FindFile locates the slot configuration file in configDir.
// It returns an error wrapping model.ErrNotFound when none exists.
func FindFile(configDir string) (string, Syntax, error) {
	for _, name := range candidateFiles {
		path := filepath.Join(configDir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			syntax, err := SyntaxFromPath(path)
			return path, syntax, err
		}
	}
	return "", "", fmt.Errorf("slot config in %s: %w (run `worktree-slots init` first)", configDir, model.ErrNotFound)
}

// Read loads and normalizes the slot configuration from configDir.
func Read(configDir string) (*SlotsConfig, error) {
	path, syntax, err := FindFile(configDir)
	if err != nil {
		return nil, err
	}
	return ReadFile(path, syntax)
}

// ReadFile loads a specific configuration file.
func ReadFile(path string, syntax Syntax) (*SlotsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("slot config %s: %w", path, model.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read slot config %s: %w", path, err)
	}

	cfg, err := Parse(data, syntax)
	if err != nil {
		return nil, fmt.Errorf("failed to parse slot config %s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes configuration data written in the given syntax.
// The shape is detected from the "slots" value.
func Parse(data []byte, syntax Syntax) (*SlotsConfig, error) {
	doc, err := decodeDocument(data, syntax)
	if err != nil {
		return nil, err
	}

	cfg := &SlotsConfig{Format: Format{Syntax: syntax}}

	if raw, ok := doc[keySlots]; ok && raw != nil {
		shape, err := detectShape(raw)
		if err != nil {
			return nil, err
		}
		slots, err := shape.Decode(raw)
		if err != nil {
			return nil, err
		}
		cfg.Slots = slots
		cfg.Format.Shape = shape
	} else {
		def, _ := ParseFormat(string(syntax))
		cfg.Format.Shape = def.Shape
	}

	if raw, ok := doc[keyCopyFromRoot]; ok && raw != nil {
		files, err := stringList(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", keyCopyFromRoot, err)
		}
		cfg.CopyFromRootRepo = files
	}

	if raw, ok := doc[keyAutoGrowSlots]; ok && raw != nil {
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("%s: must be true or false", keyAutoGrowSlots)
		}
		cfg.AutoGrowSlots = b
	}

	return cfg, nil
}

// decodeDocument turns file bytes into a generic top-level mapping.
func decodeDocument(data []byte, syntax Syntax) (map[string]any, error) {
	doc := map[string]any{}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}

	switch syntax {
	case SyntaxYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	case SyntaxJSON:
		// Strip comments and trailing commas before handing the bytes to
		// encoding/json. UseNumber keeps integers exact.
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	case SyntaxTOML:
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported syntax %q", syntax)
	}

	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// stringList accepts a list of names or a single name.
func stringList(raw any) ([]string, error) {
	switch list := raw.(type) {
	case string:
		return []string{list}, nil
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("must be a list of file names")
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("must be a list of file names")
	}
}

// Encode renders the configuration in its recorded format.
// Comments in the original file are not preserved.
func Encode(cfg *SlotsConfig) ([]byte, error) {
	format := cfg.Format
	if format.Syntax == "" {
		format.Syntax = SyntaxJSON
	}
	if format.Shape == nil {
		def, err := ParseFormat(string(format.Syntax))
		if err != nil {
			return nil, err
		}
		format.Shape = def.Shape
	}

	doc := orderedObject{}
	if format.Syntax == SyntaxJSON {
		doc = append(doc, field{Key: keySchema, Value: "./" + SchemaFileName})
	}
	if len(cfg.CopyFromRootRepo) > 0 {
		doc = append(doc, field{Key: keyCopyFromRoot, Value: cfg.CopyFromRootRepo})
	}
	if cfg.AutoGrowSlots {
		doc = append(doc, field{Key: keyAutoGrowSlots, Value: true})
	}
	doc = append(doc, field{Key: keySlots, Value: format.Shape.Encode(cfg.Slots)})

	var buf bytes.Buffer
	switch format.Syntax {
	case SyntaxYAML:
		fmt.Fprintf(&buf, "# yaml-language-server: $schema=./%s\n", SchemaFileName)
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	case SyntaxJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		buf.Write(data)
		buf.WriteByte('\n')
	case SyntaxTOML:
		if err := toml.NewEncoder(&buf).Encode(plain(doc)); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported syntax %q", format.Syntax)
	}
	return buf.Bytes(), nil
}

// Write stores the configuration. It overwrites cfg.Path when set, and
// otherwise creates the format's default file in configDir.
func Write(configDir string, cfg *SlotsConfig) error {
	data, err := Encode(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode slot config: %w", err)
	}

	path := cfg.Path
	if path == "" {
		path = filepath.Join(configDir, cfg.Format.FileName())
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write slot config %s: %w", path, err)
	}
	cfg.Path = path
	return nil
}
