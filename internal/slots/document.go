package slots

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// field is one key/value pair of an orderedObject.
type field struct {
	Key   string
	Value any
}

// orderedObject is a mapping that keeps its key order when encoded as JSON
// or YAML. Go maps would be written in sorted order, which would move the
// slot id away from the top of each slot entry.
type orderedObject []field

// MarshalJSON writes the fields in order.
func (o orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML builds a mapping node with the fields in order.
func (o orderedObject) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, f := range o {
		key := &yaml.Node{}
		if err := key.Encode(f.Key); err != nil {
			return nil, err
		}
		val := &yaml.Node{}
		if err := val.Encode(f.Value); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, key, val)
	}
	return node, nil
}

// plain converts ordered values into maps and slices for encoders that
// have no ordering hooks (TOML sorts keys on its own).
func plain(v any) any {
	switch x := v.(type) {
	case orderedObject:
		m := make(map[string]any, len(x))
		for _, f := range x {
			m[f.Key] = plain(f.Value)
		}
		return m
	case []orderedObject:
		list := make([]map[string]any, 0, len(x))
		for _, o := range x {
			list = append(list, plain(o).(map[string]any))
		}
		return list
	default:
		return v
	}
}
