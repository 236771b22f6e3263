package slots

import (
	"fmt"
	"sort"

	"github.com/shinji-kodama/worktree-slots/internal/model"
)

// Shape converts between the "slots" entry of a decoded document and the
// normalized []SlotConfig. Both implementations are interchangeable; the
// rest of the system only sees SlotConfig values.
type Shape interface {
	// Name identifies the shape ("array" or "table").
	Name() string

	// Decode normalizes the raw "slots" value.
	Decode(raw any) ([]SlotConfig, error)

	// Encode turns slots back into a document value for writing.
	Encode(slots []SlotConfig) any
}

// ArrayShape is a list of objects, each naming its slot under IDKey:
//
//	slots:
//	  - slot: 1
//	    WEB_PORT: 3001
type ArrayShape struct {
	// IDKey is "slot", "name" or "id".
	IDKey string
}

// Name implements Shape.
func (ArrayShape) Name() string { return "array" }

// Decode implements Shape.
func (a ArrayShape) Decode(raw any) ([]SlotConfig, error) {
	entries, err := objectList(raw)
	if err != nil {
		return nil, err
	}

	slots := make([]SlotConfig, 0, len(entries))
	for i, entry := range entries {
		idKey := a.IDKey
		if _, ok := entry[idKey]; !ok {
			idKey = detectIDKey(entry)
		}
		rawID, ok := entry[idKey]
		if !ok {
			return nil, fmt.Errorf("slots[%d]: missing \"slot\", \"name\" or \"id\" key", i)
		}
		id, err := valueOf(rawID)
		if err != nil {
			return nil, fmt.Errorf("slots[%d].%s: %w", i, idKey, err)
		}
		if id.String() == "" {
			return nil, fmt.Errorf("slots[%d].%s: empty slot id", i, idKey)
		}

		values := make(map[string]any, len(entry))
		for k, v := range entry {
			if k != idKey {
				values[k] = v
			}
		}
		sc, err := slotFromMap(model.SlotID(id.String()), values)
		if err != nil {
			return nil, err
		}
		slots = append(slots, sc)
	}
	return slots, nil
}

// Encode implements Shape.
func (a ArrayShape) Encode(slots []SlotConfig) any {
	idKey := a.IDKey
	if idKey == "" {
		idKey = "slot"
	}

	list := make([]orderedObject, 0, len(slots))
	for _, s := range slots {
		obj := orderedObject{{Key: idKey, Value: idValue(s.ID)}}
		obj = append(obj, valueFields(s)...)
		list = append(list, obj)
	}
	return list
}

// TableShape maps slot ids to their variables:
//
//	{"slots": {"slot-1": {"WEB_PORT": 3001}}}
type TableShape struct{}

// Name implements Shape.
func (TableShape) Name() string { return "table" }

// Decode implements Shape. Slots are returned ordered by slot number.
func (TableShape) Decode(raw any) ([]SlotConfig, error) {
	table, ok := asObject(raw)
	if !ok {
		return nil, fmt.Errorf("\"slots\" must be a table of slot id → variables")
	}

	ids := make([]model.SlotID, 0, len(table))
	for k := range table {
		ids = append(ids, model.SlotID(k))
	}
	sort.Slice(ids, func(i, j int) bool { return compareIDs(ids[i], ids[j]) })

	slots := make([]SlotConfig, 0, len(ids))
	for _, id := range ids {
		vars, ok := asObject(table[string(id)])
		if !ok {
			return nil, fmt.Errorf("slots.%s: must be a table of variables", id)
		}
		sc, err := slotFromMap(id, vars)
		if err != nil {
			return nil, err
		}
		slots = append(slots, sc)
	}
	return slots, nil
}

// Encode implements Shape.
func (TableShape) Encode(slots []SlotConfig) any {
	table := make(orderedObject, 0, len(slots))
	for _, s := range slots {
		table = append(table, field{Key: string(s.ID), Value: valueFields(s)})
	}
	return table
}

// detectShape picks the shape matching a raw "slots" value.
func detectShape(raw any) (Shape, error) {
	if entries, err := objectList(raw); err == nil {
		key := "slot"
		if len(entries) > 0 {
			key = detectIDKey(entries[0])
		}
		return ArrayShape{IDKey: key}, nil
	}
	if _, ok := asObject(raw); ok {
		return TableShape{}, nil
	}
	return nil, fmt.Errorf("\"slots\" must be a list of slot objects or a table keyed by slot id, got %T", raw)
}

// idKeys are the accepted id keys of array entries, in priority order.
var idKeys = []string{"slot", "name", "id"}

func detectIDKey(entry map[string]any) string {
	for _, key := range idKeys {
		if _, ok := entry[key]; ok {
			return key
		}
	}
	return "slot"
}

func slotFromMap(id model.SlotID, vars map[string]any) (SlotConfig, error) {
	sc := SlotConfig{ID: id, Values: make(map[string]Value, len(vars))}
	for name, raw := range vars {
		v, err := valueOf(raw)
		if err != nil {
			return SlotConfig{}, fmt.Errorf("slot %s variable %s: %w", id, name, err)
		}
		sc.Values[name] = v
	}
	return sc, nil
}

// idValue writes numeric ids as numbers so `slot: 1` stays `slot: 1`.
func idValue(id model.SlotID) any {
	if id.IsNumeric() {
		if n, ok := id.Number(); ok {
			return int64(n)
		}
	}
	return string(id)
}

func valueFields(s SlotConfig) orderedObject {
	obj := make(orderedObject, 0, len(s.Values))
	for _, name := range s.Names() {
		obj = append(obj, field{Key: name, Value: s.Values[name].native()})
	}
	return obj
}

// asObject accepts the map types produced by the three decoders.
func asObject(raw any) (map[string]any, bool) {
	switch m := raw.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[fmt.Sprint(k)] = v
		}
		return out, true
	default:
		return nil, false
	}
}

// objectList accepts []any of objects and TOML's []map[string]any.
func objectList(raw any) ([]map[string]any, error) {
	switch list := raw.(type) {
	case []map[string]any:
		return list, nil
	case []any:
		out := make([]map[string]any, 0, len(list))
		for i, item := range list {
			obj, ok := asObject(item)
			if !ok {
				return nil, fmt.Errorf("slots[%d]: must be an object", i)
			}
			out = append(out, obj)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("not a list")
	}
}
