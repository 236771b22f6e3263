package slots

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shinji-kodama/worktree-slots/internal/model"
)

// slotPrefix is prepended to generated slot numbers unless every existing
// slot uses bare numbers.
const slotPrefix = "slot-"

// SlotConfig holds the declared variables of one slot.
type SlotConfig struct {
	// ID joins the slot configuration with its registry assignment.
	ID model.SlotID

	// Values maps variable names (e.g. WEB_PORT) to their values.
	Values map[string]Value
}

// Lookup returns the value of a variable.
func (s *SlotConfig) Lookup(name string) (Value, bool) {
	v, ok := s.Values[name]
	return v, ok
}

// Names returns the slot's variable names in sorted order.
func (s *SlotConfig) Names() []string {
	names := make([]string, 0, len(s.Values))
	for name := range s.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PortVar is a slot variable that designates a TCP port.
type PortVar struct {
	Name string `json:"name"`
	Port int    `json:"port"`
}

// IsPortVariable reports whether a variable designates a port: its name
// contains "port" in any case and its value is an integral number.
// Strings such as "3001" are not ports; only numeric declarations count.
func IsPortVariable(name string, v Value) bool {
	if !strings.Contains(strings.ToLower(name), "port") {
		return false
	}
	_, ok := v.Int()
	return ok
}

// Ports returns the slot's port variables sorted by name.
func (s *SlotConfig) Ports() []PortVar {
	var ports []PortVar
	for _, name := range s.Names() {
		v := s.Values[name]
		if IsPortVariable(name, v) {
			n, _ := v.Int()
			ports = append(ports, PortVar{Name: name, Port: n})
		}
	}
	return ports
}

// SlotsConfig is the normalized slot configuration of a repository.
type SlotsConfig struct {
	// Slots lists the declared slots in file order (table-shaped files are
	// ordered by slot number).
	Slots []SlotConfig

	// CopyFromRootRepo names the env files in the main checkout that
	// {{COPY:NAME}} placeholders read from. Empty means "every .env* file".
	CopyFromRootRepo []string

	// AutoGrowSlots lets `create` add a slot when every slot is bound.
	AutoGrowSlots bool

	// Format records how the file was written so Write can keep it.
	Format Format

	// Path is the file the configuration was read from, if any.
	Path string
}

// Get returns the slot configuration for id, or nil.
func (c *SlotsConfig) Get(id model.SlotID) *SlotConfig {
	for i := range c.Slots {
		if c.Slots[i].ID == id {
			return &c.Slots[i]
		}
	}
	return nil
}

// IDs returns the slot identifiers in declaration order.
func (c *SlotsConfig) IDs() []model.SlotID {
	ids := make([]model.SlotID, 0, len(c.Slots))
	for _, s := range c.Slots {
		ids = append(ids, s.ID)
	}
	return ids
}

// VariableNames returns the variable names of the first slot, which act as
// the reference key set for every other slot.
func (c *SlotsConfig) VariableNames() []string {
	if len(c.Slots) == 0 {
		return nil
	}
	return c.Slots[0].Names()
}

// Validate checks the configuration and returns every problem found.
// It does not stop at the first problem so users can fix a file in one go.
func Validate(c *SlotsConfig) []string {
	if len(c.Slots) == 0 {
		return []string{"No slots defined"}
	}

	var problems []string

	seen := make(map[model.SlotID]bool, len(c.Slots))
	for _, s := range c.Slots {
		if seen[s.ID] {
			problems = append(problems, fmt.Sprintf("Duplicate slot id: %s", s.ID))
		}
		seen[s.ID] = true
	}

	names := c.VariableNames()
	for _, s := range c.Slots {
		for _, name := range names {
			if _, ok := s.Values[name]; !ok {
				problems = append(problems, fmt.Sprintf("Slot %s missing variable: %s", s.ID, name))
			}
		}
	}

	return problems
}

// NextSlotName returns the identifier for a new slot: the lowest positive
// number not used by any existing "N" or "slot-N" identifier. Gaps are
// filled first, so {slot-1, slot-3} yields slot-2.
//
// The number is written bare when every existing identifier is a bare
// number, and with the "slot-" prefix otherwise.
func NextSlotName(c *SlotsConfig) model.SlotID {
	used := make(map[int]bool, len(c.Slots))
	bare := len(c.Slots) > 0
	for _, s := range c.Slots {
		if n, ok := s.ID.Number(); ok {
			used[n] = true
		}
		if !s.ID.IsNumeric() {
			bare = false
		}
	}

	n := 1
	for used[n] {
		n++
	}

	if bare {
		return model.SlotID(fmt.Sprint(n))
	}
	return model.SlotID(fmt.Sprintf("%s%d", slotPrefix, n))
}

// compareIDs orders slot identifiers by their number when both have one,
// falling back to text order.
func compareIDs(a, b model.SlotID) bool {
	na, okA := a.Number()
	nb, okB := b.Number()
	switch {
	case okA && okB && na != nb:
		return na < nb
	case okA != okB:
		return okA
	default:
		return a < b
	}
}
