package slots

import (
	"fmt"
	"regexp"

	"github.com/shinji-kodama/worktree-slots/internal/model"
)

var variableNameRe = regexp.MustCompile(variablePattern)

// ScaffoldOptions describes a fresh configuration created by `init`.
type ScaffoldOptions struct {
	// Count is the number of slots to declare.
	Count int

	// Format selects the file syntax and shape.
	Format Format

	// PortBases maps port variable names to a base port; slot i gets base+i.
	PortBases map[string]int

	// Static holds variables that have the same value in every slot.
	Static map[string]string

	// CopyFromRootRepo lists root env files for {{COPY:NAME}} lookups.
	CopyFromRootRepo []string

	// AutoGrow enables slot growth when every slot is bound.
	AutoGrow bool
}

// Scaffold builds a new configuration. Array-shaped files number their
// slots 1..N; table-shaped files name them slot-1..slot-N.
func Scaffold(opts ScaffoldOptions) (*SlotsConfig, error) {
	if opts.Count < 1 {
		return nil, fmt.Errorf("slot count must be at least 1, got %d", opts.Count)
	}
	for name, base := range opts.PortBases {
		if !variableNameRe.MatchString(name) {
			return nil, fmt.Errorf("invalid variable name %q (want UPPER_SNAKE_CASE)", name)
		}
		if base < 1 || base+opts.Count > 65535 {
			return nil, fmt.Errorf("port base %d for %s leaves the valid port range", base, name)
		}
	}
	for name := range opts.Static {
		if !variableNameRe.MatchString(name) {
			return nil, fmt.Errorf("invalid variable name %q (want UPPER_SNAKE_CASE)", name)
		}
	}

	format := opts.Format
	if format.Shape == nil {
		def, err := ParseFormat(string(format.Syntax))
		if err != nil {
			return nil, err
		}
		format = def
	}
	_, bare := format.Shape.(ArrayShape)

	cfg := &SlotsConfig{
		Format:           format,
		CopyFromRootRepo: opts.CopyFromRootRepo,
		AutoGrowSlots:    opts.AutoGrow,
	}
	for i := 1; i <= opts.Count; i++ {
		id := model.SlotID(fmt.Sprintf("%s%d", slotPrefix, i))
		if bare {
			id = model.SlotID(fmt.Sprint(i))
		}

		sc := SlotConfig{ID: id, Values: make(map[string]Value, len(opts.PortBases)+len(opts.Static))}
		for name, base := range opts.PortBases {
			sc.Values[name] = IntValue(base + i)
		}
		for name, v := range opts.Static {
			sc.Values[name] = StringValue(v)
		}
		cfg.Slots = append(cfg.Slots, sc)
	}
	return cfg, nil
}
