package slots

import (
	"fmt"
	"regexp"
	"strconv"
)

// PortAllocator hands out host ports for generated slots. It is satisfied
// by port.Allocator.
type PortAllocator interface {
	// Reserve marks ports as taken without probing them.
	Reserve(ports ...int)

	// Allocate returns the first free, unreserved port at or above start
	// and reserves it.
	Allocate(start int) (int, error)
}

// numberRe matches whole decimal numbers inside string values, used to
// carry port changes into values such as DATABASE_URL.
var numberRe = regexp.MustCompile(`\b\d+\b`)

// Grow appends a new slot derived from the last declared slot and returns it.
//
// Port variables get the lowest port above every value the same variable
// has in any slot that is neither declared by another slot nor currently in
// use. Other variables are copied from the last slot, with occurrences of
// its port numbers rewritten to the new ports:
//
//	slot-2: WEB_PORT=3002 DATABASE_URL=postgres://localhost:5402/app DB_PORT=5402
//	slot-3: WEB_PORT=3003 DATABASE_URL=postgres://localhost:5403/app DB_PORT=5403
func Grow(cfg *SlotsConfig, alloc PortAllocator) (*SlotConfig, error) {
	if len(cfg.Slots) == 0 {
		return nil, fmt.Errorf("cannot grow a slot configuration without slots")
	}

	last := cfg.Slots[len(cfg.Slots)-1]

	// Every port any slot declares is off limits, bound or not.
	for _, s := range cfg.Slots {
		for _, p := range s.Ports() {
			alloc.Reserve(p.Port)
		}
	}

	next := SlotConfig{
		ID:     NextSlotName(cfg),
		Values: make(map[string]Value, len(last.Values)),
	}

	renumbered := make(map[string]string)
	for _, p := range last.Ports() {
		highest := p.Port
		for _, s := range cfg.Slots {
			if v, ok := s.Values[p.Name]; ok {
				if n, ok := v.Int(); ok && n > highest {
					highest = n
				}
			}
		}

		port, err := alloc.Allocate(highest + 1)
		if err != nil {
			return nil, fmt.Errorf("slot %s variable %s: %w", next.ID, p.Name, err)
		}
		next.Values[p.Name] = IntValue(port)
		renumbered[strconv.Itoa(p.Port)] = strconv.Itoa(port)
	}

	for name, v := range last.Values {
		if _, done := next.Values[name]; done {
			continue
		}
		if v.IsNumber() || len(renumbered) == 0 {
			next.Values[name] = v
			continue
		}
		next.Values[name] = StringValue(numberRe.ReplaceAllStringFunc(v.String(), func(s string) string {
			if repl, ok := renumbered[s]; ok {
				return repl
			}
			return s
		}))
	}

	cfg.Slots = append(cfg.Slots, next)
	return &cfg.Slots[len(cfg.Slots)-1], nil
}
