package port

import (
	"fmt"
)

// maxPort is the highest valid TCP port number (2^16 - 1).
const maxPort = 65535

// Checker reports whether a port is currently in use. *Prober satisfies it;
// tests substitute a fake.
type Checker interface {
	InUse(port int) bool
}

// Allocator hands out host ports for newly generated slots.
//
// A port is handed out only when it is neither reserved nor in use.
// Reservations cover ports declared by existing slots (which may be idle,
// so probing alone would miss them) and ports allocated earlier in the same
// run.
type Allocator struct {
	// checker probes the OS for live listeners.
	checker Checker

	// reserved tracks ports that must not be handed out.
	reserved map[int]bool
}

// NewAllocator creates an Allocator backed by checker.
func NewAllocator(checker Checker) *Allocator {
	return &Allocator{
		checker:  checker,
		reserved: make(map[int]bool),
	}
}

// Reserve marks ports as unavailable without probing them.
func (a *Allocator) Reserve(ports ...int) {
	for _, p := range ports {
		a.reserved[p] = true
	}
}

// Allocate returns the first port at or above start that is free, and
// reserves it so later calls in the same run skip it.
//
// The search is sequential, which keeps generated slots predictable: with
// slots on 3001 and 3002, the next one gets 3003 unless that port is busy.
func (a *Allocator) Allocate(start int) (int, error) {
	if start < 1 {
		start = 1
	}
	for port := start; port <= maxPort; port++ {
		if a.reserved[port] || a.checker.InUse(port) {
			continue
		}
		a.reserved[port] = true
		return port, nil
	}
	return 0, fmt.Errorf("no available port found in range %d-%d", start, maxPort)
}
