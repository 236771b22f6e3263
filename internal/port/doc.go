// Package port implements port probing and port allocation for slots.
//
// The Prober answers "is something listening on this port?" by attempting
// a TCP connection with a bounded timeout. A successful connection means
// the port is in use. The check is informational: `create` reports busy
// ports as warnings and never refuses to run because of them.
//
// The Allocator hands out ports for slots that are generated on demand. It
// combines probing with a reservation set so that a new slot never reuses a
// port another slot already declares, even when that slot is idle.
package port
