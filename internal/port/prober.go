package port

import (
	"net"
	"strconv"
	"time"
)

// DefaultTimeout bounds each probe so a filtered port cannot hang a command.
const DefaultTimeout = time.Second

// defaultHost is the address probed. Services started for a slot listen on
// the loopback interface.
const defaultHost = "127.0.0.1"

// Prober checks whether TCP ports are in use on the local machine.
//
// It dials instead of binding: a successful connection proves a listener
// exists, while a bind attempt can succeed on one interface even though a
// service is already listening on another.
type Prober struct {
	// Host is the address to connect to.
	Host string

	// Timeout bounds each connection attempt. A timeout counts as "free".
	Timeout time.Duration
}

// NewProber creates a Prober for 127.0.0.1 with the default timeout.
func NewProber() *Prober {
	return &Prober{Host: defaultHost, Timeout: DefaultTimeout}
}

// InUse reports whether something accepts connections on port.
// Refused connections, timeouts and invalid ports all count as not in use.
func (p *Prober) InUse(port int) bool {
	if port < 1 || port > maxPort {
		return false
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	host := p.Host
	if host == "" {
		host = defaultHost
	}

	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), timeout)
	if err != nil {
		return false
	}
	// Close immediately; we only needed to know that the handshake worked.
	_ = conn.Close()
	return true
}

// Check probes every port and returns the in-use state per port.
func (p *Prober) Check(ports []int) map[int]bool {
	result := make(map[int]bool, len(ports))
	for _, port := range ports {
		if _, done := result[port]; done {
			continue
		}
		result[port] = p.InUse(port)
	}
	return result
}
