package port

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listen starts a TCP listener on an OS-assigned loopback port and returns
// the port. The listener is closed when the test ends.
func listen(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err, "failed to start test listener")
	t.Cleanup(func() { _ = listener.Close() })

	tcpAddr, ok := listener.Addr().(*net.TCPAddr)
	require.True(t, ok)
	return tcpAddr.Port
}

// freePort returns a port that had no listener a moment ago.
func freePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())
	return port
}

// TestInUse_Listening verifies a live listener is reported as in use.
func TestInUse_Listening(t *testing.T) {
	port := listen(t)
	assert.True(t, NewProber().InUse(port), "port %d has a listener", port)
}

// TestInUse_Free verifies a closed port is reported as free.
func TestInUse_Free(t *testing.T) {
	port := freePort(t)
	assert.False(t, NewProber().InUse(port), "port %d has no listener", port)
}

// TestInUse_InvalidPort verifies out-of-range ports are never "in use".
func TestInUse_InvalidPort(t *testing.T) {
	p := NewProber()
	assert.False(t, p.InUse(0))
	assert.False(t, p.InUse(-1))
	assert.False(t, p.InUse(70000))
}

// TestInUse_Defaults verifies a zero-value Prober still works.
func TestInUse_Defaults(t *testing.T) {
	port := listen(t)
	assert.True(t, (&Prober{}).InUse(port))
}

func TestCheck(t *testing.T) {
	busy := listen(t)
	free := freePort(t)

	p := &Prober{Host: "127.0.0.1", Timeout: 500 * time.Millisecond}
	result := p.Check([]int{busy, free, busy})

	assert.Equal(t, map[int]bool{busy: true, free: false}, result)
}
