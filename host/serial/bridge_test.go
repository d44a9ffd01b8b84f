package serial

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memPort is an in-memory Port. Reads time out with io.EOF like a native
// port with a read timeout.
type memPort struct {
	mu       sync.Mutex
	written  bytes.Buffer
	incoming chan []byte
	flushes  int
}

func newMemPort() *memPort {
	return &memPort{incoming: make(chan []byte, 8)}
}

func (p *memPort) Read(b []byte) (int, error) {
	select {
	case data := <-p.incoming:
		return copy(b, data), nil
	case <-time.After(5 * time.Millisecond):
		return 0, io.EOF
	}
}

func (p *memPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.Write(b)
}

func (p *memPort) Close() error { return nil }

func (p *memPort) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flushes++
	return nil
}

func (p *memPort) sent() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.String()
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestBridgeForwardsLines(t *testing.T) {
	port := newMemPort()
	var out syncBuffer
	bridge := NewBridge(port, &out, nil)

	in := strings.NewReader("1234\n~code 7331\n~flush\n")
	require.NoError(t, bridge.Run(context.Background(), in))

	assert.Equal(t, "1234\r7331\r", port.sent())
	assert.Equal(t, 1, port.flushes)
}

func TestBridgeQuitStopsBeforeRest(t *testing.T) {
	port := newMemPort()
	var out syncBuffer
	bridge := NewBridge(port, &out, nil)

	in := strings.NewReader("~quit\n1234\n")
	require.NoError(t, bridge.Run(context.Background(), in))

	assert.Empty(t, port.sent())
}

func TestBridgeRejectsBadCodes(t *testing.T) {
	port := newMemPort()
	var out syncBuffer
	bridge := NewBridge(port, &out, nil)

	in := strings.NewReader("~code 70000\n~code\n~bogus\n~code \"unterminated\n")
	require.NoError(t, bridge.Run(context.Background(), in))

	assert.Empty(t, port.sent())
	assert.Contains(t, out.String(), `invalid code "70000"`)
	assert.Contains(t, out.String(), "usage: ~code")
	assert.Contains(t, out.String(), `unknown bridge command "bogus"`)
	assert.Contains(t, out.String(), "bad command")
}

func TestBridgeRelaysConsoleOutput(t *testing.T) {
	port := newMemPort()
	var out syncBuffer
	bridge := NewBridge(port, &out, nil)

	port.incoming <- []byte("\r\nsession started for root\r\nroot@lock> ")

	ctx, cancel := context.WithCancel(context.Background())
	in, inWriter := io.Pipe()
	defer inWriter.Close()

	done := make(chan error, 1)
	go func() { done <- bridge.Run(ctx, in) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "root@lock> ")
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("bridge did not stop after cancel")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyACM0")
	assert.Equal(t, "/dev/ttyACM0", cfg.Device)
	assert.Equal(t, 115200, cfg.Baud)
	assert.Equal(t, 100, cfg.ReadTimeout)

}

func TestOpenErrors(t *testing.T) {
	_, err := Open(nil)
	assert.EqualError(t, err, "no console configuration")

	_, err = Open(&Config{})
	assert.EqualError(t, err, "no serial device configured")

	missing := DefaultConfig(filepath.Join(t.TempDir(), "ttyACM9"))
	_, err = Open(missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening console "+missing.Device)
}
