package sim

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotlock/core"
)

// syncBuffer is a bytes.Buffer safe for the loop and the test to share
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func newTestBoard(t *testing.T, mutate func(*Options)) (*Board, *syncBuffer) {
	t.Helper()
	out := &syncBuffer{}
	opts := Options{
		Config:     core.DefaultConfig(),
		StoredCode: 7331,
		Console:    out,
	}
	if mutate != nil {
		mutate(&opts)
	}
	b, err := NewBoard(opts)
	require.NoError(t, err)
	return b, out
}

func exec(t *testing.T, b *Board, line string) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, b.Exec(line, &out), line)
	return out.String()
}

func TestNewBoardRejectsBadConfig(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.PrivilegeMask = 0

	_, err := NewBoard(Options{Config: cfg})
	assert.ErrorIs(t, err, core.ErrEmptyPrivilegeMask)
}

func TestBoardSetup(t *testing.T) {
	b, _ := newTestBoard(t, nil)
	assert.Equal(t, time.Second, b.Period())
	assert.Equal(t, uint16(49911), b.Controller().Reload())

	require.NoError(t, b.Step())

	assert.True(t, b.LCD.Initialized())
	visible, blink := b.LCD.Cursor()
	assert.False(t, visible)
	assert.False(t, blink)
	assert.Equal(t, uint8(0xFF), b.Output.Direction())
	assert.Equal(t, uint8(0x00), b.Input.Direction())
	assert.Equal(t, uint16(49911), b.Timer.Counter())
}

func TestBoardNoCheckBeforeFirstPeriod(t *testing.T) {
	b, _ := newTestBoard(t, nil)

	assert.Equal(t, "0 overflows\n", exec(t, b, "run 500ms"))
	st := b.Status()
	assert.Equal(t, core.LockUnknown, st.State)
	assert.Empty(t, st.Display)
	assert.Zero(t, st.Applied)
}

func TestBoardOpensAndCloses(t *testing.T) {
	b, _ := newTestBoard(t, nil)

	exec(t, b, "code 7331")
	assert.Equal(t, "1 overflows\n", exec(t, b, "run 1s"))

	st := b.Status()
	assert.Equal(t, core.LockOpen, st.State)
	assert.Equal(t, core.OpenMessage, st.Display)
	assert.Equal(t, uint8(0x80), st.Output)

	exec(t, b, "code 1234")
	exec(t, b, "run 1s")

	st = b.Status()
	assert.Equal(t, core.LockClosed, st.State)
	assert.Equal(t, core.ClosedMessage, st.Display)
	assert.Equal(t, uint8(0x00), st.Output)
	assert.Equal(t, uint32(2), st.Applied)
}

func TestBoardStoreChangesReference(t *testing.T) {
	b, _ := newTestBoard(t, nil)

	exec(t, b, "code 42")
	exec(t, b, "store 0x2A")
	exec(t, b, "run 1s")
	assert.Equal(t, core.LockOpen, b.Status().State)
}

func TestBoardEveryPeriodReapplies(t *testing.T) {
	b, _ := newTestBoard(t, nil)

	assert.Equal(t, "5 overflows\n", exec(t, b, "run 5s"))
	st := b.Status()
	assert.Equal(t, uint32(5), st.Applied)
	assert.Equal(t, uint32(5), st.Overflows)

	clears, writes := b.LCD.Counts()
	assert.Equal(t, 5, clears)
	assert.Equal(t, 5, writes)
}

func TestBoardTicksCoalesce(t *testing.T) {
	b, _ := newTestBoard(t, nil)
	require.NoError(t, b.Step())

	exec(t, b, "tick 3")

	st := b.Status()
	assert.Equal(t, uint32(3), st.Overflows)
	assert.Equal(t, uint32(1), st.Applied)
	assert.Equal(t, core.LockClosed, st.State)
}

func TestBoardSessions(t *testing.T) {
	b, out := newTestBoard(t, nil)

	exec(t, b, "pins 0x6C")
	exec(t, b, "debug on")

	st := b.Status()
	require.True(t, st.Session)
	assert.Equal(t, core.PrivilegeRoot, st.Privilege)
	assert.Contains(t, out.String(), "session started for root\r\nroot@lock> ")

	// Still set: no new session
	exec(t, b, "step 3")
	assert.Equal(t, uint32(1), b.Status().Sessions)

	exec(t, b, "debug off")
	exec(t, b, "pins 0x93")
	exec(t, b, "debug on")

	st = b.Status()
	assert.Equal(t, core.PrivilegeNormal, st.Privilege)
	assert.Equal(t, uint32(2), st.Sessions)
	assert.Contains(t, out.String(), "user@lock> ")
}

func TestBoardLevelGate(t *testing.T) {
	b, _ := newTestBoard(t, func(o *Options) {
		o.Config.GateMode = core.GateLevel
		o.Host = "slot7"
	})

	exec(t, b, "debug on")
	exec(t, b, "step 2")
	assert.Equal(t, uint32(3), b.Status().Sessions)
	assert.Equal(t, "user@slot7> ", b.Shell.Prompt())
}

func TestBoardStatusAndEvents(t *testing.T) {
	b, _ := newTestBoard(t, nil)
	exec(t, b, "code 7331")
	exec(t, b, "run 1s")

	status := exec(t, b, "status")
	assert.Contains(t, status, "lock:      open")
	assert.Contains(t, status, `display:   "Slot open"`)
	assert.Contains(t, status, "codes:     current=7331 stored=7331")
	assert.Contains(t, status, "output:    0x80")
	assert.Contains(t, status, "session:   none (0 started)")

	events := exec(t, b, "events")
	lines := strings.Split(strings.TrimSpace(events), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "[EVENTS] #1 SETUP overflows=0", lines[1])
	assert.Equal(t, "[EVENTS] #2 LOCK open overflows=1", lines[2])

	assert.Contains(t, exec(t, b, "help"), "pins MASK")
	assert.Empty(t, exec(t, b, "   "))
}

func TestBoardCommandErrors(t *testing.T) {
	b, _ := newTestBoard(t, nil)

	tests := []struct {
		line   string
		errMsg string
	}{
		{"code", "usage: code N"},
		{"code 70000", "invalid code"},
		{"store abc", "invalid code"},
		{"debug maybe", "expected on or off"},
		{"pins 0x100", "invalid mask"},
		{"tick 0", "invalid count"},
		{"run soon", "run:"},
		{"open sesame", "unknown command"},
		{`code "7331`, "parsing command"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			err := b.Exec(tt.line, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	assert.ErrorIs(t, b.Exec("quit", &bytes.Buffer{}), ErrQuit)
}

func TestBoardRun(t *testing.T) {
	b, _ := newTestBoard(t, func(o *Options) { o.Speed = 50 })
	exec(t, b, "code 7331")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	require.Eventually(t, func() bool {
		return b.Status().State == core.LockOpen
	}, 5*time.Second, 10*time.Millisecond)

	assert.True(t, b.Running())
	assert.ErrorIs(t, b.Step(), ErrRunning)
	assert.ErrorIs(t, b.Run(ctx), ErrRunning)

	// Commands still work against the running loop
	exec(t, b, "code 1")
	require.Eventually(t, func() bool {
		return b.Status().State == core.LockClosed
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("board did not stop")
	}
	assert.False(t, b.Running())
}

func TestBoardStartClaimsLoop(t *testing.T) {
	b, _ := newTestBoard(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wait, err := b.Start(ctx)
	require.NoError(t, err)

	// The loop belongs to Start as soon as it returns
	assert.True(t, b.Running())
	assert.ErrorIs(t, b.Step(), ErrRunning)
	_, err = b.Elapse(time.Second)
	assert.ErrorIs(t, err, ErrRunning)
	_, err = b.Start(ctx)
	assert.ErrorIs(t, err, ErrRunning)

	// Commands that would step the loop leave it to the goroutines
	exec(t, b, "debug on")
	require.Eventually(t, func() bool {
		return b.Status().Sessions == 1
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, wait())
	require.NoError(t, wait())
	assert.False(t, b.Running())
	assert.Equal(t, uint32(1), b.Status().Sessions)

	assert.NoError(t, b.Step())
}

func TestBoardTickSetsUpIdleBoard(t *testing.T) {
	b, _ := newTestBoard(t, nil)

	exec(t, b, "code 7331")
	exec(t, b, "tick")

	st := b.Status()
	assert.Equal(t, core.LockOpen, st.State)
	assert.Equal(t, uint32(1), st.Overflows)
	assert.Equal(t, uint8(0x80), st.Output)
}
