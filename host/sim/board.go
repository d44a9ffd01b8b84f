package sim

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"slotlock/console"
	"slotlock/core"
)

const (
	// clockInterval is how often the virtual clock catches up with wall time
	clockInterval = 10 * time.Millisecond
	// loopInterval is the pause between control loop iterations
	loopInterval = time.Millisecond
)

var ErrRunning = errors.New("board is running")

// Options configures a simulated board
type Options struct {
	Config     core.Config
	StoredCode uint16
	Host       string  // console host name
	Speed      float64 // simulated seconds per wall second (default 1)
	Console    io.Writer
	Logger     *slog.Logger
}

// Board is a simulated lock board running the real controller
type Board struct {
	Timer  *Timer16
	Output *Port
	Input  *Port
	LCD    *LCD
	Debug  *DebugFlag
	Codes  *core.CodeRegister
	Shell  *console.Shell

	cfg        core.Config
	console    *lockedWriter
	controller *core.Controller
	logger     *slog.Logger
	speed      float64
	period     time.Duration

	loopMu  sync.Mutex // held while Step, Elapse or Tick drive the loop
	running atomic.Bool
}

// NewBoard builds a board and its controller. The controller is not set up
// until the first Step or Run.
func NewBoard(opts Options) (*Board, error) {
	if opts.Speed <= 0 {
		opts.Speed = 1
	}
	if opts.Console == nil {
		opts.Console = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	b := &Board{
		Timer:  NewTimer16(opts.Config.ClockHz),
		Output: &Port{},
		Input:  &Port{},
		LCD:    &LCD{},
		Debug:  &DebugFlag{},
		Codes:  core.NewCodeRegister(core.LockCode(opts.StoredCode)),
		cfg:    opts.Config,
		logger: opts.Logger,
		speed:  opts.Speed,
	}
	b.console = &lockedWriter{w: opts.Console}
	b.Shell = console.NewShell(b.console, opts.Host)

	controller, err := core.New(opts.Config, core.Hardware{
		Timer:   b.Timer,
		Output:  b.Output,
		Input:   b.Input,
		Display: b.LCD,
		Codes:   b.Codes,
		Debug:   b.Debug,
		Console: b.Shell,
	})
	if err != nil {
		return nil, err
	}
	controller.SetIdle(func() { time.Sleep(loopInterval) })
	b.controller = controller
	b.period = core.CountdownPeriod(opts.Config.ClockHz, opts.Config.Prescaler, controller.Reload())

	return b, nil
}

// Controller returns the board's controller
func (b *Board) Controller() *core.Controller {
	return b.controller
}

// Console returns the board's console output. Writes are serialized with the
// shell's session messages.
func (b *Board) Console() io.Writer {
	return b.console
}

// Period returns the exact check period the timer produces
func (b *Board) Period() time.Duration {
	return b.period
}

// Running reports whether Start or Run owns the loop
func (b *Board) Running() bool {
	return b.running.Load()
}

// Step sets the board up if needed and runs one control loop iteration. It
// fails while Start or Run owns the loop.
func (b *Board) Step() error {
	b.loopMu.Lock()
	defer b.loopMu.Unlock()
	if b.running.Load() {
		return ErrRunning
	}
	b.controller.Setup()
	b.controller.Step()
	return nil
}

// Elapse advances simulated time by d without a running loop, stepping the
// loop after every check period so each overflow is consumed on its own
func (b *Board) Elapse(d time.Duration) (int, error) {
	b.loopMu.Lock()
	defer b.loopMu.Unlock()
	if b.running.Load() {
		return 0, ErrRunning
	}
	b.controller.Setup()

	fired := 0
	for d > 0 {
		slice := b.period
		if d < slice {
			slice = d
		}
		fired += b.Timer.Advance(slice)
		b.controller.Step()
		d -= slice
	}
	return fired, nil
}

// Tick forces n timer overflows and returns how many interrupts were
// delivered. Without a running loop the board is set up first and the loop
// stepped once afterwards.
func (b *Board) Tick(n int) int {
	b.loopMu.Lock()
	defer b.loopMu.Unlock()

	idle := !b.running.Load()
	if idle {
		b.controller.Setup()
	}
	fired := 0
	for i := 0; i < n; i++ {
		if b.Timer.Overflow() {
			fired++
		}
	}
	if idle {
		b.controller.Step()
	}
	return fired
}

// Start hands the loop to two goroutines, one running the controller and one
// advancing the virtual clock at the configured speed, and returns at once.
// The board counts as running before Start returns. wait blocks until ctx is
// done and both goroutines have stopped.
func (b *Board) Start(ctx context.Context) (wait func() error, err error) {
	b.loopMu.Lock()
	if b.running.Load() {
		b.loopMu.Unlock()
		return nil, ErrRunning
	}
	b.running.Store(true)
	b.loopMu.Unlock()

	b.logger.Info("board running",
		"reload", b.controller.Reload(),
		"period", b.period,
		"speed", b.speed)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b.controller.Run(ctx)
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(clockInterval)
		defer ticker.Stop()

		last := time.Now()
		for {
			select {
			case <-ctx.Done():
				return nil
			case now := <-ticker.C:
				elapsed := time.Duration(float64(now.Sub(last)) * b.speed)
				last = now
				if n := b.Timer.Advance(elapsed); n > 0 {
					b.logger.Debug("timer overflow", "count", n, "total", b.controller.Overflows())
				}
			}
		}
	})

	var once sync.Once
	var result error
	return func() error {
		once.Do(func() {
			result = g.Wait()
			b.running.Store(false)
			b.logger.Info("board stopped", "overflows", b.controller.Overflows(), "applied", b.controller.Applied())
		})
		return result
	}, nil
}

// Run is Start followed by wait
func (b *Board) Run(ctx context.Context) error {
	wait, err := b.Start(ctx)
	if err != nil {
		return err
	}
	return wait()
}

// Status is a snapshot of the board
type Status struct {
	State     core.LockState
	Current   core.LockCode
	Stored    core.LockCode
	Output    uint8
	Pins      uint8
	Debug     bool
	Display   string
	Session   bool
	Privilege core.PrivilegeLevel
	Sessions  uint32
	Overflows uint32
	Applied   uint32
	Counter   uint16
}

// Status returns a snapshot of the board
func (b *Board) Status() Status {
	current, stored := b.Codes.Snapshot()
	return Status{
		State:     b.controller.State(),
		Current:   current,
		Stored:    stored,
		Output:    b.Output.Latch(),
		Pins:      b.Input.Read(),
		Debug:     b.Debug.Initialized(),
		Display:   b.LCD.Text(),
		Session:   b.Shell.Active(),
		Privilege: b.Shell.Level(),
		Sessions:  b.Shell.Sessions(),
		Overflows: b.controller.Overflows(),
		Applied:   b.controller.Applied(),
		Counter:   b.Timer.Counter(),
	}
}

// lockedWriter serializes console output from the loop and the command line
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
