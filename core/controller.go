package core

import (
	"context"
	"errors"
)

var (
	ErrInvalidActuatorBit = errors.New("actuator bit must be 0-7")
	ErrEmptyPrivilegeMask = errors.New("privilege mask selects no pins")
	ErrInvalidMode        = errors.New("unknown gate or check mode")
	ErrMissingHardware    = errors.New("hardware capability not provided")
)

// Hardware bundles the collaborators and register capabilities the controller
// takes ownership of. Each one is touched by exactly one component.
type Hardware struct {
	Timer   HardwareTimer
	Output  Port // Bank holding the actuator bit
	Input   Port // Bank holding the privilege pins
	Display Display
	Codes   CodeSource
	Debug   DebugSession
	Console Console
}

func (hw Hardware) complete() bool {
	return hw.Timer != nil && hw.Output != nil && hw.Input != nil &&
		hw.Display != nil && hw.Codes != nil && hw.Debug != nil && hw.Console != nil
}

// Observer is notified from the main loop after each lock application and
// each session start
type Observer interface {
	LockApplied(state LockState, changed bool)
	SessionStarted(level PrivilegeLevel)
}

// Controller is the main control loop of the lock
type Controller struct {
	cfg Config
	hw  Hardware

	scheduler *PeriodicScheduler
	evaluator *StatusEvaluator
	actuator  *LockActuator
	gate      *PrivilegeGate

	events   EventRing
	observer Observer
	idle     func()

	setupDone bool
}

// New wires the controller components from cfg and hw
func New(cfg Config, hw Hardware) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !hw.complete() {
		return nil, ErrMissingHardware
	}
	reload, err := cfg.Reload()
	if err != nil {
		return nil, err
	}

	return &Controller{
		cfg:       cfg,
		hw:        hw,
		scheduler: NewPeriodicScheduler(hw.Timer, cfg.Prescaler, reload),
		evaluator: NewStatusEvaluator(hw.Codes),
		actuator: NewLockActuator(NewOutputBit(hw.Output, cfg.ActuatorBit), hw.Display,
			cfg.OpenMessage, cfg.ClosedMessage),
		gate: NewPrivilegeGate(NewInputBank(hw.Input), hw.Debug, hw.Console,
			cfg.PrivilegeMask, cfg.GateMode),
	}, nil
}

// SetObserver registers the observer. Call before Run.
func (c *Controller) SetObserver(o Observer) {
	c.observer = o
}

// SetIdle registers a function called at the end of every loop iteration.
// Firmware leaves it unset; host simulations use it to yield.
func (c *Controller) SetIdle(idle func()) {
	c.idle = idle
}

// Setup performs the one-time hardware initialization. The timer overflow
// interrupt is enabled last, so no check can be requested before the ports
// and display are ready. Later calls do nothing.
func (c *Controller) Setup() {
	if c.setupDone {
		return
	}
	c.setupDone = true

	// The display driver may sleep, so it is brought up unmasked
	c.hw.Display.Init()
	c.hw.Display.SetCursor(false, false)

	state := disableInterrupts()
	c.hw.Output.ConfigureOutput()
	c.hw.Output.Write(0)
	c.hw.Input.ConfigureInput()
	c.scheduler.Start()
	restoreInterrupts(state)

	c.events.Record(EvtSetup, 0, 0)
	DebugPrintln("[LOCK] setup done, reload=" + utoa(uint32(c.scheduler.Reload())) +
		" mask=" + Hex8(c.cfg.PrivilegeMask))
}

// Step runs one iteration of the control loop
func (c *Controller) Step() {
	if level, started := c.gate.Poll(); started {
		c.events.Record(EvtSession, uint8(level), c.scheduler.Overflows())
		DebugPrintln("[LOCK] console session as " + level.String())
		if c.observer != nil {
			c.observer.SessionStarted(level)
		}
	}

	requested := c.scheduler.TakeRequest()
	if requested || c.cfg.CheckMode == CheckEveryPass {
		c.check()
	}
}

// check evaluates the codes and applies the result to the actuator
func (c *Controller) check() {
	previous := c.actuator.State()
	state := c.actuator.Apply(c.evaluator.Evaluate())
	changed := state != previous

	if changed {
		c.events.Record(EvtCheck, uint8(state), c.scheduler.Overflows())
		DebugPrintln("[LOCK] slot " + state.String())
	}
	if c.observer != nil {
		c.observer.LockApplied(state, changed)
	}
}

// Run sets up the hardware and loops until ctx is done. Firmware passes
// context.Background() and never returns.
func (c *Controller) Run(ctx context.Context) {
	c.Setup()

	done := ctx.Done()
	for {
		select {
		case <-done:
			return
		default:
		}

		c.Step()

		if c.idle != nil {
			c.idle()
		}
	}
}

// State returns the last applied lock state
func (c *Controller) State() LockState {
	return c.actuator.State()
}

// Applied returns how many lock checks were applied
func (c *Controller) Applied() uint32 {
	return c.actuator.Applied()
}

// Overflows returns the number of timer overflows seen
func (c *Controller) Overflows() uint32 {
	return c.scheduler.Overflows()
}

// Reload returns the countdown reload constant in use
func (c *Controller) Reload() uint16 {
	return c.scheduler.Reload()
}

// Events returns the controller's event ring
func (c *Controller) Events() *EventRing {
	return &c.events
}
