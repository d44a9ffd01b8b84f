package core

import "time"

// CheckMode selects who triggers lock checks
type CheckMode uint8

const (
	// CheckOnRequest checks only when the periodic scheduler asked for it
	CheckOnRequest CheckMode = iota
	// CheckEveryPass also checks on every loop iteration
	CheckEveryPass
)

// Config holds the controller configuration
type Config struct {
	ClockHz     uint32        // CPU clock feeding the timer prescaler
	Prescaler   uint16        // Timer clock divider
	CheckPeriod time.Duration // Time between scheduled lock checks

	ActuatorBit   uint8 // Bit of the output bank driving the lock
	PrivilegeMask uint8 // Input bank pins granting root

	OpenMessage   string
	ClosedMessage string

	GateMode  GateMode
	CheckMode CheckMode
}

// DefaultConfig returns the stock board configuration
func DefaultConfig() Config {
	return Config{
		ClockHz:       DefaultClockHz,
		Prescaler:     DefaultPrescaler,
		CheckPeriod:   time.Second,
		ActuatorBit:   7,
		PrivilegeMask: DefaultPrivilegeMask,
		OpenMessage:   OpenMessage,
		ClosedMessage: ClosedMessage,
		GateMode:      GateEdge,
		CheckMode:     CheckOnRequest,
	}
}

// Reload returns the countdown reload value for the configured period
func (c Config) Reload() (uint16, error) {
	return CountdownReload(c.ClockHz, c.Prescaler, c.CheckPeriod)
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.ActuatorBit > 7 {
		return ErrInvalidActuatorBit
	}
	if c.PrivilegeMask == 0 {
		return ErrEmptyPrivilegeMask
	}
	if c.GateMode > GateLevel {
		return ErrInvalidMode
	}
	if c.CheckMode > CheckEveryPass {
		return ErrInvalidMode
	}
	_, err := c.Reload()
	return err
}
