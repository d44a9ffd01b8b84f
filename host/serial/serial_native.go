package serial

import (
	"fmt"
	"time"

	"github.com/tarm/serial"
)

// consolePort is the board console on a real tty
type consolePort struct {
	*serial.Port
}

// Open connects to the board console described by cfg
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, fmt.Errorf("no console configuration")
	}
	if cfg.Device == "" {
		return nil, fmt.Errorf("no serial device configured")
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("opening console %s: %w", cfg.Device, err)
	}
	return &consolePort{Port: port}, nil
}
