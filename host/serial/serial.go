package serial

import (
	"io"
)

// Port is the byte stream to the lock board's console. The bridge only needs
// reads, writes and a way to drop stale input, so tests can substitute a pipe.
type Port interface {
	io.ReadWriteCloser

	// Flush drops console output the board sent but nobody read yet
	Flush() error
}

// Config selects the console device; it is the console section of a board
// profile
type Config struct {
	// Device is the board's USB CDC node, /dev/ttyACM0 on Linux
	Device string `yaml:"device" toml:"device"`

	// Baud only matters behind a USB-UART adapter
	Baud int `yaml:"baud" toml:"baud"`

	// ReadTimeout bounds each read so the bridge notices shutdown, in ms
	ReadTimeout int `yaml:"read_timeout_ms" toml:"read_timeout_ms"`
}

// DefaultConfig returns the default configuration for the lock console
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}
