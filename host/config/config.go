// Package config loads board profiles for the host tools.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"slotlock/core"
	"slotlock/host/serial"
)

// EnvNATSURL overrides telemetry.nats_url when set
const EnvNATSURL = "SLOTLOCK_NATS_URL"

// DefaultStoredCode is the simulated board's reference code
const DefaultStoredCode = 7331

// Duration is a time.Duration written as "1s", "250ms" in profiles
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// File is a complete board profile
type File struct {
	Board     BoardConfig     `yaml:"board" toml:"board"`
	Console   serial.Config   `yaml:"console" toml:"console"`
	Simulator SimConfig       `yaml:"simulator" toml:"simulator"`
	Telemetry TelemetryConfig `yaml:"telemetry" toml:"telemetry"`
}

// BoardConfig mirrors core.Config
type BoardConfig struct {
	// ClockHz is the clock feeding the timer prescaler (default 16MHz)
	ClockHz uint32 `yaml:"clock_hz" toml:"clock_hz"`
	// Prescaler is the timer divider (default 1024)
	Prescaler uint16 `yaml:"prescaler" toml:"prescaler"`
	// CheckPeriod is the time between lock checks (default 1s)
	CheckPeriod Duration `yaml:"check_period" toml:"check_period"`
	// ActuatorBit is the output bank bit driving the lock (default 7)
	ActuatorBit *uint8 `yaml:"actuator_bit" toml:"actuator_bit"`
	// PrivilegeMask selects the input pins granting root (default 0x6C)
	PrivilegeMask uint8 `yaml:"privilege_mask" toml:"privilege_mask"`
	// OpenMessage and ClosedMessage are shown on the display
	OpenMessage   string `yaml:"open_message" toml:"open_message"`
	ClosedMessage string `yaml:"closed_message" toml:"closed_message"`
	// GateMode is "edge" (default) or "level"
	GateMode string `yaml:"gate_mode" toml:"gate_mode"`
	// CheckMode is "request" (default) or "every_pass"
	CheckMode string `yaml:"check_mode" toml:"check_mode"`
}

// SimConfig configures the simulated board
type SimConfig struct {
	// StoredCode is the reference code at power-on (default 7331)
	StoredCode *uint16 `yaml:"stored_code" toml:"stored_code"`
	// Speed scales simulated time against wall time (default 1)
	Speed float64 `yaml:"speed" toml:"speed"`
	// Host is the console host name (default "lock")
	Host string `yaml:"host" toml:"host"`
}

// Code returns the stored code, or the default when unset
func (s SimConfig) Code() uint16 {
	if s.StoredCode == nil {
		return DefaultStoredCode
	}
	return *s.StoredCode
}

// TelemetryConfig configures event publishing and metrics
type TelemetryConfig struct {
	// NATSURL enables event publishing when set
	NATSURL string `yaml:"nats_url" toml:"nats_url"`
	// SubjectPrefix prefixes every subject (default "slotlock")
	SubjectPrefix string `yaml:"subject_prefix" toml:"subject_prefix"`
	// MetricsAddr serves Prometheus metrics when set, e.g. ":9464"
	MetricsAddr string `yaml:"metrics_addr" toml:"metrics_addr"`
	// BoardID names the board in events (default: random UUID)
	BoardID string `yaml:"board_id" toml:"board_id"`
}

// Default returns a profile for the stock board, with environment overrides
func Default() *File {
	f := &File{}
	applyDefaults(f)
	applyEnv(f)
	return f
}

// Load reads a profile; the format follows the file extension
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	f, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a profile in the given format (".yaml", ".yml" or ".toml"),
// applies defaults and environment overrides, and validates it
func Parse(data []byte, format string) (*File, error) {
	f := &File{}

	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	case "toml":
		md, err := toml.Decode(string(data), f)
		if err != nil {
			return nil, err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown key %s", undecoded[0])
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}

	applyDefaults(f)
	applyEnv(f)

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// applyDefaults fills in missing configuration values
func applyDefaults(f *File) {
	b := &f.Board
	if b.ClockHz == 0 {
		b.ClockHz = core.DefaultClockHz
	}
	if b.Prescaler == 0 {
		b.Prescaler = core.DefaultPrescaler
	}
	if b.CheckPeriod == 0 {
		b.CheckPeriod = Duration(time.Second)
	}
	if b.ActuatorBit == nil {
		bit := uint8(7)
		b.ActuatorBit = &bit
	}
	if b.PrivilegeMask == 0 {
		b.PrivilegeMask = core.DefaultPrivilegeMask
	}
	if b.OpenMessage == "" {
		b.OpenMessage = core.OpenMessage
	}
	if b.ClosedMessage == "" {
		b.ClosedMessage = core.ClosedMessage
	}
	if b.GateMode == "" {
		b.GateMode = "edge"
	}
	if b.CheckMode == "" {
		b.CheckMode = "request"
	}

	defaults := serial.DefaultConfig("/dev/ttyACM0")
	if f.Console.Device == "" {
		f.Console.Device = defaults.Device
	}
	if f.Console.Baud == 0 {
		f.Console.Baud = defaults.Baud
	}
	if f.Console.ReadTimeout == 0 {
		f.Console.ReadTimeout = defaults.ReadTimeout
	}

	if f.Simulator.StoredCode == nil {
		code := uint16(DefaultStoredCode)
		f.Simulator.StoredCode = &code
	}
	if f.Simulator.Speed == 0 {
		f.Simulator.Speed = 1
	}
	if f.Simulator.Host == "" {
		f.Simulator.Host = "lock"
	}

	if f.Telemetry.SubjectPrefix == "" {
		f.Telemetry.SubjectPrefix = "slotlock"
	}
}

func applyEnv(f *File) {
	if v := os.Getenv(EnvNATSURL); v != "" {
		f.Telemetry.NATSURL = v
	}
}

// CoreConfig converts the board section into a validated core.Config
func (f *File) CoreConfig() (core.Config, error) {
	b := f.Board
	cfg := core.Config{
		ClockHz:       b.ClockHz,
		Prescaler:     b.Prescaler,
		CheckPeriod:   time.Duration(b.CheckPeriod),
		PrivilegeMask: b.PrivilegeMask,
		OpenMessage:   b.OpenMessage,
		ClosedMessage: b.ClosedMessage,
	}
	if b.ActuatorBit != nil {
		cfg.ActuatorBit = *b.ActuatorBit
	}

	switch b.GateMode {
	case "edge":
		cfg.GateMode = core.GateEdge
	case "level":
		cfg.GateMode = core.GateLevel
	default:
		return core.Config{}, fmt.Errorf("board.gate_mode: unknown mode %q", b.GateMode)
	}

	switch b.CheckMode {
	case "request":
		cfg.CheckMode = core.CheckOnRequest
	case "every_pass":
		cfg.CheckMode = core.CheckEveryPass
	default:
		return core.Config{}, fmt.Errorf("board.check_mode: unknown mode %q", b.CheckMode)
	}

	if err := cfg.Validate(); err != nil {
		return core.Config{}, fmt.Errorf("board: %w", err)
	}
	return cfg, nil
}

// Validate checks the whole profile
func (f *File) Validate() error {
	if _, err := f.CoreConfig(); err != nil {
		return err
	}
	if f.Simulator.Speed < 0 {
		return fmt.Errorf("simulator.speed must not be negative")
	}
	return nil
}
