package sim

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"

	"slotlock/core"
)

// ErrQuit is returned by Exec for the quit command
var ErrQuit = errors.New("quit")

const helpText = `commands:
  code N          present code N (0-65535)
  store N         change the stored code
  debug on|off    raise or lower the debug-session flag
  pins MASK       drive the input bank, e.g. 0x6C
  tick [N]        fire N timer overflows (default 1)
  step [N]        run N loop iterations (default 1)
  run DURATION    advance simulated time, e.g. 3s
  status          show the board state
  events          dump the controller event ring
  quit            leave
`

// Exec runs one command line and writes its output to w. Commands that move
// the loop forward (tick, step, run) only step it when no Start or Run owns it.
func (b *Board) Exec(line string, w io.Writer) error {
	args, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parsing command: %w", err)
	}
	if len(args) == 0 {
		return nil
	}

	switch cmd := strings.ToLower(args[0]); cmd {
	case "code", "store":
		if len(args) != 2 {
			return fmt.Errorf("usage: %s N", cmd)
		}
		n, err := strconv.ParseUint(args[1], 0, 16)
		if err != nil {
			return fmt.Errorf("%s: invalid code %q", cmd, args[1])
		}
		if cmd == "code" {
			b.Codes.SetCurrent(core.LockCode(n))
		} else {
			b.Codes.SetStored(core.LockCode(n))
		}
		b.logger.Debug("code changed", "which", cmd, "value", n)
		return nil

	case "debug":
		if len(args) != 2 {
			return errors.New("usage: debug on|off")
		}
		switch strings.ToLower(args[1]) {
		case "on", "1", "true":
			b.Debug.Set(true)
		case "off", "0", "false":
			b.Debug.Set(false)
		default:
			return fmt.Errorf("debug: expected on or off, got %q", args[1])
		}
		return b.settle()

	case "pins":
		if len(args) != 2 {
			return errors.New("usage: pins MASK")
		}
		n, err := strconv.ParseUint(args[1], 0, 8)
		if err != nil {
			return fmt.Errorf("pins: invalid mask %q", args[1])
		}
		b.Input.SetPins(uint8(n))
		return nil

	case "tick":
		n, err := countArg(args)
		if err != nil {
			return err
		}
		b.Tick(n)
		return nil

	case "step":
		n, err := countArg(args)
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if err := b.Step(); err != nil {
				return err
			}
		}
		return nil

	case "run":
		if len(args) != 2 {
			return errors.New("usage: run DURATION")
		}
		d, err := time.ParseDuration(args[1])
		if err != nil {
			return fmt.Errorf("run: %w", err)
		}
		fired, err := b.Elapse(d)
		if errors.Is(err, ErrRunning) {
			fired = b.Timer.Advance(d)
		} else if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d overflows\n", fired)
		return nil

	case "status":
		writeStatus(w, b.Status())
		return nil

	case "events":
		b.controller.Events().Dump(func(s string) {
			fmt.Fprintln(w, s)
		})
		return nil

	case "help", "?":
		_, err := io.WriteString(w, helpText)
		return err

	case "quit", "exit":
		return ErrQuit

	default:
		return fmt.Errorf("unknown command %q (try help)", args[0])
	}
}

// settle steps the loop once when nothing else is driving it
func (b *Board) settle() error {
	if err := b.Step(); err != nil && !errors.Is(err, ErrRunning) {
		return err
	}
	return nil
}

func countArg(args []string) (int, error) {
	if len(args) < 2 {
		return 1, nil
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s: invalid count %q", args[0], args[1])
	}
	return n, nil
}

func writeStatus(w io.Writer, s Status) {
	session := "none"
	if s.Session {
		session = s.Privilege.String()
	}
	fmt.Fprintf(w, "lock:      %s\n", s.State)
	fmt.Fprintf(w, "display:   %q\n", s.Display)
	fmt.Fprintf(w, "codes:     current=%d stored=%d\n", s.Current, s.Stored)
	fmt.Fprintf(w, "output:    0x%02X\n", s.Output)
	fmt.Fprintf(w, "pins:      0x%02X\n", s.Pins)
	fmt.Fprintf(w, "debug:     %t\n", s.Debug)
	fmt.Fprintf(w, "session:   %s (%d started)\n", session, s.Sessions)
	fmt.Fprintf(w, "timer:     counter=%d overflows=%d\n", s.Counter, s.Overflows)
	fmt.Fprintf(w, "applied:   %d\n", s.Applied)
}
