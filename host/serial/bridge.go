package serial

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/shlex"
)

// LocalPrefix marks a line typed at the terminal as a bridge command rather
// than console input
const LocalPrefix = "~"

// Bridge relays a board console between a serial port and a terminal
type Bridge struct {
	port   Port
	out    io.Writer
	logger *slog.Logger
}

// NewBridge creates a bridge writing console output to out
func NewBridge(port Port, out io.Writer, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{port: port, out: out, logger: logger}
}

// Run relays until in is exhausted, ~quit is typed, the port fails or ctx is
// done
func (b *Bridge) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	readErr := make(chan error, 1)
	go func() {
		readErr <- b.relayPort(ctx)
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			return err
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := b.handleLine(line)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
		}
	}
}

// relayPort copies console output to the terminal. Read timeouts surface as
// empty reads or io.EOF and are not errors.
func (b *Bridge) relayPort(ctx context.Context) error {
	buf := make([]byte, 256)
	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := b.port.Read(buf)
		if n > 0 {
			if _, werr := b.out.Write(buf[:n]); werr != nil {
				return fmt.Errorf("writing console output: %w", werr)
			}
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading serial port: %w", err)
		}
	}
}

// handleLine forwards a terminal line or runs a local command
func (b *Bridge) handleLine(line string) (quit bool, err error) {
	if !strings.HasPrefix(line, LocalPrefix) {
		return false, b.send(line)
	}

	args, err := shlex.Split(strings.TrimPrefix(line, LocalPrefix))
	if err != nil {
		fmt.Fprintf(b.out, "bad command: %v\n", err)
		return false, nil
	}
	if len(args) == 0 {
		return false, nil
	}

	switch args[0] {
	case "quit", "q":
		return true, nil

	case "code":
		if len(args) != 2 {
			fmt.Fprintln(b.out, "usage: ~code <0-65535>")
			return false, nil
		}
		code, err := strconv.ParseUint(args[1], 10, 16)
		if err != nil {
			fmt.Fprintf(b.out, "invalid code %q\n", args[1])
			return false, nil
		}
		b.logger.Debug("sending code", "code", code)
		return false, b.send(strconv.FormatUint(code, 10))

	case "flush":
		return false, b.port.Flush()

	case "help":
		fmt.Fprintln(b.out, "bridge commands:")
		fmt.Fprintln(b.out, "  ~code N   present code N to the lock")
		fmt.Fprintln(b.out, "  ~flush    drop unread console input")
		fmt.Fprintln(b.out, "  ~quit     leave the console")
		return false, nil

	default:
		fmt.Fprintf(b.out, "unknown bridge command %q (try ~help)\n", args[0])
		return false, nil
	}
}

func (b *Bridge) send(line string) error {
	if _, err := b.port.Write([]byte(line + "\r")); err != nil {
		return fmt.Errorf("writing serial port: %w", err)
	}
	return nil
}
