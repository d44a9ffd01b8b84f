// Package console implements the lock's serial console collaborator. It only
// opens sessions: command handling belongs to whatever reads the console.
package console

import (
	"io"
	"sync"

	"slotlock/core"
)

// DefaultHost is the host name shown in the prompt
const DefaultHost = "lock"

// Shell announces console sessions on a line-oriented writer (UART or USB CDC)
type Shell struct {
	mu   sync.Mutex
	w    io.Writer
	host string

	level    core.PrivilegeLevel
	active   bool
	sessions uint32
}

// NewShell creates a shell writing to w
func NewShell(w io.Writer, host string) *Shell {
	if host == "" {
		host = DefaultHost
	}
	return &Shell{w: w, host: host}
}

// StartSession implements core.Console. A session already running is
// replaced by the new one.
func (s *Shell) StartSession(level core.PrivilegeLevel) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.level = level
	s.active = true
	s.sessions++

	// Write errors are dropped: the console has no error channel back to the loop
	_, _ = io.WriteString(s.w, "\r\nsession started for "+level.String()+"\r\n"+s.prompt())
}

// Prompt returns the prompt for the current session, e.g. "root@lock> "
func (s *Shell) Prompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompt()
}

func (s *Shell) prompt() string {
	return s.level.String() + "@" + s.host + "> "
}

// Level returns the privilege level of the current session
func (s *Shell) Level() core.PrivilegeLevel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

// Active reports whether a session was started
func (s *Shell) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Sessions returns how many sessions were started
func (s *Shell) Sessions() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions
}
