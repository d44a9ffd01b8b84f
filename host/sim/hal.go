package sim

import (
	"strings"
	"sync"
	"sync/atomic"
)

// Port is a simulated 8-bit GPIO bank. Bits configured as input read the
// externally driven levels set with SetPins.
type Port struct {
	mu    sync.Mutex
	ddr   uint8
	latch uint8
	pins  uint8
}

func (p *Port) ConfigureOutput() {
	p.mu.Lock()
	p.ddr = 0xFF
	p.mu.Unlock()
}

func (p *Port) ConfigureInput() {
	p.mu.Lock()
	p.ddr = 0x00
	p.mu.Unlock()
}

func (p *Port) Write(value uint8) {
	p.mu.Lock()
	p.latch = value
	p.mu.Unlock()
}

func (p *Port) SetBits(mask uint8) {
	p.mu.Lock()
	p.latch |= mask
	p.mu.Unlock()
}

func (p *Port) ClearBits(mask uint8) {
	p.mu.Lock()
	p.latch &^= mask
	p.mu.Unlock()
}

func (p *Port) Read() uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return (p.latch & p.ddr) | (p.pins &^ p.ddr)
}

// SetPins drives the external pin levels
func (p *Port) SetPins(levels uint8) {
	p.mu.Lock()
	p.pins = levels
	p.mu.Unlock()
}

// Latch returns the output latch
func (p *Port) Latch() uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latch
}

// Direction returns the direction register (1 = output)
func (p *Port) Direction() uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ddr
}

// LCD is a simulated character display
type LCD struct {
	mu          sync.Mutex
	initialized bool
	cursor      bool
	blink       bool
	text        strings.Builder
	clears      int
	writes      int
}

func (l *LCD) Init() {
	l.mu.Lock()
	l.initialized = true
	l.text.Reset()
	l.mu.Unlock()
}

func (l *LCD) Clear() {
	l.mu.Lock()
	l.text.Reset()
	l.clears++
	l.mu.Unlock()
}

func (l *LCD) Write(text string) {
	l.mu.Lock()
	l.text.WriteString(text)
	l.writes++
	l.mu.Unlock()
}

func (l *LCD) SetCursor(visible, blink bool) {
	l.mu.Lock()
	l.cursor = visible
	l.blink = blink
	l.mu.Unlock()
}

// Text returns what the display shows
func (l *LCD) Text() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.text.String()
}

// Initialized reports whether Init ran
func (l *LCD) Initialized() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.initialized
}

// Cursor returns the cursor visibility and blink settings
func (l *LCD) Cursor() (visible, blink bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cursor, l.blink
}

// Counts returns the number of clears and writes
func (l *LCD) Counts() (clears, writes int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.clears, l.writes
}

// DebugFlag is the simulated debug-session-initialized flag
type DebugFlag struct {
	set atomic.Bool
}

// Initialized implements core.DebugSession
func (f *DebugFlag) Initialized() bool {
	return f.set.Load()
}

// Set raises or lowers the flag
func (f *DebugFlag) Set(on bool) {
	f.set.Store(on)
}
