//go:build rp2040

package main

import (
	"machine"
)

// PinBank implements core.Port over eight consecutive GPIO pins.
// Bit 0 is the first pin.
type PinBank struct {
	pins  [8]machine.Pin
	latch uint8
}

// NewPinBank creates a bank starting at first
func NewPinBank(first machine.Pin) *PinBank {
	b := &PinBank{}
	for i := range b.pins {
		b.pins[i] = first + machine.Pin(i)
	}
	return b
}

// ConfigureOutput configures every pin of the bank as an output
func (b *PinBank) ConfigureOutput() {
	for _, pin := range b.pins {
		pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	}
}

// ConfigureInput configures every pin as an input with pull-down resistor,
// so an open switch reads 0
func (b *PinBank) ConfigureInput() {
	for _, pin := range b.pins {
		pin.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
	}
}

// Write sets all eight pins from value
func (b *PinBank) Write(value uint8) {
	b.latch = value
	b.apply()
}

// SetBits drives the masked pins high
func (b *PinBank) SetBits(mask uint8) {
	b.latch |= mask
	b.apply()
}

// ClearBits drives the masked pins low
func (b *PinBank) ClearBits(mask uint8) {
	b.latch &^= mask
	b.apply()
}

// Read returns the pin levels
func (b *PinBank) Read() uint8 {
	var value uint8
	for i, pin := range b.pins {
		if pin.Get() {
			value |= 1 << uint(i)
		}
	}
	return value
}

func (b *PinBank) apply() {
	for i, pin := range b.pins {
		pin.Set(b.latch&(1<<uint(i)) != 0)
	}
}

// PinFlag implements core.DebugSession with a sense input that the debug
// probe pulls high once it has attached
type PinFlag struct {
	pin machine.Pin
}

// NewPinFlag configures pin as the debug-attached sense input
func NewPinFlag(pin machine.Pin) *PinFlag {
	pin.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
	return &PinFlag{pin: pin}
}

// Initialized implements core.DebugSession
func (f *PinFlag) Initialized() bool {
	return f.pin.Get()
}
