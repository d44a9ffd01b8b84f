//go:build rp2040

package main

import (
	"machine"

	"slotlock/core"

	"tinygo.org/x/drivers/hd44780"
)

const (
	lcdWidth  = 16
	lcdHeight = 2
)

// LCD implements core.Display on an HD44780 character display in 4-bit mode
type LCD struct {
	dev hd44780.Device
}

// NewLCD creates the display driver. RW is tied to ground on the board.
func NewLCD(data []machine.Pin, e, rs machine.Pin) (*LCD, error) {
	dev, err := hd44780.NewGPIO4Bit(data, e, rs, machine.NoPin)
	if err != nil {
		return nil, err
	}
	return &LCD{dev: dev}, nil
}

// Init implements core.Display
func (l *LCD) Init() {
	err := l.dev.Configure(hd44780.Config{
		Width:  lcdWidth,
		Height: lcdHeight,
	})
	if err != nil {
		core.DebugPrintln("[LCD] configure failed: " + err.Error())
	}
}

// Clear implements core.Display
func (l *LCD) Clear() {
	l.dev.ClearDisplay()
	l.dev.SetCursor(0, 0)
}

// Write implements core.Display
func (l *LCD) Write(text string) {
	l.dev.Write([]byte(text))
	l.dev.Display()
}

// SetCursor implements core.Display
func (l *LCD) SetCursor(visible, blink bool) {
	cmd := byte(hd44780.DISPLAY_ON)
	if visible {
		cmd |= hd44780.CURSOR_ON
	}
	if blink {
		cmd |= hd44780.CURSOR_BLINK_ON
	}
	l.dev.SendCommand(cmd)
}
