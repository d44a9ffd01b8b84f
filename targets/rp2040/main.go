//go:build rp2040

package main

import (
	"context"
	"machine"
	"runtime"
	"time"

	"slotlock/console"
	"slotlock/core"
)

// Board wiring
const (
	outputBankFirst = machine.GPIO0  // GPIO0-7, lock actuator on bit 7
	inputBankFirst  = machine.GPIO8  // GPIO8-15, privilege switches
	debugSensePin   = machine.GPIO22 // High once the debug probe has attached

	lcdRS = machine.GPIO21
	lcdE  = machine.GPIO20

	// defaultStoredCode is the reference code until the code store sets one
	defaultStoredCode = 7331
)

var lcdData = []machine.Pin{machine.GPIO16, machine.GPIO17, machine.GPIO18, machine.GPIO19}

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	core.SetDebugWriter(func(s string) {
		machine.Serial.Write([]byte(s + "\r\n"))
	})

	cfg := core.DefaultConfig()
	cfg.ClockHz = timerClockHz
	cfg.Prescaler = timerPrescaler

	lcd, err := NewLCD(lcdData, lcdE, lcdRS)
	if err != nil {
		panic("lcd: " + err.Error())
	}

	codes := core.NewCodeRegister(defaultStoredCode)

	controller, err := core.New(cfg, core.Hardware{
		Timer:   NewAlarmTimer(),
		Output:  NewPinBank(outputBankFirst),
		Input:   NewPinBank(inputBankFirst),
		Display: lcd,
		Codes:   codes,
		Debug:   NewPinFlag(debugSensePin),
		Console: console.NewShell(machine.Serial, console.DefaultHost),
	})
	if err != nil {
		panic("lock configuration: " + err.Error())
	}

	// Let the console reader run between loop passes
	controller.SetIdle(runtime.Gosched)

	go codeReaderLoop(codes)

	controller.Run(context.Background())
}

// codeReaderLoop reads codes typed on the console: digits followed by
// Enter become the current code. Anything else discards the line.
func codeReaderLoop(codes *core.CodeRegister) {
	var (
		value uint32
		valid bool
		bad   bool
	)

	for {
		if machine.Serial.Buffered() == 0 {
			time.Sleep(1 * time.Millisecond)
			continue
		}

		c, err := machine.Serial.ReadByte()
		if err != nil {
			continue
		}

		switch {
		case c >= '0' && c <= '9':
			value = value*10 + uint32(c-'0')
			if value > 0xFFFF {
				bad = true
			}
			valid = true
		case c == '\r' || c == '\n':
			if valid && !bad {
				codes.SetCurrent(core.LockCode(value))
			}
			value, valid, bad = 0, false, false
		default:
			bad = true
		}
	}
}
