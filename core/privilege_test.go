package core

import "testing"

func TestPrivilegeFor(t *testing.T) {
	const mask = 0x6C

	for pins := 0; pins < 256; pins++ {
		want := PrivilegeNormal
		if uint8(pins)&mask != 0 {
			want = PrivilegeRoot
		}
		if got := PrivilegeFor(uint8(pins), mask); got != want {
			t.Errorf("pins=0x%02X: got %s, want %s", pins, got, want)
		}
	}

	// Pins outside the mask never grant root
	if got := PrivilegeFor(0x93, mask); got != PrivilegeNormal {
		t.Errorf("Expected normal for pins outside mask, got %s", got)
	}
}

func newTestGate(mode GateMode) (*PrivilegeGate, *MockPort, *MockDebug, *MockConsole) {
	input := &MockPort{}
	input.ConfigureInput()
	debug := &MockDebug{}
	console := &MockConsole{}
	return NewPrivilegeGate(NewInputBank(input), debug, console, DefaultPrivilegeMask, mode), input, debug, console
}

func TestGateScenarios(t *testing.T) {
	tests := []struct {
		name string
		pins uint8
		want PrivilegeLevel
	}{
		{"mask pins set grant root", 0x6C, PrivilegeRoot},
		{"single mask pin grants root", 0x04, PrivilegeRoot},
		{"no pins grant normal", 0x00, PrivilegeNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate, input, debug, console := newTestGate(GateEdge)
			input.pins = tt.pins
			debug.set = true

			level, started := gate.Poll()
			if !started {
				t.Fatal("Expected a session to start")
			}
			if level != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, level)
			}
			if len(console.sessions) != 1 || console.sessions[0] != tt.want {
				t.Errorf("Console sessions = %v", console.sessions)
			}
		})
	}
}

func TestGateIdleWithoutDebugSession(t *testing.T) {
	gate, input, _, console := newTestGate(GateEdge)
	input.pins = 0xFF

	for i := 0; i < 3; i++ {
		if _, started := gate.Poll(); started {
			t.Fatal("No session should start while the flag is clear")
		}
	}
	if len(console.sessions) != 0 {
		t.Errorf("Unexpected sessions: %v", console.sessions)
	}
}

func TestGateEdgeTriggered(t *testing.T) {
	gate, input, debug, console := newTestGate(GateEdge)
	input.pins = 0x20
	debug.set = true

	for i := 0; i < 5; i++ {
		gate.Poll()
	}
	if len(console.sessions) != 1 {
		t.Fatalf("Expected one session while the flag stays set, got %d", len(console.sessions))
	}

	// Pins change while the session is up: no new session
	input.pins = 0
	gate.Poll()

	// Falling then rising edge starts a new session with fresh pins
	debug.set = false
	gate.Poll()
	if gate.Active() {
		t.Error("Gate should be idle after the flag clears")
	}
	debug.set = true
	gate.Poll()

	if len(console.sessions) != 2 {
		t.Fatalf("Expected two sessions, got %d", len(console.sessions))
	}
	if console.sessions[1] != PrivilegeNormal {
		t.Errorf("Second session should be normal, got %s", console.sessions[1])
	}
}

func TestGateLevelTriggered(t *testing.T) {
	gate, input, debug, console := newTestGate(GateLevel)
	input.pins = 0x6C
	debug.set = true

	for i := 0; i < 4; i++ {
		gate.Poll()
	}
	if len(console.sessions) != 4 {
		t.Errorf("Level mode should start a session on every poll, got %d", len(console.sessions))
	}
}
