package core

// Port is the abstract 8-bit GPIO bank interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type Port interface {
	// ConfigureOutput makes every pin of the bank an output
	ConfigureOutput()

	// ConfigureInput makes every pin of the bank an input
	ConfigureInput()

	// Write sets the whole output latch
	Write(value uint8)

	// SetBits drives the masked pins high
	SetBits(mask uint8)

	// ClearBits drives the masked pins low
	ClearBits(mask uint8)

	// Read returns the current pin levels
	Read() uint8
}

// OutputBit is the capability to drive a single pin of an output bank.
// Only the lock actuator holds one.
type OutputBit struct {
	port Port
	mask uint8
}

// NewOutputBit returns the capability for pin bit (0-7) of port
func NewOutputBit(port Port, bit uint8) OutputBit {
	return OutputBit{port: port, mask: 1 << (bit & 7)}
}

// Set drives the pin high (true) or low (false)
func (o OutputBit) Set(on bool) {
	if on {
		o.port.SetBits(o.mask)
	} else {
		o.port.ClearBits(o.mask)
	}
}

// Get reports the pin level
func (o OutputBit) Get() bool {
	return o.port.Read()&o.mask != 0
}

// InputBank is the read-only capability over an input bank
type InputBank struct {
	port Port
}

// NewInputBank wraps port as a read-only bank
func NewInputBank(port Port) InputBank {
	return InputBank{port: port}
}

// Read returns the pin levels of the bank
func (b InputBank) Read() uint8 {
	return b.port.Read()
}
