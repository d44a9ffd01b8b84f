package core

// Fixed display texts
const (
	OpenMessage   = "Slot open"
	ClosedMessage = "Slot dicht"
)

// Display is the character display collaborator
type Display interface {
	// Init brings the controller up; called once from Setup
	Init()

	// Clear blanks the screen and homes the cursor
	Clear()

	// Write prints text at the cursor
	Write(text string)

	// SetCursor shows or hides the cursor and its blinking
	SetCursor(visible, blink bool)
}
