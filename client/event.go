package client

import "fmt"

// Event is an input or lifecycle event delivered to Client.HandleEvent.
type Event interface {
	isEvent()
}

// Resize reports a new framebuffer size in pixels.
type Resize struct {
	Width, Height int
}

// Redraw requests one frame.
type Redraw struct{}

// KeyEvent reports a key transition.
type KeyEvent struct {
	Key    Key
	Action Action
	Shift  bool
}

// PointerMove reports the pointer position in window coordinates.
type PointerMove struct {
	X, Y float64
}

// PointerButton reports a primary button transition at a window position.
type PointerButton struct {
	X, Y    float64
	Pressed bool
}

// ScaleFactor reports the ratio of framebuffer pixels to window coordinates.
type ScaleFactor struct {
	Scale float64
}

// Close requests shutdown.
type Close struct{}

func (Resize) isEvent()        {}
func (Redraw) isEvent()        {}
func (KeyEvent) isEvent()      {}
func (PointerMove) isEvent()   {}
func (PointerButton) isEvent() {}
func (ScaleFactor) isEvent()   {}
func (Close) isEvent()         {}

// Key identifies the keys the sandbox reacts to.
type Key int

const (
	KeyUnknown Key = iota
	KeyW
	KeyA
	KeyS
	KeyD
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyTab
	KeyPlus
	KeyMinus
	KeyF1
	KeyEscape
)

var keyNames = [...]string{
	KeyUnknown: "Unknown",
	KeyW:       "W",
	KeyA:       "A",
	KeyS:       "S",
	KeyD:       "D",
	KeyUp:      "Up",
	KeyDown:    "Down",
	KeyLeft:    "Left",
	KeyRight:   "Right",
	KeyTab:     "Tab",
	KeyPlus:    "Plus",
	KeyMinus:   "Minus",
	KeyF1:      "F1",
	KeyEscape:  "Escape",
}

// String returns the key name.
func (k Key) String() string {
	if k >= 0 && int(k) < len(keyNames) {
		return keyNames[k]
	}
	return fmt.Sprintf("Key(%d)", int(k))
}

// Action is a key transition.
type Action int

const (
	Press Action = iota
	Release
	Repeat
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case Press:
		return "Press"
	case Release:
		return "Release"
	case Repeat:
		return "Repeat"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}
