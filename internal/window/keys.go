package window

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/sandbox/client"
)

// translateKey maps a gogpu key transition to a client event. Keys the
// sandbox does not use are dropped. Pressing Escape closes the window.
func translateKey(key gpucontext.Key, mods gpucontext.Modifiers, pressed bool) (client.Event, bool) {
	if key == gpucontext.KeyEscape && pressed {
		return client.Close{}, true
	}
	shift := mods&gpucontext.ModShift != 0
	k := translateKeyCode(key, shift)
	if k == client.KeyUnknown {
		return nil, false
	}
	action := client.Press
	if !pressed {
		action = client.Release
	}
	return client.KeyEvent{Key: k, Action: action, Shift: shift}, true
}

func translateKeyCode(key gpucontext.Key, shift bool) client.Key {
	switch key {
	case gpucontext.KeyW:
		return client.KeyW
	case gpucontext.KeyA:
		return client.KeyA
	case gpucontext.KeyS:
		return client.KeyS
	case gpucontext.KeyD:
		return client.KeyD
	case gpucontext.KeyUp:
		return client.KeyUp
	case gpucontext.KeyDown:
		return client.KeyDown
	case gpucontext.KeyLeft:
		return client.KeyLeft
	case gpucontext.KeyRight:
		return client.KeyRight
	case gpucontext.KeyTab:
		return client.KeyTab
	case gpucontext.KeyNumpadAdd:
		return client.KeyPlus
	case gpucontext.KeyEqual:
		// '+' shares the key with '=' on US layouts.
		if shift {
			return client.KeyPlus
		}
		return client.KeyUnknown
	case gpucontext.KeyMinus, gpucontext.KeyNumpadSubtract:
		return client.KeyMinus
	case gpucontext.KeyF1:
		return client.KeyF1
	case gpucontext.KeyEscape:
		return client.KeyEscape
	default:
		return client.KeyUnknown
	}
}
