package uinput

import (
	"github.com/holoplot/go-evdev"
	"github.com/jetkvm/keyinject/internal/keyboard"
	"github.com/jetkvm/keyinject/internal/keysym"
)

// Highest key code registered on the virtual keyboard. Codes above it do not
// fit in a keycode once offset by 8.
const maxKeyCode evdev.EvCode = 247

// keyCapabilities lists every key the virtual keyboard can send.
func keyCapabilities() []evdev.EvCode {
	codes := make([]evdev.EvCode, 0, maxKeyCode)
	for code := evdev.EvCode(1); code <= maxKeyCode; code++ {
		codes = append(codes, code)
	}
	return codes
}

// lockToggle returns the modifier a lock key toggles, or zero for keys that
// only assert their modifier while held.
func lockToggle(layout keyboard.Layout, modifier keyboard.ModMask, key keyboard.Keycode) keyboard.ModMask {
	switch layout.KeysymAt(key, 0) {
	case keysym.XK_Caps_Lock:
		return keyboard.LockMask
	case keysym.XK_Num_Lock:
		return modifier
	}
	return 0
}
