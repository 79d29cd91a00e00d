package keyboard

import "github.com/holoplot/go-evdev"

// evdevOffset is the distance between Linux input codes and the keycodes the
// X server and XKB use for the same keys.
const evdevOffset = 8

// EvdevKeycode returns the keycode for a Linux input code.
func EvdevKeycode(code evdev.EvCode) (Keycode, bool) {
	if code == 0 || int(code)+evdevOffset > 255 {
		return 0, false
	}
	return Keycode(code + evdevOffset), true
}

// EvdevCode returns the Linux input code for a keycode.
func EvdevCode(key Keycode) (evdev.EvCode, bool) {
	if key < evdevOffset+1 {
		return 0, false
	}
	return evdev.EvCode(key) - evdevOffset, true
}

// qnumToEvdev maps QEMU style scancodes (XT set 1, with 0xe0 prefixed keys
// folded to 0x80|code) to Linux input codes. Set 1 codes up to 0x53 coincide
// with the Linux codes and are handled directly.
var qnumToEvdev = map[uint32]evdev.EvCode{
	0x54: evdev.KEY_SYSRQ,
	0x56: evdev.KEY_102ND,
	0x57: evdev.KEY_F11,
	0x58: evdev.KEY_F12,
	0x70: evdev.KEY_KATAKANAHIRAGANA,
	0x73: evdev.KEY_RO,
	0x79: evdev.KEY_HENKAN,
	0x7b: evdev.KEY_MUHENKAN,
	0x7d: evdev.KEY_YEN,

	0x9c: evdev.KEY_KPENTER,
	0x9d: evdev.KEY_RIGHTCTRL,
	0xa0: evdev.KEY_MUTE,
	0xae: evdev.KEY_VOLUMEDOWN,
	0xb0: evdev.KEY_VOLUMEUP,
	0xb5: evdev.KEY_KPSLASH,
	0xb7: evdev.KEY_SYSRQ,
	0xb8: evdev.KEY_RIGHTALT,
	0xc6: evdev.KEY_PAUSE,
	0xc7: evdev.KEY_HOME,
	0xc8: evdev.KEY_UP,
	0xc9: evdev.KEY_PAGEUP,
	0xcb: evdev.KEY_LEFT,
	0xcd: evdev.KEY_RIGHT,
	0xcf: evdev.KEY_END,
	0xd0: evdev.KEY_DOWN,
	0xd1: evdev.KEY_PAGEDOWN,
	0xd2: evdev.KEY_INSERT,
	0xd3: evdev.KEY_DELETE,
	0xdb: evdev.KEY_LEFTMETA,
	0xdc: evdev.KEY_RIGHTMETA,
	0xdd: evdev.KEY_COMPOSE,
}

// QnumToKeycode translates a client scancode hint into a keycode.
func QnumToKeycode(qnum uint32) (Keycode, bool) {
	code, ok := qnumToEvdev[qnum]
	if !ok {
		if qnum == 0 || qnum > 0x53 {
			return 0, false
		}
		code = evdev.EvCode(qnum)
	}
	return EvdevKeycode(code)
}
