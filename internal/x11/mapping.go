package x11

import (
	"github.com/jetkvm/keyinject/internal/keyboard"
	"github.com/jetkvm/keyinject/internal/keysym"
	"github.com/jezek/xgb/xproto"
)

// Keycodes of the evdev ruleset that no real keyboard sends. They carry
// modifier keysyms so that XKB has somewhere to put them.
var fallbackKeycodes = map[keyboard.Keycode]bool{
	92:  true,
	203: true,
	204: true,
	205: true,
	206: true,
	207: true,
}

// mapping is a copy of the core keyboard and modifier mappings.
type mapping struct {
	minKey, maxKey keyboard.Keycode

	perKeycode int
	keysyms    []xproto.Keysym

	perModifier int
	modKeys     []xproto.Keycode
}

func newMapping(minKey, maxKey xproto.Keycode, kb *xproto.GetKeyboardMappingReply, mods *xproto.GetModifierMappingReply) *mapping {
	return &mapping{
		minKey:      keyboard.Keycode(minKey),
		maxKey:      keyboard.Keycode(maxKey),
		perKeycode:  int(kb.KeysymsPerKeycode),
		keysyms:     kb.Keysyms,
		perModifier: int(mods.KeycodesPerModifier),
		modKeys:     mods.Keycodes,
	}
}

// row returns the keysyms bound to key, one per column.
func (m *mapping) row(key keyboard.Keycode) []xproto.Keysym {
	if key < m.minKey || key > m.maxKey || m.perKeycode == 0 {
		return nil
	}
	start := int(key-m.minKey) * m.perKeycode
	if start+m.perKeycode > len(m.keysyms) {
		return nil
	}
	return m.keysyms[start : start+m.perKeycode]
}

func column(row []xproto.Keysym, i int) keysym.Keysym {
	if i >= len(row) {
		return keysym.NoSymbol
	}
	return keysym.Keysym(row[i])
}

// group applies the core protocol rule for a single keysym in a group: with
// case it stands for its lower and upper forms, otherwise for itself twice.
func group(first, second keysym.Keysym) (keysym.Keysym, keysym.Keysym, bool) {
	if second != keysym.NoSymbol {
		return first, second, false
	}
	lower, upper := keysym.ConvertCase(first)
	if lower != upper {
		return lower, upper, false
	}
	return first, first, true
}

// levels returns what key produces at levels 0 to 3. Levels 2 and 3 are the
// second group, in columns 4 and 5, or 2 and 3 on maps too narrow for that.
func (m *mapping) levels(key keyboard.Keycode) []keysym.Keysym {
	row := m.row(key)
	if row == nil {
		return nil
	}

	second := 4
	if m.perKeycode < 6 {
		second = 2
	}

	l0, l1, single := group(column(row, 0), column(row, 1))
	l2, l3, _ := group(column(row, second), column(row, second+1))

	switch {
	case l2 != keysym.NoSymbol || l3 != keysym.NoSymbol:
		return []keysym.Keysym{l0, l1, l2, l3}
	case l0 == keysym.NoSymbol && l1 == keysym.NoSymbol:
		return nil
	case single:
		return []keysym.Keysym{l0}
	}
	return []keysym.Keysym{l0, l1}
}

// modifierRow returns the keycodes bound to modifier index i (0 is Shift).
func (m *mapping) modifierRow(i int) []keyboard.Keycode {
	start := i * m.perModifier
	if m.perModifier == 0 || start+m.perModifier > len(m.modKeys) {
		return nil
	}
	var keys []keyboard.Keycode
	for _, kc := range m.modKeys[start : start+m.perModifier] {
		if kc != 0 {
			keys = append(keys, keyboard.Keycode(kc))
		}
	}
	return keys
}

func (m *mapping) modifierKeys(mask keyboard.ModMask) []keyboard.Keycode {
	var keys []keyboard.Keycode
	for i := 0; i < 8; i++ {
		if mask&(1<<i) != 0 {
			keys = append(keys, m.modifierRow(i)...)
		}
	}
	return keys
}

// secondaryShift finds the modifier driven by ISO_Level3_Shift or
// Mode_switch.
func (m *mapping) secondaryShift() keyboard.ModMask {
	for i := 3; i < 8; i++ {
		for _, key := range m.modifierRow(i) {
			for _, sym := range m.row(key) {
				if keysym.Keysym(sym) == keysym.XK_ISO_Level3_Shift || keysym.Keysym(sym) == keysym.XK_Mode_switch {
					return keyboard.ModMask(1 << i)
				}
			}
		}
	}
	return 0
}

func (m *mapping) numLockSensitive(key keyboard.Keycode) bool {
	return keysym.IsKeypad(column(m.row(key), 1))
}

// slot returns the row to write for a key producing levels.
func (m *mapping) slot(levels []keysym.Keysym) []xproto.Keysym {
	row := make([]xproto.Keysym, m.perKeycode)
	for i, sym := range levels {
		if i >= 2 || i >= len(row) {
			break
		}
		row[i] = xproto.Keysym(sym)
	}
	return row
}

// keyDown tests key in a QueryKeymap bit vector.
func keyDown(keys []byte, key keyboard.Keycode) bool {
	i := int(key) / 8
	if i >= len(keys) {
		return false
	}
	return keys[i]&(1<<(key%8)) != 0
}
