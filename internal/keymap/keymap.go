// Package keymap is an in-memory keyboard layout that can stand in for the
// host's own layout table when the host exposes none, as with uinput.
package keymap

import (
	"fmt"
	"sync"

	"github.com/jetkvm/keyinject/internal/keyboard"
	"github.com/jetkvm/keyinject/internal/keysym"
)

// Key is the definition of one keycode.
type Key struct {
	Name     string
	Levels   []keysym.Keysym
	Modifier keyboard.ModMask
	Fallback bool
	NumLock  bool
}

// Keymap maps keycodes to the keysyms they produce. It implements
// keyboard.Layout and is safe for concurrent use.
type Keymap struct {
	mu        sync.RWMutex
	name      string
	minKey    keyboard.Keycode
	maxKey    keyboard.Keycode
	keys      [256]Key
	secondary keyboard.ModMask

	listeners []func()
}

// New returns an empty keymap covering keycodes 8 to 255.
func New(name string) *Keymap {
	return &Keymap{
		name:   name,
		minKey: 8,
		maxKey: 255,
	}
}

func slotName(key keyboard.Keycode) string {
	return fmt.Sprintf("I%03d", key)
}

func (m *Keymap) Name() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.name
}

// SetKey defines key. Keys outside the keycode range are ignored.
func (m *Keymap) SetKey(code keyboard.Keycode, key Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if code < m.minKey || code > m.maxKey {
		return
	}
	key.Levels = append([]keysym.Keysym(nil), key.Levels...)
	m.keys[code] = key
}

// Key returns the definition of code.
func (m *Keymap) Key(code keyboard.Keycode) Key {
	m.mu.RLock()
	defer m.mu.RUnlock()
	key := m.keys[code]
	key.Levels = append([]keysym.Keysym(nil), key.Levels...)
	return key
}

// SetSecondaryShift sets the modifier reaching levels 2 and 3. Zero means it
// is taken from the key producing ISO_Level3_Shift or Mode_switch.
func (m *Keymap) SetSecondaryShift(mask keyboard.ModMask) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secondary = mask
}

// OnChange registers f to be called after every change to the keymap.
func (m *Keymap) OnChange(f func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, f)
}

func (m *Keymap) notify() {
	m.mu.RLock()
	listeners := append([]func(){}, m.listeners...)
	m.mu.RUnlock()
	for _, f := range listeners {
		f()
	}
}

// Replace swaps in the layout of other, keeping the registered listeners.
func (m *Keymap) Replace(other *Keymap) {
	other.mu.RLock()
	name, minKey, maxKey := other.name, other.minKey, other.maxKey
	keys, secondary := other.keys, other.secondary
	other.mu.RUnlock()

	m.mu.Lock()
	m.name, m.minKey, m.maxKey = name, minKey, maxKey
	m.keys, m.secondary = keys, secondary
	m.mu.Unlock()

	m.notify()
}

func (m *Keymap) KeycodeRange() (keyboard.Keycode, keyboard.Keycode) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.minKey, m.maxKey
}

func (m *Keymap) NumLevels(key keyboard.Keycode) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.keys[key].Levels)
}

// KeysymAt returns the keysym at level. Levels a key does not define fall
// back the way XKB key types do: without the secondary shift first, then to
// the base level.
func (m *Keymap) KeysymAt(key keyboard.Keycode, level keyboard.Level) keysym.Keysym {
	m.mu.RLock()
	defer m.mu.RUnlock()

	levels := m.keys[key].Levels
	if len(levels) == 0 {
		return keysym.NoSymbol
	}
	if int(level) >= len(levels) {
		level &^= 2
	}
	if int(level) >= len(levels) || level < 0 {
		level = 0
	}
	return levels[level]
}

// ModifierKeys returns the keycodes asserting any bit of mask, lowest first.
func (m *Keymap) ModifierKeys(mask keyboard.ModMask) []keyboard.Keycode {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []keyboard.Keycode
	for k := int(m.minKey); k <= int(m.maxKey); k++ {
		if m.keys[k].Modifier&mask != 0 {
			keys = append(keys, keyboard.Keycode(k))
		}
	}
	return keys
}

// Modifier returns the modifier bits key asserts.
func (m *Keymap) Modifier(key keyboard.Keycode) keyboard.ModMask {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.keys[key].Modifier
}

func (m *Keymap) SecondaryShiftMask() keyboard.ModMask {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.secondary != 0 {
		return m.secondary
	}
	for k := int(m.minKey); k <= int(m.maxKey); k++ {
		key := m.keys[k]
		if key.Modifier == 0 {
			continue
		}
		for _, sym := range key.Levels {
			if sym == keysym.XK_ISO_Level3_Shift || sym == keysym.XK_Mode_switch {
				return key.Modifier
			}
		}
	}
	return 0
}

func (m *Keymap) IsFallbackOnly(key keyboard.Keycode) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.keys[key].Fallback
}

func (m *Keymap) IsNumLockSensitive(key keyboard.Keycode) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.keys[key].NumLock
}

// ReconfigureSlot replaces the levels of key. Nil levels clear the key.
func (m *Keymap) ReconfigureSlot(key keyboard.Keycode, name string, levels []keysym.Keysym) error {
	m.mu.Lock()
	if key < m.minKey || key > m.maxKey {
		m.mu.Unlock()
		return fmt.Errorf("keycode %d outside %d-%d", key, m.minKey, m.maxKey)
	}
	if len(levels) == 0 {
		m.keys[key] = Key{}
	} else {
		if name == "" {
			name = slotName(key)
		}
		m.keys[key] = Key{
			Name:   name,
			Levels: append([]keysym.Keysym(nil), levels...),
		}
	}
	m.mu.Unlock()

	m.notify()
	return nil
}
