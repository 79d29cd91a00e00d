// Package keyboard turns keysyms received from a remote client into press and
// release events on a local keyboard whose layout is only known through
// queries to the host.
package keyboard

import "github.com/jetkvm/keyinject/internal/keysym"

// Keycode is a key slot in the host layout. Its meaning belongs to the host and
// may change whenever the layout is reloaded.
type Keycode uint8

// Level selects one of the keysyms a key can produce. Level 0 is unshifted.
type Level int

// ModMask is a set of modifier bits, laid out like the X11 core state.
type ModMask uint16

const (
	ShiftMask   ModMask = 1 << 0
	LockMask    ModMask = 1 << 1
	ControlMask ModMask = 1 << 2
	Mod1Mask    ModMask = 1 << 3
	Mod2Mask    ModMask = 1 << 4
	Mod3Mask    ModMask = 1 << 5
	Mod4Mask    ModMask = 1 << 6
	Mod5Mask    ModMask = 1 << 7
)

// MaxLevel is the highest level reachable with Shift and the secondary shift.
const MaxLevel Level = 3

// Layout is the host's keyboard mapping. Answers are only valid for the event
// being processed; nothing returned here is kept across events.
type Layout interface {
	// KeycodeRange returns the lowest and highest valid keycodes.
	KeycodeRange() (min, max Keycode)
	// NumLevels returns how many levels key defines. Zero means an unused slot.
	NumLevels(key Keycode) int
	// KeysymAt returns the keysym key produces when the modifiers select level.
	KeysymAt(key Keycode, level Level) keysym.Keysym
	// ModifierKeys returns the keycodes that assert any bit of mask.
	ModifierKeys(mask ModMask) []Keycode
	// SecondaryShiftMask returns the modifier bit reaching levels 2 and 3, or
	// zero if the layout has none.
	SecondaryShiftMask() ModMask
	// IsFallbackOnly reports keys never sent by a real keyboard.
	IsFallbackOnly(key Keycode) bool
	// IsNumLockSensitive reports keys whose levels swap with NumLock.
	IsNumLockSensitive(key Keycode) bool
	// ReconfigureSlot replaces the levels of key and tells the host the map
	// changed. Hosts without named slots ignore name; nil levels empty the slot.
	ReconfigureSlot(key Keycode, name string, levels []keysym.Keysym) error
}

// State is the live keyboard state of the host.
type State interface {
	ModifierState() ModMask
	IsDown(key Keycode) bool
}

// Emitter injects synthetic key events.
type Emitter interface {
	Emit(key Keycode, down bool) error
	// Flush makes the host apply every queued event before state is sampled.
	Flush() error
}

// Host is everything the engine needs from the local input subsystem.
type Host interface {
	Layout
	State
	Emitter
}

// levelOf returns the level selected by state.
func levelOf(state, secondary ModMask) Level {
	var level Level
	if state&ShiftMask != 0 {
		level |= 1
	}
	if secondary != 0 && state&secondary != 0 {
		level |= 2
	}
	return level
}

// stateFor returns state adjusted so that it selects level.
func stateFor(state, secondary ModMask, level Level) ModMask {
	state &^= ShiftMask | secondary
	if level&1 != 0 {
		state |= ShiftMask
	}
	if level&2 != 0 {
		state |= secondary
	}
	return state
}
