package keyboard

import (
	"fmt"

	"github.com/jetkvm/keyinject/internal/keysym"
)

// resolution is a key and the modifier state it has to be pressed in.
type resolution struct {
	key   Keycode
	state ModMask
}

// lookup finds a key producing sym in state as it is. Keys the host marks as
// fallback-only are used only when nothing else matches, since applications
// can get confused by keys a real keyboard never sends. With Lock in state a
// key is taken to produce the upper case form of its keysym.
func (e *Engine) lookup(sym keysym.Keysym, state ModMask) (Keycode, bool) {
	minKey, maxKey := e.host.KeycodeRange()
	level := levelOf(state, e.host.SecondaryShiftMask())

	var fallback Keycode
	haveFallback := false
	for k := int(minKey); k <= int(maxKey); k++ {
		key := Keycode(k)
		if e.host.NumLevels(key) == 0 {
			continue
		}
		produced := e.host.KeysymAt(key, level)
		if state&LockMask != 0 {
			_, produced = keysym.ConvertCase(produced)
		}
		if produced != sym {
			continue
		}
		if e.host.IsFallbackOnly(key) {
			if !haveFallback {
				fallback, haveFallback = key, true
			}
			continue
		}
		return key, true
	}

	return fallback, haveFallback
}

// search finds a key producing sym, first in state and then at every other
// level reachable with Shift and the secondary shift.
func (e *Engine) search(sym keysym.Keysym, state ModMask) (resolution, bool) {
	if key, ok := e.lookup(sym, state); ok {
		return resolution{key: key, state: state}, true
	}

	secondary := e.host.SecondaryShiftMask()
	current := levelOf(state, secondary)
	for level := Level(0); level <= MaxLevel; level++ {
		if level == current {
			continue
		}
		if level&2 != 0 && secondary == 0 {
			continue
		}
		newState := stateFor(state, secondary, level)
		if key, ok := e.lookup(sym, newState); ok {
			return resolution{key: key, state: newState}, true
		}
	}

	return resolution{}, false
}

// searchEquivalents tries the keysyms interchangeable with sym, in table
// order. accept, if set, can reject otherwise valid candidates.
func (e *Engine) searchEquivalents(sym keysym.Keysym, state ModMask, accept func(resolution) bool) (resolution, bool) {
	for _, alt := range keysym.Equivalents(sym) {
		res, ok := e.search(alt, state)
		if !ok {
			continue
		}
		if accept != nil && !accept(res) {
			continue
		}
		return res, true
	}
	return resolution{}, false
}

// resolve works out which key to press, and in which modifier state, to
// produce sym when the keyboard is currently in state. Only Shift and the
// secondary shift are ever changed, which covers core keyboards and sane
// western layouts.
func (e *Engine) resolve(sym keysym.Keysym, state ModMask) (resolution, error) {
	target := sym
	forceShift := false
	if sym == keysym.XK_ISO_Left_Tab {
		target = keysym.XK_Tab
		forceShift = true
	}

	res, ok := e.search(target, state)

	// Shift+Alt is often mapped to Meta, so try that rather than allocating a
	// new entry, faking a Shift release or using a dummy key.
	if state&ShiftMask != 0 && (target == keysym.XK_Alt_L || target == keysym.XK_Alt_R) {
		meta := keysym.XK_Meta_L
		if target == keysym.XK_Alt_R {
			meta = keysym.XK_Meta_R
		}

		alt, altOK := e.lookup(target, state&^ShiftMask)
		metaKey, metaOK := e.lookup(meta, state)
		if altOK && metaOK && alt == metaKey {
			e.log.Debug().Stringer("keysym", target).Msg("Replacing Shift+Alt with Shift+Meta")
			res, ok = resolution{key: metaKey, state: state}, true
		}
	}

	if !ok {
		res, ok = e.searchEquivalents(target, state, nil)
	}

	if !ok {
		key, err := e.allocate(target)
		if err != nil {
			return resolution{}, fmt.Errorf("%w: %s: %w", ErrResolution, target, err)
		}

		// The new slot may still need a modifier change, e.g. for upper case
		res, ok = e.search(target, state)
		if !ok {
			return resolution{}, fmt.Errorf("%w: keysym %s added to keycode %d is not reachable", ErrResolution, target, key)
		}
	}

	// Shift toggles the numeric pad like NumLock does on X11, but not on most
	// other systems, so clients without NumLock synchronisation get confused
	// by a fake Shift there. Prefer an equivalent keysym that avoids it.
	if e.opts.AvoidShiftNumLock && (state^res.state)&ShiftMask != 0 && e.host.IsNumLockSensitive(res.key) {
		e.log.Debug().Stringer("keysym", target).Msg("Finding alternative keysym to avoid fake shift for numpad")

		alt, found := e.searchEquivalents(target, state, func(r resolution) bool {
			return (state^r.state)&ShiftMask == 0 || !e.host.IsNumLockSensitive(r.key)
		})
		if found {
			res = alt
		} else {
			e.log.Debug().Msg("No alternative keysym found")
		}
	}

	// Clients always send plain Tab and expect the current Shift state to
	// decide its meaning, so never let a shifted Tab lose its Shift.
	if target == keysym.XK_Tab && (forceShift || state&ShiftMask != 0) {
		res.state |= ShiftMask
	}

	return res, nil
}
