package keyboard

import (
	"fmt"

	"github.com/jetkvm/keyinject/internal/keysym"
)

// addedKey is a slot the engine filled with a keysym of its own.
type addedKey struct {
	sym keysym.Keysym
	key Keycode
}

// addedKeys is kept in least recently used order, most recent first.
type addedKeys []addedKey

// touch moves key to the front of the list if it is one of ours.
func (a *addedKeys) touch(key Keycode) {
	list := *a
	for i, added := range list {
		if added.key != key {
			continue
		}
		copy(list[1:i+1], list[:i])
		list[0] = added
		return
	}
}

// intact reports whether the host still holds our keysym in added.key.
func (e *Engine) intact(added addedKey) bool {
	return e.host.NumLevels(added.key) > 0 && e.host.KeysymAt(added.key, 0) == added.sym
}

// reusableKeycode takes the least recently used added slot that nobody has
// modified since and that is not held down. Modified slots are forgotten.
func (e *Engine) reusableKeycode() (Keycode, bool) {
	for i := len(e.added) - 1; i >= 0; i-- {
		added := e.added[i]
		if e.pressed.has(added.key) {
			continue
		}
		e.added = append(e.added[:i], e.added[i+1:]...)
		if e.intact(added) {
			return added.key, true
		}
	}
	return 0, false
}

// slotName is the diagnostic name given to allocated slots. Tools like
// xkbcomp get confused by unnamed keycodes.
func slotName(key Keycode) string {
	return fmt.Sprintf("I%03d", key)
}

// allocate adds sym to the layout on an unused keycode, scanning down from the
// top of the range. Keysyms with case get a two level slot so that Lock can
// still produce both forms.
func (e *Engine) allocate(sym keysym.Keysym) (Keycode, error) {
	minKey, maxKey := e.host.KeycodeRange()

	var key Keycode
	found := false
	for k := int(maxKey); k >= int(minKey); k-- {
		if e.host.NumLevels(Keycode(k)) == 0 {
			key, found = Keycode(k), true
			break
		}
	}
	if !found {
		key, found = e.reusableKeycode()
	}
	if !found {
		return 0, ErrNoFreeKeycode
	}

	lower, upper := keysym.ConvertCase(sym)
	levels := []keysym.Keysym{sym}
	if lower != upper {
		levels = []keysym.Keysym{lower, upper}
	}

	if err := e.host.ReconfigureSlot(key, slotName(key), levels); err != nil {
		return 0, fmt.Errorf("failed to reconfigure keycode %d: %w", key, err)
	}

	e.added = append(addedKeys{{sym: levels[0], key: key}}, e.added...)
	allocatedKeysymsTotal.Inc()
	e.log.Info().Stringer("keysym", sym).Uint8("keycode", uint8(key)).Msg("Added unknown keysym")

	return key, nil
}

// removeAdded empties every slot the engine allocated that is still intact.
func (e *Engine) removeAdded() error {
	var firstErr error
	for _, added := range e.added {
		if !e.intact(added) {
			continue
		}
		if err := e.host.ReconfigureSlot(added.key, "", nil); err != nil {
			e.log.Warn().Err(err).Uint8("keycode", uint8(added.key)).Msg("failed to remove added keysym")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	e.added = nil
	return firstErr
}
