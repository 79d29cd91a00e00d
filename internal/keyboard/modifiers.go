package keyboard

import "fmt"

// modStep is one temporary modifier key event.
type modStep struct {
	key    Keycode
	down   bool
	reason string
}

// transition is the sequence of modifier key events that moves the keyboard
// from its current state to the one a key has to be pressed in. Undoing it
// replays the steps backwards, so the physical modifier keys end up exactly as
// they were, not just the logical state.
type transition []modStep

// planTransition computes the transition from state to required without
// emitting anything. It fails if a needed modifier has no key to drive it.
func (e *Engine) planTransition(state, required ModMask) (transition, error) {
	if state == required {
		return nil, nil
	}

	// Keys down state must not lag behind what we queued earlier
	e.flush()

	mods := []struct {
		mask   ModMask
		name   string
		reason string
	}{
		{ShiftMask, "Shift", "temp shift"},
		{e.host.SecondaryShiftMask(), "ISO_Level3_Shift/Mode_switch", "temp level 3 shift"},
	}

	var t transition
	for _, mod := range mods {
		if mod.mask == 0 {
			continue
		}

		switch {
		case state&mod.mask == 0 && required&mod.mask != 0:
			key, ok := e.modifierKey(mod.mask)
			if !ok {
				return nil, fmt.Errorf("%w: unable to find a modifier key for %s", ErrModifierTransition, mod.name)
			}
			t = append(t, modStep{key: key, down: true, reason: mod.reason})

		case state&mod.mask != 0 && required&mod.mask == 0:
			n := len(t)
			for _, key := range e.host.ModifierKeys(mod.mask) {
				if e.host.IsDown(key) {
					t = append(t, modStep{key: key, down: false, reason: mod.reason})
				}
			}
			if len(t) == n {
				return nil, fmt.Errorf("%w: unable to find the modifier key(s) for releasing %s", ErrModifierTransition, mod.name)
			}
		}
	}

	return t, nil
}

// modifierKey picks the key to press for mask, skipping fallback-only keys
// unless nothing else drives it.
func (e *Engine) modifierKey(mask ModMask) (Keycode, bool) {
	keys := e.host.ModifierKeys(mask)
	for _, key := range keys {
		if !e.host.IsFallbackOnly(key) {
			return key, true
		}
	}
	if len(keys) == 0 {
		return 0, false
	}
	return keys[0], true
}

func (e *Engine) apply(t transition) {
	for _, step := range t {
		e.emit(step.key, step.down, step.reason)
	}
	fakeModifierEventsTotal.Add(float64(len(t)))
}

func (e *Engine) undo(t transition) {
	for i := len(t) - 1; i >= 0; i-- {
		e.emit(t[i].key, !t[i].down, t[i].reason)
	}
	fakeModifierEventsTotal.Add(float64(len(t)))
}
