package keyboard

import "github.com/jetkvm/keyinject/internal/keysym"

// pressedKeys maps every key the engine holds down to the keysym it was
// pressed for. Releases are matched against this table, never re-resolved.
type pressedKeys [256]keysym.Keysym

// find returns the lowest keycode recorded for sym.
func (p *pressedKeys) find(sym keysym.Keysym) (Keycode, bool) {
	if sym == keysym.NoSymbol {
		return 0, false
	}
	for i := range p {
		if p[i] == sym {
			return Keycode(i), true
		}
	}
	return 0, false
}

// record stores key as producing sym. It returns the keysym previously held
// by key, if different, and the other keys that were recorded for sym. Both
// are evicted so that sym is held by at most one key.
func (p *pressedKeys) record(key Keycode, sym keysym.Keysym) (stale keysym.Keysym, others []Keycode) {
	if prev := p[key]; prev != keysym.NoSymbol && prev != sym {
		stale = prev
	}
	if sym != keysym.NoSymbol {
		for i := range p {
			if Keycode(i) != key && p[i] == sym {
				p[i] = keysym.NoSymbol
				others = append(others, Keycode(i))
			}
		}
	}
	p[key] = sym
	return stale, others
}

func (p *pressedKeys) clear(key Keycode) {
	p[key] = keysym.NoSymbol
}

func (p *pressedKeys) has(key Keycode) bool {
	return p[key] != keysym.NoSymbol
}

// held returns every recorded key, lowest first.
func (p *pressedKeys) held() []Keycode {
	var keys []Keycode
	for i := range p {
		if p[i] != keysym.NoSymbol {
			keys = append(keys, Keycode(i))
		}
	}
	return keys
}
