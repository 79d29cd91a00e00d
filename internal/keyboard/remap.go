package keyboard

import (
	"fmt"
	"strings"

	"github.com/jetkvm/keyinject/internal/keysym"
)

// Remapper rewrites incoming keysyms before they reach the resolver.
type Remapper struct {
	mapping map[keysym.Keysym]keysym.Keysym
}

// ParseRemap builds a Remapper from entries of the form "0x22->0x27" (one way)
// or "0x22<>0x27" (both ways). Each entry may hold several mappings separated
// by commas.
func ParseRemap(entries []string) (*Remapper, error) {
	r := &Remapper{mapping: make(map[keysym.Keysym]keysym.Keysym)}
	for _, entry := range entries {
		for _, item := range strings.Split(entry, ",") {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			if err := r.add(item); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

func (r *Remapper) add(item string) error {
	sep, bidirectional := "->", false
	if strings.Contains(item, "<>") {
		sep, bidirectional = "<>", true
	}

	from, to, ok := strings.Cut(item, sep)
	if !ok {
		return fmt.Errorf("invalid key remap %q", item)
	}
	fromSym, err := keysym.Parse(from)
	if err != nil {
		return fmt.Errorf("invalid key remap %q: %w", item, err)
	}
	toSym, err := keysym.Parse(to)
	if err != nil {
		return fmt.Errorf("invalid key remap %q: %w", item, err)
	}

	r.mapping[fromSym] = toSym
	if bidirectional {
		r.mapping[toSym] = fromSym
	}
	return nil
}

// Remap returns the keysym sym should be treated as.
func (r *Remapper) Remap(sym keysym.Keysym) keysym.Keysym {
	if r == nil {
		return sym
	}
	if to, ok := r.mapping[sym]; ok {
		return to
	}
	return sym
}

// Len returns the number of mappings.
func (r *Remapper) Len() int {
	if r == nil {
		return 0
	}
	return len(r.mapping)
}
