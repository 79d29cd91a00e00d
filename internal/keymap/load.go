package keymap

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/jetkvm/keyinject/internal/keyboard"
	"github.com/jetkvm/keyinject/internal/keysym"
	"gopkg.in/yaml.v3"
)

//go:embed us.yaml
var usLayout []byte

type layoutFile struct {
	Name           string    `yaml:"name"`
	MinKeycode     int       `yaml:"min_keycode,omitempty"`
	MaxKeycode     int       `yaml:"max_keycode,omitempty"`
	SecondaryShift string    `yaml:"secondary_shift,omitempty"`
	Keys           []keyFile `yaml:"keys"`
}

type keyFile struct {
	Code     int      `yaml:"code"`
	Name     string   `yaml:"name,omitempty"`
	Levels   []string `yaml:"levels,flow"`
	Modifier string   `yaml:"modifier,omitempty"`
	Fallback bool     `yaml:"fallback,omitempty"`
	NumLock  *bool    `yaml:"numlock,omitempty"`
}

var modifierNames = map[string]keyboard.ModMask{
	"shift":   keyboard.ShiftMask,
	"lock":    keyboard.LockMask,
	"control": keyboard.ControlMask,
	"mod1":    keyboard.Mod1Mask,
	"mod2":    keyboard.Mod2Mask,
	"mod3":    keyboard.Mod3Mask,
	"mod4":    keyboard.Mod4Mask,
	"mod5":    keyboard.Mod5Mask,
}

// ParseModifier converts a modifier name (shift, lock, control, mod1 to mod5)
// into its mask. The empty string is no modifier.
func ParseModifier(s string) (keyboard.ModMask, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, nil
	}
	mask, ok := modifierNames[s]
	if !ok {
		return 0, fmt.Errorf("unknown modifier %q", s)
	}
	return mask, nil
}

// Default returns the built-in US pc105 layout as an evdev based X server
// would present it.
func Default() *Keymap {
	m, err := Parse(usLayout)
	if err != nil {
		panic(fmt.Sprintf("built-in keymap: %v", err))
	}
	return m
}

// Load reads a YAML layout file.
func Load(path string) (*Keymap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keymap: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a YAML layout. A key is NumLock sensitive when it says so,
// or by default when its second level is a keypad keysym.
func Parse(data []byte) (*Keymap, error) {
	var f layoutFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse keymap: %w", err)
	}

	m := New(f.Name)
	if f.MinKeycode != 0 || f.MaxKeycode != 0 {
		if f.MinKeycode < 1 || f.MaxKeycode > 255 || f.MinKeycode > f.MaxKeycode {
			return nil, fmt.Errorf("invalid keycode range %d-%d", f.MinKeycode, f.MaxKeycode)
		}
		m.minKey, m.maxKey = keyboard.Keycode(f.MinKeycode), keyboard.Keycode(f.MaxKeycode)
	}

	secondary, err := ParseModifier(f.SecondaryShift)
	if err != nil {
		return nil, fmt.Errorf("secondary_shift: %w", err)
	}
	m.secondary = secondary

	for _, kf := range f.Keys {
		if kf.Code < int(m.minKey) || kf.Code > int(m.maxKey) {
			return nil, fmt.Errorf("key %d outside keycode range", kf.Code)
		}
		key, err := kf.key()
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", kf.Code, err)
		}
		m.keys[kf.Code] = key
	}

	return m, nil
}

func (kf keyFile) key() (Key, error) {
	key := Key{Name: kf.Name, Fallback: kf.Fallback}

	for _, s := range kf.Levels {
		sym, err := keysym.Parse(s)
		if err != nil {
			return Key{}, err
		}
		key.Levels = append(key.Levels, sym)
	}
	if len(key.Levels) > int(keyboard.MaxLevel)+1 {
		return Key{}, fmt.Errorf("%d levels, at most %d supported", len(key.Levels), keyboard.MaxLevel+1)
	}

	mod, err := ParseModifier(kf.Modifier)
	if err != nil {
		return Key{}, err
	}
	key.Modifier = mod

	if kf.NumLock != nil {
		key.NumLock = *kf.NumLock
	} else {
		key.NumLock = len(key.Levels) > 1 && keysym.IsKeypad(key.Levels[1])
	}

	return key, nil
}

// Marshal encodes m in the format Parse reads.
func (m *Keymap) Marshal() ([]byte, error) {
	m.mu.RLock()
	f := layoutFile{
		Name:       m.name,
		MinKeycode: int(m.minKey),
		MaxKeycode: int(m.maxKey),
	}
	for name, mask := range modifierNames {
		if m.secondary == mask {
			f.SecondaryShift = name
		}
	}
	for code := int(m.minKey); code <= int(m.maxKey); code++ {
		key := m.keys[code]
		if len(key.Levels) == 0 {
			continue
		}
		kf := keyFile{Code: code, Name: key.Name, Fallback: key.Fallback}
		for _, sym := range key.Levels {
			kf.Levels = append(kf.Levels, fmt.Sprintf("0x%x", uint32(sym)))
		}
		for name, mask := range modifierNames {
			if key.Modifier == mask {
				kf.Modifier = name
			}
		}
		numLock := key.NumLock
		kf.NumLock = &numLock
		f.Keys = append(f.Keys, kf)
	}
	m.mu.RUnlock()

	return yaml.Marshal(&f)
}
