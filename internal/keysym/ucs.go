package keysym

import "unicode"

// ToRune returns the character a keysym stands for. Only the Latin-1 range and
// the directly encoded Unicode range are covered; function keys report false.
func ToRune(k Keysym) (rune, bool) {
	switch {
	case 0x20 <= k && k <= 0x7e, 0xa0 <= k && k <= 0xff:
		return rune(k), true
	case unicodeOffset+0x100 <= k && k <= unicodeOffset+unicode.MaxRune:
		return rune(k - unicodeOffset), true
	}
	return 0, false
}

// FromRune returns the keysym producing r.
func FromRune(r rune) Keysym {
	switch {
	case r == '\b':
		return XK_BackSpace
	case r == '\t':
		return XK_Tab
	case r == '\n', r == '\r':
		return XK_Return
	case r == 0x1b:
		return XK_Escape
	case 0x20 <= r && r <= 0x7e, 0xa0 <= r && r <= 0xff:
		return Keysym(r)
	}
	return Keysym(unicodeOffset + uint32(r))
}

// ConvertCase returns the lower and upper case forms of k. Keysyms without
// case come back unchanged.
func ConvertCase(k Keysym) (lower, upper Keysym) {
	if lower, upper, ok := legacyCase(k); ok {
		return lower, upper
	}

	r, ok := ToRune(k)
	if !ok {
		return k, k
	}

	// Micro sign and sharp s have no Latin-1 counterpart
	if r == 0xb5 || r == 0xdf {
		return k, k
	}

	lower, upper = FromRune(unicode.ToLower(r)), FromRune(unicode.ToUpper(r))
	return lower, upper
}

// legacyCase covers the pre-Unicode Latin 2, 3, 4 and 9, Cyrillic and Greek
// keysym blocks, where upper and lower case sit at fixed offsets.
func legacyCase(k Keysym) (lower, upper Keysym, ok bool) {
	in := func(lo, hi Keysym) bool { return lo <= k && k <= hi }

	switch k >> 8 {
	case 1: // Latin 2
		switch {
		case k == 0x1a1, k == 0x1a3, in(0x1a5, 0x1a6), in(0x1a9, 0x1ac), in(0x1ae, 0x1af):
			return k + 0x10, k, true
		case k == 0x1b1, k == 0x1b3, in(0x1b5, 0x1b6), in(0x1b9, 0x1bc), in(0x1be, 0x1bf):
			return k, k - 0x10, true
		case in(0x1c0, 0x1de):
			return k + 0x20, k, true
		case in(0x1e0, 0x1fe):
			return k, k - 0x20, true
		}

	case 2: // Latin 3
		switch {
		case in(0x2a1, 0x2a6), in(0x2ab, 0x2ac):
			return k + 0x10, k, true
		case in(0x2b1, 0x2b6), in(0x2bb, 0x2bc):
			return k, k - 0x10, true
		case in(0x2c5, 0x2de):
			return k + 0x20, k, true
		case in(0x2e5, 0x2fe):
			return k, k - 0x20, true
		}

	case 3: // Latin 4
		switch {
		case in(0x3a3, 0x3ac):
			return k + 0x10, k, true
		case in(0x3b3, 0x3bc):
			return k, k - 0x10, true
		case k == 0x3bd:
			return 0x3bf, k, true
		case k == 0x3bf:
			return k, 0x3bd, true
		case in(0x3c0, 0x3de):
			return k + 0x20, k, true
		case in(0x3e0, 0x3fe):
			return k, k - 0x20, true
		}

	case 6: // Cyrillic
		switch {
		case in(0x6a1, 0x6af):
			return k, k + 0x10, true
		case in(0x6b1, 0x6bf):
			return k - 0x10, k, true
		case in(0x6c0, 0x6df):
			return k, k + 0x20, true
		case in(0x6e0, 0x6ff):
			return k - 0x20, k, true
		}

	case 7: // Greek
		switch {
		case in(0x7a1, 0x7ab):
			return k + 0x10, k, true
		case in(0x7b1, 0x7bb) && k != 0x7b6 && k != 0x7ba:
			return k, k - 0x10, true
		case in(0x7c1, 0x7d9):
			return k + 0x20, k, true
		case in(0x7e1, 0x7f9) && k != 0x7f3:
			return k, k - 0x20, true
		}

	case 0x13: // Latin 9
		switch k {
		case 0x13bc:
			return 0x13bd, k, true
		case 0x13bd:
			return k, 0x13bc, true
		}
	}

	return k, k, false
}
