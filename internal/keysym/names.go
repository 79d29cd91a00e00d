package keysym

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

var keysymNames = map[Keysym]string{
	XK_BackSpace:        "BackSpace",
	XK_Tab:              "Tab",
	XK_Return:           "Return",
	XK_Pause:            "Pause",
	XK_Scroll_Lock:      "Scroll_Lock",
	XK_Sys_Req:          "Sys_Req",
	XK_Escape:           "Escape",
	XK_Multi_key:        "Multi_key",
	XK_Home:             "Home",
	XK_Left:             "Left",
	XK_Up:               "Up",
	XK_Right:            "Right",
	XK_Down:             "Down",
	XK_Page_Up:          "Page_Up",
	XK_Page_Down:        "Page_Down",
	XK_End:              "End",
	XK_Begin:            "Begin",
	XK_Print:            "Print",
	XK_Insert:           "Insert",
	XK_Menu:             "Menu",
	XK_Mode_switch:      "Mode_switch",
	XK_Num_Lock:         "Num_Lock",
	XK_KP_Space:         "KP_Space",
	XK_KP_Tab:           "KP_Tab",
	XK_KP_Enter:         "KP_Enter",
	XK_KP_F1:            "KP_F1",
	XK_KP_F2:            "KP_F2",
	XK_KP_F3:            "KP_F3",
	XK_KP_F4:            "KP_F4",
	XK_KP_Home:          "KP_Home",
	XK_KP_Left:          "KP_Left",
	XK_KP_Up:            "KP_Up",
	XK_KP_Right:         "KP_Right",
	XK_KP_Down:          "KP_Down",
	XK_KP_Page_Up:       "KP_Page_Up",
	XK_KP_Page_Down:     "KP_Page_Down",
	XK_KP_End:           "KP_End",
	XK_KP_Begin:         "KP_Begin",
	XK_KP_Insert:        "KP_Insert",
	XK_KP_Delete:        "KP_Delete",
	XK_KP_Multiply:      "KP_Multiply",
	XK_KP_Add:           "KP_Add",
	XK_KP_Separator:     "KP_Separator",
	XK_KP_Subtract:      "KP_Subtract",
	XK_KP_Decimal:       "KP_Decimal",
	XK_KP_Divide:        "KP_Divide",
	XK_KP_0:             "KP_0",
	XK_KP_1:             "KP_1",
	XK_KP_2:             "KP_2",
	XK_KP_3:             "KP_3",
	XK_KP_4:             "KP_4",
	XK_KP_5:             "KP_5",
	XK_KP_6:             "KP_6",
	XK_KP_7:             "KP_7",
	XK_KP_8:             "KP_8",
	XK_KP_9:             "KP_9",
	XK_KP_Equal:         "KP_Equal",
	XK_F1:               "F1",
	XK_F2:               "F2",
	XK_F3:               "F3",
	XK_F4:               "F4",
	XK_F5:               "F5",
	XK_F6:               "F6",
	XK_F7:               "F7",
	XK_F8:               "F8",
	XK_F9:               "F9",
	XK_F10:              "F10",
	XK_F11:              "F11",
	XK_F12:              "F12",
	XK_Shift_L:          "Shift_L",
	XK_Shift_R:          "Shift_R",
	XK_Control_L:        "Control_L",
	XK_Control_R:        "Control_R",
	XK_Caps_Lock:        "Caps_Lock",
	XK_Meta_L:           "Meta_L",
	XK_Meta_R:           "Meta_R",
	XK_Alt_L:            "Alt_L",
	XK_Alt_R:            "Alt_R",
	XK_Super_L:          "Super_L",
	XK_Super_R:          "Super_R",
	XK_Hyper_L:          "Hyper_L",
	XK_Hyper_R:          "Hyper_R",
	XK_Delete:           "Delete",
	XK_ISO_Level3_Shift: "ISO_Level3_Shift",
	XK_ISO_Level5_Shift: "ISO_Level5_Shift",
	XK_ISO_Left_Tab:     "ISO_Left_Tab",
	XK_space:            "space",
}

// Inverse of keysymNames.
var nameKeysyms = map[string]Keysym{}

func init() {
	for k, v := range keysymNames {
		nameKeysyms[v] = k
	}
}

// Parse converts a keysym description into its value. It accepts keysym
// names ("Shift_L"), a single character ("a", "é"), hex values ("0xffe1")
// and Unicode code points ("U+2615").
func Parse(s string) (Keysym, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NoSymbol, fmt.Errorf("empty keysym")
	}
	if s == "NoSymbol" {
		return NoSymbol, nil
	}
	if k, ok := nameKeysyms[s]; ok {
		return k, nil
	}
	if utf8.RuneCountInString(s) == 1 {
		r, _ := utf8.DecodeRuneInString(s)
		return FromRune(r), nil
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 32)
		if err != nil {
			return NoSymbol, fmt.Errorf("invalid keysym %q: %w", s, err)
		}
		return Keysym(v), nil
	}
	if strings.HasPrefix(s, "U+") || strings.HasPrefix(s, "u+") {
		v, err := strconv.ParseUint(s[2:], 16, 32)
		if err != nil || v > utf8.MaxRune {
			return NoSymbol, fmt.Errorf("invalid code point %q", s)
		}
		return FromRune(rune(v)), nil
	}
	return NoSymbol, fmt.Errorf("unknown keysym %q", s)
}
