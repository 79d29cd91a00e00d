package keyboard

import "errors"

var (
	// ErrUnmatchedRelease is returned when a release has no recorded press.
	ErrUnmatchedRelease = errors.New("release without matching press")
	// ErrModifierTransition is returned when the required modifiers cannot be
	// reached with the keys the layout offers.
	ErrModifierTransition = errors.New("modifier transition failed")
	// ErrResolution is returned when no key can produce the keysym.
	ErrResolution = errors.New("keysym cannot be generated")
	// ErrNoFreeKeycode is returned when allocation finds no usable slot.
	ErrNoFreeKeycode = errors.New("no free keycode")
)
