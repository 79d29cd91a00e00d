package keyboard

import (
	"testing"

	"github.com/jetkvm/keyinject/internal/keysym"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const coffee keysym.Keysym = 0x01002615

func TestResolveDirect(t *testing.T) {
	h := newPCHost()
	e := newTestEngine(h, DefaultOptions())

	res, err := e.resolve(keysym.XK_a, 0)
	require.NoError(t, err)
	assert.Equal(t, resolution{key: 38, state: 0}, res)

	e.KeyEvent(keysym.XK_a, 0, true)
	assert.Equal(t, []event{press(38)}, h.events)
	assert.Equal(t, keysym.XK_a, e.pressed[38])
}

func TestResolveKeepsOtherModifiers(t *testing.T) {
	h := newPCHost()
	e := newTestEngine(h, DefaultOptions())

	res, err := e.resolve(keysym.XK_A, ControlMask|Mod1Mask)
	require.NoError(t, err)
	assert.Equal(t, resolution{key: 38, state: ControlMask | Mod1Mask | ShiftMask}, res)
}

func TestCapsLockUpperCase(t *testing.T) {
	h := newPCHost()
	h.locks = LockMask
	e := newTestEngine(h, DefaultOptions())

	res, err := e.resolve(keysym.XK_A, LockMask)
	require.NoError(t, err)
	assert.Equal(t, resolution{key: 38, state: LockMask}, res)

	e.KeyEvent(keysym.XK_A, 0, true)
	e.KeyEvent(keysym.XK_A, 0, false)
	assert.Equal(t, []event{press(38), release(38)}, h.events)
}

func TestCapsLockCaselessKeysym(t *testing.T) {
	h := newPCHost()
	h.locks = LockMask
	e := newTestEngine(h, DefaultOptions())

	e.KeyEvent(0x21, 0, true)
	assert.Equal(t, []event{press(50), press(10), release(50)}, h.events)
}

func TestPressNeedingShift(t *testing.T) {
	h := newPCHost()
	e := newTestEngine(h, DefaultOptions())

	e.KeyEvent(keysym.XK_A, 0, true)
	e.KeyEvent(keysym.XK_A, 0, false)

	assert.Equal(t, []event{press(50), press(38), release(50), release(38)}, h.events)
	assert.Empty(t, h.downKeys())
	assert.Empty(t, e.Held())
}

func TestPressWithShiftAlreadyDown(t *testing.T) {
	h := newPCHost()
	h.hold(62)
	e := newTestEngine(h, DefaultOptions())

	e.KeyEvent(keysym.XK_A, 0, true)
	assert.Equal(t, []event{press(38)}, h.events)
}

func TestPressLevelThree(t *testing.T) {
	h := newPCHost()
	e := newTestEngine(h, DefaultOptions())

	e.KeyEvent(0x20ac, 0, true)
	assert.Equal(t, []event{press(108), press(26), release(108)}, h.events)
}

func TestLevelThreeAvoidsFallbackModifier(t *testing.T) {
	h := newPCHost()
	h.modKeys[Mod5Mask] = []Keycode{92, 108}
	e := newTestEngine(h, DefaultOptions())

	e.KeyEvent(0x20ac, 0, true)
	assert.Equal(t, []event{press(108), press(26), release(108)}, h.events)
}

func TestLevelThreeFallbackModifierOnly(t *testing.T) {
	h := newPCHost()
	h.modKeys[Mod5Mask] = []Keycode{92}
	e := newTestEngine(h, DefaultOptions())

	e.KeyEvent(0x20ac, 0, true)
	assert.Equal(t, []event{press(92), press(26), release(92)}, h.events)
}

func TestModifierRestoreBothLevelThreeKeys(t *testing.T) {
	h := newPCHost()
	h.hold(108, 92)
	e := newTestEngine(h, DefaultOptions())

	e.KeyEvent(0x65, 0, true)

	assert.Equal(t, []event{
		release(108), release(92),
		press(26),
		press(92), press(108),
	}, h.events)
	assert.Equal(t, []Keycode{26, 92, 108}, h.downKeys())
	assert.Equal(t, keysym.Keysym(0x65), e.pressed[26])
}

func TestModifierRestoreBothShiftKeys(t *testing.T) {
	h := newPCHost()
	h.hold(50, 62)
	e := newTestEngine(h, DefaultOptions())

	e.KeyEvent(keysym.XK_a, 0, true)

	assert.Equal(t, []event{
		release(50), release(62),
		press(38),
		press(62), press(50),
	}, h.events)
	assert.Equal(t, []Keycode{38, 50, 62}, h.downKeys())
}

func TestModifierTransitionFailureEmitsNothing(t *testing.T) {
	h := newPCHost()
	h.modKeys[ShiftMask] = nil
	e := newTestEngine(h, DefaultOptions())

	before := testutil.ToFloat64(keyEventsTotal.WithLabelValues("down", resultModifierFailure))

	_, err := e.keyEvent(keysym.XK_A, 0, true)
	require.ErrorIs(t, err, ErrModifierTransition)

	e.KeyEvent(keysym.XK_A, 0, true)
	assert.Empty(t, h.events)
	assert.Empty(t, e.Held())
	assert.Equal(t, before+1, testutil.ToFloat64(keyEventsTotal.WithLabelValues("down", resultModifierFailure)))
}

func TestReleasingModifierWithNothingDown(t *testing.T) {
	h := newPCHost()
	h.locks = ShiftMask
	e := newTestEngine(h, DefaultOptions())

	_, err := e.planTransition(ShiftMask, 0)
	assert.ErrorIs(t, err, ErrModifierTransition)
}

func TestFallbackOnlyKeysAreLast(t *testing.T) {
	h := newFakeHost()
	h.set(92, 0x78)
	h.set(120, 0x78)
	h.fallback[92] = true
	e := newTestEngine(h, DefaultOptions())

	key, ok := e.lookup(0x78, 0)
	require.True(t, ok)
	assert.Equal(t, Keycode(120), key)

	delete(h.levels, 120)
	key, ok = e.lookup(0x78, 0)
	require.True(t, ok)
	assert.Equal(t, Keycode(92), key)
}

func TestLowestKeycodeWins(t *testing.T) {
	h := newFakeHost()
	h.set(200, 0x78)
	h.set(120, 0x78)
	e := newTestEngine(h, DefaultOptions())

	key, ok := e.lookup(0x78, 0)
	require.True(t, ok)
	assert.Equal(t, Keycode(120), key)
}

func TestShiftAltBecomesMeta(t *testing.T) {
	h := newPCHost()
	h.hold(50)
	e := newTestEngine(h, DefaultOptions())

	e.KeyEvent(keysym.XK_Alt_L, 0, true)
	assert.Equal(t, []event{press(64)}, h.events)

	h.set(64, keysym.XK_Alt_L, keysym.XK_Hyper_L)
	h.events = nil
	e.KeyEvent(keysym.XK_Alt_L, 0, false)
	e.KeyEvent(keysym.XK_Alt_L, 0, true)
	assert.Equal(t, []event{release(64), release(50), press(64), press(50)}, h.events)
}

func TestEquivalentKeysym(t *testing.T) {
	h := newPCHost()
	e := newTestEngine(h, DefaultOptions())

	e.KeyEvent(keysym.XK_Control_R, 0, true)
	e.KeyEvent(keysym.XK_Control_R, 0, false)
	assert.Equal(t, []event{press(37), release(37)}, h.events)
}

func TestAvoidShiftOnNumLockKeys(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		h := newPCHost()
		e := newTestEngine(h, DefaultOptions())

		e.KeyEvent(keysym.XK_KP_1, 0, true)
		assert.Equal(t, []event{press(10)}, h.events)
	})

	t.Run("disabled", func(t *testing.T) {
		h := newPCHost()
		e := newTestEngine(h, Options{})

		e.KeyEvent(keysym.XK_KP_1, 0, true)
		assert.Equal(t, []event{press(50), press(87), release(50)}, h.events)
	})

	t.Run("no shift change", func(t *testing.T) {
		h := newPCHost()
		e := newTestEngine(h, DefaultOptions())

		e.KeyEvent(keysym.XK_KP_End, 0, true)
		assert.Equal(t, []event{press(87)}, h.events)
	})
}

func TestTabKeepsShift(t *testing.T) {
	h := newPCHost()
	h.hold(50)
	e := newTestEngine(h, DefaultOptions())

	res, err := e.resolve(keysym.XK_Tab, ShiftMask)
	require.NoError(t, err)
	assert.Equal(t, resolution{key: 23, state: ShiftMask}, res)

	e.KeyEvent(keysym.XK_Tab, 0, true)
	assert.Equal(t, []event{press(23)}, h.events)
}

func TestISOLeftTab(t *testing.T) {
	h := newPCHost()
	e := newTestEngine(h, DefaultOptions())

	e.KeyEvent(keysym.XK_ISO_Left_Tab, 0, true)
	e.KeyEvent(keysym.XK_ISO_Left_Tab, 0, false)
	assert.Equal(t, []event{press(50), press(23), release(50), release(23)}, h.events)
}

func TestAllocateUnknownKeysym(t *testing.T) {
	h := newPCHost()
	for k := Keycode(251); k != 0; k++ {
		h.set(k, keysym.XK_F12)
	}
	e := newTestEngine(h, DefaultOptions())
	before := testutil.ToFloat64(allocatedKeysymsTotal)

	res, err := e.resolve(coffee, 0)
	require.NoError(t, err)
	assert.Equal(t, resolution{key: 250, state: 0}, res)
	assert.Equal(t, []keysym.Keysym{coffee}, h.levels[250])
	assert.Equal(t, "I250", h.names[250])
	assert.Equal(t, before+1, testutil.ToFloat64(allocatedKeysymsTotal))

	e.KeyEvent(coffee, 0, true)
	assert.Equal(t, []event{press(250)}, h.events)
}

func TestAllocateCasedKeysym(t *testing.T) {
	h := newPCHost()
	e := newTestEngine(h, DefaultOptions())

	e.KeyEvent(0xdc, 0, true)
	assert.Equal(t, []keysym.Keysym{0xfc, 0xdc}, h.levels[255])
	assert.Equal(t, []event{press(50), press(255), release(50)}, h.events)
}

func TestAllocationFailure(t *testing.T) {
	h := newPCHost()
	h.slotErr = assert.AnError
	e := newTestEngine(h, DefaultOptions())

	_, err := e.keyEvent(coffee, 0, true)
	require.ErrorIs(t, err, ErrResolution)
	assert.Empty(t, h.events)
}

func tinyHost() *fakeHost {
	h := newFakeHost()
	h.maxKey = 10
	h.set(8, keysym.XK_Shift_L)
	h.modKeys[ShiftMask] = []Keycode{8}
	return h
}

func TestAllocatedSlotReuse(t *testing.T) {
	const star, heart keysym.Keysym = 0x01002605, 0x01002665

	h := tinyHost()
	e := newTestEngine(h, DefaultOptions())

	e.KeyEvent(coffee, 0, true)
	e.KeyEvent(coffee, 0, false)
	e.KeyEvent(star, 0, true)
	e.KeyEvent(star, 0, false)
	require.Equal(t, []keysym.Keysym{coffee}, h.levels[10])
	require.Equal(t, []keysym.Keysym{star}, h.levels[9])

	e.KeyEvent(heart, 0, true)
	assert.Equal(t, []keysym.Keysym{heart}, h.levels[10])
	assert.Equal(t, []Keycode{10}, e.Held())

	require.NoError(t, e.Close())
	assert.Empty(t, h.levels[9])
	assert.Empty(t, h.levels[10])
	assert.Equal(t, release(10), h.events[len(h.events)-1])
}

func TestAllocatedSlotsHeldAreNotReused(t *testing.T) {
	const star, heart keysym.Keysym = 0x01002605, 0x01002665

	h := tinyHost()
	e := newTestEngine(h, DefaultOptions())

	e.KeyEvent(coffee, 0, true)
	e.KeyEvent(star, 0, true)
	h.events = nil

	_, err := e.keyEvent(heart, 0, true)
	require.ErrorIs(t, err, ErrNoFreeKeycode)
	assert.Empty(t, h.events)
}

func TestModifiedSlotsAreForgotten(t *testing.T) {
	h := tinyHost()
	e := newTestEngine(h, DefaultOptions())

	e.KeyEvent(coffee, 0, true)
	e.KeyEvent(coffee, 0, false)
	h.set(10, keysym.XK_F1)

	require.NoError(t, e.Close())
	assert.Equal(t, []keysym.Keysym{keysym.XK_F1}, h.levels[10])
}

func TestReleaseTargetsPressedKey(t *testing.T) {
	h := newPCHost()
	e := newTestEngine(h, DefaultOptions())

	e.KeyEvent(keysym.XK_a, 0, true)

	// layout reloaded while the key is held
	h.set(38, 0x71, 0x51)
	h.set(24, keysym.XK_a, keysym.XK_A)

	e.KeyEvent(keysym.XK_a, 0, false)
	assert.Equal(t, []event{press(38), release(38)}, h.events)
}

func TestRepeatedPressesPair(t *testing.T) {
	h := newPCHost()
	e := newTestEngine(h, DefaultOptions())

	e.KeyEvent(keysym.XK_a, 0, true)
	e.KeyEvent(keysym.XK_a, 0, true)
	e.KeyEvent(keysym.XK_a, 0, false)
	e.KeyEvent(keysym.XK_a, 0, false)

	assert.Equal(t, []event{press(38), press(38), release(38)}, h.events)
}

func TestUnmatchedRelease(t *testing.T) {
	h := newPCHost()
	e := newTestEngine(h, DefaultOptions())
	before := testutil.ToFloat64(keyEventsTotal.WithLabelValues("up", resultUnmatchedRelease))

	_, err := e.keyEvent(keysym.XK_A, 0, false)
	assert.ErrorIs(t, err, ErrUnmatchedRelease)

	e.KeyEvent(keysym.XK_A, 0, false)
	assert.Empty(t, h.events)
	assert.Equal(t, before+1, testutil.ToFloat64(keyEventsTotal.WithLabelValues("up", resultUnmatchedRelease)))
}

func TestRawKeyboard(t *testing.T) {
	h := newPCHost()
	e := newTestEngine(h, DefaultOptions())

	// 0x1e is KEY_A
	e.KeyEvent(keysym.XK_A, 0x1e, true)
	assert.Equal(t, []event{press(38)}, h.events)
	assert.Equal(t, keysym.XK_A, e.pressed[38])

	e.KeyEvent(keysym.XK_A, 0, false)
	assert.Equal(t, []event{press(38), release(38)}, h.events)
	assert.Empty(t, e.Held())
}

func TestRawKeyboardFallsBackToKeysym(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		h := newPCHost()
		e := newTestEngine(h, Options{})

		e.KeyEvent(keysym.XK_A, 0x1e, true)
		assert.Equal(t, []event{press(50), press(38), release(50)}, h.events)
	})

	t.Run("undefined key", func(t *testing.T) {
		h := newPCHost()
		e := newTestEngine(h, DefaultOptions())

		// 0x10 is KEY_Q, not in the layout
		e.KeyEvent(keysym.XK_a, 0x10, true)
		assert.Equal(t, []event{press(38)}, h.events)
	})

	t.Run("nothing usable", func(t *testing.T) {
		h := newPCHost()
		e := newTestEngine(h, DefaultOptions())

		e.KeyEvent(keysym.NoSymbol, 0, true)
		e.KeyEvent(keysym.NoSymbol, 0x10, true)
		assert.Empty(t, h.events)
	})
}

func TestDuplicateAssignment(t *testing.T) {
	h := newPCHost()
	e := newTestEngine(h, DefaultOptions())
	before := testutil.ToFloat64(duplicateAssignmentsTotal)

	e.KeyEvent(keysym.XK_a, 0x1e, true)
	e.KeyEvent(keysym.XK_A, 0x1e, true)
	assert.Equal(t, keysym.XK_A, e.pressed[38])
	assert.Equal(t, before+1, testutil.ToFloat64(duplicateAssignmentsTotal))

	// the same keysym recorded on a second key moves to that key
	e.KeyEvent(keysym.XK_A, 0x30, true)
	assert.Equal(t, []Keycode{56}, e.Held())
	assert.Equal(t, before+2, testutil.ToFloat64(duplicateAssignmentsTotal))
}

func TestEmitFailureStillRestoresModifiers(t *testing.T) {
	h := newPCHost()
	h.failKeys[38] = true
	e := newTestEngine(h, DefaultOptions())

	e.KeyEvent(keysym.XK_A, 0, true)
	assert.Equal(t, []event{press(50), release(50)}, h.events)
}

func TestFlushBeforeSampling(t *testing.T) {
	h := newPCHost()
	e := newTestEngine(h, DefaultOptions())

	e.KeyEvent(keysym.XK_A, 0, true)
	// before sampling state, before the modifier queries and after emitting
	assert.Equal(t, 3, h.flushes)
}

func TestRemapBeforeResolution(t *testing.T) {
	h := newPCHost()
	r, err := ParseRemap([]string{"0x61->0x62"})
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Remapper = r
	e := newTestEngine(h, opts)

	e.KeyEvent(keysym.XK_a, 0, true)
	e.KeyEvent(keysym.XK_a, 0, false)
	assert.Equal(t, []event{press(56), release(56)}, h.events)
}

func TestCloseReleasesHeldKeys(t *testing.T) {
	h := newPCHost()
	e := newTestEngine(h, DefaultOptions())

	e.KeyEvent(keysym.XK_a, 0, true)
	e.KeyEvent(0x62, 0, true)
	require.NoError(t, e.Close())

	assert.Equal(t, []event{press(38), press(56), release(38), release(56)}, h.events)
	assert.Empty(t, e.Held())
	assert.Empty(t, h.downKeys())
}
