package keyinject

import (
	"testing"
	"time"

	"github.com/jetkvm/keyinject/internal/keyboard"
	"github.com/jetkvm/keyinject/internal/keymap"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keyEvent struct {
	key  keyboard.Keycode
	down bool
}

// memoryBackend runs the built-in layout without a device behind it.
type memoryBackend struct {
	*keymap.Keymap
	down   map[keyboard.Keycode]bool
	events []keyEvent
	closed bool
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{Keymap: keymap.Default(), down: make(map[keyboard.Keycode]bool)}
}

func (b *memoryBackend) ModifierState() keyboard.ModMask {
	var state keyboard.ModMask
	for key, down := range b.down {
		if down {
			state |= b.Modifier(key)
		}
	}
	return state
}

func (b *memoryBackend) IsDown(key keyboard.Keycode) bool { return b.down[key] }

func (b *memoryBackend) Emit(key keyboard.Keycode, down bool) error {
	b.down[key] = down
	b.events = append(b.events, keyEvent{key, down})
	return nil
}

func (b *memoryBackend) Flush() error { return nil }

func (b *memoryBackend) Close() error {
	b.closed = true
	return nil
}

func TestInjector(t *testing.T) {
	b := newMemoryBackend()
	inj := newInjector("memory", b, keyboard.DefaultOptions())
	assert.Equal(t, "memory", inj.Backend())
	assert.Equal(t, 1.0, testutil.ToFloat64(backendInfo.WithLabelValues("memory")))

	inj.KeyboardEvent('A', 0, true)
	inj.KeyboardEvent('A', 0, false)
	assert.Equal(t, []keyEvent{{50, true}, {38, true}, {50, false}, {38, false}}, b.events)

	// allocated on a free keycode of the layout, removed again on close
	inj.KeyboardEvent(0x01002615, 0, true)
	assert.Equal(t, keyEvent{255, true}, b.events[len(b.events)-1])
	assert.Equal(t, 1, b.NumLevels(255))

	require.NoError(t, inj.Close())
	assert.True(t, b.closed)
	assert.Zero(t, b.NumLevels(255))
	assert.Equal(t, keyEvent{255, false}, b.events[len(b.events)-1])
	assert.Equal(t, 0.0, testutil.ToFloat64(backendInfo.WithLabelValues("memory")))
}

func TestLastInputTime(t *testing.T) {
	inj := newInjector("idle", newMemoryBackend(), keyboard.DefaultOptions())
	opened := inj.LastInputTime()
	assert.False(t, opened.IsZero())

	time.Sleep(time.Millisecond)
	inj.KeyboardEvent('a', 0, true)
	assert.True(t, inj.LastInputTime().After(opened))
}

func TestPackageFunctionsBeforeInit(t *testing.T) {
	assert.ErrorIs(t, KeyboardEvent('a', 0, true), ErrNotInitialized)
	assert.True(t, GetLastUserInputTime().IsZero())
	assert.NoError(t, Close())
}

func TestRegisterMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterMetrics(reg)
	assert.NotPanics(t, func() { RegisterMetrics(reg) })

	inj := newInjector("metrics", newMemoryBackend(), keyboard.DefaultOptions())
	inj.KeyboardEvent('a', 0, true)

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "keyinject_backend_info")
	assert.Contains(t, names, "keyinject_key_events_total")
}
