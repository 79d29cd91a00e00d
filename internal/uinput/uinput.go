// Package uinput injects key events through a Linux uinput virtual keyboard.
// The kernel knows nothing about layouts, so the layout the session applies
// to the device is mirrored by a keymap, and key and lock state is tracked
// here.
package uinput

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/holoplot/go-evdev"
	"github.com/jetkvm/keyinject/internal/keyboard"
	"github.com/jetkvm/keyinject/internal/keymap"
	"github.com/jetkvm/keyinject/internal/keysym"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// ErrLayoutReadOnly is returned for layout changes, which only the session
// owning the device can make.
var ErrLayoutReadOnly = errors.New("uinput layout is owned by the session")

var defaultLogger = zerolog.New(os.Stdout).With().Str("subsystem", "uinput").Logger()

// DefaultDeviceName is the name the virtual keyboard is created with.
const DefaultDeviceName = "keyinject virtual keyboard"

const uinputPath = "/dev/uinput"

// checkAccess reports a missing or unwritable uinput node before go-evdev
// tries to open it.
func checkAccess(path string) error {
	if err := unix.Access(path, unix.W_OK); err != nil {
		return fmt.Errorf("%s is not writable: %w. Ensure 'modprobe uinput' and permissions", path, err)
	}
	return nil
}

type eventWriter interface {
	WriteOne(event *evdev.InputEvent) error
}

// Backend is a keyboard.Host backed by a uinput device.
type Backend struct {
	dev    eventWriter
	closer func() error
	log    *zerolog.Logger
	layout *keymap.Keymap

	keyboardStateLock sync.Mutex
	keysDown          [256]bool
	locked            keyboard.ModMask
	pending           int
}

var _ keyboard.Host = (*Backend)(nil)

// NewBackend creates the virtual keyboard. layout describes what the session
// makes of its keys.
func NewBackend(name string, layout *keymap.Keymap, logger *zerolog.Logger) (*Backend, error) {
	if name == "" {
		name = DefaultDeviceName
	}
	if err := checkAccess(uinputPath); err != nil {
		return nil, err
	}

	dev, err := evdev.CreateDevice(
		name,
		evdev.InputID{
			BusType: 0x06, // BUS_VIRTUAL
			Vendor:  0x1d6b,
			Product: 0x0104,
			Version: 1,
		},
		map[evdev.EvType][]evdev.EvCode{
			evdev.EV_KEY: keyCapabilities(),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create uinput device: %w. Ensure 'modprobe uinput' and permissions", err)
	}

	b := newBackend(dev, layout, logger)
	b.closer = dev.Close
	return b, nil
}

func newBackend(dev eventWriter, layout *keymap.Keymap, logger *zerolog.Logger) *Backend {
	if logger == nil {
		l := defaultLogger
		logger = &l
	}
	b := &Backend{
		dev:    dev,
		log:    logger,
		layout: layout,
	}
	layout.OnChange(func() {
		b.log.Info().Str("layout", layout.Name()).Msg("keymap changed")
	})
	return b
}

func (b *Backend) writeEvent(typ evdev.EvType, code evdev.EvCode, val int32) error {
	return b.dev.WriteOne(&evdev.InputEvent{
		Time:  syscall.NsecToTimeval(time.Now().UnixNano()),
		Type:  typ,
		Code:  code,
		Value: val,
	})
}

func (b *Backend) KeycodeRange() (keyboard.Keycode, keyboard.Keycode) {
	return b.layout.KeycodeRange()
}

func (b *Backend) NumLevels(key keyboard.Keycode) int {
	if _, ok := keyboard.EvdevCode(key); !ok {
		return 0
	}
	return b.layout.NumLevels(key)
}

func (b *Backend) KeysymAt(key keyboard.Keycode, level keyboard.Level) keysym.Keysym {
	return b.layout.KeysymAt(key, level)
}

func (b *Backend) ModifierKeys(mask keyboard.ModMask) []keyboard.Keycode {
	return b.layout.ModifierKeys(mask)
}

func (b *Backend) SecondaryShiftMask() keyboard.ModMask {
	return b.layout.SecondaryShiftMask()
}

func (b *Backend) IsFallbackOnly(key keyboard.Keycode) bool {
	return b.layout.IsFallbackOnly(key)
}

func (b *Backend) IsNumLockSensitive(key keyboard.Keycode) bool {
	return b.layout.IsNumLockSensitive(key)
}

// ReconfigureSlot always fails: the device layout belongs to the session.
func (b *Backend) ReconfigureSlot(key keyboard.Keycode, name string, levels []keysym.Keysym) error {
	return ErrLayoutReadOnly
}

// ModifierState returns the modifiers asserted by held keys plus the
// toggled locks.
func (b *Backend) ModifierState() keyboard.ModMask {
	b.keyboardStateLock.Lock()
	defer b.keyboardStateLock.Unlock()

	state := b.locked
	for k, down := range b.keysDown {
		if !down {
			continue
		}
		key := keyboard.Keycode(k)
		mod := b.layout.Modifier(key)
		if lockToggle(b.layout, mod, key) != 0 {
			continue
		}
		state |= mod
	}
	return state
}

func (b *Backend) IsDown(key keyboard.Keycode) bool {
	b.keyboardStateLock.Lock()
	defer b.keyboardStateLock.Unlock()
	return b.keysDown[key]
}

// SetLockState sets the toggled lock modifiers, e.g. from the LED state the
// session reports.
func (b *Backend) SetLockState(locks keyboard.ModMask) {
	b.keyboardStateLock.Lock()
	defer b.keyboardStateLock.Unlock()
	b.locked = locks
}

// Emit queues a key event. It is delivered by the next Flush.
func (b *Backend) Emit(key keyboard.Keycode, down bool) error {
	code, ok := keyboard.EvdevCode(key)
	if !ok || code > maxKeyCode {
		return fmt.Errorf("keycode %d has no uinput key", key)
	}

	val := int32(0)
	if down {
		val = 1
	}
	if err := b.writeEvent(evdev.EV_KEY, code, val); err != nil {
		return fmt.Errorf("failed to write key event: %w", err)
	}

	b.keyboardStateLock.Lock()
	defer b.keyboardStateLock.Unlock()

	if down && !b.keysDown[key] {
		b.locked ^= lockToggle(b.layout, b.layout.Modifier(key), key)
	}
	b.keysDown[key] = down
	b.pending++
	return nil
}

// Flush sends a SYN_REPORT so the kernel delivers the queued events.
func (b *Backend) Flush() error {
	b.keyboardStateLock.Lock()
	pending := b.pending
	b.pending = 0
	b.keyboardStateLock.Unlock()

	if pending == 0 {
		return nil
	}
	if err := b.writeEvent(evdev.EV_SYN, evdev.SYN_REPORT, 0); err != nil {
		return fmt.Errorf("failed to write sync event: %w", err)
	}
	return nil
}

// KeysDown returns the keycodes currently held on the device.
func (b *Backend) KeysDown() []keyboard.Keycode {
	b.keyboardStateLock.Lock()
	defer b.keyboardStateLock.Unlock()

	var keys []keyboard.Keycode
	for k, down := range b.keysDown {
		if down {
			keys = append(keys, keyboard.Keycode(k))
		}
	}
	return keys
}

// Close releases every key still held and destroys the device.
func (b *Backend) Close() error {
	for _, key := range b.KeysDown() {
		if err := b.Emit(key, false); err != nil {
			b.log.Warn().Err(err).Uint8("keycode", uint8(key)).Msg("failed to release key")
		}
	}
	if err := b.Flush(); err != nil {
		b.log.Warn().Err(err).Msg("failed to flush on close")
	}

	if b.closer == nil {
		return nil
	}
	err := b.closer()
	b.closer = nil
	return err
}
