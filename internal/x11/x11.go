// Package x11 injects key events into an X server with the XTEST extension,
// resolving keysyms against the server's core keyboard mapping.
package x11

import (
	"fmt"
	"os"

	"github.com/jetkvm/keyinject/internal/keyboard"
	"github.com/jetkvm/keyinject/internal/keysym"
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/jezek/xgb/xtest"
	"github.com/rs/zerolog"
)

var defaultLogger = zerolog.New(os.Stdout).With().Str("subsystem", "x11").Logger()

// Backend is a keyboard.Host on an X display.
type Backend struct {
	conn *xgb.Conn
	root xproto.Window
	log  *zerolog.Logger

	minKey, maxKey xproto.Keycode

	// mapping is fetched on first use and dropped on every Flush, so nothing
	// read from the server outlives the event it was read for.
	mapping *mapping
}

var _ keyboard.Host = (*Backend)(nil)

// NewBackend connects to display, or $DISPLAY when empty, and checks for
// XTEST.
func NewBackend(display string, logger *zerolog.Logger) (*Backend, error) {
	if logger == nil {
		l := defaultLogger
		logger = &l
	}

	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X display %q: %w", display, err)
	}

	if err := xtest.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("XTEST extension not available: %w", err)
	}
	version, err := xtest.GetVersion(conn, 2, 2).Reply()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to query XTEST version: %w", err)
	}

	setup := xproto.Setup(conn)
	b := &Backend{
		conn:   conn,
		root:   setup.DefaultScreen(conn).Root,
		log:    logger,
		minKey: setup.MinKeycode,
		maxKey: setup.MaxKeycode,
	}

	b.log.Info().
		Str("display", display).
		Uint8("xtest_major", version.MajorVersion).
		Uint16("xtest_minor", version.MinorVersion).
		Uint8("min_keycode", uint8(b.minKey)).
		Uint8("max_keycode", uint8(b.maxKey)).
		Msg("Connected to X server")

	return b, nil
}

func (b *Backend) current() *mapping {
	if b.mapping != nil {
		return b.mapping
	}

	count := byte(int(b.maxKey) - int(b.minKey) + 1)
	kb, err := xproto.GetKeyboardMapping(b.conn, b.minKey, count).Reply()
	if err != nil {
		b.log.Error().Err(err).Msg("failed to get keyboard mapping")
		return &mapping{}
	}
	mods, err := xproto.GetModifierMapping(b.conn).Reply()
	if err != nil {
		b.log.Error().Err(err).Msg("failed to get modifier mapping")
		return &mapping{}
	}

	b.mapping = newMapping(b.minKey, b.maxKey, kb, mods)
	return b.mapping
}

func (b *Backend) KeycodeRange() (keyboard.Keycode, keyboard.Keycode) {
	return keyboard.Keycode(b.minKey), keyboard.Keycode(b.maxKey)
}

func (b *Backend) NumLevels(key keyboard.Keycode) int {
	return len(b.current().levels(key))
}

func (b *Backend) KeysymAt(key keyboard.Keycode, level keyboard.Level) keysym.Keysym {
	levels := b.current().levels(key)
	if len(levels) == 0 {
		return keysym.NoSymbol
	}
	if int(level) >= len(levels) {
		level &^= 2
	}
	if int(level) >= len(levels) {
		level = 0
	}
	return levels[level]
}

func (b *Backend) ModifierKeys(mask keyboard.ModMask) []keyboard.Keycode {
	return b.current().modifierKeys(mask)
}

func (b *Backend) SecondaryShiftMask() keyboard.ModMask {
	return b.current().secondaryShift()
}

func (b *Backend) IsFallbackOnly(key keyboard.Keycode) bool {
	return fallbackKeycodes[key]
}

func (b *Backend) IsNumLockSensitive(key keyboard.Keycode) bool {
	return b.current().numLockSensitive(key)
}

// ReconfigureSlot rewrites the core mapping of key. The core protocol has no
// key names, so name is ignored.
func (b *Backend) ReconfigureSlot(key keyboard.Keycode, name string, levels []keysym.Keysym) error {
	m := b.current()
	if m.perKeycode == 0 {
		return fmt.Errorf("no keyboard mapping")
	}

	row := m.slot(levels)
	err := xproto.ChangeKeyboardMappingChecked(b.conn, 1, xproto.Keycode(key), byte(m.perKeycode), row).Check()
	b.mapping = nil
	if err != nil {
		return fmt.Errorf("failed to change keyboard mapping: %w", err)
	}
	return nil
}

func (b *Backend) ModifierState() keyboard.ModMask {
	reply, err := xproto.QueryPointer(b.conn, b.root).Reply()
	if err != nil {
		b.log.Error().Err(err).Msg("failed to query modifier state")
		return 0
	}
	return keyboard.ModMask(reply.Mask & 0xff)
}

func (b *Backend) IsDown(key keyboard.Keycode) bool {
	reply, err := xproto.QueryKeymap(b.conn).Reply()
	if err != nil {
		b.log.Error().Err(err).Msg("failed to query keymap")
		return false
	}
	return keyDown(reply.Keys, key)
}

func (b *Backend) Emit(key keyboard.Keycode, down bool) error {
	typ := byte(xproto.KeyRelease)
	if down {
		typ = xproto.KeyPress
	}
	xtest.FakeInput(b.conn, typ, byte(key), xproto.TimeCurrentTime, b.root, 0, 0, 0)
	return nil
}

// Flush waits for the server to process everything sent so far.
func (b *Backend) Flush() error {
	b.mapping = nil
	if _, err := xproto.GetInputFocus(b.conn).Reply(); err != nil {
		return fmt.Errorf("failed to sync with X server: %w", err)
	}
	return nil
}

func (b *Backend) Close() error {
	b.conn.Close()
	return nil
}
