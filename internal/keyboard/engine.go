package keyboard

import (
	"errors"
	"fmt"
	"os"

	"github.com/jetkvm/keyinject/internal/keysym"
	"github.com/rs/zerolog"
)

var defaultLogger = zerolog.New(os.Stdout).With().Str("subsystem", "keyboard").Logger()

// Options tunes how the engine resolves keysyms.
type Options struct {
	// AvoidShiftNumLock prefers keysyms that need no fake Shift on keys
	// whose meaning changes with NumLock.
	AvoidShiftNumLock bool
	// RawKeyboard lets a client supplied scancode bypass keysym resolution.
	RawKeyboard bool
	// Remapper rewrites keysyms before they are resolved. May be nil.
	Remapper *Remapper
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		AvoidShiftNumLock: true,
		RawKeyboard:       true,
	}
}

// Engine synthesizes host key events for remote keysyms. It is not safe for
// concurrent use; callers feed it from a single event loop.
type Engine struct {
	host Host
	log  *zerolog.Logger
	opts Options

	pressed pressedKeys
	added   addedKeys
}

// NewEngine creates an engine driving host.
func NewEngine(host Host, logger *zerolog.Logger, opts Options) *Engine {
	if logger == nil {
		l := defaultLogger
		logger = &l
	}
	return &Engine{
		host: host,
		log:  logger,
		opts: opts,
	}
}

// KeyEvent handles one key event from the remote client. xtcode is the
// client's scancode hint in qnum form, or zero. Failures are logged and the
// event is dropped; nothing is returned to the caller.
func (e *Engine) KeyEvent(sym keysym.Keysym, xtcode uint32, down bool) {
	result, err := e.keyEvent(sym, xtcode, down)
	keyEventsTotal.WithLabelValues(direction(down), result).Inc()
	if err == nil {
		return
	}

	l := e.log.With().Stringer("keysym", sym).Bool("down", down).Logger()
	switch {
	case errors.Is(err, ErrUnmatchedRelease):
		l.Debug().Err(err).Msg("Unexpected release of keysym")
	case errors.Is(err, ErrModifierTransition):
		l.Error().Err(err).Msg("Failure adjusting modifiers")
	default:
		l.Error().Err(err).Msg("Failure generating keysym")
	}
}

func (e *Engine) keyEvent(sym keysym.Keysym, xtcode uint32, down bool) (string, error) {
	sym = e.opts.Remapper.Remap(sym)

	if e.opts.RawKeyboard && xtcode != 0 {
		if key, ok := QnumToKeycode(xtcode); ok && e.host.NumLevels(key) > 0 {
			e.rawKeyEvent(key, sym, down)
			return resultRaw, nil
		}
	}

	if sym == keysym.NoSymbol {
		e.log.Debug().Uint32("xtcode", xtcode).Msg("Ignoring key event without keysym or usable scancode")
		return resultIgnored, nil
	}

	if !down {
		if err := e.releaseKeysym(sym); err != nil {
			return resultUnmatchedRelease, err
		}
		return resultOK, nil
	}

	if err := e.pressKeysym(sym); err != nil {
		if errors.Is(err, ErrModifierTransition) {
			return resultModifierFailure, err
		}
		return resultResolutionFailure, err
	}
	return resultOK, nil
}

// rawKeyEvent presses or releases key exactly as the client asked. The pressed
// table is kept current so keysym releases still pair with raw presses.
func (e *Engine) rawKeyEvent(key Keycode, sym keysym.Keysym, down bool) {
	if down {
		e.recordPress(key, sym)
	} else {
		e.pressed.clear(key)
	}
	e.emit(key, down, "raw keycode")
	e.flush()
}

func (e *Engine) pressKeysym(sym keysym.Keysym) error {
	e.flush()
	state := e.host.ModifierState()

	res, err := e.resolve(sym, state)
	if err != nil {
		return err
	}

	t, err := e.planTransition(state, res.state)
	if err != nil {
		return err
	}

	e.apply(t)
	e.emit(res.key, true, "keycode")
	e.recordPress(res.key, sym)
	e.added.touch(res.key)
	e.undo(t)
	e.flush()

	return nil
}

func (e *Engine) releaseKeysym(sym keysym.Keysym) error {
	key, ok := e.pressed.find(sym)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnmatchedRelease, sym)
	}

	e.pressed.clear(key)
	e.emit(key, false, "keycode")
	e.flush()
	return nil
}

// recordPress stores key as held for sym, evicting any entry that would
// leave sym or key recorded twice.
func (e *Engine) recordPress(key Keycode, sym keysym.Keysym) {
	stale, others := e.pressed.record(key, sym)
	if stale != keysym.NoSymbol {
		duplicateAssignmentsTotal.Inc()
		e.log.Warn().
			Uint8("keycode", uint8(key)).
			Stringer("old", stale).
			Stringer("new", sym).
			Msg("Prior keysym mapping for keycode, replacing")
	}
	for _, other := range others {
		duplicateAssignmentsTotal.Inc()
		e.log.Warn().
			Stringer("keysym", sym).
			Uint8("old", uint8(other)).
			Uint8("new", uint8(key)).
			Msg("Prior keycode mapping for keysym, replacing")
	}
}

func (e *Engine) emit(key Keycode, down bool, reason string) {
	e.log.Debug().Uint8("keycode", uint8(key)).Bool("down", down).Str("reason", reason).Msg("Injecting key event")
	if err := e.host.Emit(key, down); err != nil {
		e.log.Warn().Err(err).Uint8("keycode", uint8(key)).Bool("down", down).Msg("failed to inject key event")
	}
}

func (e *Engine) flush() {
	if err := e.host.Flush(); err != nil {
		e.log.Warn().Err(err).Msg("failed to flush key events")
	}
}

// Held returns the keycodes the engine currently holds down.
func (e *Engine) Held() []Keycode {
	return e.pressed.held()
}

// Close releases every key still held and removes the keysyms the engine
// added to the layout.
func (e *Engine) Close() error {
	for _, key := range e.pressed.held() {
		e.emit(key, false, "release on close")
		e.pressed.clear(key)
	}
	e.flush()
	return e.removeAdded()
}
