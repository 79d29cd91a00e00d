// Package keyinject turns keysym events from a remote desktop client into key
// presses on the local machine, through X11 when a display is available and
// a uinput virtual keyboard otherwise.
package keyinject

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jetkvm/keyinject/internal/config"
	"github.com/jetkvm/keyinject/internal/keyboard"
	"github.com/jetkvm/keyinject/internal/keymap"
	"github.com/jetkvm/keyinject/internal/keysym"
	"github.com/jetkvm/keyinject/internal/uinput"
	"github.com/jetkvm/keyinject/internal/x11"
)

// ErrNotInitialized is returned by the package level functions before Init.
var ErrNotInitialized = errors.New("input not initialized")

type inputBackend interface {
	keyboard.Host
	Close() error
}

// Injector owns one input backend and the engine feeding it.
type Injector struct {
	name    string
	backend inputBackend
	engine  *keyboard.Engine
	watcher *keymap.Watcher

	// the engine is driven from one event at a time
	mu        sync.Mutex
	lastInput time.Time
}

// New opens the backend selected by cfg. With backend "auto" X11 is tried
// first when a display is configured, falling back to uinput.
func New(cfg *config.Config) (*Injector, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case config.BackendX11:
		return newX11Injector(cfg, opts)
	case config.BackendUinput:
		return newUinputInjector(cfg, opts)
	}

	if cfg.Display != "" {
		inj, err := newX11Injector(cfg, opts)
		if err == nil {
			return inj, nil
		}
		inputLogger.Warn().Err(err).Msg("X11 backend init failed, falling back to uinput backend")
	}
	return newUinputInjector(cfg, opts)
}

func newX11Injector(cfg *config.Config, opts keyboard.Options) (*Injector, error) {
	inputLogger.Info().Str("display", cfg.Display).Msg("Initializing X11 backend")
	b, err := x11.NewBackend(cfg.Display, subsystemLogger("x11"))
	if err != nil {
		return nil, err
	}
	return newInjector(config.BackendX11, b, opts), nil
}

func newUinputInjector(cfg *config.Config, opts keyboard.Options) (*Injector, error) {
	inputLogger.Info().Msg("Initializing uinput backend")

	layout := keymap.Default()
	if cfg.KeymapFile != "" {
		m, err := keymap.Load(cfg.KeymapFile)
		if err != nil {
			return nil, err
		}
		layout = m
	}

	b, err := uinput.NewBackend(cfg.DeviceName, layout, subsystemLogger("uinput"))
	if err != nil {
		return nil, err
	}
	inj := newInjector(config.BackendUinput, b, opts)

	if cfg.KeymapFile != "" && cfg.WatchKeymap {
		w, err := keymap.Watch(cfg.KeymapFile, layout, subsystemLogger("keymap"))
		if err != nil {
			inputLogger.Warn().Err(err).Str("path", cfg.KeymapFile).Msg("keymap reload disabled")
		} else {
			inj.watcher = w
		}
	}

	return inj, nil
}

func newInjector(name string, backend inputBackend, opts keyboard.Options) *Injector {
	backendInfo.WithLabelValues(name).Set(1)
	return &Injector{
		name:    name,
		backend: backend,
		engine:    keyboard.NewEngine(backend, subsystemLogger("keyboard"), opts),
		lastInput: time.Now(),
	}
}

// Backend returns the name of the backend in use.
func (i *Injector) Backend() string {
	return i.name
}

// KeyboardEvent injects one key event. xtcode is the client's scancode hint
// in qnum form, zero if it sent none.
func (i *Injector) KeyboardEvent(sym uint32, xtcode uint32, down bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.engine.KeyEvent(keysym.Keysym(sym), xtcode, down)
	i.lastInput = time.Now()
}

// LastInputTime returns when the last key event was injected, or when the
// injector was opened if none was.
func (i *Injector) LastInputTime() time.Time {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.lastInput
}

// Close releases held keys, undoes layout changes and closes the backend.
func (i *Injector) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	var errs []error
	if err := i.engine.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to restore layout: %w", err))
	}
	if i.watcher != nil {
		if err := i.watcher.Close(); err != nil {
			errs = append(errs, err)
		}
		i.watcher = nil
	}
	if err := i.backend.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close %s backend: %w", i.name, err))
	}
	backendInfo.WithLabelValues(i.name).Set(0)
	return errors.Join(errs...)
}

var (
	injector     *Injector
	injectorLock sync.Mutex
)

// Init loads the configuration at path and opens the input backend used by
// KeyboardEvent.
func Init(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	SetLogLevel(cfg.Level())

	inj, err := New(cfg)
	if err != nil {
		inputLogger.Error().Err(err).Msg("no input backend available")
		return err
	}

	injectorLock.Lock()
	defer injectorLock.Unlock()
	if injector != nil {
		if err := injector.Close(); err != nil {
			inputLogger.Warn().Err(err).Msg("failed to close previous input backend")
		}
	}
	injector = inj
	inputLogger.Info().Str("backend", inj.Backend()).Msg("Input backend ready")
	return nil
}

// KeyboardEvent injects a key event through the backend opened by Init.
func KeyboardEvent(sym uint32, xtcode uint32, down bool) error {
	injectorLock.Lock()
	inj := injector
	injectorLock.Unlock()

	if inj == nil {
		return ErrNotInitialized
	}
	inj.KeyboardEvent(sym, xtcode, down)
	return nil
}

// GetLastUserInputTime reports when the backend opened by Init last injected
// a key event. It is the zero time before Init.
func GetLastUserInputTime() time.Time {
	injectorLock.Lock()
	inj := injector
	injectorLock.Unlock()

	if inj == nil {
		return time.Time{}
	}
	return inj.LastInputTime()
}

// Close shuts down the backend opened by Init.
func Close() error {
	injectorLock.Lock()
	defer injectorLock.Unlock()

	if injector == nil {
		return nil
	}
	err := injector.Close()
	injector = nil
	return err
}
