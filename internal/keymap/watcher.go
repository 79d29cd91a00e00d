package keymap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

var defaultLogger = zerolog.New(os.Stdout).With().Str("subsystem", "keymap").Logger()

const reloadDelay = 100 * time.Millisecond

// Watcher reloads a keymap from its file whenever the file is rewritten.
type Watcher struct {
	path    string
	keymap  *Keymap
	log     *zerolog.Logger
	watcher *fsnotify.Watcher

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Watch starts reloading m from path on changes. Failed reloads are logged
// and leave m untouched.
func Watch(path string, m *Keymap, logger *zerolog.Logger) (*Watcher, error) {
	if logger == nil {
		l := defaultLogger
		logger = &l
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create keymap watcher: %w", err)
	}

	// Editors replace files rather than write them, so watch the directory
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		path:    path,
		keymap:  m,
		log:     logger,
		watcher: fw,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go w.loop()

	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.done)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDelay, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("keymap watcher error")
		}
	}
}

func (w *Watcher) reload() {
	if w.ctx.Err() != nil {
		return
	}

	m, err := Load(w.path)
	if err != nil {
		w.log.Error().Err(err).Str("path", w.path).Msg("failed to reload keymap")
		return
	}

	w.keymap.Replace(m)
	w.log.Info().Str("path", w.path).Str("name", m.Name()).Msg("Reloaded keymap")
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.watcher.Close()
	<-w.done
	return err
}
