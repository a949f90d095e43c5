package host

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"namd/pkg/types"
)

// reloadDebounce coalesces the bursts of events an editor or copy produces.
const reloadDebounce = 250 * time.Millisecond

// Watch reloads the active model whenever its file is rewritten. It follows
// model changes through the notification stream and runs until ctx is done.
func (e *Engine) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	notes, unsubscribe := e.Subscribe(8)
	go e.watchLoop(ctx, w, notes, unsubscribe)
	return nil
}

func (e *Engine) watchLoop(ctx context.Context, w *fsnotify.Watcher, notes <-chan types.Notification, unsubscribe func()) {
	defer unsubscribe()
	defer w.Close()
	log := e.log.With().Str("component", "watch").Logger()

	var (
		current string
		dir     string
		timer   *time.Timer
		fire    <-chan time.Time
	)
	follow := func(path string) {
		path = filepath.Clean(path)
		if path == current {
			return
		}
		current = path
		next := filepath.Dir(path)
		if next == dir {
			return
		}
		if dir != "" {
			_ = w.Remove(dir)
		}
		dir = ""
		if path == "." {
			return
		}
		// Watch the directory: editors often replace the file rather than
		// write it in place.
		if err := w.Add(next); err != nil {
			log.Warn().Err(err).Str("dir", next).Msg("cannot watch model directory")
			return
		}
		dir = next
		log.Debug().Str("path", path).Msg("watching model file")
	}
	if p := e.LastPath(); p != "" {
		follow(p)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case n, ok := <-notes:
			if !ok {
				return
			}
			if n.Kind == types.NotifyModel {
				follow(n.Path)
			}
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if current == "" || filepath.Clean(ev.Name) != current || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			reloadsTotal.Inc()
			log.Info().Str("path", current).Msg("model file changed; reloading")
			if err := e.SetModel(current); err != nil {
				log.Error().Err(err).Msg("reload request failed")
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("watcher error")
		}
	}
}
