package media

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	mdlog "github.com/ManuGH/mediadeck/internal/log"
)

// Watcher reports library changes after a quiet period.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange func(context.Context)
	logger   zerolog.Logger

	closeOnce sync.Once
}

// NewWatcher watches root and its existing subdirectories.
func NewWatcher(root string, debounce time.Duration, onChange func(context.Context)) (*Watcher, error) {
	if onChange == nil {
		panic("invariant violation: onChange is nil in media.NewWatcher")
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{watcher: fw, debounce: debounce, onChange: onChange, logger: mdlog.WithComponent("media")}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
	if err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch library root: %w", err)
	}
	return w, nil
}

// Run dispatches debounced change notifications until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	defer w.Close()

	var debounceTimer *time.Timer
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			w.logger.Info().Str(mdlog.FieldEvent, "library.watcher_stopped").Msg("library watcher stopped")
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Write) {
				continue
			}
			if event.Has(fsnotify.Create) {
				// New subdirectories are watched too; Add fails harmlessly on files.
				_ = w.watcher.Add(event.Name)
			}
			w.logger.Debug().
				Str(mdlog.FieldEvent, "library.file_changed").
				Str(mdlog.FieldOp, event.Op.String()).
				Msg("library changed")
			if debounceTimer == nil {
				debounceTimer = time.NewTimer(w.debounce)
			} else {
				if !debounceTimer.Stop() {
					select {
					case <-debounceTimer.C:
					default:
					}
				}
				debounceTimer.Reset(w.debounce)
			}
			pending = debounceTimer.C

		case <-pending:
			pending = nil
			w.onChange(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Str(mdlog.FieldEvent, "library.watcher_error").Msg("library watcher error")
		}
	}
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() {
	w.closeOnce.Do(func() {
		_ = w.watcher.Close()
	})
}
