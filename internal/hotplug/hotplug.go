package hotplug

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultPaths are watched when Options.Paths is nil
var DefaultPaths = []string{"/dev/disk/by-id"}

// ErrNoPaths is returned by Run when none of the paths could be watched
var ErrNoPaths = errors.New("hotplug: no watchable paths")

// Options configures the watcher
type Options struct {
	// Paths are directories whose entries come and go with devices
	Paths []string
	// Settle is how long the directories must be quiet before onChange fires
	Settle time.Duration
}

func (o *Options) setDefaults() {
	if o.Paths == nil {
		o.Paths = DefaultPaths
	}
	if o.Settle <= 0 {
		o.Settle = 250 * time.Millisecond
	}
}

// Watcher turns device node churn into debounced change notifications.
// It only says "something changed"; working out what changed is left to a
// full scan.
type Watcher struct {
	logger  *slog.Logger
	opts    Options
	watcher *fsnotify.Watcher
}

// New creates a watcher. Call Run to start it.
func New(logger *slog.Logger, opts Options) (*Watcher, error) {
	opts.setDefaults()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		logger:  logger,
		opts:    opts,
		watcher: w,
	}, nil
}

// Run watches until ctx is done, calling onChange once per burst of events.
// Paths that do not exist are skipped.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	defer w.watcher.Close()

	watched := 0
	for _, p := range w.opts.Paths {
		p = filepath.Clean(p)
		if _, err := os.Stat(p); err != nil {
			w.logger.Warn("skipping hotplug path", "path", p, "error", err)
			continue
		}
		if err := w.watcher.Add(p); err != nil {
			w.logger.Warn("failed to add watch", "path", p, "error", err)
			continue
		}
		w.logger.Debug("added watch", "path", p)
		watched++
	}
	if watched == 0 {
		return ErrNoPaths
	}

	settle := time.NewTimer(w.opts.Settle)
	settle.Stop()
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("device node event", "path", event.Name, "op", event.Op.String())
			settle.Reset(w.opts.Settle)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("hotplug watcher error", "error", err)
		case <-settle.C:
			onChange()
		}
	}
}
