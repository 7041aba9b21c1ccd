// Package watch recompiles a site when its sources change.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when none is configured.
const DefaultDebounce = 200 * time.Millisecond

// Handler is called with the sorted, de-duplicated paths that changed
// during one quiet period.
type Handler func(ctx context.Context, changed []string)

// Watcher watches directories recursively and individual files.
type Watcher struct {
	dirs     []string
	files    []string
	debounce time.Duration
	logger   *slog.Logger
}

// New creates a watcher over dirs (recursive) and files. Missing paths are
// skipped.
func New(dirs, files []string, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{dirs: dirs, files: files, debounce: debounce, logger: logger}
}

// Run processes file events until ctx is cancelled, calling h once per
// burst of changes. h runs on the watcher goroutine; events arriving while
// it runs are batched into the next call.
func (w *Watcher) Run(ctx context.Context, h Handler) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	dirRoots := make([]string, 0, len(w.dirs))
	for _, dir := range w.dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return err
		}
		if err := addDirsRecursive(fw, abs); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				w.logger.Debug("watcher: skipping missing dir", slog.String("path", abs))
				continue
			}
			return err
		}
		dirRoots = append(dirRoots, abs)
	}

	files := make(map[string]bool, len(w.files))
	for _, f := range w.files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		files[abs] = true
		// Editors replace files by rename, so the parent is watched.
		if err := fw.Add(filepath.Dir(abs)); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				w.logger.Debug("watcher: skipping missing file", slog.String("path", abs))
				continue
			}
			return err
		}
	}

	w.logger.Info("watcher: started", slog.Int("dirs", len(dirRoots)), slog.Int("files", len(files)))

	var timer *time.Timer
	var fire <-chan time.Time
	pending := map[string]bool{}

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
			fire = timer.C
		} else {
			timer.Reset(w.debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.logger.Info("watcher: stopped")
			return nil

		case <-fire:
			timer, fire = nil, nil
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			pending = map[string]bool{}
			w.logger.Debug("watcher: changes settled", slog.Int("paths", len(changed)))
			h(ctx, changed)

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			path := ev.Name

			if !files[path] && !under(dirRoots, path) {
				continue
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(fw, path); addErr != nil {
						w.logger.Warn("watcher: add new dir failed",
							slog.String("path", path),
							slog.String("error", addErr.Error()))
					} else {
						w.logger.Debug("watcher: watching new dir", slog.String("path", path))
					}
				}
			}

			w.logger.Debug("watcher: event", slog.String("path", path), slog.String("op", ev.Op.String()))
			pending[path] = true
			schedule()

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// under reports whether path is inside one of roots.
func under(roots []string, path string) bool {
	for _, root := range roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
