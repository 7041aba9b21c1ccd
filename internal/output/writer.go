package output

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Writer writes compiled content under an output directory.
//
// It remembers every path written since construction so Prune can remove
// files no rep produced.
type Writer struct {
	Dir    string
	Logger *slog.Logger

	mu      sync.Mutex
	written map[string]bool
}

// NewWriter creates a writer rooted at dir.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{Dir: dir, Logger: logger, written: make(map[string]bool)}
}

// FilePath maps a rooted site path to a file under the output directory.
func (w *Writer) FilePath(sitePath string) string {
	return filepath.Join(w.Dir, filepath.FromSlash(sitePath))
}

// Write stores body at sitePath, creating parent directories.
// A file that already holds body is left untouched; changed reports
// whether the file was created or modified.
func (w *Writer) Write(sitePath string, body []byte) (changed bool, err error) {
	full := w.FilePath(sitePath)

	w.mu.Lock()
	w.written[full] = true
	w.mu.Unlock()

	existing, err := os.ReadFile(full)
	if err == nil && bytes.Equal(existing, body) {
		w.Logger.Debug("output unchanged", "path", sitePath)
		return false, nil
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("read %s: %w", full, err)
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return false, fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(full, body, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", full, err)
	}
	w.Logger.Debug("output written", "path", sitePath, "bytes", len(body))
	return true, nil
}

// Exists reports whether sitePath is present in the output directory.
func (w *Writer) Exists(sitePath string) bool {
	_, err := os.Stat(w.FilePath(sitePath))
	return err == nil
}

// Prune removes files under the output directory that are not in keep
// (site paths). Empty directories left behind are removed too.
// Returns the removed site paths, sorted.
func (w *Writer) Prune(keep []string) ([]string, error) {
	keepSet := make(map[string]bool, len(keep))
	for _, p := range keep {
		keepSet[w.FilePath(p)] = true
	}

	var removed []string
	var dirs []string
	err := filepath.WalkDir(w.Dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if p != w.Dir {
				dirs = append(dirs, p)
			}
			return nil
		}
		if keepSet[p] {
			return nil
		}
		if err := os.Remove(p); err != nil {
			return fmt.Errorf("prune %s: %w", p, err)
		}
		rel, err := filepath.Rel(w.Dir, p)
		if err != nil {
			return err
		}
		removed = append(removed, "/"+filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Deepest first so parents empty out before they are visited.
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	for _, d := range dirs {
		entries, err := os.ReadDir(d)
		if err == nil && len(entries) == 0 {
			_ = os.Remove(d)
		}
	}

	sort.Strings(removed)
	for _, p := range removed {
		w.Logger.Info("pruned stale output", "path", p)
	}
	return removed, nil
}

// Stale returns the site paths present in the output directory but not in
// keep, sorted. Nothing is removed.
func (w *Writer) Stale(keep []string) ([]string, error) {
	keepSet := make(map[string]bool, len(keep))
	for _, p := range keep {
		keepSet[p] = true
	}
	all, err := Files(w.Dir)
	if err != nil {
		return nil, err
	}
	var stale []string
	for _, p := range all {
		if !keepSet[p] {
			stale = append(stale, p)
		}
	}
	return stale, nil
}

// Files lists every regular file under dir as a rooted site path, sorted.
// A missing dir has no files.
func Files(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files = append(files, "/"+filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
