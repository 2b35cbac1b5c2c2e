// SPDX-License-Identifier: MPL-2.0

// Package watch requests reloads when files under a directory change.
//
// Events are filtered through doublestar glob patterns and debounced, so a
// burst of writes (an editor saving through a temp file, a build touching
// many outputs) produces a single reload request.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is the quiet period used when Config.Debounce is not positive.
const defaultDebounce = 500 * time.Millisecond

// ErrInvalidPattern is returned by New for a malformed glob.
var ErrInvalidPattern = errors.New("invalid glob pattern")

// defaultIgnores are always excluded: VCS metadata, dependency caches, editor
// swap files and OS metadata.
var defaultIgnores = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/__pycache__/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
}

type (
	// Requester receives reload requests. Requests must not block.
	Requester interface {
		Request()
	}

	// Config holds the parameters for a Watcher.
	Config struct {
		// Patterns select the files that trigger a reload, relative to BaseDir.
		// An empty slice matches every non-ignored file.
		Patterns []string
		// Ignore is merged with the built-in ignores.
		Ignore []string
		// Debounce is the quiet period after the last event.
		Debounce time.Duration
		// BaseDir is the watch root; the working directory when empty.
		BaseDir string
		// Reload is asked for a reload after each debounced batch.
		Reload Requester
		// Logger receives watcher diagnostics; nil discards them.
		Logger *log.Logger
	}

	// Watcher turns filesystem events into reload requests.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		ignores  []string
		debounce time.Duration
		baseDir  string
		logger   *log.Logger
	}
)

// New validates cfg and registers every non-ignored directory under BaseDir.
func New(cfg Config) (*Watcher, error) {
	if cfg.Reload == nil {
		return nil, errors.New("watch: no reload requester")
	}
	if err := validatePatterns(cfg.Patterns, "watch"); err != nil {
		return nil, err
	}
	if err := validatePatterns(cfg.Ignore, "ignore"); err != nil {
		return nil, err
	}

	baseDir := cfg.BaseDir
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		baseDir = wd
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve base directory: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		ignores:  append(slices.Clone(defaultIgnores), cfg.Ignore...),
		debounce: debounce,
		baseDir:  absBase,
		logger:   logger.WithPrefix("watch"),
	}

	if err := w.addDirectories(); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is cancelled. It returns nil on
// cancellation and an error when the underlying watcher breaks. The
// Watcher is closed when Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close fsnotify", "err", err)
		}
	}()

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := slices.Sorted(maps.Keys(pending))
			clear(pending)
			w.logger.Info("files changed, requesting reload", "count", len(changed), "first", changed[0])
			w.cfg.Reload.Request()

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			rel, ok := w.accept(evt)
			if !ok {
				continue
			}
			w.logger.Debug("event", "op", evt.Op.String(), "path", rel)
			pending[rel] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "err", err)
		}
	}
}

// accept filters an event and returns its path relative to BaseDir. Created
// directories are added to the watch set so that recursion covers them.
func (w *Watcher) accept(evt fsnotify.Event) (string, bool) {
	if evt.Has(fsnotify.Chmod) && !evt.Has(fsnotify.Write) {
		return "", false
	}
	rel, err := filepath.Rel(w.baseDir, evt.Name)
	if err != nil {
		rel = evt.Name
	}
	if w.isIgnored(rel) {
		return "", false
	}
	if evt.Has(fsnotify.Create) {
		w.maybeAddDir(evt.Name)
	}
	if !w.matchesPatterns(rel) {
		return "", false
	}
	return rel, true
}

// addDirectories walks BaseDir and watches every non-ignored directory.
// Patterns are applied to events, not to the walk.
func (w *Watcher) addDirectories() error {
	walkErr := filepath.WalkDir(w.baseDir, func(path string, d os.DirEntry, walkDirErr error) error {
		if walkDirErr != nil {
			w.logger.Warn("skipping inaccessible path", "path", path, "err", walkDirErr)
			return nil //nolint:nilerr // inaccessible directories are skipped, not fatal
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(w.baseDir, path)
		if relErr != nil {
			return nil //nolint:nilerr // skip paths that cannot be made relative
		}
		if rel != "." && (w.isIgnored(rel) || w.isIgnored(rel+"/")) {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, addErr)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("watch: walk directory tree: %w", walkErr)
	}
	return nil
}

func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	rel, err := filepath.Rel(w.baseDir, path)
	if err != nil || w.isIgnored(rel) || w.isIgnored(rel+"/") {
		return
	}
	if addErr := w.fsw.Add(path); addErr != nil {
		w.logger.Warn("add new directory", "path", path, "err", addErr)
	}
}

func (w *Watcher) isIgnored(rel string) bool {
	return matchAny(w.ignores, rel)
}

// matchesPatterns reports whether rel is selected; no patterns selects all.
func (w *Watcher) matchesPatterns(rel string) bool {
	return len(w.cfg.Patterns) == 0 || matchAny(w.cfg.Patterns, rel)
}

func matchAny(patterns []string, rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range patterns {
		if matched, err := doublestar.Match(pat, normalized); err == nil && matched {
			return true
		}
	}
	return false
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

func validatePatterns(patterns []string, label string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("watch: %s pattern %q: %w", label, pat, ErrInvalidPattern)
		}
	}
	return nil
}
