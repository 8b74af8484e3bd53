// SPDX-License-Identifier: MPL-2.0

// Package watch re-resolves a project when its inputs change.
//
// A Watcher monitors the project tree and invokes a callback once a quiet
// period has passed after the last change. Events inside that window are
// coalesced, so saving several files at once triggers a single resolution.
// Paths that resolution itself writes (.bundle, log, tmp) are never watched;
// otherwise writing the bundle environment would retrigger the watcher.
package watch

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Options.Debounce is unset.
const DefaultDebounce = 300 * time.Millisecond

// defaultIgnores are build outputs, VCS metadata and editor noise.
var defaultIgnores = []string{
	".bundle",
	".bundle/**",
	".git",
	".git/**",
	"log/**",
	"tmp/**",
	"*.war",
	"**/*.swp",
	"**/*~",
	"**/.DS_Store",
}

type (
	// Options configure a Watcher.
	Options struct {
		// Dir is the project root. Empty means the working directory.
		Dir string

		// Patterns select the project-relative paths that trigger a callback.
		// Empty means every path that is not ignored.
		Patterns []string

		// Ignore extends the built-in ignore patterns.
		Ignore []string

		// Debounce is the quiet period before OnChange fires.
		Debounce time.Duration

		// OnChange receives the sorted project-relative paths that changed.
		OnChange func(ctx context.Context, changed []string) error

		// Logger reports skipped paths and callback failures. Nil discards.
		Logger *log.Logger
	}

	// Watcher monitors a project tree. Run must be called exactly once.
	Watcher struct {
		opts     Options
		fsw      *fsnotify.Watcher
		ignores  []string
		logger   *log.Logger
		debounce time.Duration
		root     string
		started  atomic.Bool
	}
)

// New validates the options and registers every non-ignored directory under
// the project root.
func New(opts Options) (*Watcher, error) {
	dir := opts.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		dir = wd
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve project root: %w", err)
	}

	if err := validatePatterns(opts.Patterns, "watch"); err != nil {
		return nil, err
	}
	if err := validatePatterns(opts.Ignore, "ignore"); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		opts:     opts,
		fsw:      fsw,
		ignores:  append(slices.Clone(defaultIgnores), opts.Ignore...),
		logger:   logger,
		debounce: debounce,
		root:     root,
	}
	if err := w.addDirectories(); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			logger.Warn("close watcher after init failure", "err", closeErr)
		}
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is cancelled. It returns nil on
// cancellation and an error when the underlying watcher breaks.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return fmt.Errorf("watch: Run called more than once")
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	// fire runs on the timer goroutine. A resolution still in progress
	// postpones the next one instead of running two at once.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			w.logger.Debug("resolution still running, postponing")
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if w.opts.OnChange != nil {
			if err := w.opts.OnChange(ctx, changed); err != nil {
				w.logger.Error("re-resolution failed", "err", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close watcher", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watch: event channel closed unexpectedly")
			}
			rel := w.rel(evt.Name)
			if w.isIgnored(rel) {
				continue
			}
			// New directories are watched even when only their contents
			// match a pattern.
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}
			if !w.matches(rel) {
				continue
			}

			mu.Lock()
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watch: error channel closed unexpectedly")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "err", err)
		}
	}
}

// addDirectories registers the project root and every directory below it
// that is not ignored. Patterns are applied when events arrive.
func (w *Watcher) addDirectories() error {
	err := filepath.WalkDir(w.root, func(p string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			w.logger.Warn("skipping inaccessible path", "path", p, "err", walkErr)
			return nil //nolint:nilerr // unreadable directories are not watched
		}
		if !d.IsDir() {
			return nil
		}
		if rel := w.rel(p); rel != "." && w.isIgnored(rel) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			return fmt.Errorf("watch: add directory %q: %w", p, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walk project tree: %w", err)
	}
	return nil
}

// maybeAddDir extends the watch to directories created after startup.
func (w *Watcher) maybeAddDir(p string) {
	info, err := os.Stat(p)
	if err != nil || !info.IsDir() || w.isIgnored(w.rel(p)) {
		return
	}
	if err := w.fsw.Add(p); err != nil {
		w.logger.Warn("add new directory", "path", p, "err", err)
	}
}

// rel returns p relative to the project root in slash form.
func (w *Watcher) rel(p string) string {
	rel, err := filepath.Rel(w.root, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

func (w *Watcher) isIgnored(rel string) bool {
	return matchAny(w.ignores, rel)
}

func (w *Watcher) matches(rel string) bool {
	return len(w.opts.Patterns) == 0 || matchAny(w.opts.Patterns, rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

// validatePatterns rejects malformed globs at construction time.
func validatePatterns(patterns []string, label string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("watch: invalid %s pattern %q: %w", label, pat, doublestar.ErrBadPattern)
		}
	}
	return nil
}
