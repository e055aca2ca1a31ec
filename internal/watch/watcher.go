// Package watch observes the source tree and triggers build passes. Change
// bursts are debounced, and at most one pass runs at a time: changes
// arriving mid-pass coalesce into exactly one follow-up pass.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"github.com/fsnotify/fsnotify"

	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// DefaultDebounce absorbs editor autosave bursts.
const DefaultDebounce = 300 * time.Millisecond

// Watcher triggers rebuild passes from filesystem events.
type Watcher struct {
	root     string
	skip     string // destination root, ignored when nested under the source
	debounce time.Duration
	fn       func(context.Context)

	fsw     *fsnotify.Watcher
	pending chan struct{}
}

// New creates a watcher over the source root. fn runs one build pass and is
// never invoked concurrently with itself.
func New(root, skip string, debounce time.Duration, fn func(context.Context)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, sberrors.Wrap(err, sberrors.CategoryWatch, sberrors.SeverityFatal, "create file watcher")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		root:     root,
		skip:     skip,
		debounce: debounce,
		fn:       fn,
		fsw:      fsw,
		pending:  make(chan struct{}, 1),
	}, nil
}

// Start registers the source tree and runs the watch and build loops until
// the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addTree(w.root); err != nil {
		return sberrors.Wrap(err, sberrors.CategoryWatch, sberrors.SeverityFatal, "watch source tree")
	}
	slog.Info("watching source tree", logfields.Path(w.root))

	go w.buildLoop(ctx)
	go w.watchLoop(ctx)
	return nil
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// addTree watches every directory under root; fsnotify is not recursive.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return err
		}
		if w.skipDir(path) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) skipDir(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") && path != w.root {
		return true
	}
	if w.skip == "" {
		return false
	}
	rel, err := filepath.Rel(w.skip, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}

func (w *Watcher) watchLoop(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if w.ignoreEvent(event) {
				continue
			}
			// New directories must be registered to keep the watch
			// recursive.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.addTree(event.Name)
				}
			}
			slog.Debug("filesystem event", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			w.requestBuild()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("watch error", logfields.Error(err))
		}
	}
}

// requestBuild coalesces: one in-flight pass plus at most one queued.
func (w *Watcher) requestBuild() {
	select {
	case w.pending <- struct{}{}:
	default:
	}
}

func (w *Watcher) buildLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.pending:
			w.fn(ctx)
		}
	}
}

func (w *Watcher) ignoreEvent(event fsnotify.Event) bool {
	if event.Op.Has(fsnotify.Chmod) && event.Op&^fsnotify.Chmod == 0 {
		return true
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") && base != "." {
		return true
	}
	if w.skip != "" {
		rel, err := filepath.Rel(w.skip, event.Name)
		if err == nil && !strings.HasPrefix(rel, "..") {
			return true
		}
	}
	return false
}
