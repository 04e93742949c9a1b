// watcher.go implements the source file watcher behind the "watch"
// reload mode. It wraps fsnotify with the two behaviors a restart
// trigger needs and fsnotify deliberately leaves out:
//
//   - Recursive watching: fsnotify watches single directories, so the
//     watcher walks each root and registers every subdirectory, and
//     registers newly created directories as they appear.
//   - Debouncing: editors and installers produce bursts of events
//     (write + chmod + rename for a single save). The watcher folds a
//     burst into one trigger after a quiet period, so the server is
//     restarted once per save, not once per syscall.
package server

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceQuiet is the quiet period after the last relevant event
// before a restart triggers. Long enough to absorb an editor's save
// burst, short enough to feel immediate.
const debounceQuiet = 300 * time.Millisecond

// ignoredDirs are directory base names never watched or descended
// into. They are either generated trees that churn constantly during
// a bootstrap (venv, node_modules) or VCS metadata.
var ignoredDirs = map[string]bool{
	".git":          true,
	".hg":           true,
	".venv":         true,
	"venv":          true,
	"node_modules":  true,
	"__pycache__":   true,
	".pytest_cache": true,
	".mypy_cache":   true,
}

// Watcher observes a set of directory trees and reports batched
// change notifications on its Changes channel.
type Watcher struct {
	fsw *fsnotify.Watcher

	// Changes receives one signal per debounced change burst.
	// The channel carries the path of the last event in the burst,
	// which the supervisor logs as the restart reason.
	Changes chan string

	// Errors receives watcher failures. The supervisor logs and
	// continues; a broken watcher degrades to no-reload, it does not
	// kill the server.
	Errors chan error

	done chan struct{}
}

// NewWatcher creates a Watcher over the given root directories. Each
// root is walked and all non-ignored subdirectories are registered.
func NewWatcher(roots []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:     fsw,
		Changes: make(chan string, 1),
		Errors:  make(chan error, 1),
		done:    make(chan struct{}),
	}

	for _, root := range roots {
		if err := w.addTree(root); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}

	go w.loop()
	return w, nil
}

// addTree registers root and every non-ignored directory beneath it.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// A root that does not exist is a config error; a
			// subdirectory that vanished mid-walk is not.
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if ignoredDirs[d.Name()] {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// loop consumes raw fsnotify events, filters and debounces them, and
// publishes batched triggers on Changes.
func (w *Watcher) loop() {
	// The timer starts stopped; it is armed by the first relevant
	// event of a burst and re-armed by each subsequent one.
	timer := time.NewTimer(debounceQuiet)
	if !timer.Stop() {
		<-timer.C
	}
	var lastPath string

	for {
		select {
		case <-w.done:
			timer.Stop()
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}

			// New directories must be registered immediately or
			// changes inside them are invisible.
			if event.Op.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					if !ignoredDirs[filepath.Base(event.Name)] {
						_ = w.fsw.Add(event.Name)
					}
				}
			}

			if !ShouldTrigger(event) {
				continue
			}

			lastPath = event.Name
			// Re-arm the debounce timer. Stop+drain is the
			// documented safe reset pattern for time.Timer.
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounceQuiet)

		case <-timer.C:
			// Quiet period elapsed — publish one trigger. A full
			// Changes buffer means a restart is already pending, so
			// the burst is folded into it.
			select {
			case w.Changes <- lastPath:
			default:
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		}
	}
}

// ShouldTrigger decides whether a single filesystem event is a
// restart-worthy source change.
//
// Chmod-only events are ignored (editors touch permissions without
// content changes), as are editor artifacts: backup suffixes, vim
// swap files, and hidden dotfiles. Python bytecode is ignored because
// the server's own startup generates it, which would otherwise cause
// a restart loop.
func ShouldTrigger(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}

	base := filepath.Base(event.Name)

	if strings.HasPrefix(base, ".") {
		return false
	}
	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, ".swx") {
		return false
	}
	if strings.HasSuffix(base, ".pyc") || strings.HasSuffix(base, ".pyo") {
		return false
	}

	return true
}

// Close stops the event loop and releases the underlying fsnotify
// watcher. Safe to call once.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
