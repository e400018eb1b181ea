// Package watcher reports changes to a single index file using
// github.com/fsnotify/fsnotify. SCIP indexers usually write their output in
// several steps (truncate, write, rename), so events are debounced and the
// callback runs once the file has been quiet for the debounce interval.
package watcher

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the file must be quiet before onChange runs
const DefaultDebounce = 250 * time.Millisecond

// ErrStopped is returned by Watch after Stop
var ErrStopped = errors.New("watcher stopped")

// Watcher watches one file for changes
type Watcher struct {
	fw       *fsnotify.Watcher
	debounce time.Duration
	done     chan struct{}
	wg       sync.WaitGroup

	mu      sync.Mutex
	stopped bool
	timer   *time.Timer
}

// New creates a watcher with DefaultDebounce
func New() (*Watcher, error) {
	return NewWithDebounce(DefaultDebounce)
}

// NewWithDebounce creates a watcher with a custom quiet period
func NewWithDebounce(debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fw:       fw,
		debounce: debounce,
		done:     make(chan struct{}),
	}, nil
}

// Watch starts monitoring path. The file's directory is watched rather than
// the file itself so that replacing the file by rename is still seen.
// onChange receives the absolute path of the file.
func (w *Watcher) Watch(path string, onChange func(filePath string)) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return ErrStopped
	}
	w.mu.Unlock()

	if err := w.fw.Add(filepath.Dir(absPath)); err != nil {
		return err
	}

	w.wg.Add(1)
	go w.loop(absPath, onChange)
	return nil
}

func (w *Watcher) loop(target string, onChange func(string)) {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.schedule(target, onChange)
			}

		case _, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			// fsnotify keeps delivering events after an error

		case <-w.done:
			return
		}
	}
}

// schedule restarts the quiet-period timer
func (w *Watcher) schedule(target string, onChange func(string)) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		// Registered under mu so Stop cannot start waiting before the Add
		w.mu.Lock()
		if w.stopped {
			w.mu.Unlock()
			return
		}
		w.wg.Add(1)
		w.mu.Unlock()

		defer w.wg.Done()
		onChange(target)
	})
}

// Stop ends monitoring and releases all resources. It returns once the
// event loop has exited and any onChange call in progress has returned.
// Safe to call multiple times, but not from within onChange.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	close(w.done)
	w.mu.Unlock()

	err := w.fw.Close()
	w.wg.Wait()
	return err
}
