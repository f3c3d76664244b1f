// Package sync keeps a local directory synchronized into a remote
// container: an fsnotify watcher feeds a debouncer, and coalesced change
// batches are pushed to the sync server over HTTP.
package sync

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Debouncer coalesces rapid filesystem events into a single callback
// invocation. Unlike a last-event-wins debouncer, every distinct path seen
// during the quiet period is delivered, so no file change is dropped.
type Debouncer struct {
	interval time.Duration
	mu       sync.Mutex
	timer    *time.Timer
	callback func(paths []string)
	pending  map[string]struct{}
}

// NewDebouncer creates a debouncer that waits for interval of quiet before
// firing callback with all paths collected since the last invocation.
func NewDebouncer(interval time.Duration, callback func(paths []string)) *Debouncer {
	return &Debouncer{
		interval: interval,
		callback: callback,
		pending:  make(map[string]struct{}),
	}
}

// Trigger records an event for the given path. If no further events arrive
// within the debounce interval, the callback fires with the accumulated
// path set in sorted order.
func (d *Debouncer) Trigger(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending[path] = struct{}{}

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.interval, func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("debouncer callback panicked", slog.Any("error", r))
			}
		}()

		d.mu.Lock()
		paths := make([]string, 0, len(d.pending))
		for p := range d.pending {
			paths = append(paths, p)
		}
		d.pending = make(map[string]struct{})
		d.mu.Unlock()

		if len(paths) == 0 {
			return
		}

		sort.Strings(paths)
		d.callback(paths)
	})
}

// Stop cancels any pending debounced callback.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
