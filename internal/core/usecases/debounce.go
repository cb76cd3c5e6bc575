package usecases

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid pushes into one call made after a quiet window.
// Only the most recent pending value is kept.
type Debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	fire    func(string)
	timer   *time.Timer
	pending string
	gen     uint64
	stopped bool
}

// NewDebouncer calls fire with the last pushed value once window has passed
// without another push.
func NewDebouncer(window time.Duration, fire func(string)) *Debouncer {
	return &Debouncer{window: window, fire: fire}
}

// Push replaces the pending value and restarts the quiet window.
func (d *Debouncer) Push(v string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	d.pending = v
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		if gen != d.gen || d.stopped {
			d.mu.Unlock()
			return
		}
		v := d.pending
		d.timer = nil
		d.mu.Unlock()
		d.fire(v)
	})
}

// Cancel drops the pending value, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Stop cancels and refuses further pushes.
func (d *Debouncer) Stop() {
	d.Cancel()
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
}
