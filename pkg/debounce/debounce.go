// Package debounce coalesces bursts of values into a single delayed call.
package debounce

import (
	"sync"
	"time"
)

// Func receives the last pushed value. current reports whether that value is
// still the newest one; results computed for a stale value should be dropped.
type Func[T any] func(value T, current func() bool)

type Debouncer[T any] struct {
	delay time.Duration
	fn    Func[T]

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	stopped bool
}

func New[T any](delay time.Duration, fn Func[T]) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, fn: fn}
}

// Push restarts the quiet period with v as the pending value.
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		if !d.isCurrent(gen) {
			return
		}
		d.fn(v, func() bool { return d.isCurrent(gen) })
	})
}

// Cancel drops the pending value and marks any in-flight call stale.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Stop cancels and rejects further pushes.
func (d *Debouncer[T]) Stop() {
	d.Cancel()
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
}

func (d *Debouncer[T]) isCurrent(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.stopped && d.gen == gen
}
