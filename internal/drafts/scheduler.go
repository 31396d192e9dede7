package drafts

import (
	"sync"
	"time"
)

// Debouncer coalesces side-effecting writes into a single-slot timer with
// cancel-on-next-write semantics. Only the most recently scheduled write ever
// runs, so a flushed write always reflects the latest state.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	pending func()
}

// NewDebouncer creates a debouncer with the given delay. A non-positive
// delay defaults to 250ms.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = 250 * time.Millisecond
	}
	return &Debouncer{delay: delay}
}

// Schedule replaces any pending write and restarts the timer.
func (d *Debouncer) Schedule(write func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = write
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	write := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()
	if write != nil {
		write()
	}
}

// FlushNow runs the pending write immediately, if any.
func (d *Debouncer) FlushNow() {
	d.mu.Lock()
	write := d.pending
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	if write != nil {
		write()
	}
}

// Stop drops any pending write without running it.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
