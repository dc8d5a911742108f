package frame

import "sync"

// Handle identifies a scheduled callback. The zero Handle is never issued.
type Handle uint64

// Scheduler runs callbacks on the next display refresh.
type Scheduler interface {
	Schedule(fn func()) Handle
	Cancel(h Handle)
}

// Ticker is a Scheduler driven by explicit Tick calls, once per refresh in
// production and by hand in tests.
type Ticker struct {
	mu      sync.Mutex
	next    Handle
	pending map[Handle]func()
	order   []Handle
}

// NewTicker returns an empty Ticker.
func NewTicker() *Ticker {
	return &Ticker{pending: make(map[Handle]func())}
}

// Schedule queues fn for the next Tick.
func (t *Ticker) Schedule(fn func()) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	h := t.next
	t.pending[h] = fn
	t.order = append(t.order, h)
	return h
}

// Cancel drops a pending callback. Unknown or already-run handles are
// ignored.
func (t *Ticker) Cancel(h Handle) {
	t.mu.Lock()
	delete(t.pending, h)
	t.mu.Unlock()
}

// Pending reports how many callbacks wait for the next Tick.
func (t *Ticker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Tick runs the callbacks queued before it began, in scheduling order.
// Callbacks scheduled while ticking wait for the next Tick; callbacks
// cancelled while ticking do not run. It returns the number run.
func (t *Ticker) Tick() int {
	t.mu.Lock()
	order := t.order
	t.order = nil
	t.mu.Unlock()

	ran := 0
	for _, h := range order {
		t.mu.Lock()
		fn, ok := t.pending[h]
		delete(t.pending, h)
		t.mu.Unlock()
		if ok {
			fn()
			ran++
		}
	}
	return ran
}
