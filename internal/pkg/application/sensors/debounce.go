package sensors

import (
	"context"
	"sync"
	"time"
)

const DefaultDebounceDelay = 5 * time.Second

// CommitFunc is called when a reading has been stable for the whole delay.
type CommitFunc func(ctx context.Context, holderID, tagID string, weight float64)

type pending struct {
	tagID  string
	weight float64
	timer  *time.Timer
}

// Debouncer keeps at most one pending commit per holder.
type Debouncer struct {
	ctx    context.Context
	delay  time.Duration
	commit CommitFunc

	mu      sync.Mutex
	pending map[string]*pending
}

// NewDebouncer returns a Debouncer that runs commit with ctx once a holder
// has seen no new reading for delay.
func NewDebouncer(ctx context.Context, delay time.Duration, commit CommitFunc) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}

	return &Debouncer{
		ctx:     ctx,
		delay:   delay,
		commit:  commit,
		pending: map[string]*pending{},
	}
}

// Schedule replaces any pending commit for the holder. A nil tag or weight
// only cancels.
func (d *Debouncer) Schedule(holderID string, tagID *string, weight *float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p, ok := d.pending[holderID]; ok {
		p.timer.Stop()
		delete(d.pending, holderID)
	}

	if tagID == nil || *tagID == "" || weight == nil {
		return
	}

	p := &pending{tagID: *tagID, weight: *weight}
	p.timer = time.AfterFunc(d.delay, func() { d.fire(holderID, p) })
	d.pending[holderID] = p
}

func (d *Debouncer) fire(holderID string, p *pending) {
	d.mu.Lock()
	current, ok := d.pending[holderID]
	if !ok || current != p {
		d.mu.Unlock()
		return
	}
	delete(d.pending, holderID)
	d.mu.Unlock()

	d.commit(d.ctx, holderID, p.tagID, p.weight)
}

func (d *Debouncer) Pending(holderID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, ok := d.pending[holderID]
	return ok
}

// CancelAll stops every pending timer without committing.
func (d *Debouncer) CancelAll() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for id, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, id)
	}
}
