// Package dedupe tracks idempotency tokens for mutating requests.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Deduper remembers request tokens so repeated submissions are answered with
// the first submission's result instead of being executed again.
type Deduper interface {
	// SeenAndRecord reports whether token was already recorded and records it
	// if not. The check and the insert are atomic.
	SeenAndRecord(ctx context.Context, token string) bool

	// Unrecord forgets token so the client can retry after a failure.
	Unrecord(ctx context.Context, token string)

	// Complete attaches the outcome of the request recorded under token.
	Complete(ctx context.Context, token, result string)

	// Result returns the outcome attached to token, if any.
	Result(ctx context.Context, token string) (string, bool)

	Size() int64
}

type entry struct {
	token    string
	result   string
	recorded time.Time
}

// inMemoryDeduper keeps tokens in insertion order and evicts the oldest one
// when full. Expired tokens are dropped lazily.
type inMemoryDeduper struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List // front is newest
	maxSize int        // <= 0 means unbounded
	ttl     time.Duration
	now     func() time.Time
}

// NewInMemoryDeduper creates a deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 10000,
		ttl:     24 * time.Hour,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.items = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, token string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if el, ok := d.items[token]; ok {
		if !d.expired(el.Value.(*entry), now) {
			return true
		}
		d.remove(el)
	}

	if d.maxSize > 0 {
		for len(d.items) >= d.maxSize {
			d.remove(d.order.Back())
		}
	}
	d.items[token] = d.order.PushFront(&entry{token: token, recorded: now})
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, token string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if el, ok := d.items[token]; ok {
		d.remove(el)
	}
}

func (d *inMemoryDeduper) Complete(_ context.Context, token, result string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if el, ok := d.items[token]; ok {
		el.Value.(*entry).result = result
	}
}

func (d *inMemoryDeduper) Result(_ context.Context, token string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.items[token]
	if !ok || d.expired(el.Value.(*entry), d.now()) {
		return "", false
	}
	e := el.Value.(*entry)
	return e.result, e.result != ""
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.items))
}

func (d *inMemoryDeduper) expired(e *entry, now time.Time) bool {
	return d.ttl > 0 && now.Sub(e.recorded) >= d.ttl
}

// remove must be called with d.mu held.
func (d *inMemoryDeduper) remove(el *list.Element) {
	if el == nil {
		return
	}
	delete(d.items, el.Value.(*entry).token)
	d.order.Remove(el)
}
