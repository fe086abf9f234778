// Package dedupe drops repeated ticket ids within one ingestion snapshot.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/tally/internal/domain/model"
)

// Deduper records seen ticket ids so each ticket is processed at most once
// per run.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Reset forgets every id. Call it between runs.
	Reset()

	Size() int64
}

// inMemoryDeduper implements Deduper with a map guarded by a mutex.
type inMemoryDeduper struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	expected int
	size     atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{}, d.expected)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	d.seen[id] = struct{}{}
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seen = make(map[string]struct{}, d.expected)
	d.size.Store(0)
}

// Size returns the current number of recorded ids.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}

// Filter keeps the first occurrence of every ticket id in input order and
// returns the ids of dropped repeats.
func Filter(ctx context.Context, d Deduper, tickets []model.RawTicket) ([]model.RawTicket, []string) {
	kept := make([]model.RawTicket, 0, len(tickets))
	var dups []string
	for _, t := range tickets {
		if d.SeenAndRecord(ctx, t.TicketID) {
			dups = append(dups, t.TicketID)
			continue
		}
		kept = append(kept, t)
	}
	return kept, dups
}
