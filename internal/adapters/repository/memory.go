package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/domain/summary"
	"github.com/okian/tally/pkg/metrics"
)

type regionState struct {
	counters map[counterKey]CounterRow
	ages     map[ageKey]AgeGroupRow
}

// MemoryStore keeps counters in process memory. Reads return copies.
type MemoryStore struct {
	mu      sync.RWMutex
	regions map[string]*regionState
	opts    options
	closed  bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		regions: make(map[string]*regionState),
		opts:    applyOptions(opts),
	}
}

func (s *MemoryStore) Apply(ctx context.Context, region string, b summary.Batch) (ApplyResult, error) {
	if err := checkRegion(region); err != nil {
		return ApplyResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return ApplyResult{}, err
	}
	start := time.Now()
	defer func() { metrics.RecordStoreApplyLatency(float64(time.Since(start).Microseconds()) / 1000) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ApplyResult{}, ErrClosed
	}

	st, ok := s.regions[region]
	if !ok {
		st = &regionState{counters: make(map[counterKey]CounterRow), ages: make(map[ageKey]AgeGroupRow)}
		s.regions[region] = st
	}
	oldCounters := make([]counterKey, 0, len(st.counters))
	for k := range st.counters {
		oldCounters = append(oldCounters, k)
	}
	oldAges := make([]ageKey, 0, len(st.ages))
	for k := range st.ages {
		oldAges = append(oldAges, k)
	}

	runID, at := s.opts.runID(), s.opts.now().UTC()
	ws := plan(region, runID, at, b, oldCounters, oldAges)
	for _, r := range ws.counters {
		st.counters[counterKey{r.Kind, r.Category, r.EventDay}] = r
	}
	for _, r := range ws.ageGroups {
		st.ages[ageKey{r.Category, r.EventDay, r.Bucket}] = r
	}
	return ApplyResult{RunID: runID, At: at, Counters: len(ws.counters), AgeGroups: len(ws.ageGroups), Zeroed: ws.zeroed}, nil
}

func (s *MemoryStore) Summary(ctx context.Context, region string, day model.EventDay) ([]CounterRow, error) {
	return s.counters(ctx, region, KindMain, day)
}

func (s *MemoryStore) Adaptive(ctx context.Context, region string, day model.EventDay) ([]CounterRow, error) {
	return s.counters(ctx, region, KindAdaptive, day)
}

func (s *MemoryStore) counters(_ context.Context, region string, kind Kind, day model.EventDay) ([]CounterRow, error) {
	if err := checkRegion(region); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	st, ok := s.regions[region]
	if !ok {
		return nil, nil
	}
	var out []CounterRow
	for k, r := range st.counters {
		if k.kind != kind || (day != "" && k.day != day) {
			continue
		}
		out = append(out, copyCounter(r))
	}
	sortCounters(out)
	return out, nil
}

func (s *MemoryStore) AgeGroups(_ context.Context, region string, category model.Category, day model.EventDay) ([]AgeGroupRow, error) {
	if err := checkRegion(region); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	st, ok := s.regions[region]
	if !ok {
		return nil, nil
	}
	var out []AgeGroupRow
	for k, r := range st.ages {
		if (category != "" && k.cat != category) || (day != "" && k.day != day) {
			continue
		}
		out = append(out, r)
	}
	sortAgeGroups(out)
	return out, nil
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func copyCounter(r CounterRow) CounterRow {
	if r.Capacity != nil {
		c := *r.Capacity
		r.Capacity = &c
	}
	if r.PercentageFilled != nil {
		p := *r.PercentageFilled
		r.PercentageFilled = &p
	}
	return r
}
