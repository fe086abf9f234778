// Package summary folds validated units into capacity-aware counters.
package summary

import (
	"github.com/okian/tally/internal/domain/ages"
	"github.com/okian/tally/internal/domain/classify"
	"github.com/okian/tally/internal/domain/model"
)

// Key identifies a counter.
type Key struct {
	Category model.Category
	EventDay model.EventDay
}

// Counts are head counts for one key.
type Counts struct {
	Complete   int
	Incomplete int
	Total      int
	Buckets    map[string]int
}

func (c *Counts) add(o *Counts) {
	c.Complete += o.Complete
	c.Incomplete += o.Incomplete
	c.Total += o.Total
	for b, n := range o.Buckets {
		if c.Buckets == nil {
			c.Buckets = make(map[string]int)
		}
		c.Buckets[b] += n
	}
}

// Tally accumulates units. A Tally is owned by one goroutine; partial tallies
// are combined with Merge.
type Tally struct {
	foldDays bool
	counters map[Key]*Counts
	adaptive map[Key]*Counts
	units    int
}

// NewTally returns an empty Tally. When breakdownDay is false every unit is
// counted under the ALL day.
func NewTally(breakdownDay bool) *Tally {
	return &Tally{
		foldDays: !breakdownDay,
		counters: make(map[Key]*Counts),
		adaptive: make(map[Key]*Counts),
	}
}

// Add counts a validated unit. Units count their required heads.
func (t *Tally) Add(u *model.Unit) {
	if u.Category.Family() == model.FamilyExcluded {
		return
	}
	day := u.EventDay
	if t.foldDays {
		day = model.DayAll
	}
	heads := u.RequiredMembers
	if heads < 1 {
		heads = 1
	}
	t.units++
	addTo(t.counters, Key{u.Category, day}, u, heads)

	if len(u.Members) == 1 {
		if cat, ok := classify.AdaptiveCategory(u.Members[0]); ok {
			addTo(t.adaptive, Key{cat, day}, u, heads)
		}
	}
}

func addTo(m map[Key]*Counts, k Key, u *model.Unit, heads int) {
	c, ok := m[k]
	if !ok {
		c = &Counts{}
		m[k] = c
	}
	c.Total += heads
	if u.Incomplete {
		c.Incomplete += heads
	} else {
		c.Complete += heads
	}
	if u.Bucket != "" {
		if c.Buckets == nil {
			c.Buckets = make(map[string]int)
		}
		c.Buckets[u.Bucket] += heads
		c.Buckets[ages.BucketTotal] += heads
	}
}

// Merge adds o into t.
func (t *Tally) Merge(o *Tally) {
	if o == nil {
		return
	}
	t.units += o.units
	merge(t.counters, o.counters)
	merge(t.adaptive, o.adaptive)
}

func merge(dst, src map[Key]*Counts) {
	for k, c := range src {
		d, ok := dst[k]
		if !ok {
			d = &Counts{}
			dst[k] = d
		}
		d.add(c)
	}
}

// Units returns the number of units added.
func (t *Tally) Units() int { return t.units }

// Get returns the counts for a key.
func (t *Tally) Get(k Key) (Counts, bool) {
	c, ok := t.counters[k]
	if !ok {
		return Counts{}, false
	}
	return *c, true
}
