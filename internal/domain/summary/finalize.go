package summary

import (
	"math"
	"sort"

	"github.com/okian/tally/internal/domain/ages"
	"github.com/okian/tally/internal/domain/model"
)

// Row is one finalized summary counter.
type Row struct {
	Category         model.Category
	EventDay         model.EventDay
	Complete         int
	Incomplete       int
	Total            int
	Capacity         *int
	PercentageFilled *float64
	Rank             int
}

// AgeRow is one age bucket count.
type AgeRow struct {
	Category model.Category
	EventDay model.EventDay
	Bucket   string
	Count    int
}

// Batch is everything a run writes.
type Batch struct {
	Rows      []Row
	AgeGroups []AgeRow
	Adaptive  []Row
}

// Finalize joins capacities, zero-fills configured keys missing from the
// data and orders the rows for display.
func Finalize(t *Tally, caps CapacityConfig) Batch {
	rows := make(map[Key]*Counts, len(t.counters))
	for k, c := range t.counters {
		rows[k] = c
	}
	for _, e := range caps {
		day := e.EventDay
		if t.foldDays {
			day = model.DayAll
		}
		if day == model.DayAll && !t.foldDays && hasCategory(rows, e.Category) {
			continue
		}
		k := Key{e.Category, day}
		if _, ok := rows[k]; !ok {
			rows[k] = &Counts{}
		}
	}

	var b Batch
	for _, k := range sortKeys(rows, caps) {
		c := rows[k]
		b.Rows = append(b.Rows, row(k, c, caps))
		b.AgeGroups = append(b.AgeGroups, ageRows(k, c)...)
	}
	for i := range b.Rows {
		b.Rows[i].Rank = i + 1
	}
	for _, k := range sortKeys(t.adaptive, nil) {
		b.Adaptive = append(b.Adaptive, row(k, t.adaptive[k], caps))
	}
	for i := range b.Adaptive {
		b.Adaptive[i].Rank = i + 1
	}
	return b
}

func hasCategory(rows map[Key]*Counts, cat model.Category) bool {
	for k := range rows {
		if k.Category == cat {
			return true
		}
	}
	return false
}

func row(k Key, c *Counts, caps CapacityConfig) Row {
	r := Row{
		Category:   k.Category,
		EventDay:   k.EventDay,
		Complete:   c.Complete,
		Incomplete: c.Incomplete,
		Total:      c.Total,
	}
	if capacity, ok := caps.Lookup(k.Category, k.EventDay); ok {
		r.Capacity = &capacity
		if capacity > 0 {
			p := Percentage(c.Total, capacity)
			r.PercentageFilled = &p
		}
	}
	return r
}

// ageRows emits every bucket of the family, zero-filled, in table order.
func ageRows(k Key, c *Counts) []AgeRow {
	names := ages.Buckets(k.Category.Family())
	out := make([]AgeRow, 0, len(names))
	for _, name := range names {
		out = append(out, AgeRow{Category: k.Category, EventDay: k.EventDay, Bucket: name, Count: c.Buckets[name]})
	}
	return out
}

// Percentage is total/capacity*100 rounded to one decimal.
func Percentage(total, capacity int) float64 {
	return math.Round(float64(total)/float64(capacity)*1000) / 10
}

// sortKeys orders keys by configured position, then fallback priority, then
// day, then category name.
func sortKeys(m map[Key]*Counts, caps CapacityConfig) []Key {
	keys := make([]Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		pa, pb := caps.position(a.Category, a.EventDay), caps.position(b.Category, b.EventDay)
		if (pa >= 0) != (pb >= 0) {
			return pa >= 0
		}
		if pa != pb {
			return pa < pb
		}
		if a.Category.Priority() != b.Category.Priority() {
			return a.Category.Priority() < b.Category.Priority()
		}
		if a.EventDay.Order() != b.EventDay.Order() {
			return a.EventDay.Order() < b.EventDay.Order()
		}
		return a.Category < b.Category
	})
	return keys
}
