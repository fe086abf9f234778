package summary

import (
	"github.com/okian/tally/internal/domain/model"
)

// Capacity is one configured capacity entry.
type Capacity struct {
	Category model.Category
	EventDay model.EventDay
	Capacity int
}

// CapacityConfig is an ordered list of entries. The order is the display
// order of the summary.
type CapacityConfig []Capacity

// Lookup resolves the capacity of a key. A day-specific entry wins over an
// ALL entry. For the ALL day without an ALL entry, day-specific entries of
// the category are summed.
func (c CapacityConfig) Lookup(cat model.Category, day model.EventDay) (int, bool) {
	var all, sum int
	var hasAll, hasDay bool
	for _, e := range c {
		if e.Category != cat {
			continue
		}
		switch {
		case e.EventDay == day:
			return e.Capacity, true
		case e.EventDay == model.DayAll:
			if !hasAll {
				all, hasAll = e.Capacity, true
			}
		default:
			sum += e.Capacity
			hasDay = true
		}
	}
	if hasAll {
		return all, true
	}
	if day == model.DayAll && hasDay {
		return sum, true
	}
	return 0, false
}

// position is the display position of a key, or -1 when unconfigured.
func (c CapacityConfig) position(cat model.Category, day model.EventDay) int {
	for i, e := range c {
		if e.Category != cat {
			continue
		}
		if e.EventDay == day || e.EventDay == model.DayAll || day == model.DayAll {
			return i
		}
	}
	return -1
}
