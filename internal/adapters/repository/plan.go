package repository

import (
	"sort"
	"strings"
	"time"

	"github.com/okian/tally/internal/domain/ages"
	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/domain/summary"
)

type counterKey struct {
	kind Kind
	cat  model.Category
	day  model.EventDay
}

type ageKey struct {
	cat    model.Category
	day    model.EventDay
	bucket string
}

// writeSet is every row one Apply upserts.
type writeSet struct {
	counters  []CounterRow
	ageGroups []AgeGroupRow
	zeroed    int
}

// plan turns a batch into rows and resets keys the batch no longer mentions.
func plan(region, runID string, at time.Time, b summary.Batch, oldCounters []counterKey, oldAges []ageKey) writeSet {
	var ws writeSet
	seen := make(map[counterKey]struct{})

	add := func(kind Kind, rows []summary.Row) {
		for _, r := range rows {
			k := counterKey{kind, r.Category, r.EventDay}
			seen[k] = struct{}{}
			ws.counters = append(ws.counters, CounterRow{
				Region:           region,
				Kind:             kind,
				Category:         r.Category,
				EventDay:         r.EventDay,
				Complete:         r.Complete,
				Incomplete:       r.Incomplete,
				Total:            r.Total,
				Capacity:         r.Capacity,
				PercentageFilled: r.PercentageFilled,
				Rank:             r.Rank,
				RunID:            runID,
				UpdatedAt:        at,
			})
		}
	}
	add(KindMain, b.Rows)
	add(KindAdaptive, b.Adaptive)

	var stale []counterKey
	for _, k := range oldCounters {
		if _, ok := seen[k]; !ok {
			stale = append(stale, k)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return counterLess(stale[i], stale[j]) })
	next := map[Kind]int{KindMain: len(b.Rows), KindAdaptive: len(b.Adaptive)}
	for _, k := range stale {
		next[k.kind]++
		ws.counters = append(ws.counters, CounterRow{
			Region:    region,
			Kind:      k.kind,
			Category:  k.cat,
			EventDay:  k.day,
			Rank:      next[k.kind],
			RunID:     runID,
			UpdatedAt: at,
		})
		ws.zeroed++
	}

	seenAge := make(map[ageKey]struct{})
	for _, a := range b.AgeGroups {
		seenAge[ageKey{a.Category, a.EventDay, a.Bucket}] = struct{}{}
		ws.ageGroups = append(ws.ageGroups, AgeGroupRow{
			Region:    region,
			Category:  a.Category,
			EventDay:  a.EventDay,
			Bucket:    a.Bucket,
			Count:     a.Count,
			Order:     ages.Order(a.Category.Family(), a.Bucket),
			RunID:     runID,
			UpdatedAt: at,
		})
	}
	for _, k := range oldAges {
		if _, ok := seenAge[k]; ok {
			continue
		}
		ws.ageGroups = append(ws.ageGroups, AgeGroupRow{
			Region:    region,
			Category:  k.cat,
			EventDay:  k.day,
			Bucket:    k.bucket,
			Order:     ages.Order(k.cat.Family(), k.bucket),
			RunID:     runID,
			UpdatedAt: at,
		})
		ws.zeroed++
	}
	return ws
}

func counterLess(a, b counterKey) bool {
	if a.kind != b.kind {
		return a.kind < b.kind
	}
	if a.cat.Priority() != b.cat.Priority() {
		return a.cat.Priority() < b.cat.Priority()
	}
	if a.day.Order() != b.day.Order() {
		return a.day.Order() < b.day.Order()
	}
	return a.cat < b.cat
}

// sortCounters orders rows by rank, then key.
func sortCounters(rows []CounterRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Rank != rows[j].Rank {
			return rows[i].Rank < rows[j].Rank
		}
		return counterLess(
			counterKey{rows[i].Kind, rows[i].Category, rows[i].EventDay},
			counterKey{rows[j].Kind, rows[j].Category, rows[j].EventDay},
		)
	})
}

// sortAgeGroups orders rows by category priority, day, then bucket order.
func sortAgeGroups(rows []AgeGroupRow) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Category != b.Category {
			if a.Category.Priority() != b.Category.Priority() {
				return a.Category.Priority() < b.Category.Priority()
			}
			return a.Category < b.Category
		}
		if a.EventDay != b.EventDay {
			return a.EventDay.Order() < b.EventDay.Order()
		}
		return a.Order < b.Order
	})
}

func checkRegion(region string) error {
	if strings.TrimSpace(region) == "" {
		return ErrInvalidRegion
	}
	return nil
}
