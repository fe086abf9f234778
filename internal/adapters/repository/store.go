// Package repository persists summary and age-group counters per region.
//
// Every Apply is a full recompute: rows written by earlier runs that the new
// batch does not mention are reset to zero, never deleted.
package repository

import (
	"context"
	"time"

	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/domain/summary"
)

// Kind separates the main counters from the adaptive breakdown.
type Kind string

// Counter kinds.
const (
	KindMain     Kind = "main"
	KindAdaptive Kind = "adaptive"
)

// CounterRow is a stored summary counter.
type CounterRow struct {
	Region           string
	Kind             Kind
	Category         model.Category
	EventDay         model.EventDay
	Complete         int
	Incomplete       int
	Total            int
	Capacity         *int
	PercentageFilled *float64
	Rank             int
	RunID            string
	UpdatedAt        time.Time
}

// AgeGroupRow is a stored age bucket counter.
type AgeGroupRow struct {
	Region    string
	Category  model.Category
	EventDay  model.EventDay
	Bucket    string
	Count     int
	Order     int
	RunID     string
	UpdatedAt time.Time
}

// ApplyResult describes one committed run.
type ApplyResult struct {
	RunID     string
	At        time.Time
	Counters  int
	AgeGroups int
	Zeroed    int
}

// Store provides all-or-nothing writes and ordered reads of counters.
type Store interface {
	// Apply writes a run's batch for a region in one transaction.
	Apply(ctx context.Context, region string, b summary.Batch) (ApplyResult, error)

	// Summary returns main counters in display order. A blank day returns
	// every day.
	Summary(ctx context.Context, region string, day model.EventDay) ([]CounterRow, error)

	// Adaptive returns the adaptive breakdown in display order.
	Adaptive(ctx context.Context, region string, day model.EventDay) ([]CounterRow, error)

	// AgeGroups returns bucket rows in bucket order. Blank filters match all.
	AgeGroups(ctx context.Context, region string, category model.Category, day model.EventDay) ([]AgeGroupRow, error)

	Close() error
}
