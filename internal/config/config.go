// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/okian/tally/internal/domain/classify"
	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/domain/summary"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory partition queue of a run.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of unit-building workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize pre-sizes the per-run ticket id set.
	DedupeSize int `koanf:"dedupe_size"`

	// StoreDriver selects the counter store: memory, sqlite or postgres.
	StoreDriver string `koanf:"store_driver"`

	// StoreDSN is the sqlite path or postgres connection string.
	StoreDSN string `koanf:"store_dsn"`

	// SourceDir holds one <region>.jsonl snapshot per region.
	SourceDir string `koanf:"source_dir"`

	// RunInterval schedules periodic runs of every region. Zero disables.
	RunInterval time.Duration `koanf:"run_interval"`

	// Regions lists the regions the engine summarizes.
	Regions []Region `koanf:"regions"`
}

// Region holds the per-region flags and capacities.
type Region struct {
	Name                  string     `koanf:"name"`
	ExcludeAdaptiveSunday bool       `koanf:"exclude_adaptive_sunday"`
	SummaryBreakdownDay   bool       `koanf:"summary_breakdown_day"`
	Capacities            []Capacity `koanf:"capacities"`
}

// Capacity is one configured capacity entry. Category accepts the tag or
// the display name; EventDay accepts any day spelling ParseDay does.
type Capacity struct {
	Category string `koanf:"category"`
	EventDay string `koanf:"event_day"`
	Capacity int    `koanf:"capacity"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:    "info",
		LogFormat:   "text",
		Addr:        ":9080",
		QueueSize:   1024,
		WorkerCount: runtime.NumCPU(),
		DedupeSize:  10_000,
		StoreDriver: "memory",
		SourceDir:   "data",
	}
}

// Region returns the region with the given name.
func (c *Config) Region(name string) (Region, bool) {
	for _, r := range c.Regions {
		if r.Name == name {
			return r, true
		}
	}
	return Region{}, false
}

// RegionNames lists configured regions in order.
func (c *Config) RegionNames() []string {
	names := make([]string, len(c.Regions))
	for i, r := range c.Regions {
		names[i] = r.Name
	}
	return names
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty: %w", ErrInvalidConfig)
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("worker_count must be positive: %w", ErrInvalidConfig)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("queue_size must be positive: %w", ErrInvalidConfig)
	}
	if c.RunInterval < 0 {
		return fmt.Errorf("run_interval must not be negative: %w", ErrInvalidConfig)
	}
	switch strings.ToLower(c.StoreDriver) {
	case "", "memory", "sqlite", "postgres", "pgx":
	default:
		return fmt.Errorf("store_driver %q: %w", c.StoreDriver, ErrInvalidConfig)
	}
	seen := make(map[string]struct{}, len(c.Regions))
	for _, r := range c.Regions {
		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("region name must not be empty: %w", ErrInvalidConfig)
		}
		if _, dup := seen[r.Name]; dup {
			return fmt.Errorf("region %q listed twice: %w", r.Name, ErrInvalidConfig)
		}
		seen[r.Name] = struct{}{}
		if _, err := r.CapacityConfig(); err != nil {
			return err
		}
	}
	return nil
}

// ClassifyContext returns the classifier flags of the region.
func (r Region) ClassifyContext() classify.Context {
	return classify.Context{ExcludeAdaptiveSunday: r.ExcludeAdaptiveSunday}
}

// CapacityConfig converts the configured entries, keeping their order.
// A blank event day means ALL.
func (r Region) CapacityConfig() (summary.CapacityConfig, error) {
	out := make(summary.CapacityConfig, 0, len(r.Capacities))
	for i, c := range r.Capacities {
		cat, err := model.ParseCategory(c.Category)
		if err != nil {
			return nil, fmt.Errorf("region %s capacity %d: %v: %w", r.Name, i, err, ErrInvalidConfig)
		}
		day := model.DayAll
		if strings.TrimSpace(c.EventDay) != "" {
			if day, err = model.ParseDay(c.EventDay); err != nil {
				return nil, fmt.Errorf("region %s capacity %d: %v: %w", r.Name, i, err, ErrInvalidConfig)
			}
		}
		if c.Capacity < 0 {
			return nil, fmt.Errorf("region %s capacity %d is negative: %w", r.Name, i, ErrInvalidConfig)
		}
		out = append(out, summary.Capacity{Category: cat, EventDay: day, Capacity: c.Capacity})
	}
	return out, nil
}
