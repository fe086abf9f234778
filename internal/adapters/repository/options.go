package repository

import (
	"time"

	"github.com/google/uuid"
)

type options struct {
	now   func() time.Time
	runID func() string
}

func defaultOptions() options {
	return options{
		now:   time.Now,
		runID: func() string { return uuid.NewString() },
	}
}

// Option applies a configuration option to a Store.
type Option func(*options)

// WithClock sets the clock used for updated_at.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithRunIDs sets the run id generator.
func WithRunIDs(next func() string) Option {
	return func(o *options) {
		if next != nil {
			o.runID = next
		}
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
