package service

import (
	"time"

	"github.com/okian/tally/internal/config"
	"github.com/okian/tally/internal/domain/classify"
	"github.com/okian/tally/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the bound of the per-run partition queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize pre-sizes the per-run ticket id set.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithRegions sets the regions the service can run.
func WithRegions(regions ...config.Region) Option {
	return func(s *Service) {
		s.regions = append([]config.Region(nil), regions...)
	}
}

// WithRunInterval schedules periodic runs of every region after Start.
func WithRunInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithClassifier replaces the default classifier.
func WithClassifier(c *classify.Classifier) Option {
	return func(s *Service) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithClock sets the clock used for run reports.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
