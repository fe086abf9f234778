// Package service runs the ticket pipeline per region and serves the stored
// counters to the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/tally/internal/adapters/mq/queue"
	"github.com/okian/tally/internal/adapters/mq/worker"
	"github.com/okian/tally/internal/adapters/repository"
	"github.com/okian/tally/internal/adapters/source"
	"github.com/okian/tally/internal/config"
	"github.com/okian/tally/internal/domain/classify"
	"github.com/okian/tally/internal/domain/dedupe"
	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/domain/summary"
	"github.com/okian/tally/internal/domain/types"
	"github.com/okian/tally/internal/domain/units"
	"github.com/okian/tally/pkg/logger"
	"github.com/okian/tally/pkg/metrics"
)

// Service orchestrates fetch, classify, build, tally and upsert for each
// configured region.
type Service struct {
	mu sync.RWMutex

	// Core components
	source     source.Source
	store      repository.Store
	classifier *classify.Classifier
	pool       *worker.Pool

	// Configuration
	regions     []config.Region
	workerCount int
	queueSize   int
	dedupeSize  int
	interval    time.Duration
	now         func() time.Time

	// State
	regionLocks map[string]*sync.Mutex
	reports     map[string]types.RunReport
	started     bool
	stopCh      chan struct{}
	done        chan struct{}

	logger logger.Logger
}

// New constructs a Service reading from src and writing to store.
func New(src source.Source, store repository.Store, opts ...Option) *Service {
	s := &Service{
		source:      src,
		store:       store,
		classifier:  classify.New(),
		workerCount: runtime.NumCPU(),
		queueSize:   1024,
		now:         time.Now,
		regionLocks: make(map[string]*sync.Mutex),
		reports:     make(map[string]types.RunReport),
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("service")
	for _, r := range s.regions {
		s.regionLocks[r.Name] = &sync.Mutex{}
	}
	s.pool = worker.NewPool(s.workerCount, units.NewBuilder(), worker.WithLogger(s.logger))
	return s
}

// Regions lists the configured region names.
func (s *Service) Regions() []string {
	names := make([]string, len(s.regions))
	for i, r := range s.regions {
		names[i] = r.Name
	}
	return names
}

func (s *Service) region(name string) (config.Region, *sync.Mutex, error) {
	for _, r := range s.regions {
		if r.Name == name {
			return r, s.regionLocks[name], nil
		}
	}
	return config.Region{}, nil, fmt.Errorf("%q: %w", name, ErrUnknownRegion)
}

// Start launches periodic runs when a run interval is configured.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	s.started = true

	s.logger.Info(ctx, "tally service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("regions", len(s.regions)),
		logger.Duration("runInterval", s.interval),
	)

	if s.interval <= 0 {
		close(s.done)
		return nil
	}
	go s.loop(ctx, s.stopCh, s.done)
	return nil
}

func (s *Service) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if err := s.RunAll(ctx); err != nil {
				s.logger.Error(ctx, "scheduled run failed", logger.Error(err))
			}
		}
	}
}

// Stop ends periodic runs and waits for an in-flight scheduled run.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	done := s.done
	s.started = false
	s.mu.Unlock()

	<-done
	s.logger.Info(context.Background(), "tally service stopped")
}

// Close stops the service and closes the store.
func (s *Service) Close() error {
	s.Stop()
	return s.store.Close()
}

// RunAll runs every configured region in order and joins their errors.
func (s *Service) RunAll(ctx context.Context) error {
	var errs []error
	for _, r := range s.regions {
		if _, err := s.RunRegion(ctx, r.Name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RunRegion executes one full recompute for a region. Runs of the same region
// are serialized; a cancelled run writes nothing.
func (s *Service) RunRegion(ctx context.Context, name string) (types.RunReport, error) {
	region, lock, err := s.region(name)
	if err != nil {
		return types.RunReport{}, err
	}
	lock.Lock()
	defer lock.Unlock()

	start := s.now()
	report, err := s.run(ctx, region)
	report.StartedAt = start
	report.FinishedAt = s.now()

	seconds := time.Since(start).Seconds()
	if err != nil {
		metrics.RecordRun(name, "error", seconds)
		metrics.RecordErrorByComponent("service", "run")
		s.logger.Error(ctx, "run failed", logger.String("region", name), logger.Error(err))
		return report, fmt.Errorf("run %s: %w", name, err)
	}
	metrics.RecordRun(name, "ok", seconds)
	metrics.UpdateLastRun(name, float64(report.FinishedAt.Unix()))

	s.mu.Lock()
	s.reports[name] = report
	s.mu.Unlock()

	s.logger.Info(ctx, "run complete",
		logger.String("region", name),
		logger.String("runID", report.RunID),
		logger.Int("tickets", report.Tickets),
		logger.Int("units", report.Units),
		logger.Int("incomplete", report.Incomplete),
		logger.Int("unclassified", len(report.Unclassified)),
		logger.Int("rows", report.Rows),
	)
	return report, nil
}

func (s *Service) run(ctx context.Context, region config.Region) (types.RunReport, error) {
	report := types.RunReport{
		Region:       region.Name,
		Reasons:      map[string]int{},
		Duplicates:   []string{},
		Rejected:     []types.TicketRef{},
		Unclassified: []types.TicketRef{},
	}
	caps, err := region.CapacityConfig()
	if err != nil {
		return report, err
	}

	raw, err := s.source.Fetch(ctx, region.Name)
	if err != nil {
		return report, fmt.Errorf("fetch: %w", err)
	}
	report.Tickets = len(raw)
	metrics.RecordTicketsIngested(region.Name, len(raw))

	valid := make([]model.RawTicket, 0, len(raw))
	for _, t := range raw {
		norm, err := t.Normalize()
		if err != nil {
			report.Rejected = append(report.Rejected, types.TicketRef{
				TicketID:      t.TicketID,
				TransactionID: t.TransactionID,
				RawName:       t.RawName,
				Reason:        err.Error(),
			})
			metrics.RecordTicketRejected(region.Name, rejectReason(err))
			s.logger.Warn(ctx, "ticket rejected", logger.String("region", region.Name), logger.Error(err))
			continue
		}
		valid = append(valid, norm)
	}

	kept, dups := dedupe.Filter(ctx, dedupe.NewInMemoryDeduper(dedupe.WithExpectedSize(s.dedupeSize)), valid)
	report.Duplicates = append(report.Duplicates, dups...)
	metrics.RecordTicketsDuplicate(region.Name, len(dups))

	parts, extras, unclassified := s.partition(kept, region.ClassifyContext())
	report.Extras = extras
	report.Unclassified = append(report.Unclassified, unclassified...)
	metrics.RecordTicketsUnclassified(region.Name, len(unclassified))
	for _, u := range unclassified {
		s.logger.Debug(ctx, "unclassified ticket",
			logger.String("region", region.Name),
			logger.String("ticketID", u.TicketID),
			logger.String("rawName", u.RawName),
		)
	}

	res, err := s.build(ctx, parts, worker.Job{Region: region.Name, BreakdownDay: region.SummaryBreakdownDay})
	if err != nil {
		return report, err
	}
	report.Partitions = res.Partitions
	report.Units = res.Units
	report.Incomplete = res.Incomplete
	for r, n := range res.Reasons {
		report.Reasons[string(r)] = n
	}

	batch := summary.Finalize(res.Tally, caps)
	if err := ctx.Err(); err != nil {
		return report, err
	}

	applied, err := s.store.Apply(ctx, region.Name, batch)
	if err != nil {
		return report, fmt.Errorf("apply: %w", err)
	}
	report.RunID = applied.RunID
	report.Rows = applied.Counters
	report.Zeroed = applied.Zeroed
	metrics.RecordRowsUpserted(region.Name, applied.Counters+applied.AgeGroups)
	for _, row := range batch.Rows {
		if row.PercentageFilled != nil {
			metrics.UpdatePercentageFilled(region.Name, string(row.Category), string(row.EventDay), *row.PercentageFilled)
		}
	}
	return report, nil
}

// partition classifies tickets and groups them by transaction id. Tickets
// without a transaction id share one partition with a blank key. Extras are
// dropped here and counted.
func (s *Service) partition(tickets []model.RawTicket, ctx classify.Context) ([]queue.Partition, int, []types.TicketRef) {
	byTxn := make(map[string]*queue.Partition)
	var order []string
	var extras int
	var unclassified []types.TicketRef
	for _, t := range tickets {
		ct := s.classifier.Ticket(t, ctx)
		switch ct.Category {
		case model.CatExtra:
			extras++
			continue
		case model.CatUnclassified:
			unclassified = append(unclassified, types.TicketRef{
				TicketID:      t.TicketID,
				TransactionID: t.TransactionID,
				RawName:       t.RawName,
				Reason:        string(model.ReasonUnclassified),
			})
		}
		key := strings.TrimSpace(t.TransactionID)
		p, ok := byTxn[key]
		if !ok {
			p = &queue.Partition{Key: key}
			byTxn[key] = p
			order = append(order, key)
		}
		p.Tickets = append(p.Tickets, ct)
	}
	sort.Strings(order)
	parts := make([]queue.Partition, len(order))
	for i, k := range order {
		parts[i] = *byTxn[k]
	}
	return parts, extras, unclassified
}

// build streams partitions through a bounded queue into the worker pool.
func (s *Service) build(ctx context.Context, parts []queue.Partition, job worker.Job) (*worker.Result, error) {
	q := queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	g, gctx := errgroup.WithContext(ctx)

	var res *worker.Result
	g.Go(func() error {
		r, err := s.pool.Process(gctx, q, job)
		res = r
		return err
	})
	g.Go(func() error {
		defer func() { _ = q.Close() }()
		for _, p := range parts {
			if err := q.Enqueue(gctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidHint):
		return "invalid_hint"
	case errors.Is(err, model.ErrInvalidDay):
		return "invalid_day"
	case errors.Is(err, model.ErrMissingField):
		return "missing_field"
	}
	return "other"
}

// LastReport returns the report of the last successful run of a region.
func (s *Service) LastReport(region string) (types.RunReport, error) {
	if _, _, err := s.region(region); err != nil {
		return types.RunReport{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[region]
	if !ok {
		return types.RunReport{}, fmt.Errorf("%s: %w", region, ErrNoRun)
	}
	return r, nil
}

// Unclassified lists the tickets no rule matched in the last run.
func (s *Service) Unclassified(region string) ([]types.TicketRef, error) {
	r, err := s.LastReport(region)
	if err != nil {
		return nil, err
	}
	return r.Unclassified, nil
}

// Summary returns the stored counters of a region. With adaptive set, the
// adaptive breakdown is returned instead.
func (s *Service) Summary(ctx context.Context, region string, day model.EventDay, adaptive bool) ([]types.SummaryRow, error) {
	if _, _, err := s.region(region); err != nil {
		return nil, err
	}
	var rows []repository.CounterRow
	var err error
	if adaptive {
		rows, err = s.store.Adaptive(ctx, region, day)
	} else {
		rows, err = s.store.Summary(ctx, region, day)
	}
	if err != nil {
		return nil, err
	}
	out := make([]types.SummaryRow, len(rows))
	for i, r := range rows {
		out[i] = types.SummaryRow{
			Rank:             r.Rank,
			Category:         string(r.Category),
			DisplayName:      r.Category.DisplayName(),
			EventDay:         string(r.EventDay),
			Complete:         r.Complete,
			Incomplete:       r.Incomplete,
			Total:            r.Total,
			Capacity:         r.Capacity,
			PercentageFilled: r.PercentageFilled,
			RunID:            r.RunID,
			UpdatedAt:        r.UpdatedAt,
		}
	}
	return out, nil
}

// AgeGroups returns the stored age bucket counters of a region.
func (s *Service) AgeGroups(ctx context.Context, region string, category model.Category, day model.EventDay) ([]types.AgeGroup, error) {
	if _, _, err := s.region(region); err != nil {
		return nil, err
	}
	rows, err := s.store.AgeGroups(ctx, region, category, day)
	if err != nil {
		return nil, err
	}
	out := make([]types.AgeGroup, len(rows))
	for i, r := range rows {
		out[i] = types.AgeGroup{
			Category: string(r.Category),
			EventDay: string(r.EventDay),
			Bucket:   r.Bucket,
			Count:    r.Count,
		}
	}
	return out, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lastRuns := make(map[string]interface{}, len(s.reports))
	for name, r := range s.reports {
		lastRuns[name] = map[string]interface{}{
			"runID":        r.RunID,
			"finishedAt":   r.FinishedAt,
			"tickets":      r.Tickets,
			"units":        r.Units,
			"incomplete":   r.Incomplete,
			"unclassified": len(r.Unclassified),
		}
	}
	return map[string]interface{}{
		"started":     s.started,
		"workerCount": s.pool.Size(),
		"queueSize":   s.queueSize,
		"regions":     s.Regions(),
		"runInterval": s.interval.String(),
		"lastRuns":    lastRuns,
	}
}
