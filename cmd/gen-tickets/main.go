// Command gen-tickets writes a synthetic ticket snapshot for a region and
// optionally triggers a run against a tally server to verify it.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/okian/tally/internal/adapters/source"
	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/ticketgen"
	"github.com/okian/tally/pkg/logger"
)

type cliOptions struct {
	region  string
	out     string
	url     string
	timeout time.Duration
	days    []string
	verbose bool
	gen     ticketgen.Config
}

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "gen-tickets:", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (cliOptions, error) {
	o := cliOptions{gen: ticketgen.DefaultConfig()}
	fs := pflag.NewFlagSet("gen-tickets", pflag.ContinueOnError)
	fs.StringVar(&o.region, "region", "", "region name; the snapshot is written to <out>/<region>.jsonl")
	fs.StringVar(&o.out, "out", "data", "output directory")
	fs.StringVar(&o.url, "url", "", "tally server to trigger and verify a run on (skipped when empty)")
	fs.DurationVar(&o.timeout, "timeout", time.Minute, "HTTP timeout for the triggered run")
	fs.StringSliceVar(&o.days, "days", []string{"FRIDAY", "SATURDAY", "SUNDAY"}, "event days purchases are spread over")
	fs.BoolVar(&o.verbose, "verbose", false, "enable debug logging")
	fs.IntVar(&o.gen.Purchases, "purchases", o.gen.Purchases, "number of transactions")
	fs.Uint64Var(&o.gen.Seed, "seed", o.gen.Seed, "random seed")
	fs.Float64Var(&o.gen.IncompleteRate, "incomplete-rate", o.gen.IncompleteRate, "share of team purchases missing a member seat")
	fs.Float64Var(&o.gen.DuplicateRate, "duplicate-rate", o.gen.DuplicateRate, "share of tickets emitted twice")
	fs.Float64Var(&o.gen.MissingAgeRate, "missing-age-rate", o.gen.MissingAgeRate, "share of athlete seats without an age")
	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}
	if o.region == "" {
		return cliOptions{}, errors.New("--region is required")
	}
	o.gen.Days = o.gen.Days[:0]
	for _, d := range o.days {
		day, err := model.ParseDay(d)
		if err != nil {
			return cliOptions{}, fmt.Errorf("--days: %w", err)
		}
		o.gen.Days = append(o.gen.Days, day)
	}
	return o, nil
}

func run(args []string, logOut io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.WithWriter(logOut)); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	if opts.verbose {
		_ = logger.SetLevelString("debug")
	}
	log := logger.Named("gen-tickets")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tickets, stats, err := ticketgen.New(opts.gen).Generate(ctx)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	path := source.NewFileSource(opts.out).Path(opts.region)
	if err := writeSnapshot(path, tickets); err != nil {
		return err
	}
	log.Info(ctx, "snapshot written",
		logger.String("path", path),
		logger.Int("purchases", stats.Purchases),
		logger.Int("tickets", stats.Tickets),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("dropped", stats.Dropped),
	)
	for f, n := range stats.ByFamily {
		log.Debug(ctx, "purchases by family", logger.String("family", string(f)), logger.Int("count", n))
	}

	if opts.url == "" {
		return nil
	}
	report, err := ticketgen.NewClient(opts.url, opts.timeout).Run(ctx, opts.region)
	if err != nil {
		return err
	}
	log.Info(ctx, "run finished",
		logger.String("runID", report.RunID),
		logger.Int("units", report.Units),
		logger.Int("incomplete", report.Incomplete),
		logger.Int("rows", report.Rows),
	)
	if err := ticketgen.Verify(report, stats); err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	log.Info(ctx, "run verified")
	return nil
}

func writeSnapshot(path string, tickets []model.RawTicket) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if err := ticketgen.WriteJSONL(f, tickets); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
