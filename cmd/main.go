package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"

	"github.com/okian/tally/internal/adapters/http/api"
	"github.com/okian/tally/internal/adapters/http/swagger"
	"github.com/okian/tally/internal/adapters/repository"
	"github.com/okian/tally/internal/adapters/source"
	app "github.com/okian/tally/internal/app"
	"github.com/okian/tally/internal/config"
	"github.com/okian/tally/pkg/logger"
	"github.com/okian/tally/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// cliOptions holds the parsed command line.
type cliOptions struct {
	configPath string
	once       bool
	regions    []string
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "tally:", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (cliOptions, error) {
	var o cliOptions
	fs := pflag.NewFlagSet("tally", pflag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "path to the YAML config file (overrides TALLY_CONFIG)")
	fs.BoolVar(&o.once, "once", false, "run the selected regions once, print the reports and exit")
	fs.StringSliceVar(&o.regions, "region", nil, "region to run with --once; repeatable, defaults to every configured region")
	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}
	return o, nil
}

func run(args []string, out io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := newService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Error(ctx, "close store failed", logger.Error(err))
		}
	}()

	if opts.once {
		return runOnce(ctx, svc, opts.regions, out)
	}
	return serve(ctx, cfg, svc, log)
}

// newService opens the configured store and source and builds the service.
func newService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, error) {
	store, err := repository.Open(ctx, cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	log.Info(ctx, "store opened", logger.String("driver", cfg.StoreDriver))

	return app.New(
		source.NewFileSource(cfg.SourceDir),
		store,
		app.WithLogger(log),
		app.WithRegions(cfg.Regions...),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithRunInterval(cfg.RunInterval),
	), nil
}

// runOnce runs the given regions, or all of them, and writes one JSON report
// per line to out.
func runOnce(ctx context.Context, svc *app.Service, regions []string, out io.Writer) error {
	if len(regions) == 0 {
		regions = svc.Regions()
	}
	enc := json.NewEncoder(out)
	var errs []error
	for _, r := range regions {
		report, err := svc.RunRegion(ctx, r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	return errors.Join(errs...)
}

// newMux registers the docs and API routes.
func newMux(ctx context.Context, svc *app.Service) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)
	return mux
}

func serve(ctx context.Context, cfg *config.Config, svc *app.Service, log logger.Logger) error {
	reg := metrics.GetRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}
