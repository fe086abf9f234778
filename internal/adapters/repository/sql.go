package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver

	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/domain/summary"
	"github.com/okian/tally/pkg/metrics"
)

const (
	defaultSQLitePath  = "tally.db"
	defaultPostgresDSN = "postgres://localhost/tally?sslmode=disable"
	timeLayout         = time.RFC3339Nano
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS summary_counters (
		region TEXT NOT NULL,
		kind TEXT NOT NULL,
		category TEXT NOT NULL,
		event_day TEXT NOT NULL,
		complete INTEGER NOT NULL,
		incomplete INTEGER NOT NULL,
		total INTEGER NOT NULL,
		capacity INTEGER,
		percentage_filled DOUBLE PRECISION,
		display_rank INTEGER NOT NULL,
		run_id TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (region, kind, category, event_day)
	)`,
	`CREATE TABLE IF NOT EXISTS age_group_counters (
		region TEXT NOT NULL,
		category TEXT NOT NULL,
		event_day TEXT NOT NULL,
		age_bucket TEXT NOT NULL,
		head_count INTEGER NOT NULL,
		bucket_order INTEGER NOT NULL,
		run_id TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (region, category, event_day, age_bucket)
	)`,
}

const upsertCounter = `INSERT INTO summary_counters
	(region, kind, category, event_day, complete, incomplete, total, capacity, percentage_filled, display_rank, run_id, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (region, kind, category, event_day) DO UPDATE SET
		complete = excluded.complete,
		incomplete = excluded.incomplete,
		total = excluded.total,
		capacity = excluded.capacity,
		percentage_filled = excluded.percentage_filled,
		display_rank = excluded.display_rank,
		run_id = excluded.run_id,
		updated_at = excluded.updated_at`

const upsertAgeGroup = `INSERT INTO age_group_counters
	(region, category, event_day, age_bucket, head_count, bucket_order, run_id, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (region, category, event_day, age_bucket) DO UPDATE SET
		head_count = excluded.head_count,
		bucket_order = excluded.bucket_order,
		run_id = excluded.run_id,
		updated_at = excluded.updated_at`

// dialect captures the differences between the supported SQL engines.
type dialect struct {
	name     string
	driver   string
	numbered bool
}

var (
	sqliteDialect   = dialect{name: "sqlite", driver: "sqlite"}
	postgresDialect = dialect{name: "postgres", driver: "pgx", numbered: true}
)

// bind rewrites ? placeholders to $n for engines that need numbered ones.
func (d dialect) bind(q string) string {
	if !d.numbered {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// SQLStore persists counters in a relational database.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	opts    options
	mu      sync.Mutex
}

var _ Store = (*SQLStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database file.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLStore, error) {
	if path == "" {
		path = defaultSQLitePath
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	s, err := openSQL(ctx, sqliteDialect, path, opts)
	if err != nil {
		return nil, err
	}
	// A single connection serializes writers and keeps :memory: databases alive.
	s.db.SetMaxOpenConns(1)
	return s, nil
}

// NewPostgresStore opens a Postgres database using the pgx driver.
func NewPostgresStore(ctx context.Context, dsn string, opts ...Option) (*SQLStore, error) {
	if dsn == "" {
		dsn = defaultPostgresDSN
	}
	return openSQL(ctx, postgresDialect, dsn, opts)
}

func openSQL(ctx context.Context, d dialect, dsn string, opts []Option) (*SQLStore, error) {
	openMu.Lock()
	db, err := sqlOpen(d.driver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.name, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.name, err)
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("execute ddl: %w", err)
		}
	}
	return &SQLStore{db: db, dialect: d, opts: applyOptions(opts)}, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *SQLStore) DB() *sql.DB { return s.db }

// Driver returns the dialect name.
func (s *SQLStore) Driver() string { return s.dialect.name }

func (s *SQLStore) Apply(ctx context.Context, region string, b summary.Batch) (res ApplyResult, retErr error) {
	if err := checkRegion(region); err != nil {
		return ApplyResult{}, err
	}
	start := time.Now()
	defer func() { metrics.RecordStoreApplyLatency(float64(time.Since(start).Microseconds()) / 1000) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ApplyResult{}, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	oldCounters, err := s.counterKeys(ctx, tx, region)
	if err != nil {
		return ApplyResult{}, err
	}
	oldAges, err := s.ageKeys(ctx, tx, region)
	if err != nil {
		return ApplyResult{}, err
	}

	runID, at := s.opts.runID(), s.opts.now().UTC()
	ws := plan(region, runID, at, b, oldCounters, oldAges)

	counterStmt, err := tx.PrepareContext(ctx, s.dialect.bind(upsertCounter))
	if err != nil {
		return ApplyResult{}, fmt.Errorf("prepare counter upsert: %w", err)
	}
	defer func() { _ = counterStmt.Close() }()
	for _, r := range ws.counters {
		if _, err := counterStmt.ExecContext(ctx,
			r.Region, string(r.Kind), string(r.Category), string(r.EventDay),
			r.Complete, r.Incomplete, r.Total,
			nullInt(r.Capacity), nullFloat(r.PercentageFilled),
			r.Rank, r.RunID, r.UpdatedAt.Format(timeLayout),
		); err != nil {
			return ApplyResult{}, fmt.Errorf("upsert %s/%s: %w", r.Category, r.EventDay, err)
		}
	}

	ageStmt, err := tx.PrepareContext(ctx, s.dialect.bind(upsertAgeGroup))
	if err != nil {
		return ApplyResult{}, fmt.Errorf("prepare age upsert: %w", err)
	}
	defer func() { _ = ageStmt.Close() }()
	for _, r := range ws.ageGroups {
		if _, err := ageStmt.ExecContext(ctx,
			r.Region, string(r.Category), string(r.EventDay), r.Bucket,
			r.Count, r.Order, r.RunID, r.UpdatedAt.Format(timeLayout),
		); err != nil {
			return ApplyResult{}, fmt.Errorf("upsert %s/%s/%s: %w", r.Category, r.EventDay, r.Bucket, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return ApplyResult{}, fmt.Errorf("commit: %w", err)
	}
	return ApplyResult{RunID: runID, At: at, Counters: len(ws.counters), AgeGroups: len(ws.ageGroups), Zeroed: ws.zeroed}, nil
}

func (s *SQLStore) counterKeys(ctx context.Context, tx *sql.Tx, region string) ([]counterKey, error) {
	rows, err := tx.QueryContext(ctx, s.dialect.bind(
		`SELECT kind, category, event_day FROM summary_counters WHERE region = ?`), region)
	if err != nil {
		return nil, fmt.Errorf("select counter keys: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []counterKey
	for rows.Next() {
		var kind, cat, day string
		if err := rows.Scan(&kind, &cat, &day); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, counterKey{Kind(kind), model.Category(cat), model.EventDay(day)})
	}
	return out, rows.Err()
}

func (s *SQLStore) ageKeys(ctx context.Context, tx *sql.Tx, region string) ([]ageKey, error) {
	rows, err := tx.QueryContext(ctx, s.dialect.bind(
		`SELECT category, event_day, age_bucket FROM age_group_counters WHERE region = ?`), region)
	if err != nil {
		return nil, fmt.Errorf("select age keys: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []ageKey
	for rows.Next() {
		var cat, day, bucket string
		if err := rows.Scan(&cat, &day, &bucket); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, ageKey{model.Category(cat), model.EventDay(day), bucket})
	}
	return out, rows.Err()
}

func (s *SQLStore) Summary(ctx context.Context, region string, day model.EventDay) ([]CounterRow, error) {
	return s.counters(ctx, region, KindMain, day)
}

func (s *SQLStore) Adaptive(ctx context.Context, region string, day model.EventDay) ([]CounterRow, error) {
	return s.counters(ctx, region, KindAdaptive, day)
}

func (s *SQLStore) counters(ctx context.Context, region string, kind Kind, day model.EventDay) ([]CounterRow, error) {
	if err := checkRegion(region); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000) }()

	q := `SELECT region, kind, category, event_day, complete, incomplete, total, capacity,
		percentage_filled, display_rank, run_id, updated_at
		FROM summary_counters WHERE region = ? AND kind = ?`
	args := []any{region, string(kind)}
	if day != "" {
		q += ` AND event_day = ?`
		args = append(args, string(day))
	}
	rows, err := s.db.QueryContext(ctx, s.dialect.bind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("select counters: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []CounterRow
	for rows.Next() {
		var (
			r                    CounterRow
			kindS, cat, dayS, ts string
			capacity             sql.NullInt64
			pct                  sql.NullFloat64
		)
		if err := rows.Scan(&r.Region, &kindS, &cat, &dayS, &r.Complete, &r.Incomplete, &r.Total,
			&capacity, &pct, &r.Rank, &r.RunID, &ts); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		r.Kind, r.Category, r.EventDay = Kind(kindS), model.Category(cat), model.EventDay(dayS)
		if capacity.Valid {
			c := int(capacity.Int64)
			r.Capacity = &c
		}
		if pct.Valid {
			p := pct.Float64
			r.PercentageFilled = &p
		}
		if r.UpdatedAt, err = time.Parse(timeLayout, ts); err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortCounters(out)
	return out, nil
}

func (s *SQLStore) AgeGroups(ctx context.Context, region string, category model.Category, day model.EventDay) ([]AgeGroupRow, error) {
	if err := checkRegion(region); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000) }()

	q := `SELECT region, category, event_day, age_bucket, head_count, bucket_order, run_id, updated_at
		FROM age_group_counters WHERE region = ?`
	args := []any{region}
	if category != "" {
		q += ` AND category = ?`
		args = append(args, string(category))
	}
	if day != "" {
		q += ` AND event_day = ?`
		args = append(args, string(day))
	}
	rows, err := s.db.QueryContext(ctx, s.dialect.bind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("select age groups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []AgeGroupRow
	for rows.Next() {
		var (
			r             AgeGroupRow
			cat, dayS, ts string
		)
		if err := rows.Scan(&r.Region, &cat, &dayS, &r.Bucket, &r.Count, &r.Order, &r.RunID, &ts); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		r.Category, r.EventDay = model.Category(cat), model.EventDay(dayS)
		if r.UpdatedAt, err = time.Parse(timeLayout, ts); err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortAgeGroups(out)
	return out, nil
}

// Close closes the database.
func (s *SQLStore) Close() error { return s.db.Close() }

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
