package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/vmihailenco/msgpack/v5"

	"etfRotationBot/internal/domain"
	"etfRotationBot/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements ports.BacktestRepository using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/backtests.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		err = fmt.Errorf("%w: failed to open database at '%s': %v", ports.ErrDBConnection, dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("%w: failed to ping database at '%s': %v", ports.ErrDBConnection, dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}
	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "SQLite backtest store ready", map[string]interface{}{"path": dbPath})

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		strategy TEXT NOT NULL,
		date_from TEXT NOT NULL,
		date_to TEXT NOT NULL,
		display_from TEXT NOT NULL DEFAULT '',
		initial_capital REAL NOT NULL,
		created_at TIMESTAMP NOT NULL,
		trade_count INTEGER NOT NULL,
		metrics BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		entry_date TEXT NOT NULL,
		exit_date TEXT NOT NULL,
		entry_price REAL NOT NULL,
		exit_price REAL NOT NULL,
		shares REAL NOT NULL,
		pnl REAL NOT NULL,
		return_pct REAL NOT NULL,
		days_held INTEGER NOT NULL,
		position_size_pct REAL NOT NULL,
		portfolio_return_pct REAL NOT NULL,
		reason TEXT NULL
	);

	CREATE TABLE IF NOT EXISTS equity_points (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		equity REAL NOT NULL,
		benchmark REAL NOT NULL,
		benchmark_leveraged REAL NOT NULL,
		PRIMARY KEY (run_id, date)
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs (created_at);
	CREATE INDEX IF NOT EXISTS idx_trades_run_seq ON trades (run_id, seq);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// SaveRun stores a run summary, its trades and its equity curve in one
// transaction. Saving an existing ID replaces it.
func (r *Repository) SaveRun(ctx context.Context, run ports.RunSummary, result *domain.BacktestResult) error {
	if run.ID == "" || result == nil {
		return fmt.Errorf("%w: run ID and result are required", ports.ErrInvalidRequest)
	}
	metrics, err := msgpack.Marshal(result.Metrics)
	if err != nil {
		return fmt.Errorf("failed to encode metrics for run %s: %w", run.ID, err)
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", ports.ErrQueryFailed, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, run.ID); err != nil {
		return fmt.Errorf("%w: replace run %s: %v", ports.ErrQueryFailed, run.ID, err)
	}

	const insertRun = `
	INSERT INTO runs (id, strategy, date_from, date_to, display_from, initial_capital, created_at, trade_count, metrics)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insertRun,
		run.ID, run.Strategy, run.From, run.To, run.DisplayFrom, run.InitialCapital,
		run.CreatedAt, len(result.Trades), metrics); err != nil {
		return fmt.Errorf("%w: insert run %s: %v", ports.ErrQueryFailed, run.ID, err)
	}

	tradeStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO trades (id, run_id, seq, symbol, entry_date, exit_date, entry_price, exit_price, shares,
	                    pnl, return_pct, days_held, position_size_pct, portfolio_return_pct, reason)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: prepare trade insert: %v", ports.ErrQueryFailed, err)
	}
	defer tradeStmt.Close()
	for i, t := range result.Trades {
		var reason sql.NullString
		if t.Reason != "" {
			reason = sql.NullString{String: t.Reason, Valid: true}
		}
		if _, err := tradeStmt.ExecContext(ctx,
			ulid.Make().String(), run.ID, i, t.Symbol, t.EntryDate, t.ExitDate, t.EntryPrice, t.ExitPrice, t.Shares,
			t.PnL, t.ReturnPct, t.DaysHeld, t.PositionSizePct, t.PortfolioReturnPct, reason); err != nil {
			return fmt.Errorf("%w: insert trade %d of run %s: %v", ports.ErrQueryFailed, i, run.ID, err)
		}
	}

	pointStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO equity_points (run_id, date, equity, benchmark, benchmark_leveraged)
	VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: prepare equity insert: %v", ports.ErrQueryFailed, err)
	}
	defer pointStmt.Close()
	for _, p := range result.EquityCurve {
		if _, err := pointStmt.ExecContext(ctx, run.ID, p.Date, p.Equity, p.Benchmark, p.BenchmarkLeveraged); err != nil {
			return fmt.Errorf("%w: insert equity point %s of run %s: %v", ports.ErrQueryFailed, p.Date, run.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit run %s: %v", ports.ErrQueryFailed, run.ID, err)
	}
	r.logger.Debug(ctx, "Backtest run saved", map[string]interface{}{
		"runID":  run.ID,
		"trades": len(result.Trades),
		"points": len(result.EquityCurve),
	})
	return nil
}

// FindRun loads a stored run. Returns nil, nil, nil if not found.
func (r *Repository) FindRun(ctx context.Context, id string) (*ports.RunSummary, *domain.BacktestResult, error) {
	const query = `
	SELECT id, strategy, date_from, date_to, display_from, initial_capital, created_at, trade_count, metrics
	FROM runs WHERE id = ?`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug(ctx, "Backtest run not found", map[string]interface{}{"runID": id})
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("%w: query run %s: %v", ports.ErrQueryFailed, id, err)
	}

	result := &domain.BacktestResult{Metrics: run.Metrics}
	if result.Trades, err = r.findTrades(ctx, id); err != nil {
		return nil, nil, err
	}
	if result.EquityCurve, err = r.findEquityCurve(ctx, id); err != nil {
		return nil, nil, err
	}
	return run, result, nil
}

// ListRuns returns stored run summaries, most recent first. A limit of zero
// or less returns every run.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]ports.RunSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	const query = `
	SELECT id, strategy, date_from, date_to, display_from, initial_capital, created_at, trade_count, metrics
	FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list runs: %v", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	runs := make([]ports.RunSummary, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run during ListRuns: %w", err)
		}
		runs = append(runs, *run)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}
	return runs, nil
}

func (r *Repository) findTrades(ctx context.Context, runID string) ([]domain.Trade, error) {
	const query = `
	SELECT symbol, entry_date, exit_date, entry_price, exit_price, shares, pnl, return_pct,
	       days_held, position_size_pct, portfolio_return_pct, reason
	FROM trades WHERE run_id = ? ORDER BY seq`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("%w: query trades for run %s: %v", ports.ErrQueryFailed, runID, err)
	}
	defer rows.Close()

	trades := make([]domain.Trade, 0)
	for rows.Next() {
		var t domain.Trade
		var reason sql.NullString
		if err := rows.Scan(&t.Symbol, &t.EntryDate, &t.ExitDate, &t.EntryPrice, &t.ExitPrice, &t.Shares,
			&t.PnL, &t.ReturnPct, &t.DaysHeld, &t.PositionSizePct, &t.PortfolioReturnPct, &reason); err != nil {
			return nil, fmt.Errorf("failed to scan trade for run %s: %w", runID, err)
		}
		if reason.Valid {
			t.Reason = reason.String
		}
		trades = append(trades, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}
	return trades, nil
}

func (r *Repository) findEquityCurve(ctx context.Context, runID string) ([]domain.EquityCurvePoint, error) {
	const query = `
	SELECT date, equity, benchmark, benchmark_leveraged
	FROM equity_points WHERE run_id = ? ORDER BY date`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("%w: query equity curve for run %s: %v", ports.ErrQueryFailed, runID, err)
	}
	defer rows.Close()

	curve := make([]domain.EquityCurvePoint, 0)
	for rows.Next() {
		var p domain.EquityCurvePoint
		if err := rows.Scan(&p.Date, &p.Equity, &p.Benchmark, &p.BenchmarkLeveraged); err != nil {
			return nil, fmt.Errorf("failed to scan equity point for run %s: %w", runID, err)
		}
		curve = append(curve, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating equity rows: %w", err)
	}
	return curve, nil
}

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanRun scans a runs row into a ports.RunSummary.
func scanRun(s scanner) (*ports.RunSummary, error) {
	run := &ports.RunSummary{}
	var blob []byte
	err := s.Scan(&run.ID, &run.Strategy, &run.From, &run.To, &run.DisplayFrom,
		&run.InitialCapital, &run.CreatedAt, &run.TradeCount, &blob)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	if err := msgpack.Unmarshal(blob, &run.Metrics); err != nil {
		return nil, fmt.Errorf("failed to decode metrics for run %s: %w", run.ID, err)
	}
	return run, nil
}
