package ports

import (
	"context"
	"time"

	"etfRotationBot/internal/domain"
)

// RunSummary describes a stored backtest run without its trades and curve.
type RunSummary struct {
	ID             string
	Strategy       string
	From           string
	To             string
	DisplayFrom    string
	InitialCapital float64
	CreatedAt      time.Time
	Metrics        domain.Metrics
	TradeCount     int
}

// BacktestRepository defines the interface for storing and retrieving backtest runs.
type BacktestRepository interface {
	// SaveRun stores the summary together with the result's trades and equity curve.
	SaveRun(ctx context.Context, run RunSummary, result *domain.BacktestResult) error
	// FindRun loads a stored run. Returns nil, nil, nil if not found.
	FindRun(ctx context.Context, id string) (*RunSummary, *domain.BacktestResult, error)
	// ListRuns returns stored run summaries, most recent first.
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
}
