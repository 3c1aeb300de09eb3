package ports

import (
	"context"

	"etfRotationBot/internal/domain"
)

// DataFeed provides historical market data to the backtest runner.
type DataFeed interface {
	// GetHistoricalData returns bars for symbol within [from, to], sorted ascending by date.
	GetHistoricalData(ctx context.Context, symbol, from, to string) ([]domain.Bar, error)

	// GetSnapshotForDate returns the market as of date.
	// A nil snapshot with a nil error means data is missing and the day should be skipped.
	GetSnapshotForDate(ctx context.Context, date string) (*domain.MarketSnapshot, error)

	// GetAvailableDateRange returns the first and last dates the feed can serve.
	GetAvailableDateRange(ctx context.Context) (domain.DateRange, error)
}

// BarStore persists daily bar series keyed by symbol.
type BarStore interface {
	WriteBars(ctx context.Context, symbol string, bars []domain.Bar) error
	ReadBars(ctx context.Context, symbol string) ([]domain.Bar, error)
}

// BarSource fetches daily bars from an upstream market-data provider.
type BarSource interface {
	FetchDailyBars(ctx context.Context, symbol, from, to string) ([]domain.Bar, error)
}
