// Package feed implements ports.DataFeed over bars already loaded in memory.
package feed

import (
	"context"
	"fmt"
	"sort"

	"etfRotationBot/internal/domain"
	"etfRotationBot/internal/ports"
)

// Config names the symbols a feed serves.
type Config struct {
	// Primary is the index whose history drives the strategy.
	Primary string
	// Tradeable symbols must all have a bar on a date for its snapshot to exist.
	Tradeable []string
}

// HistoricalFeed serves snapshots from per-symbol bar series. It is read-only
// after construction and safe for concurrent use.
type HistoricalFeed struct {
	cfg     Config
	bars    map[string][]domain.Bar
	byDate  map[string]map[string]domain.Bar
	primary []domain.Bar
}

// NewHistoricalFeed sorts and indexes barsBySymbol. The primary symbol must
// have bars; tradeable symbols may have gaps.
func NewHistoricalFeed(cfg Config, barsBySymbol map[string][]domain.Bar) (*HistoricalFeed, error) {
	if cfg.Primary == "" {
		return nil, fmt.Errorf("%w: primary symbol is required", ports.ErrConfigurationError)
	}
	f := &HistoricalFeed{
		cfg:    cfg,
		bars:   make(map[string][]domain.Bar, len(barsBySymbol)),
		byDate: make(map[string]map[string]domain.Bar, len(barsBySymbol)),
	}
	for symbol, bars := range barsBySymbol {
		sorted := make([]domain.Bar, len(bars))
		copy(sorted, bars)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

		index := make(map[string]domain.Bar, len(sorted))
		for _, bar := range sorted {
			index[bar.Date] = bar
		}
		f.bars[symbol] = sorted
		f.byDate[symbol] = index
	}

	f.primary = f.bars[cfg.Primary]
	if len(f.primary) == 0 {
		return nil, fmt.Errorf("%w: no bars for primary symbol %s", ports.ErrNoData, cfg.Primary)
	}
	return f, nil
}

// Load reads every configured symbol from store and builds a feed.
func Load(ctx context.Context, store ports.BarStore, cfg Config) (*HistoricalFeed, error) {
	barsBySymbol := make(map[string][]domain.Bar, len(cfg.Tradeable)+1)
	for _, symbol := range append([]string{cfg.Primary}, cfg.Tradeable...) {
		if _, ok := barsBySymbol[symbol]; ok {
			continue
		}
		bars, err := store.ReadBars(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("failed to load bars for %s: %w", symbol, err)
		}
		barsBySymbol[symbol] = bars
	}
	return NewHistoricalFeed(cfg, barsBySymbol)
}

// GetHistoricalData returns bars for symbol with from <= date <= to. Empty
// bounds are open.
func (f *HistoricalFeed) GetHistoricalData(ctx context.Context, symbol, from, to string) ([]domain.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrContextCanceled, err)
	}
	bars, ok := f.bars[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: symbol %s", ports.ErrNotFound, symbol)
	}

	lo := 0
	if from != "" {
		lo = sort.Search(len(bars), func(i int) bool { return bars[i].Date >= from })
	}
	hi := len(bars)
	if to != "" {
		hi = sort.Search(len(bars), func(i int) bool { return bars[i].Date > to })
	}
	if lo >= hi {
		return []domain.Bar{}, nil
	}
	out := make([]domain.Bar, hi-lo)
	copy(out, bars[lo:hi])
	return out, nil
}

// GetSnapshotForDate returns the market as of date, or nil if the primary or
// any tradeable symbol has no bar that day.
func (f *HistoricalFeed) GetSnapshotForDate(ctx context.Context, date string) (*domain.MarketSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrContextCanceled, err)
	}
	i := sort.Search(len(f.primary), func(i int) bool { return f.primary[i].Date >= date })
	if i == len(f.primary) || f.primary[i].Date != date {
		return nil, nil
	}

	snapshot := &domain.MarketSnapshot{
		Date:           date,
		PrimaryHistory: f.primary[:i+1:i+1],
		TradeableBars:  make(map[string]domain.Bar, len(f.cfg.Tradeable)),
		Prices:         map[string]float64{f.cfg.Primary: f.primary[i].Close},
	}
	for _, symbol := range f.cfg.Tradeable {
		bar, ok := f.byDate[symbol][date]
		if !ok {
			return nil, nil
		}
		snapshot.TradeableBars[symbol] = bar
		snapshot.Prices[symbol] = bar.Close
	}
	return snapshot, nil
}

// GetAvailableDateRange returns the span of the primary series.
func (f *HistoricalFeed) GetAvailableDateRange(ctx context.Context) (domain.DateRange, error) {
	if err := ctx.Err(); err != nil {
		return domain.DateRange{}, fmt.Errorf("%w: %v", ports.ErrContextCanceled, err)
	}
	return domain.DateRange{
		FirstDate: f.primary[0].Date,
		LastDate:  f.primary[len(f.primary)-1].Date,
	}, nil
}

var _ ports.DataFeed = (*HistoricalFeed)(nil)
