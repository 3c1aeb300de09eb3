// Package backtesting drives a strategy over historical data one trading day
// at a time and produces a domain.BacktestResult.
package backtesting

import (
	"context"
	"fmt"

	"etfRotationBot/internal/domain"
	"etfRotationBot/internal/ports"
	"etfRotationBot/internal/strategy/analytics"
	"etfRotationBot/internal/strategy/indicators"
)

// OrderPlanner turns a decision into orders. *portfolio.Manager implements it.
type OrderPlanner interface {
	CalculateOrders(decision domain.Signal, position *domain.Position, totalEquity float64, prices map[string]float64) []domain.Order
}

// BacktestConfig holds configuration for a single run
type BacktestConfig struct {
	PrimarySymbol  string // index driving the strategy and the passive benchmark
	LongSymbol     string // leveraged ticker used for the leveraged benchmark
	From           string // first date processed, inclusive; empty for the feed's first date
	To             string // last date processed, inclusive; empty for the feed's last date
	DisplayFrom    string // optional rebase date
	InitialCapital float64
	// WarmupBars overrides the warmup length. Zero uses the strategy's
	// RequiredDataPoints.
	WarmupBars int
}

// Phase is the runner state.
type Phase string

const (
	PhaseWarmup  Phase = "WARMUP"
	PhaseTrading Phase = "TRADING"
	PhaseClosed  Phase = "CLOSED"
)

// Runner executes backtests. A Runner holds no per-run state and may be used
// for several runs, each with its own broker.
type Runner struct {
	cfg      BacktestConfig
	strategy ports.Strategy
	planner  OrderPlanner
	logger   ports.Logger
}

// NewRunner validates cfg and creates a Runner.
func NewRunner(cfg BacktestConfig, strategy ports.Strategy, planner OrderPlanner, logger ports.Logger) (*Runner, error) {
	if strategy == nil || planner == nil {
		return nil, fmt.Errorf("%w: strategy and order planner are required", ports.ErrConfigurationError)
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for backtest runner")
	}
	if cfg.PrimarySymbol == "" || cfg.LongSymbol == "" {
		return nil, fmt.Errorf("%w: primary and long symbols are required", ports.ErrConfigurationError)
	}
	if cfg.InitialCapital <= 0 {
		return nil, fmt.Errorf("%w: initial capital must be positive", ports.ErrConfigurationError)
	}
	if cfg.WarmupBars < 0 {
		return nil, fmt.Errorf("%w: warmup bars must not be negative", ports.ErrConfigurationError)
	}
	if cfg.From != "" && cfg.To != "" && cfg.From > cfg.To {
		return nil, fmt.Errorf("%w: from %s is after to %s", ports.ErrConfigurationError, cfg.From, cfg.To)
	}
	return &Runner{cfg: cfg, strategy: strategy, planner: planner, logger: logger}, nil
}

// Config returns the runner configuration.
func (r *Runner) Config() BacktestConfig { return r.cfg }

// warmupBars returns the number of leading days the strategy is held flat.
func (r *Runner) warmupBars() int {
	if r.cfg.WarmupBars > 0 {
		return r.cfg.WarmupBars
	}
	return r.strategy.RequiredDataPoints()
}

// openLot tracks the position the runner believes is open, for trade records.
type openLot struct {
	symbol          string
	entryDate       string
	shares          float64
	avgPrice        float64
	positionSizePct float64
}

// run holds the mutable state of one backtest.
type run struct {
	phase       Phase
	cache       *indicators.Cache
	lot         *openLot
	trades      []domain.Trade
	curve       []domain.EquityCurvePoint
	basePrimary float64
	baseLong    float64
	lastDate    string
}

// Run executes the backtest over the primary symbol's trading dates in
// [From, To]. Feed or broker errors abort the run; per-order failures do not.
func (r *Runner) Run(ctx context.Context, feed ports.DataFeed, broker ports.SimulationBroker) (*domain.BacktestResult, error) {
	dates, err := feed.GetHistoricalData(ctx, r.cfg.PrimarySymbol, r.cfg.From, r.cfg.To)
	if err != nil {
		return nil, fmt.Errorf("loading trading dates: %w", err)
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("%w: no %s bars between %q and %q", ports.ErrInsufficientData, r.cfg.PrimarySymbol, r.cfg.From, r.cfg.To)
	}

	warmup := r.warmupBars()
	st := &run{phase: PhaseWarmup, cache: indicators.NewCache()}
	r.logger.Info(ctx, "Backtest started", map[string]interface{}{
		"strategy":       r.strategy.Name(),
		"from":           dates[0].Date,
		"to":             dates[len(dates)-1].Date,
		"days":           len(dates),
		"warmupBars":     warmup,
		"initialCapital": r.cfg.InitialCapital,
	})

	for i, day := range dates {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ports.ErrContextCanceled, err)
		}
		if i == warmup {
			st.phase = PhaseTrading
		}

		snapshot, err := feed.GetSnapshotForDate(ctx, day.Date)
		if err != nil {
			return nil, fmt.Errorf("loading snapshot for %s: %w", day.Date, err)
		}
		if snapshot == nil {
			r.logger.Debug(ctx, "Skipping day with missing data", map[string]interface{}{"date": day.Date, "phase": st.phase})
			continue
		}
		r.setBenchmarkBase(st, snapshot)

		if st.phase == PhaseWarmup {
			st.curve = append(st.curve, r.point(st, snapshot, r.cfg.InitialCapital))
			st.lastDate = snapshot.Date
			continue
		}

		if err := r.tradeDay(ctx, st, snapshot, broker); err != nil {
			return nil, err
		}
	}

	if err := r.close(ctx, st, broker); err != nil {
		return nil, err
	}

	result := &domain.BacktestResult{Trades: st.trades, EquityCurve: st.curve}
	if result.Trades == nil {
		result.Trades = []domain.Trade{}
	}
	if result.EquityCurve == nil {
		result.EquityCurve = []domain.EquityCurvePoint{}
	}
	if r.cfg.DisplayFrom != "" {
		result.EquityCurve, result.Trades = Rebase(result.EquityCurve, result.Trades, r.cfg.DisplayFrom)
	}
	result.Metrics = analytics.ComputeMetrics(result.EquityCurve, result.Trades)

	stats := st.cache.Stats()
	r.logger.Debug(ctx, "Indicator cache", map[string]interface{}{"hits": stats.Hits, "misses": stats.Misses, "entries": stats.Entries})
	r.logger.Info(ctx, "Backtest finished", map[string]interface{}{
		"strategy":    r.strategy.Name(),
		"trades":      len(result.Trades),
		"points":      len(result.EquityCurve),
		"totalReturn": result.Metrics.TotalReturn,
		"maxDrawdown": result.Metrics.MaxDrawdown,
	})
	return result, nil
}

func (r *Runner) tradeDay(ctx context.Context, st *run, snapshot *domain.MarketSnapshot, broker ports.SimulationBroker) error {
	if err := broker.SetMarket(ctx, snapshot.Date, snapshot.Prices); err != nil {
		return fmt.Errorf("setting market for %s: %w", snapshot.Date, err)
	}
	state, err := broker.GetPortfolioState(ctx)
	if err != nil {
		return fmt.Errorf("reading portfolio on %s: %w", snapshot.Date, err)
	}

	decision := r.strategy.Analyze(ctx, snapshot.PrimaryHistory, st.cache)
	orders := r.planner.CalculateOrders(decision, state.Position, state.TotalEquity, snapshot.Prices)
	if len(orders) > 0 {
		results, err := broker.PlaceOrders(ctx, orders)
		if err != nil {
			return fmt.Errorf("placing orders on %s: %w", snapshot.Date, err)
		}
		r.applyResults(ctx, st, snapshot.Date, state.TotalEquity, results)
	}

	after, err := broker.GetPortfolioState(ctx)
	if err != nil {
		return fmt.Errorf("reading portfolio on %s: %w", snapshot.Date, err)
	}
	st.curve = append(st.curve, r.point(st, snapshot, after.TotalEquity))
	st.lastDate = snapshot.Date
	return nil
}

func (r *Runner) applyResults(ctx context.Context, st *run, date string, equity float64, results []domain.OrderResult) {
	for _, res := range results {
		if !res.Success {
			r.logger.Warn(ctx, "Order failed", map[string]interface{}{
				"date":   date,
				"symbol": res.Order.Symbol,
				"side":   res.Order.Side,
				"shares": res.Order.Shares,
				"error":  res.Error,
			})
			continue
		}
		switch res.Order.Side {
		case domain.Buy:
			r.recordEntry(st, date, equity, res)
		case domain.Sell:
			r.recordExit(ctx, st, date, res)
		}
	}
}

func (r *Runner) recordEntry(st *run, date string, equity float64, res domain.OrderResult) {
	cost := res.FilledShares * res.FillPrice
	if st.lot == nil || st.lot.symbol != res.Order.Symbol {
		st.lot = &openLot{symbol: res.Order.Symbol, entryDate: date}
	}
	totalCost := st.lot.shares*st.lot.avgPrice + cost
	st.lot.shares += res.FilledShares
	st.lot.avgPrice = totalCost / st.lot.shares
	if equity > 0 {
		st.lot.positionSizePct = totalCost / equity * 100
	}
}

func (r *Runner) recordExit(ctx context.Context, st *run, date string, res domain.OrderResult) {
	lot := st.lot
	if lot == nil || lot.symbol != res.Order.Symbol {
		r.logger.Warn(ctx, "Sell without tracked entry", map[string]interface{}{"date": date, "symbol": res.Order.Symbol})
		return
	}

	trade := domain.Trade{
		EntryDate:       lot.entryDate,
		ExitDate:        date,
		Symbol:          lot.symbol,
		EntryPrice:      lot.avgPrice,
		ExitPrice:       res.FillPrice,
		Shares:          res.FilledShares,
		PnL:             (res.FillPrice - lot.avgPrice) * res.FilledShares,
		DaysHeld:        domain.DaysBetween(lot.entryDate, date),
		PositionSizePct: lot.positionSizePct,
		Reason:          res.Order.Reason,
	}
	if lot.avgPrice > 0 {
		trade.ReturnPct = (res.FillPrice/lot.avgPrice - 1) * 100
	}
	trade.PortfolioReturnPct = trade.ReturnPct * trade.PositionSizePct / 100
	st.trades = append(st.trades, trade)

	lot.shares -= res.FilledShares
	if lot.shares <= 0 {
		st.lot = nil
	}
	r.logger.Info(ctx, "Trade recorded", map[string]interface{}{
		"symbol":    trade.Symbol,
		"entryDate": trade.EntryDate,
		"exitDate":  trade.ExitDate,
		"shares":    trade.Shares,
		"pnl":       trade.PnL,
		"returnPct": trade.ReturnPct,
	})
}

// close force-sells any open position at the last processed bar. The equity
// curve is not extended.
func (r *Runner) close(ctx context.Context, st *run, broker ports.SimulationBroker) error {
	st.phase = PhaseClosed
	if st.lastDate == "" {
		return nil
	}
	state, err := broker.GetPortfolioState(ctx)
	if err != nil {
		return fmt.Errorf("reading final portfolio: %w", err)
	}
	if state.IsFlat() {
		return nil
	}

	order := domain.Order{
		Symbol: state.Position.Symbol,
		Side:   domain.Sell,
		Shares: state.Position.Shares,
		Reason: "end of backtest",
	}
	results, err := broker.PlaceOrders(ctx, []domain.Order{order})
	if err != nil {
		return fmt.Errorf("closing final position: %w", err)
	}
	for _, res := range results {
		if !res.Success {
			r.logger.Error(ctx, res.Err, "Failed to close final position", map[string]interface{}{"symbol": order.Symbol, "date": st.lastDate})
			continue
		}
		r.logger.Info(ctx, "Closed final position", map[string]interface{}{"symbol": order.Symbol, "date": st.lastDate, "price": res.FillPrice})
		r.recordExit(ctx, st, st.lastDate, res)
	}
	return nil
}

func (r *Runner) setBenchmarkBase(st *run, snapshot *domain.MarketSnapshot) {
	if st.basePrimary == 0 {
		st.basePrimary = snapshot.Prices[r.cfg.PrimarySymbol]
	}
	if st.baseLong == 0 {
		st.baseLong = snapshot.Prices[r.cfg.LongSymbol]
	}
}

// point builds the day's equity curve entry from the account's total equity.
func (r *Runner) point(st *run, snapshot *domain.MarketSnapshot, equity float64) domain.EquityCurvePoint {
	p := domain.EquityCurvePoint{
		Date:   snapshot.Date,
		Equity: (equity/r.cfg.InitialCapital - 1) * 100,
	}
	p.Benchmark = passiveReturn(st.basePrimary, snapshot.Prices[r.cfg.PrimarySymbol])
	p.BenchmarkLeveraged = passiveReturn(st.baseLong, snapshot.Prices[r.cfg.LongSymbol])
	return p
}

// passiveReturn is the percent return of a fixed share count bought at base.
func passiveReturn(base, price float64) float64 {
	if base <= 0 || price <= 0 {
		return 0
	}
	return (price/base - 1) * 100
}
