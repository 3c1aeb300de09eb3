package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"etfRotationBot/config"
	"etfRotationBot/internal/adapters/feed"
	"etfRotationBot/internal/adapters/simbroker"
	"etfRotationBot/internal/domain"
	"etfRotationBot/internal/portfolio"
	"etfRotationBot/internal/ports"
	"etfRotationBot/internal/risk"
	"etfRotationBot/internal/strategy/backtesting"
	"etfRotationBot/internal/strategy/optimization"
	"etfRotationBot/internal/strategy/strategies"
)

// RunRecord is a finished backtest together with its stored summary.
type RunRecord struct {
	Summary ports.RunSummary
	Result  *domain.BacktestResult
}

// BacktestService orchestrates a backtest: load bars, build the strategy,
// simulate, and persist the result.
type BacktestService struct {
	cfg    *config.Config
	logger ports.Logger
	store  ports.BarStore
	repo   ports.BacktestRepository // optional
	risk   risk.RiskConfig
}

// NewBacktestService creates a new application service instance. repo may be
// nil, in which case results are returned but not stored.
func NewBacktestService(
	cfg *config.Config,
	logger ports.Logger,
	store ports.BarStore,
	repo ports.BacktestRepository,
) (*BacktestService, error) {
	if cfg == nil || logger == nil || store == nil {
		return nil, fmt.Errorf("missing required dependencies for BacktestService")
	}
	if cfg.InitialCapital <= 0 {
		return nil, fmt.Errorf("%w: initial capital must be positive", ports.ErrConfigurationError)
	}
	return &BacktestService{
		cfg:    cfg,
		logger: logger,
		store:  store,
		repo:   repo,
		risk:   risk.DefaultRiskConfig(),
	}, nil
}

// LoadFeed reads the primary and tradeable series from the bar store.
func (s *BacktestService) LoadFeed(ctx context.Context) (*feed.HistoricalFeed, error) {
	f, err := feed.Load(ctx, s.store, feed.Config{Primary: s.cfg.PrimarySymbol, Tradeable: s.cfg.Tradeable()})
	if err != nil {
		return nil, fmt.Errorf("loading market data: %w", err)
	}
	return f, nil
}

// Run executes one backtest with the configured strategy and stores it.
func (s *BacktestService) Run(ctx context.Context) (*RunRecord, error) {
	f, err := s.LoadFeed(ctx)
	if err != nil {
		return nil, err
	}
	return s.RunWithFeed(ctx, f)
}

// RunWithFeed executes one backtest against an already loaded feed.
func (s *BacktestService) RunWithFeed(ctx context.Context, f ports.DataFeed) (*RunRecord, error) {
	strategy, err := strategies.Build(s.cfg.Strategy, s.cfg.StrategyParams, s.logger)
	if err != nil {
		return nil, err
	}
	pm, err := portfolio.NewManager(s.cfg.PortfolioConfig())
	if err != nil {
		return nil, err
	}
	runner, err := backtesting.NewRunner(s.cfg.BacktestConfig(), strategy, pm, s.logger)
	if err != nil {
		return nil, err
	}
	broker, err := simbroker.New(s.cfg.InitialCapital, risk.NewRiskManager(s.risk))
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "Starting backtest", map[string]interface{}{
		"strategy": strategy.Name(),
		"from":     s.cfg.From,
		"to":       s.cfg.To,
		"capital":  s.cfg.InitialCapital,
	})
	result, err := runner.Run(ctx, f, broker)
	if err != nil {
		s.logger.Error(ctx, err, "Backtest failed")
		return nil, err
	}

	record := &RunRecord{
		Summary: ports.RunSummary{
			ID:             uuid.NewString(),
			Strategy:       strategy.Name(),
			From:           s.cfg.From,
			To:             s.cfg.To,
			DisplayFrom:    s.cfg.DisplayFrom,
			InitialCapital: s.cfg.InitialCapital,
			CreatedAt:      time.Now().UTC(),
			Metrics:        result.Metrics,
			TradeCount:     len(result.Trades),
		},
		Result: result,
	}
	if n := len(result.EquityCurve); n > 0 {
		if record.Summary.From == "" {
			record.Summary.From = result.EquityCurve[0].Date
		}
		if record.Summary.To == "" {
			record.Summary.To = result.EquityCurve[n-1].Date
		}
	}

	if s.repo != nil {
		if err := s.repo.SaveRun(ctx, record.Summary, result); err != nil {
			s.logger.Error(ctx, err, "Failed to save backtest run", map[string]interface{}{"runID": record.Summary.ID})
			return record, fmt.Errorf("saving run %s: %w", record.Summary.ID, err)
		}
	}

	s.logger.Info(ctx, "Backtest finished", map[string]interface{}{
		"runID":       record.Summary.ID,
		"trades":      record.Summary.TradeCount,
		"totalReturn": result.Metrics.TotalReturn,
		"cagr":        result.Metrics.CAGR,
		"maxDrawdown": result.Metrics.MaxDrawdown,
		"sharpe":      result.Metrics.SharpeRatio,
	})
	return record, nil
}

// Sweep runs the configured strategy once per parameter combination and
// returns the results best first. Sweep results are not persisted.
func (s *BacktestService) Sweep(ctx context.Context, ranges []optimization.ParameterRange, workers int) ([]optimization.OptimizationResult, error) {
	f, err := s.LoadFeed(ctx)
	if err != nil {
		return nil, err
	}
	opt, err := optimization.NewOptimizer(optimization.OptimizerConfig{
		ParameterRanges: ranges,
		Workers:         workers,
		Logger:          s.logger,
	})
	if err != nil {
		return nil, err
	}
	return opt.Optimize(ctx, f, optimization.NewRunFactory(optimization.FactoryConfig{
		StrategyName: s.cfg.Strategy,
		Strategy:     s.cfg.StrategyParams,
		Portfolio:    s.cfg.PortfolioConfig(),
		Backtest:     s.cfg.BacktestConfig(),
		Logger:       s.logger,
	}))
}
