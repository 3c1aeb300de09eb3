// Package optimization sweeps strategy parameters by running independent
// backtests concurrently.
package optimization

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"etfRotationBot/internal/adapters/simbroker"
	"etfRotationBot/internal/domain"
	"etfRotationBot/internal/portfolio"
	"etfRotationBot/internal/ports"
	"etfRotationBot/internal/strategy/backtesting"
	"etfRotationBot/internal/strategy/strategies"
)

// Parameter names understood by ApplyParameter.
const (
	ParamMediumMAPeriod     = "medium_ma_period"
	ParamLongMAPeriod       = "long_ma_period"
	ParamROCPeriod          = "roc_period"
	ParamTransitionalWeight = "transitional_weight"
	ParamNeutralWeight      = "neutral_weight"
	ParamBearShortWeight    = "bear_short_weight"
	ParamRebalanceThreshold = "rebalance_threshold"
	ParamMaxATRPct          = "max_atr_pct"
)

// ParameterRange defines a range for a parameter to optimize
type ParameterRange struct {
	Name  string
	Min   float64
	Max   float64
	Step  float64
	IsInt bool
}

// OptimizationResult holds the outcome of one parameter combination
type OptimizationResult struct {
	Parameters map[string]float64
	Metrics    domain.Metrics
	Trades     int
	Score      float64
}

// Run is one fully assembled, independent backtest.
type Run struct {
	Runner *backtesting.Runner
	Broker ports.SimulationBroker
}

// RunFactory assembles a fresh Run for a parameter combination. Every call
// must return a new broker; runners own their indicator cache per run.
type RunFactory func(params map[string]float64) (Run, error)

// OptimizerConfig holds configuration for the optimizer
type OptimizerConfig struct {
	ParameterRanges []ParameterRange
	Workers         int // concurrent backtests; zero uses runtime.NumCPU
	ScoreFunction   func(domain.Metrics) float64
	Logger          ports.Logger
}

// Optimizer implements strategy parameter optimization
type Optimizer struct {
	config OptimizerConfig
}

// NewOptimizer creates a new optimizer instance
func NewOptimizer(config OptimizerConfig) (*Optimizer, error) {
	if config.Logger == nil {
		return nil, fmt.Errorf("logger is required for optimizer")
	}
	for _, r := range config.ParameterRanges {
		if r.Step <= 0 || r.Max < r.Min {
			return nil, fmt.Errorf("%w: invalid range for %s", ports.ErrConfigurationError, r.Name)
		}
	}
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	if config.ScoreFunction == nil {
		config.ScoreFunction = DefaultScoreFunction
	}
	return &Optimizer{config: config}, nil
}

// Optimize runs one backtest per parameter combination against feed and
// returns the successful runs sorted by descending score. Combinations the
// factory rejects or whose run fails are logged and skipped.
func (o *Optimizer) Optimize(ctx context.Context, feed ports.DataFeed, factory RunFactory) ([]OptimizationResult, error) {
	combinations := o.GenerateParameterCombinations()
	resultChan := make(chan OptimizationResult, len(combinations))
	sem := make(chan struct{}, o.config.Workers)
	var wg sync.WaitGroup

	for _, params := range combinations {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil, fmt.Errorf("%w: %v", ports.ErrContextCanceled, ctx.Err())
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(params map[string]float64) {
			defer wg.Done()
			defer func() { <-sem }()

			run, err := factory(params)
			if err != nil {
				o.config.Logger.Debug(ctx, "Skipping parameter combination", map[string]interface{}{"params": params, "error": err.Error()})
				return
			}
			result, err := run.Runner.Run(ctx, feed, run.Broker)
			if err != nil {
				o.config.Logger.Warn(ctx, "Backtest failed during sweep", map[string]interface{}{"params": params, "error": err.Error()})
				return
			}
			resultChan <- OptimizationResult{
				Parameters: params,
				Metrics:    result.Metrics,
				Trades:     len(result.Trades),
				Score:      o.config.ScoreFunction(result.Metrics),
			}
		}(params)
	}

	wg.Wait()
	close(resultChan)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrContextCanceled, err)
	}

	results := make([]OptimizationResult, 0, len(combinations))
	for result := range resultChan {
		results = append(results, result)
	}
	sortResultsByScore(results)

	o.config.Logger.Info(ctx, "Parameter sweep finished", map[string]interface{}{
		"combinations": len(combinations),
		"completed":    len(results),
	})
	return results, nil
}

// GenerateParameterCombinations returns the cartesian product of all ranges.
func (o *Optimizer) GenerateParameterCombinations() []map[string]float64 {
	var combinations []map[string]float64
	current := make(map[string]float64)

	var generate func(int)
	generate = func(paramIndex int) {
		if paramIndex == len(o.config.ParameterRanges) {
			combination := make(map[string]float64, len(current))
			for k, v := range current {
				combination[k] = v
			}
			combinations = append(combinations, combination)
			return
		}

		param := o.config.ParameterRanges[paramIndex]
		steps := int(math.Floor((param.Max-param.Min)/param.Step + 1e-9))
		for i := 0; i <= steps; i++ {
			value := param.Min + float64(i)*param.Step
			if param.IsInt {
				value = math.Round(value)
			}
			current[param.Name] = value
			generate(paramIndex + 1)
		}
	}

	generate(0)
	return combinations
}

// sortResultsByScore sorts optimization results by score in descending order
func sortResultsByScore(results []OptimizationResult) {
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
}

// DefaultScoreFunction rewards return per unit of drawdown, with a small
// Sharpe term.
func DefaultScoreFunction(m domain.Metrics) float64 {
	dd := m.MaxDrawdown
	if dd < 1 {
		dd = 1
	}
	return m.CAGR/dd + 0.1*m.SharpeRatio
}

// FactoryConfig is the base configuration every swept run starts from.
type FactoryConfig struct {
	StrategyName string
	Strategy     strategies.Config
	Portfolio    portfolio.Config
	Backtest     backtesting.BacktestConfig
	Logger       ports.Logger
}

// NewRunFactory returns a RunFactory that applies each parameter to a copy
// of base and assembles a strategy, portfolio manager, runner and simulated
// broker.
func NewRunFactory(base FactoryConfig) RunFactory {
	return func(params map[string]float64) (Run, error) {
		scfg := base.Strategy
		pcfg := base.Portfolio
		for name, value := range params {
			if err := ApplyParameter(&scfg, &pcfg, name, value); err != nil {
				return Run{}, err
			}
		}

		strategy, err := strategies.Build(base.StrategyName, scfg, base.Logger)
		if err != nil {
			return Run{}, err
		}
		pm, err := portfolio.NewManager(pcfg)
		if err != nil {
			return Run{}, err
		}
		runner, err := backtesting.NewRunner(base.Backtest, strategy, pm, base.Logger)
		if err != nil {
			return Run{}, err
		}
		broker, err := simbroker.New(base.Backtest.InitialCapital, nil)
		if err != nil {
			return Run{}, err
		}
		return Run{Runner: runner, Broker: broker}, nil
	}
}

// ApplyParameter sets one named parameter on the strategy or portfolio
// configuration.
func ApplyParameter(s *strategies.Config, p *portfolio.Config, name string, value float64) error {
	switch name {
	case ParamMediumMAPeriod:
		s.Trend.MediumPeriod = int(value)
	case ParamLongMAPeriod:
		s.Trend.LongPeriod = int(value)
	case ParamROCPeriod:
		s.Trend.ROCPeriod = int(value)
	case ParamTransitionalWeight:
		s.Trend.TransitionalWeight = value
	case ParamNeutralWeight:
		s.Trend.NeutralWeight = value
	case ParamBearShortWeight:
		s.Trend.BearShortWeight = value
	case ParamMaxATRPct:
		s.Volatility.MaxATRPct = value
	case ParamRebalanceThreshold:
		p.RebalanceThreshold = value
	default:
		return fmt.Errorf("%w: unknown parameter %q", ports.ErrConfigurationError, name)
	}
	return nil
}
