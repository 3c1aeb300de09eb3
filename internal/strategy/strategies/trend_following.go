package strategies

import (
	"context"
	"fmt"

	"etfRotationBot/internal/domain"
	"etfRotationBot/internal/ports"
	"etfRotationBot/internal/strategy/indicators"
)

// TrendConfig holds configuration for the regime-classifying trend strategy.
type TrendConfig struct {
	LongSymbol         string  `yaml:"long_symbol"`  // leveraged long ticker, e.g. TQQQ
	ShortSymbol        string  `yaml:"short_symbol"` // leveraged inverse ticker, e.g. SQQQ
	MediumPeriod       int     `yaml:"medium_period"`
	LongPeriod         int     `yaml:"long_period"`
	ROCPeriod          int     `yaml:"roc_period"` // momentum filter for the transitional regime
	FullWeight         float64 `yaml:"full_weight"`
	TransitionalWeight float64 `yaml:"transitional_weight"`
	NeutralWeight      float64 `yaml:"neutral_weight"`
	BearShortWeight    float64 `yaml:"bear_short_weight"` // 0 exits to cash in a confirmed bear
}

// DefaultTrendConfig returns MA50/MA200 regime parameters.
func DefaultTrendConfig(longSymbol, shortSymbol string) TrendConfig {
	return TrendConfig{
		LongSymbol:         longSymbol,
		ShortSymbol:        shortSymbol,
		MediumPeriod:       50,
		LongPeriod:         200,
		ROCPeriod:          50,
		FullWeight:         1.0,
		TransitionalWeight: 0.6,
		NeutralWeight:      0.5,
		BearShortWeight:    0,
	}
}

// TrendFollowing classifies the market regime of the primary index from two
// moving averages and a momentum filter.
type TrendFollowing struct {
	cfg    TrendConfig
	logger ports.Logger
}

// NewTrendFollowing creates a new TrendFollowing strategy instance.
func NewTrendFollowing(cfg TrendConfig, logger ports.Logger) (*TrendFollowing, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for strategy")
	}
	if cfg.LongSymbol == "" || cfg.ShortSymbol == "" {
		return nil, fmt.Errorf("%w: long and short symbols are required", ports.ErrConfigurationError)
	}
	if cfg.MediumPeriod <= 0 || cfg.LongPeriod <= 0 {
		return nil, fmt.Errorf("%w: strategy periods must be positive", ports.ErrConfigurationError)
	}
	if cfg.MediumPeriod >= cfg.LongPeriod {
		return nil, fmt.Errorf("%w: medium MA period must be less than long MA period", ports.ErrConfigurationError)
	}
	if cfg.ROCPeriod <= 0 {
		cfg.ROCPeriod = cfg.MediumPeriod
	}
	for _, w := range []float64{cfg.FullWeight, cfg.TransitionalWeight, cfg.NeutralWeight, cfg.BearShortWeight} {
		if w < 0 || w > 1 {
			return nil, fmt.Errorf("%w: weights must be within [0, 1], got %v", ports.ErrConfigurationError, w)
		}
	}
	return &TrendFollowing{cfg: cfg, logger: logger}, nil
}

// Name returns the registry name of the strategy.
func (s *TrendFollowing) Name() string { return NameTrendFollowing }

// RequiredDataPoints returns the long MA period.
func (s *TrendFollowing) RequiredDataPoints() int { return s.cfg.LongPeriod }

// Config returns the strategy parameters.
func (s *TrendFollowing) Config() TrendConfig { return s.cfg }

// Analyze classifies the regime at the last bar and emits the base signal.
func (s *TrendFollowing) Analyze(ctx context.Context, bars []domain.Bar, cache *indicators.Cache) domain.Signal {
	if len(bars) < s.cfg.LongPeriod {
		return domain.Hold(fmt.Sprintf("insufficient data: need %d bars, have %d", s.cfg.LongPeriod, len(bars)))
	}

	price := bars[len(bars)-1].Close
	maMedium, _ := indicators.Last(cache.SMA(bars, s.cfg.MediumPeriod))
	maLong, _ := indicators.Last(cache.SMA(bars, s.cfg.LongPeriod))
	roc, hasROC := indicators.Last(cache.ROC(bars, s.cfg.ROCPeriod))

	m, l := s.cfg.MediumPeriod, s.cfg.LongPeriod
	long := func(weight float64, reason string) domain.Signal {
		return domain.Signal{Symbol: s.cfg.LongSymbol, Action: domain.ActionBuy, Weight: weight, Reason: reason}
	}

	switch {
	case price > maMedium && maMedium > maLong:
		return long(s.cfg.FullWeight, fmt.Sprintf("strong bull: price %.2f > MA%d %.2f > MA%d %.2f", price, m, maMedium, l, maLong))

	case price > maLong:
		return long(s.cfg.FullWeight, fmt.Sprintf("moderate bull: price %.2f > MA%d %.2f", price, l, maLong))

	case maMedium < price && price < maLong && hasROC && roc > 0:
		return long(s.cfg.TransitionalWeight, fmt.Sprintf("transitional: MA%d %.2f < price %.2f < MA%d %.2f, ROC%d %.2f%% > 0",
			m, maMedium, price, l, maLong, s.cfg.ROCPeriod, roc))

	case price < maMedium && maMedium < maLong:
		reason := fmt.Sprintf("confirmed bear: price %.2f < MA%d %.2f < MA%d %.2f", price, m, maMedium, l, maLong)
		if s.cfg.BearShortWeight > 0 {
			return domain.Signal{Symbol: s.cfg.ShortSymbol, Action: domain.ActionBuy, Weight: s.cfg.BearShortWeight, Reason: reason}
		}
		return domain.Signal{Symbol: s.cfg.ShortSymbol, Action: domain.ActionSell, Weight: 0, Reason: reason + ", exit"}

	default:
		return long(s.cfg.NeutralWeight, fmt.Sprintf("neutral: price %.2f, MA%d %.2f, MA%d %.2f", price, m, maMedium, l, maLong))
	}
}
