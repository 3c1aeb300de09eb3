package strategies

import (
	"context"
	"fmt"

	"etfRotationBot/internal/domain"
	"etfRotationBot/internal/ports"
	"etfRotationBot/internal/strategy/indicators"
)

// VolatilityConfig holds the ATR gate parameters.
type VolatilityConfig struct {
	ATRPeriod    int     `yaml:"atr_period"`
	MaxATRPct    float64 `yaml:"max_atr_pct"`    // ATR as % of price above which exposure is cut
	HighVolScale float64 `yaml:"high_vol_scale"` // weight multiplier while above MaxATRPct
}

// DefaultVolatilityConfig returns the reference ATR gate.
func DefaultVolatilityConfig() VolatilityConfig {
	return VolatilityConfig{ATRPeriod: 14, MaxATRPct: 4.0, HighVolScale: 0.5}
}

// VolatilityProtected scales down any wrapped strategy's weight while the
// primary index's ATR is elevated.
type VolatilityProtected struct {
	inner ports.Strategy
	cfg   VolatilityConfig
}

// NewVolatilityProtected wraps inner with an ATR gate.
func NewVolatilityProtected(inner ports.Strategy, cfg VolatilityConfig) (*VolatilityProtected, error) {
	if inner == nil {
		return nil, fmt.Errorf("wrapped strategy is required")
	}
	if cfg.ATRPeriod <= 0 || cfg.MaxATRPct <= 0 {
		return nil, fmt.Errorf("%w: ATR period and threshold must be positive", ports.ErrConfigurationError)
	}
	if cfg.HighVolScale < 0 || cfg.HighVolScale > 1 {
		return nil, fmt.Errorf("%w: high volatility scale must be within [0, 1]", ports.ErrConfigurationError)
	}
	return &VolatilityProtected{inner: inner, cfg: cfg}, nil
}

// Name returns the registry name of the strategy.
func (v *VolatilityProtected) Name() string { return NameVolatilityProtected }

// RequiredDataPoints defers to the wrapped strategy.
func (v *VolatilityProtected) RequiredDataPoints() int {
	if v.cfg.ATRPeriod+1 > v.inner.RequiredDataPoints() {
		return v.cfg.ATRPeriod + 1
	}
	return v.inner.RequiredDataPoints()
}

// Analyze returns the wrapped decision, scaled down in high volatility.
func (v *VolatilityProtected) Analyze(ctx context.Context, bars []domain.Bar, cache *indicators.Cache) domain.Signal {
	sig := v.inner.Analyze(ctx, bars, cache)
	if sig.Weight <= 0 || len(bars) == 0 {
		return sig
	}

	atr, ok := indicators.Last(cache.ATR(bars, v.cfg.ATRPeriod))
	price := bars[len(bars)-1].Close
	if !ok || price <= 0 {
		return sig
	}
	atrPct := atr / price * 100
	if atrPct <= v.cfg.MaxATRPct {
		return sig
	}

	sig.Weight = clamp01(sig.Weight * v.cfg.HighVolScale)
	if sig.Weight == 0 {
		sig.Action = domain.ActionHold
	}
	sig.Reason = fmt.Sprintf("%s | high volatility: ATR%d %.2f%% > %.2f%%, x%.2f",
		sig.Reason, v.cfg.ATRPeriod, atrPct, v.cfg.MaxATRPct, v.cfg.HighVolScale)
	return sig
}
