package strategies

import (
	"context"
	"fmt"

	"etfRotationBot/internal/domain"
	"etfRotationBot/internal/ports"
	"etfRotationBot/internal/strategy/indicators"
)

// Controller composes a trend signal with the mean-reversion overlay into the
// single decision handed to the portfolio manager.
type Controller struct {
	trend   ports.Strategy
	overlay *MeanReversionOverlay
	logger  ports.Logger
}

// NewController creates a Controller.
func NewController(trend ports.Strategy, overlay *MeanReversionOverlay, logger ports.Logger) (*Controller, error) {
	if trend == nil || overlay == nil {
		return nil, fmt.Errorf("trend strategy and overlay are required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for strategy")
	}
	return &Controller{trend: trend, overlay: overlay, logger: logger}, nil
}

// Name returns the registry name of the strategy.
func (c *Controller) Name() string { return NameTrendMeanReversion }

// RequiredDataPoints returns the larger of the trend and overlay lookbacks.
func (c *Controller) RequiredDataPoints() int {
	if n := c.overlay.MinBars(); n > c.trend.RequiredDataPoints() {
		return n
	}
	return c.trend.RequiredDataPoints()
}

// Analyze runs the trend strategy, applies the overlay and returns the final decision.
func (c *Controller) Analyze(ctx context.Context, bars []domain.Bar, cache *indicators.Cache) domain.Signal {
	base := c.trend.Analyze(ctx, bars, cache)
	adj := c.overlay.Adjust(ctx, base, bars, cache)

	weight := 0.0
	if !adj.ForceFlat {
		weight = clamp01(base.Weight * adj.WeightMultiplier)
	}
	action := domain.ActionHold
	if weight > 0 {
		action = domain.ActionBuy
	}

	decision := domain.Signal{
		Symbol: base.Symbol,
		Action: action,
		Weight: weight,
		Reason: base.Reason + " | " + adj.Reason,
	}
	c.logger.Debug(ctx, "Strategy decision", map[string]interface{}{
		"symbol":     decision.Symbol,
		"action":     decision.Action,
		"weight":     decision.Weight,
		"multiplier": adj.WeightMultiplier,
		"forceFlat":  adj.ForceFlat,
	})
	return decision
}
