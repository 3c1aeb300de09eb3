package ports

import (
	"context"

	"etfRotationBot/internal/domain"
	"etfRotationBot/internal/strategy/indicators"
)

// Strategy defines the interface for trading strategies.
type Strategy interface {
	// Name returns the registry name of the strategy.
	Name() string

	// RequiredDataPoints returns the minimum number of bars needed for a non-HOLD decision.
	RequiredDataPoints() int

	// Analyze produces the decision for the last bar in bars. The cache is owned
	// by the caller's run and may be nil.
	Analyze(ctx context.Context, bars []domain.Bar, cache *indicators.Cache) domain.Signal
}
