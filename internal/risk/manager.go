// Package risk holds the pre-trade checks applied to every simulated order.
package risk

import (
	"context"
	"fmt"
	"math"

	"etfRotationBot/internal/domain"
	"etfRotationBot/internal/ports"
)

// RiskConfig holds configuration for pre-trade checks
type RiskConfig struct {
	// MaxPositionPct caps the value of the position after a BUY as a fraction
	// of total equity. Zero disables the cap.
	MaxPositionPct float64
	// CashTolerance is the relative slack allowed when comparing a BUY's cost
	// against available cash, absorbing floating-point error.
	CashTolerance float64
}

// DefaultRiskConfig returns a cash-only account: no leverage, no cap beyond
// available cash.
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{MaxPositionPct: 1.0, CashTolerance: 1e-9}
}

// RiskManager validates orders against the current portfolio state.
type RiskManager struct {
	config RiskConfig
	stats  RiskStats
}

// RiskStats counts validation outcomes.
type RiskStats struct {
	Approved int
	Rejected int
}

// NewRiskManager creates a new risk manager instance
func NewRiskManager(config RiskConfig) *RiskManager {
	return &RiskManager{config: config}
}

// ValidateOrder returns nil if order may be executed at price against state.
// Rejections wrap ErrInvalidOrder, ErrNoPrice, ErrInsufficientFunds or
// ErrPositionNotFound.
func (r *RiskManager) ValidateOrder(ctx context.Context, order domain.Order, state domain.PortfolioState, price float64) error {
	err := r.validate(order, state, price)
	if err != nil {
		r.stats.Rejected++
		return err
	}
	r.stats.Approved++
	return nil
}

func (r *RiskManager) validate(order domain.Order, state domain.PortfolioState, price float64) error {
	if order.Shares <= 0 || order.Shares != math.Trunc(order.Shares) {
		return fmt.Errorf("%w: shares %v must be a positive whole number", ports.ErrInvalidOrder, order.Shares)
	}
	if price <= 0 || math.IsNaN(price) {
		return fmt.Errorf("%w: %s", ports.ErrNoPrice, order.Symbol)
	}

	switch order.Side {
	case domain.Buy:
		if state.Position != nil && state.Position.Shares > 0 && state.Position.Symbol != order.Symbol {
			return fmt.Errorf("%w: cannot buy %s while holding %s", ports.ErrInvalidOrder, order.Symbol, state.Position.Symbol)
		}
		cost := order.Shares * price
		if cost > state.Cash*(1+r.config.CashTolerance) {
			return fmt.Errorf("%w: cost %.2f exceeds cash %.2f", ports.ErrInsufficientFunds, cost, state.Cash)
		}
		if r.config.MaxPositionPct > 0 && state.TotalEquity > 0 {
			after := cost + state.Position.MarketValue(price)
			if after > state.TotalEquity*r.config.MaxPositionPct*(1+r.config.CashTolerance) {
				return fmt.Errorf("%w: position value %.2f exceeds %.0f%% of equity %.2f",
					ports.ErrInvalidOrder, after, r.config.MaxPositionPct*100, state.TotalEquity)
			}
		}
	case domain.Sell:
		if state.Position == nil || state.Position.Shares <= 0 || state.Position.Symbol != order.Symbol {
			return fmt.Errorf("%w: %s", ports.ErrPositionNotFound, order.Symbol)
		}
		if order.Shares > state.Position.Shares {
			return fmt.Errorf("%w: sell %v exceeds held %v", ports.ErrInvalidOrder, order.Shares, state.Position.Shares)
		}
	default:
		return fmt.Errorf("%w: unknown side %q", ports.ErrInvalidOrder, order.Side)
	}
	return nil
}

// GetStats returns the validation counters
func (r *RiskManager) GetStats() RiskStats {
	return r.stats
}
