// Package portfolio translates strategy decisions into broker orders.
package portfolio

import (
	"fmt"
	"math"

	"etfRotationBot/internal/domain"
	"etfRotationBot/internal/ports"
)

// DefaultRebalanceThreshold is the drift, as a fraction of total equity, that
// must be exceeded before an existing position is resized.
const DefaultRebalanceThreshold = 0.02

// Config holds portfolio manager parameters
type Config struct {
	RebalanceThreshold float64
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() Config {
	return Config{RebalanceThreshold: DefaultRebalanceThreshold}
}

// Manager converts a decision, the current position and prices into the
// minimal set of whole-share orders. It holds no state between calls.
type Manager struct {
	cfg Config
}

// NewManager creates a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.RebalanceThreshold < 0 || cfg.RebalanceThreshold >= 1 {
		return nil, fmt.Errorf("%w: rebalance threshold %v must be within [0, 1)", ports.ErrConfigurationError, cfg.RebalanceThreshold)
	}
	return &Manager{cfg: cfg}, nil
}

// Config returns the manager configuration.
func (m *Manager) Config() Config { return m.cfg }

// CalculateOrders returns the orders that move position towards decision.
// Orders are returned in execution order: any SELL of a previous position
// comes before the BUY of the new target.
func (m *Manager) CalculateOrders(decision domain.Signal, position *domain.Position, totalEquity float64, prices map[string]float64) []domain.Order {
	holding := position != nil && position.Shares > 0

	if decision.Action == domain.ActionSell || decision.Weight <= 0 {
		if !holding {
			return nil
		}
		return []domain.Order{exitOrder(position, "exit: "+decision.Reason)}
	}
	if decision.Action != domain.ActionBuy {
		return nil
	}

	var orders []domain.Order
	if holding && position.Symbol != decision.Symbol {
		orders = append(orders, exitOrder(position, fmt.Sprintf("switch %s -> %s", position.Symbol, decision.Symbol)))
		holding = false
	}

	price, ok := prices[decision.Symbol]
	if !ok || price <= 0 || totalEquity <= 0 {
		return orders
	}
	targetShares := math.Floor(totalEquity * decision.Weight / price)

	if !holding {
		if targetShares > 0 {
			orders = append(orders, domain.Order{
				Symbol: decision.Symbol,
				Side:   domain.Buy,
				Shares: targetShares,
				Reason: decision.Reason,
			})
		}
		return orders
	}

	currentValue := position.Shares * price
	targetValue := targetShares * price
	if math.Abs(targetValue-currentValue) <= totalEquity*m.cfg.RebalanceThreshold {
		return orders
	}

	delta := targetShares - position.Shares
	switch {
	case delta > 0:
		orders = append(orders, domain.Order{
			Symbol: decision.Symbol,
			Side:   domain.Buy,
			Shares: delta,
			Reason: "rebalance up: " + decision.Reason,
		})
	case delta < 0:
		orders = append(orders, domain.Order{
			Symbol: decision.Symbol,
			Side:   domain.Sell,
			Shares: math.Min(-delta, position.Shares),
			Reason: "rebalance down: " + decision.Reason,
		})
	}
	return orders
}

func exitOrder(position *domain.Position, reason string) domain.Order {
	return domain.Order{
		Symbol: position.Symbol,
		Side:   domain.Sell,
		Shares: position.Shares,
		Reason: reason,
	}
}
