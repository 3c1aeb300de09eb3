// Package simbroker provides an in-memory ports.SimulationBroker that fills
// orders at the prices of the current simulated day, with no slippage or fees.
package simbroker

import (
	"context"
	"fmt"
	"sync"

	"etfRotationBot/internal/domain"
	"etfRotationBot/internal/ports"
	"etfRotationBot/internal/risk"
)

// OrderValidator checks an order before it is filled.
type OrderValidator interface {
	ValidateOrder(ctx context.Context, order domain.Order, state domain.PortfolioState, price float64) error
}

// Broker is a single-account, single-position simulated broker.
type Broker struct {
	mu        sync.Mutex
	cash      float64
	position  *domain.Position
	date      string
	prices    map[string]float64
	validator OrderValidator
}

// New creates a Broker holding initialCash. A nil validator uses the default
// risk checks.
func New(initialCash float64, validator OrderValidator) (*Broker, error) {
	if initialCash <= 0 {
		return nil, fmt.Errorf("%w: initial cash must be positive, got %v", ports.ErrConfigurationError, initialCash)
	}
	if validator == nil {
		validator = risk.NewRiskManager(risk.DefaultRiskConfig())
	}
	return &Broker{
		cash:      initialCash,
		prices:    make(map[string]float64),
		validator: validator,
	}, nil
}

// SetMarket advances the broker to date and replaces the fill prices.
func (b *Broker) SetMarket(ctx context.Context, date string, prices map[string]float64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrContextCanceled, err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.date = date
	b.prices = make(map[string]float64, len(prices))
	for symbol, price := range prices {
		b.prices[symbol] = price
	}
	return nil
}

// GetPortfolioState returns a snapshot that does not alias broker state.
func (b *Broker) GetPortfolioState(ctx context.Context) (domain.PortfolioState, error) {
	if err := ctx.Err(); err != nil {
		return domain.PortfolioState{}, fmt.Errorf("%w: %v", ports.ErrContextCanceled, err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked(), nil
}

func (b *Broker) stateLocked() domain.PortfolioState {
	state := domain.PortfolioState{Cash: b.cash, TotalEquity: b.cash}
	if b.position != nil {
		pos := *b.position
		state.Position = &pos
		// A held symbol without a price today is valued at cost.
		price, ok := b.prices[pos.Symbol]
		if !ok || price <= 0 {
			price = pos.AvgEntryPrice
		}
		state.TotalEquity += pos.MarketValue(price)
	}
	return state
}

// PlaceOrders executes orders sequentially. A failed order is reported in its
// result and does not stop the rest of the batch.
func (b *Broker) PlaceOrders(ctx context.Context, orders []domain.Order) ([]domain.OrderResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrContextCanceled, err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	results := make([]domain.OrderResult, 0, len(orders))
	for _, order := range orders {
		results = append(results, b.execute(ctx, order))
	}
	return results, nil
}

func (b *Broker) execute(ctx context.Context, order domain.Order) domain.OrderResult {
	price, ok := b.prices[order.Symbol]
	if !ok {
		return failed(order, fmt.Errorf("%w: %s on %s", ports.ErrNoPrice, order.Symbol, b.date))
	}
	if err := b.validator.ValidateOrder(ctx, order, b.stateLocked(), price); err != nil {
		return failed(order, err)
	}

	switch order.Side {
	case domain.Buy:
		b.buy(order, price)
	case domain.Sell:
		b.sell(order, price)
	default:
		return failed(order, fmt.Errorf("%w: unknown side %q", ports.ErrInvalidOrder, order.Side))
	}
	return domain.OrderResult{
		Order:        order,
		Success:      true,
		FilledShares: order.Shares,
		FillPrice:    price,
	}
}

func (b *Broker) buy(order domain.Order, price float64) {
	cost := order.Shares * price
	b.cash -= cost
	if b.cash < 0 {
		b.cash = 0
	}
	if b.position == nil {
		b.position = &domain.Position{Symbol: order.Symbol, Shares: order.Shares, AvgEntryPrice: price}
		return
	}
	total := b.position.Shares + order.Shares
	b.position.AvgEntryPrice = (b.position.Shares*b.position.AvgEntryPrice + cost) / total
	b.position.Shares = total
}

func (b *Broker) sell(order domain.Order, price float64) {
	b.cash += order.Shares * price
	b.position.Shares -= order.Shares
	if b.position.Shares <= 0 {
		b.position = nil
	}
}

// GetCurrentPrices returns today's prices for the requested symbols. Unknown
// symbols are omitted.
func (b *Broker) GetCurrentPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrContextCanceled, err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[string]float64, len(symbols))
	for _, symbol := range symbols {
		if price, ok := b.prices[symbol]; ok {
			out[symbol] = price
		}
	}
	return out, nil
}

func failed(order domain.Order, err error) domain.OrderResult {
	return domain.OrderResult{Order: order, Error: err.Error(), Err: err}
}

var _ ports.SimulationBroker = (*Broker)(nil)
