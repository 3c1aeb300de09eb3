package ports

import (
	"context"

	"etfRotationBot/internal/domain"
)

// Broker executes orders and reports account state.
type Broker interface {
	// GetPortfolioState returns a fresh snapshot of cash, position and total equity.
	GetPortfolioState(ctx context.Context) (domain.PortfolioState, error)

	// PlaceOrders executes orders sequentially. Each order may fail on its own
	// without aborting the batch; failures are reported in the results.
	PlaceOrders(ctx context.Context, orders []domain.Order) ([]domain.OrderResult, error)

	// GetCurrentPrices returns the latest known price for each requested symbol.
	GetCurrentPrices(ctx context.Context, symbols []string) (map[string]float64, error)
}

// SimulationBroker is a Broker whose market is advanced by the backtest runner.
type SimulationBroker interface {
	Broker

	// SetMarket sets the date and prices orders will fill at.
	SetMarket(ctx context.Context, date string, prices map[string]float64) error
}
