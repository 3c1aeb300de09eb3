package simbroker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etfRotationBot/internal/domain"
	"etfRotationBot/internal/ports"
)

func newBroker(t *testing.T, cash float64) *Broker {
	t.Helper()
	b, err := New(cash, nil)
	require.NoError(t, err)
	return b
}

func TestNew(t *testing.T) {
	_, err := New(0, nil)
	assert.ErrorIs(t, err, ports.ErrConfigurationError)

	b := newBroker(t, 10000)
	state, err := b.GetPortfolioState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10000.0, state.Cash)
	assert.Equal(t, 10000.0, state.TotalEquity)
	assert.True(t, state.IsFlat())
}

func TestBroker_BuyAndSell(t *testing.T) {
	ctx := context.Background()
	b := newBroker(t, 10000)
	require.NoError(t, b.SetMarket(ctx, "2024-01-02", map[string]float64{"TQQQ": 50}))

	results, err := b.PlaceOrders(ctx, []domain.Order{{Symbol: "TQQQ", Side: domain.Buy, Shares: 100}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, 100.0, results[0].FilledShares)
	assert.Equal(t, 50.0, results[0].FillPrice)

	require.NoError(t, b.SetMarket(ctx, "2024-01-03", map[string]float64{"TQQQ": 60}))
	state, err := b.GetPortfolioState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, state.Cash)
	assert.Equal(t, 11000.0, state.TotalEquity)

	results, err = b.PlaceOrders(ctx, []domain.Order{{Symbol: "TQQQ", Side: domain.Buy, Shares: 50}})
	require.NoError(t, err)
	assert.True(t, results[0].Success)

	state, err = b.GetPortfolioState(ctx)
	require.NoError(t, err)
	require.NotNil(t, state.Position)
	assert.Equal(t, 150.0, state.Position.Shares)
	assert.InDelta(t, (100*50.0+50*60.0)/150, state.Position.AvgEntryPrice, 1e-9)
	assert.Equal(t, 2000.0, state.Cash)

	results, err = b.PlaceOrders(ctx, []domain.Order{{Symbol: "TQQQ", Side: domain.Sell, Shares: 150}})
	require.NoError(t, err)
	assert.True(t, results[0].Success)

	state, err = b.GetPortfolioState(ctx)
	require.NoError(t, err)
	assert.Nil(t, state.Position)
	assert.Equal(t, 11000.0, state.Cash)
}

func TestBroker_FailuresDoNotAbortBatch(t *testing.T) {
	ctx := context.Background()
	b := newBroker(t, 1000)
	require.NoError(t, b.SetMarket(ctx, "2024-01-02", map[string]float64{"TQQQ": 50, "SQQQ": 0}))

	results, err := b.PlaceOrders(ctx, []domain.Order{
		{Symbol: "TQQQ", Side: domain.Sell, Shares: 1},
		{Symbol: "TQQQ", Side: domain.Buy, Shares: 21},
		{Symbol: "QLD", Side: domain.Buy, Shares: 1},
		{Symbol: "SQQQ", Side: domain.Buy, Shares: 1},
		{Symbol: "TQQQ", Side: domain.Buy, Shares: 20},
	})
	require.NoError(t, err)
	require.Len(t, results, 5)

	assert.ErrorIs(t, results[0].Err, ports.ErrPositionNotFound)
	assert.ErrorIs(t, results[1].Err, ports.ErrInsufficientFunds)
	assert.ErrorIs(t, results[2].Err, ports.ErrNoPrice)
	assert.ErrorIs(t, results[3].Err, ports.ErrNoPrice)
	for _, r := range results[:4] {
		assert.False(t, r.Success)
		assert.NotEmpty(t, r.Error)
	}
	assert.True(t, results[4].Success)

	state, err := b.GetPortfolioState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, state.Cash)
	assert.Equal(t, 20.0, state.Position.Shares)
}

func TestBroker_StateIsSnapshot(t *testing.T) {
	ctx := context.Background()
	b := newBroker(t, 1000)
	require.NoError(t, b.SetMarket(ctx, "2024-01-02", map[string]float64{"TQQQ": 10}))
	_, err := b.PlaceOrders(ctx, []domain.Order{{Symbol: "TQQQ", Side: domain.Buy, Shares: 10}})
	require.NoError(t, err)

	state, err := b.GetPortfolioState(ctx)
	require.NoError(t, err)
	state.Position.Shares = 999

	again, err := b.GetPortfolioState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10.0, again.Position.Shares)
}

func TestBroker_MissingPriceValuesAtCost(t *testing.T) {
	ctx := context.Background()
	b := newBroker(t, 1000)
	require.NoError(t, b.SetMarket(ctx, "2024-01-02", map[string]float64{"TQQQ": 10}))
	_, err := b.PlaceOrders(ctx, []domain.Order{{Symbol: "TQQQ", Side: domain.Buy, Shares: 10}})
	require.NoError(t, err)

	require.NoError(t, b.SetMarket(ctx, "2024-01-03", map[string]float64{"SQQQ": 5}))
	state, err := b.GetPortfolioState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, state.TotalEquity)
}

func TestBroker_GetCurrentPrices(t *testing.T) {
	ctx := context.Background()
	b := newBroker(t, 1000)
	require.NoError(t, b.SetMarket(ctx, "2024-01-02", map[string]float64{"TQQQ": 10, "SQQQ": 5}))

	prices, err := b.GetCurrentPrices(ctx, []string{"TQQQ", "QLD"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"TQQQ": 10}, prices)
}

func TestBroker_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := newBroker(t, 1000)

	_, err := b.PlaceOrders(ctx, nil)
	assert.ErrorIs(t, err, ports.ErrContextCanceled)
	assert.ErrorIs(t, b.SetMarket(ctx, "2024-01-02", nil), ports.ErrContextCanceled)
}
