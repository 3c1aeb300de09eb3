package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"etfRotationBot/internal/domain"
)

func TestCalculateTradeStats(t *testing.T) {
	assert.Equal(t, TradeStats{}, calculateTradeStats(nil))

	stats := calculateTradeStats([]domain.Trade{
		{PnL: 200, ReturnPct: 20, DaysHeld: 10},
		{PnL: 100, ReturnPct: 10, DaysHeld: 4},
		{PnL: -50, ReturnPct: -5, DaysHeld: 1},
		{PnL: 0, ReturnPct: 0, DaysHeld: 5},
	})
	assert.Equal(t, 4, stats.TotalTrades)
	assert.Equal(t, 2, stats.WinningTrades)
	assert.Equal(t, 2, stats.LosingTrades)
	assert.InDelta(t, 0.5, stats.WinRate, 1e-12)
	assert.InDelta(t, 15, stats.AvgWin, 1e-12)
	assert.InDelta(t, -2.5, stats.AvgLoss, 1e-12)
	assert.InDelta(t, 250, stats.TotalPnL, 1e-12)
	assert.InDelta(t, 5, stats.AvgDaysHeld, 1e-12)
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "0190f3a2", shortID("0190f3a2-7c1e-4b7e-9d55-3f1c2a7b9e10"))
	assert.Equal(t, "abc", shortID("abc"))
}
