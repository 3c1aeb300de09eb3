package indicators

import (
	"github.com/markcheno/go-talib"

	"etfRotationBot/internal/domain"
)

// ATR computes Wilder's Average True Range. The result has len(bars)-period
// values, dropping talib's lookback prefix.
func ATR(bars []domain.Bar, period int) []float64 {
	if period <= 0 || len(bars) <= period {
		return []float64{}
	}

	high := make([]float64, len(bars))
	low := make([]float64, len(bars))
	closes := make([]float64, len(bars))
	for i, b := range bars {
		high[i], low[i], closes[i] = b.High, b.Low, b.Close
	}

	out := talib.Atr(high, low, closes, period)
	if len(out) <= period {
		return []float64{}
	}
	return out[period:]
}
