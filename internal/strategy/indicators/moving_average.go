package indicators

import "etfRotationBot/internal/domain"

// SMA computes the simple moving average of closes. The result has
// len(bars)-period+1 values; result[i] averages bars[i : i+period].
func SMA(bars []domain.Bar, period int) []float64 {
	if period <= 0 || len(bars) < period {
		return []float64{}
	}

	out := make([]float64, 0, len(bars)-period+1)
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += bars[i].Close
	}
	out = append(out, sum/float64(period))

	// Slide the window: add the new close, drop the oldest.
	for i := period; i < len(bars); i++ {
		sum += bars[i].Close - bars[i-period].Close
		out = append(out, sum/float64(period))
	}
	return out
}
