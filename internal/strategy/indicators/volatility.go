package indicators

import (
	"math"

	"etfRotationBot/internal/domain"
)

// RollingStdDev computes the population standard deviation of closes over
// each window of period bars, aligned with SMA. Uses running sums of x and x²
// so the cost is O(n).
func RollingStdDev(bars []domain.Bar, period int) []float64 {
	if period <= 0 || len(bars) < period {
		return []float64{}
	}

	n := float64(period)
	out := make([]float64, 0, len(bars)-period+1)
	var sum, sumSq float64
	for i := 0; i < period; i++ {
		c := bars[i].Close
		sum += c
		sumSq += c * c
	}
	out = append(out, stdDevFromSums(sum, sumSq, n))

	for i := period; i < len(bars); i++ {
		in, old := bars[i].Close, bars[i-period].Close
		sum += in - old
		sumSq += in*in - old*old
		out = append(out, stdDevFromSums(sum, sumSq, n))
	}
	return out
}

func stdDevFromSums(sum, sumSq, n float64) float64 {
	mean := sum / n
	variance := sumSq/n - mean*mean
	// Cancellation can push a flat window slightly below zero.
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// ZScore returns how many standard deviations price sits from ma.
// A zero standard deviation yields 0.
func ZScore(price, ma, stddev float64) float64 {
	if stddev == 0 {
		return 0
	}
	return (price - ma) / stddev
}
