package indicators

import "etfRotationBot/internal/domain"

// ROC computes the percentage rate of change of each close against the
// close period bars earlier. The result has len(bars)-period values.
// A zero earlier close yields 0 for that point.
func ROC(bars []domain.Bar, period int) []float64 {
	if period <= 0 || len(bars) <= period {
		return []float64{}
	}

	out := make([]float64, 0, len(bars)-period)
	for i := period; i < len(bars); i++ {
		prev := bars[i-period].Close
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (bars[i].Close-prev)/prev*100)
	}
	return out
}
