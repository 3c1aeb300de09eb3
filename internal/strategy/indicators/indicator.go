// Package indicators holds the pure indicator functions used by the
// strategies, plus a per-run memoization cache.
//
// Every function returns an empty slice when there is not enough data and
// never panics on short input.
package indicators

// Kind identifies an indicator in the cache key.
type Kind string

const (
	KindSMA    Kind = "SMA"
	KindROC    Kind = "ROC"
	KindStdDev Kind = "STDDEV"
	KindATR    Kind = "ATR"
)

// Last returns the final value of a series and whether one exists.
func Last(series []float64) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}
	return series[len(series)-1], true
}
