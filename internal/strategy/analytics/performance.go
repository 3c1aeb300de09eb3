// Package analytics derives performance metrics from an equity curve and a
// trade log.
package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"etfRotationBot/internal/domain"
)

// TradingDaysPerYear annualizes daily figures.
const TradingDaysPerYear = 252

// Series selects one return series from an equity curve point.
type Series func(domain.EquityCurvePoint) float64

var (
	StrategySeries           Series = func(p domain.EquityCurvePoint) float64 { return p.Equity }
	BenchmarkSeries          Series = func(p domain.EquityCurvePoint) float64 { return p.Benchmark }
	BenchmarkLeveragedSeries Series = func(p domain.EquityCurvePoint) float64 { return p.BenchmarkLeveraged }
)

// ComputeMetrics calculates strategy and benchmark metrics. The benchmarks
// are passive, so their trade statistics are zero.
func ComputeMetrics(curve []domain.EquityCurvePoint, trades []domain.Trade) domain.Metrics {
	strategy := SeriesMetrics(curve, StrategySeries)
	applyTradeStats(&strategy, trades, tradingDays(curve))
	return domain.Metrics{
		SeriesMetrics:      strategy,
		Benchmark:          SeriesMetrics(curve, BenchmarkSeries),
		BenchmarkLeveraged: SeriesMetrics(curve, BenchmarkLeveragedSeries),
	}
}

// SeriesMetrics computes the return-based metrics of one series: total
// return, CAGR, max drawdown and Sharpe ratio, all in percent except Sharpe.
func SeriesMetrics(curve []domain.EquityCurvePoint, series Series) domain.SeriesMetrics {
	if len(curve) == 0 {
		return domain.SeriesMetrics{}
	}
	multipliers := make([]float64, len(curve))
	for i, p := range curve {
		multipliers[i] = ToMultiplier(series(p))
	}
	start, end := multipliers[0], multipliers[len(multipliers)-1]

	m := domain.SeriesMetrics{
		MaxDrawdown: MaxDrawdown(multipliers),
		SharpeRatio: SharpeRatio(DailyReturns(multipliers)),
	}
	if start > 0 {
		m.TotalReturn = (end/start - 1) * 100
		m.CAGR = CAGR(start, end, tradingDays(curve))
	}
	return m
}

func applyTradeStats(m *domain.SeriesMetrics, trades []domain.Trade, days int) {
	if len(trades) == 0 {
		return
	}
	sizes := make([]float64, len(trades))
	for i, t := range trades {
		if t.ReturnPct > 0 {
			m.WinRate.Wins++
		} else {
			m.WinRate.Losses++
		}
		sizes[i] = t.PositionSizePct
	}
	m.WinRate.WinPct = float64(m.WinRate.Wins) / float64(len(trades)) * 100
	m.AvgPositionSize = stat.Mean(sizes, nil)

	if days > 0 {
		n := float64(len(trades))
		m.AvgTrades.Daily = n / float64(days)
		m.AvgTrades.Annually = n / (float64(days) / TradingDaysPerYear)
		m.AvgTrades.Monthly = m.AvgTrades.Annually / 12
	}
}

// ToMultiplier converts a percentage return to a growth multiplier.
func ToMultiplier(pct float64) float64 { return 1 + pct/100 }

// ToPercent converts a growth multiplier to a percentage return.
func ToPercent(multiplier float64) float64 { return (multiplier - 1) * 100 }

// CAGR returns the compound annual growth rate in percent over days trading
// days.
func CAGR(start, end float64, days int) float64 {
	if start <= 0 || end <= 0 || days <= 0 {
		return 0
	}
	return (math.Pow(end/start, float64(TradingDaysPerYear)/float64(days)) - 1) * 100
}

// MaxDrawdown returns the largest peak-to-trough decline of multipliers, in
// percent of the peak.
func MaxDrawdown(multipliers []float64) float64 {
	var peak, maxDD float64
	for i, v := range multipliers {
		if i == 0 || v > peak {
			peak = v
			continue
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD * 100
}

// DailyReturns returns the simple returns between consecutive multipliers.
// Steps from a non-positive value are skipped.
func DailyReturns(multipliers []float64) []float64 {
	if len(multipliers) < 2 {
		return nil
	}
	out := make([]float64, 0, len(multipliers)-1)
	for i := 1; i < len(multipliers); i++ {
		if multipliers[i-1] <= 0 {
			continue
		}
		out = append(out, multipliers[i]/multipliers[i-1]-1)
	}
	return out
}

// SharpeRatio annualizes the mean over sample standard deviation of daily
// returns, with a zero risk-free rate.
func SharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean, std := stat.MeanStdDev(returns, nil)
	if std == 0 || math.IsNaN(std) {
		return 0
	}
	return mean / std * math.Sqrt(TradingDaysPerYear)
}

// MonthlyReturn is the strategy return within one calendar month.
type MonthlyReturn struct {
	Month  string // YYYY-MM
	Return float64
}

// MonthlyReturns compounds the strategy series into per-month returns in
// percent, sorted by month.
func MonthlyReturns(curve []domain.EquityCurvePoint) []MonthlyReturn {
	if len(curve) == 0 {
		return nil
	}
	type span struct{ first, last float64 }
	months := make(map[string]*span)
	prev := ToMultiplier(curve[0].Equity)
	for _, p := range curve {
		key := p.Date
		if len(key) >= 7 {
			key = key[:7]
		}
		cur := ToMultiplier(p.Equity)
		s, ok := months[key]
		if !ok {
			s = &span{first: prev}
			months[key] = s
		}
		s.last = cur
		prev = cur
	}

	out := make([]MonthlyReturn, 0, len(months))
	for month, s := range months {
		r := 0.0
		if s.first > 0 {
			r = (s.last/s.first - 1) * 100
		}
		out = append(out, MonthlyReturn{Month: month, Return: r})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// tradingDays is the number of day steps covered by curve, at least 1 when
// the curve has points.
func tradingDays(curve []domain.EquityCurvePoint) int {
	if len(curve) == 0 {
		return 0
	}
	if len(curve) == 1 {
		return 1
	}
	return len(curve) - 1
}
