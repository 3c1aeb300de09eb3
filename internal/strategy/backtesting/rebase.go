package backtesting

import (
	"etfRotationBot/internal/domain"
	"etfRotationBot/internal/strategy/analytics"
)

// Rebase keeps the curve points dated on or after displayFrom and rescales
// every series so that the first kept point is exactly 0%. Trades are kept
// when they exit on or after displayFrom. The inputs are not modified.
func Rebase(curve []domain.EquityCurvePoint, trades []domain.Trade, displayFrom string) ([]domain.EquityCurvePoint, []domain.Trade) {
	keptTrades := make([]domain.Trade, 0, len(trades))
	for _, t := range trades {
		if t.ExitDate >= displayFrom {
			keptTrades = append(keptTrades, t)
		}
	}

	start := len(curve)
	for i, p := range curve {
		if p.Date >= displayFrom {
			start = i
			break
		}
	}
	kept := curve[start:]
	if len(kept) == 0 {
		return []domain.EquityCurvePoint{}, keptTrades
	}

	base := kept[0]
	out := make([]domain.EquityCurvePoint, len(kept))
	for i, p := range kept {
		out[i] = domain.EquityCurvePoint{
			Date:               p.Date,
			Equity:             rebaseValue(p.Equity, base.Equity),
			Benchmark:          rebaseValue(p.Benchmark, base.Benchmark),
			BenchmarkLeveraged: rebaseValue(p.BenchmarkLeveraged, base.BenchmarkLeveraged),
		}
	}
	return out, keptTrades
}

func rebaseValue(pct, basePct float64) float64 {
	base := analytics.ToMultiplier(basePct)
	if base <= 0 {
		return pct
	}
	return analytics.ToPercent(analytics.ToMultiplier(pct) / base)
}
