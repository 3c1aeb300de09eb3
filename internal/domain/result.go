package domain

// EquityCurvePoint holds one simulated day. All values are percentage
// deltas relative to initial capital, not dollars.
type EquityCurvePoint struct {
	Date               string  `json:"date"`
	Equity             float64 `json:"equity"`
	Benchmark          float64 `json:"benchmark"`
	BenchmarkLeveraged float64 `json:"benchmarkLeveraged"`
}

// TradeFrequency is the trade count normalized by elapsed time.
type TradeFrequency struct {
	Daily    float64 `json:"daily"`
	Monthly  float64 `json:"monthly"`
	Annually float64 `json:"annually"`
}

// WinRate summarizes winning and losing trades.
type WinRate struct {
	Wins   int     `json:"wins"`
	Losses int     `json:"losses"`
	WinPct float64 `json:"winPct"`
}

// SeriesMetrics is the metric shape shared by the strategy and each benchmark.
type SeriesMetrics struct {
	TotalReturn     float64        `json:"totalReturn"`
	CAGR            float64        `json:"cagr"`
	MaxDrawdown     float64        `json:"maxDrawdown"`
	SharpeRatio     float64        `json:"sharpeRatio"`
	AvgTrades       TradeFrequency `json:"avgTrades"`
	WinRate         WinRate        `json:"winRate"`
	AvgPositionSize float64        `json:"avgPositionSize"`
}

// Metrics is derived from a result and never persisted on its own.
type Metrics struct {
	SeriesMetrics
	Benchmark          SeriesMetrics `json:"benchmark"`
	BenchmarkLeveraged SeriesMetrics `json:"benchmarkLeveraged"`
}

// BacktestResult is the record consumed by the dashboard and API layers.
// Changing its shape requires a compatibility note for those consumers.
type BacktestResult struct {
	Trades      []Trade            `json:"trades"`
	EquityCurve []EquityCurvePoint `json:"equityCurve"`
	Metrics     Metrics            `json:"metrics"`
}
