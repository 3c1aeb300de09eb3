package domain

// Position represents shares held in a single symbol.
type Position struct {
	Symbol        string  `json:"symbol"`
	Shares        float64 `json:"shares"`
	AvgEntryPrice float64 `json:"avgEntryPrice"`
}

// MarketValue returns the value of the position at the given price.
func (p *Position) MarketValue(price float64) float64 {
	if p == nil {
		return 0
	}
	return p.Shares * price
}

// PortfolioState is an immutable view of the simulated account at a point in time.
type PortfolioState struct {
	Cash        float64   `json:"cash"`
	Position    *Position `json:"position"` // nil when flat
	TotalEquity float64   `json:"totalEquity"`
}

// IsFlat reports whether the portfolio holds no shares.
func (s PortfolioState) IsFlat() bool {
	return s.Position == nil || s.Position.Shares <= 0
}
