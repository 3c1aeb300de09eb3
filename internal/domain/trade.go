package domain

// Trade represents a closed (or partially closed) round trip. Trades are
// appended to the trade log and never mutated afterwards.
type Trade struct {
	EntryDate          string  `json:"entryDate"`
	ExitDate           string  `json:"exitDate"`
	Symbol             string  `json:"symbol"`
	EntryPrice         float64 `json:"entryPrice"`
	ExitPrice          float64 `json:"exitPrice"`
	Shares             float64 `json:"shares"`
	PnL                float64 `json:"pnl"`
	ReturnPct          float64 `json:"returnPct"`
	DaysHeld           int     `json:"daysHeld"`
	PositionSizePct    float64 `json:"positionSizePct"`
	PortfolioReturnPct float64 `json:"portfolioReturnPct"`
	Reason             string  `json:"reason,omitempty"`
}
