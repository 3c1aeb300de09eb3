package domain

// Bar represents one day's OHLC record for a ticker.
type Bar struct {
	Date  string  `json:"date"` // YYYY-MM-DD, unique and ascending within a series
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// Closes extracts the close prices of a bar series.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// MarketSnapshot is what the data feed knows about a single trading date.
type MarketSnapshot struct {
	Date           string             `json:"date"`
	PrimaryHistory []Bar              `json:"primaryHistory"` // all primary-index bars up to and including Date
	TradeableBars  map[string]Bar     `json:"tradeableBars"`
	Prices         map[string]float64 `json:"prices"`
}

// DateRange is an inclusive span of calendar dates.
type DateRange struct {
	FirstDate string `json:"firstDate"`
	LastDate  string `json:"lastDate"`
}
