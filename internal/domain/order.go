package domain

// Order is an ephemeral instruction consumed immediately by a broker.
type Order struct {
	Symbol string    `json:"symbol"`
	Side   OrderSide `json:"side"`
	Shares float64   `json:"shares"`
	Reason string    `json:"reason"`
}

// OrderResult reports how a single order in a batch was handled.
type OrderResult struct {
	Order        Order   `json:"order"`
	Success      bool    `json:"success"`
	FilledShares float64 `json:"filledShares"`
	FillPrice    float64 `json:"fillPrice"`
	Error        string  `json:"error,omitempty"`
	Err          error   `json:"-"`
}
