package domain

// Signal is a strategy's decision for one simulated day. A fresh value is
// produced every day and never mutated afterwards.
type Signal struct {
	Symbol string  `json:"symbol"`
	Action Action  `json:"action"`
	Weight float64 `json:"weight"` // target fraction of total equity, 0..1
	Reason string  `json:"reason"`
}

// Hold returns a flat HOLD signal with the given reason.
func Hold(reason string) Signal {
	return Signal{Action: ActionHold, Weight: 0, Reason: reason}
}
