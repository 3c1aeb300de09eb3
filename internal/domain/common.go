package domain

import "time"

// DateLayout is the calendar-date format used for every bar and trade date.
const DateLayout = "2006-01-02"

// Action represents what a strategy wants done with the target symbol.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// OrderSide represents the side of an order (BUY or SELL).
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// DaysBetween returns the number of calendar days from one date string to another.
// Unparseable dates yield 0.
func DaysBetween(from, to string) int {
	f, err := ParseDate(from)
	if err != nil {
		return 0
	}
	t, err := ParseDate(to)
	if err != nil {
		return 0
	}
	return int(t.Sub(f).Hours() / 24)
}
