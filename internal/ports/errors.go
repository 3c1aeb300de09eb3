package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Strategy / data errors
	ErrUnknownStrategy  = errors.New("unknown strategy")
	ErrInsufficientData = errors.New("insufficient data")
	ErrNoData           = errors.New("no market data available")

	// Broker Specific Errors
	ErrInsufficientFunds = errors.New("insufficient funds for operation")
	ErrPositionNotFound  = errors.New("no position to sell")
	ErrNoPrice           = errors.New("no price available")
	ErrInvalidOrder      = errors.New("invalid order")

	// Upstream data provider errors
	ErrProviderUnavailable = errors.New("market data provider is unavailable")
	ErrRateLimited         = errors.New("API rate limit exceeded")

	// Database Specific Errors
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
)
