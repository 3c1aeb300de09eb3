package strategies

import (
	"context"
	"time"

	"etfRotationBot/internal/domain"
	"etfRotationBot/internal/strategy/indicators"
)

// MockLogger implements ports.Logger for testing
type MockLogger struct{}

func (m *MockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *MockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *MockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *MockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// stubStrategy returns a fixed signal.
type stubStrategy struct {
	signal   domain.Signal
	required int
}

func (s *stubStrategy) Name() string            { return "stub" }
func (s *stubStrategy) RequiredDataPoints() int { return s.required }
func (s *stubStrategy) Analyze(ctx context.Context, bars []domain.Bar, cache *indicators.Cache) domain.Signal {
	return s.signal
}

func makeBars(closes ...float64) []domain.Bar {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = domain.Bar{
			Date:  start.AddDate(0, 0, i).Format(domain.DateLayout),
			Open:  c,
			High:  c * 1.005,
			Low:   c * 0.995,
			Close: c,
		}
	}
	return bars
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// ramp returns n closes moving linearly from just past from to to.
func ramp(from, to float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + (to-from)*float64(i+1)/float64(n)
	}
	return out
}

func concat(parts ...[]float64) []float64 {
	var out []float64
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
