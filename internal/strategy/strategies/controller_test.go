package strategies

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etfRotationBot/internal/domain"
	"etfRotationBot/internal/ports"
	"etfRotationBot/internal/strategy/indicators"
)

func TestNewController(t *testing.T) {
	overlay := newOverlay(t)
	trend := &stubStrategy{required: 200}

	_, err := NewController(nil, overlay, &MockLogger{})
	assert.Error(t, err)
	_, err = NewController(trend, nil, &MockLogger{})
	assert.Error(t, err)
	_, err = NewController(trend, overlay, nil)
	assert.Error(t, err)

	c, err := NewController(trend, overlay, &MockLogger{})
	require.NoError(t, err)
	assert.Equal(t, 200, c.RequiredDataPoints())

	trend.required = 20
	assert.Equal(t, 60, c.RequiredDataPoints())
}

func TestController_Analyze(t *testing.T) {
	tests := []struct {
		name       string
		signal     domain.Signal
		closes     []float64
		wantAction domain.Action
		wantWeight float64
		wantSymbol string
	}{
		{
			name:       "trend weight passes through a neutral overlay",
			signal:     domain.Signal{Symbol: "TQQQ", Action: domain.ActionBuy, Weight: 0.6, Reason: "transitional"},
			closes:     ramp(95, 100, 80),
			wantAction: domain.ActionBuy,
			wantWeight: 0.6,
			wantSymbol: "TQQQ",
		},
		{
			name:       "overlay multiplier applied",
			signal:     domain.Signal{Symbol: "TQQQ", Action: domain.ActionBuy, Weight: 1, Reason: "strong bull"},
			closes:     concat(repeat(100, 60), ramp(100, 115, 10)),
			wantAction: domain.ActionBuy,
			wantWeight: 0.8,
			wantSymbol: "TQQQ",
		},
		{
			name:       "force flat zeroes the decision",
			signal:     domain.Signal{Symbol: "SQQQ", Action: domain.ActionBuy, Weight: 0.5, Reason: "confirmed bear"},
			closes:     repeat(100, 70),
			wantAction: domain.ActionHold,
			wantWeight: 0,
			wantSymbol: "SQQQ",
		},
		{
			name:       "bear exit becomes a zero-weight hold",
			signal:     domain.Signal{Symbol: "SQQQ", Action: domain.ActionSell, Weight: 0, Reason: "confirmed bear"},
			closes:     repeat(100, 70),
			wantAction: domain.ActionHold,
			wantWeight: 0,
			wantSymbol: "SQQQ",
		},
		{
			name:       "weight clamped to one",
			signal:     domain.Signal{Symbol: "TQQQ", Action: domain.ActionBuy, Weight: 1.7, Reason: "misconfigured"},
			closes:     ramp(95, 100, 80),
			wantAction: domain.ActionBuy,
			wantWeight: 1,
			wantSymbol: "TQQQ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewController(&stubStrategy{signal: tt.signal, required: 10}, newOverlay(t), &MockLogger{})
			require.NoError(t, err)

			got := c.Analyze(context.Background(), makeBars(tt.closes...), indicators.NewCache())
			assert.Equal(t, tt.wantAction, got.Action)
			assert.InDelta(t, tt.wantWeight, got.Weight, 1e-9)
			assert.Equal(t, tt.wantSymbol, got.Symbol)
			assert.Contains(t, got.Reason, tt.signal.Reason+" | overlay")
		})
	}
}

func TestVolatilityProtected(t *testing.T) {
	inner := &stubStrategy{signal: longSignal(1), required: 10}
	v, err := NewVolatilityProtected(inner, DefaultVolatilityConfig())
	require.NoError(t, err)
	assert.Equal(t, 15, v.RequiredDataPoints())

	calm := makeBars(repeat(100, 30)...)
	got := v.Analyze(context.Background(), calm, indicators.NewCache())
	assert.Equal(t, 1.0, got.Weight)

	wild := make([]domain.Bar, 30)
	for i := range wild {
		wild[i] = domain.Bar{High: 110, Low: 90, Close: 100}
	}
	got = v.Analyze(context.Background(), wild, indicators.NewCache())
	assert.InDelta(t, 0.5, got.Weight, 1e-9)
	assert.Equal(t, domain.ActionBuy, got.Action)
	assert.Contains(t, got.Reason, "high volatility")

	_, err = NewVolatilityProtected(inner, VolatilityConfig{ATRPeriod: 14, MaxATRPct: 4, HighVolScale: 2})
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	r, err := NewDefaultRegistry(DefaultConfig("TQQQ", "SQQQ"), &MockLogger{})
	require.NoError(t, err)
	assert.Equal(t, []string{NameTrendFollowing, NameTrendMeanReversion, NameVolatilityProtected}, r.List())

	s, err := r.Get(NameTrendMeanReversion)
	require.NoError(t, err)
	assert.Equal(t, 200, s.RequiredDataPoints())

	_, err = r.Get("martingale")
	assert.True(t, errors.Is(err, ports.ErrUnknownStrategy))

	built, err := Build(NameVolatilityProtected, DefaultConfig("TQQQ", "SQQQ"), &MockLogger{})
	require.NoError(t, err)
	assert.Equal(t, NameVolatilityProtected, built.Name())
}
