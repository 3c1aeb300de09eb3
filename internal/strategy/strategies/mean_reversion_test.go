package strategies

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etfRotationBot/internal/domain"
	"etfRotationBot/internal/strategy/indicators"
)

func newOverlay(t *testing.T) *MeanReversionOverlay {
	t.Helper()
	o, err := NewMeanReversionOverlay(DefaultOverlayConfig("TQQQ", "SQQQ"))
	require.NoError(t, err)
	return o
}

func longSignal(weight float64) domain.Signal {
	return domain.Signal{Symbol: "TQQQ", Action: domain.ActionBuy, Weight: weight}
}

func shortSignal(weight float64) domain.Signal {
	return domain.Signal{Symbol: "SQQQ", Action: domain.ActionBuy, Weight: weight}
}

func TestNewMeanReversionOverlay_Validation(t *testing.T) {
	cfg := DefaultOverlayConfig("TQQQ", "SQQQ")
	cfg.MinBars = 30
	_, err := NewMeanReversionOverlay(cfg)
	assert.Error(t, err)

	cfg = DefaultOverlayConfig("TQQQ", "SQQQ")
	cfg.ShortMultiplier = 1.5
	_, err = NewMeanReversionOverlay(cfg)
	assert.Error(t, err)

	cfg = DefaultOverlayConfig("TQQQ", "SQQQ")
	cfg.ROCPeriod = 0
	_, err = NewMeanReversionOverlay(cfg)
	assert.Error(t, err)
}

func TestMeanReversionOverlay_Adjust(t *testing.T) {
	tests := []struct {
		name           string
		closes         []float64
		signal         domain.Signal
		wantMultiplier float64
		wantForceFlat  bool
		wantReason     string
	}{
		{
			name:           "inactive below minimum history",
			closes:         repeat(100, 59),
			signal:         shortSignal(1),
			wantMultiplier: 1,
			wantReason:     "overlay inactive",
		},
		{
			name:           "long unchanged in a calm market",
			closes:         ramp(95, 100, 80),
			signal:         longSignal(1),
			wantMultiplier: 1,
			wantReason:     "no adjustment",
		},
		{
			name:           "long trimmed when overextended",
			closes:         concat(repeat(100, 60), ramp(100, 115, 10)),
			signal:         longSignal(1),
			wantMultiplier: 0.8,
			wantReason:     "overextended",
		},
		{
			name:           "long trimmed further on a falling knife",
			closes:         concat(repeat(100, 60), ramp(100, 85, 10)),
			signal:         longSignal(1),
			wantMultiplier: 0.6,
			wantReason:     "falling knife",
		},
		{
			name:           "short flattened without confirmed weakness",
			closes:         repeat(100, 70),
			signal:         shortSignal(0.5),
			wantMultiplier: 0,
			wantForceFlat:  true,
			wantReason:     "not confirmed",
		},
		{
			name:           "short kept conservatively when weakness confirmed",
			closes:         concat(repeat(100, 60), ramp(100, 92, 10)),
			signal:         shortSignal(0.5),
			wantMultiplier: 0.85,
			wantReason:     "short confirmed",
		},
		{
			name:           "short boosted during strong acceleration",
			closes:         concat(repeat(100, 60), ramp(100, 85, 10)),
			signal:         shortSignal(0.5),
			wantMultiplier: 0.935,
			wantReason:     "accelerating",
		},
		{
			name:           "zero-weight short exit passes through",
			closes:         repeat(100, 70),
			signal:         domain.Signal{Symbol: "SQQQ", Action: domain.ActionSell},
			wantMultiplier: 1,
			wantReason:     "no short exposure",
		},
		{
			name:           "untracked symbol passes through",
			closes:         repeat(100, 70),
			signal:         domain.Signal{Symbol: "SPY", Action: domain.ActionBuy, Weight: 1},
			wantMultiplier: 1,
			wantReason:     "untracked",
		},
	}

	o := newOverlay(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adj := o.Adjust(context.Background(), tt.signal, makeBars(tt.closes...), indicators.NewCache())
			assert.InDelta(t, tt.wantMultiplier, adj.WeightMultiplier, 1e-9)
			assert.Equal(t, tt.wantForceFlat, adj.ForceFlat)
			assert.Contains(t, adj.Reason, tt.wantReason)
		})
	}
}
