package strategies

import (
	"context"
	"fmt"
	"strings"

	"etfRotationBot/internal/domain"
	"etfRotationBot/internal/ports"
	"etfRotationBot/internal/strategy/indicators"
)

// OverlayConfig holds the mean-reversion thresholds. Distances are fractions
// of the moving average, ROC thresholds are percentages.
type OverlayConfig struct {
	LongSymbol  string `yaml:"long_symbol"`
	ShortSymbol string `yaml:"short_symbol"`
	MinBars     int    `yaml:"min_bars"`

	ROCPeriod      int `yaml:"roc_period"`
	ShortMAPeriod  int `yaml:"short_ma_period"`
	MediumMAPeriod int `yaml:"medium_ma_period"`

	OverextendedROC        float64 `yaml:"overextended_roc"`
	OverextendedDistance   float64 `yaml:"overextended_distance"`
	OverextendedMultiplier float64 `yaml:"overextended_multiplier"`

	FallingKnifeDistance   float64 `yaml:"falling_knife_distance"`
	FallingKnifeMultiplier float64 `yaml:"falling_knife_multiplier"`

	ShortConfirmROC        float64 `yaml:"short_confirm_roc"`
	ShortConfirmDistance   float64 `yaml:"short_confirm_distance"`
	ShortAccelerationROC   float64 `yaml:"short_acceleration_roc"`
	ShortMultiplier        float64 `yaml:"short_multiplier"`
	ShortBoostedMultiplier float64 `yaml:"short_boosted_multiplier"`
}

// DefaultOverlayConfig returns the reference overlay thresholds.
func DefaultOverlayConfig(longSymbol, shortSymbol string) OverlayConfig {
	return OverlayConfig{
		LongSymbol:             longSymbol,
		ShortSymbol:            shortSymbol,
		MinBars:                60,
		ROCPeriod:              10,
		ShortMAPeriod:          20,
		MediumMAPeriod:         50,
		OverextendedROC:        8,
		OverextendedDistance:   0.10,
		OverextendedMultiplier: 0.8,
		FallingKnifeDistance:   0.10,
		FallingKnifeMultiplier: 0.6,
		ShortConfirmROC:        -5,
		ShortConfirmDistance:   0.05,
		ShortAccelerationROC:   -10,
		ShortMultiplier:        0.85,
		ShortBoostedMultiplier: 0.935,
	}
}

// Adjustment is the overlay's verdict on a trend signal.
type Adjustment struct {
	WeightMultiplier float64
	ForceFlat        bool
	Reason           string
}

func passThrough(reason string) Adjustment {
	return Adjustment{WeightMultiplier: 1, Reason: reason}
}

// MeanReversionOverlay trims or vetoes trend weights using short-term
// momentum and distance from moving averages. It never changes the symbol.
type MeanReversionOverlay struct {
	cfg OverlayConfig
}

// NewMeanReversionOverlay validates cfg and creates the overlay.
func NewMeanReversionOverlay(cfg OverlayConfig) (*MeanReversionOverlay, error) {
	if cfg.ROCPeriod <= 0 || cfg.ShortMAPeriod <= 0 || cfg.MediumMAPeriod <= 0 {
		return nil, fmt.Errorf("%w: overlay periods must be positive", ports.ErrConfigurationError)
	}
	if cfg.MinBars < cfg.MediumMAPeriod {
		return nil, fmt.Errorf("%w: overlay min bars %d below MA%d", ports.ErrConfigurationError, cfg.MinBars, cfg.MediumMAPeriod)
	}
	for _, m := range []float64{cfg.OverextendedMultiplier, cfg.FallingKnifeMultiplier, cfg.ShortMultiplier, cfg.ShortBoostedMultiplier} {
		if m < 0 || m > 1 {
			return nil, fmt.Errorf("%w: overlay multipliers must be within [0, 1], got %v", ports.ErrConfigurationError, m)
		}
	}
	return &MeanReversionOverlay{cfg: cfg}, nil
}

// MinBars returns the history the overlay needs before it adjusts anything.
func (o *MeanReversionOverlay) MinBars() int { return o.cfg.MinBars }

// Adjust evaluates signal against bars.
func (o *MeanReversionOverlay) Adjust(_ context.Context, signal domain.Signal, bars []domain.Bar, cache *indicators.Cache) Adjustment {
	if len(bars) < o.cfg.MinBars {
		return passThrough(fmt.Sprintf("overlay inactive: %d/%d bars", len(bars), o.cfg.MinBars))
	}

	price := bars[len(bars)-1].Close
	roc, _ := indicators.Last(cache.ROC(bars, o.cfg.ROCPeriod))
	maShort, _ := indicators.Last(cache.SMA(bars, o.cfg.ShortMAPeriod))
	maMedium, _ := indicators.Last(cache.SMA(bars, o.cfg.MediumMAPeriod))
	sd, _ := indicators.Last(cache.StdDev(bars, o.cfg.ShortMAPeriod))
	z := indicators.ZScore(price, maShort, sd)

	switch signal.Symbol {
	case o.cfg.LongSymbol:
		return o.adjustLong(price, roc, maShort, maMedium, z)
	case o.cfg.ShortSymbol:
		if signal.Weight <= 0 {
			return passThrough("overlay: no short exposure requested")
		}
		return o.adjustShort(price, roc, maShort)
	default:
		return passThrough("overlay: untracked symbol")
	}
}

func (o *MeanReversionOverlay) adjustLong(price, roc, maShort, maMedium, z float64) Adjustment {
	adj := Adjustment{WeightMultiplier: 1}
	var reasons []string

	distShort := distance(price, maShort)
	if roc > o.cfg.OverextendedROC || distShort > o.cfg.OverextendedDistance {
		adj.WeightMultiplier *= o.cfg.OverextendedMultiplier
		reasons = append(reasons, fmt.Sprintf("overextended: ROC%d %.2f%%, %.1f%% vs MA%d (z %.2f), x%.2f",
			o.cfg.ROCPeriod, roc, distShort*100, o.cfg.ShortMAPeriod, z, o.cfg.OverextendedMultiplier))
	}

	distMedium := distance(price, maMedium)
	if distMedium < -o.cfg.FallingKnifeDistance && roc < 0 {
		adj.WeightMultiplier *= o.cfg.FallingKnifeMultiplier
		reasons = append(reasons, fmt.Sprintf("falling knife: %.1f%% vs MA%d, ROC%d %.2f%%, x%.2f",
			distMedium*100, o.cfg.MediumMAPeriod, o.cfg.ROCPeriod, roc, o.cfg.FallingKnifeMultiplier))
	}

	if len(reasons) == 0 {
		adj.Reason = fmt.Sprintf("overlay: no adjustment (ROC%d %.2f%%, z %.2f)", o.cfg.ROCPeriod, roc, z)
		return adj
	}
	adj.Reason = "overlay: " + strings.Join(reasons, "; ")
	return adj
}

func (o *MeanReversionOverlay) adjustShort(price, roc, maShort float64) Adjustment {
	dist := distance(price, maShort)
	if roc > o.cfg.ShortConfirmROC || dist > -o.cfg.ShortConfirmDistance {
		return Adjustment{
			WeightMultiplier: 0,
			ForceFlat:        true,
			Reason: fmt.Sprintf("overlay: short not confirmed (ROC%d %.2f%%, %.1f%% vs MA%d), flatten",
				o.cfg.ROCPeriod, roc, dist*100, o.cfg.ShortMAPeriod),
		}
	}
	if roc <= o.cfg.ShortAccelerationROC {
		return Adjustment{
			WeightMultiplier: o.cfg.ShortBoostedMultiplier,
			Reason: fmt.Sprintf("overlay: short accelerating (ROC%d %.2f%%), x%.3f",
				o.cfg.ROCPeriod, roc, o.cfg.ShortBoostedMultiplier),
		}
	}
	return Adjustment{
		WeightMultiplier: o.cfg.ShortMultiplier,
		Reason: fmt.Sprintf("overlay: short confirmed (ROC%d %.2f%%, %.1f%% vs MA%d), x%.2f",
			o.cfg.ROCPeriod, roc, dist*100, o.cfg.ShortMAPeriod, o.cfg.ShortMultiplier),
	}
}

// distance returns how far price sits from ma as a signed fraction of ma.
func distance(price, ma float64) float64 {
	if ma == 0 {
		return 0
	}
	return (price - ma) / ma
}
