package strategies

import (
	"fmt"
	"sort"

	"etfRotationBot/internal/ports"
)

// Registry names of the built-in strategies.
const (
	NameTrendFollowing      = "trend_following"
	NameTrendMeanReversion  = "trend_mean_reversion"
	NameVolatilityProtected = "volatility_protected"
)

// Config groups the parameters of every built-in strategy. Field tags let a
// YAML strategy profile override any subset of them.
type Config struct {
	Trend      TrendConfig      `yaml:"trend"`
	Overlay    OverlayConfig    `yaml:"overlay"`
	Volatility VolatilityConfig `yaml:"volatility"`
}

// DefaultConfig returns the reference parameters for the given ticker pair.
func DefaultConfig(longSymbol, shortSymbol string) Config {
	return Config{
		Trend:      DefaultTrendConfig(longSymbol, shortSymbol),
		Overlay:    DefaultOverlayConfig(longSymbol, shortSymbol),
		Volatility: DefaultVolatilityConfig(),
	}
}

// Registry holds a named collection of strategies for lookup and enumeration.
type Registry struct {
	strategies map[string]ports.Strategy
}

// NewRegistry creates an empty strategy Registry.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]ports.Strategy)}
}

// Register adds a strategy to the registry, keyed by its Name().
func (r *Registry) Register(s ports.Strategy) {
	r.strategies[s.Name()] = s
}

// Get retrieves a strategy by name.
func (r *Registry) Get(name string) (ports.Strategy, error) {
	s, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ports.ErrUnknownStrategy, name, r.List())
	}
	return s, nil
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewDefaultRegistry builds every built-in strategy from cfg.
func NewDefaultRegistry(cfg Config, logger ports.Logger) (*Registry, error) {
	trend, err := NewTrendFollowing(cfg.Trend, logger)
	if err != nil {
		return nil, err
	}
	overlay, err := NewMeanReversionOverlay(cfg.Overlay)
	if err != nil {
		return nil, err
	}
	controller, err := NewController(trend, overlay, logger)
	if err != nil {
		return nil, err
	}
	protected, err := NewVolatilityProtected(controller, cfg.Volatility)
	if err != nil {
		return nil, err
	}

	r := NewRegistry()
	r.Register(trend)
	r.Register(controller)
	r.Register(protected)
	return r, nil
}

// Build constructs only the named strategy from cfg.
func Build(name string, cfg Config, logger ports.Logger) (ports.Strategy, error) {
	r, err := NewDefaultRegistry(cfg, logger)
	if err != nil {
		return nil, err
	}
	return r.Get(name)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
