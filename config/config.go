package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"etfRotationBot/internal/adapters/logger"
	"etfRotationBot/internal/domain"
	"etfRotationBot/internal/portfolio"
	"etfRotationBot/internal/ports"
	"etfRotationBot/internal/strategy/backtesting"
	"etfRotationBot/internal/strategy/strategies"
)

// Bar stores selectable with BARS_SOURCE.
const (
	SourceParquet = "parquet"
	SourceCSV     = "csv"
)

// Config holds all application configuration.
type Config struct {
	// Tickers
	PrimarySymbol string
	LongSymbol    string
	ShortSymbol   string

	// Backtest window
	InitialCapital float64
	From           string
	To             string
	DisplayFrom    string
	WarmupBars     int

	// Strategy and sizing
	Strategy           string
	StrategyProfile    string
	StrategyParams     strategies.Config
	RebalanceThreshold float64

	// Storage
	BarsSource string
	DataDir    string
	DBPath     string

	// Logging
	LogLevel  logger.LogLevel
	LogFormat logger.Format

	// Alpaca market data, only needed for fetching bars
	AlpacaAPIKey    string
	AlpacaAPISecret string
	AlpacaDataURL   string
	AlpacaFeed      string
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds and validates a Config from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	var err error
	var errs []error

	cfg.PrimarySymbol = strings.ToUpper(getEnv("PRIMARY_SYMBOL", "QQQ"))
	cfg.LongSymbol = strings.ToUpper(getEnv("LONG_SYMBOL", "TQQQ"))
	cfg.ShortSymbol = strings.ToUpper(getEnv("SHORT_SYMBOL", "SQQQ"))
	if cfg.LongSymbol == cfg.ShortSymbol {
		errs = append(errs, errors.New("LONG_SYMBOL and SHORT_SYMBOL must differ"))
	}

	cfg.InitialCapital, err = getEnvAsFloatRequired("INITIAL_CAPITAL", 10000)
	if err != nil {
		errs = append(errs, err)
	} else if cfg.InitialCapital <= 0 {
		errs = append(errs, errors.New("INITIAL_CAPITAL must be positive"))
	}

	cfg.From = getEnv("BACKTEST_FROM", "")
	cfg.To = getEnv("BACKTEST_TO", "")
	cfg.DisplayFrom = getEnv("DISPLAY_FROM", "")
	errs = append(errs, validateDates(cfg.From, cfg.To, cfg.DisplayFrom)...)

	cfg.WarmupBars, err = getEnvAsIntRequired("WARMUP_BARS", 0)
	if err != nil {
		errs = append(errs, err)
	} else if cfg.WarmupBars < 0 {
		errs = append(errs, errors.New("WARMUP_BARS cannot be negative"))
	}

	cfg.Strategy = getEnv("STRATEGY", strategies.NameTrendMeanReversion)

	cfg.StrategyParams = strategies.DefaultConfig(cfg.LongSymbol, cfg.ShortSymbol)
	trend := &cfg.StrategyParams.Trend
	if trend.MediumPeriod, err = getEnvAsIntRequired("STRATEGY_MEDIUM_MA_PERIOD", trend.MediumPeriod); err != nil {
		errs = append(errs, err)
	}
	if trend.LongPeriod, err = getEnvAsIntRequired("STRATEGY_LONG_MA_PERIOD", trend.LongPeriod); err != nil {
		errs = append(errs, err)
	}
	if trend.ROCPeriod, err = getEnvAsIntRequired("STRATEGY_ROC_PERIOD", trend.MediumPeriod); err != nil {
		errs = append(errs, err)
	}
	if trend.TransitionalWeight, err = getEnvAsFloatRequired("STRATEGY_TRANSITIONAL_WEIGHT", trend.TransitionalWeight); err != nil {
		errs = append(errs, err)
	}
	if trend.NeutralWeight, err = getEnvAsFloatRequired("STRATEGY_NEUTRAL_WEIGHT", trend.NeutralWeight); err != nil {
		errs = append(errs, err)
	}
	if trend.BearShortWeight, err = getEnvAsFloatRequired("STRATEGY_BEAR_SHORT_WEIGHT", trend.BearShortWeight); err != nil {
		errs = append(errs, err)
	}

	cfg.StrategyProfile = getEnv("STRATEGY_PROFILE", "")
	if cfg.StrategyProfile != "" {
		if err := LoadStrategyProfile(cfg.StrategyProfile, &cfg.StrategyParams); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, validateTrend(cfg.StrategyParams.Trend)...)

	cfg.RebalanceThreshold, err = getEnvAsFloatRequired("REBALANCE_THRESHOLD", portfolio.DefaultRebalanceThreshold)
	if err != nil {
		errs = append(errs, err)
	} else if cfg.RebalanceThreshold < 0 || cfg.RebalanceThreshold >= 1 {
		errs = append(errs, errors.New("REBALANCE_THRESHOLD must be within [0, 1)"))
	}

	cfg.BarsSource = strings.ToLower(getEnv("BARS_SOURCE", SourceParquet))
	if cfg.BarsSource != SourceParquet && cfg.BarsSource != SourceCSV {
		errs = append(errs, fmt.Errorf("BARS_SOURCE must be %q or %q, got %q", SourceParquet, SourceCSV, cfg.BarsSource))
	}
	cfg.DataDir = getEnv("DATA_DIR", "./data")
	cfg.DBPath = getEnv("DB_PATH", "./data/backtests.db")

	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))
	cfg.LogFormat = logger.ParseFormat(getEnv("LOG_FORMAT", string(logger.FormatJSON)))

	cfg.AlpacaAPIKey = getEnv("ALPACA_API_KEY", "")
	cfg.AlpacaAPISecret = getEnv("ALPACA_API_SECRET", "")
	cfg.AlpacaDataURL = getEnv("ALPACA_DATA_URL", "")
	cfg.AlpacaFeed = getEnv("ALPACA_FEED", "")

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: configuration validation failed: %w", ports.ErrConfigurationError, errors.Join(errs...))
	}
	return cfg, nil
}

// LoadStrategyProfile overlays the YAML file at path onto params. Keys absent
// from the file keep their current values.
func LoadStrategyProfile(path string, params *strategies.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading strategy profile: %w", err)
	}
	if err := yaml.Unmarshal(data, params); err != nil {
		return fmt.Errorf("parsing strategy profile %s: %w", path, err)
	}
	return nil
}

// BacktestConfig returns the runner configuration.
func (c *Config) BacktestConfig() backtesting.BacktestConfig {
	return backtesting.BacktestConfig{
		PrimarySymbol:  c.PrimarySymbol,
		LongSymbol:     c.LongSymbol,
		From:           c.From,
		To:             c.To,
		DisplayFrom:    c.DisplayFrom,
		InitialCapital: c.InitialCapital,
		WarmupBars:     c.WarmupBars,
	}
}

// PortfolioConfig returns the order sizing configuration.
func (c *Config) PortfolioConfig() portfolio.Config {
	return portfolio.Config{RebalanceThreshold: c.RebalanceThreshold}
}

// Tradeable returns the symbols the strategy can hold.
func (c *Config) Tradeable() []string {
	return []string{c.LongSymbol, c.ShortSymbol}
}

func validateDates(from, to, displayFrom string) []error {
	var errs []error
	for key, v := range map[string]string{"BACKTEST_FROM": from, "BACKTEST_TO": to, "DISPLAY_FROM": displayFrom} {
		if v == "" {
			continue
		}
		if _, err := domain.ParseDate(v); err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
		}
	}
	if len(errs) > 0 {
		return errs
	}
	if from != "" && to != "" && from > to {
		errs = append(errs, errors.New("BACKTEST_FROM must not be after BACKTEST_TO"))
	}
	if displayFrom != "" {
		if (from != "" && displayFrom < from) || (to != "" && displayFrom > to) {
			errs = append(errs, errors.New("DISPLAY_FROM must be within [BACKTEST_FROM, BACKTEST_TO]"))
		}
	}
	return errs
}

func validateTrend(t strategies.TrendConfig) []error {
	var errs []error
	if t.MediumPeriod <= 0 || t.LongPeriod <= 0 || t.ROCPeriod <= 0 {
		errs = append(errs, errors.New("strategy periods must be positive"))
	}
	if t.MediumPeriod >= t.LongPeriod {
		errs = append(errs, errors.New("STRATEGY_MEDIUM_MA_PERIOD must be less than STRATEGY_LONG_MA_PERIOD"))
	}
	for name, w := range map[string]float64{
		"STRATEGY_TRANSITIONAL_WEIGHT": t.TransitionalWeight,
		"STRATEGY_NEUTRAL_WEIGHT":      t.NeutralWeight,
		"STRATEGY_BEAR_SHORT_WEIGHT":   t.BearShortWeight,
	} {
		if w < 0 || w > 1 {
			errs = append(errs, fmt.Errorf("%s must be within [0, 1]", name))
		}
	}
	return errs
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}
