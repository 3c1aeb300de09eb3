package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etfRotationBot/internal/adapters/logger"
	"etfRotationBot/internal/ports"
	"etfRotationBot/internal/strategy/strategies"
)

var configKeys = []string{
	"PRIMARY_SYMBOL", "LONG_SYMBOL", "SHORT_SYMBOL", "INITIAL_CAPITAL",
	"BACKTEST_FROM", "BACKTEST_TO", "DISPLAY_FROM", "WARMUP_BARS", "STRATEGY",
	"STRATEGY_MEDIUM_MA_PERIOD", "STRATEGY_LONG_MA_PERIOD", "STRATEGY_ROC_PERIOD",
	"STRATEGY_TRANSITIONAL_WEIGHT", "STRATEGY_NEUTRAL_WEIGHT", "STRATEGY_BEAR_SHORT_WEIGHT",
	"STRATEGY_PROFILE", "REBALANCE_THRESHOLD", "BARS_SOURCE", "DATA_DIR", "DB_PATH",
	"LOG_LEVEL", "LOG_FORMAT", "ALPACA_API_KEY", "ALPACA_API_SECRET", "ALPACA_DATA_URL", "ALPACA_FEED",
}

// clearEnv blanks every key so the host environment cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "QQQ", cfg.PrimarySymbol)
	assert.Equal(t, "TQQQ", cfg.LongSymbol)
	assert.Equal(t, "SQQQ", cfg.ShortSymbol)
	assert.Equal(t, 10000.0, cfg.InitialCapital)
	assert.Equal(t, strategies.NameTrendMeanReversion, cfg.Strategy)
	assert.Equal(t, 50, cfg.StrategyParams.Trend.MediumPeriod)
	assert.Equal(t, 200, cfg.StrategyParams.Trend.LongPeriod)
	assert.Equal(t, 50, cfg.StrategyParams.Trend.ROCPeriod)
	assert.Equal(t, 0.6, cfg.StrategyParams.Trend.TransitionalWeight)
	assert.Equal(t, 0.5, cfg.StrategyParams.Trend.NeutralWeight)
	assert.Equal(t, 0.0, cfg.StrategyParams.Trend.BearShortWeight)
	assert.Equal(t, 0.02, cfg.RebalanceThreshold)
	assert.Equal(t, SourceParquet, cfg.BarsSource)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "./data/backtests.db", cfg.DBPath)
	assert.Equal(t, logger.LevelInfo, cfg.LogLevel)
	assert.Equal(t, logger.FormatJSON, cfg.LogFormat)
	assert.Equal(t, []string{"TQQQ", "SQQQ"}, cfg.Tradeable())
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PRIMARY_SYMBOL", "spy")
	t.Setenv("LONG_SYMBOL", "upro")
	t.Setenv("SHORT_SYMBOL", "spxu")
	t.Setenv("INITIAL_CAPITAL", "25000")
	t.Setenv("BACKTEST_FROM", "2015-01-02")
	t.Setenv("BACKTEST_TO", "2020-12-31")
	t.Setenv("DISPLAY_FROM", "2016-01-04")
	t.Setenv("STRATEGY_MEDIUM_MA_PERIOD", "30")
	t.Setenv("STRATEGY_LONG_MA_PERIOD", "150")
	t.Setenv("REBALANCE_THRESHOLD", "0.05")
	t.Setenv("BARS_SOURCE", "CSV")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "SPY", cfg.PrimarySymbol)
	assert.Equal(t, "UPRO", cfg.StrategyParams.Trend.LongSymbol)
	assert.Equal(t, "SPXU", cfg.StrategyParams.Overlay.ShortSymbol)
	assert.Equal(t, 30, cfg.StrategyParams.Trend.ROCPeriod)
	assert.Equal(t, SourceCSV, cfg.BarsSource)
	assert.Equal(t, logger.LevelDebug, cfg.LogLevel)
	assert.Equal(t, logger.FormatConsole, cfg.LogFormat)

	bt := cfg.BacktestConfig()
	assert.Equal(t, "SPY", bt.PrimarySymbol)
	assert.Equal(t, "UPRO", bt.LongSymbol)
	assert.Equal(t, "2016-01-04", bt.DisplayFrom)
	assert.Equal(t, 25000.0, bt.InitialCapital)
	assert.Equal(t, 0.05, cfg.PortfolioConfig().RebalanceThreshold)
}

func TestFromEnv_CollectsAllErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("INITIAL_CAPITAL", "-5")
	t.Setenv("STRATEGY_MEDIUM_MA_PERIOD", "200")
	t.Setenv("STRATEGY_NEUTRAL_WEIGHT", "1.5")
	t.Setenv("REBALANCE_THRESHOLD", "1")
	t.Setenv("BACKTEST_FROM", "2020/01/01")
	t.Setenv("BARS_SOURCE", "s3")

	_, err := FromEnv()
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrConfigurationError)
	for _, want := range []string{
		"INITIAL_CAPITAL",
		"STRATEGY_MEDIUM_MA_PERIOD must be less than",
		"STRATEGY_NEUTRAL_WEIGHT",
		"REBALANCE_THRESHOLD",
		"BACKTEST_FROM",
		"BARS_SOURCE",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestFromEnv_InvalidNumber(t *testing.T) {
	clearEnv(t)
	t.Setenv("STRATEGY_LONG_MA_PERIOD", "two hundred")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STRATEGY_LONG_MA_PERIOD")
}

func TestFromEnv_DisplayFromOutsideWindow(t *testing.T) {
	clearEnv(t)
	t.Setenv("BACKTEST_FROM", "2020-01-01")
	t.Setenv("BACKTEST_TO", "2020-12-31")
	t.Setenv("DISPLAY_FROM", "2021-01-04")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DISPLAY_FROM")
}

func TestFromEnv_StrategyProfile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "profile.yaml")
	profile := `
trend:
  long_period: 180
  neutral_weight: 0.3
overlay:
  overextended_multiplier: 0.7
volatility:
  max_atr_pct: 3.5
`
	require.NoError(t, os.WriteFile(path, []byte(profile), 0o644))
	t.Setenv("STRATEGY_PROFILE", path)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 180, cfg.StrategyParams.Trend.LongPeriod)
	assert.Equal(t, 0.3, cfg.StrategyParams.Trend.NeutralWeight)
	assert.Equal(t, 50, cfg.StrategyParams.Trend.MediumPeriod)
	assert.Equal(t, 0.7, cfg.StrategyParams.Overlay.OverextendedMultiplier)
	assert.Equal(t, 3.5, cfg.StrategyParams.Volatility.MaxATRPct)
	assert.Equal(t, 14, cfg.StrategyParams.Volatility.ATRPeriod)
}

func TestFromEnv_StrategyProfileMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv("STRATEGY_PROFILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strategy profile")
}
