package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etfRotationBot/config"
	"etfRotationBot/internal/domain"
	"etfRotationBot/internal/ports"
	"etfRotationBot/internal/strategy/optimization"
	"etfRotationBot/internal/strategy/strategies"
)

// MockLogger implements ports.Logger for testing
type MockLogger struct{}

func (m *MockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *MockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *MockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *MockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

type memStore map[string][]domain.Bar

func (m memStore) WriteBars(ctx context.Context, symbol string, bars []domain.Bar) error {
	m[symbol] = bars
	return nil
}

func (m memStore) ReadBars(ctx context.Context, symbol string) ([]domain.Bar, error) {
	bars, ok := m[symbol]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return bars, nil
}

type mockRepo struct {
	saved   []ports.RunSummary
	results []*domain.BacktestResult
	err     error
}

func (m *mockRepo) SaveRun(ctx context.Context, run ports.RunSummary, result *domain.BacktestResult) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, run)
	m.results = append(m.results, result)
	return nil
}

func (m *mockRepo) FindRun(ctx context.Context, id string) (*ports.RunSummary, *domain.BacktestResult, error) {
	return nil, nil, nil
}

func (m *mockRepo) ListRuns(ctx context.Context, limit int) ([]ports.RunSummary, error) {
	return m.saved, nil
}

func risingStore(n int) memStore {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	store := memStore{}
	for i := 0; i < n; i++ {
		day := start.AddDate(0, 0, i).Format(domain.DateLayout)
		for sym, c := range map[string]float64{
			"QQQ":  100 + 0.2*float64(i),
			"TQQQ": 50 + 0.3*float64(i),
			"SQQQ": 50 - 0.05*float64(i),
		} {
			store[sym] = append(store[sym], domain.Bar{Date: day, Open: c, High: c, Low: c, Close: c})
		}
	}
	return store
}

func testConfig(strategy string) *config.Config {
	return &config.Config{
		PrimarySymbol:      "QQQ",
		LongSymbol:         "TQQQ",
		ShortSymbol:        "SQQQ",
		InitialCapital:     10000,
		Strategy:           strategy,
		StrategyParams:     strategies.DefaultConfig("TQQQ", "SQQQ"),
		RebalanceThreshold: 0.02,
	}
}

func TestNewBacktestService(t *testing.T) {
	_, err := NewBacktestService(nil, &MockLogger{}, memStore{}, nil)
	assert.Error(t, err)
	_, err = NewBacktestService(testConfig(strategies.NameTrendFollowing), nil, memStore{}, nil)
	assert.Error(t, err)

	cfg := testConfig(strategies.NameTrendFollowing)
	cfg.InitialCapital = 0
	_, err = NewBacktestService(cfg, &MockLogger{}, memStore{}, nil)
	assert.ErrorIs(t, err, ports.ErrConfigurationError)

	svc, err := NewBacktestService(testConfig(strategies.NameTrendFollowing), &MockLogger{}, memStore{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestBacktestService_Run(t *testing.T) {
	repo := &mockRepo{}
	svc, err := NewBacktestService(testConfig(strategies.NameTrendMeanReversion), &MockLogger{}, risingStore(300), repo)
	require.NoError(t, err)

	record, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, record)

	_, err = uuid.Parse(record.Summary.ID)
	assert.NoError(t, err)
	assert.Equal(t, strategies.NameTrendMeanReversion, record.Summary.Strategy)
	assert.Equal(t, "2020-01-01", record.Summary.From)
	assert.Equal(t, record.Result.EquityCurve[len(record.Result.EquityCurve)-1].Date, record.Summary.To)
	assert.Len(t, record.Result.EquityCurve, 300)
	assert.Equal(t, len(record.Result.Trades), record.Summary.TradeCount)
	assert.Equal(t, record.Result.Metrics, record.Summary.Metrics)

	require.Len(t, repo.saved, 1)
	assert.Equal(t, record.Summary.ID, repo.saved[0].ID)
	assert.Same(t, record.Result, repo.results[0])
}

func TestBacktestService_RunWithoutRepository(t *testing.T) {
	svc, err := NewBacktestService(testConfig(strategies.NameTrendFollowing), &MockLogger{}, risingStore(250), nil)
	require.NoError(t, err)

	record, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, record.Summary.ID)
}

func TestBacktestService_RunErrors(t *testing.T) {
	svc, err := NewBacktestService(testConfig("martingale"), &MockLogger{}, risingStore(250), nil)
	require.NoError(t, err)
	_, err = svc.Run(context.Background())
	assert.ErrorIs(t, err, ports.ErrUnknownStrategy)

	svc, err = NewBacktestService(testConfig(strategies.NameTrendFollowing), &MockLogger{}, memStore{}, nil)
	require.NoError(t, err)
	_, err = svc.Run(context.Background())
	assert.Error(t, err)

	saveErr := errors.New("disk full")
	svc, err = NewBacktestService(testConfig(strategies.NameTrendFollowing), &MockLogger{}, risingStore(250), &mockRepo{err: saveErr})
	require.NoError(t, err)
	record, err := svc.Run(context.Background())
	assert.ErrorIs(t, err, saveErr)
	require.NotNil(t, record)
	assert.NotNil(t, record.Result)
}

func TestBacktestService_Sweep(t *testing.T) {
	svc, err := NewBacktestService(testConfig(strategies.NameTrendFollowing), &MockLogger{}, risingStore(300), nil)
	require.NoError(t, err)

	results, err := svc.Sweep(context.Background(), []optimization.ParameterRange{
		{Name: optimization.ParamLongMAPeriod, Min: 100, Max: 150, Step: 50, IsInt: true},
	}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestNewBarStore(t *testing.T) {
	cfg := testConfig(strategies.NameTrendFollowing)
	cfg.DataDir = t.TempDir()

	for _, source := range []string{config.SourceParquet, config.SourceCSV} {
		cfg.BarsSource = source
		store, err := NewBarStore(cfg)
		require.NoError(t, err, source)

		bars := []domain.Bar{{Date: "2024-01-02", Open: 1, High: 2, Low: 0.5, Close: 1.5}}
		require.NoError(t, store.WriteBars(context.Background(), "QQQ", bars), source)
		got, err := store.ReadBars(context.Background(), "QQQ")
		require.NoError(t, err, source)
		assert.Equal(t, bars, got, source)
	}

	cfg.BarsSource = "s3"
	_, err := NewBarStore(cfg)
	assert.ErrorIs(t, err, ports.ErrConfigurationError)
}
