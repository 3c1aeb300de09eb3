// Package alpaca implements ports.BarSource with the Alpaca market-data API.
package alpaca

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"etfRotationBot/internal/domain"
	"etfRotationBot/internal/ports"
	"etfRotationBot/internal/utils"
)

// barsAPI is the subset of *marketdata.Client used here.
type barsAPI interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// Config holds Alpaca connection settings
type Config struct {
	APIKey    string
	APISecret string
	DataURL   string // optional market-data base URL override
	Feed      string // "iex" or "sip"; empty uses the account default
	Logger    ports.Logger

	MaxAttempts int
	RetryDelay  time.Duration
}

// Client fetches split- and dividend-adjusted daily bars.
type Client struct {
	api    barsAPI
	cfg    Config
	logger ports.Logger
}

var _ ports.BarSource = (*Client)(nil)

// New creates a Client backed by the Alpaca REST API.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("%w: alpaca API key and secret are required", ports.ErrConfigurationError)
	}
	opts := marketdata.ClientOpts{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
	}
	if cfg.DataURL != "" {
		opts.BaseURL = cfg.DataURL
	}
	return newClient(marketdata.NewClient(opts), cfg)
}

func newClient(api barsAPI, cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for alpaca client")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	return &Client{api: api, cfg: cfg, logger: cfg.Logger}, nil
}

// FetchDailyBars returns bars for symbol between from and to inclusive
// (YYYY-MM-DD), ascending by date.
func (c *Client) FetchDailyBars(ctx context.Context, symbol, from, to string) ([]domain.Bar, error) {
	start, err := domain.ParseDate(from)
	if err != nil {
		return nil, fmt.Errorf("%w: from date %q", ports.ErrInvalidRequest, from)
	}
	end, err := domain.ParseDate(to)
	if err != nil {
		return nil, fmt.Errorf("%w: to date %q", ports.ErrInvalidRequest, to)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: to %s before from %s", ports.ErrInvalidRequest, to, from)
	}

	req := marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Start:      start,
		End:        end.AddDate(0, 0, 1),
		Adjustment: marketdata.All,
		Feed:       marketdata.Feed(c.cfg.Feed),
	}

	var raw []marketdata.Bar
	attempt := 0
	err = utils.Retry(ctx, c.cfg.MaxAttempts, c.cfg.RetryDelay, func() error {
		attempt++
		var callErr error
		raw, callErr = c.api.GetBars(strings.ToUpper(symbol), req)
		if callErr != nil {
			c.logger.Warn(ctx, "Alpaca bars request failed", map[string]interface{}{
				"symbol":  symbol,
				"attempt": attempt,
				"error":   callErr.Error(),
			})
		}
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s bars: %v", ports.ErrProviderUnavailable, symbol, err)
	}

	bars := make([]domain.Bar, 0, len(raw))
	for _, ab := range raw {
		date := ab.Timestamp.UTC().Format(domain.DateLayout)
		if date < from || date > to {
			continue
		}
		bars = append(bars, domain.Bar{
			Date:  date,
			Open:  ab.Open,
			High:  ab.High,
			Low:   ab.Low,
			Close: ab.Close,
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })

	c.logger.Info(ctx, "Fetched daily bars", map[string]interface{}{
		"symbol": symbol,
		"from":   from,
		"to":     to,
		"count":  len(bars),
	})
	return bars, nil
}
