package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"etfRotationBot/config"
	"etfRotationBot/internal/adapters/alpaca"
	"etfRotationBot/internal/adapters/logger"
	"etfRotationBot/internal/app"
	"etfRotationBot/internal/domain"
)

var opts struct {
	symbols []string
	from    string
	to      string
	dest    string
}

var rootCmd = &cobra.Command{
	Use:   "fetch_bars",
	Short: "Download adjusted daily bars from Alpaca into the local bar store",
	RunE:  fetchBars,
}

func init() {
	f := rootCmd.Flags()
	f.StringSliceVar(&opts.symbols, "symbols", nil, "symbols to fetch (default: primary, long and short symbols)")
	f.StringVar(&opts.from, "from", "2010-02-11", "first date, YYYY-MM-DD")
	f.StringVar(&opts.to, "to", "", "last date, YYYY-MM-DD (default: today)")
	f.StringVar(&opts.dest, "dest", "", "bar store to write, parquet or csv (default: BARS_SOURCE)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func fetchBars(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if opts.dest != "" {
		cfg.BarsSource = strings.ToLower(opts.dest)
	}

	// 2. Initialize Logger
	appLogger := logger.New(cfg.LogLevel, cfg.LogFormat)

	// 3. Initialize market-data client and bar store
	client, err := alpaca.New(alpaca.Config{
		APIKey:    cfg.AlpacaAPIKey,
		APISecret: cfg.AlpacaAPISecret,
		DataURL:   cfg.AlpacaDataURL,
		Feed:      cfg.AlpacaFeed,
		Logger:    appLogger,
	})
	if err != nil {
		return err
	}
	store, err := app.NewBarStore(cfg)
	if err != nil {
		return err
	}

	symbols := opts.symbols
	if len(symbols) == 0 {
		symbols = []string{cfg.PrimarySymbol, cfg.LongSymbol, cfg.ShortSymbol}
	}
	to := opts.to
	if to == "" {
		to = time.Now().UTC().Format(domain.DateLayout)
	}

	// 4. Fetch and store each symbol
	for _, symbol := range symbols {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		bars, err := client.FetchDailyBars(ctx, symbol, opts.from, to)
		if err != nil {
			appLogger.Error(ctx, err, "Error fetching bars", map[string]interface{}{"symbol": symbol})
			return err
		}
		if err := store.WriteBars(ctx, symbol, bars); err != nil {
			appLogger.Error(ctx, err, "Error writing bars", map[string]interface{}{"symbol": symbol})
			return err
		}
		fmt.Printf("%-6s %5d bars  %s .. %s\n", symbol, len(bars), firstDate(bars), lastDate(bars))
	}
	appLogger.Info(ctx, "Bars saved", map[string]interface{}{"dir": cfg.DataDir, "source": cfg.BarsSource})
	return nil
}

func firstDate(bars []domain.Bar) string {
	if len(bars) == 0 {
		return "-"
	}
	return bars[0].Date
}

func lastDate(bars []domain.Bar) string {
	if len(bars) == 0 {
		return "-"
	}
	return bars[len(bars)-1].Date
}
