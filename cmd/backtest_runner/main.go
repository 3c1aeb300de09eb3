package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"etfRotationBot/config"
	"etfRotationBot/internal/adapters/logger"
	"etfRotationBot/internal/adapters/sqlite"
	"etfRotationBot/internal/app"
	"etfRotationBot/internal/ports"
	"etfRotationBot/internal/strategy/analytics"
	"etfRotationBot/internal/strategy/optimization"
	"etfRotationBot/internal/utils"
)

var opts struct {
	strategy    string
	from        string
	to          string
	displayFrom string
	capital     float64
	exportDir   string
	noSave      bool

	params  []string
	workers int
	top     int
}

var rootCmd = &cobra.Command{
	Use:   "backtest_runner",
	Short: "Backtest the leveraged ETF rotation strategy on stored daily bars",
	RunE:  runBacktest,
}

var sweepCmd = &cobra.Command{
	Use:     "sweep",
	Short:   "Run one backtest per parameter combination and rank the results",
	Example: "  backtest_runner sweep --param long_ma_period=150:250:25 --param neutral_weight=0.3:0.7:0.1",
	RunE:    runSweep,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.strategy, "strategy", "", "strategy name (trend_following, trend_mean_reversion, volatility_protected)")
	pf.StringVar(&opts.from, "from", "", "first date simulated, YYYY-MM-DD")
	pf.StringVar(&opts.to, "to", "", "last date simulated, YYYY-MM-DD")
	pf.StringVar(&opts.displayFrom, "display-from", "", "rebase curve and trades to this date")
	pf.Float64Var(&opts.capital, "capital", 0, "initial capital")

	rootCmd.Flags().StringVar(&opts.exportDir, "export", "", "directory to write trades.csv and equity.csv")
	rootCmd.Flags().BoolVar(&opts.noSave, "no-save", false, "do not store the run in the database")

	sweepCmd.Flags().StringArrayVar(&opts.params, "param", nil, "parameter range name=min:max:step (repeatable)")
	sweepCmd.Flags().IntVar(&opts.workers, "workers", 0, "concurrent backtests (default: number of CPUs)")
	sweepCmd.Flags().IntVar(&opts.top, "top", 10, "number of results to print")
	_ = sweepCmd.MarkFlagRequired("param")

	rootCmd.AddCommand(sweepCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, ports.Logger, error) {
	overrides := map[string]string{
		"strategy":     "STRATEGY",
		"from":         "BACKTEST_FROM",
		"to":           "BACKTEST_TO",
		"display-from": "DISPLAY_FROM",
		"capital":      "INITIAL_CAPITAL",
	}
	for flag, key := range overrides {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			os.Setenv(key, f.Value.String())
		}
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	appLogger := logger.New(cfg.LogLevel, cfg.LogFormat)
	return cfg, appLogger, nil
}

func runBacktest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, appLogger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := app.NewBarStore(cfg)
	if err != nil {
		return err
	}

	var repo ports.BacktestRepository
	if !opts.noSave {
		db, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
		if err != nil {
			return err
		}
		defer db.Close()
		repo = db
	}

	svc, err := app.NewBacktestService(cfg, appLogger, store, repo)
	if err != nil {
		return err
	}
	record, err := svc.Run(ctx)
	if err != nil {
		return err
	}

	printSummary(record)

	if opts.exportDir != "" {
		tradesPath := filepath.Join(opts.exportDir, "trades.csv")
		equityPath := filepath.Join(opts.exportDir, "equity.csv")
		if err := utils.WriteTradesToCSV(record.Result.Trades, tradesPath); err != nil {
			return fmt.Errorf("exporting trades: %w", err)
		}
		if err := utils.WriteEquityCurveToCSV(record.Result.EquityCurve, equityPath); err != nil {
			return fmt.Errorf("exporting equity curve: %w", err)
		}
		appLogger.Info(ctx, "Exported run", map[string]interface{}{"trades": tradesPath, "equity": equityPath})
	}
	return nil
}

func printSummary(record *app.RunRecord) {
	m := record.Result.Metrics
	fmt.Printf("Run %s  %s  %s .. %s\n\n", record.Summary.ID, record.Summary.Strategy, record.Summary.From, record.Summary.To)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight|tabwriter.Debug)
	fmt.Fprintln(w, "Series\tTotal%\tCAGR%\tMaxDD%\tSharpe\tTrades\tWin%\tAvgPos%\t")
	fmt.Fprintf(w, "Strategy\t%.2f\t%.2f\t%.2f\t%.2f\t%d\t%.1f\t%.1f\t\n",
		m.TotalReturn, m.CAGR, m.MaxDrawdown, m.SharpeRatio, record.Summary.TradeCount, m.WinRate.WinPct, m.AvgPositionSize)
	fmt.Fprintf(w, "Benchmark\t%.2f\t%.2f\t%.2f\t%.2f\t-\t-\t-\t\n",
		m.Benchmark.TotalReturn, m.Benchmark.CAGR, m.Benchmark.MaxDrawdown, m.Benchmark.SharpeRatio)
	fmt.Fprintf(w, "Leveraged\t%.2f\t%.2f\t%.2f\t%.2f\t-\t-\t-\t\n",
		m.BenchmarkLeveraged.TotalReturn, m.BenchmarkLeveraged.CAGR, m.BenchmarkLeveraged.MaxDrawdown, m.BenchmarkLeveraged.SharpeRatio)
	w.Flush()

	monthly := analytics.MonthlyReturns(record.Result.EquityCurve)
	if len(monthly) == 0 {
		return
	}
	fmt.Println("\n## Monthly returns")
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	for i, mr := range monthly {
		fmt.Fprintf(w, "%s\t%+.2f%%\t", mr.Month, mr.Return)
		if i%6 == 5 || i == len(monthly)-1 {
			fmt.Fprintln(w)
		}
	}
	w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, appLogger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ranges := make([]optimization.ParameterRange, 0, len(opts.params))
	for _, p := range opts.params {
		r, err := optimization.ParseRange(p)
		if err != nil {
			return err
		}
		ranges = append(ranges, r)
	}

	store, err := app.NewBarStore(cfg)
	if err != nil {
		return err
	}
	svc, err := app.NewBacktestService(cfg, appLogger, store, nil)
	if err != nil {
		return err
	}
	results, err := svc.Sweep(ctx, ranges, opts.workers)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		log.Println("No parameter combination produced a result.")
		return nil
	}

	names := make([]string, 0, len(ranges))
	for _, r := range ranges {
		names = append(names, r.Name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight|tabwriter.Debug)
	fmt.Fprintf(w, "Rank\t%s\tScore\tCAGR%%\tMaxDD%%\tSharpe\tTrades\t\n", strings.Join(names, "\t"))
	for i, r := range results {
		if opts.top > 0 && i >= opts.top {
			break
		}
		values := make([]string, len(names))
		for j, n := range names {
			values[j] = fmt.Sprintf("%g", r.Parameters[n])
		}
		fmt.Fprintf(w, "%d\t%s\t%.3f\t%.2f\t%.2f\t%.2f\t%d\t\n",
			i+1, strings.Join(values, "\t"), r.Score, r.Metrics.CAGR, r.Metrics.MaxDrawdown, r.Metrics.SharpeRatio, r.Trades)
	}
	return w.Flush()
}
