package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"etfRotationBot/config"
	"etfRotationBot/internal/adapters/logger"
	"etfRotationBot/internal/adapters/sqlite"
	"etfRotationBot/internal/domain"
)

var opts struct {
	limit int
	runID string
}

var rootCmd = &cobra.Command{
	Use:   "analyze_backtests",
	Short: "List stored backtest runs, or break down the trades of one run",
	RunE:  analyze,
}

func init() {
	rootCmd.Flags().IntVar(&opts.limit, "limit", 20, "number of runs to list, 0 for all")
	rootCmd.Flags().StringVar(&opts.runID, "run", "", "show the trade breakdown of this run ID")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func analyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	appLogger := logger.New(cfg.LogLevel, cfg.LogFormat)

	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
	if err != nil {
		return err
	}
	defer repo.Close()

	if opts.runID != "" {
		return showRun(ctx, repo, opts.runID)
	}

	runs, err := repo.ListRuns(ctx, opts.limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		log.Println("No backtest runs stored. Run the backtest runner first.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight|tabwriter.Debug)
	fmt.Fprintln(w, "Run\tCreated\tStrategy\tFrom\tTo\tTrades\tTotal%\tCAGR%\tMaxDD%\tSharpe\tWin%\tBench%\tLev%\t")
	for _, r := range runs {
		m := r.Metrics
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.1f\t%.2f\t%.2f\t\n",
			shortID(r.ID), r.CreatedAt.Format("2006-01-02 15:04"), r.Strategy, r.From, r.To, r.TradeCount,
			m.TotalReturn, m.CAGR, m.MaxDrawdown, m.SharpeRatio, m.WinRate.WinPct,
			m.Benchmark.TotalReturn, m.BenchmarkLeveraged.TotalReturn)
	}
	return w.Flush()
}

func showRun(ctx context.Context, repo *sqlite.Repository, id string) error {
	run, result, err := repo.FindRun(ctx, id)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s not found", id)
	}
	fmt.Printf("Run %s  %s  %s .. %s  capital %.0f\n\n", run.ID, run.Strategy, run.From, run.To, run.InitialCapital)

	bySymbol := make(map[string][]domain.Trade)
	for _, t := range result.Trades {
		bySymbol[t.Symbol] = append(bySymbol[t.Symbol], t)
	}
	symbols := make([]string, 0, len(bySymbol))
	for s := range bySymbol {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight|tabwriter.Debug)
	fmt.Fprintln(w, "Symbol\tTrades\tWinRate\tAvgWin%\tAvgLoss%\tTotalPnL\tAvgDays\t")
	for _, s := range append(symbols, "ALL") {
		trades := bySymbol[s]
		if s == "ALL" {
			trades = result.Trades
		}
		stats := calculateTradeStats(trades)
		fmt.Fprintf(w, "%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.1f\t\n",
			s, stats.TotalTrades, stats.WinRate*100, stats.AvgWin, stats.AvgLoss, stats.TotalPnL, stats.AvgDaysHeld)
	}
	return w.Flush()
}

// TradeStats holds statistics about a set of trades
type TradeStats struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64
	AvgWin        float64 // mean return of winners, %
	AvgLoss       float64 // mean return of losers, %
	TotalPnL      float64
	AvgDaysHeld   float64
}

// calculateTradeStats calculates statistics for a set of trades
func calculateTradeStats(trades []domain.Trade) TradeStats {
	var stats TradeStats
	stats.TotalTrades = len(trades)
	if stats.TotalTrades == 0 {
		return stats
	}

	var winning, losing float64
	var days int
	for _, trade := range trades {
		stats.TotalPnL += trade.PnL
		days += trade.DaysHeld
		if trade.ReturnPct > 0 {
			stats.WinningTrades++
			winning += trade.ReturnPct
		} else {
			stats.LosingTrades++
			losing += trade.ReturnPct
		}
	}

	if stats.WinningTrades > 0 {
		stats.AvgWin = winning / float64(stats.WinningTrades)
	}
	if stats.LosingTrades > 0 {
		stats.AvgLoss = losing / float64(stats.LosingTrades)
	}
	stats.WinRate = float64(stats.WinningTrades) / float64(stats.TotalTrades)
	stats.AvgDaysHeld = float64(days) / float64(stats.TotalTrades)
	return stats
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
