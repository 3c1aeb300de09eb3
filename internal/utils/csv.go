package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"etfRotationBot/internal/domain"
)

var barHeader = []string{"date", "open", "high", "low", "close"}

// ReadBarsFromCSV parses a date,open,high,low,close file. Header column
// order is taken from the first row; extra columns are ignored.
func ReadBarsFromCSV(filename string) ([]domain.Bar, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadBars(file)
}

// ReadBars parses bars from r. See ReadBarsFromCSV.
func ReadBars(r io.Reader) ([]domain.Bar, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range barHeader {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var bars []domain.Bar
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		date := row[cols["date"]]
		if _, err := domain.ParseDate(date); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		var vals [4]float64
		for i, name := range barHeader[1:] {
			v, err := strconv.ParseFloat(row[cols[name]], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, name, err)
			}
			vals[i] = v
		}
		bars = append(bars, domain.Bar{Date: date, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3]})
	}
	return bars, nil
}

// WriteBarsToCSV writes bars with a date,open,high,low,close header.
func WriteBarsToCSV(bars []domain.Bar, filename string) error {
	return writeCSV(filename, barHeader, len(bars), func(i int) []string {
		b := bars[i]
		return []string{b.Date, f(b.Open), f(b.High), f(b.Low), f(b.Close)}
	})
}

// WriteTradesToCSV writes the trade log.
func WriteTradesToCSV(trades []domain.Trade, filename string) error {
	header := []string{"entry_date", "exit_date", "symbol", "entry_price", "exit_price", "shares",
		"pnl", "return_pct", "days_held", "position_size_pct", "portfolio_return_pct", "reason"}
	return writeCSV(filename, header, len(trades), func(i int) []string {
		t := trades[i]
		return []string{
			t.EntryDate, t.ExitDate, t.Symbol,
			f(t.EntryPrice), f(t.ExitPrice), f(t.Shares),
			f(t.PnL), f(t.ReturnPct), strconv.Itoa(t.DaysHeld),
			f(t.PositionSizePct), f(t.PortfolioReturnPct), t.Reason,
		}
	})
}

// WriteEquityCurveToCSV writes one row per equity curve point.
func WriteEquityCurveToCSV(curve []domain.EquityCurvePoint, filename string) error {
	header := []string{"date", "equity", "benchmark", "benchmark_leveraged"}
	return writeCSV(filename, header, len(curve), func(i int) []string {
		p := curve[i]
		return []string{p.Date, f(p.Equity), f(p.Benchmark), f(p.BenchmarkLeveraged)}
	})
}

func writeCSV(filename string, header []string, n int, row func(int) []string) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := writer.Write(row(i)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
