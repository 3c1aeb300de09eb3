// Package parquetstore persists daily bars as one Parquet file per symbol.
package parquetstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/parquet-go/parquet-go"

	"etfRotationBot/internal/domain"
	"etfRotationBot/internal/ports"
)

var _ ports.BarStore = (*Store)(nil)

// Store implements ports.BarStore on disk.
//
//	<DataDir>/daily/<SYMBOL>.parquet
type Store struct {
	DataDir string
}

// New creates a Store rooted at dataDir.
func New(dataDir string) *Store {
	return &Store{DataDir: dataDir}
}

// BarRecord is the Parquet schema for daily bar data.
type BarRecord struct {
	Symbol string  `parquet:"symbol"`
	Date   string  `parquet:"date"` // YYYY-MM-DD
	Open   float64 `parquet:"open"`
	High   float64 `parquet:"high"`
	Low    float64 `parquet:"low"`
	Close  float64 `parquet:"close"`
}

// WriteBars merges bars into the symbol's file. Incoming bars replace stored
// bars with the same date.
func (s *Store) WriteBars(ctx context.Context, symbol string, bars []domain.Bar) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrContextCanceled, err)
	}
	if len(bars) == 0 {
		return nil
	}
	symbol = strings.ToUpper(symbol)
	path := s.barPath(symbol)

	existing, err := readRecords(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading existing bars for %s: %w", symbol, err)
	}

	incoming := make([]BarRecord, len(bars))
	for i, b := range bars {
		incoming[i] = BarRecord{Symbol: symbol, Date: b.Date, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := parquet.WriteFile(path, mergeRecords(existing, incoming)); err != nil {
		return fmt.Errorf("writing bars for %s: %w", symbol, err)
	}
	return nil
}

// ReadBars returns every stored bar for symbol in ascending date order.
func (s *Store) ReadBars(ctx context.Context, symbol string) ([]domain.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrContextCanceled, err)
	}
	symbol = strings.ToUpper(symbol)
	records, err := readRecords(s.barPath(symbol))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: no bars stored for %s", ports.ErrNotFound, symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("reading bars for %s: %w", symbol, err)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Date < records[j].Date })
	bars := make([]domain.Bar, len(records))
	for i, r := range records {
		bars[i] = domain.Bar{Date: r.Date, Open: r.Open, High: r.High, Low: r.Low, Close: r.Close}
	}
	return bars, nil
}

// ListSymbols lists all symbols with stored bars.
func (s *Store) ListSymbols(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.DataDir, "daily"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var symbols []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".parquet") {
			symbols = append(symbols, strings.TrimSuffix(e.Name(), ".parquet"))
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

func (s *Store) barPath(symbol string) string {
	return filepath.Join(s.DataDir, "daily", symbol+".parquet")
}

func readRecords(path string) ([]BarRecord, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return parquet.ReadFile[BarRecord](path)
}

// mergeRecords deduplicates by date, preferring incoming records.
func mergeRecords(existing, incoming []BarRecord) []BarRecord {
	seen := make(map[string]BarRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.Date] = r
	}
	for _, r := range incoming {
		seen[r.Date] = r
	}

	merged := make([]BarRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date < merged[j].Date })
	return merged
}
