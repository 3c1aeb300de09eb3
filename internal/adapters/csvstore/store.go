// Package csvstore implements ports.BarStore over plain CSV files, one per
// symbol at <DataDir>/daily/<SYMBOL>.csv.
package csvstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"etfRotationBot/internal/domain"
	"etfRotationBot/internal/ports"
	"etfRotationBot/internal/utils"
)

var _ ports.BarStore = (*Store)(nil)

// Store reads and writes bar CSV files.
type Store struct {
	DataDir string
}

// New creates a Store rooted at dataDir.
func New(dataDir string) *Store {
	return &Store{DataDir: dataDir}
}

// WriteBars merges bars into the symbol's file, replacing same-date rows.
func (s *Store) WriteBars(ctx context.Context, symbol string, bars []domain.Bar) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrContextCanceled, err)
	}
	if len(bars) == 0 {
		return nil
	}
	path := s.path(symbol)

	existing, err := utils.ReadBarsFromCSV(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading existing bars for %s: %w", symbol, err)
	}

	byDate := make(map[string]domain.Bar, len(existing)+len(bars))
	for _, b := range existing {
		byDate[b.Date] = b
	}
	for _, b := range bars {
		byDate[b.Date] = b
	}
	merged := make([]domain.Bar, 0, len(byDate))
	for _, b := range byDate {
		merged = append(merged, b)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date < merged[j].Date })

	if err := utils.WriteBarsToCSV(merged, path); err != nil {
		return fmt.Errorf("writing bars for %s: %w", symbol, err)
	}
	return nil
}

// ReadBars returns the symbol's bars in ascending date order.
func (s *Store) ReadBars(ctx context.Context, symbol string) ([]domain.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrContextCanceled, err)
	}
	bars, err := utils.ReadBarsFromCSV(s.path(symbol))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: no bars stored for %s", ports.ErrNotFound, symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("reading bars for %s: %w", symbol, err)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })
	return bars, nil
}

func (s *Store) path(symbol string) string {
	return filepath.Join(s.DataDir, "daily", strings.ToUpper(symbol)+".csv")
}
