package app

import (
	"fmt"

	"etfRotationBot/config"
	"etfRotationBot/internal/adapters/csvstore"
	"etfRotationBot/internal/adapters/parquetstore"
	"etfRotationBot/internal/ports"
)

// NewBarStore returns the bar store selected by cfg.BarsSource.
func NewBarStore(cfg *config.Config) (ports.BarStore, error) {
	switch cfg.BarsSource {
	case config.SourceParquet, "":
		return parquetstore.New(cfg.DataDir), nil
	case config.SourceCSV:
		return csvstore.New(cfg.DataDir), nil
	default:
		return nil, fmt.Errorf("%w: unknown bars source %q", ports.ErrConfigurationError, cfg.BarsSource)
	}
}
