package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-crossover/internal/types"
)

// DataSource reads raw bars from a single market data file.
type DataSource interface {
	// Initialize binds the data source to the CSV file at path.
	Initialize(path string) error
	// ReadAll yields every bar in file order. Bars outside the optional
	// inclusive [start, end] window are skipped.
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.MarketData, error) bool)
	// Count returns the number of data rows in the bound file.
	Count() (int, error)
	// Close releases the underlying database handle.
	Close() error
}

// Factory builds a fresh DataSource for every load.
type Factory func() (DataSource, error)
