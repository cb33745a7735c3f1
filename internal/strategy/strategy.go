package strategy

import (
	"github.com/rxtech-lab/argo-crossover/internal/trading"
	"github.com/rxtech-lab/argo-crossover/internal/types"
)

// Strategy turns a stream of bars into signals and forwards the actionable ones to an ExecutionEngine.
type Strategy interface {
	// Name returns the name of the strategy, used to group results on disk.
	Name() string
	// Initialize is called once per run with the full series before any bar is processed.
	// It resets all rolling state, so a strategy can be reused across runs.
	Initialize(series types.TimeSeries, engine trading.ExecutionEngine) error
	// ProcessData is called once per bar, in time order.
	ProcessData(bar types.MarketData) (types.Signal, error)
	// GetConfigSchema returns the JSON schema of the strategy config.
	GetConfigSchema() (string, error)
}
