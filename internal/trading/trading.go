package trading

import "github.com/rxtech-lab/argo-crossover/internal/types"

// ExecutionEngine receives the actionable signals a strategy emits.
// Implementations decide how a signal becomes orders; the strategy never sees fills.
type ExecutionEngine interface {
	// OnSignal handles a non-"none" signal raised on bar. A returned error is fatal to the run.
	OnSignal(signal types.Signal, bar types.MarketData) error
}
