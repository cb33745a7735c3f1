package engine

import (
	"fmt"
	"path/filepath"

	"github.com/rxtech-lab/argo-crossover/pkg/marketdata"
)

// getResultFolder returns <results>/<strategy>/<symbol>_<timeframe>/<run id>.
func getResultFolder(resultsFolder string, strategyName string, symbol string, timeframe marketdata.Timeframe, runID string) string {
	dataFolder := fmt.Sprintf("%s_%s", symbol, timeframe)

	return filepath.Join(resultsFolder, strategyName, dataFolder, runID)
}
