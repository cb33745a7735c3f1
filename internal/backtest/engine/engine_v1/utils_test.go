package engine

import (
	"path/filepath"
	"testing"

	"github.com/rxtech-lab/argo-crossover/pkg/marketdata"
	"github.com/stretchr/testify/assert"
)

func TestGetResultFolder(t *testing.T) {
	folder := getResultFolder("results", "SmaCross(10,20)", "MICROBTCUSDT", marketdata.TimeframeFiveMinutes, "run-1")

	assert.Equal(t, filepath.Join("results", "SmaCross(10,20)", "MICROBTCUSDT_5m", "run-1"), folder)
}
