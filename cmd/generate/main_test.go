package main

import (
	"os"
	"path/filepath"
	"testing"

	engine "github.com/rxtech-lab/argo-crossover/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-crossover/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-crossover/internal/logger"
	"github.com/rxtech-lab/argo-crossover/pkg/marketdata"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v2"
)

type GenerateCmdTestSuite struct {
	suite.Suite
	tempDir string
}

func TestGenerateCmdSuite(t *testing.T) {
	suite.Run(t, new(GenerateCmdTestSuite))
}

func (suite *GenerateCmdTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
}

func (suite *GenerateCmdTestSuite) TestSchemaGeneration() {
	configDir := filepath.Join(suite.tempDir, "config")
	suite.Require().NoError(generateSchema(configDir))

	schemaContent, err := os.ReadFile(filepath.Join(configDir, schemaName))
	suite.Require().NoError(err)
	suite.Contains(string(schemaContent), "backtest-engine-v1-config")
}

func (suite *GenerateCmdTestSuite) TestSampleConfigGeneration() {
	configDir := filepath.Join(suite.tempDir, "config")
	suite.Require().NoError(generateSchema(configDir))

	content, err := os.ReadFile(filepath.Join(configDir, sampleConfigName))
	suite.Require().NoError(err)
	suite.Contains(string(content), "# yaml-language-server: $schema=backtest-engine-v1-config.json")

	var config engine.BacktestEngineV1Config
	suite.Require().NoError(yaml.Unmarshal(content, &config))
	suite.NoError(config.Validate())
	suite.Equal(engine.EmptyConfig().Strategy, config.Strategy)
}

func (suite *GenerateCmdTestSuite) TestSampleConfigNotOverwritten() {
	configDir := filepath.Join(suite.tempDir, "config")
	sampleConfigPath := filepath.Join(configDir, sampleConfigName)

	suite.Require().NoError(os.MkdirAll(configDir, 0755))
	suite.Require().NoError(os.WriteFile(sampleConfigPath, []byte("initial_capital: 1\n"), 0644))

	suite.Require().NoError(generateSchema(configDir))

	content, err := os.ReadFile(sampleConfigPath)
	suite.Require().NoError(err)
	suite.Equal("initial_capital: 1\n", string(content))
}

func (suite *GenerateCmdTestSuite) TestDataGeneration() {
	dataDir := filepath.Join(suite.tempDir, "Data")
	suite.Require().NoError(generateData(dataDir, "microbtcusdt"))

	loader := datasource.NewLoader(dataDir, "microbtcusdt", "MICROBTCUSDT", logger.NewNopLogger())

	for _, timeframe := range marketdata.ValidTimeframes {
		series, err := loader.Load(timeframe.String())
		suite.Require().NoError(err, timeframe.String())
		suite.Equal(sampleBars, series.Len())

		first := series.First().Unwrap()
		second := series.Bar(1)
		suite.Equal(timeframe.Duration(), second.Time.Sub(first.Time))
	}
}

func (suite *GenerateCmdTestSuite) TestDataNotOverwritten() {
	dataDir := filepath.Join(suite.tempDir, "Data")
	path := filepath.Join(dataDir, marketdata.TimeframeOneHour.FileName("microbtcusdt"))

	suite.Require().NoError(os.MkdirAll(dataDir, 0755))
	suite.Require().NoError(os.WriteFile(path, []byte("Date,Close\n"), 0644))

	suite.Require().NoError(generateData(dataDir, "microbtcusdt"))

	content, err := os.ReadFile(path)
	suite.Require().NoError(err)
	suite.Equal("Date,Close\n", string(content))
}
