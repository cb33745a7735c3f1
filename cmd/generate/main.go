package main

import (
	"log"
	"os"
	"path/filepath"

	engine "github.com/rxtech-lab/argo-crossover/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-crossover/mocks"
	"github.com/rxtech-lab/argo-crossover/pkg/marketdata"
	"gopkg.in/yaml.v2"
)

const (
	schemaName       = "backtest-engine-v1-config.json"
	sampleConfigName = "backtest-engine-v1-config.yaml"
	sampleBars       = 2000
)

// generateSchema writes the config schema and, if missing, a sample config referencing it.
func generateSchema(configDir string) error {
	config := engine.EmptyConfig()

	schemaJSON, err := config.GenerateSchemaJSON()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	schemaPath := filepath.Join(configDir, schemaName)
	if err := os.WriteFile(schemaPath, []byte(schemaJSON), 0644); err != nil {
		return err
	}

	log.Printf("Schema successfully generated at %s", schemaPath)

	sampleConfigPath := filepath.Join(configDir, sampleConfigName)
	if _, err := os.Stat(sampleConfigPath); !os.IsNotExist(err) {
		return nil
	}

	yamlBytes, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	yamlBytes = append([]byte("# yaml-language-server: $schema="+schemaName+"\n"), yamlBytes...)

	if err := os.WriteFile(sampleConfigPath, yamlBytes, 0644); err != nil {
		return err
	}

	log.Printf("Sample config successfully generated at %s", sampleConfigPath)

	return nil
}

// generateData writes a random walk for every supported timeframe, skipping files that exist.
func generateData(dataDir string, baseName string) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return err
	}

	for i, timeframe := range marketdata.ValidTimeframes {
		path := filepath.Join(dataDir, timeframe.FileName(baseName))
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			continue
		}

		config := mocks.DefaultConfig()
		config.Count = sampleBars
		config.Interval = timeframe.Duration()

		bars := mocks.NewDataGenerator(int64(i + 1)).Generate(config)
		if err := mocks.WriteCSV(path, bars, "2006-01-02 15:04:05"); err != nil {
			return err
		}

		log.Printf("Sample data successfully generated at %s", path)
	}

	return nil
}

func main() {
	config := engine.EmptyConfig()

	if err := generateSchema("./config"); err != nil {
		log.Fatalf("Failed to generate schema: %v", err)
	}

	if err := generateData(config.DataDir, config.BaseName); err != nil {
		log.Fatalf("Failed to generate sample data: %v", err)
	}
}
