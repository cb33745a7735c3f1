package mocks

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-crossover/internal/types"
)

// DataGenerator generates market data for tests.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how market data is generated.
type GeneratorConfig struct {
	// Symbol is the trading symbol
	Symbol string
	// StartTime is the beginning of the data series
	StartTime time.Time
	// Interval is the duration between each bar
	Interval time.Duration
	// Count is the number of data points to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement per bar (0.01 = 1%)
	Volatility float64
	// VolumeBase is the average volume per bar
	VolumeBase float64
}

// DefaultConfig returns hourly bars for MICROBTCUSDT.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:       "MICROBTCUSDT",
		StartTime:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:     time.Hour,
		Count:        1000,
		InitialPrice: 42.0,
		Volatility:   0.01,
		VolumeBase:   10000,
	}
}

// Generate creates bars following a geometric random walk.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.MarketData {
	data := make([]types.MarketData, config.Count)
	currentPrice := config.InitialPrice
	currentTime := config.StartTime

	for i := 0; i < config.Count; i++ {
		open := currentPrice

		// Box-Muller transform for a normally distributed step
		u1 := 1 - g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		close := open * (1 + config.Volatility*z)
		if close <= 0 {
			close = open * 0.99
		}

		high := math.Max(open, close) * (1 + g.rng.Float64()*config.Volatility*0.5)
		low := math.Min(open, close) * (1 - g.rng.Float64()*config.Volatility*0.5)
		volume := config.VolumeBase * (0.5 + g.rng.Float64())

		data[i] = types.MarketData{
			Id:     "",
			Symbol: config.Symbol,
			Time:   currentTime,
			Open:   roundToDecimals(open, 4),
			High:   roundToDecimals(high, 4),
			Low:    roundToDecimals(low, 4),
			Close:  roundToDecimals(close, 4),
			Volume: roundToDecimals(volume, 2),
		}

		currentPrice = close
		currentTime = currentTime.Add(config.Interval)
	}

	return data
}

// GenerateFromCloses builds flat bars (open = high = low = close) from a list of closes,
// one Interval apart. Used to drive a strategy through a known price path.
func GenerateFromCloses(config GeneratorConfig, closes ...float64) []types.MarketData {
	data := make([]types.MarketData, len(closes))
	currentTime := config.StartTime

	for i, c := range closes {
		data[i] = types.MarketData{
			Symbol: config.Symbol,
			Time:   currentTime,
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: config.VolumeBase,
		}
		currentTime = currentTime.Add(config.Interval)
	}

	return data
}

// SineCloses returns count closes oscillating around base with the given amplitude and period
// in bars. Moving averages of such a path cross regularly.
func SineCloses(count int, base, amplitude float64, period int) []float64 {
	closes := make([]float64, count)
	for i := range closes {
		closes[i] = roundToDecimals(base+amplitude*math.Sin(2*math.Pi*float64(i)/float64(period)), 6)
	}

	return closes
}

// WriteCSV writes bars as a CSV file with the header Date,Open,High,Low,Close,Volume and the
// date formatted with layout.
func WriteCSV(path string, bars []types.MarketData, layout string) error {
	var b strings.Builder

	b.WriteString("Date,Open,High,Low,Close,Volume\n")

	for _, bar := range bars {
		fmt.Fprintf(&b, "%s,%s,%s,%s,%s,%s\n",
			bar.Time.Format(layout),
			formatFloat(bar.Open),
			formatFloat(bar.High),
			formatFloat(bar.Low),
			formatFloat(bar.Close),
			formatFloat(bar.Volume),
		)
	}

	return os.WriteFile(path, []byte(b.String()), 0644)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
