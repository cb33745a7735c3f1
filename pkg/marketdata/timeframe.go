package marketdata

import (
	"fmt"
	"slices"
	"time"

	"github.com/rxtech-lab/argo-crossover/pkg/errors"
)

// Timeframe is the sampling interval of the bars stored in one data file.
type Timeframe string

const (
	TimeframeThreeMinutes   Timeframe = "3m"
	TimeframeFiveMinutes    Timeframe = "5m"
	TimeframeFifteenMinutes Timeframe = "15m"
	TimeframeThirtyMinutes  Timeframe = "30m"
	TimeframeOneHour        Timeframe = "1h"
)

// ValidTimeframes is the closed set of timeframes a data file can be loaded for.
var ValidTimeframes = []Timeframe{
	TimeframeThreeMinutes,
	TimeframeFiveMinutes,
	TimeframeFifteenMinutes,
	TimeframeThirtyMinutes,
	TimeframeOneHour,
}

// AllTimeframes is ValidTimeframes as a JSON schema enum.
var AllTimeframes = []any{
	TimeframeThreeMinutes,
	TimeframeFiveMinutes,
	TimeframeFifteenMinutes,
	TimeframeThirtyMinutes,
	TimeframeOneHour,
}

// ParseTimeframe converts a tag into a Timeframe, rejecting anything outside ValidTimeframes.
func ParseTimeframe(tag string) (Timeframe, error) {
	tf := Timeframe(tag)
	if err := tf.Validate(); err != nil {
		return "", err
	}

	return tf, nil
}

// Validate returns an ErrCodeInvalidTimeframe error naming the value and the valid set.
func (t Timeframe) Validate() error {
	if slices.Contains(ValidTimeframes, t) {
		return nil
	}

	return errors.Newf(errors.ErrCodeInvalidTimeframe,
		"'%s' is not a valid timeframe. Choose from %v.", string(t), ValidTimeframes)
}

// Duration returns the length of one bar.
func (t Timeframe) Duration() time.Duration {
	switch t {
	case TimeframeThreeMinutes:
		return 3 * time.Minute
	case TimeframeFiveMinutes:
		return 5 * time.Minute
	case TimeframeFifteenMinutes:
		return 15 * time.Minute
	case TimeframeThirtyMinutes:
		return 30 * time.Minute
	case TimeframeOneHour:
		return time.Hour
	default:
		return 0
	}
}

// FileName builds the data file name for the timeframe, e.g. microbtcusdt_1h.csv.
func (t Timeframe) FileName(baseName string) string {
	return fmt.Sprintf("%s_%s.csv", baseName, string(t))
}

func (t Timeframe) String() string {
	return string(t)
}
