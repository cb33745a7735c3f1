package marketdata

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-crossover/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type TimeframeTestSuite struct {
	suite.Suite
}

func TestTimeframeSuite(t *testing.T) {
	suite.Run(t, new(TimeframeTestSuite))
}

func (suite *TimeframeTestSuite) TestParseValid() {
	for _, tag := range []string{"3m", "5m", "15m", "30m", "1h"} {
		suite.Run(tag, func() {
			tf, err := ParseTimeframe(tag)
			suite.NoError(err)
			suite.Equal(Timeframe(tag), tf)
		})
	}
}

func (suite *TimeframeTestSuite) TestParseInvalid() {
	for _, tag := range []string{"", "1m", "2h", "4h", "1d", "1H", " 1h", "15"} {
		suite.Run(tag, func() {
			_, err := ParseTimeframe(tag)
			suite.Error(err)
			suite.True(errors.HasCode(err, errors.ErrCodeInvalidTimeframe))
			suite.True(errors.GetCode(err).IsInvalidArgument())
			suite.Contains(err.Error(), "'"+tag+"' is not a valid timeframe")
			suite.Contains(err.Error(), "[3m 5m 15m 30m 1h]")
		})
	}
}

func (suite *TimeframeTestSuite) TestDuration() {
	tests := []struct {
		timeframe Timeframe
		expected  time.Duration
	}{
		{TimeframeThreeMinutes, 3 * time.Minute},
		{TimeframeFiveMinutes, 5 * time.Minute},
		{TimeframeFifteenMinutes, 15 * time.Minute},
		{TimeframeThirtyMinutes, 30 * time.Minute},
		{TimeframeOneHour, time.Hour},
		{Timeframe("2h"), 0},
	}

	for _, tc := range tests {
		suite.Run(string(tc.timeframe), func() {
			suite.Equal(tc.expected, tc.timeframe.Duration())
		})
	}
}

func (suite *TimeframeTestSuite) TestFileName() {
	suite.Equal("microbtcusdt_1h.csv", TimeframeOneHour.FileName("microbtcusdt"))
	suite.Equal("microbtcusdt_15m.csv", TimeframeFifteenMinutes.FileName("microbtcusdt"))
}

func (suite *TimeframeTestSuite) TestAllTimeframesMatchesValidSet() {
	suite.Len(AllTimeframes, len(ValidTimeframes))
	for _, tf := range ValidTimeframes {
		suite.Contains(AllTimeframes, tf)
	}
}
