package datasource

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-crossover/internal/logger"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type DuckDBDataSourceTestSuite struct {
	suite.Suite
	dir    string
	source DataSource
}

func TestDuckDBDataSourceSuite(t *testing.T) {
	suite.Run(t, new(DuckDBDataSourceTestSuite))
}

func (suite *DuckDBDataSourceTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()

	source, err := NewDataSource("", logger.NewNopLogger())
	suite.Require().NoError(err)

	suite.source = source
}

func (suite *DuckDBDataSourceTestSuite) TearDownTest() {
	suite.NoError(suite.source.Close())
}

func (suite *DuckDBDataSourceTestSuite) writeFile(name string, content string) string {
	path := filepath.Join(suite.dir, name)
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0644))

	return path
}

func (suite *DuckDBDataSourceTestSuite) readAll() ([]types.MarketData, error) {
	bars := make([]types.MarketData, 0)

	for bar, err := range suite.source.ReadAll(optional.None[time.Time](), optional.None[time.Time]()) {
		if err != nil {
			return nil, err
		}

		bars = append(bars, bar)
	}

	return bars, nil
}

func (suite *DuckDBDataSourceTestSuite) TestReadTimestampColumn() {
	path := suite.writeFile("bars.csv", `Date,Open,High,Low,Close,Volume
2024-01-01 00:00:00,1,2,0.5,1.5,100
2024-01-01 01:00:00,1.5,2.5,1,2,200
2024-01-01 02:00:00,2,3,1.5,2.5,300
`)

	suite.Require().NoError(suite.source.Initialize(path))

	count, err := suite.source.Count()
	suite.NoError(err)
	suite.Equal(3, count)

	bars, err := suite.readAll()
	suite.Require().NoError(err)
	suite.Require().Len(bars, 3)

	suite.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), bars[0].Time)
	suite.Equal(1.0, bars[0].Open)
	suite.Equal(2.0, bars[0].High)
	suite.Equal(0.5, bars[0].Low)
	suite.Equal(1.5, bars[0].Close)
	suite.Equal(100.0, bars[0].Volume)
	suite.Equal(time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC), bars[2].Time)
}

func (suite *DuckDBDataSourceTestSuite) TestPreservesFileOrder() {
	path := suite.writeFile("unordered.csv", `Date,Close
2024-01-01 02:00:00,3
2024-01-01 00:00:00,1
2024-01-01 01:00:00,2
`)

	suite.Require().NoError(suite.source.Initialize(path))

	bars, err := suite.readAll()
	suite.Require().NoError(err)
	suite.Equal(3.0, bars[0].Close)
	suite.Equal(1.0, bars[1].Close)
}

func (suite *DuckDBDataSourceTestSuite) TestCaseInsensitiveColumnsAndDefaults() {
	path := suite.writeFile("lower.csv", `timestamp,close
2024-01-01,10
2024-01-02,11
`)

	suite.Require().NoError(suite.source.Initialize(path))

	bars, err := suite.readAll()
	suite.Require().NoError(err)
	suite.Require().Len(bars, 2)

	suite.Equal(10.0, bars[0].Open)
	suite.Equal(10.0, bars[0].High)
	suite.Equal(10.0, bars[0].Low)
	suite.Equal(0.0, bars[0].Volume)
	suite.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), bars[1].Time)
}

func (suite *DuckDBDataSourceTestSuite) TestEpochSeconds() {
	path := suite.writeFile("epoch.csv", `time,Close
1704067200,1
1704070800,2
`)

	suite.Require().NoError(suite.source.Initialize(path))

	bars, err := suite.readAll()
	suite.Require().NoError(err)
	suite.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), bars[0].Time)
	suite.Equal(time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC), bars[1].Time)
}

func (suite *DuckDBDataSourceTestSuite) TestEpochMilliseconds() {
	path := suite.writeFile("epoch_ms.csv", `time,Close
1704067200000,1
1704070800000,2
`)

	suite.Require().NoError(suite.source.Initialize(path))

	bars, err := suite.readAll()
	suite.Require().NoError(err)
	suite.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), bars[0].Time)
}

func (suite *DuckDBDataSourceTestSuite) TestRowIndexIsNotAnEpoch() {
	path := suite.writeFile("indexed.csv", `idx,Close
0,1.5
1,1.6
`)

	suite.Require().NoError(suite.source.Initialize(path))

	bars, err := suite.readAll()
	suite.Error(err)
	suite.Nil(bars)
	suite.True(errors.HasCode(err, errors.ErrCodeDataFormat))
	suite.Contains(err.Error(), "row 1")
}

func (suite *DuckDBDataSourceTestSuite) TestWindow() {
	path := suite.writeFile("window.csv", `Date,Close
2024-01-01 00:00:00,1
2024-01-01 01:00:00,2
2024-01-01 02:00:00,3
2024-01-01 03:00:00,4
`)

	suite.Require().NoError(suite.source.Initialize(path))

	start := optional.Some(time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC))
	end := optional.Some(time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC))

	closes := make([]float64, 0)
	for bar, err := range suite.source.ReadAll(start, end) {
		suite.Require().NoError(err)

		closes = append(closes, bar.Close)
	}

	suite.Equal([]float64{2, 3}, closes)
}

func (suite *DuckDBDataSourceTestSuite) TestUnparseableDate() {
	path := suite.writeFile("bad_date.csv", `Date,Close
yesterday,1
2024-01-01,2
`)

	suite.Require().NoError(suite.source.Initialize(path))

	_, err := suite.readAll()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDataFormat))
	suite.Contains(err.Error(), "row 1")
}

func (suite *DuckDBDataSourceTestSuite) TestNonNumericClose() {
	path := suite.writeFile("bad_close.csv", `Date,Close
2024-01-01,1
2024-01-02,abc
`)

	suite.Require().NoError(suite.source.Initialize(path))

	_, err := suite.readAll()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDataFormat))
	suite.Contains(err.Error(), "row 2")
}

func (suite *DuckDBDataSourceTestSuite) TestMissingCloseColumn() {
	path := suite.writeFile("no_close.csv", `Date,Open
2024-01-01,1
`)

	err := suite.source.Initialize(path)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDataFormat))
	suite.Contains(err.Error(), "no close column")
}

func (suite *DuckDBDataSourceTestSuite) TestMissingFile() {
	err := suite.source.Initialize(filepath.Join(suite.dir, "missing.csv"))
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDataFormat))
}

func (suite *DuckDBDataSourceTestSuite) TestReadBeforeInitialize() {
	_, err := suite.readAll()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDataSourceUnavailable))
}

func (suite *DuckDBDataSourceTestSuite) TestReinitialize() {
	first := suite.writeFile("first.csv", "Date,Close\n2024-01-01,1\n")
	second := suite.writeFile("second.csv", "Date,Close\n2024-01-01,5\n2024-01-02,6\n")

	suite.Require().NoError(suite.source.Initialize(first))
	suite.Require().NoError(suite.source.Initialize(second))

	bars, err := suite.readAll()
	suite.Require().NoError(err)
	suite.Len(bars, 2)
	suite.Equal(5.0, bars[0].Close)
}

func TestParseTimestamp(t *testing.T) {
	expected := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)

	testCases := []struct {
		name  string
		value any
		want  time.Time
	}{
		{"time", expected, expected},
		{"epoch seconds", int64(expected.Unix()), expected},
		{"epoch millis", expected.UnixMilli(), expected},
		{"float epoch", float64(expected.Unix()), expected},
		{"rfc3339", "2024-03-04T05:06:07Z", expected},
		{"rfc3339 offset", "2024-03-04T07:06:07+02:00", expected},
		{"space separated", "2024-03-04 05:06:07", expected},
		{"no zone", "2024-03-04T05:06:07", expected},
		{"minutes", "2024-03-04 05:06", time.Date(2024, 3, 4, 5, 6, 0, 0, time.UTC)},
		{"date", "2024-03-04", time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)},
		{"bytes", []byte("2024-03-04"), time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseTimestamp(tc.value)
			require.NoError(t, err)
			assert.True(t, got.Equal(tc.want), "got %s, want %s", got, tc.want)
		})
	}

	for _, value := range []any{nil, "not a date", true, "03/04/2024", int64(0), int64(42), float64(946684799)} {
		_, err := parseTimestamp(value)
		assert.Error(t, err, "%v", value)
	}
}
