package datasource

import (
	"os"
	"path/filepath"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-crossover/internal/logger"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
	"github.com/rxtech-lab/argo-crossover/pkg/marketdata"
	"go.uber.org/zap"
)

// Loader resolves a timeframe tag to a CSV file and reads it into a TimeSeries.
// Every call reads the file again; nothing is cached between loads.
type Loader struct {
	dataDir   string
	baseName  string
	symbol    string
	logger    *logger.Logger
	newSource Factory
	startTime optional.Option[time.Time]
	endTime   optional.Option[time.Time]
}

// NewLoader creates a loader reading <dataDir>/<baseName>_<timeframe>.csv through
// an in-memory DuckDB data source.
func NewLoader(dataDir string, baseName string, symbol string, log *logger.Logger) *Loader {
	return &Loader{
		dataDir:  dataDir,
		baseName: baseName,
		symbol:   symbol,
		logger:   log,
		newSource: func() (DataSource, error) {
			return NewDataSource("", log)
		},
		startTime: optional.None[time.Time](),
		endTime:   optional.None[time.Time](),
	}
}

// WithFactory replaces the data source used for every subsequent load.
func (l *Loader) WithFactory(factory Factory) *Loader {
	l.newSource = factory

	return l
}

// WithWindow restricts loaded bars to the inclusive [start, end] window.
func (l *Loader) WithWindow(start optional.Option[time.Time], end optional.Option[time.Time]) *Loader {
	l.startTime = start
	l.endTime = end

	return l
}

// Path returns the file a timeframe resolves to.
func (l *Loader) Path(timeframe marketdata.Timeframe) string {
	return filepath.Join(l.dataDir, timeframe.FileName(l.baseName))
}

// Load validates the timeframe tag, then reads the matching file.
// An invalid tag fails with ErrCodeInvalidTimeframe before the file system is touched.
// Without a window the series must hold exactly one bar per data row.
func (l *Loader) Load(tag string) (types.TimeSeries, error) {
	timeframe, err := marketdata.ParseTimeframe(tag)
	if err != nil {
		return types.TimeSeries{}, err
	}

	path := l.Path(timeframe)

	if err := checkReadable(path); err != nil {
		return types.TimeSeries{}, err
	}

	source, err := l.newSource()
	if err != nil {
		return types.TimeSeries{}, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to create data source", err)
	}
	defer source.Close()

	if err := source.Initialize(path); err != nil {
		return types.TimeSeries{}, errors.Wrapf(errors.ErrCodeDataFormat, err, "failed to load %s", path)
	}

	bars := make([]types.MarketData, 0)

	for bar, err := range source.ReadAll(l.startTime, l.endTime) {
		if err != nil {
			return types.TimeSeries{}, errors.Wrapf(errors.ErrCodeDataFormat, err, "failed to read %s", path)
		}

		bar.Symbol = l.symbol
		bars = append(bars, bar)
	}

	if l.startTime.IsNone() && l.endTime.IsNone() {
		rows, err := source.Count()
		if err != nil {
			return types.TimeSeries{}, errors.Wrapf(errors.ErrCodeDataFormat, err, "failed to count rows in %s", path)
		}

		if rows != len(bars) {
			return types.TimeSeries{}, errors.Newf(errors.ErrCodeDataFormat, "%s has %d data rows but %d bars were read", path, rows, len(bars))
		}
	}

	series, err := types.NewTimeSeries(l.symbol, timeframe, bars)
	if err != nil {
		return types.TimeSeries{}, errors.Wrapf(errors.ErrCodeDataFormat, err, "invalid bars in %s", path)
	}

	l.logger.Info("Loaded market data",
		zap.String("path", path),
		zap.String("timeframe", timeframe.String()),
		zap.Int("bars", series.Len()),
	)

	return series, nil
}

func checkReadable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeDataFormat, err, "market data file %s is missing", path)
	}

	if info.IsDir() {
		return errors.Newf(errors.ErrCodeDataFormat, "market data path %s is a directory", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeDataFormat, err, "market data file %s is not readable", path)
	}

	return file.Close()
}
