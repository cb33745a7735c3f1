package datasource

import (
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-crossover/internal/logger"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
	"go.uber.org/zap"
)

// epochMillisThreshold separates epoch seconds from epoch milliseconds.
const epochMillisThreshold = 1e11

// minEpoch is the earliest integer timestamp accepted as a date. Smaller integers are
// row indexes or counters, not epochs.
var minEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// columnMapping holds the CSV header names resolved for each bar field.
// An empty name means the column is absent from the file.
type columnMapping struct {
	time   string
	open   string
	high   string
	low    string
	close  string
	volume string
}

type DuckDBDataSource struct {
	db      *sql.DB
	logger  *logger.Logger
	sq      squirrel.StatementBuilderType
	path    string
	columns columnMapping
}

// NewDataSource creates a new DuckDB data source instance with the specified database path.
// An empty path opens an in-memory database, which is what the loader uses.
// This is distinct from Initialize() which binds the CSV file.
func NewDataSource(path string, logger *logger.Logger) (DataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	_, err = db.Exec(`SET preserve_insertion_order=true;`)
	if err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to configure duckdb", err)
	}

	return &DuckDBDataSource{
		db:      db,
		logger:  logger,
		sq:      squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		path:    "",
		columns: columnMapping{},
	}, nil
}

// Initialize implements DataSource.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB data source", zap.String("path", path))

	_, err := d.db.Exec(`DROP VIEW IF EXISTS market_data;`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop existing view", err)
	}

	// Squirrel has no CREATE VIEW support.
	query := fmt.Sprintf(`
		CREATE VIEW market_data AS
		SELECT * FROM read_csv_auto('%s', header=true);
	`, strings.ReplaceAll(path, "'", "''"))

	_, err = d.db.Exec(query)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeDataFormat, err, "failed to read csv file %s", path)
	}

	columns, err := d.describe()
	if err != nil {
		return err
	}

	mapping, err := resolveColumns(columns)
	if err != nil {
		return err
	}

	d.path = path
	d.columns = mapping

	d.logger.Debug("Resolved csv columns",
		zap.String("time", mapping.time),
		zap.String("close", mapping.close),
		zap.Strings("columns", columns),
	)

	return nil
}

// describe returns the header names of the bound view in file order.
func (d *DuckDBDataSource) describe() ([]string, error) {
	query, args, err := d.sq.Select("*").From("market_data").Limit(0).ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build describe query", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataFormat, "failed to inspect csv columns", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataFormat, "failed to inspect csv columns", err)
	}

	return columns, nil
}

func resolveColumns(columns []string) (columnMapping, error) {
	mapping := columnMapping{}

	if len(columns) == 0 {
		return mapping, errors.New(errors.ErrCodeDataFormat, "csv file has no columns")
	}

	// The first column is the timestamp whatever its header says.
	mapping.time = columns[0]

	for _, column := range columns[1:] {
		switch strings.ToLower(strings.TrimSpace(column)) {
		case "open":
			mapping.open = column
		case "high":
			mapping.high = column
		case "low":
			mapping.low = column
		case "close":
			mapping.close = column
		case "volume":
			mapping.volume = column
		}
	}

	if mapping.close == "" {
		return mapping, errors.Newf(errors.ErrCodeDataFormat, "csv file has no close column (found %v)", columns)
	}

	return mapping, nil
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count() (int, error) {
	var count int

	query, args, err := d.sq.Select("COUNT(*)").From("market_data").ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build count query", err)
	}

	err = d.db.QueryRow(query, args...).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count rows", err)
	}

	return count, nil
}

// ReadAll implements DataSource.
func (d *DuckDBDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.MarketData, error) bool) {
	return func(yield func(types.MarketData, error) bool) {
		if d.columns.time == "" {
			yield(types.MarketData{}, errors.New(errors.ErrCodeDataSourceUnavailable, "data source is not initialized"))

			return
		}

		d.logger.Debug("Reading all data from DuckDB", zap.String("path", d.path))

		query, args, err := d.sq.Select(
			quoteIdentifier(d.columns.time),
			numericColumn(d.columns.open),
			numericColumn(d.columns.high),
			numericColumn(d.columns.low),
			numericColumn(d.columns.close),
			numericColumn(d.columns.volume),
		).From("market_data").ToSql()
		if err != nil {
			yield(types.MarketData{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build select query", err))

			return
		}

		rows, err := d.db.Query(query, args...)
		if err != nil {
			yield(types.MarketData{}, errors.Wrap(errors.ErrCodeDataFormat, "failed to query market data", err))

			return
		}
		defer rows.Close()

		row := 0

		for rows.Next() {
			row++

			var (
				rawTime                        any
				open, high, low, close, volume sql.NullFloat64
			)

			if err := rows.Scan(&rawTime, &open, &high, &low, &close, &volume); err != nil {
				yield(types.MarketData{}, errors.Wrapf(errors.ErrCodeDataFormat, err, "failed to scan row %d", row))

				return
			}

			bar, err := d.toMarketData(row, rawTime, open, high, low, close, volume)
			if err != nil {
				yield(types.MarketData{}, err)

				return
			}

			if start.IsSome() && bar.Time.Before(start.Unwrap()) {
				continue
			}

			if end.IsSome() && bar.Time.After(end.Unwrap()) {
				continue
			}

			if !yield(bar, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.MarketData{}, errors.Wrap(errors.ErrCodeDataFormat, "error iterating rows", err))
		}
	}
}

func (d *DuckDBDataSource) toMarketData(row int, rawTime any, open, high, low, close, volume sql.NullFloat64) (types.MarketData, error) {
	timestamp, err := parseTimestamp(rawTime)
	if err != nil {
		return types.MarketData{}, errors.Wrapf(errors.ErrCodeDataFormat, err, "row %d: column %q is not a date", row, d.columns.time)
	}

	if !close.Valid {
		return types.MarketData{}, errors.Newf(errors.ErrCodeDataFormat, "row %d: close is missing or not numeric", row)
	}

	bar := types.MarketData{
		Id:     "",
		Symbol: "",
		Time:   timestamp,
		Open:   close.Float64,
		High:   close.Float64,
		Low:    close.Float64,
		Close:  close.Float64,
		Volume: 0,
	}

	prices := []struct {
		column string
		value  sql.NullFloat64
		target *float64
	}{
		{d.columns.open, open, &bar.Open},
		{d.columns.high, high, &bar.High},
		{d.columns.low, low, &bar.Low},
	}

	for _, price := range prices {
		if price.column == "" {
			continue
		}

		if !price.value.Valid {
			return types.MarketData{}, errors.Newf(errors.ErrCodeDataFormat, "row %d: %s is missing or not numeric", row, price.column)
		}

		*price.target = price.value.Float64
	}

	if volume.Valid {
		bar.Volume = volume.Float64
	}

	return bar, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	return d.db.Close()
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// numericColumn selects a column as DOUBLE. Values that cannot be converted come back as NULL.
func numericColumn(name string) string {
	if name == "" {
		return "CAST(NULL AS DOUBLE)"
	}

	return fmt.Sprintf("TRY_CAST(%s AS DOUBLE)", quoteIdentifier(name))
}

// parseTimestamp converts a value scanned from the timestamp column into a UTC time.
func parseTimestamp(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), nil
	case int64:
		return fromEpoch(float64(v))
	case int32:
		return fromEpoch(float64(v))
	case int16:
		return fromEpoch(float64(v))
	case int8:
		return fromEpoch(float64(v))
	case uint64:
		return fromEpoch(float64(v))
	case uint32:
		return fromEpoch(float64(v))
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return time.Time{}, fmt.Errorf("invalid epoch value %v", v)
		}

		return fromEpoch(v)
	case string:
		return parseTimestampString(v)
	case []byte:
		return parseTimestampString(string(v))
	case nil:
		return time.Time{}, fmt.Errorf("empty timestamp")
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", value)
	}
}

func parseTimestampString(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)

	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, trimmed)
		if err == nil {
			return parsed.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("cannot parse %q as a timestamp", value)
}

func fromEpoch(value float64) (time.Time, error) {
	timestamp := time.Unix(int64(value), 0).UTC()
	if math.Abs(value) > epochMillisThreshold {
		timestamp = time.UnixMilli(int64(value)).UTC()
	}

	if timestamp.Before(minEpoch) {
		return time.Time{}, fmt.Errorf("integer %v is not an epoch timestamp after %s", value, minEpoch.Format("2006-01-02"))
	}

	return timestamp, nil
}
