package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-crossover/internal/logger"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
	"go.uber.org/zap"
)

const (
	ordersFileName = "orders.csv"
	tradesFileName = "trades.csv"
	equityFileName = "equity.csv"
	statsFileName  = "stats.yaml"

	equityBatchSize = 1000
)

// BacktestState is the in-memory DuckDB journal of one run: every order, every closed trade and
// the equity after every bar.
type BacktestState struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// ResultFiles are the CSV files written by BacktestState.Write.
type ResultFiles struct {
	Orders string
	Trades string
	Equity string
}

func NewBacktestState(logger *logger.Logger) (*BacktestState, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to open state database", err)
	}

	return &BacktestState{
		logger: logger,
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the necessary tables for tracking orders, trades and equity.
func (b *BacktestState) Initialize() error {
	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS orders (
			order_id TEXT PRIMARY KEY,
			symbol TEXT,
			side TEXT,
			quantity DOUBLE,
			price DOUBLE,
			timestamp TIMESTAMP,
			status TEXT,
			reason TEXT,
			message TEXT,
			strategy_name TEXT,
			fee DOUBLE,
			position_type TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create orders table: %w", err)
	}

	_, err = b.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			symbol TEXT,
			position_type TEXT,
			quantity DOUBLE,
			entry_time TIMESTAMP,
			exit_time TIMESTAMP,
			entry_price DOUBLE,
			exit_price DOUBLE,
			fee DOUBLE,
			pnl DOUBLE,
			return_pct DOUBLE,
			strategy_name TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create trades table: %w", err)
	}

	_, err = b.db.Exec(`
		CREATE TABLE IF NOT EXISTS equity (
			time TIMESTAMP,
			close DOUBLE,
			cash DOUBLE,
			equity DOUBLE,
			short_ma DOUBLE,
			long_ma DOUBLE,
			in_position BOOLEAN
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create equity table: %w", err)
	}

	return nil
}

// RecordOrder journals a filled or rejected order.
func (b *BacktestState) RecordOrder(order types.Order) error {
	_, err := b.sq.
		Insert("orders").
		Columns(
			"order_id", "symbol", "side", "quantity", "price", "timestamp",
			"status", "reason", "message", "strategy_name", "fee", "position_type",
		).
		Values(
			order.OrderID, order.Symbol, string(order.Side), order.Quantity, order.Price, order.Timestamp,
			string(order.Status), order.Reason.Reason, order.Reason.Message, order.StrategyName, order.Fee,
			string(order.PositionType),
		).
		RunWith(b.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	return nil
}

// RecordTrade journals a closed round trip.
func (b *BacktestState) RecordTrade(trade types.Trade) error {
	_, err := b.sq.
		Insert("trades").
		Columns(
			"symbol", "position_type", "quantity", "entry_time", "exit_time",
			"entry_price", "exit_price", "fee", "pnl", "return_pct", "strategy_name",
		).
		Values(
			trade.Symbol, string(trade.PositionType), trade.Quantity, trade.EntryTime, trade.ExitTime,
			trade.EntryPrice, trade.ExitPrice, trade.Fee, trade.PnL, trade.ReturnPct, trade.StrategyName,
		).
		RunWith(b.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}

	return nil
}

// RecordEquityCurve journals the account value after every bar of a run. Points are written in
// one transaction as multi-row inserts of at most equityBatchSize rows, keeping their order.
func (b *BacktestState) RecordEquityCurve(points []types.EquityPoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin equity transaction: %w", err)
	}

	for start := 0; start < len(points); start += equityBatchSize {
		end := min(start+equityBatchSize, len(points))

		insert := b.sq.
			Insert("equity").
			Columns("time", "close", "cash", "equity", "short_ma", "long_ma", "in_position")

		for _, point := range points[start:end] {
			insert = insert.Values(
				point.Time, point.Close, point.Cash, point.Equity,
				nullable(point.ShortMA), nullable(point.LongMA), point.InPosition,
			)
		}

		if _, err := insert.RunWith(tx).Exec(); err != nil {
			tx.Rollback()

			return fmt.Errorf("failed to insert equity points %d-%d: %w", start, end-1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit equity points: %w", err)
	}

	return nil
}

// GetOrders returns every journaled order in insertion order, which is fill order.
func (b *BacktestState) GetOrders() ([]types.Order, error) {
	query, args, err := b.sq.
		Select(
			"order_id", "symbol", "side", "quantity", "price", "timestamp",
			"status", "reason", "message", "strategy_name", "fee", "position_type",
		).
		From("orders").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build orders query: %w", err)
	}

	rows, err := b.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]types.Order, 0)

	for rows.Next() {
		var (
			order                      types.Order
			side, status, positionType string
		)

		err := rows.Scan(
			&order.OrderID, &order.Symbol, &side, &order.Quantity, &order.Price, &order.Timestamp,
			&status, &order.Reason.Reason, &order.Reason.Message, &order.StrategyName, &order.Fee, &positionType,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}

		order.Side = types.PurchaseType(side)
		order.Status = types.OrderStatus(status)
		order.PositionType = types.PositionType(positionType)
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

// GetTrades returns every closed trade in the order it was closed.
func (b *BacktestState) GetTrades() ([]types.Trade, error) {
	query, args, err := b.sq.
		Select(
			"symbol", "position_type", "quantity", "entry_time", "exit_time",
			"entry_price", "exit_price", "fee", "pnl", "return_pct", "strategy_name",
		).
		From("trades").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build trades query: %w", err)
	}

	rows, err := b.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	trades := make([]types.Trade, 0)

	for rows.Next() {
		var (
			trade        types.Trade
			positionType string
		)

		err := rows.Scan(
			&trade.Symbol, &positionType, &trade.Quantity, &trade.EntryTime, &trade.ExitTime,
			&trade.EntryPrice, &trade.ExitPrice, &trade.Fee, &trade.PnL, &trade.ReturnPct, &trade.StrategyName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}

		trade.PositionType = types.PositionType(positionType)
		trades = append(trades, trade)
	}

	return trades, rows.Err()
}

// GetEquityCurve returns one point per processed bar.
func (b *BacktestState) GetEquityCurve() ([]types.EquityPoint, error) {
	query, args, err := b.sq.
		Select("time", "close", "cash", "equity", "short_ma", "long_ma", "in_position").
		From("equity").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build equity query: %w", err)
	}

	rows, err := b.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query equity: %w", err)
	}
	defer rows.Close()

	points := make([]types.EquityPoint, 0)

	for rows.Next() {
		var (
			point         types.EquityPoint
			shortMA, long sql.NullFloat64
		)

		err := rows.Scan(&point.Time, &point.Close, &point.Cash, &point.Equity, &shortMA, &long, &point.InPosition)
		if err != nil {
			return nil, fmt.Errorf("failed to scan equity point: %w", err)
		}

		point.ShortMA = fromNullable(shortMA)
		point.LongMA = fromNullable(long)
		points = append(points, point)
	}

	return points, rows.Err()
}

// Write exports orders, trades and the equity curve as CSV files into path.
func (b *BacktestState) Write(path string) (ResultFiles, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return ResultFiles{}, errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to create result directory", err)
	}

	files := ResultFiles{
		Orders: filepath.Join(path, ordersFileName),
		Trades: filepath.Join(path, tradesFileName),
		Equity: filepath.Join(path, equityFileName),
	}

	exports := []struct {
		table string
		path  string
	}{
		{"orders", files.Orders},
		{"trades", files.Trades},
		{"equity", files.Equity},
	}

	for _, export := range exports {
		// Squirrel has no COPY support.
		_, err := b.db.Exec(fmt.Sprintf(`COPY %s TO '%s' (HEADER, DELIMITER ',')`,
			export.table, strings.ReplaceAll(export.path, "'", "''")))
		if err != nil {
			return ResultFiles{}, errors.Wrapf(errors.ErrCodeBacktestWriteFailed, err, "failed to export %s", export.path)
		}
	}

	b.logger.Info("Exported backtest results",
		zap.String("orders", files.Orders),
		zap.String("trades", files.Trades),
		zap.String("equity", files.Equity),
	)

	return files, nil
}

// Cleanup drops all journaled rows so the state can be reused for another run.
func (b *BacktestState) Cleanup() error {
	// Squirrel doesn't have DROP syntax
	_, err := b.db.Exec(`
		DROP TABLE IF EXISTS orders;
		DROP TABLE IF EXISTS trades;
		DROP TABLE IF EXISTS equity;
	`)
	if err != nil {
		return fmt.Errorf("failed to cleanup tables: %w", err)
	}

	return b.Initialize()
}

func (b *BacktestState) Close() error {
	return b.db.Close()
}

func nullable(value optional.Option[float64]) any {
	if value.IsNone() {
		return nil
	}

	return value.Unwrap()
}

func fromNullable(value sql.NullFloat64) optional.Option[float64] {
	if !value.Valid {
		return optional.None[float64]()
	}

	return optional.Some(value.Float64)
}
