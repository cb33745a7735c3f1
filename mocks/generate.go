package mocks

//go:generate mockgen -destination=./mock_trading.go -package=mocks github.com/rxtech-lab/argo-crossover/internal/trading ExecutionEngine
//go:generate mockgen -destination=./mock_datasource.go -package=mocks github.com/rxtech-lab/argo-crossover/internal/backtest/engine/engine_v1/datasource DataSource
//go:generate mockgen -destination=./mock_strategy.go -package=mocks github.com/rxtech-lab/argo-crossover/internal/strategy Strategy
