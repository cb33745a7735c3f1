package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
)

type PurchaseType string

type OrderStatus string

type PositionType string

const (
	OrderStatusFilled   OrderStatus = "FILLED"
	OrderStatusRejected OrderStatus = "REJECTED"
)

const (
	PositionTypeLong  PositionType = "LONG"
	PositionTypeShort PositionType = "SHORT"
)

const (
	PurchaseTypeBuy  PurchaseType = "BUY"
	PurchaseTypeSell PurchaseType = "SELL"
)

const (
	OrderReasonStrategy              string = "strategy"
	OrderReasonClosePosition         string = "close_position"
	OrderReasonEndOfData             string = "end_of_data"
	OrderReasonInsufficientBuyPower  string = "insufficient_buying_power"
	OrderReasonInsufficientSellPower string = "insufficient_selling_power"
)

type Reason struct {
	Reason  string `yaml:"reason" json:"reason" csv:"reason" validate:"required"`
	Message string `yaml:"message" json:"message" csv:"message"`
}

// Order is a market order filled, or rejected, at the close of the bar that produced it.
type Order struct {
	OrderID   string       `yaml:"order_id" json:"order_id" csv:"order_id" validate:"required,uuid"`
	Symbol    string       `yaml:"symbol" json:"symbol" csv:"symbol" validate:"required"`
	Side      PurchaseType `yaml:"side" json:"side" csv:"side" validate:"required,oneof=BUY SELL"`
	Quantity  float64      `yaml:"quantity" json:"quantity" csv:"quantity" validate:"gte=0"`
	Price     float64      `yaml:"price" json:"price" csv:"price" validate:"required,gt=0"`
	Timestamp time.Time    `yaml:"timestamp" json:"timestamp" csv:"timestamp" validate:"required"`
	// Status is FILLED or REJECTED
	Status OrderStatus `yaml:"status" json:"status" csv:"status" validate:"required,oneof=FILLED REJECTED"`
	// Reason is why the order was created, e.g. "strategy" or "close_position"
	Reason       Reason       `yaml:"reason" json:"reason" csv:"reason" validate:"required"`
	StrategyName string       `yaml:"strategy_name" json:"strategy_name" csv:"strategy_name" validate:"required"`
	Fee          float64      `yaml:"fee" json:"fee" csv:"fee" validate:"gte=0"`
	PositionType PositionType `yaml:"position_type" json:"position_type" csv:"position_type" validate:"required,oneof=LONG SHORT"`
}

// Validate validates the Order struct.
func (o *Order) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order", err)
	}

	return nil
}
