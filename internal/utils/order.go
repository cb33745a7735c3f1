package utils

import (
	"math"

	"github.com/rxtech-lab/argo-crossover/internal/backtest/engine/engine_v1/commission_fee"
)

// CalculateMaxQuantity calculates the maximum quantity whose cost plus commission fits in balance.
func CalculateMaxQuantity(balance float64, price float64, commissionFee commission_fee.CommissionFee) float64 {
	// Handle edge cases
	if price <= 0 || balance <= 0 || math.IsNaN(balance) || math.IsInf(balance, 0) {
		return 0
	}

	// Initial rough estimate (ignoring fees)
	maxQty := balance / price

	// Iteratively refine by accounting for fees
	for i := 0; i < 10; i++ {
		totalCost := maxQty*price + commissionFee.Calculate(maxQty, price)
		if totalCost <= balance {
			break
		}
		// Adjust quantity down proportionally
		adjustment := balance / totalCost
		maxQty = maxQty * adjustment
	}

	return maxQty
}

// RoundToDecimalPrecision rounds the quantity down to the specified decimal precision.
func RoundToDecimalPrecision(quantity float64, decimalPrecision int) float64 {
	multiplier := math.Pow10(decimalPrecision)

	return math.Floor(quantity*multiplier) / multiplier
}

// CalculateOrderQuantityByPercentage calculates the quantity of an order by the given percentage of the balance.
func CalculateOrderQuantityByPercentage(balance float64, price float64, commissionFee commission_fee.CommissionFee, percentage float64) float64 {
	quantity := balance * percentage

	return CalculateMaxQuantity(quantity, price, commissionFee)
}

// SizeOrder returns the quantity to enter with: percentage of balance, net of commission,
// floored to decimalPrecision places.
func SizeOrder(balance float64, price float64, commissionFee commission_fee.CommissionFee, percentage float64, decimalPrecision int) float64 {
	quantity := CalculateOrderQuantityByPercentage(balance, price, commissionFee, percentage)

	return RoundToDecimalPrecision(quantity, decimalPrecision)
}
