package folio

import "github.com/shopspring/decimal"

// HoldingState is the part of a holding the cost-basis engine reads and writes.
type HoldingState struct {
	Quantity     Amount
	AveragePrice Amount
}

// ParseTransactionType accepts "buy" or "sell".
func ParseTransactionType(value string) (TransactionType, error) {
	switch TransactionType(value) {
	case TransactionTypeBuy, TransactionTypeSell:
		return TransactionType(value), nil
	}
	return "", validationError(`Transaction type must be "buy" or "sell"`)
}

// ApplyTransaction computes the holding state after a buy or sell.
//
// Buys fold the new units into a quantity-weighted moving average. Sells
// reduce quantity and never touch the average of the remaining units; a sell
// larger than the held quantity fails with ErrCodeInsufficientQuantity.
// The function is pure: it neither reads nor writes storage, and it does
// not set the holding's current price.
func ApplyTransaction(h HoldingState, txType TransactionType, quantity, price Amount) (HoldingState, error) {
	if err := checkQuantity("Quantity", quantity); err != nil {
		return h, err
	}
	if err := checkPrice("Price per unit", price); err != nil {
		return h, err
	}
	quantity = quantity.asQuantity()
	price = price.asPrice()

	if !quantity.IsPositive() {
		return h, validationError("Quantity must be positive")
	}
	if price.IsNegative() {
		return h, validationError("Price per unit must be non-negative")
	}
	if h.Quantity.IsNegative() {
		return h, validationError("Holding quantity is negative")
	}

	switch txType {
	case TransactionTypeBuy:
		newQty := h.Quantity.Add(quantity.Decimal)
		newAvg := decimal.Zero
		if newQty.IsPositive() {
			cost := h.Quantity.Mul(h.AveragePrice.Decimal).Add(quantity.Mul(price.Decimal))
			newAvg = cost.DivRound(newQty, divisionPrecision)
		}
		return HoldingState{
			Quantity:     amountOf(newQty).asQuantity(),
			AveragePrice: amountOf(newAvg).asPrice(),
		}, nil
	case TransactionTypeSell:
		if quantity.GreaterThan(h.Quantity.Decimal) {
			return h, newInsufficientQuantity(h.Quantity, quantity)
		}
		return HoldingState{
			Quantity:     amountOf(h.Quantity.Sub(quantity.Decimal)).asQuantity(),
			AveragePrice: h.AveragePrice,
		}, nil
	}
	return h, validationError(`Transaction type must be "buy" or "sell"`)
}
