package domain

import "strings"

// TransactionType is the direction of a stock movement
type TransactionType string

const (
	TransactionIn  TransactionType = "in"
	TransactionOut TransactionType = "out"
)

// StockStatus is the replenishment verdict for a product
type StockStatus string

const (
	StockNeedsReorder StockStatus = "needs-reorder"
	StockSufficient   StockStatus = "sufficient"
)

var transactionTypes = map[string]TransactionType{
	"in":  TransactionIn,
	"out": TransactionOut,
}

// ParseTransactionType returns the transaction type for a given label (case-insensitive).
func ParseTransactionType(label string) (TransactionType, bool) {
	t, ok := transactionTypes[strings.ToLower(strings.TrimSpace(label))]

	return t, ok
}

// Apply returns the stock level after the movement is applied to current.
func (t TransactionType) Apply(current, quantity int) int {
	if t == TransactionIn {
		return current + quantity
	}

	return current - quantity
}
