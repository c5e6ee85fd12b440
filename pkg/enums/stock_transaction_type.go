package enums

import "fmt"

// StockTransactionType categorizes a ledger entry by its signed effect.
// Increase kinds add stock, decrease kinds remove it, and adjustment sets
// the balance to an exact target while recording the delta applied.
type StockTransactionType string

const (
	StockTransactionPurchase   StockTransactionType = "purchase"
	StockTransactionReturn     StockTransactionType = "return"
	StockTransactionUsage      StockTransactionType = "usage"
	StockTransactionWaste      StockTransactionType = "waste"
	StockTransactionAdjustment StockTransactionType = "adjustment"
)

var validStockTransactionTypes = []StockTransactionType{
	StockTransactionPurchase,
	StockTransactionReturn,
	StockTransactionUsage,
	StockTransactionWaste,
	StockTransactionAdjustment,
}

// String implements fmt.Stringer.
func (s StockTransactionType) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StockTransactionType.
func (s StockTransactionType) IsValid() bool {
	for _, candidate := range validStockTransactionTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// Increases reports whether the kind adds stock.
func (s StockTransactionType) Increases() bool {
	return s == StockTransactionPurchase || s == StockTransactionReturn
}

// Decreases reports whether the kind removes stock.
func (s StockTransactionType) Decreases() bool {
	return s == StockTransactionUsage || s == StockTransactionWaste
}

// IsAdjustment reports whether the kind sets the balance to an exact target.
func (s StockTransactionType) IsAdjustment() bool {
	return s == StockTransactionAdjustment
}

// ParseStockTransactionType converts raw input into a StockTransactionType.
func ParseStockTransactionType(value string) (StockTransactionType, error) {
	for _, candidate := range validStockTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock transaction type %q", value)
}
