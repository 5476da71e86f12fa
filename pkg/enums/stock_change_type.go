package enums

import "fmt"

// StockChangeType labels the event that moved an item's stock level.
type StockChangeType string

const (
	StockChangeTypeRestock    StockChangeType = "restock"
	StockChangeTypeSale       StockChangeType = "sale"
	StockChangeTypeAdjustment StockChangeType = "adjustment"
)

var validStockChangeTypes = []StockChangeType{
	StockChangeTypeRestock,
	StockChangeTypeSale,
	StockChangeTypeAdjustment,
}

// String implements fmt.Stringer.
func (s StockChangeType) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StockChangeType.
func (s StockChangeType) IsValid() bool {
	for _, candidate := range validStockChangeTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStockChangeType converts raw input into a StockChangeType.
func ParseStockChangeType(value string) (StockChangeType, error) {
	for _, candidate := range validStockChangeTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock change type %q", value)
}
