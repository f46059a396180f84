package shared

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value stored as NUMERIC(12,2). It scans from and
// encodes to PostgreSQL through the embedded decimal and renders in JSON as
// a string with two fractional digits.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps d.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

// AmountFromFloat converts a decoded request value, rounded to cents.
func AmountFromFloat(f float64) Amount {
	return Amount{Decimal: decimal.NewFromFloat(f).Round(2)}
}

// MarshalJSON renders the amount as "12.50".
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.StringFixed(2))
}
