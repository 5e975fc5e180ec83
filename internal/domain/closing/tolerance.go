package closing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultTolerance absorbs rounding in two-decimal currencies
var DefaultTolerance = decimal.New(1, -2)

// Tolerance is the currency-aware allowance for debit/credit differences
type Tolerance struct {
	Default     decimal.Decimal
	PerCurrency map[string]decimal.Decimal
}

// NewTolerance builds a tolerance policy; a negative default falls back to DefaultTolerance
func NewTolerance(def decimal.Decimal, perCurrency map[string]decimal.Decimal) Tolerance {
	if def.IsNegative() {
		def = DefaultTolerance
	}
	normalized := make(map[string]decimal.Decimal, len(perCurrency))
	for cur, v := range perCurrency {
		normalized[strings.ToUpper(cur)] = v
	}
	return Tolerance{Default: def, PerCurrency: normalized}
}

// For returns the tolerance applied to amounts in currency
func (t Tolerance) For(currency string) decimal.Decimal {
	if v, ok := t.PerCurrency[strings.ToUpper(currency)]; ok {
		return v
	}
	return t.Default
}

// Within reports whether |delta| is inside the tolerance of currency
func (t Tolerance) Within(delta decimal.Decimal, currency string) bool {
	return delta.Abs().LessThanOrEqual(t.For(currency))
}

// ParseCurrencyTolerances parses "IDR:1,JPY:1" style overrides
func ParseCurrencyTolerances(s string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		cur, amount, ok := strings.Cut(part, ":")
		cur = strings.ToUpper(strings.TrimSpace(cur))
		if !ok || len(cur) != 3 {
			return nil, fmt.Errorf("invalid currency tolerance %q: expected CUR:amount", part)
		}
		v, err := decimal.NewFromString(strings.TrimSpace(amount))
		if err != nil {
			return nil, fmt.Errorf("invalid currency tolerance %q: %w", part, err)
		}
		if v.IsNegative() {
			return nil, fmt.Errorf("invalid currency tolerance %q: must not be negative", part)
		}
		out[cur] = v
	}
	return out, nil
}
