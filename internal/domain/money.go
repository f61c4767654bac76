package domain

import (
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits every amount carries.
const MoneyScale = 4

// Money is a fixed-point currency amount with exactly four fractional
// digits. All balance and commission arithmetic goes through this type;
// binary floating point is never used.
type Money struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{}

// NewMoney builds a Money from a decimal, rounding half-up at the
// fourth fractional digit.
func NewMoney(d decimal.Decimal) Money {
	return Money{d: d.Round(MoneyScale)}
}

// NewMoneyFromString parses a decimal string into a Money.
func NewMoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}

	return NewMoney(d), nil
}

// NewMoneyFromInt builds a Money from whole units.
func NewMoneyFromInt(n int64) Money {
	return Money{d: decimal.New(n, 0)}
}

// MustMoney parses a decimal string and panics on failure. Test and
// fixture helper.
func MustMoney(s string) Money {
	m, err := NewMoneyFromString(s)
	if err != nil {
		panic(err)
	}

	return m
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{d: m.d.Add(o.d)}
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return Money{d: m.d.Sub(o.d)}
}

// MulRate multiplies by a rational rate and rounds half-up at the
// fourth fractional digit.
func (m Money) MulRate(rate decimal.Decimal) Money {
	return Money{d: m.d.Mul(rate).Round(MoneyScale)}
}

// Cmp compares two amounts: -1 if m < o, 0 if equal, 1 if m > o.
func (m Money) Cmp(o Money) int {
	return m.d.Cmp(o.d)
}

// Equal reports whether the amounts are numerically equal.
func (m Money) Equal(o Money) bool {
	return m.d.Equal(o.d)
}

// LessThan reports m < o.
func (m Money) LessThan(o Money) bool {
	return m.d.LessThan(o.d)
}

// GreaterThanOrEqual reports m >= o.
func (m Money) GreaterThanOrEqual(o Money) bool {
	return m.d.GreaterThanOrEqual(o.d)
}

// IsPositive reports m > 0.
func (m Money) IsPositive() bool {
	return m.d.IsPositive()
}

// IsNegative reports m < 0.
func (m Money) IsNegative() bool {
	return m.d.IsNegative()
}

// IsZero reports m == 0.
func (m Money) IsZero() bool {
	return m.d.IsZero()
}

// Decimal returns the underlying decimal value.
func (m Money) Decimal() decimal.Decimal {
	return m.d
}

// String renders the amount with all four fractional digits.
func (m Money) String() string {
	return m.d.StringFixed(MoneyScale)
}

// MarshalJSON renders the amount as a decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return m.d.MarshalJSON()
}

// UnmarshalJSON accepts a JSON number or decimal string and rounds it
// to the money scale.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}

	m.d = d.Round(MoneyScale)

	return nil
}
