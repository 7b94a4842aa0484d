package ownership

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// newDecimal is a convenient factory for decimal.Decimal
func newDecimal[T float64 | int | int64 | decimal.Decimal](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	default:
		panic("unsupported type")
	}
}

// Share is a fraction of ownership between 0 and 1.
type Share struct {
	value decimal.Decimal
}

// S creates a share from a fraction, S(0.25) is a quarter.
func S[T float64 | int | int64 | decimal.Decimal](value T) Share {
	return Share{value: newDecimal(value)}
}

func (s Share) Mul(t Share) Share        { return Share{value: s.value.Mul(t.value)} }
func (s Share) Add(t Share) Share        { return Share{value: s.value.Add(t.value)} }
func (s Share) Equal(t Share) bool       { return s.value.Equal(t.value) }
func (s Share) GreaterThan(t Share) bool { return s.value.GreaterThan(t.value) }
func (s Share) IsZero() bool             { return s.value.IsZero() }
func (s Share) IsPositive() bool         { return s.value.IsPositive() }
func (s Share) IsWhole() bool            { return s.value.Equal(one) }
func (s Share) Percent() Percent         { return Percent{value: s.value.Mul(hundred)} }
func (s Share) Decimal() decimal.Decimal { return s.value }
func (s Share) String() string           { return s.Percent().String() }

// Percent is an ownership percentage, 100 meaning full ownership.
type Percent struct {
	value decimal.Decimal
}

// P creates a percentage, P(12.5) is 12.5%.
func P[T float64 | int | int64 | decimal.Decimal](value T) Percent {
	return Percent{value: newDecimal(value)}
}

// Equal compares percentages with a precision.
func (p Percent) Equal(q Percent) bool {
	const precision = 0.0001
	return p.value.Sub(q.value).Abs().LessThan(decimal.NewFromFloat(precision))
}

func (p Percent) Add(q Percent) Percent      { return Percent{value: p.value.Add(q.value)} }
func (p Percent) Sub(q Percent) Percent      { return Percent{value: p.value.Sub(q.value)} }
func (p Percent) Abs() Percent               { return Percent{value: p.value.Abs()} }
func (p Percent) Cmp(q Percent) int          { return p.value.Cmp(q.value) }
func (p Percent) GreaterThan(q Percent) bool { return p.value.GreaterThan(q.value) }
func (p Percent) LessThan(q Percent) bool    { return p.value.LessThan(q.value) }
func (p Percent) IsZero() bool               { return p.value.IsZero() }
func (p Percent) Share() Share               { return Share{value: p.value.Div(hundred)} }
func (p Percent) Decimal() decimal.Decimal   { return p.value }
func (p Percent) Float64() float64           { return p.value.InexactFloat64() }

// Round returns the percentage rounded to 'places' decimals.
func (p Percent) Round(places int32) Percent { return Percent{value: p.value.Round(places)} }

// String formats with two decimals and a percent sign.
func (p Percent) String() string {
	return fmt.Sprintf("%s%%", p.value.StringFixed(2))
}

// Fixed formats with two decimals, as written in output tables.
func (p Percent) Fixed() string { return p.value.StringFixed(2) }

func (p Percent) MarshalJSON() ([]byte, error) {
	return []byte(p.value.StringFixed(2)), nil
}

func (p *Percent) UnmarshalJSON(data []byte) error {
	return p.value.UnmarshalJSON(data)
}
