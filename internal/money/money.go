// Package money provides the fixed-point amount type used for every
// balance, transaction, and ledger amount in the system. Amounts carry
// two decimal places; binary floating point never touches a stored value.
package money

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const Scale = 2

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("amount has too many decimal places")
)

// Money is an immutable fixed-point decimal amount at Scale decimal places.
// The zero value is 0.00.
type Money struct {
	dec decimal.Decimal
}

var Zero = Money{}

// Parse reads a decimal string such as "100", "0.5", or "-12.34".
// Inputs with more than Scale fractional digits are rejected rather than
// rounded: the caller presented an amount the system cannot represent.
func Parse(input string) (Money, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Money{}, ErrInvalidAmount
	}
	dec, err := decimal.NewFromString(trimmed)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if !dec.Equal(dec.Truncate(Scale)) {
		return Money{}, ErrTooManyDecimals
	}
	return Money{dec: dec.Round(Scale)}, nil
}

// FromDecimal re-quantizes an arbitrary-precision value, such as a
// currency-conversion result, into a Money using bankers rounding.
func FromDecimal(dec decimal.Decimal) Money {
	return Money{dec: dec.RoundBank(Scale)}
}

// FromMinor builds a Money from an integer count of minor units (kobo).
func FromMinor(minor int64) Money {
	return Money{dec: decimal.New(minor, -Scale)}
}

func (m Money) Add(other Money) Money {
	return Money{dec: m.dec.Add(other.dec)}
}

func (m Money) Sub(other Money) Money {
	return Money{dec: m.dec.Sub(other.dec)}
}

// Cmp returns -1, 0, or 1 as m is less than, equal to, or greater than other.
func (m Money) Cmp(other Money) int {
	return m.dec.Cmp(other.dec)
}

func (m Money) LessThan(other Money) bool {
	return m.dec.Cmp(other.dec) < 0
}

func (m Money) Equal(other Money) bool {
	return m.dec.Cmp(other.dec) == 0
}

func (m Money) IsPositive() bool {
	return m.dec.Sign() > 0
}

func (m Money) IsNegative() bool {
	return m.dec.Sign() < 0
}

func (m Money) IsZero() bool {
	return m.dec.Sign() == 0
}

// Decimal exposes the underlying value for rate arithmetic. Results must
// come back through FromDecimal before being stored or compared.
func (m Money) Decimal() decimal.Decimal {
	return m.dec
}

// String formats the amount with exactly Scale decimal places, e.g. "100.00".
func (m Money) String() string {
	return m.dec.StringFixed(Scale)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value implements driver.Valuer; amounts are stored as NUMERIC(20,2).
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan implements sql.Scanner for NUMERIC columns.
func (m *Money) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = Zero
		return nil
	case []byte:
		return m.scanString(string(v))
	case string:
		return m.scanString(v)
	case int64:
		*m = Money{dec: decimal.NewFromInt(v)}
		return nil
	case float64:
		*m = FromDecimal(decimal.NewFromFloat(v))
		return nil
	default:
		return fmt.Errorf("money: cannot scan %T", src)
	}
}

func (m *Money) scanString(raw string) error {
	dec, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("money: cannot scan %q: %w", raw, err)
	}
	*m = Money{dec: dec.Round(Scale)}
	return nil
}
