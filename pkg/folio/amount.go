package folio

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Fixed scales for persisted values. Quantities keep 8 fractional digits,
// prices and money keep 2.
const (
	QuantityScale     int32 = 8
	PriceScale        int32 = 2
	divisionPrecision int32 = 16
	percentScale      int32 = 4
)

// Integer digits allowed ahead of the fixed scale: DECIMAL(18,8) for
// quantities and DECIMAL(18,2) for prices.
const (
	maxQuantityIntegerDigits = 10
	maxPriceIntegerDigits    = 16
	maxInputFractionDigits   = 30
	maxAmountExponent        = 64
)

var hundred = decimal.NewFromInt(100)

var errAmountOutOfRange = errors.New("amount out of range")

// Amount wraps decimal.Decimal for quantities and monetary values.
// JSON marshaling outputs a plain JSON number; all arithmetic stays decimal.
type Amount struct {
	decimal.Decimal
}

// MarshalJSON outputs the exact decimal as a JSON number (not a string).
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

// UnmarshalJSON accepts both JSON numbers and quoted strings. Exponents far
// outside any storable value are rejected before anything rescales them.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	if exp := d.Exponent(); exp > maxAmountExponent || exp < -maxAmountExponent {
		return errAmountOutOfRange
	}
	a.Decimal = d
	return nil
}

// Scan implements sql.Scanner. Amounts are stored as canonical decimal text.
func (a *Amount) Scan(src any) error {
	if src == nil {
		a.Decimal = decimal.Zero
		return nil
	}
	switch v := src.(type) {
	case string:
		return a.parse(v)
	case []byte:
		return a.parse(string(v))
	case float64:
		a.Decimal = decimal.NewFromFloat(v)
		return nil
	case int64:
		a.Decimal = decimal.NewFromInt(v)
		return nil
	}
	return a.Decimal.Scan(src)
}

func (a *Amount) parse(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("parse amount %q: %w", s, err)
	}
	a.Decimal = d
	return nil
}

// Value implements driver.Valuer for database writes.
func (a Amount) Value() (driver.Value, error) {
	return a.Decimal.String(), nil
}

// NewAmountFromInt creates an Amount from an int64.
func NewAmountFromInt(i int64) Amount {
	return Amount{decimal.NewFromInt(i)}
}

// NewAmountFromString parses a decimal string such as "12.5".
func NewAmountFromString(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return Amount{d}, nil
}

// MustAmount parses s and panics on malformed input. Intended for constants and tests.
func MustAmount(s string) Amount {
	a, err := NewAmountFromString(s)
	if err != nil {
		panic(err)
	}
	return a
}

func amountOf(d decimal.Decimal) Amount {
	return Amount{d}
}

func amountPtr(v Amount) *Amount {
	return &v
}

// fits reports whether a has at most intDigits digits before the decimal
// point and few enough fractional digits to round cheaply. It only inspects
// the exponent and coefficient, never rescales.
func (a Amount) fits(intDigits int) bool {
	exp := int(a.Exponent())
	if exp < -maxInputFractionDigits || exp > intDigits {
		return false
	}
	if a.IsZero() {
		return true
	}
	return a.NumDigits()+exp <= intDigits
}

func checkQuantity(field string, a Amount) error {
	if !a.fits(maxQuantityIntegerDigits) {
		return validationError("%s is out of range", field)
	}
	return nil
}

func checkPrice(field string, a Amount) error {
	if !a.fits(maxPriceIntegerDigits) {
		return validationError("%s is out of range", field)
	}
	return nil
}

// asQuantity rounds to the persisted quantity scale.
func (a Amount) asQuantity() Amount {
	return Amount{a.Round(QuantityScale)}
}

// asPrice rounds to the persisted price scale.
func (a Amount) asPrice() Amount {
	return Amount{a.Round(PriceScale)}
}

// scanNullAmount converts a nullable text column into a *Amount.
func scanNullAmount(ns sql.NullString) (*Amount, error) {
	if !ns.Valid {
		return nil, nil
	}
	var a Amount
	if err := a.parse(ns.String); err != nil {
		return nil, err
	}
	return &a, nil
}

func nullAmount(a *Amount) sql.NullString {
	if a == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: a.Decimal.String(), Valid: true}
}
