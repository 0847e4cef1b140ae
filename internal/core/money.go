// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between cents and reais representations.
package core

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. Only ASCII digits and a single
// separator are accepted, with at least one digit. Zero is a valid amount: a zero
// contribution is recorded, not skipped. Returns an error for invalid formats
// or negative values.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil (rounds up)
//	ParseDecimalToCents("0") -> 0, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if !plainDecimal(s) {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	s = strings.TrimSuffix(s, ".")

	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return 0, ErrInvalidAmount
	}
	cents := d.Round(2).Shift(2).BigInt()
	if !cents.IsInt64() {
		return 0, ErrInvalidAmount
	}
	return cents.Int64(), nil
}

// plainDecimal reports whether s is ASCII digits with at most one dot and at
// least one digit.
func plainDecimal(s string) bool {
	digits, dots := 0, 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

// ParseMoney is ParseDecimalToCents wrapped into Money.
func ParseMoney(s string) (Money, error) {
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: cents}, nil
}

// Reais returns the value as a float64 for display and spreadsheet cells.
// Use cents for calculations.
func (m Money) Reais() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the amount with two decimals and a comma separator ("1234,50").
func (m Money) String() string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	frac := strconv.FormatInt(cents%100, 10)
	if len(frac) == 1 {
		frac = "0" + frac
	}
	return sign + strconv.FormatInt(cents/100, 10) + "," + frac
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// MarshalJSON encodes money as a decimal string ("150.00") so clients never see
// float rounding.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + strings.Replace(m.String(), ",", ".", 1) + `"`), nil
}

// UnmarshalJSON accepts either a decimal string or a JSON number.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return err
	}
	m.Cents = cents
	return nil
}
