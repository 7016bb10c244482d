package domain

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/shopspring/decimal"
)

// Paisa is an amount of money in minor currency units (1 rupee = 100 paisa).
// All stored and computed amounts use Paisa; rupee values exist only for display.
type Paisa int64

const paisaPerRupee = 100

var hundred = decimal.NewFromInt(paisaPerRupee)

// Add returns p+o, failing on int64 overflow.
func (p Paisa) Add(o Paisa) (Paisa, error) {
	if (o > 0 && p > math.MaxInt64-o) || (o < 0 && p < math.MinInt64-o) {
		return 0, fmt.Errorf("%w: paisa addition overflows", apperrors.ErrValidation)
	}
	return p + o, nil
}

// Sub returns p-o. Going below zero is an error; use SubSigned for ledger math
// where negative balances are legitimate.
func (p Paisa) Sub(o Paisa) (Paisa, error) {
	if o > p {
		return 0, fmt.Errorf("%w: %d - %d", apperrors.ErrNegativeResult, p, o)
	}
	return p - o, nil
}

// SubSigned returns p-o and may be negative.
func (p Paisa) SubSigned(o Paisa) Paisa {
	return p - o
}

func (p Paisa) IsPositive() bool { return p > 0 }

// ToMajorUnits converts to rupees. The result is exact and for display only.
func (p Paisa) ToMajorUnits() decimal.Decimal {
	return decimal.NewFromInt(int64(p)).Div(hundred)
}

// FormatRupees renders the amount as "Rs 45,000.00".
func (p Paisa) FormatRupees() string {
	major := p.ToMajorUnits()
	sign := ""
	if major.IsNegative() {
		sign = "-"
		major = major.Abs()
	}
	fixed := major.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")
	return fmt.Sprintf("Rs %s%s.%s", sign, groupThousands(intPart), frac)
}

func (p Paisa) String() string {
	return p.ToMajorUnits().StringFixed(2)
}

// FromMajorUnits converts a rupee value to paisa as round(major*100), rounding
// half away from zero. Negative values are rejected.
func FromMajorUnits(major decimal.Decimal) (Paisa, error) {
	if major.IsNegative() {
		return 0, apperrors.NewValidationError("amount %s must not be negative", major.String())
	}
	minor := major.Mul(hundred).Round(0)
	if !minor.BigInt().IsInt64() {
		return 0, apperrors.NewValidationError("amount %s is out of range", major.String())
	}
	return Paisa(minor.IntPart()), nil
}

// ParseMajorUnits parses a rupee string such as "45000.50".
func ParseMajorUnits(s string) (Paisa, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, apperrors.NewValidationError("invalid amount %q", s)
	}
	return FromMajorUnits(d)
}

// PaisaFromFloat accepts a float that must hold an exact whole number of paisa.
func PaisaFromFloat(v float64) (Paisa, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, fmt.Errorf("%w: got %v", apperrors.ErrNonIntegerAmount, v)
	}
	if v >= math.MaxInt64 || v < math.MinInt64 {
		return 0, apperrors.NewValidationError("amount %v is out of range", v)
	}
	return Paisa(int64(v)), nil
}

// UnmarshalJSON accepts only integral JSON numbers, so 1500.5 paisa fails
// instead of being truncated.
func (p *Paisa) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("%w: %s is not a number", apperrors.ErrValidation, string(data))
	}
	if !d.IsInteger() {
		return fmt.Errorf("%w: got %s", apperrors.ErrNonIntegerAmount, d.String())
	}
	if !d.BigInt().IsInt64() {
		return apperrors.NewValidationError("amount %s is out of range", d.String())
	}
	*p = Paisa(d.IntPart())
	return nil
}

// SumPaisa adds amounts, failing on overflow.
func SumPaisa(amounts ...Paisa) (Paisa, error) {
	var total Paisa
	for _, a := range amounts {
		var err error
		if total, err = total.Add(a); err != nil {
			return 0, err
		}
	}
	return total, nil
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
