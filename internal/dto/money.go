package dto

import (
	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Amount is the wire shape of money: the stored paisa plus derived rupee
// fields for display. Clients must never send the rupee fields back.
type Amount struct {
	Paisa     domain.Paisa    `json:"paisa"`
	Rupees    decimal.Decimal `json:"rupees"`
	Formatted string          `json:"formatted"`
}

// NewAmount derives the display fields from p.
func NewAmount(p domain.Paisa) Amount {
	return Amount{Paisa: p, Rupees: p.ToMajorUnits(), Formatted: p.FormatRupees()}
}
