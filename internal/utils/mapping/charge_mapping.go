package mapping

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/SscSPs/property_ledger/internal/models"
)

// ToModelCharge converts a domain Charge to its row, encoding the unit breakdown.
func ToModelCharge(d domain.Charge) (models.Charge, error) {
	m := models.Charge{
		ChargeID:         d.ChargeID,
		TenantID:         d.TenantID,
		PropertyID:       d.PropertyID,
		PeriodYear:       d.PeriodYear,
		PeriodMonth:      d.PeriodMonth,
		PeriodLabel:      d.PeriodLabel,
		AmountPaisa:      int64(d.AmountPaisa),
		PaidAmountPaisa:  int64(d.PaidAmountPaisa),
		AdjustmentsPaisa: int64(d.AdjustmentsPaisa),
		Status:           string(d.Status),
		DueDate:          d.DueDate,
		LastPaidBy:       d.LastPaidBy,
		Version:          d.Version,
		AuditFields:      ToModelAuditFields(d.AuditFields),
	}
	if d.PaidDate != nil {
		m.PaidDate = sql.NullTime{Time: *d.PaidDate, Valid: true}
	}
	units := d.Units
	if units == nil {
		units = []domain.ChargeUnit{}
	}
	raw, err := json.Marshal(units)
	if err != nil {
		return models.Charge{}, fmt.Errorf("encode units of %s %s: %w", d.Kind, d.ChargeID, err)
	}
	m.Units = raw
	return m, nil
}

// ToDomainCharge converts a rents or cams row to a domain Charge of kind.
func ToDomainCharge(kind domain.ChargeKind, m models.Charge) (domain.Charge, error) {
	d := domain.Charge{
		ChargeID:         m.ChargeID,
		Kind:             kind,
		TenantID:         m.TenantID,
		PropertyID:       m.PropertyID,
		PeriodYear:       m.PeriodYear,
		PeriodMonth:      m.PeriodMonth,
		PeriodLabel:      m.PeriodLabel,
		AmountPaisa:      domain.Paisa(m.AmountPaisa),
		PaidAmountPaisa:  domain.Paisa(m.PaidAmountPaisa),
		AdjustmentsPaisa: domain.Paisa(m.AdjustmentsPaisa),
		Status:           domain.ChargeStatus(m.Status),
		DueDate:          m.DueDate,
		LastPaidBy:       m.LastPaidBy,
		Version:          m.Version,
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
	if m.PaidDate.Valid {
		t := m.PaidDate.Time
		d.PaidDate = &t
	}
	if len(m.Units) > 0 {
		if err := json.Unmarshal(m.Units, &d.Units); err != nil {
			return domain.Charge{}, fmt.Errorf("decode units of %s %s: %w", kind, m.ChargeID, err)
		}
		if len(d.Units) == 0 {
			d.Units = nil
		}
	}
	return d, nil
}
