package models

import (
	"database/sql"
	"time"
)

// Charge is a row of the rents or cams table. Units holds the per-unit
// breakdown as JSONB.
type Charge struct {
	ChargeID         string       `db:"charge_id"`
	TenantID         string       `db:"tenant_id"`
	PropertyID       string       `db:"property_id"`
	PeriodYear       int          `db:"period_year"`
	PeriodMonth      int          `db:"period_month"`
	PeriodLabel      string       `db:"period_label"`
	AmountPaisa      int64        `db:"amount_paisa"`
	PaidAmountPaisa  int64        `db:"paid_amount_paisa"`
	AdjustmentsPaisa int64        `db:"adjustments_paisa"`
	Status           string       `db:"status"`
	DueDate          time.Time    `db:"due_date"`
	PaidDate         sql.NullTime `db:"paid_date"`
	LastPaidBy       string       `db:"last_paid_by"`
	Units            []byte       `db:"units"`
	Version          int64        `db:"version"`
	AuditFields
}
