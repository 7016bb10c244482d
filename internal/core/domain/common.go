package domain

import "time"

// AuditFields holds standard audit information for domain entities.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"` // staff user id from the identity context
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
}

// Period is the reporting period a ledger entry is filed under.
type Period struct {
	Year  int
	Month int
	Label string
}

// PeriodResolver maps a transaction date to its reporting period. The
// property calendar (Bikram Sambat) is provided by an external resolver.
type PeriodResolver interface {
	Resolve(t time.Time) Period
}

// GregorianPeriods resolves periods on the Gregorian calendar.
type GregorianPeriods struct{}

func (GregorianPeriods) Resolve(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month()), Label: t.Format("2006-01")}
}
