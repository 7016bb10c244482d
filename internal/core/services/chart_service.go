package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/property_ledger/internal/core/ports/repositories"
	"github.com/google/uuid"
)

// SystemUserID is recorded as the author of startup seeding.
const SystemUserID = "system"

// BootstrapChart seeds any missing accounts from entries and resolves every
// role to its account. It is called once at startup; an error must stop the
// process, since no journal can be built without a complete chart.
func BootstrapChart(ctx context.Context, repo portsrepo.AccountRepositoryFacade, entries []domain.ChartEntry, logger *slog.Logger) (domain.ChartOfAccounts, error) {
	now := time.Now().UTC()
	codes := make([]domain.AccountCode, 0, len(entries))

	for _, e := range entries {
		codes = append(codes, e.Code)
		created, err := repo.EnsureAccount(ctx, domain.Account{
			AccountID:   uuid.NewString(),
			Code:        e.Code,
			Name:        e.Name,
			AccountType: e.AccountType,
			Description: e.Description,
			IsActive:    true,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     SystemUserID,
				LastUpdatedAt: now,
				LastUpdatedBy: SystemUserID,
			},
		})
		if err != nil {
			return domain.ChartOfAccounts{}, fmt.Errorf("failed to seed account %s: %w", e.Code, err)
		}
		if created {
			logger.Info("Seeded chart account", slog.String("code", string(e.Code)), slog.String("role", string(e.Role)))
		}
	}

	accounts, err := repo.FindAccountsByCodes(ctx, codes)
	if err != nil {
		return domain.ChartOfAccounts{}, fmt.Errorf("failed to load chart accounts: %w", err)
	}
	chart, err := domain.NewChartOfAccounts(entries, accounts)
	if err != nil {
		return domain.ChartOfAccounts{}, err
	}
	logger.Info("Chart of accounts resolved", slog.Int("roles", len(entries)))
	return chart, nil
}
