//go:build integration

package pgsql_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/property_ledger/internal/adapters/notify"
	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/property_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/property_ledger/internal/core/ports/services"
	"github.com/SscSPs/property_ledger/internal/core/services"
	"github.com/SscSPs/property_ledger/internal/dto"
	"github.com/SscSPs/property_ledger/internal/platform/config"
	"github.com/SscSPs/property_ledger/internal/repositories/database/pgsql"
	"github.com/SscSPs/property_ledger/pkg/database"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const migrationsPath = "file://../../../../migrations"

type LedgerIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *tcpostgres.PostgresContainer
	pool      *pgxpool.Pool
	logger    *slog.Logger

	repos    portsrepo.RepositoryProvider
	chart    domain.ChartOfAccounts
	services *portssvc.ServiceContainer
}

func (s *LedgerIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	container, err := tcpostgres.Run(s.ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("ledger_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	s.Require().NoError(err, "failed to start PostgreSQL container")
	s.container = container

	dsn, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.Require().NoError(database.RunMigrations(dsn, migrationsPath, s.logger))

	s.pool, err = database.NewPgxPool(s.ctx, dsn, true)
	s.Require().NoError(err)

	s.repos = pgsql.NewRepositoryProvider(s.pool)
	s.chart, err = services.BootstrapChart(s.ctx, s.repos.AccountRepo, domain.DefaultChart(), s.logger)
	s.Require().NoError(err)

	cfg := &config.Config{OutboxBatchSize: 10, OutboxPollInterval: time.Second, OutboxLeaseTimeout: time.Minute}
	s.services = services.NewServiceContainer(cfg, s.repos, s.chart, s.logger)
}

func (s *LedgerIntegrationSuite) TearDownSuite() {
	database.ClosePgxPool(s.pool, s.logger)
	if s.container != nil {
		if err := s.container.Terminate(s.ctx); err != nil {
			s.T().Logf("failed to terminate container: %v", err)
		}
	}
}

func (s *LedgerIntegrationSuite) seedCharge(table, chargeID, tenantID string, amount domain.Paisa) {
	now := time.Now().UTC()
	_, err := s.pool.Exec(s.ctx, `
		INSERT INTO `+table+` (charge_id, tenant_id, property_id, period_year, period_month, period_label,
			amount_paisa, due_date, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, 'prop-1', 2025, 3, 'March 2025', $3, $4, $5, 'seed', $5, 'seed');
	`, chargeID, tenantID, int64(amount), time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), now)
	s.Require().NoError(err)
}

func (s *LedgerIntegrationSuite) balance(code domain.AccountCode) domain.Paisa {
	acc, err := s.services.Ledger.GetAccount(s.ctx, code)
	s.Require().NoError(err)
	return acc.CurrentBalancePaisa
}

func (s *LedgerIntegrationSuite) TestBootstrapChartIsIdempotent() {
	again, err := services.BootstrapChart(s.ctx, s.repos.AccountRepo, domain.DefaultChart(), s.logger)
	s.Require().NoError(err)

	first, _ := s.chart.Lookup(domain.RoleCashBank)
	second, _ := again.Lookup(domain.RoleCashBank)
	s.Equal(first.AccountID, second.AccountID)
}

func (s *LedgerIntegrationSuite) TestAccrueThenPayRentAndCAM() {
	s.seedCharge("rents", "rent-int-1", "tenant-a", 4500000)
	s.seedCharge("cams", "cam-int-1", "tenant-a", 500000)

	cashBefore := s.balance("1000")
	arBefore := s.balance("1200")
	camIncomeBefore := s.balance("4100")

	_, err := s.services.Charge.AccrueCharge(s.ctx, domain.ChargeKindRent, "rent-int-1", "staff-1")
	s.Require().NoError(err)

	_, err = s.services.Charge.AccrueCharge(s.ctx, domain.ChargeKindRent, "rent-int-1", "staff-1")
	s.ErrorIs(err, apperrors.ErrDuplicate)

	result, err := s.services.Payment.CreatePayment(s.ctx, dto.CreatePaymentRequest{
		PaymentDate:   time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC),
		PaymentMethod: domain.PaymentBankTransfer,
		Rent:          &dto.RentAllocationRequest{RentID: "rent-int-1", AmountPaisa: 4500000},
		CAM:           &dto.CAMAllocationRequest{CAMID: "cam-int-1", PaidAmountPaisa: 500000},
	}, "staff-1", "")
	s.Require().NoError(err)
	s.Equal(domain.Paisa(5000000), result.Payment.AmountPaisa)
	s.Equal("tenant-a", result.Payment.TenantID)
	s.Len(result.Transactions, 2)

	s.Equal(cashBefore+5000000, s.balance("1000"))
	s.Equal(arBefore, s.balance("1200"))
	s.Equal(camIncomeBefore+500000, s.balance("4100"))

	rent, err := s.services.Charge.GetCharge(s.ctx, domain.ChargeKindRent, "rent-int-1")
	s.Require().NoError(err)
	s.Equal(domain.ChargePaid, rent.Status)
	s.Equal(domain.Paisa(0), rent.Outstanding())

	stored, err := s.services.Payment.GetPayment(s.ctx, result.Payment.PaymentID)
	s.Require().NoError(err)
	s.ElementsMatch([]string{result.Transactions[0].TransactionID, result.Transactions[1].TransactionID}, stored.TransactionIDs)

	txns, err := s.services.Ledger.ListTransactionsByReference(s.ctx, domain.PaymentRef(result.Payment.PaymentID))
	s.Require().NoError(err)
	s.Len(txns, 2)
	for _, header := range txns {
		txn, err := s.services.Ledger.GetTransaction(s.ctx, header.TransactionID)
		s.Require().NoError(err)
		var debit, credit domain.Paisa
		for _, e := range txn.Entries {
			debit += e.DebitPaisa
			credit += e.CreditPaisa
		}
		s.Equal(debit, credit, "transaction %s must balance", txn.TransactionID)
	}
}

func (s *LedgerIntegrationSuite) TestCancelAccruedChargeClearsReceivable() {
	s.seedCharge("rents", "rent-int-5", "tenant-e", 4500000)
	arBefore := s.balance("1200")
	incomeBefore := s.balance("4000")

	_, err := s.services.Charge.AccrueCharge(s.ctx, domain.ChargeKindRent, "rent-int-5", "staff-1")
	s.Require().NoError(err)
	s.Equal(arBefore+4500000, s.balance("1200"))

	charge, txn, err := s.services.Charge.CancelCharge(s.ctx, domain.ChargeKindRent, "rent-int-5", "lease terminated", "staff-1")
	s.Require().NoError(err)
	s.Equal(domain.ChargeCancelled, charge.Status)
	s.Require().NotNil(txn)
	s.Equal(domain.TxnAdjustment, txn.Type)

	s.Equal(arBefore, s.balance("1200"))
	s.Equal(incomeBefore, s.balance("4000"))

	_, err = s.services.Charge.AccrueCharge(s.ctx, domain.ChargeKindRent, "rent-int-5", "staff-1")
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *LedgerIntegrationSuite) TestDeactivateAccountOutsideChart() {
	now := time.Now().UTC()
	_, err := s.repos.AccountRepo.EnsureAccount(s.ctx, domain.Account{
		AccountID:   "acc-int-4900",
		Code:        "4900",
		Name:        "Old Parking Income",
		AccountType: domain.Revenue,
		IsActive:    true,
		AuditFields: domain.AuditFields{CreatedAt: now, CreatedBy: "seed", LastUpdatedAt: now, LastUpdatedBy: "seed"},
	})
	s.Require().NoError(err)

	acc, err := s.services.Ledger.DeactivateAccount(s.ctx, "4900", "admin-1")
	s.Require().NoError(err)
	s.False(acc.IsActive)

	stored, err := s.services.Ledger.GetAccount(s.ctx, "4900")
	s.Require().NoError(err)
	s.False(stored.IsActive)
	s.Equal("admin-1", stored.LastUpdatedBy)

	_, err = s.services.Ledger.DeactivateAccount(s.ctx, "1000", "admin-1")
	s.ErrorIs(err, apperrors.ErrConflict)
}

func (s *LedgerIntegrationSuite) TestOverpaymentRollsBackEverything() {
	s.seedCharge("rents", "rent-int-2", "tenant-b", 100000)
	cashBefore := s.balance("1000")

	_, err := s.services.Payment.CreatePayment(s.ctx, dto.CreatePaymentRequest{
		PaymentDate:   time.Now().UTC(),
		PaymentMethod: domain.PaymentCash,
		Rent:          &dto.RentAllocationRequest{RentID: "rent-int-2", AmountPaisa: 100001},
	}, "staff-1", "")
	s.ErrorIs(err, apperrors.ErrOverpayment)

	s.Equal(cashBefore, s.balance("1000"))
	rent, err := s.services.Charge.GetCharge(s.ctx, domain.ChargeKindRent, "rent-int-2")
	s.Require().NoError(err)
	s.Equal(domain.Paisa(0), rent.PaidAmountPaisa)
}

func (s *LedgerIntegrationSuite) TestConcurrentPaymentsNeverOverpay() {
	s.seedCharge("rents", "rent-int-3", "tenant-c", 300000)

	const workers = 4
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.services.Payment.CreatePayment(s.ctx, dto.CreatePaymentRequest{
				PaymentDate:   time.Now().UTC(),
				PaymentMethod: domain.PaymentCash,
				Rent:          &dto.RentAllocationRequest{RentID: "rent-int-3", AmountPaisa: 200000},
			}, "staff-1", "")
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			if !errors.Is(err, apperrors.ErrOverpayment) && !apperrors.IsRetryable(err) {
				s.T().Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	s.Equal(1, successes)
	rent, err := s.services.Charge.GetCharge(s.ctx, domain.ChargeKindRent, "rent-int-3")
	s.Require().NoError(err)
	s.Equal(domain.Paisa(200000), rent.PaidAmountPaisa)
}

func (s *LedgerIntegrationSuite) TestVoidPostsReversal() {
	depositBefore := s.balance("2100")

	txn, err := s.services.Ledger.PostExternalEvent(s.ctx, domain.ExternalMoneyEvent{
		Kind:        domain.RefSecurityDeposit,
		ReferenceID: "lease-int-1",
		AmountPaisa: 9000000,
		Date:        time.Now().UTC(),
	}, "staff-1")
	s.Require().NoError(err)
	s.Equal(depositBefore+9000000, s.balance("2100"))

	voided, err := s.services.Ledger.VoidTransaction(s.ctx, txn.TransactionID, "staff-2", "entered twice")
	s.Require().NoError(err)
	s.Equal(domain.TxnVoided, voided.Status)
	s.Require().NotNil(voided.ReversedByID)
	s.Equal(depositBefore, s.balance("2100"))

	_, err = s.services.Ledger.VoidTransaction(s.ctx, txn.TransactionID, "staff-2", "again")
	s.Error(err)
	_, err = s.services.Ledger.VoidTransaction(s.ctx, *voided.ReversedByID, "staff-2", "undo the undo")
	s.Error(err)
}

func (s *LedgerIntegrationSuite) TestListEntriesPages() {
	for i := 0; i < 3; i++ {
		_, err := s.services.Ledger.PostExternalEvent(s.ctx, domain.ExternalMoneyEvent{
			Kind:        domain.RefExpense,
			ReferenceID: "exp-page",
			AmountPaisa: domain.Paisa(1000 * (i + 1)),
			Date:        time.Date(2025, 4, 1+i, 0, 0, 0, 0, time.UTC),
		}, "staff-1")
		s.Require().NoError(err)
	}

	first, next, err := s.services.Ledger.ListEntriesByAccount(s.ctx, "5000", 2, nil)
	s.Require().NoError(err)
	s.Require().Len(first, 2)
	s.Require().NotNil(next)
	s.True(!first[0].TransactionDate.Before(first[1].TransactionDate))

	second, _, err := s.services.Ledger.ListEntriesByAccount(s.ctx, "5000", 2, next)
	s.Require().NoError(err)
	s.Require().NotEmpty(second)
	s.NotEqual(first[1].EntryID, second[0].EntryID)

	bad := "not-a-token"
	_, _, err = s.services.Ledger.ListEntriesByAccount(s.ctx, "5000", 2, &bad)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *LedgerIntegrationSuite) TestOutboxIssuesReceiptOnce() {
	s.seedCharge("rents", "rent-int-4", "tenant-d", 250000)
	result, err := s.services.Payment.CreatePayment(s.ctx, dto.CreatePaymentRequest{
		PaymentDate:   time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		PaymentMethod: domain.PaymentCheque,
		Rent:          &dto.RentAllocationRequest{RentID: "rent-int-4", AmountPaisa: 250000},
	}, "staff-1", "")
	s.Require().NoError(err)

	dispatcher := services.NewOutboxDispatcher(s.repos.OutboxRepo, services.OutboxDispatcherConfig{BatchSize: 100},
		s.logger, notify.NewReceiptIssuer(s.repos.PaymentRepo, nil, "RCPT", s.logger))
	_, err = dispatcher.DispatchOnce(s.ctx)
	s.Require().NoError(err)

	payment, err := s.services.Payment.GetPayment(s.ctx, result.Payment.PaymentID)
	s.Require().NoError(err)
	s.Require().NotNil(payment.Receipt)
	s.Equal(notify.ReceiptNumber("RCPT", payment.PaymentDate, payment.PaymentID), payment.Receipt.ReceiptNumber)

	err = s.repos.PaymentRepo.AttachReceipt(s.ctx, payment.PaymentID, domain.Receipt{ReceiptNumber: "OTHER", GeneratedAt: time.Now()})
	s.ErrorIs(err, apperrors.ErrDuplicate)
}

func TestLedgerIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
	suite.Run(t, new(LedgerIntegrationSuite))
}
