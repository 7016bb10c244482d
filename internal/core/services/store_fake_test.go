package services_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/property_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
)

// memTx stands in for a pgx.Tx; the store never calls its methods.
type memTx struct {
	pgx.Tx
	done bool
}

type memSnapshot struct {
	accounts map[string]domain.Account
	txns     map[string]domain.Transaction
	entries  map[string][]domain.LedgerEntry
	charges  map[string]domain.Charge
	payments map[string]domain.Payment
	outbox   []domain.OutboxEvent
}

// memStore is an in-memory, transactional implementation of every repository
// port. Units of work are serialised and rolled back by snapshot restore.
type memStore struct {
	txMu   sync.Mutex
	dataMu sync.Mutex
	memSnapshot
	snapshot *memSnapshot

	// failSaveTxnType makes SaveTransactionInTx fail for that transaction type.
	failSaveTxnType domain.TransactionType
	failEnqueue     error
	commits         int
	rollbacks       int
}

var (
	_ portsrepo.TransactionManager      = (*memStore)(nil)
	_ portsrepo.AccountRepositoryFacade = (*memStore)(nil)
	_ portsrepo.LedgerRepositoryFacade  = (*memStore)(nil)
	_ portsrepo.ChargeRepositoryFacade  = (*memStore)(nil)
	_ portsrepo.PaymentRepositoryFacade = (*memStore)(nil)
	_ portsrepo.OutboxRepository        = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{memSnapshot: memSnapshot{
		accounts: map[string]domain.Account{},
		txns:     map[string]domain.Transaction{},
		entries:  map[string][]domain.LedgerEntry{},
		charges:  map[string]domain.Charge{},
		payments: map[string]domain.Payment{},
	}}
}

func (s *memSnapshot) clone() *memSnapshot {
	c := &memSnapshot{
		accounts: make(map[string]domain.Account, len(s.accounts)),
		txns:     make(map[string]domain.Transaction, len(s.txns)),
		entries:  make(map[string][]domain.LedgerEntry, len(s.entries)),
		charges:  make(map[string]domain.Charge, len(s.charges)),
		payments: make(map[string]domain.Payment, len(s.payments)),
		outbox:   append([]domain.OutboxEvent(nil), s.outbox...),
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.txns {
		c.txns[k] = v
	}
	for k, v := range s.entries {
		c.entries[k] = append([]domain.LedgerEntry(nil), v...)
	}
	for k, v := range s.charges {
		v.Units = append([]domain.ChargeUnit(nil), v.Units...)
		c.charges[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	return c
}

func chargeKey(kind domain.ChargeKind, id string) string { return string(kind) + "/" + id }

// seedChart inserts the default chart and returns it resolved.
func (s *memStore) seedChart() domain.ChartOfAccounts {
	byCode := map[domain.AccountCode]domain.Account{}
	for _, e := range domain.DefaultChart() {
		acc := domain.Account{
			AccountID:   "acc-" + string(e.Code),
			Code:        e.Code,
			Name:        e.Name,
			AccountType: e.AccountType,
			IsActive:    true,
		}
		s.accounts[acc.AccountID] = acc
		byCode[e.Code] = acc
	}
	chart, err := domain.NewChartOfAccounts(domain.DefaultChart(), byCode)
	if err != nil {
		panic(err)
	}
	return chart
}

// putAccount adds an account outside the chart.
func (s *memStore) putAccount(a domain.Account) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.accounts[a.AccountID] = a
}

func (s *memStore) putCharge(c domain.Charge) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.charges[chargeKey(c.Kind, c.ChargeID)] = c
}

func (s *memStore) balance(code domain.AccountCode) domain.Paisa {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	for _, a := range s.accounts {
		if a.Code == code {
			return a.CurrentBalancePaisa
		}
	}
	return 0
}

func (s *memStore) charge(kind domain.ChargeKind, id string) domain.Charge {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return s.charges[chargeKey(kind, id)]
}

func (s *memStore) counts() (txns, payments, events int) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return len(s.txns), len(s.payments), len(s.outbox)
}

// --- TransactionManager ---

func (s *memStore) Begin(ctx context.Context) (pgx.Tx, error) {
	s.txMu.Lock()
	s.dataMu.Lock()
	s.snapshot = s.memSnapshot.clone()
	s.dataMu.Unlock()
	return &memTx{}, nil
}

func (s *memStore) Commit(ctx context.Context, tx pgx.Tx) error {
	t := tx.(*memTx)
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	s.snapshot = nil
	s.commits++
	s.txMu.Unlock()
	return nil
}

func (s *memStore) Rollback(ctx context.Context, tx pgx.Tx) error {
	t := tx.(*memTx)
	if t.done {
		return nil
	}
	t.done = true
	s.dataMu.Lock()
	s.memSnapshot = *s.snapshot
	s.dataMu.Unlock()
	s.snapshot = nil
	s.rollbacks++
	s.txMu.Unlock()
	return nil
}

// --- Accounts ---

func (s *memStore) FindAccountByCode(ctx context.Context, code domain.AccountCode) (*domain.Account, error) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	for _, a := range s.accounts {
		if a.Code == code {
			return &a, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s *memStore) FindAccountsByCodes(ctx context.Context, codes []domain.AccountCode) (map[domain.AccountCode]domain.Account, error) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	out := map[domain.AccountCode]domain.Account{}
	for _, a := range s.accounts {
		for _, c := range codes {
			if a.Code == c {
				out[c] = a
			}
		}
	}
	return out, nil
}

func (s *memStore) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	out := make([]domain.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *memStore) EnsureAccount(ctx context.Context, account domain.Account) (bool, error) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	for _, a := range s.accounts {
		if a.Code == account.Code {
			return false, nil
		}
	}
	s.accounts[account.AccountID] = account
	return true, nil
}

func (s *memStore) DeactivateAccount(ctx context.Context, tx pgx.Tx, code domain.AccountCode, userID string, now time.Time) error {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	for id, a := range s.accounts {
		if a.Code == code {
			a.IsActive = false
			s.accounts[id] = a
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (s *memStore) FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	out := map[string]domain.Account{}
	for _, id := range accountIDs {
		if a, ok := s.accounts[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

func (s *memStore) UpdateAccountBalancesInTx(ctx context.Context, tx pgx.Tx, balances map[string]domain.Paisa, userID string, now time.Time) error {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	for id, b := range balances {
		a := s.accounts[id]
		a.CurrentBalancePaisa = b
		a.LastUpdatedAt = now
		a.LastUpdatedBy = userID
		s.accounts[id] = a
	}
	return nil
}

// --- Ledger ---

func (s *memStore) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	t, ok := s.txns[transactionID]
	if !ok {
		return nil, apperrors.NewNotFoundError("transaction")
	}
	return &t, nil
}

func (s *memStore) FindEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return append([]domain.LedgerEntry(nil), s.entries[transactionID]...), nil
}

func (s *memStore) ListTransactionsByReference(ctx context.Context, ref domain.Reference) ([]domain.Transaction, error) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	var out []domain.Transaction
	for _, t := range s.txns {
		if t.Reference == ref {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) ListEntriesByAccount(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	var out []domain.LedgerEntry
	for _, es := range s.entries {
		for _, e := range es {
			if e.AccountID == accountID {
				out = append(out, e)
			}
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil, nil
}

func (s *memStore) SaveTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction, entries []domain.LedgerEntry) error {
	if s.failSaveTxnType != "" && txn.Type == s.failSaveTxnType {
		return errors.New("simulated insert failure")
	}
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.txns[txn.TransactionID] = txn
	s.entries[txn.TransactionID] = append([]domain.LedgerEntry(nil), entries...)
	return nil
}

func (s *memStore) FindTransactionByIDForUpdate(ctx context.Context, tx pgx.Tx, transactionID string) (*domain.Transaction, error) {
	return s.FindTransactionByID(ctx, transactionID)
}

func (s *memStore) FindEntriesByTransactionIDInTx(ctx context.Context, tx pgx.Tx, transactionID string) ([]domain.LedgerEntry, error) {
	return s.FindEntriesByTransactionID(ctx, transactionID)
}

func (s *memStore) ListTransactionsByReferenceInTx(ctx context.Context, tx pgx.Tx, ref domain.Reference) ([]domain.Transaction, error) {
	return s.ListTransactionsByReference(ctx, ref)
}

func (s *memStore) MarkTransactionVoidedInTx(ctx context.Context, tx pgx.Tx, transactionID, reversedByID, userID string, now time.Time) error {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	t, ok := s.txns[transactionID]
	if !ok {
		return apperrors.ErrNotFound
	}
	t.Status = domain.TxnVoided
	t.ReversedByID = &reversedByID
	s.txns[transactionID] = t
	return nil
}

// --- Charges ---

func (s *memStore) FindChargeByID(ctx context.Context, kind domain.ChargeKind, chargeID string) (*domain.Charge, error) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	c, ok := s.charges[chargeKey(kind, chargeID)]
	if !ok {
		return nil, apperrors.NewNotFoundError(string(kind))
	}
	c.Units = append([]domain.ChargeUnit(nil), c.Units...)
	return &c, nil
}

func (s *memStore) FindChargeByIDForUpdate(ctx context.Context, tx pgx.Tx, kind domain.ChargeKind, chargeID string) (*domain.Charge, error) {
	return s.FindChargeByID(ctx, kind, chargeID)
}

func (s *memStore) UpdateChargeInTx(ctx context.Context, tx pgx.Tx, charge domain.Charge) error {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	charge.Version++
	charge.Units = append([]domain.ChargeUnit(nil), charge.Units...)
	s.charges[chargeKey(charge.Kind, charge.ChargeID)] = charge
	return nil
}

// --- Payments ---

func (s *memStore) FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	p, ok := s.payments[paymentID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	for _, t := range s.txns {
		if t.Reference == domain.PaymentRef(paymentID) {
			p.TransactionIDs = append(p.TransactionIDs, t.TransactionID)
		}
	}
	return &p, nil
}

func (s *memStore) SavePaymentInTx(ctx context.Context, tx pgx.Tx, payment domain.Payment) error {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.payments[payment.PaymentID] = payment
	return nil
}

func (s *memStore) AttachReceipt(ctx context.Context, paymentID string, receipt domain.Receipt) error {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	p, ok := s.payments[paymentID]
	if !ok {
		return apperrors.ErrNotFound
	}
	p.Receipt = &receipt
	s.payments[paymentID] = p
	return nil
}

// --- Outbox ---

func (s *memStore) EnqueueInTx(ctx context.Context, tx pgx.Tx, event domain.OutboxEvent) error {
	if s.failEnqueue != nil {
		return s.failEnqueue
	}
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.outbox = append(s.outbox, event)
	return nil
}

func (s *memStore) ClaimBatch(ctx context.Context, limit int, now, staleBefore time.Time) ([]domain.OutboxEvent, error) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	var out []domain.OutboxEvent
	for i := range s.outbox {
		e := &s.outbox[i]
		stale := e.Status == domain.OutboxProcessing && e.ClaimedAt != nil && e.ClaimedAt.Before(staleBefore)
		if (e.Status == domain.OutboxPending || stale) && len(out) < limit {
			claimed := now
			e.Status = domain.OutboxProcessing
			e.ClaimedAt = &claimed
			e.Attempts++
			out = append(out, *e)
		}
	}
	return out, nil
}

// MarkSent and MarkFailed fail on a done context the way a pgx Exec does.
func (s *memStore) MarkSent(ctx context.Context, eventID string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.markOutbox(eventID, domain.OutboxSent, "", now)
}

func (s *memStore) MarkFailed(ctx context.Context, eventID string, reason string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.markOutbox(eventID, domain.OutboxFailed, reason, now)
}

func (s *memStore) markOutbox(eventID string, status domain.OutboxStatus, reason string, now time.Time) error {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	for i := range s.outbox {
		if s.outbox[i].EventID == eventID {
			s.outbox[i].Status = status
			s.outbox[i].LastError = reason
			s.outbox[i].ProcessedAt = &now
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (s *memStore) outboxEvents() []domain.OutboxEvent {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return append([]domain.OutboxEvent(nil), s.outbox...)
}

// memIdempotency is an in-memory IdempotencyStore.
type memIdempotency struct {
	mu   sync.Mutex
	keys map[string]portsrepo.IdempotencyRecord
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{keys: map[string]portsrepo.IdempotencyRecord{}}
}

func (m *memIdempotency) Reserve(ctx context.Context, key, fingerprint string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = portsrepo.IdempotencyRecord{Fingerprint: fingerprint}
	return true, nil
}

func (m *memIdempotency) Complete(ctx context.Context, key, fingerprint, resourceID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = portsrepo.IdempotencyRecord{Fingerprint: fingerprint, ResourceID: resourceID}
	return nil
}

func (m *memIdempotency) Lookup(ctx context.Context, key string) (*portsrepo.IdempotencyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.keys[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *memIdempotency) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

// markInFlight turns a completed key back into a running reservation.
func (m *memIdempotency) markInFlight(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.keys[key]
	rec.ResourceID = ""
	m.keys[key] = rec
}
