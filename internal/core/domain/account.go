package domain

import (
	"fmt"

	"github.com/SscSPs/property_ledger/internal/apperrors"
)

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

func (t AccountType) IsValid() bool {
	switch t {
	case Asset, Liability, Equity, Revenue, Expense:
		return true
	}
	return false
}

// IsDebitNormal reports whether the account's balance grows on the debit side.
func (t AccountType) IsDebitNormal() bool {
	return t == Asset || t == Expense
}

// AccountCode is the stable chart-of-accounts code, e.g. "1000".
type AccountCode string

// Account represents a ledger account. CurrentBalancePaisa is signed on the
// account's normal side and is only ever written by the ledger poster.
type Account struct {
	AccountID           string      `json:"accountID"`
	Code                AccountCode `json:"code"`
	Name                string      `json:"name"`
	AccountType         AccountType `json:"accountType"`
	Description         string      `json:"description"`
	CurrentBalancePaisa Paisa       `json:"currentBalancePaisa"`
	IsActive            bool        `json:"isActive"`
	AuditFields
}

// AccountRole names the purpose an account plays in the journal mapping
// rules. Builders ask for roles, never for raw codes.
type AccountRole string

const (
	RoleCashBank                AccountRole = "CASH_BANK"
	RoleAccountsReceivable      AccountRole = "ACCOUNTS_RECEIVABLE"
	RoleSecurityDepositsPayable AccountRole = "SECURITY_DEPOSITS_PAYABLE"
	RoleOwnerEquity             AccountRole = "OWNER_EQUITY"
	RoleRentalIncome            AccountRole = "RENTAL_INCOME"
	RoleCAMIncome               AccountRole = "CAM_INCOME"
	RoleOtherRevenue            AccountRole = "OTHER_REVENUE"
	RoleOperatingExpense        AccountRole = "OPERATING_EXPENSE"
)

// ChartEntry is one seeded account definition.
type ChartEntry struct {
	Role        AccountRole
	Code        AccountCode
	Name        string
	AccountType AccountType
	Description string
}

// DefaultChart is the seeded chart of accounts.
func DefaultChart() []ChartEntry {
	return []ChartEntry{
		{RoleCashBank, "1000", "Cash and Bank", Asset, "Cash on hand and bank balances"},
		{RoleAccountsReceivable, "1200", "Accounts Receivable", Asset, "Rent and CAM billed but not yet collected"},
		{RoleSecurityDepositsPayable, "2100", "Security Deposits Payable", Liability, "Tenant deposits held"},
		{RoleOwnerEquity, "3000", "Owner's Equity", Equity, "Owner capital"},
		{RoleRentalIncome, "4000", "Rental Income", Revenue, "Rent earned"},
		{RoleCAMIncome, "4100", "CAM Income", Revenue, "Common area maintenance income"},
		{RoleOtherRevenue, "4200", "Other Revenue", Revenue, "Parking, utilities and other income"},
		{RoleOperatingExpense, "5000", "Operating Expenses", Expense, "Property operating expenses"},
	}
}

// ChartOfAccounts maps roles to resolved accounts. It is built once at
// startup and is read-only afterwards.
type ChartOfAccounts struct {
	byRole map[AccountRole]Account
}

// NewChartOfAccounts resolves every role in entries against accounts keyed by
// code. A missing or inactive account fails the whole resolution.
func NewChartOfAccounts(entries []ChartEntry, accountsByCode map[AccountCode]Account) (ChartOfAccounts, error) {
	byRole := make(map[AccountRole]Account, len(entries))
	for _, e := range entries {
		acc, ok := accountsByCode[e.Code]
		if !ok {
			return ChartOfAccounts{}, fmt.Errorf("%w: role %s expects account code %s", apperrors.ErrUnknownAccount, e.Role, e.Code)
		}
		if !acc.IsActive {
			return ChartOfAccounts{}, fmt.Errorf("%w: account %s (%s) is inactive", apperrors.ErrUnknownAccount, e.Code, e.Role)
		}
		if acc.AccountType != e.AccountType {
			return ChartOfAccounts{}, fmt.Errorf("%w: account %s is %s, role %s needs %s",
				apperrors.ErrUnknownAccount, e.Code, acc.AccountType, e.Role, e.AccountType)
		}
		byRole[e.Role] = acc
	}
	return ChartOfAccounts{byRole: byRole}, nil
}

// Lookup returns the account bound to role.
func (c ChartOfAccounts) Lookup(role AccountRole) (Account, error) {
	acc, ok := c.byRole[role]
	if !ok {
		return Account{}, fmt.Errorf("%w: no account bound to role %s", apperrors.ErrUnknownAccount, role)
	}
	return acc, nil
}

// RoleOf reports the role code is bound to, if any.
func (c ChartOfAccounts) RoleOf(code AccountCode) (AccountRole, bool) {
	for role, acc := range c.byRole {
		if acc.Code == code {
			return role, true
		}
	}
	return "", false
}

// IncomeRoleFor returns the income role that a charge of the given kind accrues to.
func IncomeRoleFor(kind ChargeKind) (AccountRole, error) {
	switch kind {
	case ChargeKindRent:
		return RoleRentalIncome, nil
	case ChargeKindCAM:
		return RoleCAMIncome, nil
	}
	return "", apperrors.NewValidationError("unknown charge kind %q", kind)
}
