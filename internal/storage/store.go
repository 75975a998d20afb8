package storage

import (
	"context"

	"finledger/internal/core"
)

// AccountRepository persists accounts. Balances returned by reads are
// derived from the opening balance and the account's transactions.
type AccountRepository interface {
	InsertAccount(ctx context.Context, a core.Account) error
	GetAccount(ctx context.Context, userID, id string) (core.Account, error)
	ListAccounts(ctx context.Context, userID string) ([]core.Account, error)
	UpdateAccount(ctx context.Context, a core.Account) error
	// AdjustOpeningBalance shifts the opening balance by delta. It is the only
	// direct balance write and is used by explicit "set balance" requests.
	AdjustOpeningBalance(ctx context.Context, userID, id string, delta core.Money) error
	DeleteAccount(ctx context.Context, userID, id string) error
}

type CategoryRepository interface {
	InsertCategory(ctx context.Context, c core.Category) error
	GetCategory(ctx context.Context, userID, id string) (core.Category, error)
	ListCategories(ctx context.Context, userID string) ([]core.Category, error)
	UpdateCategory(ctx context.Context, c core.Category) error
	DeleteCategory(ctx context.Context, userID, id string) error
}

// BillRepository persists bills. InsertBill returns core.ErrConflict when
// a bill already exists for the same account and period.
type BillRepository interface {
	InsertBill(ctx context.Context, b core.Bill) error
	GetBill(ctx context.Context, userID, id string) (core.Bill, error)
	FindBill(ctx context.Context, userID, accountID string, month, year int) (core.Bill, error)
	ListBills(ctx context.Context, userID string, f core.BillFilter) ([]core.Bill, error)
	UpdateBill(ctx context.Context, userID, id string, patch core.BillPatch) error
	DetachBillTransactions(ctx context.Context, userID, billID string) (int64, error)
	DeleteBill(ctx context.Context, userID, id string) error
	// ListOpenBills returns OPEN bills of every user, for the closing process.
	ListOpenBills(ctx context.Context) ([]core.Bill, error)
	// CloseBill moves an OPEN bill to CLOSED. It reports false when the bill
	// is no longer OPEN.
	CloseBill(ctx context.Context, userID, id string) (bool, error)
}

type TransactionRepository interface {
	InsertTransaction(ctx context.Context, t core.Transaction) error
	GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	ListTransactions(ctx context.Context, userID string, f core.TransactionFilter) ([]core.Transaction, error)
	// UpdateTransactionDetails writes the non-financial columns of t.
	UpdateTransactionDetails(ctx context.Context, t core.Transaction) error
	SetBillTransactionsStatus(ctx context.Context, userID, billID string, status core.TransactionStatus) (int64, error)
	FindBillPayment(ctx context.Context, userID, billID string) (core.Transaction, error)
	// DeleteTransaction removes one row. Installment children of the row
	// are removed by the parent_transaction_id cascade.
	DeleteTransaction(ctx context.Context, userID, id string) error
}

// Store is everything the ledger needs from persistence.
type Store interface {
	AccountRepository
	CategoryRepository
	BillRepository
	TransactionRepository
}

// Transactor is implemented by stores that can run a function atomically.
// The Store handed to fn must be used for every read and write of the unit.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
