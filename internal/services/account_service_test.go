package services

import (
	"testing"

	"finledger/internal/core"

	"github.com/stretchr/testify/require"
)

func TestCreateAccountCreditIgnoresOpeningBalance(t *testing.T) {
	f := newFixture(t)
	card, err := f.ledger.Accounts.CreateAccount(f.ctx, testUser, core.NewAccount{
		Name: "  Gold  ", Type: core.Credit, OpeningBalance: core.Cents(99999), ClosingDay: ptr(25), DueDay: ptr(5),
	})
	require.NoError(t, err)
	require.Equal(t, "Gold", card.Name)
	require.Equal(t, int64(0), f.balance(t, card.ID))

	_, err = f.ledger.Accounts.CreateAccount(f.ctx, testUser, core.NewAccount{Name: " ", Type: core.Checking})
	require.True(t, core.IsValidation(err))

	_, err = f.ledger.Accounts.CreateAccount(f.ctx, testUser, core.NewAccount{Name: "Bad", Type: core.Credit, DueDay: ptr(32)})
	require.True(t, core.IsValidation(err))
}

func TestSetBalance(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.Transactions.CreateTransaction(f.ctx, testUser, core.NewTransaction{
		AccountID: f.checking.ID, Type: core.Expense, PaymentMethod: core.MethodDebit,
		Description: "Coffee", Amount: core.Cents(450), Date: core.DateOf(testNow),
	})
	require.NoError(t, err)

	updated, err := f.ledger.Accounts.SetBalance(f.ctx, testUser, f.checking.ID, core.Cents(20000))
	require.NoError(t, err)
	require.Equal(t, int64(20000), updated.Balance.Cents)

	// The history is untouched; only the opening balance moved.
	rows, err := f.ledger.Transactions.ListTransactions(f.ctx, testUser, core.TransactionFilter{AccountID: f.checking.ID})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	_, err = f.ledger.Accounts.SetBalance(f.ctx, testUser, f.card.ID, core.Cents(100))
	require.True(t, core.IsValidation(err), "got %v", err)

	_, err = f.ledger.Accounts.SetBalance(f.ctx, testUser, "missing", core.Cents(100))
	require.True(t, core.IsNotFound(err))
}

func TestCreateHybridAccount(t *testing.T) {
	f := newFixture(t)
	checking, card, err := f.ledger.Accounts.CreateHybridAccount(f.ctx, testUser, HybridAccount{
		Name: "Nubank", OpeningBalance: core.Cents(7500), ClosingDay: ptr(28), DueDay: ptr(5),
	})
	require.NoError(t, err)
	require.Equal(t, core.Checking, checking.Type)
	require.Equal(t, core.Credit, card.Type)
	require.Equal(t, "Nubank - Card", card.Name)
	require.Equal(t, int64(7500), f.balance(t, checking.ID))
	require.Equal(t, 5, card.DueDayOr(core.DefaultDueDay))

	_, _, err = f.ledger.Accounts.CreateHybridAccount(f.ctx, testUser, HybridAccount{Name: "Broken", DueDay: ptr(0)})
	require.True(t, core.IsValidation(err))

	accounts, err := f.ledger.Accounts.ListAccounts(f.ctx, testUser)
	require.NoError(t, err)
	require.Len(t, accounts, 4)
}

func TestUpdateAccount(t *testing.T) {
	f := newFixture(t)

	renamed, err := f.ledger.Accounts.UpdateAccount(f.ctx, testUser, f.card.ID, core.AccountPatch{
		Name: ptr("Visa"), DueDay: ptr(15),
	})
	require.NoError(t, err)
	require.Equal(t, "Visa", renamed.Name)
	require.Equal(t, 15, renamed.DueDayOr(core.DefaultDueDay))

	_, err = f.ledger.Accounts.UpdateAccount(f.ctx, testUser, f.card.ID, core.AccountPatch{Type: ptr(core.Checking)})
	require.True(t, core.IsValidation(err), "got %v", err)

	_, err = f.ledger.Accounts.UpdateAccount(f.ctx, testUser, f.checking.ID, core.AccountPatch{Type: ptr(core.Credit)})
	require.True(t, core.IsValidation(err), "got %v", err)

	cash, err := f.ledger.Accounts.UpdateAccount(f.ctx, testUser, f.checking.ID, core.AccountPatch{Type: ptr(core.Cash)})
	require.NoError(t, err)
	require.Equal(t, core.Cash, cash.Type)
	require.Equal(t, int64(100000), f.balance(t, f.checking.ID))
}

func TestDeleteAccountRemovesHistory(t *testing.T) {
	f := newFixture(t)
	rows := f.creditPurchase(t, 20000, 2)
	payment, err := f.ledger.Payments.PayBill(f.ctx, testUser, *rows[0].BillID, f.checking.ID)
	require.NoError(t, err)
	require.Equal(t, int64(90000), f.balance(t, f.checking.ID))

	require.NoError(t, f.ledger.Accounts.DeleteAccount(f.ctx, testUser, f.card.ID))

	// The payment into the card is removed with it.
	_, err = f.ledger.Transactions.GetTransaction(f.ctx, testUser, payment.ID)
	require.True(t, core.IsNotFound(err))
	require.Equal(t, int64(100000), f.balance(t, f.checking.ID))

	_, err = f.ledger.Accounts.GetAccount(f.ctx, testUser, f.card.ID)
	require.True(t, core.IsNotFound(err))
	_, err = f.ledger.Bills.GetBill(f.ctx, testUser, *rows[0].BillID)
	require.True(t, core.IsNotFound(err))
	_, err = f.ledger.Transactions.GetTransaction(f.ctx, testUser, rows[1].ID)
	require.True(t, core.IsNotFound(err))
}

func TestCategoryLifecycle(t *testing.T) {
	f := newFixture(t)
	cat, err := f.ledger.Categories.CreateCategory(f.ctx, testUser, core.NewCategory{Name: "Food", Type: core.Expense})
	require.NoError(t, err)
	require.Equal(t, core.DefaultCategoryColor, cat.Color)

	_, err = f.ledger.Categories.CreateCategory(f.ctx, testUser, core.NewCategory{Name: "Food", Type: core.Transfer})
	require.True(t, core.IsValidation(err), "transfers have no categories, got %v", err)

	updated, err := f.ledger.Categories.UpdateCategory(f.ctx, testUser, cat.ID, core.CategoryPatch{Color: ptr("#ff0000")})
	require.NoError(t, err)
	require.Equal(t, "#ff0000", updated.Color)

	rows, err := f.ledger.Transactions.CreateTransaction(f.ctx, testUser, core.NewTransaction{
		AccountID: f.checking.ID, CategoryID: &cat.ID, Type: core.Expense, PaymentMethod: core.MethodPix,
		Description: "Lunch", Amount: core.Cents(1800), Date: core.DateOf(testNow),
	})
	require.NoError(t, err)

	require.NoError(t, f.ledger.Categories.DeleteCategory(f.ctx, testUser, cat.ID))
	got, err := f.ledger.Transactions.GetTransaction(f.ctx, testUser, rows[0].ID)
	require.NoError(t, err)
	require.Nil(t, got.CategoryID)
}
