package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"finledger/internal/core"
	"finledger/internal/storage"

	"github.com/stretchr/testify/require"
)

func TestGetOrCreateBillIsIdempotent(t *testing.T) {
	f := newFixture(t)

	first, err := f.ledger.Bills.GetOrCreateBill(f.ctx, testUser, f.card.ID, 5, 2025)
	require.NoError(t, err)
	second, err := f.ledger.Bills.GetOrCreateBill(f.ctx, testUser, f.card.ID, 5, 2025)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, core.BillOpen, first.Status)
	require.Equal(t, "2025-05-10", first.DueDate.String())

	bills, err := f.ledger.Bills.ListBills(f.ctx, testUser, core.BillFilter{AccountID: f.card.ID})
	require.NoError(t, err)
	require.Len(t, bills, 1)
}

func TestGetOrCreateBillConcurrent(t *testing.T) {
	f := newFixture(t)

	const callers = 16
	ids := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := f.ledger.Bills.GetOrCreateBill(f.ctx, testUser, f.card.ID, 6, 2025)
			ids[i], errs[i] = b.ID, err
		}()
	}
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		require.Equal(t, ids[0], ids[i])
	}
	bills, err := f.ledger.Bills.ListBills(f.ctx, testUser, core.BillFilter{AccountID: f.card.ID, Year: 2025})
	require.NoError(t, err)
	require.Len(t, bills, 1)
}

func TestGetOrCreateBillCallerCancellation(t *testing.T) {
	f := newFixture(t)
	slow := &slowFindStore{Store: f.repo, entered: make(chan struct{}), release: make(chan struct{})}
	pub := &recordingPublisher{}
	l := newTestLedger(t, slow, pub)

	ctx, cancel := context.WithCancel(f.ctx)
	first := make(chan error, 1)
	go func() {
		_, err := l.Bills.GetOrCreateBill(ctx, testUser, f.card.ID, 8, 2025)
		first <- err
	}()
	<-slow.entered

	// The first caller gives up while the shared lookup is still running.
	cancel()
	select {
	case err := <-first:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled caller did not return")
	}

	second := make(chan error, 1)
	var bill core.Bill
	go func() {
		var err error
		bill, err = l.Bills.GetOrCreateBill(f.ctx, testUser, f.card.ID, 8, 2025)
		second <- err
	}()
	close(slow.release)

	select {
	case err := <-second:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("second caller did not return")
	}
	require.Equal(t, core.BillOpen, bill.Status)
	require.Equal(t, []core.EventType{core.EventBillCreated}, pub.types())

	stored, err := f.ledger.Bills.GetBill(f.ctx, testUser, bill.ID)
	require.NoError(t, err)
	require.Equal(t, 8, stored.Month)
}

func TestGetOrCreateBillPublishesOnce(t *testing.T) {
	f := newFixture(t)
	pub := &recordingPublisher{}
	l := newTestLedger(t, f.repo, pub)

	errs := make([]error, 8)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = l.Bills.GetOrCreateBill(f.ctx, testUser, f.card.ID, 9, 2025)
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, []core.EventType{core.EventBillCreated}, pub.types())
}

// slowFindStore blocks the first bill lookup until release is closed.
type slowFindStore struct {
	storage.Store
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *slowFindStore) FindBill(ctx context.Context, userID, accountID string, month, year int) (core.Bill, error) {
	first := false
	s.once.Do(func() { first = true })
	if first {
		close(s.entered)
		<-s.release
	}
	return s.Store.FindBill(ctx, userID, accountID, month, year)
}

func TestGetOrCreateBillRecoversFromConflict(t *testing.T) {
	f := newFixture(t)
	existing, err := f.ledger.Bills.GetOrCreateBill(f.ctx, testUser, f.card.ID, 7, 2025)
	require.NoError(t, err)

	// A store whose first lookup misses simulates losing the insert race.
	racy := &missOnceStore{flakyStore: &flakyStore{Store: f.repo}}
	l := newTestLedger(t, racy, nil)
	got, err := l.Bills.GetOrCreateBill(f.ctx, testUser, f.card.ID, 7, 2025)
	require.NoError(t, err)
	require.Equal(t, existing.ID, got.ID)
	require.True(t, racy.missed)
}

type missOnceStore struct {
	*flakyStore
	missed bool
}

func (m *missOnceStore) FindBill(ctx context.Context, userID, accountID string, month, year int) (core.Bill, error) {
	if !m.missed {
		m.missed = true
		return core.Bill{}, &core.NotFoundError{Entity: "bill"}
	}
	return m.flakyStore.FindBill(ctx, userID, accountID, month, year)
}

func TestGetOrCreateBillRules(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.Bills.GetOrCreateBill(f.ctx, testUser, f.checking.ID, 5, 2025)
	require.True(t, core.IsValidation(err), "checking accounts have no bills, got %v", err)

	_, err = f.ledger.Bills.GetOrCreateBill(f.ctx, testUser, f.card.ID, 13, 2025)
	require.True(t, core.IsValidation(err))

	_, err = f.ledger.Bills.GetOrCreateBill(f.ctx, testUser, "missing", 5, 2025)
	require.True(t, core.IsNotFound(err))
}

func TestBillDueDateClampsAndDefaults(t *testing.T) {
	f := newFixture(t)
	late, err := f.ledger.Accounts.CreateAccount(f.ctx, testUser, core.NewAccount{
		Name: "Late card", Type: core.Credit, DueDay: ptr(31),
	})
	require.NoError(t, err)
	plain, err := f.ledger.Accounts.CreateAccount(f.ctx, testUser, core.NewAccount{
		Name: "Plain card", Type: core.Credit,
	})
	require.NoError(t, err)

	feb, err := f.ledger.Bills.GetOrCreateBill(f.ctx, testUser, late.ID, 2, 2025)
	require.NoError(t, err)
	require.Equal(t, "2025-02-28", feb.DueDate.String())

	def, err := f.ledger.Bills.GetOrCreateBill(f.ctx, testUser, plain.ID, 2, 2025)
	require.NoError(t, err)
	require.Equal(t, "2025-02-10", def.DueDate.String())

	// A configured default applies to cards without a due day only.
	configured := NewLedger(f.repo, Options{Now: func() time.Time { return testNow }, DefaultDueDay: 20})
	mar, err := configured.Bills.GetOrCreateBill(f.ctx, testUser, plain.ID, 3, 2025)
	require.NoError(t, err)
	require.Equal(t, "2025-03-20", mar.DueDate.String())
	lateMar, err := configured.Bills.GetOrCreateBill(f.ctx, testUser, late.ID, 3, 2025)
	require.NoError(t, err)
	require.Equal(t, "2025-03-31", lateMar.DueDate.String())
}

func TestDeleteBillDetachesTransactions(t *testing.T) {
	f := newFixture(t)
	rows := f.creditPurchase(t, 30000, 1)
	billID := *rows[0].BillID

	require.NoError(t, f.ledger.Bills.DeleteBill(f.ctx, testUser, billID))

	_, err := f.ledger.Bills.GetBill(f.ctx, testUser, billID)
	require.True(t, core.IsNotFound(err))
	got, err := f.ledger.Transactions.GetTransaction(f.ctx, testUser, rows[0].ID)
	require.NoError(t, err)
	require.Nil(t, got.BillID)
}

func TestDeletePaidBillRefused(t *testing.T) {
	f := newFixture(t)
	rows := f.creditPurchase(t, 30000, 1)
	billID := *rows[0].BillID
	_, err := f.ledger.Payments.PayBill(f.ctx, testUser, billID, f.checking.ID)
	require.NoError(t, err)

	err = f.ledger.Bills.DeleteBill(f.ctx, testUser, billID)
	require.True(t, core.IsValidation(err), "got %v", err)

	_, err = f.ledger.Payments.RevertBillPayment(f.ctx, testUser, billID)
	require.NoError(t, err)
	require.NoError(t, f.ledger.Bills.DeleteBill(f.ctx, testUser, billID))
}

func TestUpdateBillStatus(t *testing.T) {
	f := newFixture(t)
	bill, err := f.ledger.Bills.GetOrCreateBill(f.ctx, testUser, f.card.ID, 3, 2025)
	require.NoError(t, err)

	closed, err := f.ledger.Bills.UpdateBillStatus(f.ctx, testUser, bill.ID, core.BillClosed)
	require.NoError(t, err)
	require.Equal(t, core.BillClosed, closed.Status)

	_, err = f.ledger.Bills.UpdateBillStatus(f.ctx, testUser, bill.ID, core.BillStatus("LOST"))
	require.True(t, core.IsValidation(err))

	moved, err := f.ledger.Bills.UpdateBill(f.ctx, testUser, bill.ID, core.BillPatch{DueDate: ptr(core.NewDate(2025, 3, 20))})
	require.NoError(t, err)
	require.Equal(t, "2025-03-20", moved.DueDate.String())
	require.Equal(t, core.BillClosed, moved.Status)
}
