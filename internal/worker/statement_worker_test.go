package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"finledger/internal/amqp"
	"finledger/internal/cache"
	"finledger/internal/core"
	"finledger/internal/services"
	"finledger/internal/sheets/memory"
	"finledger/internal/storage"

	"github.com/stretchr/testify/require"
)

const userID = "user-1"

type harness struct {
	ctx    context.Context
	ledger *services.Ledger
	writer *memory.Store
	worker *StatementWorker
	events *capture
	card   core.Account
	bank   core.Account
}

// capture records the events the ledger publishes.
type capture struct{ events []core.LedgerEvent }

func (c *capture) PublishLedgerEvent(_ context.Context, e core.LedgerEvent) error {
	c.events = append(c.events, e)
	return nil
}

func (c *capture) last(typ core.EventType) *amqp.LedgerEventMessage {
	for i := len(c.events) - 1; i >= 0; i-- {
		if c.events[i].Type == typ {
			return amqp.NewLedgerEventMessage(c.events[i])
		}
	}
	return nil
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	events := &capture{}
	ledger := services.NewLedger(repo, services.Options{
		Events: events,
		Now:    func() time.Time { return time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC) },
	})
	bank, err := ledger.Accounts.CreateAccount(ctx, userID, core.NewAccount{Name: "Bank", Type: core.Checking, OpeningBalance: core.Cents(100000)})
	require.NoError(t, err)
	closingDay := 3
	card, err := ledger.Accounts.CreateAccount(ctx, userID, core.NewAccount{Name: "Visa", Type: core.Credit, ClosingDay: &closingDay})
	require.NoError(t, err)

	writer := memory.New()
	return &harness{
		ctx:    ctx,
		ledger: ledger,
		writer: writer,
		worker: NewStatementWorker(repo, writer, cache.NewLRUCache[time.Time](100, time.Hour)),
		events: events,
		card:   card,
		bank:   bank,
	}
}

func (h *harness) paidBill(t *testing.T) string {
	t.Helper()
	rows, err := h.ledger.Transactions.CreateTransaction(h.ctx, userID, core.NewTransaction{
		AccountID: h.card.ID, Type: core.Expense, PaymentMethod: core.MethodCredit,
		Description: "Laptop", Amount: core.Cents(30000), Date: core.NewDate(2025, 3, 15), TotalInstallments: 2,
	})
	require.NoError(t, err)
	_, err = h.ledger.Payments.PayBill(h.ctx, userID, *rows[0].BillID, h.bank.ID)
	require.NoError(t, err)
	return *rows[0].BillID
}

func TestStatementWorkerExportsPaidBill(t *testing.T) {
	h := newHarness(t)
	billID := h.paidBill(t)

	msg := h.events.last(core.EventBillPaid)
	require.NotNil(t, msg)
	require.NoError(t, h.worker.HandleLedgerEvent(h.ctx, msg))

	written := h.writer.Statements()
	require.Len(t, written, 1)
	require.Equal(t, billID, written[0].Bill.ID)
	require.Equal(t, "Visa", written[0].AccountName)
	require.Equal(t, core.BillPaid, written[0].Bill.Status)
	require.Len(t, written[0].Transactions, 1)
	require.Equal(t, "Laptop (1/2)", written[0].Transactions[0].Description)

	// A redelivery of the same event is not exported twice.
	require.NoError(t, h.worker.HandleLedgerEvent(h.ctx, msg))
	require.Len(t, h.writer.Statements(), 1)
}

func TestStatementWorkerIgnoresOtherEvents(t *testing.T) {
	h := newHarness(t)
	h.paidBill(t)

	msg := h.events.last(core.EventTransactionCreated)
	require.NotNil(t, msg)
	require.NoError(t, h.worker.HandleLedgerEvent(h.ctx, msg))
	require.Empty(t, h.writer.Statements())
}

func TestStatementWorkerRetriesAfterWriteFailure(t *testing.T) {
	h := newHarness(t)
	h.paidBill(t)
	msg := h.events.last(core.EventBillPaid)

	h.writer.FailNext(errors.New("quota exceeded"))
	err := h.worker.HandleLedgerEvent(h.ctx, msg)
	require.ErrorContains(t, err, "quota exceeded")

	require.NoError(t, h.worker.HandleLedgerEvent(h.ctx, msg))
	require.Len(t, h.writer.Statements(), 1)
}

func TestStatementWorkerSkipsRevertedAndDeletedBills(t *testing.T) {
	h := newHarness(t)
	billID := h.paidBill(t)
	msg := h.events.last(core.EventBillPaid)

	_, err := h.ledger.Payments.RevertBillPayment(h.ctx, userID, billID)
	require.NoError(t, err)
	require.NoError(t, h.worker.HandleLedgerEvent(h.ctx, msg))
	require.Empty(t, h.writer.Statements())

	require.NoError(t, h.ledger.Bills.DeleteBill(h.ctx, userID, billID))
	ref, err := h.worker.ExportBill(h.ctx, userID, billID)
	require.NoError(t, err)
	require.Empty(t, ref)
}
