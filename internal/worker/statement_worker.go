// Package worker holds the background consumers of ledger events.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finledger/internal/amqp"
	"finledger/internal/cache"
	"finledger/internal/core"
	"finledger/internal/sheets"
)

// LedgerReader is the read side of the store the worker needs.
type LedgerReader interface {
	GetBill(ctx context.Context, userID, id string) (core.Bill, error)
	GetAccount(ctx context.Context, userID, id string) (core.Account, error)
	ListTransactions(ctx context.Context, userID string, f core.TransactionFilter) ([]core.Transaction, error)
}

// StatementWorker exports the statement of every paid bill. Redelivered
// events are recognised by event id and skipped.
type StatementWorker struct {
	store  LedgerReader
	writer sheets.StatementWriter
	seen   cache.Cache[time.Time]
	now    func() time.Time
}

func NewStatementWorker(store LedgerReader, writer sheets.StatementWriter, seen cache.Cache[time.Time]) *StatementWorker {
	return &StatementWorker{
		store:  store,
		writer: writer,
		seen:   seen,
		now:    time.Now,
	}
}

// HandleLedgerEvent processes one message from the ledger exchange. Only
// bill.paid events are exported; everything else is acknowledged untouched.
func (w *StatementWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	if msg.Type != core.EventBillPaid {
		slog.DebugContext(ctx, "Ignoring ledger event", "event_id", msg.ID, "type", msg.Type)
		return nil
	}

	if !w.seen.SetIfAbsent(msg.ID, w.now()) {
		slog.InfoContext(ctx, "Skipping already exported event",
			"event_id", msg.ID,
			"bill_id", msg.EntityID)
		return nil
	}

	ref, err := w.ExportBill(ctx, msg.UserID, msg.EntityID)
	if err != nil {
		// Forget the event so the redelivery can try again.
		w.seen.Delete(msg.ID)
		return err
	}
	if ref != "" {
		slog.InfoContext(ctx, "Exported bill statement",
			"event_id", msg.ID,
			"bill_id", msg.EntityID,
			"user_id", msg.UserID,
			"ref", ref)
	}
	return nil
}

// ExportBill writes the statement of a paid bill and returns the written
// reference. Bills that were deleted or are no longer PAID are skipped with
// an empty reference.
func (w *StatementWorker) ExportBill(ctx context.Context, userID, billID string) (string, error) {
	st, err := w.statement(ctx, userID, billID)
	if core.IsNotFound(err) {
		slog.WarnContext(ctx, "Bill no longer exists, skipping export", "bill_id", billID)
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if st.Bill.Status != core.BillPaid {
		slog.InfoContext(ctx, "Bill is not paid anymore, skipping export",
			"bill_id", billID,
			"status", st.Bill.Status)
		return "", nil
	}

	ref, err := w.writer.WriteStatement(ctx, st)
	if err != nil {
		return "", fmt.Errorf("write statement: %w", err)
	}
	return ref, nil
}

func (w *StatementWorker) statement(ctx context.Context, userID, billID string) (core.Statement, error) {
	bill, err := w.store.GetBill(ctx, userID, billID)
	if err != nil {
		return core.Statement{}, err
	}
	account, err := w.store.GetAccount(ctx, userID, bill.AccountID)
	if err != nil {
		return core.Statement{}, err
	}
	txs, err := w.store.ListTransactions(ctx, userID, core.TransactionFilter{BillID: bill.ID})
	if err != nil {
		return core.Statement{}, fmt.Errorf("list bill transactions: %w", err)
	}
	return core.Statement{Bill: bill, AccountName: account.Name, Transactions: txs}, nil
}
