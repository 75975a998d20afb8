package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"finledger/internal/core"
	"finledger/internal/storage"
)

// TransactionService owns transaction rows: installment expansion on
// creation, parent-resolving deletion and recreate-on-financial-edit.
type TransactionService struct {
	*base
}

func (s *TransactionService) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, userID, id)
}

func (s *TransactionService) ListTransactions(ctx context.Context, userID string, f core.TransactionFilter) ([]core.Transaction, error) {
	if f.Month != 0 {
		if err := core.ValidatePeriod(f.Month, f.Year); err != nil {
			return nil, err
		}
	}
	return s.store.ListTransactions(ctx, userID, f)
}

// CreateTransaction records a transaction. A CREDIT payload with more than
// one installment expands into a parent and N-1 children, one per month,
// each bound to the bill of its own month. All created rows are returned,
// the parent first.
func (s *TransactionService) CreateTransaction(ctx context.Context, userID string, n core.NewTransaction) ([]core.Transaction, error) {
	var (
		rows   []core.Transaction
		events []core.LedgerEvent
	)
	err := s.run(ctx, "create transaction", func(st storage.Store, steps *stepLog) error {
		var err error
		rows, events, err = s.createTransaction(ctx, st, userID, n, steps)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	s.publish(ctx, events...)
	return rows, nil
}

func (b *base) createTransaction(ctx context.Context, st storage.Store, userID string, n core.NewTransaction, steps *stepLog) ([]core.Transaction, []core.LedgerEvent, error) {
	n.Description = strings.TrimSpace(n.Description)
	if n.TotalInstallments == 0 {
		n.TotalInstallments = 1
	}
	if err := n.Validate(); err != nil {
		return nil, nil, err
	}

	account, err := st.GetAccount(ctx, userID, n.AccountID)
	if err != nil {
		return nil, nil, err
	}
	if n.DestinationAccountID != nil {
		if _, err := st.GetAccount(ctx, userID, *n.DestinationAccountID); err != nil {
			return nil, nil, err
		}
	}
	if n.CategoryID != nil {
		if _, err := st.GetCategory(ctx, userID, *n.CategoryID); err != nil {
			return nil, nil, err
		}
	}

	isCredit := n.PaymentMethod == core.MethodCredit
	if isCredit && !account.IsCredit() {
		return nil, nil, &core.ValidationError{Field: "payment_method", Reason: "CREDIT requires a credit account"}
	}
	if (!isCredit && n.Type == core.Expense) || n.Type == core.Transfer {
		if err := core.CheckFunds(account, n.Amount); err != nil {
			return nil, nil, err
		}
	}

	status := core.Paid
	if isCredit {
		status = core.Pending
	}
	total := n.TotalInstallments
	if !isCredit || total < 2 {
		total = 1
	}
	amount := n.Amount.Split(total)
	if amount.Cents <= 0 {
		return nil, nil, &core.ValidationError{Field: "amount", Reason: fmt.Sprintf("too small to split into %d installments", total)}
	}

	var events []core.LedgerEvent

	// Resolve one bill per month before writing any transaction row.
	billIDs := make([]*string, total)
	if isCredit {
		for i := range total {
			date := n.Date.AddMonths(i)
			bill, created, err := b.getOrCreateBill(ctx, st, userID, account.ID, date.Month(), date.Year())
			if err != nil {
				return nil, nil, err
			}
			if created {
				steps.mark("bill %02d/%d created", bill.Month, bill.Year)
				events = append(events, b.event(core.EventBillCreated, userID, bill.ID, account.ID, core.Money{}))
			}
			billIDs[i] = &bill.ID
		}
	}

	rows := make([]core.Transaction, 0, total)
	var parentID *string
	for i := range total {
		t := core.Transaction{
			ID:                   b.newID(),
			UserID:               userID,
			AccountID:            account.ID,
			DestinationAccountID: n.DestinationAccountID,
			CategoryID:           n.CategoryID,
			BillID:               billIDs[i],
			Type:                 n.Type,
			PaymentMethod:        n.PaymentMethod,
			Description:          n.Description,
			Amount:               amount,
			Date:                 n.Date.AddMonths(i),
			Status:               status,
		}
		if total > 1 {
			number, of := i+1, total
			t.IsInstallment = true
			t.InstallmentNumber = &number
			t.TotalInstallments = &of
			t.ParentTransactionID = parentID
			t.Description = fmt.Sprintf("%s (%d/%d)", n.Description, number, of)
		}
		if err := st.InsertTransaction(ctx, t); err != nil {
			return nil, nil, err
		}
		if i == 0 {
			parentID = &t.ID
		}
		steps.mark("transaction %s inserted", t.ID)
		rows = append(rows, t)
		events = append(events, b.event(core.EventTransactionCreated, userID, t.ID, t.AccountID, t.Amount))
	}
	return rows, events, nil
}

// DeleteTransaction removes a transaction. Members of an installment set
// resolve to the parent, removing the whole set. Reversing an INCOME or a
// TRANSFER must not drive the credited account negative.
func (s *TransactionService) DeleteTransaction(ctx context.Context, userID, id string) error {
	var events []core.LedgerEvent
	err := s.run(ctx, "delete transaction", func(st storage.Store, steps *stepLog) error {
		deleted, err := s.deleteTransaction(ctx, st, userID, id, steps)
		if err != nil {
			return err
		}
		events = append(events, s.event(core.EventTransactionDeleted, userID, deleted.RootID(), deleted.AccountID, deleted.Amount))
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.publish(ctx, events...)
	return nil
}

func (b *base) deleteTransaction(ctx context.Context, st storage.Store, userID, id string, steps *stepLog) (core.Transaction, error) {
	t, err := st.GetTransaction(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, err
	}

	if t.SettlesBillID != nil {
		bill, err := st.GetBill(ctx, userID, *t.SettlesBillID)
		if err != nil && !core.IsNotFound(err) {
			return core.Transaction{}, err
		}
		if err == nil && bill.Status == core.BillPaid {
			return core.Transaction{}, &core.ValidationError{
				Field:  "id",
				Reason: fmt.Sprintf("transaction pays bill %02d/%d; revert the bill payment instead", bill.Month, bill.Year),
			}
		}
	}

	switch {
	case t.Type == core.Income && t.AffectsBalance():
		account, err := st.GetAccount(ctx, userID, t.AccountID)
		if err != nil {
			return core.Transaction{}, err
		}
		if err := core.CheckFunds(account, t.Amount); err != nil {
			return core.Transaction{}, err
		}
	case t.Type == core.Transfer && t.DestinationAccountID != nil:
		dest, err := st.GetAccount(ctx, userID, *t.DestinationAccountID)
		if err != nil {
			return core.Transaction{}, err
		}
		if err := core.CheckFunds(dest, t.Amount); err != nil {
			return core.Transaction{}, err
		}
	}

	target := t.RootID()
	if err := st.DeleteTransaction(ctx, userID, target); err != nil {
		return core.Transaction{}, err
	}
	steps.mark("transaction %s deleted", target)
	return t, nil
}

// UpdateTransaction patches a transaction. Financial changes (amount, type,
// accounts, payment method) delete the original and create a single
// replacement row; other fields are updated in place.
func (s *TransactionService) UpdateTransaction(ctx context.Context, userID, id string, patch core.TransactionPatch) (core.Transaction, error) {
	var (
		result core.Transaction
		events []core.LedgerEvent
	)
	err := s.run(ctx, "update transaction", func(st storage.Store, steps *stepLog) error {
		orig, err := st.GetTransaction(ctx, userID, id)
		if err != nil {
			return err
		}

		if patch.IsFinancial(orig) {
			deleted, err := s.deleteTransaction(ctx, st, userID, id, steps)
			if err != nil {
				return err
			}
			events = append(events, s.event(core.EventTransactionDeleted, userID, deleted.RootID(), deleted.AccountID, deleted.Amount))

			rows, created, err := s.createTransaction(ctx, st, userID, patch.Recreate(orig), steps)
			if err != nil {
				return err
			}
			result = rows[0]
			events = append(events, created...)
			return nil
		}

		updated, billEvents, err := s.applyDetails(ctx, st, orig, patch, steps)
		if err != nil {
			return err
		}
		if err := st.UpdateTransactionDetails(ctx, updated); err != nil {
			return err
		}
		steps.mark("transaction %s updated", updated.ID)
		result = updated
		events = append(events, billEvents...)
		events = append(events, s.event(core.EventTransactionUpdated, userID, updated.ID, updated.AccountID, updated.Amount))
		return nil
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	s.publish(ctx, events...)
	slog.InfoContext(ctx, "Transaction updated", "id", id, "result_id", result.ID)
	return result, nil
}

// applyDetails applies the non-financial fields. A CREDIT row moved to
// another month is rebound to that month's bill.
func (b *base) applyDetails(ctx context.Context, st storage.Store, t core.Transaction, p core.TransactionPatch, steps *stepLog) (core.Transaction, []core.LedgerEvent, error) {
	if p.Description != nil {
		desc := strings.TrimSpace(*p.Description)
		if desc == "" {
			return t, nil, &core.ValidationError{Field: "description", Reason: core.ErrEmptyDescription.Error()}
		}
		if len(desc) > core.MaxDescriptionLen {
			return t, nil, &core.ValidationError{Field: "description", Reason: "too long (max 200 characters)"}
		}
		t.Description = desc
	}
	if p.CategoryID != nil {
		if _, err := st.GetCategory(ctx, t.UserID, *p.CategoryID); err != nil {
			return t, nil, err
		}
		t.CategoryID = p.CategoryID
	} else if p.ClearCategory {
		t.CategoryID = nil
	}

	var events []core.LedgerEvent
	if p.Date != nil {
		if err := p.Date.Validate(); err != nil {
			return t, nil, &core.ValidationError{Field: "date", Reason: err.Error()}
		}
		moved := p.Date.Month() != t.Date.Month() || p.Date.Year() != t.Date.Year()
		t.Date = *p.Date
		if moved && t.IsCredit() {
			bill, created, err := b.getOrCreateBill(ctx, st, t.UserID, t.AccountID, t.Date.Month(), t.Date.Year())
			if err != nil {
				return t, nil, err
			}
			if created {
				steps.mark("bill %02d/%d created", bill.Month, bill.Year)
				events = append(events, b.event(core.EventBillCreated, t.UserID, bill.ID, t.AccountID, core.Money{}))
			}
			t.BillID = &bill.ID
		}
	}
	return t, events, nil
}
