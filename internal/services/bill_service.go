package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"finledger/internal/core"
	"finledger/internal/storage"

	"golang.org/x/sync/singleflight"
)

// BillService owns the per-account, per-month credit card bill lifecycle.
type BillService struct {
	*base
	flight singleflight.Group
}

// GetOrCreateBill returns the bill of accountID for month/year, creating it
// as OPEN when absent. Concurrent callers for the same key share one lookup,
// which runs detached from any single caller's cancellation.
func (s *BillService) GetOrCreateBill(ctx context.Context, userID, accountID string, month, year int) (core.Bill, error) {
	if err := core.ValidatePeriod(month, year); err != nil {
		return core.Bill{}, err
	}

	key := fmt.Sprintf("%s/%s/%d/%d", userID, accountID, year, month)
	ch := s.flight.DoChan(key, func() (any, error) {
		shared := context.WithoutCancel(ctx)
		b, created, err := s.getOrCreateBill(shared, s.store, userID, accountID, month, year)
		if err == nil && created {
			s.publish(shared, s.event(core.EventBillCreated, userID, b.ID, accountID, core.Money{}))
		}
		return b, err
	})

	select {
	case <-ctx.Done():
		return core.Bill{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return core.Bill{}, res.Err
		}
		return res.Val.(core.Bill), nil
	}
}

// getOrCreateBill is the store-level protocol: lookup, insert, and on a
// uniqueness conflict lookup again.
func (b *base) getOrCreateBill(ctx context.Context, st storage.Store, userID, accountID string, month, year int) (core.Bill, bool, error) {
	existing, err := st.FindBill(ctx, userID, accountID, month, year)
	if err == nil {
		return existing, false, nil
	}
	if !core.IsNotFound(err) {
		return core.Bill{}, false, err
	}

	account, err := st.GetAccount(ctx, userID, accountID)
	if err != nil {
		return core.Bill{}, false, err
	}
	if !account.IsCredit() {
		return core.Bill{}, false, &core.ValidationError{Field: "account_id", Reason: "bills belong to credit accounts"}
	}

	bill := core.Bill{
		ID:        b.newID(),
		UserID:    userID,
		AccountID: accountID,
		Month:     month,
		Year:      year,
		Status:    core.BillOpen,
		DueDate:   core.ClampedDate(year, month, account.DueDayOr(b.dueDay)),
	}
	if err := st.InsertBill(ctx, bill); err != nil {
		if !errors.Is(err, core.ErrConflict) {
			return core.Bill{}, false, err
		}
		slog.InfoContext(ctx, "Bill created concurrently, reloading",
			"account_id", accountID, "month", month, "year", year)
		existing, err := st.FindBill(ctx, userID, accountID, month, year)
		if err != nil {
			return core.Bill{}, false, fmt.Errorf("reload bill after conflict: %w", err)
		}
		return existing, false, nil
	}
	return bill, true, nil
}

func (s *BillService) GetBill(ctx context.Context, userID, id string) (core.Bill, error) {
	return s.store.GetBill(ctx, userID, id)
}

func (s *BillService) ListBills(ctx context.Context, userID string, f core.BillFilter) ([]core.Bill, error) {
	return s.store.ListBills(ctx, userID, f)
}

func (s *BillService) UpdateBillStatus(ctx context.Context, userID, id string, status core.BillStatus) (core.Bill, error) {
	return s.UpdateBill(ctx, userID, id, core.BillPatch{Status: &status})
}

// UpdateBill applies a direct field update. It does not touch linked
// transactions; paying and reverting go through PaymentService.
func (s *BillService) UpdateBill(ctx context.Context, userID, id string, patch core.BillPatch) (core.Bill, error) {
	if err := patch.Validate(); err != nil {
		return core.Bill{}, err
	}
	if err := s.store.UpdateBill(ctx, userID, id, patch); err != nil {
		return core.Bill{}, err
	}
	bill, err := s.store.GetBill(ctx, userID, id)
	if err != nil {
		return core.Bill{}, err
	}
	if patch.Status != nil && *patch.Status == core.BillClosed {
		s.publish(ctx, s.event(core.EventBillClosed, userID, id, bill.AccountID, bill.TotalAmount))
	}
	return bill, nil
}

// DeleteBill detaches the bill's transactions and then deletes it. Paid
// bills must be reverted first.
func (s *BillService) DeleteBill(ctx context.Context, userID, id string) error {
	var accountID string
	err := s.run(ctx, "delete bill", func(st storage.Store, steps *stepLog) error {
		bill, err := st.GetBill(ctx, userID, id)
		if err != nil {
			return err
		}
		if bill.Status == core.BillPaid {
			return &core.ValidationError{Field: "status", Reason: "paid bills must be reverted before deletion"}
		}
		accountID = bill.AccountID

		n, err := st.DetachBillTransactions(ctx, userID, id)
		if err != nil {
			return err
		}
		steps.mark("%d transactions detached", n)

		if err := st.DeleteBill(ctx, userID, id); err != nil {
			return err
		}
		steps.mark("bill deleted")
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}

	s.publish(ctx, s.event(core.EventBillDeleted, userID, id, accountID, core.Money{}))
	return nil
}
