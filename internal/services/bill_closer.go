package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finledger/internal/core"
	applog "finledger/internal/log"
)

// BillCloser advances OPEN bills to CLOSED once their closing date has
// passed. It is driven periodically by cmd/bill-closer.
type BillCloser struct {
	*base
}

func NewBillCloser(b *base) *BillCloser {
	return &BillCloser{base: b}
}

// CloseDueBills closes every OPEN bill whose closing date is on or before
// now and returns how many were closed. Failures on one bill are logged and
// do not stop the run.
func (c *BillCloser) CloseDueBills(ctx context.Context, now time.Time) (int, error) {
	if c.base == nil || c.store == nil {
		return 0, fmt.Errorf("closer not properly initialized")
	}

	bills, err := c.store.ListOpenBills(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list open bills: %w", err)
	}

	slog.InfoContext(ctx, "Processing open bills",
		"total_open", len(bills),
		"processing_date", now.Format(core.DateLayout))

	accounts := map[string]core.Account{}
	closed := 0
	for _, bill := range bills {
		account, ok := accounts[bill.AccountID]
		if !ok {
			account, err = c.store.GetAccount(ctx, bill.UserID, bill.AccountID)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to load bill account",
					"bill_id", bill.ID,
					"account_id", bill.AccountID,
					"error", err)
				continue
			}
			accounts[bill.AccountID] = account
		}

		checker, err := GetClosingChecker(PolicyFor(account))
		if err != nil {
			slog.ErrorContext(ctx, "Failed to pick closing policy", "bill_id", bill.ID, "error", err)
			continue
		}
		if !IsClosable(checker, bill, account, now) {
			continue
		}

		ok, err = c.store.CloseBill(ctx, bill.UserID, bill.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to close bill",
				"bill_id", bill.ID,
				"error", err)
			continue
		}
		if !ok {
			slog.InfoContext(ctx, "Bill no longer OPEN, skipping", "bill_id", bill.ID)
			continue
		}

		closed++
		billLog(ctx).LogBillEvent(ctx, fmt.Sprintf("Closed bill %02d/%d", bill.Month, bill.Year),
			applog.OpClose, bill.UserID, bill.ID, bill.AccountID, bill.TotalAmount.Cents)
		c.publish(ctx, c.event(core.EventBillClosed, bill.UserID, bill.ID, bill.AccountID, bill.TotalAmount))
	}

	slog.InfoContext(ctx, "Bill closing complete",
		"closed", closed,
		"total_checked", len(bills))

	return closed, nil
}
