package services

import (
	"context"
	"fmt"

	"finledger/internal/core"
	applog "finledger/internal/log"
	"finledger/internal/storage"
)

// PaymentService implements the bill payment and reversal workflows.
//
//	OPEN/CLOSED --pay--> PAID --revert--> CLOSED
type PaymentService struct {
	*base
}

// PayBill settles a bill from sourceAccountID: the bill and its transactions
// become PAID and a TRANSFER for the bill total moves money from the source
// to the card account. The transfer references the bill it settles.
func (s *PaymentService) PayBill(ctx context.Context, userID, billID, sourceAccountID string) (core.Transaction, error) {
	var (
		transfer core.Transaction
		bill     core.Bill
	)
	err := s.run(ctx, "pay bill", func(st storage.Store, steps *stepLog) error {
		var err error
		bill, err = st.GetBill(ctx, userID, billID)
		if err != nil {
			return err
		}
		if bill.Status == core.BillPaid {
			return &core.ValidationError{Field: "status", Reason: "bill is already paid"}
		}
		if bill.TotalAmount.Cents <= 0 {
			return &core.ValidationError{Field: "total_amount", Reason: "bill has nothing to pay"}
		}

		source, err := st.GetAccount(ctx, userID, sourceAccountID)
		if err != nil {
			return err
		}
		if source.IsCredit() {
			return &core.ValidationError{Field: "source_account_id", Reason: "bills cannot be paid from a credit account"}
		}
		if err := core.CheckFunds(source, bill.TotalAmount); err != nil {
			return err
		}

		paid := core.BillPaid
		if err := st.UpdateBill(ctx, userID, billID, core.BillPatch{Status: &paid}); err != nil {
			return err
		}
		steps.mark("bill marked paid")

		n, err := st.SetBillTransactionsStatus(ctx, userID, billID, core.Paid)
		if err != nil {
			return err
		}
		steps.mark("%d transactions settled", n)

		method := core.MethodDebit
		if source.Type == core.Cash {
			method = core.MethodCash
		}
		transfer = core.Transaction{
			ID:                   s.newID(),
			UserID:               userID,
			AccountID:            source.ID,
			DestinationAccountID: &bill.AccountID,
			SettlesBillID:        &bill.ID,
			Type:                 core.Transfer,
			PaymentMethod:        method,
			Description:          fmt.Sprintf("Bill payment %02d/%d", bill.Month, bill.Year),
			Amount:               bill.TotalAmount,
			Date:                 s.today(),
			Status:               core.Paid,
		}
		if err := st.InsertTransaction(ctx, transfer); err != nil {
			return err
		}
		steps.mark("payment transfer recorded")
		return nil
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("pay bill: %w", err)
	}

	billLog(ctx).LogBillEvent(ctx, "Bill paid from "+sourceAccountID,
		applog.OpPay, userID, billID, bill.AccountID, transfer.Amount.Cents)
	s.publish(ctx,
		s.event(core.EventBillPaid, userID, billID, bill.AccountID, transfer.Amount),
		s.event(core.EventTransactionCreated, userID, transfer.ID, transfer.AccountID, transfer.Amount))
	return transfer, nil
}

// RevertBillPayment undoes PayBill: the settling transfer is deleted, the
// transactions return to PENDING and the bill to CLOSED.
func (s *PaymentService) RevertBillPayment(ctx context.Context, userID, billID string) (core.Bill, error) {
	var (
		bill    core.Bill
		payment core.Transaction
	)
	err := s.run(ctx, "revert bill payment", func(st storage.Store, steps *stepLog) error {
		var err error
		bill, err = st.GetBill(ctx, userID, billID)
		if err != nil {
			return err
		}
		if bill.Status != core.BillPaid {
			return &core.ValidationError{Field: "status", Reason: "only paid bills can be reverted"}
		}

		payment, err = st.FindBillPayment(ctx, userID, billID)
		if err != nil {
			return err
		}
		card, err := st.GetAccount(ctx, userID, bill.AccountID)
		if err != nil {
			return err
		}
		if err := core.CheckFunds(card, payment.Amount); err != nil {
			return err
		}

		if err := st.DeleteTransaction(ctx, userID, payment.ID); err != nil {
			return err
		}
		steps.mark("payment transfer deleted")

		n, err := st.SetBillTransactionsStatus(ctx, userID, billID, core.Pending)
		if err != nil {
			return err
		}
		steps.mark("%d transactions reopened", n)

		closed := core.BillClosed
		if err := st.UpdateBill(ctx, userID, billID, core.BillPatch{Status: &closed}); err != nil {
			return err
		}
		steps.mark("bill marked closed")

		bill, err = st.GetBill(ctx, userID, billID)
		return err
	})
	if err != nil {
		return core.Bill{}, fmt.Errorf("revert bill payment: %w", err)
	}

	billLog(ctx).LogBillEvent(ctx, "Bill payment reverted",
		applog.OpRevert, userID, billID, bill.AccountID, payment.Amount.Cents)
	s.publish(ctx,
		s.event(core.EventBillReverted, userID, billID, bill.AccountID, payment.Amount),
		s.event(core.EventTransactionDeleted, userID, payment.ID, payment.AccountID, payment.Amount))
	return bill, nil
}
