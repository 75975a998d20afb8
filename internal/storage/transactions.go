package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"finledger/internal/core"
)

const transactionSelect = `SELECT id, user_id, account_id, destination_account_id, category_id, bill_id,
	settles_bill_id, type, payment_method, description, amount_cents, date, status,
	is_installment, installment_number, total_installments, parent_transaction_id
	FROM transactions`

func scanTransaction(s rowScanner) (core.Transaction, error) {
	var (
		t                                  core.Transaction
		dest, cat, bill, settles, parent   sql.NullString
		typ, method, status, date          string
		amount                             int64
		installmentNumber, totalInstallmts sql.NullInt64
	)
	err := s.Scan(&t.ID, &t.UserID, &t.AccountID, &dest, &cat, &bill, &settles,
		&typ, &method, &t.Description, &amount, &date, &status,
		&t.IsInstallment, &installmentNumber, &totalInstallmts, &parent)
	if err != nil {
		return core.Transaction{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, err
	}
	t.DestinationAccountID = stringPtr(dest)
	t.CategoryID = stringPtr(cat)
	t.BillID = stringPtr(bill)
	t.SettlesBillID = stringPtr(settles)
	t.Type = core.TransactionType(typ)
	t.PaymentMethod = core.PaymentMethod(method)
	t.Status = core.TransactionStatus(status)
	t.Amount = core.Money{Cents: amount}
	t.Date = d
	t.InstallmentNumber = intPtr(installmentNumber)
	t.TotalInstallments = intPtr(totalInstallmts)
	t.ParentTransactionID = stringPtr(parent)
	return t, nil
}

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO transactions (
			id, user_id, account_id, destination_account_id, category_id, bill_id, settles_bill_id,
			type, payment_method, description, amount_cents, date, status,
			is_installment, installment_number, total_installments, parent_transaction_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.AccountID, nullString(t.DestinationAccountID), nullString(t.CategoryID),
		nullString(t.BillID), nullString(t.SettlesBillID),
		string(t.Type), string(t.PaymentMethod), t.Description, t.Amount.Cents, t.Date.String(), string(t.Status),
		t.IsInstallment, nullInt(t.InstallmentNumber), nullInt(t.TotalInstallments), nullString(t.ParentTransactionID))
	if err != nil {
		return fmt.Errorf("create transaction: %w", mapError(err))
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"type", t.Type,
		"method", t.PaymentMethod,
		"amount_cents", t.Amount.Cents,
		"date", t.Date.String())
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	t, err := scanTransaction(r.q.QueryRowContext(ctx, transactionSelect+` WHERE user_id = ? AND id = ?`, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, &core.NotFoundError{Entity: "transaction", ID: id}
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return t, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string, f core.TransactionFilter) ([]core.Transaction, error) {
	where := []string{"user_id = ?"}
	args := []any{userID}
	if f.AccountID != "" {
		where = append(where, "(account_id = ? OR destination_account_id = ?)")
		args = append(args, f.AccountID, f.AccountID)
	}
	if f.BillID != "" {
		where = append(where, "bill_id = ?")
		args = append(args, f.BillID)
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.Year != 0 && f.Month != 0 {
		first := core.NewDate(f.Year, f.Month, 1)
		where = append(where, "date >= ? AND date < ?")
		args = append(args, first.String(), first.AddMonths(1).String())
	} else if f.Year != 0 {
		where = append(where, "date >= ? AND date < ?")
		args = append(args, core.NewDate(f.Year, 1, 1).String(), core.NewDate(f.Year+1, 1, 1).String())
	}

	rows, err := r.q.QueryContext(ctx, transactionSelect+" WHERE "+strings.Join(where, " AND ")+
		" ORDER BY date DESC, created_at DESC, COALESCE(installment_number, 0)", args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateTransactionDetails(ctx context.Context, t core.Transaction) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE transactions SET description = ?, category_id = ?, date = ?, bill_id = ?
		WHERE user_id = ? AND id = ?`,
		t.Description, nullString(t.CategoryID), t.Date.String(), nullString(t.BillID), t.UserID, t.ID)
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", t.ID, err)
	}
	return requireAffected(res, "transaction", t.ID)
}

func (r *SQLiteRepository) SetBillTransactionsStatus(ctx context.Context, userID, billID string, status core.TransactionStatus) (int64, error) {
	res, err := r.q.ExecContext(ctx, `UPDATE transactions SET status = ? WHERE user_id = ? AND bill_id = ?`,
		string(status), userID, billID)
	if err != nil {
		return 0, fmt.Errorf("set status of bill %s transactions: %w", billID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	slog.InfoContext(ctx, "Bill transactions status updated", "bill_id", billID, "status", status, "rows", n)
	return n, nil
}

func (r *SQLiteRepository) FindBillPayment(ctx context.Context, userID, billID string) (core.Transaction, error) {
	row := r.q.QueryRowContext(ctx, transactionSelect+`
		WHERE user_id = ? AND settles_bill_id = ? AND type = 'TRANSFER'`, userID, billID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, &core.NotFoundError{Entity: "bill payment", ID: billID}
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("find payment of bill %s: %w", billID, err)
	}
	return t, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM transactions WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if err := requireAffected(res, "transaction", id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction deleted from SQLite", "id", id)
	return nil
}
