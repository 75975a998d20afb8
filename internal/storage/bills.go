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

const billSelect = `SELECT b.id, b.user_id, b.account_id, b.month, b.year, b.status, bt.total_cents, b.due_date
	FROM bills b JOIN bill_totals bt ON bt.bill_id = b.id`

func scanBill(s rowScanner) (core.Bill, error) {
	var (
		b       core.Bill
		status  string
		total   int64
		dueDate string
	)
	if err := s.Scan(&b.ID, &b.UserID, &b.AccountID, &b.Month, &b.Year, &status, &total, &dueDate); err != nil {
		return core.Bill{}, err
	}
	d, err := core.ParseDate(dueDate)
	if err != nil {
		return core.Bill{}, err
	}
	b.Status = core.BillStatus(status)
	b.TotalAmount = core.Money{Cents: total}
	b.DueDate = d
	return b, nil
}

func (r *SQLiteRepository) InsertBill(ctx context.Context, b core.Bill) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO bills (id, user_id, account_id, month, year, status, due_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.AccountID, b.Month, b.Year, string(b.Status), b.DueDate.String())
	if err != nil {
		return fmt.Errorf("create bill: %w", mapError(err))
	}

	slog.InfoContext(ctx, "Bill saved to SQLite",
		"id", b.ID,
		"account_id", b.AccountID,
		"month", b.Month,
		"year", b.Year,
		"due_date", b.DueDate.String())
	return nil
}

func (r *SQLiteRepository) GetBill(ctx context.Context, userID, id string) (core.Bill, error) {
	b, err := scanBill(r.q.QueryRowContext(ctx, billSelect+` WHERE b.user_id = ? AND b.id = ?`, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Bill{}, &core.NotFoundError{Entity: "bill", ID: id}
	}
	if err != nil {
		return core.Bill{}, fmt.Errorf("get bill %s: %w", id, err)
	}
	return b, nil
}

func (r *SQLiteRepository) FindBill(ctx context.Context, userID, accountID string, month, year int) (core.Bill, error) {
	row := r.q.QueryRowContext(ctx, billSelect+`
		WHERE b.user_id = ? AND b.account_id = ? AND b.month = ? AND b.year = ?`,
		userID, accountID, month, year)
	b, err := scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Bill{}, &core.NotFoundError{Entity: "bill", ID: fmt.Sprintf("%s/%02d-%d", accountID, month, year)}
	}
	if err != nil {
		return core.Bill{}, fmt.Errorf("find bill: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) ListBills(ctx context.Context, userID string, f core.BillFilter) ([]core.Bill, error) {
	where := []string{"b.user_id = ?"}
	args := []any{userID}
	if f.AccountID != "" {
		where = append(where, "b.account_id = ?")
		args = append(args, f.AccountID)
	}
	if f.Year != 0 {
		where = append(where, "b.year = ?")
		args = append(args, f.Year)
	}
	if f.Status != "" {
		where = append(where, "b.status = ?")
		args = append(args, string(f.Status))
	}
	return r.queryBills(ctx, billSelect+" WHERE "+strings.Join(where, " AND ")+
		" ORDER BY b.year DESC, b.month DESC", args...)
}

func (r *SQLiteRepository) ListOpenBills(ctx context.Context) ([]core.Bill, error) {
	return r.queryBills(ctx, billSelect+` WHERE b.status = 'OPEN' ORDER BY b.year, b.month`)
}

func (r *SQLiteRepository) queryBills(ctx context.Context, query string, args ...any) ([]core.Bill, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()

	var out []core.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateBill(ctx context.Context, userID, id string, patch core.BillPatch) error {
	var (
		sets []string
		args []any
	)
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*patch.Status))
	}
	if patch.DueDate != nil {
		sets = append(sets, "due_date = ?")
		args = append(args, patch.DueDate.String())
	}
	if len(sets) == 0 {
		_, err := r.GetBill(ctx, userID, id)
		return err
	}
	args = append(args, userID, id)
	res, err := r.q.ExecContext(ctx, `UPDATE bills SET `+strings.Join(sets, ", ")+` WHERE user_id = ? AND id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update bill %s: %w", id, err)
	}
	if err := requireAffected(res, "bill", id); err != nil {
		return err
	}

	if patch.Status != nil {
		slog.InfoContext(ctx, "Bill status updated", "id", id, "status", *patch.Status)
	}
	return nil
}

func (r *SQLiteRepository) CloseBill(ctx context.Context, userID, id string) (bool, error) {
	res, err := r.q.ExecContext(ctx,
		`UPDATE bills SET status = ? WHERE user_id = ? AND id = ? AND status = ?`,
		string(core.BillClosed), userID, id, string(core.BillOpen))
	if err != nil {
		return false, fmt.Errorf("close bill %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("close bill %s: %w", id, err)
	}
	if n == 0 {
		return false, nil
	}
	slog.InfoContext(ctx, "Bill status updated", "id", id, "status", core.BillClosed)
	return true, nil
}

func (r *SQLiteRepository) DetachBillTransactions(ctx context.Context, userID, billID string) (int64, error) {
	res, err := r.q.ExecContext(ctx, `UPDATE transactions SET bill_id = NULL WHERE user_id = ? AND bill_id = ?`, userID, billID)
	if err != nil {
		return 0, fmt.Errorf("detach transactions of bill %s: %w", billID, err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) DeleteBill(ctx context.Context, userID, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM bills WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete bill %s: %w", id, err)
	}
	if err := requireAffected(res, "bill", id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Bill deleted from SQLite", "id", id)
	return nil
}
