package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"finledger/internal/core"
)

const accountColumns = `a.id, a.user_id, a.name, a.type, ab.balance_cents, a.closing_day, a.due_day`

const accountFrom = ` FROM accounts a JOIN account_balances ab ON ab.account_id = a.id`

func scanAccount(s rowScanner) (core.Account, error) {
	var (
		a          core.Account
		typ        string
		balance    int64
		closingDay sql.NullInt64
		dueDay     sql.NullInt64
	)
	if err := s.Scan(&a.ID, &a.UserID, &a.Name, &typ, &balance, &closingDay, &dueDay); err != nil {
		return core.Account{}, err
	}
	a.Type = core.AccountType(typ)
	a.Balance = core.Money{Cents: balance}
	a.ClosingDay = intPtr(closingDay)
	a.DueDay = intPtr(dueDay)
	return a, nil
}

func (r *SQLiteRepository) InsertAccount(ctx context.Context, a core.Account) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO accounts (id, user_id, name, type, opening_balance_cents, closing_day, due_day)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Name, string(a.Type), a.Balance.Cents, nullInt(a.ClosingDay), nullInt(a.DueDay))
	if err != nil {
		return fmt.Errorf("create account: %w", mapError(err))
	}

	slog.InfoContext(ctx, "Account saved to SQLite",
		"id", a.ID,
		"user_id", a.UserID,
		"type", a.Type,
		"opening_cents", a.Balance.Cents)
	return nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, userID, id string) (core.Account, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+accountColumns+accountFrom+`
		WHERE a.user_id = ? AND a.id = ?`, userID, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, &core.NotFoundError{Entity: "account", ID: id}
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %s: %w", id, err)
	}
	return a, nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+accountColumns+accountFrom+`
		WHERE a.user_id = ?
		ORDER BY a.name, a.created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateAccount writes name, type and card days. The balance is never
// written here.
func (r *SQLiteRepository) UpdateAccount(ctx context.Context, a core.Account) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE accounts SET name = ?, type = ?, closing_day = ?, due_day = ?
		WHERE user_id = ? AND id = ?`,
		a.Name, string(a.Type), nullInt(a.ClosingDay), nullInt(a.DueDay), a.UserID, a.ID)
	if err != nil {
		return fmt.Errorf("update account %s: %w", a.ID, mapError(err))
	}
	return requireAffected(res, "account", a.ID)
}

func (r *SQLiteRepository) AdjustOpeningBalance(ctx context.Context, userID, id string, delta core.Money) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE accounts SET opening_balance_cents = opening_balance_cents + ?
		WHERE user_id = ? AND id = ?`, delta.Cents, userID, id)
	if err != nil {
		return fmt.Errorf("adjust balance of account %s: %w", id, err)
	}
	if err := requireAffected(res, "account", id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Account balance adjusted",
		"id", id,
		"delta_cents", delta.Cents)
	return nil
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, userID, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM accounts WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete account %s: %w", id, err)
	}
	if err := requireAffected(res, "account", id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Account deleted from SQLite", "id", id)
	return nil
}
