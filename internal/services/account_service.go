package services

import (
	"context"
	"fmt"
	"strings"

	"finledger/internal/core"
	"finledger/internal/storage"
)

// AccountService manages accounts. Balances are derived from transactions;
// the only direct balance write is SetBalance on non-credit accounts.
type AccountService struct {
	*base
}

// HybridAccount describes a checking account with an attached credit card.
type HybridAccount struct {
	Name           string
	OpeningBalance core.Money
	ClosingDay     *int
	DueDay         *int
}

func (s *AccountService) GetAccount(ctx context.Context, userID, id string) (core.Account, error) {
	return s.store.GetAccount(ctx, userID, id)
}

func (s *AccountService) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	return s.store.ListAccounts(ctx, userID)
}

func (s *AccountService) CreateAccount(ctx context.Context, userID string, n core.NewAccount) (core.Account, error) {
	a, err := s.newAccount(userID, n)
	if err != nil {
		return core.Account{}, err
	}
	if err := s.store.InsertAccount(ctx, a); err != nil {
		return core.Account{}, err
	}
	return a, nil
}

func (s *AccountService) newAccount(userID string, n core.NewAccount) (core.Account, error) {
	n.Name = strings.TrimSpace(n.Name)
	if err := n.Validate(); err != nil {
		return core.Account{}, err
	}
	a := core.Account{
		ID:         s.newID(),
		UserID:     userID,
		Name:       n.Name,
		Type:       n.Type,
		Balance:    n.OpeningBalance,
		ClosingDay: n.ClosingDay,
		DueDay:     n.DueDay,
	}
	if a.IsCredit() {
		a.Balance = core.Money{}
	}
	return a, nil
}

// CreateHybridAccount creates a checking account and a "<name> - Card"
// credit account as one unit.
func (s *AccountService) CreateHybridAccount(ctx context.Context, userID string, h HybridAccount) (core.Account, core.Account, error) {
	checking, err := s.newAccount(userID, core.NewAccount{
		Name:           h.Name,
		Type:           core.Checking,
		OpeningBalance: h.OpeningBalance,
	})
	if err != nil {
		return core.Account{}, core.Account{}, err
	}
	card, err := s.newAccount(userID, core.NewAccount{
		Name:       checking.Name + " - Card",
		Type:       core.Credit,
		ClosingDay: h.ClosingDay,
		DueDay:     h.DueDay,
	})
	if err != nil {
		return core.Account{}, core.Account{}, err
	}

	err = s.run(ctx, "create hybrid account", func(st storage.Store, steps *stepLog) error {
		if err := st.InsertAccount(ctx, checking); err != nil {
			return err
		}
		steps.mark("checking account created")
		if err := st.InsertAccount(ctx, card); err != nil {
			return err
		}
		steps.mark("card account created")
		return nil
	})
	if err != nil {
		return core.Account{}, core.Account{}, fmt.Errorf("create hybrid account: %w", err)
	}
	return checking, card, nil
}

// UpdateAccount patches name, type and card days. An account cannot move
// between credit and non-credit types because its rows and bills depend on it.
func (s *AccountService) UpdateAccount(ctx context.Context, userID, id string, patch core.AccountPatch) (core.Account, error) {
	current, err := s.store.GetAccount(ctx, userID, id)
	if err != nil {
		return core.Account{}, err
	}
	if patch.Type != nil && (*patch.Type == core.Credit) != current.IsCredit() {
		return core.Account{}, &core.ValidationError{Field: "type", Reason: "cannot convert between credit and non-credit accounts"}
	}
	updated := patch.Apply(current)
	if err := updated.Validate(); err != nil {
		return core.Account{}, err
	}
	if err := s.store.UpdateAccount(ctx, updated); err != nil {
		return core.Account{}, err
	}
	return updated, nil
}

// SetBalance makes the derived balance of a non-credit account equal to
// newBalance by shifting its opening balance.
func (s *AccountService) SetBalance(ctx context.Context, userID, id string, newBalance core.Money) (core.Account, error) {
	var updated core.Account
	err := s.run(ctx, "set balance", func(st storage.Store, _ *stepLog) error {
		current, err := st.GetAccount(ctx, userID, id)
		if err != nil {
			return err
		}
		if current.IsCredit() {
			return &core.ValidationError{Field: "type", Reason: "credit account balances follow their bills"}
		}
		if err := st.AdjustOpeningBalance(ctx, userID, id, newBalance.Sub(current.Balance)); err != nil {
			return err
		}
		updated, err = st.GetAccount(ctx, userID, id)
		return err
	})
	if err != nil {
		return core.Account{}, err
	}
	return updated, nil
}

// DeleteAccount removes the account with its transactions and bills.
func (s *AccountService) DeleteAccount(ctx context.Context, userID, id string) error {
	return s.store.DeleteAccount(ctx, userID, id)
}
