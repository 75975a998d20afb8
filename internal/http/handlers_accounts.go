package http

import (
	"net/http"

	applog "finledger/internal/log"
	"finledger/internal/services"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.ledger.Accounts.ListAccounts(r.Context(), userID(r.Context()))
	if err != nil {
		fail(w, r, applog.OpList, err)
		return
	}
	NewJSONResponse().Data(accounts).Write(w)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := s.ledger.Accounts.GetAccount(r.Context(), userID(r.Context()), r.PathValue("id"))
	if err != nil {
		fail(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Data(account).Write(w)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, applog.OpCreate, err)
		return
	}
	account, err := s.ledger.Accounts.CreateAccount(r.Context(), userID(r.Context()), req.toNewAccount())
	if err != nil {
		fail(w, r, applog.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(account).Write(w)
}

func (s *Server) handleCreateHybridAccount(w http.ResponseWriter, r *http.Request) {
	var req hybridAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, applog.OpCreate, err)
		return
	}
	checking, card, err := s.ledger.Accounts.CreateHybridAccount(r.Context(), userID(r.Context()), services.HybridAccount{
		Name:           sanitizeInput(req.Name),
		OpeningBalance: req.OpeningBalance,
		ClosingDay:     req.ClosingDay,
		DueDay:         req.DueDay,
	})
	if err != nil {
		fail(w, r, applog.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(map[string]any{
		"checking": checking,
		"card":     card,
	}).Write(w)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req updateAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, applog.OpUpdate, err)
		return
	}
	account, err := s.ledger.Accounts.UpdateAccount(r.Context(), userID(r.Context()), r.PathValue("id"), req.toPatch())
	if err != nil {
		fail(w, r, applog.OpUpdate, err)
		return
	}
	NewJSONResponse().Data(account).Write(w)
}

func (s *Server) handleSetBalance(w http.ResponseWriter, r *http.Request) {
	var req setBalanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, applog.OpUpdate, err)
		return
	}
	if req.Balance == nil {
		fail(w, r, applog.OpUpdate, badRequest("balance is required"))
		return
	}
	account, err := s.ledger.Accounts.SetBalance(r.Context(), userID(r.Context()), r.PathValue("id"), *req.Balance)
	if err != nil {
		fail(w, r, applog.OpUpdate, err)
		return
	}
	NewJSONResponse().Data(account).Write(w)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Accounts.DeleteAccount(r.Context(), userID(r.Context()), r.PathValue("id")); err != nil {
		fail(w, r, applog.OpDelete, err)
		return
	}
	NewJSONResponse().Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.ledger.Categories.ListCategories(r.Context(), userID(r.Context()))
	if err != nil {
		fail(w, r, applog.OpList, err)
		return
	}
	NewJSONResponse().Data(categories).Write(w)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := s.ledger.Categories.GetCategory(r.Context(), userID(r.Context()), r.PathValue("id"))
	if err != nil {
		fail(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Data(category).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, applog.OpCreate, err)
		return
	}
	category, err := s.ledger.Categories.CreateCategory(r.Context(), userID(r.Context()), req.toNewCategory())
	if err != nil {
		fail(w, r, applog.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(category).Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, applog.OpUpdate, err)
		return
	}
	category, err := s.ledger.Categories.UpdateCategory(r.Context(), userID(r.Context()), r.PathValue("id"), req.toPatch())
	if err != nil {
		fail(w, r, applog.OpUpdate, err)
		return
	}
	NewJSONResponse().Data(category).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Categories.DeleteCategory(r.Context(), userID(r.Context()), r.PathValue("id")); err != nil {
		fail(w, r, applog.OpDelete, err)
		return
	}
	NewJSONResponse().Write(w)
}
