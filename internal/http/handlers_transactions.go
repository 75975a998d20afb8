package http

import (
	"net/http"

	applog "finledger/internal/log"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := transactionFilter(r)
	if err != nil {
		fail(w, r, applog.OpList, err)
		return
	}
	txs, err := s.ledger.Transactions.ListTransactions(r.Context(), userID(r.Context()), f)
	if err != nil {
		fail(w, r, applog.OpList, err)
		return
	}
	NewJSONResponse().Data(txs).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.ledger.Transactions.GetTransaction(r.Context(), userID(r.Context()), r.PathValue("id"))
	if err != nil {
		fail(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Data(tx).Write(w)
}

// handleCreateTransaction answers with every created row: one, or one per
// installment.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, applog.OpCreate, err)
		return
	}
	rows, err := s.ledger.Transactions.CreateTransaction(r.Context(), userID(r.Context()), req.toNewTransaction())
	if err != nil {
		fail(w, r, applog.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(rows).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req updateTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, applog.OpUpdate, err)
		return
	}
	tx, err := s.ledger.Transactions.UpdateTransaction(r.Context(), userID(r.Context()), r.PathValue("id"), req.toPatch())
	if err != nil {
		fail(w, r, applog.OpUpdate, err)
		return
	}
	NewJSONResponse().Data(tx).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Transactions.DeleteTransaction(r.Context(), userID(r.Context()), r.PathValue("id")); err != nil {
		fail(w, r, applog.OpDelete, err)
		return
	}
	NewJSONResponse().Write(w)
}
