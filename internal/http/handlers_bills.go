package http

import (
	"net/http"
	"strings"

	"finledger/internal/core"
	applog "finledger/internal/log"
)

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	f, err := billFilter(r)
	if err != nil {
		fail(w, r, applog.OpList, err)
		return
	}
	bills, err := s.ledger.Bills.ListBills(r.Context(), userID(r.Context()), f)
	if err != nil {
		fail(w, r, applog.OpList, err)
		return
	}
	NewJSONResponse().Data(bills).Write(w)
}

// handleGetOrCreateBill returns the bill of an account for a month, creating
// it on first use.
func (s *Server) handleGetOrCreateBill(w http.ResponseWriter, r *http.Request) {
	var req getOrCreateBillRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, applog.OpCreate, err)
		return
	}
	bill, err := s.ledger.Bills.GetOrCreateBill(r.Context(), userID(r.Context()), strings.TrimSpace(req.AccountID), req.Month, req.Year)
	if err != nil {
		fail(w, r, applog.OpCreate, err)
		return
	}
	NewJSONResponse().Data(bill).Write(w)
}

func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	bill, err := s.ledger.Bills.GetBill(r.Context(), userID(r.Context()), r.PathValue("id"))
	if err != nil {
		fail(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Data(bill).Write(w)
}

func (s *Server) handleUpdateBill(w http.ResponseWriter, r *http.Request) {
	var req updateBillRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, applog.OpUpdate, err)
		return
	}
	bill, err := s.ledger.Bills.UpdateBill(r.Context(), userID(r.Context()), r.PathValue("id"), core.BillPatch{
		Status:  req.Status,
		DueDate: req.DueDate,
	})
	if err != nil {
		fail(w, r, applog.OpUpdate, err)
		return
	}
	NewJSONResponse().Data(bill).Write(w)
}

func (s *Server) handleUpdateBillStatus(w http.ResponseWriter, r *http.Request) {
	var req billStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, applog.OpUpdate, err)
		return
	}
	bill, err := s.ledger.Bills.UpdateBillStatus(r.Context(), userID(r.Context()), r.PathValue("id"), req.Status)
	if err != nil {
		fail(w, r, applog.OpUpdate, err)
		return
	}
	NewJSONResponse().Data(bill).Write(w)
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Bills.DeleteBill(r.Context(), userID(r.Context()), r.PathValue("id")); err != nil {
		fail(w, r, applog.OpDelete, err)
		return
	}
	NewJSONResponse().Write(w)
}

func (s *Server) handlePayBill(w http.ResponseWriter, r *http.Request) {
	var req payBillRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, applog.OpPay, err)
		return
	}
	payment, err := s.ledger.Payments.PayBill(r.Context(), userID(r.Context()), r.PathValue("id"), strings.TrimSpace(req.SourceAccountID))
	if err != nil {
		fail(w, r, applog.OpPay, err)
		return
	}
	NewJSONResponse().Data(payment).Write(w)
}

func (s *Server) handleRevertBillPayment(w http.ResponseWriter, r *http.Request) {
	bill, err := s.ledger.Payments.RevertBillPayment(r.Context(), userID(r.Context()), r.PathValue("id"))
	if err != nil {
		fail(w, r, applog.OpRevert, err)
		return
	}
	NewJSONResponse().Data(bill).Write(w)
}
