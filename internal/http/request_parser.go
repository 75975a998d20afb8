package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"finledger/internal/core"
)

const maxBodyBytes = 1 << 20

// badRequestError reports a body or query that could not be parsed at all.
type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

// decodeJSON decodes a single JSON object into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return badRequest("request body is empty")
		case errors.As(err, &maxErr):
			return badRequest("request body too large")
		}
		return badRequest("invalid JSON body: %v", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return badRequest("request body must contain a single JSON object")
	}
	return nil
}

// queryInt reads an integer query parameter, returning def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest("query parameter %s must be an integer", name)
	}
	return n, nil
}

type createAccountRequest struct {
	Name           string           `json:"name"`
	Type           core.AccountType `json:"type"`
	OpeningBalance core.Money       `json:"opening_balance"`
	ClosingDay     *int             `json:"closing_day"`
	DueDay         *int             `json:"due_day"`
}

func (req createAccountRequest) toNewAccount() core.NewAccount {
	return core.NewAccount{
		Name:           sanitizeInput(req.Name),
		Type:           req.Type,
		OpeningBalance: req.OpeningBalance,
		ClosingDay:     req.ClosingDay,
		DueDay:         req.DueDay,
	}
}

type hybridAccountRequest struct {
	Name           string     `json:"name"`
	OpeningBalance core.Money `json:"opening_balance"`
	ClosingDay     *int       `json:"closing_day"`
	DueDay         *int       `json:"due_day"`
}

type updateAccountRequest struct {
	Name       *string           `json:"name"`
	Type       *core.AccountType `json:"type"`
	ClosingDay *int              `json:"closing_day"`
	DueDay     *int              `json:"due_day"`
}

func (req updateAccountRequest) toPatch() core.AccountPatch {
	return core.AccountPatch{
		Name:       sanitizePtr(req.Name),
		Type:       req.Type,
		ClosingDay: req.ClosingDay,
		DueDay:     req.DueDay,
	}
}

type setBalanceRequest struct {
	Balance *core.Money `json:"balance"`
}

type categoryRequest struct {
	Name  *string               `json:"name"`
	Type  *core.TransactionType `json:"type"`
	Color *string               `json:"color"`
}

func (req categoryRequest) toNewCategory() core.NewCategory {
	n := core.NewCategory{Name: deref(sanitizePtr(req.Name))}
	if req.Type != nil {
		n.Type = *req.Type
	}
	if req.Color != nil {
		n.Color = *req.Color
	}
	return n
}

func (req categoryRequest) toPatch() core.CategoryPatch {
	return core.CategoryPatch{Name: sanitizePtr(req.Name), Type: req.Type, Color: req.Color}
}

type getOrCreateBillRequest struct {
	AccountID string `json:"account_id"`
	Month     int    `json:"month"`
	Year      int    `json:"year"`
}

type updateBillRequest struct {
	Status  *core.BillStatus `json:"status"`
	DueDate *core.Date       `json:"due_date"`
}

type billStatusRequest struct {
	Status core.BillStatus `json:"status"`
}

type payBillRequest struct {
	SourceAccountID string `json:"source_account_id"`
}

type createTransactionRequest struct {
	AccountID            string               `json:"account_id"`
	DestinationAccountID *string              `json:"destination_account_id"`
	CategoryID           *string              `json:"category_id"`
	Type                 core.TransactionType `json:"type"`
	PaymentMethod        core.PaymentMethod   `json:"payment_method"`
	Description          string               `json:"description"`
	Amount               core.Money           `json:"amount"`
	Date                 core.Date            `json:"date"`
	TotalInstallments    int                  `json:"total_installments"`
}

func (req createTransactionRequest) toNewTransaction() core.NewTransaction {
	return core.NewTransaction{
		AccountID:            strings.TrimSpace(req.AccountID),
		DestinationAccountID: req.DestinationAccountID,
		CategoryID:           req.CategoryID,
		Type:                 req.Type,
		PaymentMethod:        req.PaymentMethod,
		Description:          sanitizeInput(req.Description),
		Amount:               req.Amount,
		Date:                 req.Date,
		TotalInstallments:    req.TotalInstallments,
	}
}

type updateTransactionRequest struct {
	AccountID            *string               `json:"account_id"`
	DestinationAccountID *string               `json:"destination_account_id"`
	CategoryID           *string               `json:"category_id"`
	Type                 *core.TransactionType `json:"type"`
	PaymentMethod        *core.PaymentMethod   `json:"payment_method"`
	Description          *string               `json:"description"`
	Amount               *core.Money           `json:"amount"`
	Date                 *core.Date            `json:"date"`
	ClearCategory        bool                  `json:"clear_category"`
}

func (req updateTransactionRequest) toPatch() core.TransactionPatch {
	return core.TransactionPatch{
		AccountID:            req.AccountID,
		DestinationAccountID: req.DestinationAccountID,
		CategoryID:           req.CategoryID,
		Type:                 req.Type,
		PaymentMethod:        req.PaymentMethod,
		Description:          sanitizePtr(req.Description),
		Amount:               req.Amount,
		Date:                 req.Date,
		ClearCategory:        req.ClearCategory,
	}
}

// transactionFilter reads the list filters from the query string.
func transactionFilter(r *http.Request) (core.TransactionFilter, error) {
	q := r.URL.Query()
	f := core.TransactionFilter{
		AccountID: q.Get("account_id"),
		BillID:    q.Get("bill_id"),
		Type:      core.TransactionType(strings.ToUpper(q.Get("type"))),
	}
	var err error
	if f.Year, err = queryInt(r, "year", 0); err != nil {
		return f, err
	}
	if f.Month, err = queryInt(r, "month", 0); err != nil {
		return f, err
	}
	if f.Type != "" && !f.Type.Valid() {
		return f, &core.ValidationError{Field: "type", Reason: "must be INCOME, EXPENSE or TRANSFER"}
	}
	if f.Month != 0 && (f.Month < 1 || f.Month > 12) {
		return f, &core.ValidationError{Field: "month", Reason: core.ErrInvalidMonth.Error()}
	}
	return f, nil
}

func billFilter(r *http.Request) (core.BillFilter, error) {
	q := r.URL.Query()
	f := core.BillFilter{
		AccountID: q.Get("account_id"),
		Status:    core.BillStatus(strings.ToUpper(q.Get("status"))),
	}
	var err error
	if f.Year, err = queryInt(r, "year", 0); err != nil {
		return f, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return f, &core.ValidationError{Field: "status", Reason: "must be OPEN, CLOSED or PAID"}
	}
	return f, nil
}
