package core

import (
	"errors"
	"regexp"
	"strings"
)

const (
	Checking AccountType = "CHECKING"
	Credit   AccountType = "CREDIT"
	Cash     AccountType = "CASH"
)

const (
	Income   TransactionType = "INCOME"
	Expense  TransactionType = "EXPENSE"
	Transfer TransactionType = "TRANSFER"
)

const (
	MethodPix    PaymentMethod = "PIX"
	MethodDebit  PaymentMethod = "DEBIT"
	MethodCredit PaymentMethod = "CREDIT"
	MethodCash   PaymentMethod = "CASH"
)

const (
	Pending TransactionStatus = "PENDING"
	Paid    TransactionStatus = "PAID"
)

const (
	BillOpen   BillStatus = "OPEN"
	BillClosed BillStatus = "CLOSED"
	BillPaid   BillStatus = "PAID"
)

const (
	// DefaultDueDay is used for bills of credit accounts without a due day.
	DefaultDueDay = 10
	// DefaultCategoryColor is assigned to categories created without a color.
	DefaultCategoryColor = "#64748b"

	MaxInstallments   = 48
	MaxDescriptionLen = 200
	MaxNameLen        = 100
)

type (
	AccountType       string
	TransactionType   string
	PaymentMethod     string
	TransactionStatus string
	BillStatus        string

	Account struct {
		ID         string      `json:"id"`
		UserID     string      `json:"user_id"`
		Name       string      `json:"name"`
		Type       AccountType `json:"type"`
		Balance    Money       `json:"balance"`
		ClosingDay *int        `json:"closing_day,omitempty"`
		DueDay     *int        `json:"due_day,omitempty"`
	}

	Category struct {
		ID     string          `json:"id"`
		UserID string          `json:"user_id"`
		Name   string          `json:"name"`
		Type   TransactionType `json:"type"`
		Color  string          `json:"color"`
	}

	Bill struct {
		ID          string     `json:"id"`
		UserID      string     `json:"user_id"`
		AccountID   string     `json:"account_id"`
		Month       int        `json:"month"`
		Year        int        `json:"year"`
		Status      BillStatus `json:"status"`
		TotalAmount Money      `json:"total_amount"`
		DueDate     Date       `json:"due_date"`
	}

	Transaction struct {
		ID                   string            `json:"id"`
		UserID               string            `json:"user_id"`
		AccountID            string            `json:"account_id"`
		DestinationAccountID *string           `json:"destination_account_id,omitempty"`
		CategoryID           *string           `json:"category_id,omitempty"`
		BillID               *string           `json:"bill_id,omitempty"`
		SettlesBillID        *string           `json:"settles_bill_id,omitempty"`
		Type                 TransactionType   `json:"type"`
		PaymentMethod        PaymentMethod     `json:"payment_method"`
		Description          string            `json:"description"`
		Amount               Money             `json:"amount"`
		Date                 Date              `json:"date"`
		Status               TransactionStatus `json:"status"`
		IsInstallment        bool              `json:"is_installment"`
		InstallmentNumber    *int              `json:"installment_number,omitempty"`
		TotalInstallments    *int              `json:"total_installments,omitempty"`
		ParentTransactionID  *string           `json:"parent_transaction_id,omitempty"`
	}
)

// NewAccount is the input for creating an account. OpeningBalance may be
// negative for overdrawn accounts and is ignored for credit accounts.
type NewAccount struct {
	Name           string
	Type           AccountType
	OpeningBalance Money
	ClosingDay     *int
	DueDay         *int
}

// AccountPatch holds the mutable account fields. Nil fields are left untouched.
type AccountPatch struct {
	Name       *string
	Type       *AccountType
	ClosingDay *int
	DueDay     *int
}

type NewCategory struct {
	Name  string
	Type  TransactionType
	Color string
}

type CategoryPatch struct {
	Name  *string
	Type  *TransactionType
	Color *string
}

// BillPatch holds the directly editable bill fields. The total is derived
// from linked transactions and cannot be patched.
type BillPatch struct {
	Status  *BillStatus
	DueDate *Date
}

type BillFilter struct {
	AccountID string
	Year      int
	Status    BillStatus
}

// NewTransaction is the creation payload. TotalInstallments greater than one
// on a CREDIT payload expands into an installment set.
type NewTransaction struct {
	AccountID            string
	DestinationAccountID *string
	CategoryID           *string
	Type                 TransactionType
	PaymentMethod        PaymentMethod
	Description          string
	Amount               Money
	Date                 Date
	TotalInstallments    int
}

// TransactionPatch is a partial update. Amount, Type, AccountID,
// PaymentMethod and DestinationAccountID are financial fields.
type TransactionPatch struct {
	AccountID            *string
	DestinationAccountID *string
	CategoryID           *string
	Type                 *TransactionType
	PaymentMethod        *PaymentMethod
	Description          *string
	Amount               *Money
	Date                 *Date

	// ClearCategory detaches the category when CategoryID is nil.
	ClearCategory bool
}

type TransactionFilter struct {
	AccountID string
	BillID    string
	Type      TransactionType
	Year      int
	Month     int
}

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty name")
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func (t AccountType) Valid() bool {
	switch t {
	case Checking, Credit, Cash:
		return true
	}
	return false
}

func (t TransactionType) Valid() bool {
	switch t {
	case Income, Expense, Transfer:
		return true
	}
	return false
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodPix, MethodDebit, MethodCredit, MethodCash:
		return true
	}
	return false
}

func (s BillStatus) Valid() bool {
	switch s {
	case BillOpen, BillClosed, BillPaid:
		return true
	}
	return false
}

func (a Account) IsCredit() bool { return a.Type == Credit }

// DueDayOr returns the account due day, or def when the account has none.
func (a Account) DueDayOr(def int) int {
	if a.DueDay != nil {
		return *a.DueDay
	}
	return def
}

func (n NewAccount) Validate() error {
	if err := validateName(n.Name); err != nil {
		return err
	}
	if !n.Type.Valid() {
		return &ValidationError{Field: "type", Reason: "must be CHECKING, CREDIT or CASH"}
	}
	return validateCardDays(n.Type, n.ClosingDay, n.DueDay)
}

// Apply returns a copy of a with the patch applied.
func (p AccountPatch) Apply(a Account) Account {
	if p.Name != nil {
		a.Name = strings.TrimSpace(*p.Name)
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.ClosingDay != nil {
		a.ClosingDay = p.ClosingDay
	}
	if p.DueDay != nil {
		a.DueDay = p.DueDay
	}
	if a.Type != Credit {
		a.ClosingDay, a.DueDay = nil, nil
	}
	return a
}

func (a Account) Validate() error {
	if err := validateName(a.Name); err != nil {
		return err
	}
	if !a.Type.Valid() {
		return &ValidationError{Field: "type", Reason: "must be CHECKING, CREDIT or CASH"}
	}
	return validateCardDays(a.Type, a.ClosingDay, a.DueDay)
}

func validateCardDays(t AccountType, closingDay, dueDay *int) error {
	if t != Credit && (closingDay != nil || dueDay != nil) {
		return &ValidationError{Field: "closing_day", Reason: "only credit accounts have closing and due days"}
	}
	if closingDay != nil && (*closingDay < 1 || *closingDay > 31) {
		return &ValidationError{Field: "closing_day", Reason: ErrInvalidDay.Error()}
	}
	if dueDay != nil && (*dueDay < 1 || *dueDay > 31) {
		return &ValidationError{Field: "due_day", Reason: ErrInvalidDay.Error()}
	}
	return nil
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &ValidationError{Field: "name", Reason: ErrEmptyName.Error()}
	}
	if len(name) > MaxNameLen {
		return &ValidationError{Field: "name", Reason: "too long (max 100 characters)"}
	}
	return nil
}

func (c Category) Validate() error {
	if err := validateName(c.Name); err != nil {
		return err
	}
	if c.Type != Income && c.Type != Expense {
		return &ValidationError{Field: "type", Reason: "must be INCOME or EXPENSE"}
	}
	if !hexColor.MatchString(c.Color) {
		return &ValidationError{Field: "color", Reason: "must be a #rrggbb hex color"}
	}
	return nil
}

func (p CategoryPatch) Apply(c Category) Category {
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Type != nil {
		c.Type = *p.Type
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	return c
}

// IsCredit reports whether the transaction accrues on a bill instead of
// moving an account balance.
func (t Transaction) IsCredit() bool { return t.PaymentMethod == MethodCredit }

// AffectsBalance reports whether the row moves the balance of AccountID.
func (t Transaction) AffectsBalance() bool { return !t.IsCredit() }

// RootID is the id of the installment parent, or the transaction itself.
func (t Transaction) RootID() string {
	if t.IsInstallment && t.ParentTransactionID != nil {
		return *t.ParentTransactionID
	}
	return t.ID
}

// Validate checks a creation payload. Account existence and balances are
// verified by the ledger.
func (n NewTransaction) Validate() error {
	if strings.TrimSpace(n.AccountID) == "" {
		return &ValidationError{Field: "account_id", Reason: "required"}
	}
	if !n.Type.Valid() {
		return &ValidationError{Field: "type", Reason: "must be INCOME, EXPENSE or TRANSFER"}
	}
	if !n.PaymentMethod.Valid() {
		return &ValidationError{Field: "payment_method", Reason: "must be PIX, DEBIT, CREDIT or CASH"}
	}
	if err := n.Amount.Validate(); err != nil {
		return &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if err := n.Date.Validate(); err != nil {
		return &ValidationError{Field: "date", Reason: err.Error()}
	}
	if strings.TrimSpace(n.Description) == "" {
		return &ValidationError{Field: "description", Reason: ErrEmptyDescription.Error()}
	}
	if len(n.Description) > MaxDescriptionLen {
		return &ValidationError{Field: "description", Reason: "too long (max 200 characters)"}
	}
	if n.Type == Transfer {
		if n.DestinationAccountID == nil || *n.DestinationAccountID == "" {
			return &ValidationError{Field: "destination_account_id", Reason: "required for transfers"}
		}
		if *n.DestinationAccountID == n.AccountID {
			return &ValidationError{Field: "destination_account_id", Reason: "must differ from account_id"}
		}
		if n.PaymentMethod == MethodCredit {
			return &ValidationError{Field: "payment_method", Reason: "transfers cannot use CREDIT"}
		}
	} else if n.DestinationAccountID != nil {
		return &ValidationError{Field: "destination_account_id", Reason: "only transfers have a destination"}
	}
	if n.TotalInstallments < 0 || n.TotalInstallments > MaxInstallments {
		return &ValidationError{Field: "total_installments", Reason: "must be between 1 and 48"}
	}
	if n.TotalInstallments > 1 && n.PaymentMethod != MethodCredit {
		return &ValidationError{Field: "total_installments", Reason: "installments require the CREDIT payment method"}
	}
	return nil
}

// IsFinancial reports whether the patch changes a field that moves balances
// compared with the original transaction.
func (p TransactionPatch) IsFinancial(orig Transaction) bool {
	if p.Amount != nil && p.Amount.Cents != orig.Amount.Cents {
		return true
	}
	if p.Type != nil && *p.Type != orig.Type {
		return true
	}
	if p.AccountID != nil && *p.AccountID != orig.AccountID {
		return true
	}
	if p.PaymentMethod != nil && *p.PaymentMethod != orig.PaymentMethod {
		return true
	}
	if p.DestinationAccountID != nil && (orig.DestinationAccountID == nil || *p.DestinationAccountID != *orig.DestinationAccountID) {
		return true
	}
	return false
}

// Recreate builds the single-row payload that replaces orig under a
// financial patch.
func (p TransactionPatch) Recreate(orig Transaction) NewTransaction {
	n := NewTransaction{
		AccountID:            orig.AccountID,
		DestinationAccountID: orig.DestinationAccountID,
		CategoryID:           orig.CategoryID,
		Type:                 orig.Type,
		PaymentMethod:        orig.PaymentMethod,
		Description:          orig.Description,
		Amount:               orig.Amount,
		Date:                 orig.Date,
		TotalInstallments:    1,
	}
	if p.AccountID != nil {
		n.AccountID = *p.AccountID
	}
	if p.DestinationAccountID != nil {
		n.DestinationAccountID = p.DestinationAccountID
	}
	if p.CategoryID != nil {
		n.CategoryID = p.CategoryID
	} else if p.ClearCategory {
		n.CategoryID = nil
	}
	if p.Type != nil {
		n.Type = *p.Type
	}
	if n.Type != Transfer {
		n.DestinationAccountID = nil
	}
	if p.PaymentMethod != nil {
		n.PaymentMethod = *p.PaymentMethod
	}
	if p.Description != nil {
		n.Description = *p.Description
	}
	if p.Amount != nil {
		n.Amount = *p.Amount
	}
	if p.Date != nil {
		n.Date = *p.Date
	}
	return n
}

func (p BillPatch) Validate() error {
	if p.Status != nil && !p.Status.Valid() {
		return &ValidationError{Field: "status", Reason: "must be OPEN, CLOSED or PAID"}
	}
	if p.DueDate != nil {
		if err := p.DueDate.Validate(); err != nil {
			return &ValidationError{Field: "due_date", Reason: err.Error()}
		}
	}
	return nil
}

// ValidatePeriod checks a bill month and year.
func ValidatePeriod(month, year int) error {
	if month < 1 || month > 12 {
		return &ValidationError{Field: "month", Reason: ErrInvalidMonth.Error()}
	}
	if year < 1970 || year > 9999 {
		return &ValidationError{Field: "year", Reason: "out of range"}
	}
	return nil
}
