package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConflict reports a uniqueness violation in the store.
var ErrConflict = errors.New("conflict")

// ValidationError is returned before any write when input is malformed or
// violates a domain rule.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InsufficientFundsError reports a failed balance pre-check.
type InsufficientFundsError struct {
	AccountID   string
	AccountName string
	Available   Money
	Required    Money
}

func (e *InsufficientFundsError) Error() string {
	name := e.AccountName
	if name == "" {
		name = e.AccountID
	}
	return fmt.Sprintf("insufficient funds in %s: missing %s", name, e.Missing())
}

// Missing is the amount the account lacks.
func (e *InsufficientFundsError) Missing() Money {
	return e.Required.Sub(e.Available)
}

// NotFoundError reports a missing account, category, bill or transaction.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// PartialWorkflowError is returned when a multi-step workflow ran without a
// store transaction and failed after some writes had already committed.
type PartialWorkflowError struct {
	Workflow  string
	Completed []string
	Err       error
}

func (e *PartialWorkflowError) Error() string {
	return fmt.Sprintf("%s partially applied (completed: %s): %v",
		e.Workflow, strings.Join(e.Completed, ", "), e.Err)
}

func (e *PartialWorkflowError) Unwrap() error { return e.Err }

// CheckFunds returns an InsufficientFundsError if a cannot cover required.
func CheckFunds(a Account, required Money) error {
	if a.Balance.Covers(required) {
		return nil
	}
	return &InsufficientFundsError{
		AccountID:   a.ID,
		AccountName: a.Name,
		Available:   a.Balance,
		Required:    required,
	}
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsInsufficientFunds(err error) bool {
	var ie *InsufficientFundsError
	return errors.As(err, &ie)
}

func IsPartial(err error) bool {
	var pe *PartialWorkflowError
	return errors.As(err, &pe)
}
