// This file implements the strategy used to decide when an OPEN bill closes.
// Cards with a closing day close on that day of the bill month; cards
// without one close when the bill month ends.

package services

import (
	"fmt"
	"time"

	"finledger/internal/core"
)

type ClosingPolicy string

const (
	ClosingDayPolicy ClosingPolicy = "closing_day"
	MonthEndPolicy   ClosingPolicy = "month_end"
)

// ClosingChecker is the strategy interface for bill closing.
type ClosingChecker interface {
	// ClosingDate returns the first day on which the bill is closed.
	ClosingDate(bill core.Bill, account core.Account) core.Date
}

// ClosingDayChecker closes a bill on the card's closing day of the bill
// month, clamped to the month length (a closing day of 31 closes on Feb 28).
type ClosingDayChecker struct{}

func (ClosingDayChecker) ClosingDate(bill core.Bill, account core.Account) core.Date {
	day := core.DaysIn(bill.Year, bill.Month)
	if account.ClosingDay != nil {
		day = *account.ClosingDay
	}
	return core.ClampedDate(bill.Year, bill.Month, day)
}

// MonthEndChecker closes a bill on the first day of the following month.
type MonthEndChecker struct{}

func (MonthEndChecker) ClosingDate(bill core.Bill, _ core.Account) core.Date {
	return core.NewDate(bill.Year, bill.Month, 1).AddMonths(1)
}

var closingStrategies = map[ClosingPolicy]ClosingChecker{
	ClosingDayPolicy: ClosingDayChecker{},
	MonthEndPolicy:   MonthEndChecker{},
}

// GetClosingChecker returns the checker registered for policy.
func GetClosingChecker(policy ClosingPolicy) (ClosingChecker, error) {
	checker, ok := closingStrategies[policy]
	if !ok {
		return nil, fmt.Errorf("unknown closing policy: %s", policy)
	}
	return checker, nil
}

// RegisterClosingChecker registers or replaces the checker of a policy.
func RegisterClosingChecker(policy ClosingPolicy, checker ClosingChecker) {
	closingStrategies[policy] = checker
}

// PolicyFor picks the closing policy of a card account.
func PolicyFor(account core.Account) ClosingPolicy {
	if account.ClosingDay != nil {
		return ClosingDayPolicy
	}
	return MonthEndPolicy
}

// IsClosable reports whether bill should be CLOSED at now.
func IsClosable(checker ClosingChecker, bill core.Bill, account core.Account, now time.Time) bool {
	if bill.Status != core.BillOpen {
		return false
	}
	return !core.DateOf(now).Before(checker.ClosingDate(bill, account).Time)
}
