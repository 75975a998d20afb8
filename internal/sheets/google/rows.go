package google

import (
	"fmt"
	"strconv"
	"strings"

	"finledger/internal/core"
)

// Header is the column layout of a statements sheet.
var Header = []any{"Bill", "Period", "Account", "Date", "Description", "Type", "Installment", "Amount"}

// statementRows renders one row per bill transaction followed by a total row.
// Amounts are signed: refunds (INCOME) on a card reduce the bill.
func statementRows(st core.Statement) [][]any {
	period := fmt.Sprintf("%02d/%d", st.Bill.Month, st.Bill.Year)
	rows := make([][]any, 0, len(st.Transactions)+1)
	for _, t := range st.Transactions {
		if t.Type == core.Transfer {
			continue
		}
		amount := t.Amount
		if t.Type == core.Income {
			amount = core.Money{}.Sub(t.Amount)
		}
		rows = append(rows, []any{
			st.Bill.ID,
			period,
			st.AccountName,
			t.Date.String(),
			t.Description,
			string(t.Type),
			installmentLabel(t),
			amount.String(),
		})
	}
	rows = append(rows, []any{
		st.Bill.ID,
		period,
		st.AccountName,
		st.Bill.DueDate.String(),
		"TOTAL",
		string(st.Bill.Status),
		"",
		st.Bill.TotalAmount.String(),
	})
	return rows
}

func installmentLabel(t core.Transaction) string {
	if !t.IsInstallment || t.InstallmentNumber == nil || t.TotalInstallments == nil {
		return ""
	}
	return fmt.Sprintf("%d/%d", *t.InstallmentNumber, *t.TotalInstallments)
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}

// quoteSheet quotes a sheet name for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
