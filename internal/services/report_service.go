package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"finledger/internal/core"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultForecastMonths is the projection horizon of Forecast.
	DefaultForecastMonths = 3
	forecastHistoryMonths = 3
	uncategorized         = "Uncategorized"
)

// ReportService computes read-only summaries over the ledger.
type ReportService struct {
	*base
}

// MonthOverview totals income and expense of a month and breaks expenses
// down by category, largest first. Transfers are excluded.
func (s *ReportService) MonthOverview(ctx context.Context, userID string, year, month int) (core.MonthOverview, error) {
	if err := core.ValidatePeriod(month, year); err != nil {
		return core.MonthOverview{}, err
	}

	var (
		txs        []core.Transaction
		categories []core.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.store.ListTransactions(gctx, userID, core.TransactionFilter{Year: year, Month: month})
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.store.ListCategories(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.MonthOverview{}, fmt.Errorf("month overview: %w", err)
	}

	byID := make(map[string]core.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	overview := core.MonthOverview{Year: year, Month: month}
	sums := map[string]*core.CategoryAmount{}
	for _, t := range txs {
		switch t.Type {
		case core.Income:
			overview.Income = overview.Income.Add(t.Amount)
		case core.Expense:
			overview.Expense = overview.Expense.Add(t.Amount)

			key := ""
			if t.CategoryID != nil {
				key = *t.CategoryID
			}
			ca, ok := sums[key]
			if !ok {
				ca = &core.CategoryAmount{CategoryID: key, Name: uncategorized}
				if c, found := byID[key]; found {
					ca.Name, ca.Color = c.Name, c.Color
				}
				sums[key] = ca
			}
			ca.Amount = ca.Amount.Add(t.Amount)
		}
	}
	overview.Net = overview.Income.Sub(overview.Expense)

	overview.ByCategory = make([]core.CategoryAmount, 0, len(sums))
	for _, ca := range sums {
		overview.ByCategory = append(overview.ByCategory, *ca)
	}
	sort.Slice(overview.ByCategory, func(i, j int) bool {
		a, b := overview.ByCategory[i], overview.ByCategory[j]
		if a.Amount.Cents != b.Amount.Cents {
			return a.Amount.Cents > b.Amount.Cents
		}
		return a.Name < b.Name
	})
	return overview, nil
}

// Forecast projects the cash position (checking and cash accounts) over the
// next months using the average income and expense of the previous three
// months and the open or closed bills of each projected month.
func (s *ReportService) Forecast(ctx context.Context, userID string, now time.Time, months int) (core.Forecast, error) {
	if months <= 0 {
		months = DefaultForecastMonths
	}
	current := core.NewDate(now.Year(), int(now.Month()), 1)

	var (
		accounts []core.Account
		bills    []core.Bill
		history  = make([][]core.Transaction, forecastHistoryMonths)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = s.store.ListAccounts(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		bills, err = s.store.ListBills(gctx, userID, core.BillFilter{})
		return err
	})
	for i := range forecastHistoryMonths {
		d := current.AddMonths(-(i + 1))
		g.Go(func() error {
			txs, err := s.store.ListTransactions(gctx, userID, core.TransactionFilter{Year: d.Year(), Month: d.Month()})
			history[i] = txs
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return core.Forecast{}, fmt.Errorf("forecast: %w", err)
	}

	var f core.Forecast
	for _, a := range accounts {
		if a.Type == core.Checking || a.Type == core.Cash {
			f.CurrentCash = f.CurrentCash.Add(a.Balance)
		}
	}

	var income, expense core.Money
	withData := 0
	for _, txs := range history {
		hasData := false
		for _, t := range txs {
			switch t.Type {
			case core.Income:
				income = income.Add(t.Amount)
				hasData = true
			case core.Expense:
				expense = expense.Add(t.Amount)
				hasData = true
			}
		}
		if hasData {
			withData++
		}
	}
	if withData > 0 {
		f.AvgIncome = income.Split(withData)
		f.AvgExpense = expense.Split(withData)
	}

	running := f.CurrentCash
	for i := 1; i <= months; i++ {
		d := current.AddMonths(i)
		var due core.Money
		for _, b := range bills {
			if b.Month == d.Month() && b.Year == d.Year() && (b.Status == core.BillOpen || b.Status == core.BillClosed) {
				due = due.Add(b.TotalAmount)
			}
		}
		running = running.Add(f.AvgIncome).Sub(f.AvgExpense).Sub(due)
		f.Months = append(f.Months, core.ForecastMonth{
			Year:            d.Year(),
			Month:           d.Month(),
			ExpectedIncome:  f.AvgIncome,
			ExpectedExpense: f.AvgExpense,
			BillsDue:        due,
			Balance:         running,
			Negative:        running.Cents < 0,
		})
	}
	return f, nil
}
