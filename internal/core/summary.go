package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	CategoryID string `json:"category_id,omitempty"`
	Name       string `json:"name"`
	Color      string `json:"color,omitempty"`
	Amount     Money  `json:"amount"`
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year       int              `json:"year"`
	Month      int              `json:"month"` // 1-12
	Income     Money            `json:"income"`
	Expense    Money            `json:"expense"`
	Net        Money            `json:"net"`
	ByCategory []CategoryAmount `json:"by_category"`
}

// ForecastMonth is the projected cash position at the end of a month.
type ForecastMonth struct {
	Year            int   `json:"year"`
	Month           int   `json:"month"`
	ExpectedIncome  Money `json:"expected_income"`
	ExpectedExpense Money `json:"expected_expense"`
	BillsDue        Money `json:"bills_due"`
	Balance         Money `json:"balance"`
	Negative        bool  `json:"negative"`
}

type Forecast struct {
	CurrentCash Money           `json:"current_cash"`
	AvgIncome   Money           `json:"avg_income"`
	AvgExpense  Money           `json:"avg_expense"`
	Months      []ForecastMonth `json:"months"`
}

// Statement is a paid bill with its transactions, as exported to sheets.
type Statement struct {
	Bill         Bill          `json:"bill"`
	AccountName  string        `json:"account_name"`
	Transactions []Transaction `json:"transactions"`
}
