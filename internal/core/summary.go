package core

// DashboardSummary aggregates the widgets shown on the landing page.
// All figures are scoped to a single user; empty result sets yield
// zero values rather than nulls.
type DashboardSummary struct {
	TotalBalance     Money
	AccountCount     int64
	TransactionCount int64

	TopExpenseCategories []CategoryCount
	RecentTransactions   []Transaction
	TopAccounts          []Account
	ActiveBudgets        []Budget

	// Rolling 30-day window.
	MonthIncome  Money
	MonthExpense Money
}

// CategoryCount is a category ranked by how many transactions use it.
type CategoryCount struct {
	Name  string
	Icon  string
	Count int64
}

// CategoryTotal is a category with its summed amount and usage count,
// used by the analytics page.
type CategoryTotal struct {
	Name  string
	Icon  string
	Total Money
	Count int64
}

// PeriodStats summarizes income and expense over the last N days.
type PeriodStats struct {
	Days    int
	Income  Money
	Expense Money
	Count   int64
}

// Net returns income minus expense for the period.
func (p PeriodStats) Net() Money {
	return p.Income.Sub(p.Expense)
}
