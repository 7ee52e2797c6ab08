package core

// CategoryExpense is one slice of the doughnut chart: the expense total of a
// single category over the seven-day window.
type CategoryExpense struct {
	CategoryName    string `json:"categoryName"`
	Amount          Money  `json:"amount"`
	FormattedAmount string `json:"formattedAmount"`
}

// DailyTotals is one point of the spline chart, labelled "dd-Mon".
type DailyTotals struct {
	Day     string `json:"day"`
	Income  Money  `json:"income"`
	Expense Money  `json:"expense"`
}

// RecentTransaction is a transaction whose date has been rendered for display
// as "dd-Mon-yyyy".
type RecentTransaction struct {
	ID           int64        `json:"id"`
	CategoryID   int64        `json:"categoryId"`
	UserID       int64        `json:"userId"`
	Amount       Money        `json:"amount"`
	Date         string       `json:"date"`
	Note         string       `json:"note"`
	CategoryName string       `json:"categoryName,omitempty"`
	CategoryType CategoryType `json:"categoryType,omitempty"`
}

// Dashboard is computed per request and never stored.
type Dashboard struct {
	LastSevenTransactions []Transaction       `json:"lastSevenTransactions"`
	MonthlyTransactions   []Transaction       `json:"monthlyTransactions"`
	TotalIncome           Money               `json:"totalIncome"`
	TotalExpense          Money               `json:"totalExpense"`
	Balance               Money               `json:"balance"`
	TotalIncomeMonthly    Money               `json:"totalIncomeMonthly"`
	TotalExpenseMonthly   Money               `json:"totalExpenseMonthly"`
	BalanceMonthly        Money               `json:"balanceMonthly"`
	DoughnutChartData     []CategoryExpense   `json:"doughnutChartData"`
	SplineChartData       []DailyTotals       `json:"splineChartData"`
	RecentTransactions    []RecentTransaction `json:"recentTransactions"`
}

// WindowTotals holds the income, expense and balance of one window.
type WindowTotals struct {
	Income  Money
	Expense Money
	Balance Money
}

// Totals partitions txs by category type and sums each side. Transactions
// with an unknown type count toward neither.
func Totals(txs []Transaction) WindowTotals {
	income := Sum(OfType(txs, Income))
	expense := Sum(OfType(txs, Expense))
	return WindowTotals{Income: income, Expense: expense, Balance: income.Sub(expense)}
}

// Recent renders tx for the recent-transactions list.
func Recent(tx Transaction) RecentTransaction {
	return RecentTransaction{
		ID:           tx.ID,
		CategoryID:   tx.CategoryID,
		UserID:       tx.UserID,
		Amount:       tx.Amount,
		Date:         tx.Date.LongLabel(),
		Note:         tx.Note,
		CategoryName: tx.CategoryName,
		CategoryType: tx.CategoryType,
	}
}
