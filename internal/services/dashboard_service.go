package services

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/core"
	"expensetracker/internal/ports"
)

const (
	weekDays    = 7
	monthDays   = 30
	recentLimit = 5
)

// DashboardService turns a user's raw transactions into dashboard data.
type DashboardService struct {
	repo      ports.TransactionReader
	formatter *core.CurrencyFormatter
}

func NewDashboardService(repo ports.TransactionReader, formatter *core.CurrencyFormatter) *DashboardService {
	if formatter == nil {
		formatter = core.DefaultCurrencyFormatter()
	}
	return &DashboardService{repo: repo, formatter: formatter}
}

// Compute builds the dashboard for userID as of now. The seven-day window
// covers now-6 through now and the monthly window now-30 through now, both by
// calendar date in now's location.
//
// The two windows and the recent list are fetched concurrently as independent
// reads. If any fetch fails, its error is returned as is and no dashboard is
// produced.
func (s *DashboardService) Compute(ctx context.Context, userID int64, now time.Time) (core.Dashboard, error) {
	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return core.Dashboard{}, fmt.Errorf("check user %d: %w", userID, err)
	}
	if !exists {
		return core.Dashboard{}, core.NotFoundError("user", userID)
	}

	today := core.DateOf(now)
	weekStart := today.AddDays(-(weekDays - 1))
	monthStart := today.AddDays(-monthDays)

	var week, recent, month []core.Transaction
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		week, err = s.repo.FindByUserInRange(gctx, userID, weekStart, today)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.repo.FindRecentByUser(gctx, userID, recentLimit)
		return err
	})
	g.Go(func() error {
		var err error
		month, err = s.repo.FindByUserInRange(gctx, userID, monthStart, today)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Dashboard{}, err
	}

	weekly := core.Totals(week)
	monthly := core.Totals(month)

	d := core.Dashboard{
		LastSevenTransactions: nonNil(week),
		MonthlyTransactions:   nonNil(month),
		TotalIncome:           weekly.Income,
		TotalExpense:          weekly.Expense,
		Balance:               weekly.Balance,
		TotalIncomeMonthly:    monthly.Income,
		TotalExpenseMonthly:   monthly.Expense,
		BalanceMonthly:        monthly.Balance,
		DoughnutChartData:     s.expenseByCategory(week),
		SplineChartData:       dailySeries(week, weekStart),
		RecentTransactions:    make([]core.RecentTransaction, 0, len(recent)),
	}
	for _, tx := range recent {
		d.RecentTransactions = append(d.RecentTransactions, core.Recent(tx))
	}

	slog.DebugContext(ctx, "Dashboard computed",
		"user_id", userID,
		"week_transactions", len(week),
		"month_transactions", len(month),
		"recent_transactions", len(recent),
		"categories", len(d.DoughnutChartData))

	return d, nil
}

// expenseByCategory sums expenses per category, ascending by amount. Equal
// amounts keep the order in which their category first appeared.
func (s *DashboardService) expenseByCategory(txs []core.Transaction) []core.CategoryExpense {
	groups := core.GroupBy(core.OfType(txs, core.Expense), func(tx core.Transaction) int64 { return tx.CategoryID })

	out := make([]core.CategoryExpense, 0, len(groups))
	for _, g := range groups {
		total := core.Sum(g.Items)
		out = append(out, core.CategoryExpense{
			CategoryName:    g.Items[0].CategoryName,
			Amount:          total,
			FormattedAmount: s.formatter.Format(total),
		})
	}
	slices.SortStableFunc(out, func(a, b core.CategoryExpense) int {
		return cmp.Compare(a.Amount.Cents, b.Amount.Cents)
	})
	return out
}

// dailySeries emits one point per day from start through start+6, zero
// filled. Days are matched on their "dd-Mon" label, so two dates a year apart
// would collide; the seven-day window never spans such a pair.
func dailySeries(txs []core.Transaction, start core.Date) []core.DailyTotals {
	income := sumsByDayLabel(core.OfType(txs, core.Income))
	expense := sumsByDayLabel(core.OfType(txs, core.Expense))

	out := make([]core.DailyTotals, 0, weekDays)
	for i := 0; i < weekDays; i++ {
		label := start.AddDays(i).ShortLabel()
		out = append(out, core.DailyTotals{
			Day:     label,
			Income:  income[label],
			Expense: expense[label],
		})
	}
	return out
}

// sumsByDayLabel groups by calendar date and keys each sum by the date's
// short label. When two dates share a label the first one seen wins.
func sumsByDayLabel(txs []core.Transaction) map[string]core.Money {
	groups := core.GroupBy(txs, func(tx core.Transaction) string { return tx.Date.String() })
	sums := make(map[string]core.Money, len(groups))
	for _, g := range groups {
		label := g.Items[0].Date.ShortLabel()
		if _, seen := sums[label]; !seen {
			sums[label] = core.Sum(g.Items)
		}
	}
	return sums
}

func nonNil(txs []core.Transaction) []core.Transaction {
	if txs == nil {
		return []core.Transaction{}
	}
	return txs
}
