package core

import (
	"cmp"
	"slices"
)

// DefaultActivityLimit is used when a caller asks for the most active users without a size.
const DefaultActivityLimit = 5

// MonthlyTotals maps a kind to the summed amount for one owner and calendar month.
// Kinds without any transaction are absent; use Get to read them as zero.
type MonthlyTotals map[Kind]Money

// Get returns the total for k, or zero when no transaction of that kind exists.
func (t MonthlyTotals) Get(k Kind) Money {
	return t[k]
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Category string
	Total    Money
}

// ActivityRank is one row of the most-active-users ranking.
type ActivityRank struct {
	UserID           string
	Name             string
	Email            string
	TransactionCount int64
}

// Balances are the derived dashboard figures for one month.
type Balances struct {
	Income         Money
	Expense        Money
	LoanGiven      Money
	LoanTaken      Money
	Savings        Money
	SavingsBalance Money
	NetBalance     Money
}

// ComputeBalances derives the dashboard figures from monthly totals:
//
//	savingsBalance = savings + income - expense - loan_given + loan_taken
//	netBalance     = income - expense
func ComputeBalances(t MonthlyTotals) Balances {
	b := Balances{
		Income:    t.Get(KindIncome),
		Expense:   t.Get(KindExpense),
		LoanGiven: t.Get(KindLoanGiven),
		LoanTaken: t.Get(KindLoanTaken),
		Savings:   t.Get(KindSavings),
	}
	b.SavingsBalance = b.Savings.Add(b.Income).Sub(b.Expense).Sub(b.LoanGiven).Add(b.LoanTaken)
	b.NetBalance = b.Income.Sub(b.Expense)
	return b
}

// MonthComparison is income against expense for one month.
type MonthComparison struct {
	Year       int
	Month      int
	Income     Money
	Expense    Money
	Difference Money
}

func CompareMonth(year, month int, t MonthlyTotals) MonthComparison {
	income, expense := t.Get(KindIncome), t.Get(KindExpense)
	return MonthComparison{
		Year:       year,
		Month:      month,
		Income:     income,
		Expense:    expense,
		Difference: income.Sub(expense),
	}
}

// SortCategoryAmounts orders by total descending, then by category name ascending
// (byte order) so equal totals always come back in the same order.
func SortCategoryAmounts(rows []CategoryAmount) {
	slices.SortFunc(rows, func(a, b CategoryAmount) int {
		if c := cmp.Compare(b.Total.Cents, a.Total.Cents); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
}
