// Package ledgertest holds a behavioural test suite every ledger backend must pass.
package ledgertest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifeledger/internal/core"
	"lifeledger/internal/ledger"
)

// Factory returns an empty backend. It is called once per subtest.
type Factory func(t *testing.T) ledger.Ledger

// Run executes the suite against the backend produced by newLedger.
func Run(t *testing.T, newLedger Factory) {
	tests := []struct {
		name string
		fn   func(*testing.T, ledger.Ledger)
	}{
		{"CreateThenGet", testCreateThenGet},
		{"CreateRejectsInvalidInput", testCreateRejectsInvalidInput},
		{"CreateUnknownOwner", testCreateUnknownOwner},
		{"WrongOwnerLooksMissing", testWrongOwnerLooksMissing},
		{"ListByOwnerOrder", testListByOwnerOrder},
		{"UpdateEmptyPatch", testUpdateEmptyPatch},
		{"UpdateCategoryOnly", testUpdateCategoryOnly},
		{"UpdateClearsNote", testUpdateClearsNote},
		{"UpdateWrongOwner", testUpdateWrongOwner},
		{"DeleteIdempotent", testDeleteIdempotent},
		{"MonthlyTotals", testMonthlyTotals},
		{"ExpenseByCategory", testExpenseByCategory},
		{"ExpenseByCategoryTies", testExpenseByCategoryTies},
		{"TransactionCount", testTransactionCount},
		{"MostActiveOwners", testMostActiveOwners},
		{"MostActiveOwnersLimit", testMostActiveOwnersLimit},
		{"UserLifecycle", testUserLifecycle},
		{"DeleteUserCascades", testDeleteUserCascades},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, newLedger(t))
		})
	}
}

func mustUser(t *testing.T, l ledger.Ledger, name, email string) core.User {
	t.Helper()
	u, err := l.CreateUser(context.Background(), core.NewUser{Name: name, Email: email})
	require.NoError(t, err)
	return u
}

func mustCreate(t *testing.T, l ledger.Ledger, owner string, kind core.Kind, category, amount, date string) core.Transaction {
	t.Helper()
	d, err := core.ParseDate(date)
	require.NoError(t, err)
	tx, err := l.Create(context.Background(), owner, core.NewTransaction{
		Kind:       kind,
		Category:   category,
		Amount:     core.MustParseMoney(amount),
		OccurredOn: d,
	})
	require.NoError(t, err)
	return tx
}

func assertSameTransaction(t *testing.T, want, got core.Transaction) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.OwnerID, got.OwnerID)
	assert.Equal(t, want.Kind, got.Kind)
	assert.Equal(t, want.Category, got.Category)
	assert.Equal(t, want.Amount, got.Amount)
	assert.Equal(t, want.Note, got.Note)
	assert.Equal(t, want.OccurredOn.String(), got.OccurredOn.String())
	assert.WithinDuration(t, want.CreatedAt, got.CreatedAt, 0)
	assert.WithinDuration(t, want.ModifiedAt, got.ModifiedAt, 0)
}

func testCreateThenGet(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	u := mustUser(t, l, "Ann", "ann@example.com")
	note := "monthly"
	created, err := l.Create(ctx, u.ID, core.NewTransaction{
		Kind:       core.KindExpense,
		Category:   "rent",
		Amount:     core.MustParseMoney("500.25"),
		Note:       &note,
		OccurredOn: core.NewDate(2024, 3, 1),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, u.ID, created.OwnerID)
	assert.Equal(t, int64(50025), created.Amount.Cents)
	require.NotNil(t, created.Note)
	assert.Equal(t, "monthly", *created.Note)
	assert.False(t, created.CreatedAt.IsZero())
	assert.WithinDuration(t, created.CreatedAt, created.ModifiedAt, 0)

	got, err := l.Get(ctx, created.ID, u.ID)
	require.NoError(t, err)
	assertSameTransaction(t, created, got)
}

func testCreateRejectsInvalidInput(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	u := mustUser(t, l, "Ann", "ann@example.com")
	valid := core.NewTransaction{
		Kind:       core.KindIncome,
		Category:   "salary",
		Amount:     core.MustParseMoney("10"),
		OccurredOn: core.NewDate(2024, 3, 1),
	}

	bad := valid
	bad.Kind = "gift"
	_, err := l.Create(ctx, u.ID, bad)
	assert.ErrorIs(t, err, core.ErrValidation)

	bad = valid
	bad.Amount = core.Money{}
	_, err = l.Create(ctx, u.ID, bad)
	assert.ErrorIs(t, err, core.ErrValidation)

	bad = valid
	bad.Amount = core.Money{Cents: -100}
	_, err = l.Create(ctx, u.ID, bad)
	assert.ErrorIs(t, err, core.ErrValidation)

	n, err := l.TransactionCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testCreateUnknownOwner(t *testing.T, l ledger.Ledger) {
	_, err := l.Create(context.Background(), "00000000-0000-0000-0000-000000000000", core.NewTransaction{
		Kind:       core.KindIncome,
		Category:   "salary",
		Amount:     core.MustParseMoney("10"),
		OccurredOn: core.NewDate(2024, 3, 1),
	})
	assert.ErrorIs(t, err, core.ErrReference)
}

func testWrongOwnerLooksMissing(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	a := mustUser(t, l, "Ann", "ann@example.com")
	b := mustUser(t, l, "Bob", "bob@example.com")
	tx := mustCreate(t, l, a.ID, core.KindIncome, "salary", "1000", "2024-03-01")

	_, wrongOwner := l.Get(ctx, tx.ID, b.ID)
	_, missing := l.Get(ctx, "ffffffff-ffff-ffff-ffff-ffffffffffff", b.ID)
	require.ErrorIs(t, wrongOwner, core.ErrNotFound)
	require.ErrorIs(t, missing, core.ErrNotFound)
	assert.Equal(t, missing.Error(), wrongOwner.Error())

	list, err := l.ListByOwner(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testListByOwnerOrder(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	u := mustUser(t, l, "Ann", "ann@example.com")
	other := mustUser(t, l, "Bob", "bob@example.com")

	early := mustCreate(t, l, u.ID, core.KindExpense, "food", "5", "2024-01-10")
	time.Sleep(2 * time.Millisecond)
	sameDayFirst := mustCreate(t, l, u.ID, core.KindExpense, "food", "6", "2024-02-10")
	time.Sleep(2 * time.Millisecond)
	sameDaySecond := mustCreate(t, l, u.ID, core.KindExpense, "food", "7", "2024-02-10")
	time.Sleep(2 * time.Millisecond)
	middle := mustCreate(t, l, u.ID, core.KindIncome, "salary", "8", "2024-01-31")
	mustCreate(t, l, other.ID, core.KindIncome, "salary", "9", "2024-05-01")

	list, err := l.ListByOwner(ctx, u.ID)
	require.NoError(t, err)
	ids := make([]string, len(list))
	for i, tx := range list {
		ids[i] = tx.ID
	}
	assert.Equal(t, []string{sameDaySecond.ID, sameDayFirst.ID, middle.ID, early.ID}, ids)
}

func testUpdateEmptyPatch(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	u := mustUser(t, l, "Ann", "ann@example.com")
	tx := mustCreate(t, l, u.ID, core.KindIncome, "salary", "1000", "2024-03-01")

	_, err := l.Update(ctx, tx.ID, u.ID, core.TransactionPatch{})
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.ErrorIs(t, err, core.ErrNoFieldsToUpdate)
}

func testUpdateCategoryOnly(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	u := mustUser(t, l, "Ann", "ann@example.com")
	note := "weekly shop"
	before, err := l.Create(ctx, u.ID, core.NewTransaction{
		Kind:       core.KindExpense,
		Category:   "food",
		Amount:     core.MustParseMoney("120"),
		Note:       &note,
		OccurredOn: core.NewDate(2024, 3, 5),
	})
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)

	after, err := l.Update(ctx, before.ID, u.ID, core.TransactionPatch{Category: core.Some("groceries")})
	require.NoError(t, err)
	assert.Equal(t, "groceries", after.Category)
	assert.Equal(t, before.Kind, after.Kind)
	assert.Equal(t, before.Amount, after.Amount)
	assert.Equal(t, before.Note, after.Note)
	assert.Equal(t, before.OccurredOn.String(), after.OccurredOn.String())
	assert.WithinDuration(t, before.CreatedAt, after.CreatedAt, 0)
	assert.False(t, after.ModifiedAt.Before(before.ModifiedAt), "modified_at moved backwards")

	got, err := l.Get(ctx, before.ID, u.ID)
	require.NoError(t, err)
	assertSameTransaction(t, after, got)
}

func testUpdateClearsNote(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	u := mustUser(t, l, "Ann", "ann@example.com")
	note := "temp"
	tx, err := l.Create(ctx, u.ID, core.NewTransaction{
		Kind:       core.KindSavings,
		Category:   "fund",
		Amount:     core.MustParseMoney("50"),
		Note:       &note,
		OccurredOn: core.NewDate(2024, 3, 5),
	})
	require.NoError(t, err)

	got, err := l.Update(ctx, tx.ID, u.ID, core.TransactionPatch{
		Note:   core.Some[*string](nil),
		Amount: core.Some(core.MustParseMoney("75.5")),
	})
	require.NoError(t, err)
	assert.Nil(t, got.Note)
	assert.Equal(t, int64(7550), got.Amount.Cents)
	assert.Equal(t, "fund", got.Category)
}

func testUpdateWrongOwner(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	a := mustUser(t, l, "Ann", "ann@example.com")
	b := mustUser(t, l, "Bob", "bob@example.com")
	tx := mustCreate(t, l, a.ID, core.KindIncome, "salary", "1000", "2024-03-01")

	_, wrongOwner := l.Update(ctx, tx.ID, b.ID, core.TransactionPatch{Category: core.Some("stolen")})
	_, missing := l.Update(ctx, "ffffffff-ffff-ffff-ffff-ffffffffffff", b.ID, core.TransactionPatch{Category: core.Some("stolen")})
	require.ErrorIs(t, wrongOwner, core.ErrNotFound)
	require.ErrorIs(t, missing, core.ErrNotFound)
	assert.Equal(t, missing.Error(), wrongOwner.Error())

	got, err := l.Get(ctx, tx.ID, a.ID)
	require.NoError(t, err)
	assertSameTransaction(t, tx, got)
}

func testDeleteIdempotent(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	a := mustUser(t, l, "Ann", "ann@example.com")
	b := mustUser(t, l, "Bob", "bob@example.com")
	tx := mustCreate(t, l, a.ID, core.KindIncome, "salary", "1000", "2024-03-01")

	ok, err := l.Delete(ctx, tx.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok, "delete by another owner must not succeed")
	_, err = l.Get(ctx, tx.ID, a.ID)
	require.NoError(t, err)

	ok, err = l.Delete(ctx, tx.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Delete(ctx, tx.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = l.Delete(ctx, "ffffffff-ffff-ffff-ffff-ffffffffffff", a.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = l.Get(ctx, tx.ID, a.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func testMonthlyTotals(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	u := mustUser(t, l, "Ann", "ann@example.com")
	other := mustUser(t, l, "Bob", "bob@example.com")
	mustCreate(t, l, u.ID, core.KindIncome, "salary", "1000", "2024-03-01")
	mustCreate(t, l, u.ID, core.KindExpense, "rent", "500", "2024-03-02")
	mustCreate(t, l, u.ID, core.KindExpense, "food", "120", "2024-03-31")
	// Outside the month or owned by someone else.
	mustCreate(t, l, u.ID, core.KindExpense, "food", "99", "2024-04-01")
	mustCreate(t, l, u.ID, core.KindExpense, "food", "98", "2024-02-29")
	mustCreate(t, l, u.ID, core.KindExpense, "food", "97", "2023-03-15")
	mustCreate(t, l, other.ID, core.KindExpense, "food", "96", "2024-03-15")

	totals, err := l.MonthlyTotals(ctx, u.ID, 2024, 3)
	require.NoError(t, err)
	assert.Equal(t, core.MonthlyTotals{
		core.KindIncome:  core.MustParseMoney("1000"),
		core.KindExpense: core.MustParseMoney("620"),
	}, totals)
	_, hasSavings := totals[core.KindSavings]
	assert.False(t, hasSavings, "kinds without rows must be absent")

	b := core.ComputeBalances(totals)
	assert.Equal(t, "380.00", b.NetBalance.String())

	empty, err := l.MonthlyTotals(ctx, u.ID, 2024, 7)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = l.MonthlyTotals(ctx, u.ID, 2024, 13)
	assert.ErrorIs(t, err, core.ErrValidation)

	// The last month a date can fall in.
	mustCreate(t, l, u.ID, core.KindExpense, "rent", "10", "9999-12-15")
	mustCreate(t, l, u.ID, core.KindIncome, "salary", "4", "9999-12-31")
	mustCreate(t, l, u.ID, core.KindExpense, "rent", "3", "9999-11-30")
	last, err := l.MonthlyTotals(ctx, u.ID, 9999, 12)
	require.NoError(t, err)
	assert.Equal(t, core.MonthlyTotals{
		core.KindIncome:  core.MustParseMoney("4"),
		core.KindExpense: core.MustParseMoney("10"),
	}, last)
	cats, err := l.ExpenseByCategory(ctx, u.ID, 9999, 12)
	require.NoError(t, err)
	assert.Equal(t, []core.CategoryAmount{{Category: "rent", Total: core.MustParseMoney("10")}}, cats)

	// The first one.
	mustCreate(t, l, u.ID, core.KindSavings, "pension", "2", "0001-01-15")
	first, err := l.MonthlyTotals(ctx, u.ID, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, core.MonthlyTotals{core.KindSavings: core.MustParseMoney("2")}, first)
}

func testExpenseByCategory(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	u := mustUser(t, l, "Ann", "ann@example.com")
	mustCreate(t, l, u.ID, core.KindIncome, "salary", "1000", "2024-03-01")
	mustCreate(t, l, u.ID, core.KindExpense, "food", "70", "2024-03-03")
	mustCreate(t, l, u.ID, core.KindExpense, "rent", "500", "2024-03-02")
	mustCreate(t, l, u.ID, core.KindExpense, "food", "50", "2024-03-20")
	mustCreate(t, l, u.ID, core.KindLoanGiven, "rent", "999", "2024-03-20")

	rows, err := l.ExpenseByCategory(ctx, u.ID, 2024, 3)
	require.NoError(t, err)
	assert.Equal(t, []core.CategoryAmount{
		{Category: "rent", Total: core.MustParseMoney("500")},
		{Category: "food", Total: core.MustParseMoney("120")},
	}, rows)

	totals, err := l.MonthlyTotals(ctx, u.ID, 2024, 3)
	require.NoError(t, err)
	var sum core.Money
	for _, r := range rows {
		sum = sum.Add(r.Total)
	}
	assert.Equal(t, totals.Get(core.KindExpense), sum)

	none, err := l.ExpenseByCategory(ctx, u.ID, 2024, 4)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testExpenseByCategoryTies(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	u := mustUser(t, l, "Ann", "ann@example.com")
	mustCreate(t, l, u.ID, core.KindExpense, "transport", "40", "2024-03-01")
	mustCreate(t, l, u.ID, core.KindExpense, "books", "40", "2024-03-02")
	mustCreate(t, l, u.ID, core.KindExpense, "cinema", "40", "2024-03-03")

	rows, err := l.ExpenseByCategory(ctx, u.ID, 2024, 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "books", rows[0].Category)
	assert.Equal(t, "cinema", rows[1].Category)
	assert.Equal(t, "transport", rows[2].Category)
}

func testTransactionCount(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	a := mustUser(t, l, "Ann", "ann@example.com")
	b := mustUser(t, l, "Bob", "bob@example.com")
	mustCreate(t, l, a.ID, core.KindIncome, "salary", "1", "2024-03-01")
	mustCreate(t, l, a.ID, core.KindIncome, "salary", "1", "2024-04-01")
	tx := mustCreate(t, l, b.ID, core.KindIncome, "salary", "1", "2024-03-01")

	n, err := l.TransactionCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = l.Delete(ctx, tx.ID, b.ID)
	require.NoError(t, err)
	n, err = l.TransactionCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func testMostActiveOwners(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	x := mustUser(t, l, "Xavier", "x@example.com")
	y := mustUser(t, l, "Yara", "y@example.com")
	z := mustUser(t, l, "Zed", "z@example.com")
	for i := 0; i < 3; i++ {
		mustCreate(t, l, x.ID, core.KindExpense, "food", "1", "2024-03-01")
	}
	mustCreate(t, l, y.ID, core.KindExpense, "food", "1", "2024-03-01")

	top, err := l.MostActiveOwners(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []core.ActivityRank{
		{UserID: x.ID, Name: "Xavier", Email: "x@example.com", TransactionCount: 3},
		{UserID: y.ID, Name: "Yara", Email: "y@example.com", TransactionCount: 1},
	}, top)

	all, err := l.MostActiveOwners(ctx, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, z.ID, all[2].UserID)
	assert.Zero(t, all[2].TransactionCount)
}

func testMostActiveOwnersLimit(t *testing.T, l ledger.Ledger) {
	_, err := l.MostActiveOwners(context.Background(), 0)
	assert.ErrorIs(t, err, core.ErrValidation)

	rows, err := l.MostActiveOwners(context.Background(), core.DefaultActivityLimit)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func testUserLifecycle(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	u, err := l.CreateUser(ctx, core.NewUser{Name: " Ann ", Email: "Ann@Example.com", Role: core.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "Ann", u.Name)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.Equal(t, core.RoleAdmin, u.Role)

	_, err = l.CreateUser(ctx, core.NewUser{Name: "Other", Email: "ann@example.com"})
	assert.ErrorIs(t, err, core.ErrConflict)

	_, err = l.CreateUser(ctx, core.NewUser{Name: "Bad", Email: "nope"})
	assert.ErrorIs(t, err, core.ErrValidation)

	got, err := l.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	users, err := l.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	_, err = l.GetUser(ctx, "ffffffff-ffff-ffff-ffff-ffffffffffff")
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func testDeleteUserCascades(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	a := mustUser(t, l, "Ann", "ann@example.com")
	b := mustUser(t, l, "Bob", "bob@example.com")
	mustCreate(t, l, a.ID, core.KindIncome, "salary", "1", "2024-03-01")
	mustCreate(t, l, a.ID, core.KindIncome, "salary", "1", "2024-03-02")
	mustCreate(t, l, b.ID, core.KindIncome, "salary", "1", "2024-03-01")

	ok, err := l.DeleteUser(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := l.TransactionCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ok, err = l.DeleteUser(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
