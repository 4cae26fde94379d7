package http

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"lifeledger/internal/core"
)

// handleDashboardStats returns the month's totals per kind, the derived
// balances and the expense breakdown by category. The two aggregate queries
// run concurrently.
func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	month, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	var (
		totals core.MonthlyTotals
		cats   []core.CategoryAmount
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = s.ledger.MonthlyTotals(gctx, p.UserID, month.Year, month.Month)
		return err
	})
	g.Go(func() error {
		var err error
		cats, err = s.ledger.ExpenseByCategory(gctx, p.UserID, month.Year, month.Month)
		return err
	})
	if err := g.Wait(); err != nil {
		writeError(w, r, err, "")
		return
	}

	NewJSONResponse().Body(toDashboardStats(month, core.ComputeBalances(totals), cats)).Write(w)
}

func (s *Server) handleMonthlyComparison(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	month, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	totals, err := s.ledger.MonthlyTotals(ctx, p.UserID, month.Year, month.Month)
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	c := core.CompareMonth(month.Year, month.Month, totals)
	NewJSONResponse().Body(monthlyComparisonResponse{
		Year:       c.Year,
		Month:      c.Month,
		Income:     c.Income,
		Expense:    c.Expense,
		Difference: c.Difference,
	}).Write(w)
}
