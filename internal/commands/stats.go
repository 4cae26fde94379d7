package commands

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"lifeledger/internal/backend"
	"lifeledger/internal/config"
	"lifeledger/internal/core"
)

func newStatsCommand(e *env) *cobra.Command {
	var (
		userID string
		year   int
		month  int
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print ledger usage, or one user's month with --user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now().UTC()
			if year == 0 {
				year = now.Year()
			}
			if month == 0 {
				month = int(now.Month())
			}
			if err := core.ValidateYearMonth(year, month); err != nil {
				return err
			}

			return e.withBackend(cmd.Context(), func(_ *config.Config, b backend.Backend) error {
				ctx := cmd.Context()
				total, err := b.TransactionCount(ctx)
				if err != nil {
					return err
				}
				ranks, err := b.MostActiveOwners(ctx, limit)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "transactions: %d\n", total)
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tTRANSACTIONS")
				for _, r := range ranks {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", r.UserID, r.Name, r.Email, r.TransactionCount)
				}
				if err := tw.Flush(); err != nil {
					return err
				}

				if userID == "" {
					return nil
				}
				totals, err := b.MonthlyTotals(ctx, userID, year, month)
				if err != nil {
					return err
				}
				cats, err := b.ExpenseByCategory(ctx, userID, year, month)
				if err != nil {
					return err
				}
				fmt.Fprintln(out)
				return printMonth(out, year, month, core.ComputeBalances(totals), cats)
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id for a monthly breakdown")
	cmd.Flags().IntVar(&year, "year", 0, "calendar year (default current)")
	cmd.Flags().IntVar(&month, "month", 0, "calendar month 1-12 (default current)")
	cmd.Flags().IntVar(&limit, "limit", core.DefaultActivityLimit, "number of most active users to show")

	return cmd
}

func printMonth(w io.Writer, year, month int, bal core.Balances, cats []core.CategoryAmount) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "%04d-%02d\t\n", year, month)
	fmt.Fprintf(tw, "income\t%s\t\n", bal.Income)
	fmt.Fprintf(tw, "expense\t%s\t\n", bal.Expense)
	fmt.Fprintf(tw, "loan given\t%s\t\n", bal.LoanGiven)
	fmt.Fprintf(tw, "loan taken\t%s\t\n", bal.LoanTaken)
	fmt.Fprintf(tw, "savings\t%s\t\n", bal.Savings)
	fmt.Fprintf(tw, "savings balance\t%s\t\n", bal.SavingsBalance)
	fmt.Fprintf(tw, "net balance\t%s\t\n", bal.NetBalance)
	for _, c := range cats {
		fmt.Fprintf(tw, "  %s\t%s\t\n", c.Category, c.Total)
	}
	return tw.Flush()
}
