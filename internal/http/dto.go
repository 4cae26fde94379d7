package http

import (
	"time"

	"lifeledger/internal/core"
)

// Wire representations. Money is a decimal string and dates are YYYY-MM-DD.

type transactionResponse struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Type       core.Kind  `json:"type"`
	Category   string     `json:"category"`
	Amount     core.Money `json:"amount"`
	Note       *string    `json:"note"`
	Date       core.Date  `json:"date"`
	CreatedAt  time.Time  `json:"created_at"`
	ModifiedAt time.Time  `json:"modified_at"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:         t.ID,
		UserID:     t.OwnerID,
		Type:       t.Kind,
		Category:   t.Category,
		Amount:     t.Amount,
		Note:       t.Note,
		Date:       t.OccurredOn,
		CreatedAt:  t.CreatedAt,
		ModifiedAt: t.ModifiedAt,
	}
}

func toTransactionResponses(items []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, len(items))
	for i, t := range items {
		out[i] = toTransactionResponse(t)
	}
	return out
}

type createTransactionRequest struct {
	Type     core.Kind  `json:"type"`
	Category string     `json:"category"`
	Amount   core.Money `json:"amount"`
	Note     *string    `json:"note"`
	Date     core.Date  `json:"date"`
}

func (r createTransactionRequest) toNewTransaction() core.NewTransaction {
	return core.NewTransaction{
		Kind:       r.Type,
		Category:   r.Category,
		Amount:     r.Amount,
		Note:       r.Note,
		OccurredOn: r.Date,
	}
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      core.Role `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u core.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
}

type createUserRequest struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  core.Role `json:"role"`
}

type categoryTotal struct {
	Category string     `json:"category"`
	Total    core.Money `json:"total"`
}

type monthRef struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

type dashboardStatsResponse struct {
	CurrentMonth       monthRef        `json:"currentMonth"`
	TotalIncome        core.Money      `json:"totalIncome"`
	TotalExpenses      core.Money      `json:"totalExpenses"`
	SavingsBalance     core.Money      `json:"savingsBalance"`
	LoanGiven          core.Money      `json:"loanGiven"`
	LoanTaken          core.Money      `json:"loanTaken"`
	Savings            core.Money      `json:"savings"`
	ExpensesByCategory []categoryTotal `json:"expensesByCategory"`
	Summary            struct {
		NetBalance core.Money `json:"netBalance"`
	} `json:"summary"`
}

func toDashboardStats(p MonthParams, b core.Balances, cats []core.CategoryAmount) dashboardStatsResponse {
	resp := dashboardStatsResponse{
		CurrentMonth:       monthRef{Year: p.Year, Month: p.Month},
		TotalIncome:        b.Income,
		TotalExpenses:      b.Expense,
		SavingsBalance:     b.SavingsBalance,
		LoanGiven:          b.LoanGiven,
		LoanTaken:          b.LoanTaken,
		Savings:            b.Savings,
		ExpensesByCategory: make([]categoryTotal, len(cats)),
	}
	for i, c := range cats {
		resp.ExpensesByCategory[i] = categoryTotal{Category: c.Category, Total: c.Total}
	}
	resp.Summary.NetBalance = b.NetBalance
	return resp
}

type monthlyComparisonResponse struct {
	Year       int        `json:"year"`
	Month      int        `json:"month"`
	Income     core.Money `json:"income"`
	Expense    core.Money `json:"expense"`
	Difference core.Money `json:"difference"`
}

type activeUserResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	TransactionCount int64  `json:"transaction_count"`
}
