// Package ledger declares the storage ports of the transaction ledger and the
// aggregation engine. Backends live in subpackages (memory) and in
// internal/storage (SQL).
package ledger

import (
	"context"
	"time"

	"lifeledger/internal/core"
)

type (
	// TransactionStore owns persisted transactions. Every call is scoped to an
	// owner; a transaction belonging to someone else behaves as if it did not exist.
	TransactionStore interface {
		Create(ctx context.Context, owner string, n core.NewTransaction) (core.Transaction, error)
		Get(ctx context.Context, id, owner string) (core.Transaction, error)
		// ListByOwner orders by occurred_on descending, then created_at descending.
		ListByOwner(ctx context.Context, owner string) ([]core.Transaction, error)
		// Update changes only the supplied fields and refreshes modified_at.
		Update(ctx context.Context, id, owner string, p core.TransactionPatch) (core.Transaction, error)
		// Delete reports whether a row owned by owner existed and was removed.
		Delete(ctx context.Context, id, owner string) (bool, error)
	}

	// Aggregator computes read-only summaries over current store contents.
	Aggregator interface {
		MonthlyTotals(ctx context.Context, owner string, year, month int) (core.MonthlyTotals, error)
		// ExpenseByCategory is sorted by total descending, then category ascending.
		ExpenseByCategory(ctx context.Context, owner string, year, month int) ([]core.CategoryAmount, error)
		TransactionCount(ctx context.Context) (int64, error)
		// MostActiveOwners includes users without transactions. Ties are broken by
		// user creation time, then id.
		MostActiveOwners(ctx context.Context, limit int) ([]core.ActivityRank, error)
	}

	UserStore interface {
		CreateUser(ctx context.Context, u core.NewUser) (core.User, error)
		GetUser(ctx context.Context, id string) (core.User, error)
		ListUsers(ctx context.Context) ([]core.User, error)
		// DeleteUser removes the user and, by cascade, their transactions.
		DeleteUser(ctx context.Context, id string) (bool, error)
	}

	// Ledger is everything a backend provides.
	Ledger interface {
		TransactionStore
		Aggregator
		UserStore
	}
)

// PrepareCreate normalizes and validates a create request.
func PrepareCreate(owner string, n core.NewTransaction) (core.NewTransaction, error) {
	if err := core.ValidateOwner(owner); err != nil {
		return n, err
	}
	n = n.Normalize()
	if err := n.Validate(); err != nil {
		return n, err
	}
	return n, nil
}

// PreparePatch normalizes and validates a partial update.
func PreparePatch(p core.TransactionPatch) (core.TransactionPatch, error) {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// PrepareUser normalizes and validates a user to create.
func PrepareUser(u core.NewUser) (core.NewUser, error) {
	u = u.Normalize()
	if err := u.Validate(); err != nil {
		return u, err
	}
	return u, nil
}

// ValidateLimit rejects a non-positive ranking size.
func ValidateLimit(limit int) error {
	if limit < 1 {
		return core.Invalid("limit", ErrInvalidLimit)
	}
	return nil
}

// Now is the store clock. Timestamps are kept at microsecond precision so they
// round-trip through every backend unchanged.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Touch returns the next modified_at value, never earlier than prev.
func Touch(prev, now time.Time) time.Time {
	if now.Before(prev) {
		return prev
	}
	return now
}
