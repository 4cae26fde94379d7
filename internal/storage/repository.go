package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"lifeledger/internal/core"
	"lifeledger/internal/ledger"
)

// Repository is the SQL ledger backend shared by SQLite and Postgres.
type Repository struct {
	db      *sql.DB
	dialect Dialect
	queries *Queries
	now     func() time.Time
}

var _ ledger.Ledger = (*Repository)(nil)

// SQLiteDSN builds a modernc DSN with foreign keys enforced and a busy timeout.
func SQLiteDSN(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func NewSQLiteRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	repo, err := open(SQLite, SQLiteDSN(dbPath))
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY under load.
	repo.db.SetMaxOpenConns(1)
	return repo, nil
}

func NewPostgresRepository(databaseURL string) (*Repository, error) {
	repo, err := open(Postgres, databaseURL)
	if err != nil {
		return nil, err
	}
	repo.db.SetMaxOpenConns(10)
	repo.db.SetConnMaxIdleTime(5 * time.Minute)
	return repo, nil
}

func open(d Dialect, dsn string) (*Repository, error) {
	db, err := sql.Open(d.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d.Name, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(d, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{
		db:      db,
		dialect: d,
		queries: New(db, d),
		now:     ledger.Now,
	}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Create implements ledger.TransactionStore
func (r *Repository) Create(ctx context.Context, owner string, n core.NewTransaction) (core.Transaction, error) {
	n, err := ledger.PrepareCreate(owner, n)
	if err != nil {
		return core.Transaction{}, err
	}

	t, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		ID:         uuid.NewString(),
		OwnerID:    owner,
		Kind:       n.Kind,
		Category:   n.Category,
		Amount:     n.Amount,
		Note:       n.Note,
		OccurredOn: n.OccurredOn,
		CreatedAt:  timestamp{r.now()},
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", classify(err))
	}

	slog.DebugContext(ctx, "Transaction saved",
		"backend", r.dialect.Name,
		"transaction_id", t.ID,
		"user_id", owner,
		"kind", t.Kind,
		"amount", t.Amount.String())

	return t, nil
}

// Get implements ledger.TransactionStore
func (r *Repository) Get(ctx context.Context, id, owner string) (core.Transaction, error) {
	t, err := r.queries.GetTransaction(ctx, id, owner)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// ListByOwner implements ledger.TransactionStore
func (r *Repository) ListByOwner(ctx context.Context, owner string) ([]core.Transaction, error) {
	items, err := r.queries.ListTransactionsByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return items, nil
}

// Update implements ledger.TransactionStore
func (r *Repository) Update(ctx context.Context, id, owner string, p core.TransactionPatch) (core.Transaction, error) {
	p, err := ledger.PreparePatch(p)
	if err != nil {
		return core.Transaction{}, err
	}

	t, err := r.queries.UpdateTransaction(ctx, UpdateTransactionParams{
		ID:         id,
		OwnerID:    owner,
		Patch:      p,
		ModifiedAt: timestamp{r.now()},
	})
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", classify(err))
	}

	slog.DebugContext(ctx, "Transaction updated",
		"backend", r.dialect.Name,
		"transaction_id", id,
		"fields", p.Fields())

	return t, nil
}

// Delete implements ledger.TransactionStore
func (r *Repository) Delete(ctx context.Context, id, owner string) (bool, error) {
	n, err := r.queries.DeleteTransaction(ctx, id, owner)
	if err != nil {
		return false, fmt.Errorf("delete transaction: %w", err)
	}
	return n > 0, nil
}

// MonthlyTotals implements ledger.Aggregator
func (r *Repository) MonthlyTotals(ctx context.Context, owner string, year, month int) (core.MonthlyTotals, error) {
	if err := core.ValidateYearMonth(year, month); err != nil {
		return nil, err
	}
	first, last := core.MonthBounds(year, month)
	totals, err := r.queries.MonthlyTotals(ctx, owner, first, last)
	if err != nil {
		return nil, fmt.Errorf("monthly totals: %w", err)
	}
	return totals, nil
}

// ExpenseByCategory implements ledger.Aggregator
func (r *Repository) ExpenseByCategory(ctx context.Context, owner string, year, month int) ([]core.CategoryAmount, error) {
	if err := core.ValidateYearMonth(year, month); err != nil {
		return nil, err
	}
	first, last := core.MonthBounds(year, month)
	rows, err := r.queries.ExpenseByCategory(ctx, owner, first, last)
	if err != nil {
		return nil, fmt.Errorf("expense by category: %w", err)
	}
	// Sorted here rather than in SQL so the tie order does not depend on collation.
	core.SortCategoryAmounts(rows)
	return rows, nil
}

// TransactionCount implements ledger.Aggregator
func (r *Repository) TransactionCount(ctx context.Context) (int64, error) {
	n, err := r.queries.CountTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// MostActiveOwners implements ledger.Aggregator
func (r *Repository) MostActiveOwners(ctx context.Context, limit int) ([]core.ActivityRank, error) {
	if err := ledger.ValidateLimit(limit); err != nil {
		return nil, err
	}
	rows, err := r.queries.MostActiveOwners(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("most active owners: %w", err)
	}
	return rows, nil
}

// CreateUser implements ledger.UserStore
func (r *Repository) CreateUser(ctx context.Context, u core.NewUser) (core.User, error) {
	u, err := ledger.PrepareUser(u)
	if err != nil {
		return core.User{}, err
	}
	user, err := r.queries.CreateUser(ctx, CreateUserParams{
		ID:        uuid.NewString(),
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: timestamp{r.now()},
	})
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", classify(err))
	}

	slog.InfoContext(ctx, "User created",
		"backend", r.dialect.Name,
		"user_id", user.ID,
		"role", user.Role)

	return user, nil
}

// GetUser implements ledger.UserStore
func (r *Repository) GetUser(ctx context.Context, id string) (core.User, error) {
	u, err := r.queries.GetUser(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// ListUsers implements ledger.UserStore
func (r *Repository) ListUsers(ctx context.Context) ([]core.User, error) {
	users, err := r.queries.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// DeleteUser implements ledger.UserStore
func (r *Repository) DeleteUser(ctx context.Context, id string) (bool, error) {
	n, err := r.queries.DeleteUser(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", classify(err))
	}
	if n > 0 {
		slog.InfoContext(ctx, "User deleted", "backend", r.dialect.Name, "user_id", id)
	}
	return n > 0, nil
}
