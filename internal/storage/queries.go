package storage

import (
	"context"
	"database/sql"

	"lifeledger/internal/core"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db      DBTX
	dialect Dialect
}

func New(db DBTX, d Dialect) *Queries {
	return &Queries{db: db, dialect: d}
}

const transactionColumns = `id, user_id, kind, category, amount_cents, note, occurred_on, created_at, modified_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t                     core.Transaction
		kind                  string
		note                  sql.NullString
		createdAt, modifiedAt timestamp
	)
	if err := row.Scan(&t.ID, &t.OwnerID, &kind, &t.Category, &t.Amount, &note, &t.OccurredOn, &createdAt, &modifiedAt); err != nil {
		return core.Transaction{}, err
	}
	t.Kind = core.Kind(kind)
	if note.Valid {
		t.Note = &note.String
	}
	t.CreatedAt = createdAt.Time
	t.ModifiedAt = modifiedAt.Time
	return t, nil
}

const createTransaction = `INSERT INTO transactions (` + transactionColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + transactionColumns

type CreateTransactionParams struct {
	ID         string
	OwnerID    string
	Kind       core.Kind
	Category   string
	Amount     core.Money
	Note       *string
	OccurredOn core.Date
	CreatedAt  timestamp
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (core.Transaction, error) {
	row := q.db.QueryRowContext(ctx, q.dialect.Rebind(createTransaction),
		arg.ID,
		arg.OwnerID,
		string(arg.Kind),
		arg.Category,
		arg.Amount,
		arg.Note,
		arg.OccurredOn,
		arg.CreatedAt,
		arg.CreatedAt,
	)
	return scanTransaction(row)
}

const getTransaction = `SELECT ` + transactionColumns + `
FROM transactions
WHERE id = ? AND user_id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id, owner string) (core.Transaction, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, q.dialect.Rebind(getTransaction), id, owner))
}

const listTransactionsByOwner = `SELECT ` + transactionColumns + `
FROM transactions
WHERE user_id = ?
ORDER BY occurred_on DESC, created_at DESC, id DESC`

func (q *Queries) ListTransactionsByOwner(ctx context.Context, owner string) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx, q.dialect.Rebind(listTransactionsByOwner), owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// updateTransaction sets each column only when its flag is true, so a single
// statement serves every combination of supplied fields. modified_at never
// moves backwards.
const updateTransaction = `UPDATE transactions SET
    kind         = CASE WHEN ? THEN ? ELSE kind END,
    category     = CASE WHEN ? THEN ? ELSE category END,
    amount_cents = CASE WHEN ? THEN ? ELSE amount_cents END,
    note         = CASE WHEN ? THEN ? ELSE note END,
    occurred_on  = CASE WHEN ? THEN ? ELSE occurred_on END,
    modified_at  = CASE WHEN modified_at > ? THEN modified_at ELSE ? END
WHERE id = ? AND user_id = ?
RETURNING ` + transactionColumns

type UpdateTransactionParams struct {
	ID         string
	OwnerID    string
	Patch      core.TransactionPatch
	ModifiedAt timestamp
}

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) (core.Transaction, error) {
	p := arg.Patch
	row := q.db.QueryRowContext(ctx, q.dialect.Rebind(updateTransaction),
		p.Kind.Set, string(p.Kind.Value),
		p.Category.Set, p.Category.Value,
		p.Amount.Set, p.Amount.Value,
		p.Note.Set, p.Note.Value,
		p.OccurredOn.Set, p.OccurredOn.Value,
		arg.ModifiedAt, arg.ModifiedAt,
		arg.ID, arg.OwnerID,
	)
	return scanTransaction(row)
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ? AND user_id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id, owner string) (int64, error) {
	res, err := q.db.ExecContext(ctx, q.dialect.Rebind(deleteTransaction), id, owner)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const monthlyTotals = `SELECT kind, SUM(amount_cents) AS total
FROM transactions
WHERE user_id = ? AND occurred_on BETWEEN ? AND ?
GROUP BY kind`

func (q *Queries) MonthlyTotals(ctx context.Context, owner string, first, last core.Date) (core.MonthlyTotals, error) {
	rows, err := q.db.QueryContext(ctx, q.dialect.Rebind(monthlyTotals), owner, first, last)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	totals := core.MonthlyTotals{}
	for rows.Next() {
		var (
			kind  string
			total core.Money
		)
		if err := rows.Scan(&kind, &total); err != nil {
			return nil, err
		}
		totals[core.Kind(kind)] = total
	}
	return totals, rows.Err()
}

const expenseByCategory = `SELECT category, SUM(amount_cents) AS total
FROM transactions
WHERE user_id = ? AND kind = 'expense' AND occurred_on BETWEEN ? AND ?
GROUP BY category`

func (q *Queries) ExpenseByCategory(ctx context.Context, owner string, first, last core.Date) ([]core.CategoryAmount, error) {
	rows, err := q.db.QueryContext(ctx, q.dialect.Rebind(expenseByCategory), owner, first, last)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []core.CategoryAmount{}
	for rows.Next() {
		var i core.CategoryAmount
		if err := rows.Scan(&i.Category, &i.Total); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countTransactions = `SELECT COUNT(*) FROM transactions`

func (q *Queries) CountTransactions(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countTransactions).Scan(&n)
	return n, err
}

const mostActiveOwners = `SELECT u.id, u.name, u.email, COUNT(t.id) AS transaction_count
FROM users u
LEFT JOIN transactions t ON t.user_id = u.id
GROUP BY u.id, u.name, u.email, u.created_at
ORDER BY transaction_count DESC, u.created_at ASC, u.id ASC
LIMIT ?`

func (q *Queries) MostActiveOwners(ctx context.Context, limit int) ([]core.ActivityRank, error) {
	rows, err := q.db.QueryContext(ctx, q.dialect.Rebind(mostActiveOwners), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []core.ActivityRank{}
	for rows.Next() {
		var i core.ActivityRank
		if err := rows.Scan(&i.UserID, &i.Name, &i.Email, &i.TransactionCount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const userColumns = `id, name, email, role, created_at, modified_at`

func scanUser(row rowScanner) (core.User, error) {
	var (
		u                     core.User
		role                  string
		createdAt, modifiedAt timestamp
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &role, &createdAt, &modifiedAt); err != nil {
		return core.User{}, err
	}
	u.Role = core.Role(role)
	u.CreatedAt = createdAt.Time
	u.ModifiedAt = modifiedAt.Time
	return u, nil
}

const createUser = `INSERT INTO users (` + userColumns + `)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + userColumns

type CreateUserParams struct {
	ID        string
	Name      string
	Email     string
	Role      core.Role
	CreatedAt timestamp
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (core.User, error) {
	row := q.db.QueryRowContext(ctx, q.dialect.Rebind(createUser),
		arg.ID, arg.Name, arg.Email, string(arg.Role), arg.CreatedAt, arg.CreatedAt)
	return scanUser(row)
}

const getUser = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUser(ctx context.Context, id string) (core.User, error) {
	return scanUser(q.db.QueryRowContext(ctx, q.dialect.Rebind(getUser), id))
}

const listUsers = `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id ASC`

func (q *Queries) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []core.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

const deleteUser = `DELETE FROM users WHERE id = ?`

func (q *Queries) DeleteUser(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, q.dialect.Rebind(deleteUser), id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
