package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifeledger/internal/core"
	"lifeledger/internal/ledger"
	"lifeledger/internal/ledger/ledgertest"
)

func newSQLite(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteConformance(t *testing.T) {
	ledgertest.Run(t, func(t *testing.T) ledger.Ledger { return newSQLite(t) })
}

// Set LEDGER_TEST_POSTGRES_URL to run the suite against a scratch database.
func TestPostgresConformance(t *testing.T) {
	url := os.Getenv("LEDGER_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("LEDGER_TEST_POSTGRES_URL not set")
	}
	ledgertest.Run(t, func(t *testing.T) ledger.Ledger {
		repo, err := NewPostgresRepository(url)
		require.NoError(t, err)
		_, err = repo.db.Exec(`TRUNCATE transactions, users`)
		require.NoError(t, err)
		t.Cleanup(func() { repo.Close() })
		return repo
	})
}

func TestSQLiteMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	require.NoError(t, RunMigrations(SQLite, SQLiteDSN(path)))
	version, dirty, err := MigrationVersion(SQLite, SQLiteDSN(path))
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)
}

func TestSQLiteRejectsInvalidRowsAtSchemaLevel(t *testing.T) {
	repo := newSQLite(t)
	ctx := context.Background()
	u, err := repo.CreateUser(ctx, core.NewUser{Name: "Ann", Email: "ann@example.com"})
	require.NoError(t, err)

	// Bypass validation to make sure the CHECK constraints hold on their own.
	_, err = repo.queries.CreateTransaction(ctx, CreateTransactionParams{
		ID:         "raw",
		OwnerID:    u.ID,
		Kind:       "gift",
		Category:   "x",
		Amount:     core.Money{Cents: 1},
		OccurredOn: core.NewDate(2024, 1, 1),
		CreatedAt:  timestamp{ledger.Now()},
	})
	assert.Error(t, err)
}

func TestSQLiteNonUUIDIdIsNotFound(t *testing.T) {
	repo := newSQLite(t)
	ctx := context.Background()
	u, err := repo.CreateUser(ctx, core.NewUser{Name: "Ann", Email: "ann@example.com"})
	require.NoError(t, err)

	_, err = repo.Get(ctx, "not-a-uuid", u.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	ok, err := repo.Delete(ctx, "not-a-uuid", u.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
