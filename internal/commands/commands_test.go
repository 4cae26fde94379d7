package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifeledger/internal/auth"
	"lifeledger/internal/backend"
	"lifeledger/internal/config"
	"lifeledger/internal/core"
	"lifeledger/internal/ledger/memory"
)

func testConfig() *config.Config {
	return &config.Config{
		DataBackend: "memory",
		JWTSecret:   "0123456789abcdef0123",
		TokenTTL:    time.Hour,
	}
}

func memoryEnv(store *memory.Store) *env {
	return &env{
		loadConfig: func() (*config.Config, error) { return testConfig(), nil },
		openBackend: func(context.Context, *config.Config) (backend.Backend, func() error, error) {
			return store, store.Close, nil
		},
	}
}

func run(t *testing.T, e *env, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(e)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestUserAddAndList(t *testing.T) {
	store := memory.New()
	e := memoryEnv(store)

	out, err := run(t, e, "user", "add", "--name", "Root", "--email", "Root@Example.com", "--role", "admin", "--token")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "created admin user")
	assert.Contains(t, lines[0], "<root@example.com>")

	p, err := auth.NewIssuer(testConfig().JWTSecret, time.Hour).Verify(lines[1])
	require.NoError(t, err)
	assert.True(t, p.IsAdmin())

	_, err = run(t, e, "user", "add", "--name", "Again", "--email", "root@example.com")
	assert.ErrorIs(t, err, core.ErrConflict)

	_, err = run(t, e, "user", "add", "--name", "Bad", "--email", "bad@example.com", "--role", "owner")
	assert.True(t, core.IsValidation(err))

	out, err = run(t, e, "user", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "EMAIL")
	assert.Contains(t, out, "root@example.com")
}

func TestToken(t *testing.T) {
	store := memory.New()
	u, err := store.CreateUser(context.Background(), core.NewUser{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	out, err := run(t, memoryEnv(store), "token", u.ID)
	require.NoError(t, err)
	p, err := auth.NewIssuer(testConfig().JWTSecret, time.Hour).Verify(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.UserID)

	_, err = run(t, memoryEnv(store), "token", "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStats(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	u, err := store.CreateUser(ctx, core.NewUser{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	for _, n := range []core.NewTransaction{
		{Kind: core.KindIncome, Category: "salary", Amount: core.MustParseMoney("1000"), OccurredOn: core.NewDate(2024, 3, 1)},
		{Kind: core.KindExpense, Category: "rent", Amount: core.MustParseMoney("500"), OccurredOn: core.NewDate(2024, 3, 2)},
		{Kind: core.KindExpense, Category: "food", Amount: core.MustParseMoney("120"), OccurredOn: core.NewDate(2024, 3, 9)},
	} {
		_, err := store.Create(ctx, u.ID, n)
		require.NoError(t, err)
	}

	out, err := run(t, memoryEnv(store), "stats", "--user", u.ID, "--year", "2024", "--month", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "transactions: 3")
	assert.Regexp(t, u.ID+`\s+Ada\s+ada@example.com\s+3`, out)
	assert.Contains(t, out, "2024-03")
	assert.Regexp(t, `net balance\s+380\.00`, out)
	assert.Regexp(t, `savings balance\s+380\.00`, out)
	assert.Less(t, strings.Index(out, "rent"), strings.Index(out, "food"))

	_, err = run(t, memoryEnv(store), "stats", "--user", u.ID, "--month", "13")
	assert.True(t, core.IsValidation(err))

	out, err = run(t, memoryEnv(store), "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "transactions: 3")
	assert.NotContains(t, out, "net balance")

	_, err = run(t, memoryEnv(store), "stats", "--limit", "0")
	assert.True(t, core.IsValidation(err))
}

func TestMigrate(t *testing.T) {
	out, err := run(t, memoryEnv(memory.New()), "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, `backend "memory" has no schema`)

	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	e := defaultEnv()
	e.loadConfig = func() (*config.Config, error) {
		cfg := testConfig()
		cfg.DataBackend = "sqlite"
		cfg.SQLiteDBPath = dbPath
		return cfg, nil
	}

	out, err = run(t, e, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "sqlite schema at version")
	assert.Contains(t, out, "dirty: false")
	assert.NotContains(t, out, "version 0 ")
}
