package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifeledger/internal/config"
	"lifeledger/internal/core"
)

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: "./x.db",
		AMQPURL:      "amqp://localhost",
		AMQPExchange: "ex",
		AMQPQueue:    "q",
	})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, "./x.db", cfg.SQLiteDBPath)
	assert.Equal(t, "q", cfg.AMQPQueue)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite with path", Config{Type: SQLiteBackend, SQLiteDBPath: "a.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"postgres without url", Config{Type: PostgresBackend}, true},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFactory_CreateBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	tests := []struct {
		name   string
		config Config
	}{
		{"memory", Config{Type: MemoryBackend}},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "ledger.db")}},
		{"memory with summary cache", Config{Type: MemoryBackend, SummaryCacheSize: 8, SummaryCacheTTL: time.Minute}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.CreateBackend(ctx, tt.config)
			require.NoError(t, err)
			t.Cleanup(func() { assert.NoError(t, res.Close()) })

			require.NoError(t, res.Backend.Ping(ctx))

			u, err := res.Backend.CreateUser(ctx, core.NewUser{Name: "Ada", Email: "ada@example.com"})
			require.NoError(t, err)
			tx, err := res.Backend.Create(ctx, u.ID, core.NewTransaction{
				Kind:       core.KindIncome,
				Category:   "salary",
				Amount:     core.MustParseMoney("1000"),
				OccurredOn: core.NewDate(2024, 3, 1),
			})
			require.NoError(t, err)

			got, err := res.Backend.Get(ctx, tx.ID, u.ID)
			require.NoError(t, err)
			assert.Equal(t, tx.ID, got.ID)
			assert.Equal(t, tx.Amount, got.Amount)
			assert.True(t, tx.OccurredOn.Equal(got.OccurredOn.Time))

			totals, err := res.Backend.MonthlyTotals(ctx, u.ID, 2024, 3)
			require.NoError(t, err)
			assert.Equal(t, "1000.00", totals.Get(core.KindIncome).String())

			_, err = res.Backend.Update(ctx, tx.ID, u.ID, core.TransactionPatch{Amount: core.Some(core.MustParseMoney("750"))})
			require.NoError(t, err)
			totals, err = res.Backend.MonthlyTotals(ctx, u.ID, 2024, 3)
			require.NoError(t, err)
			assert.Equal(t, "750.00", totals.Get(core.KindIncome).String(), "writes are visible to the next read")
		})
	}
}

func TestFactory_RejectsInvalidConfig(t *testing.T) {
	_, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: PostgresBackend})
	assert.Error(t, err)
}

func TestBackendResult_CloseWithoutCleanup(t *testing.T) {
	var r *BackendResult
	assert.NoError(t, r.Close())
	assert.NoError(t, (&BackendResult{}).Close())
}
