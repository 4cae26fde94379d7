package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifeledger/internal/amqp"
	"lifeledger/internal/core"
	"lifeledger/internal/ledger/memory"
	"lifeledger/internal/sheets"
	sheetsmem "lifeledger/internal/sheets/memory"
)

type failingExporter struct{}

func (failingExporter) AppendActivity(context.Context, sheets.ActivityRow) (string, error) {
	return "", errors.New("quota exceeded")
}

func seed(t *testing.T) (*memory.Store, core.Transaction) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	u, err := store.CreateUser(ctx, core.NewUser{Name: "Ann", Email: "ann@example.com"})
	require.NoError(t, err)
	note := "march rent"
	tx, err := store.Create(ctx, u.ID, core.NewTransaction{
		Kind:       core.KindExpense,
		Category:   "rent",
		Amount:     core.MustParseMoney("500"),
		Note:       &note,
		OccurredOn: core.NewDate(2024, 3, 1),
	})
	require.NoError(t, err)
	return store, tx
}

func TestHandleCreatedEvent(t *testing.T) {
	store, tx := seed(t)
	exp := sheetsmem.New()
	w := NewExportWorker(store, exp)
	w.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }

	require.NoError(t, w.HandleLedgerEvent(context.Background(), amqp.NewLedgerEvent(amqp.TransactionCreated, tx)))

	rows := exp.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "transaction.created", rows[0].Event)
	assert.Equal(t, core.KindExpense, rows[0].Kind)
	assert.Equal(t, "rent", rows[0].Category)
	assert.Equal(t, "500.00", rows[0].Amount.String())
	assert.Equal(t, "march rent", rows[0].Note)
	assert.Equal(t, "2024-03-01", rows[0].OccurredOn.String())
}

func TestHandleEventForVanishedTransaction(t *testing.T) {
	store, tx := seed(t)
	exp := sheetsmem.New()
	w := NewExportWorker(store, exp)

	ok, err := store.Delete(context.Background(), tx.ID, tx.OwnerID)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, w.HandleLedgerEvent(context.Background(), amqp.NewLedgerEvent(amqp.TransactionUpdated, tx)))
	assert.Empty(t, exp.Rows())

	require.NoError(t, w.HandleLedgerEvent(context.Background(), amqp.NewLedgerEvent(amqp.TransactionDeleted, tx)))
	rows := exp.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "transaction.deleted", rows[0].Event)
	assert.Empty(t, rows[0].Kind)
}

func TestHandleEventExporterFailure(t *testing.T) {
	store, tx := seed(t)
	w := NewExportWorker(store, failingExporter{})

	err := w.HandleLedgerEvent(context.Background(), amqp.NewLedgerEvent(amqp.TransactionCreated, tx))
	assert.ErrorContains(t, err, "quota exceeded")
}
