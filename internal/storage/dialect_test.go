package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifeledger/internal/core"
)

func TestRebind(t *testing.T) {
	q := "SELECT * FROM t WHERE a = ? AND b = '?' AND c = ?"
	assert.Equal(t, q, SQLite.Rebind(q))
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = '?' AND c = $2", Postgres.Rebind(q))
}

func TestClassifyPostgres(t *testing.T) {
	err := classify(&pq.Error{Code: "23505", Constraint: "users_email_key"})
	assert.ErrorIs(t, err, core.ErrConflict)

	err = classify(&pq.Error{Code: "23503", Constraint: "transactions_user_id_fkey"})
	assert.ErrorIs(t, err, core.ErrReference)

	other := &pq.Error{Code: "40001"}
	assert.Same(t, other, classify(other))

	plain := errors.New("boom")
	assert.Equal(t, plain, classify(plain))
	assert.NoError(t, classify(nil))
}

func TestTimestampRoundTrip(t *testing.T) {
	in := timestamp{time.Date(2024, 3, 1, 9, 30, 15, 123456000, time.UTC)}
	v, err := in.Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T09:30:15.123456Z", v)

	var out timestamp
	require.NoError(t, out.Scan(v))
	assert.True(t, in.Equal(out.Time))

	require.NoError(t, out.Scan([]byte("2024-03-01 10:30:15.123456+01:00")))
	assert.True(t, in.Equal(out.Time))

	assert.Error(t, out.Scan(42))
}
