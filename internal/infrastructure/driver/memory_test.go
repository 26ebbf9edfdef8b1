package driver

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKV(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()

	require.NoError(t, kv.Push(ctx, "q", "a", "b", "a", "c"))
	values, err := kv.Range(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "a", "c"}, values)

	values[0] = "mutated"
	again, _ := kv.Range(ctx, "q")
	assert.Equal(t, "a", again[0], "range returns a copy")

	require.NoError(t, kv.RemoveValues(ctx, "q", "a", "c", "missing"))
	values, _ = kv.Range(ctx, "q")
	assert.Equal(t, []string{"b", "a"}, values, "one occurrence per value")

	n, err := kv.Len(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, kv.RemoveValues(ctx, "q", "a", "b"))
	n, _ = kv.Len(ctx, "q")
	assert.Zero(t, n)
	assert.NoError(t, kv.Ping())
}

func TestMySQLAdapter(t *testing.T) {
	got := mysqlAdapter(`
SELECT "id"
FROM pending_progress
WHERE id IN ($1, $2)`)

	assert.Equal(t, " SELECT `id` FROM pending_progress WHERE id IN (?, ?)", got)
}

func TestTxOptionAdapters(t *testing.T) {
	write := &TxOptions{Isolation: sql.LevelReadCommitted, AccessMode: AccessReadWrite, DeferrableMode: NotDeferrable}

	pgOpts := pgTxOptionAdapter(write)
	assert.Equal(t, pgx.TxIsoLevel("read committed"), pgOpts.IsoLevel)
	assert.Equal(t, pgx.ReadWrite, pgOpts.AccessMode)
	assert.Equal(t, pgx.NotDeferrable, pgOpts.DeferrableMode)

	pgOpts = pgTxOptionAdapter(&TxOptions{AccessMode: AccessReadOnly})
	assert.Empty(t, pgOpts.IsoLevel, "default isolation leaves the level to the server")
	assert.Equal(t, pgx.ReadOnly, pgOpts.AccessMode)

	sqlOpts := mysqlTxOptionAdapter(write)
	assert.Equal(t, sql.LevelReadCommitted, sqlOpts.Isolation)
	assert.False(t, sqlOpts.ReadOnly)
	assert.Nil(t, mysqlTxOptionAdapter(nil))
}

func TestGetDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  *DBConfig
		want string
	}{
		{
			"mysql",
			&DBConfig{User: "root", Password: "pw", Protocol: "tcp", Host: "db", Port: 3306, Schema: "learn", Query: "parseTime=true"},
			"root:pw@tcp(db:3306)/learn?parseTime=true",
		},
		{
			"postgres",
			&DBConfig{User: "root", Password: "pw", Host: "db", Port: 5432, Schema: "learn"},
			"root:pw@db:5432/learn",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getDSN(tt.cfg))
		})
	}

	_, err := GetDBConnection(&DBConfig{Driver: "sqlite"})
	assert.Error(t, err)
}
