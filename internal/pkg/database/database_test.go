package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDB_UnsupportedDriver(t *testing.T) {
	_, err := NewDB("mysql", "root@/users")

	assert.ErrorContains(t, err, "não suportado")
}

func TestMigrate_SQLiteCreatesUsersTable(t *testing.T) {
	db, err := NewDB(DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	applied, err := Migrate(context.Background(), db, DriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	// Segunda execução não aplica nada.
	applied, err = Migrate(context.Background(), db, DriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, 0, applied)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestIsUniqueViolation_SQLite(t *testing.T) {
	db, err := NewDB(DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer db.Close()
	_, err = Migrate(context.Background(), db, DriverSQLite)
	require.NoError(t, err)

	insert := `INSERT INTO users (email, password_hash) VALUES ($1, $2)`
	_, err = db.Exec(insert, "ana@example.com", "hash")
	require.NoError(t, err)

	_, err = db.Exec(insert, "ana@example.com", "hash")
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.True(t, IsUniqueViolation(fmt.Errorf("repo: %w", err)))
}

func TestIsUniqueViolation_Postgres(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("qualquer")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestDialect(t *testing.T) {
	_, err := Dialect("oracle")
	assert.Error(t, err)

	d, err := Dialect(DriverPostgres)
	require.NoError(t, err)
	assert.Equal(t, "postgres", string(d))
}
