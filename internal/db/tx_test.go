package db

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	_, err = conn.Exec(`CREATE TABLE test_table (id INTEGER PRIMARY KEY, value TEXT)`)
	require.NoError(t, err)
	return conn
}

func count(t *testing.T, conn *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM test_table`).Scan(&n))
	return n
}

func TestWithTx_Success(t *testing.T) {
	conn := setupTestDB(t)

	err := WithTx(conn, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO test_table (value) VALUES (?)`, "test")
		return err
	})

	require.NoError(t, err)
	assert.Equal(t, 1, count(t, conn))
}

func TestWithTx_Rollback(t *testing.T) {
	conn := setupTestDB(t)
	testErr := errors.New("test error")

	err := WithTx(conn, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO test_table (value) VALUES (?)`, "test"); err != nil {
			return err
		}
		return testErr
	})

	assert.ErrorIs(t, err, testErr)
	assert.Equal(t, 0, count(t, conn), "insert should be rolled back")
}

func TestOpen_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "index.db")

	conn, err := Open(path)
	require.NoError(t, err)
	defer conn.Close()

	assert.FileExists(t, path)
}

func TestNullInt64Value(t *testing.T) {
	assert.Equal(t, int64(0), NullInt64Value(sql.NullInt64{}))
	assert.Equal(t, int64(42), NullInt64Value(sql.NullInt64{Int64: 42, Valid: true}))
}
