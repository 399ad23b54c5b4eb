package modelcache

import (
	"database/sql"
)

func initSchema(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS model_weights (
			key TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			scale INTEGER NOT NULL,
			path TEXT NOT NULL,
			size INTEGER NOT NULL,
			sha256 TEXT NOT NULL,
			fetched_at INTEGER NOT NULL,
			last_used_at INTEGER NOT NULL
		);
	`)
	return err
}
