package sqlite

import "database/sql"

func RunMigrations(db *sql.DB) error {
	stmts := []string{

		`CREATE TABLE IF NOT EXISTS payments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			identifier TEXT NOT NULL UNIQUE,
			reference TEXT NOT NULL,
			amount TEXT NOT NULL,
			payment_id TEXT NOT NULL DEFAULT '',
			next_url TEXT NOT NULL DEFAULT '',
			failure_url TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			finished INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			captured_at TEXT,
			card_prefix TEXT NOT NULL DEFAULT '',
			card_suffix TEXT NOT NULL DEFAULT '',
			refund_reference TEXT,
			version INTEGER NOT NULL DEFAULT 1
		);`,

		`CREATE INDEX IF NOT EXISTS idx_payments_reference
			ON payments (reference, finished);`,

		`CREATE TABLE IF NOT EXISTS outbox_events (
			id TEXT PRIMARY KEY,
			event_type TEXT NOT NULL,
			payload BLOB NOT NULL,
			published INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		);`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
