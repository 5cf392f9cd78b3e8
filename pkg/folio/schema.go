package folio

import (
	"context"
	"database/sql"
)

// Amounts are stored as canonical decimal TEXT and timestamps as fixed-width
// UTC TEXT so the same DDL runs on sqlite and postgres and text ordering
// matches chronological ordering.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		token TEXT NOT NULL UNIQUE,
		expires_at TEXT NOT NULL,
		revoked INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS asset_types (
		code TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		description TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS portfolios (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		name TEXT NOT NULL,
		description TEXT,
		is_active INTEGER NOT NULL DEFAULT 1,
		deleted_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS investments (
		id TEXT PRIMARY KEY,
		portfolio_id TEXT NOT NULL REFERENCES portfolios(id),
		asset_type TEXT REFERENCES asset_types(code),
		symbol TEXT NOT NULL,
		name TEXT NOT NULL,
		quantity TEXT NOT NULL DEFAULT '0',
		average_purchase_price TEXT NOT NULL DEFAULT '0',
		current_price TEXT,
		currency TEXT,
		notes TEXT,
		is_active INTEGER NOT NULL DEFAULT 1,
		deleted_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		investment_id TEXT NOT NULL REFERENCES investments(id),
		transaction_type TEXT NOT NULL CHECK (transaction_type IN ('buy', 'sell')),
		quantity TEXT NOT NULL,
		price_per_unit TEXT NOT NULL,
		fees TEXT,
		transaction_date TEXT NOT NULL,
		notes TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS operation_logs (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		operation TEXT NOT NULL,
		entity_id TEXT,
		details TEXT,
		old_value TEXT,
		new_value TEXT,
		created_at TEXT NOT NULL
	)`,
	"CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user ON refresh_tokens(user_id)",
	"CREATE INDEX IF NOT EXISTS idx_portfolios_user ON portfolios(user_id)",
	"CREATE INDEX IF NOT EXISTS idx_investments_portfolio ON investments(portfolio_id)",
	"CREATE INDEX IF NOT EXISTS idx_investments_symbol ON investments(symbol)",
	"CREATE INDEX IF NOT EXISTS idx_transactions_investment ON transactions(investment_id)",
	"CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(transaction_date)",
	"CREATE INDEX IF NOT EXISTS idx_operation_logs_entity ON operation_logs(entity_id)",
}

func (c *Core) initDatabase() error {
	ctx := context.Background()
	return c.WithTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range schemaStatements {
			if _, err := c.exec(ctx, tx, stmt); err != nil {
				return err
			}
		}
		return c.seedAssetTypes(ctx, tx)
	})
}

func (c *Core) seedAssetTypes(ctx context.Context, tx *sql.Tx) error {
	createdAt := formatTime(c.timestamp())
	for _, at := range DefaultAssetTypes {
		if _, err := c.exec(ctx, tx, `
			INSERT INTO asset_types (code, label, description, created_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (code) DO NOTHING
		`, at.Code, at.Label, at.Description, createdAt); err != nil {
			return err
		}
	}
	return nil
}
