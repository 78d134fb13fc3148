package database

// InitSchema creates all tables and indexes. The SQL mirrors the files
// under migrations/ so tests can run against in-memory databases
// without the migration runner.
func (s *Service) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS companies (
		id TEXT PRIMARY KEY,
		identifier TEXT NOT NULL UNIQUE,
		secret TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_companies_identifier ON companies(identifier);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		identifier TEXT NOT NULL,
		company_id TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(company_id, identifier)
	);

	CREATE TABLE IF NOT EXISTS currencies (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		code TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		symbol TEXT NOT NULL DEFAULT '',
		unit TEXT NOT NULL DEFAULT '',
		divisibility INTEGER NOT NULL,
		enabled BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(company_id, code)
	);

	-- Monetary columns are TEXT holding canonical decimal strings;
	-- arithmetic happens in Go at 28/18 precision.
	CREATE TABLE IF NOT EXISTS icos (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		currency_code TEXT NOT NULL,
		amount TEXT NOT NULL DEFAULT '0',
		amount_remaining TEXT NOT NULL DEFAULT '0',
		base_currency_code TEXT NOT NULL,
		base_goal_amount TEXT NOT NULL DEFAULT '0',
		min_purchase_amount TEXT NOT NULL DEFAULT '0',
		max_purchase_amount TEXT NOT NULL DEFAULT '0',
		max_purchases INTEGER NOT NULL DEFAULT 10,
		status TEXT NOT NULL DEFAULT 'hidden',
		public BOOLEAN NOT NULL DEFAULT 0,
		enabled BOOLEAN NOT NULL DEFAULT 0,
		deleted BOOLEAN NOT NULL DEFAULT 0,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_icos_company ON icos(company_id);
	CREATE INDEX IF NOT EXISTS idx_icos_company_enabled ON icos(company_id, enabled);

	CREATE TABLE IF NOT EXISTS phases (
		id TEXT PRIMARY KEY,
		ico_id TEXT NOT NULL REFERENCES icos(id) ON DELETE CASCADE,
		level INTEGER NOT NULL,
		percentage INTEGER NOT NULL,
		base_rate TEXT NOT NULL,
		deleted BOOLEAN NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_phases_ico_level ON phases(ico_id, level);

	CREATE TABLE IF NOT EXISTS rates (
		id TEXT PRIMARY KEY,
		phase_id TEXT NOT NULL REFERENCES phases(id) ON DELETE CASCADE,
		currency_code TEXT NOT NULL,
		rate TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(phase_id, currency_code)
	);

	CREATE TABLE IF NOT EXISTS quotes (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		phase_id TEXT NOT NULL REFERENCES phases(id) ON DELETE CASCADE,
		deposit_currency_code TEXT NOT NULL,
		deposit_amount TEXT NOT NULL,
		token_amount TEXT NOT NULL,
		rate TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_quotes_reuse
		ON quotes(user_id, phase_id, deposit_currency_code, deposit_amount);

	-- deposit_tx_id and token_tx_id unique constraints are the second
	-- line of defense against duplicate webhook deliveries racing past
	-- the application-level lookup.
	CREATE TABLE IF NOT EXISTS purchases (
		id TEXT PRIMARY KEY,
		quote_id TEXT NOT NULL UNIQUE REFERENCES quotes(id),
		deposit_tx_id TEXT NOT NULL UNIQUE,
		token_tx_id TEXT UNIQUE,
		status TEXT NOT NULL DEFAULT 'pending',
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_purchases_deposit_tx ON purchases(deposit_tx_id);

	CREATE TABLE IF NOT EXISTS purchase_messages (
		id TEXT PRIMARY KEY,
		purchase_id TEXT NOT NULL REFERENCES purchases(id) ON DELETE CASCADE,
		message TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_purchase_messages_purchase
		ON purchase_messages(purchase_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}
