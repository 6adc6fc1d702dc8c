package store

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	api_key TEXT NOT NULL UNIQUE,
	currency TEXT NOT NULL,
	balance TEXT NOT NULL,
	realized_pl TEXT NOT NULL,
	version INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS holdings (
	account_id TEXT NOT NULL REFERENCES accounts(id),
	symbol TEXT NOT NULL,
	class TEXT NOT NULL,
	quantity TEXT NOT NULL,
	average_price TEXT NOT NULL,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (account_id, symbol)
);

CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL REFERENCES accounts(id),
	symbol TEXT NOT NULL,
	class TEXT NOT NULL,
	side TEXT NOT NULL,
	quantity TEXT NOT NULL,
	price TEXT NOT NULL,
	fee TEXT NOT NULL,
	total TEXT NOT NULL,
	balance_after TEXT NOT NULL,
	executed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_account ON trades(account_id, trade_id);
CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(account_id, symbol);

CREATE TABLE IF NOT EXISTS price_cache (
	symbol TEXT PRIMARY KEY,
	class TEXT NOT NULL,
	price TEXT NOT NULL,
	source TEXT NOT NULL,
	retrieved_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS candles (
	symbol TEXT NOT NULL,
	resolution TEXT NOT NULL,
	ts INTEGER NOT NULL,
	open TEXT NOT NULL,
	high TEXT NOT NULL,
	low TEXT NOT NULL,
	close TEXT NOT NULL,
	volume TEXT NOT NULL,
	source TEXT NOT NULL,
	cached_at DATETIME NOT NULL,
	PRIMARY KEY (symbol, resolution, ts)
);
`
