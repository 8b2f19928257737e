package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	direction TEXT NOT NULL,
	entry_time DATETIME NOT NULL,
	exit_time DATETIME NOT NULL,
	pnl REAL,
	result TEXT NOT NULL DEFAULT '',
	risk_reward REAL,
	risk_amount REAL NOT NULL DEFAULT 0,
	quantity REAL NOT NULL DEFAULT 0,
	entry_price REAL NOT NULL DEFAULT 0,
	exit_price REAL NOT NULL DEFAULT 0,
	stop_price REAL NOT NULL DEFAULT 0,
	target_price REAL NOT NULL DEFAULT 0,
	tags TEXT NOT NULL DEFAULT '[]',
	notes TEXT NOT NULL DEFAULT '',
	mood TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_trades_account_entry ON trades(account_id, entry_time);
CREATE INDEX IF NOT EXISTS idx_trades_exit ON trades(exit_time);

CREATE TABLE IF NOT EXISTS accounts (
	account_id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	currency TEXT NOT NULL,
	starting_balance REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS reflections (
	account_id TEXT NOT NULL,
	day TEXT NOT NULL,
	mood TEXT NOT NULL DEFAULT '',
	summary TEXT NOT NULL DEFAULT '',
	blocks TEXT NOT NULL DEFAULT '[]',
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (account_id, day)
);

CREATE TABLE IF NOT EXISTS notes (
	note_id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	day TEXT NOT NULL,
	body TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notes_day ON notes(account_id, day);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);
`
