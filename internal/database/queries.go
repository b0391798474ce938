package database

const schema = `
	-- Wallets hold the cached balance and the lifetime foundational accumulator
	CREATE TABLE IF NOT EXISTS wallets (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL UNIQUE,
		balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
		foundational_voltz BIGINT NOT NULL DEFAULT 0 CHECK (foundational_voltz >= 0),
		version BIGINT NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	-- Append-only history of every movement
	CREATE TABLE IF NOT EXISTS wallet_transactions (
		id TEXT PRIMARY KEY,
		source_wallet_id TEXT REFERENCES wallets(id),
		target_wallet_id TEXT NOT NULL REFERENCES wallets(id),
		amount BIGINT NOT NULL CHECK (amount > 0),
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		voltz_type TEXT NOT NULL,
		escrow BOOLEAN NOT NULL DEFAULT FALSE,
		deal_id TEXT,
		event_id TEXT,
		campaign_manager_id TEXT,
		external_ref TEXT UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		settled_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_wallet_transactions_source ON wallet_transactions(source_wallet_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_wallet_transactions_target ON wallet_transactions(target_wallet_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_wallet_transactions_status ON wallet_transactions(status);

	-- Deal redemption requests driven by the orchestrators
	CREATE TABLE IF NOT EXISTS redemption_requests (
		id TEXT PRIMARY KEY,
		deal_id TEXT NOT NULL,
		volunteer_owner_id TEXT NOT NULL,
		company_owner_id TEXT NOT NULL,
		hold_entry_id TEXT NOT NULL REFERENCES wallet_transactions(id),
		amount BIGINT NOT NULL CHECK (amount > 0),
		status TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_redemption_requests_status ON redemption_requests(status, created_at);
`

// Wallet queries
const (
	walletColumns = `id, owner_id, balance, foundational_voltz, version, created_at, updated_at`

	queryInsertWallet = `
		INSERT INTO wallets (id, owner_id, balance, foundational_voltz, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryGetWalletById = `SELECT ` + walletColumns + ` FROM wallets WHERE id = ?`

	queryGetWalletByOwnerId = `SELECT ` + walletColumns + ` FROM wallets WHERE owner_id = ?`

	queryUpdateWalletBalances = `
		UPDATE wallets
		SET balance = ?, foundational_voltz = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`

	queryListWallets = `SELECT ` + walletColumns + ` FROM wallets ORDER BY created_at, id`
)

// Ledger entry queries
const (
	entryColumns = `id, source_wallet_id, target_wallet_id, amount, type, status, voltz_type, escrow,
		deal_id, event_id, campaign_manager_id, external_ref, description, created_at, updated_at, settled_at`

	queryInsertEntry = `
		INSERT INTO wallet_transactions (` + entryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetEntry = `SELECT ` + entryColumns + ` FROM wallet_transactions WHERE id = ?`

	queryFindEntryByExternalRef = `SELECT ` + entryColumns + ` FROM wallet_transactions WHERE external_ref = ?`

	queryTransitionEntryStatus = `
		UPDATE wallet_transactions
		SET status = ?, updated_at = ?, settled_at = ?
		WHERE id = ? AND status = ?`

	queryListWalletEntries = `
		SELECT ` + entryColumns + `
		FROM wallet_transactions
		WHERE source_wallet_id = ? OR target_wallet_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`

	// Released incoming movements, excluding foundational grants which never touch the balance
	querySumIncoming = `
		SELECT COALESCE(SUM(amount), 0)
		FROM wallet_transactions
		WHERE target_wallet_id = ? AND status = 'RELEASED'
		  AND NOT (source_wallet_id IS NULL AND voltz_type = 'FOUNDATIONAL')`

	// Outgoing movements still debiting the balance: open holds and released transfers
	querySumOutgoing = `
		SELECT COALESCE(SUM(amount), 0)
		FROM wallet_transactions
		WHERE source_wallet_id = ? AND status IN ('HOLD', 'RELEASED')`

	querySumFoundational = `
		SELECT COALESCE(SUM(amount), 0)
		FROM wallet_transactions
		WHERE target_wallet_id = ? AND source_wallet_id IS NULL AND voltz_type = 'FOUNDATIONAL'`
)

// Redemption queries
const (
	redemptionColumns = `id, deal_id, volunteer_owner_id, company_owner_id, hold_entry_id, amount, status, created_at, updated_at`

	queryInsertRedemption = `
		INSERT INTO redemption_requests (` + redemptionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetRedemption = `SELECT ` + redemptionColumns + ` FROM redemption_requests WHERE id = ?`

	queryTransitionRedemptionStatus = `
		UPDATE redemption_requests
		SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`

	queryListPendingRedemptionsBefore = `
		SELECT ` + redemptionColumns + `
		FROM redemption_requests
		WHERE status = 'PENDING' AND created_at < ?
		ORDER BY created_at, id
		LIMIT ?`
)
