package postgres

const schema = `
CREATE TABLE IF NOT EXISTS account (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	balance NUMERIC(15,2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
	version BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS account_withdraw (
	id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL REFERENCES account(id),
	method TEXT NOT NULL,
	amount NUMERIC(15,2) NOT NULL CHECK (amount > 0),
	scheduled BOOLEAN NOT NULL DEFAULT false,
	scheduled_for TIMESTAMPTZ NULL,
	done BOOLEAN NOT NULL DEFAULT false,
	error BOOLEAN NOT NULL DEFAULT false,
	error_reason TEXT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CHECK (NOT (done AND error))
);

CREATE INDEX IF NOT EXISTS idx_account_withdraw_account ON account_withdraw(account_id, created_at);
CREATE INDEX IF NOT EXISTS idx_account_withdraw_due ON account_withdraw(scheduled_for)
	WHERE scheduled AND NOT done AND NOT error;

CREATE TABLE IF NOT EXISTS account_withdraw_pix (
	account_withdraw_id TEXT PRIMARY KEY REFERENCES account_withdraw(id),
	type TEXT NOT NULL,
	key TEXT NOT NULL
);
`

const (
	accountColumns  = `id, name, balance::text, version, created_at, updated_at`
	withdrawColumns = `id, account_id, method, amount::text, scheduled, scheduled_for, done, error, error_reason, created_at, updated_at`

	queryInsertAccount = `
		INSERT INTO account (id, name, balance)
		VALUES ($1, $2, $3::numeric)
		RETURNING ` + accountColumns

	queryInsertDemoAccount = `
		INSERT INTO account (id, name, balance)
		VALUES ($1, $2, $3::numeric)
		ON CONFLICT (id) DO NOTHING`

	queryGetAccount = `SELECT ` + accountColumns + ` FROM account WHERE id = $1`

	queryGetAccountForUpdate = `SELECT ` + accountColumns + ` FROM account WHERE id = $1 FOR UPDATE`

	queryGetAccounts = `SELECT ` + accountColumns + ` FROM account ORDER BY name`

	queryUpdateAccountBalance = `
		UPDATE account
		SET balance = $1::numeric, version = version + 1, updated_at = now()
		WHERE id = $2 AND version = $3
		RETURNING updated_at`

	queryInsertWithdraw = `
		INSERT INTO account_withdraw (id, account_id, method, amount, scheduled, scheduled_for, created_at, updated_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8)`

	queryGetWithdraw = `SELECT ` + withdrawColumns + ` FROM account_withdraw WHERE id = $1`

	queryGetWithdrawsByAccount = `
		SELECT ` + withdrawColumns + `
		FROM account_withdraw
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	queryGetDueScheduledWithdraws = `
		SELECT ` + withdrawColumns + `
		FROM account_withdraw
		WHERE scheduled AND NOT done AND NOT error AND scheduled_for <= $1
		ORDER BY scheduled_for`

	queryMarkWithdrawDone = `
		UPDATE account_withdraw
		SET done = true, updated_at = now()
		WHERE id = $1 AND NOT done AND NOT error`

	queryMarkWithdrawError = `
		UPDATE account_withdraw
		SET error = true, error_reason = $2, updated_at = now()
		WHERE id = $1 AND NOT done`

	queryInsertPixDetail = `
		INSERT INTO account_withdraw_pix (account_withdraw_id, type, key)
		VALUES ($1, $2, $3)`

	queryGetPixDetail = `
		SELECT account_withdraw_id, type, key
		FROM account_withdraw_pix
		WHERE account_withdraw_id = $1`
)
