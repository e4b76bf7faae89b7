/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

const (
	// Account queries
	queryInsertAccount = `
		INSERT INTO account (id, name, balance, version, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?)`

	queryInsertDemoAccount = `
		INSERT OR IGNORE INTO account (id, name, balance, version, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?)`

	queryGetAccount = `
		SELECT id, name, balance, version, created_at, updated_at
		FROM account
		WHERE id = ?`

	queryGetAccounts = `
		SELECT id, name, balance, version, created_at, updated_at
		FROM account
		ORDER BY name`

	queryUpdateAccountBalance = `
		UPDATE account
		SET balance = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`

	// Withdraw queries
	queryInsertWithdraw = `
		INSERT INTO account_withdraw (id, account_id, method, amount, scheduled, scheduled_for, done, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, 0, ?, ?)`

	queryGetWithdraw = `
		SELECT id, account_id, method, amount, scheduled, scheduled_for, done, error, error_reason, created_at, updated_at
		FROM account_withdraw
		WHERE id = ?`

	queryGetWithdrawsByAccount = `
		SELECT id, account_id, method, amount, scheduled, scheduled_for, done, error, error_reason, created_at, updated_at
		FROM account_withdraw
		WHERE account_id = ?
		ORDER BY created_at DESC
		LIMIT ?`

	queryGetDueScheduledWithdraws = `
		SELECT id, account_id, method, amount, scheduled, scheduled_for, done, error, error_reason, created_at, updated_at
		FROM account_withdraw
		WHERE scheduled = 1 AND done = 0 AND error = 0 AND scheduled_for <= ?
		ORDER BY scheduled_for`

	queryMarkWithdrawDone = `
		UPDATE account_withdraw
		SET done = 1, updated_at = ?
		WHERE id = ? AND done = 0 AND error = 0`

	queryMarkWithdrawError = `
		UPDATE account_withdraw
		SET error = 1, error_reason = ?, updated_at = ?
		WHERE id = ? AND done = 0`

	// PIX detail queries
	queryInsertPixDetail = `
		INSERT INTO account_withdraw_pix (account_withdraw_id, type, "key")
		VALUES (?, ?, ?)`

	queryGetPixDetail = `
		SELECT account_withdraw_id, type, "key"
		FROM account_withdraw_pix
		WHERE account_withdraw_id = ?`
)
