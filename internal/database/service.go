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

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pix-withdraw-go/internal/models"
	"pix-withdraw-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.WithdrawStore.
var _ store.WithdrawStore = (*Service)(nil)

// timeLayout is how timestamps are bound; always UTC so text comparison
// in SQLite orders them correctly.
const timeLayout = "2006-01-02 15:04:05"

type Service struct {
	db *sql.DB
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	// _txlock=immediate takes the write lock at BEGIN so concurrent settlement
	// attempts serialize instead of failing on lock upgrade.
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000&_busy_timeout=5000&_txlock=immediate&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	// Set connection timeouts and limits
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test connection with timeout
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			zap.L().Warn("Failed to close database after ping failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := NewServiceFromDB(db)
	if err := service.InitSchema(ctx, cfg.CreateDemoAccounts); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			zap.L().Warn("Failed to close database after schema failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

// NewServiceFromDB wraps an already opened handle. The caller is responsible
// for calling InitSchema.
func NewServiceFromDB(db *sql.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Service) InitSchema(ctx context.Context, createDemoAccounts bool) error {
	schema := `
	-- Accounts; version backs the optimistic balance check
	CREATE TABLE IF NOT EXISTS account (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		balance TEXT NOT NULL DEFAULT '0' CHECK (CAST(balance AS REAL) >= 0),
		version INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Withdraw requests, immediate and scheduled
	CREATE TABLE IF NOT EXISTS account_withdraw (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL REFERENCES account(id),
		method TEXT NOT NULL,
		amount TEXT NOT NULL,
		scheduled BOOLEAN NOT NULL DEFAULT 0,
		scheduled_for TIMESTAMP NULL,
		done BOOLEAN NOT NULL DEFAULT 0,
		error BOOLEAN NOT NULL DEFAULT 0,
		error_reason TEXT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		CHECK (NOT (done = 1 AND error = 1))
	);

	CREATE INDEX IF NOT EXISTS idx_account_withdraw_account ON account_withdraw(account_id, created_at);
	-- Settlement sweep selection
	CREATE INDEX IF NOT EXISTS idx_account_withdraw_due ON account_withdraw(scheduled, done, error, scheduled_for);

	-- PIX destination, one per withdraw
	CREATE TABLE IF NOT EXISTS account_withdraw_pix (
		account_withdraw_id TEXT PRIMARY KEY REFERENCES account_withdraw(id),
		type TEXT NOT NULL,
		"key" TEXT NOT NULL
	);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return err
	}

	if !createDemoAccounts {
		zap.L().Info("Skipping demo account creation (CREATE_DEMO_ACCOUNTS=false)")
		return nil
	}

	now := time.Now().UTC().Format(timeLayout)
	for _, account := range store.DemoAccounts {
		_, err := s.db.ExecContext(ctx, queryInsertDemoAccount,
			account.Id, account.Name, account.Balance.StringFixed(2), now, now)
		if err != nil {
			zap.L().Error("Failed to insert demo account", zap.String("name", account.Name), zap.Error(err))
		} else {
			zap.L().Info("Demo account ready", zap.String("id", account.Id), zap.String("name", account.Name))
		}
	}

	return nil
}

// WithTx runs fn in a transaction. The deferred rollback is a no-op once
// the commit succeeded.
func (s *Service) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = sqlTx.Rollback() }()

	if err := fn(&sqliteTx{tx: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
