package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pix-withdraw-go/internal/models"
	"pix-withdraw-go/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.WithdrawStore.
var _ store.WithdrawStore = (*Service)(nil)

// querier is implemented by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Service implements store.WithdrawStore on PostgreSQL. Account rows are
// locked with SELECT ... FOR UPDATE for the duration of a settlement
// transaction, and balance writes still carry the version check.
type Service struct {
	pool *pgxpool.Pool
}

func NewService(ctx context.Context, cfg models.PostgresConfig) (*Service, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for the postgres backend")
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}

	zap.L().Info("Opening PostgreSQL pool",
		zap.String("host", poolCfg.ConnConfig.Host),
		zap.String("database", poolCfg.ConnConfig.Database))

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := NewServiceFromPool(pool)
	if err := service.InitSchema(ctx, cfg.CreateDemoAccounts); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	zap.L().Info("PostgreSQL service initialized successfully")
	return service, nil
}

func NewServiceFromPool(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

func (s *Service) Close() {
	s.pool.Close()
}

func (s *Service) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Service) InitSchema(ctx context.Context, createDemoAccounts bool) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return err
	}

	if !createDemoAccounts {
		zap.L().Info("Skipping demo account creation (CREATE_DEMO_ACCOUNTS=false)")
		return nil
	}

	for _, account := range store.DemoAccounts {
		_, err := s.pool.Exec(ctx, queryInsertDemoAccount, account.Id, account.Name, account.Balance.StringFixed(2))
		if err != nil {
			zap.L().Error("Failed to insert demo account", zap.String("name", account.Name), zap.Error(err))
		} else {
			zap.L().Info("Demo account ready", zap.String("id", account.Id), zap.String("name", account.Name))
		}
	}
	return nil
}

func (s *Service) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ---------- accounts ----------

func scanAccount(row pgx.Row) (*models.Account, error) {
	var account models.Account
	var balance string
	if err := row.Scan(&account.Id, &account.Name, &balance, &account.Version, &account.CreatedAt, &account.UpdatedAt); err != nil {
		return nil, err
	}
	parsed, err := decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("invalid balance %q for account %s: %w", balance, account.Id, err)
	}
	account.Balance = parsed
	return &account, nil
}

func getAccount(ctx context.Context, q querier, query, accountId string) (*models.Account, error) {
	account, err := scanAccount(q.QueryRow(ctx, query, accountId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrAccountNotFound, accountId)
		}
		return nil, fmt.Errorf("unable to query account: %w", err)
	}
	return account, nil
}

func (s *Service) GetAccount(ctx context.Context, accountId string) (*models.Account, error) {
	return getAccount(ctx, s.pool, queryGetAccount, accountId)
}

func (s *Service) GetAccounts(ctx context.Context) ([]models.Account, error) {
	rows, err := s.pool.Query(ctx, queryGetAccounts)
	if err != nil {
		return nil, fmt.Errorf("unable to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan account row: %w", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return accounts, nil
}

func (s *Service) CreateAccount(ctx context.Context, params store.CreateAccountParams) (*models.Account, error) {
	if params.Name == "" {
		return nil, fmt.Errorf("account name cannot be empty")
	}
	if params.Balance.IsNegative() {
		return nil, fmt.Errorf("account balance cannot be negative: %s", params.Balance.String())
	}

	id := params.Id
	if id == "" {
		id = uuid.New().String()
	}

	account, err := scanAccount(s.pool.QueryRow(ctx, queryInsertAccount, id, params.Name, params.Balance.StringFixed(2)))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", store.ErrDuplicateAccount, id)
		}
		return nil, fmt.Errorf("unable to create account: %w", err)
	}

	zap.L().Info("Account created",
		zap.String("account_id", id),
		zap.String("name", params.Name),
		zap.String("balance", params.Balance.StringFixed(2)))
	return account, nil
}

// ---------- withdraws ----------

func scanWithdraw(row pgx.Row) (*models.Withdraw, error) {
	var withdraw models.Withdraw
	var amount string
	var errorReason *string

	err := row.Scan(
		&withdraw.Id, &withdraw.AccountId, &withdraw.Method, &amount,
		&withdraw.Scheduled, &withdraw.ScheduledFor, &withdraw.Done, &withdraw.Error, &errorReason,
		&withdraw.CreatedAt, &withdraw.UpdatedAt)
	if err != nil {
		return nil, err
	}

	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q for withdraw %s: %w", amount, withdraw.Id, err)
	}
	withdraw.Amount = parsed
	if errorReason != nil {
		withdraw.ErrorReason = *errorReason
	}
	return &withdraw, nil
}

func (s *Service) queryWithdraws(ctx context.Context, query string, args ...any) ([]models.Withdraw, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("unable to query withdraws: %w", err)
	}
	defer rows.Close()

	var withdraws []models.Withdraw
	for rows.Next() {
		withdraw, err := scanWithdraw(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan withdraw row: %w", err)
		}
		withdraws = append(withdraws, *withdraw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating withdraw rows: %w", err)
	}
	return withdraws, nil
}

func (s *Service) GetWithdraw(ctx context.Context, withdrawId string) (*models.Withdraw, error) {
	withdraw, err := scanWithdraw(s.pool.QueryRow(ctx, queryGetWithdraw, withdrawId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrWithdrawNotFound, withdrawId)
		}
		return nil, fmt.Errorf("unable to query withdraw: %w", err)
	}
	return withdraw, nil
}

func (s *Service) GetWithdrawsByAccount(ctx context.Context, accountId string, limit int) ([]models.Withdraw, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.queryWithdraws(ctx, queryGetWithdrawsByAccount, accountId, limit)
}

func (s *Service) GetDueScheduledWithdraws(ctx context.Context, now time.Time) ([]models.Withdraw, error) {
	return s.queryWithdraws(ctx, queryGetDueScheduledWithdraws, now.UTC())
}

func (s *Service) GetPixDetail(ctx context.Context, withdrawId string) (*models.PixDetail, error) {
	var pix models.PixDetail
	err := s.pool.QueryRow(ctx, queryGetPixDetail, withdrawId).Scan(&pix.WithdrawId, &pix.Type, &pix.Key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("pix detail not found for withdraw %s: %w", withdrawId, store.ErrWithdrawNotFound)
		}
		return nil, fmt.Errorf("unable to query pix detail: %w", err)
	}
	return &pix, nil
}

func (s *Service) MarkWithdrawError(ctx context.Context, withdrawId, reason string) error {
	tag, err := s.pool.Exec(ctx, queryMarkWithdrawError, withdrawId, reason)
	if err != nil {
		return fmt.Errorf("failed to mark withdraw as failed: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	if _, err := s.GetWithdraw(ctx, withdrawId); err != nil {
		return err
	}
	return fmt.Errorf("cannot flag withdraw %s as failed - %w", withdrawId, store.ErrWithdrawSettled)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
