package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"pix-withdraw-go/internal/api"
	"pix-withdraw-go/internal/config"
	"pix-withdraw-go/internal/database"
	"pix-withdraw-go/internal/formance"
	"pix-withdraw-go/internal/lock"
	"pix-withdraw-go/internal/models"
	"pix-withdraw-go/internal/notify"
	"pix-withdraw-go/internal/postgres"
	"pix-withdraw-go/internal/store"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	Store     store.WithdrawStore
	Notifier  notify.Notifier
	Journal   *formance.Service // nil unless FORMANCE_STACK_URL is set
	Locker    lock.Locker
	Withdraws *api.WithdrawService
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices wires the store, notifier, optional payout journal and
// sweep lock into a WithdrawService.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	withdrawStore, err := InitializeStoreOnly(ctx, cfg)
	if err != nil {
		return nil, err
	}
	services := &Services{Store: withdrawStore, Locker: lock.NoopLocker{}}

	zap.L().Info("Initializing notifier", zap.String("driver", cfg.Notifier.Driver))
	services.Notifier, err = notify.New(cfg)
	if err != nil {
		services.Close()
		return nil, err
	}

	var journal api.PayoutJournal
	if cfg.Formance.StackURL != "" {
		services.Journal, err = formance.NewService(ctx, cfg.Formance)
		if err != nil {
			services.Close()
			return nil, err
		}
		journal = services.Journal
	}

	if cfg.Redis.Addr != "" {
		services.Locker, err = lock.NewRedisLocker(ctx, cfg.Redis)
		if err != nil {
			services.Close()
			return nil, err
		}
	}

	services.Withdraws, err = api.NewWithdrawService(api.WithdrawServiceConfig{
		Store:    withdrawStore,
		Notifier: services.Notifier,
		Journal:  journal,
	})
	if err != nil {
		services.Close()
		return nil, err
	}

	return services, nil
}

// InitializeStoreOnly opens the configured store without the notification
// and ledger collaborators. Useful for read-only operations and seeding.
func InitializeStoreOnly(ctx context.Context, cfg *models.Config) (store.WithdrawStore, error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		return postgres.NewService(ctx, cfg.Postgres)
	case config.BackendSQLite, "":
		return database.NewService(ctx, cfg.Database)
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}
}

func (cs *Services) Close() {
	if cs.Locker != nil {
		if err := cs.Locker.Close(); err != nil {
			zap.L().Warn("Failed to close sweep lock", zap.Error(err))
		}
	}
	if cs.Notifier != nil {
		if err := cs.Notifier.Close(); err != nil {
			zap.L().Warn("Failed to close notifier", zap.Error(err))
		}
	}
	if cs.Journal != nil {
		cs.Journal.Close()
	}
	if cs.Store != nil {
		cs.Store.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
