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

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"pix-withdraw-go/internal/models"
)

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	requestTimeout, err := getEnvDuration("HTTP_REQUEST_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	scheduleHorizon, err := getEnvDuration("SCHEDULE_HORIZON", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}

	pollingInterval, err := getEnvDuration("SETTLEMENT_POLLING_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}

	lockTTL, err := getEnvDuration("SETTLEMENT_LOCK_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	kafkaWriteTimeout, err := getEnvDuration("KAFKA_WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	timezone := getEnvString("APP_TIMEZONE", "America/Sao_Paulo")
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone for APP_TIMEZONE: %q (%w)", timezone, err)
	}

	backend := strings.ToLower(getEnvString("STORE_BACKEND", BackendSQLite))
	if backend != BackendSQLite && backend != BackendPostgres {
		return nil, fmt.Errorf("invalid STORE_BACKEND: %q (expected %s or %s)", backend, BackendSQLite, BackendPostgres)
	}

	createDemoAccounts := getEnvBool("CREATE_DEMO_ACCOUNTS", false)
	maxOpenConns := getEnvInt("DB_MAX_OPEN_CONNS", 25)
	maxIdleConns := getEnvInt("DB_MAX_IDLE_CONNS", 5)

	return &models.Config{
		Store: models.StoreConfig{
			Backend: backend,
		},
		Database: models.DatabaseConfig{
			Path:               getEnvString("DATABASE_PATH", "pix-withdraw.db"),
			MaxOpenConns:       maxOpenConns,
			MaxIdleConns:       maxIdleConns,
			ConnMaxLifetime:    connMaxLifetime,
			ConnMaxIdleTime:    connMaxIdleTime,
			PingTimeout:        pingTimeout,
			CreateDemoAccounts: createDemoAccounts,
		},
		Postgres: models.PostgresConfig{
			URL:                getEnvString("DATABASE_URL", ""),
			MaxConns:           int32(maxOpenConns),
			MinConns:           int32(maxIdleConns),
			ConnMaxLifetime:    connMaxLifetime,
			ConnMaxIdleTime:    connMaxIdleTime,
			PingTimeout:        pingTimeout,
			CreateDemoAccounts: createDemoAccounts,
		},
		HTTP: models.HTTPConfig{
			Addr:            getEnvString("HTTP_ADDR", ":8080"),
			RequestTimeout:  requestTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
		Withdraw: models.WithdrawConfig{
			Location:        location,
			ScheduleHorizon: scheduleHorizon,
		},
		Settlement: models.SettlementConfig{
			PollingInterval: pollingInterval,
			LockTTL:         lockTTL,
			RunInServer:     getEnvBool("RUN_SETTLEMENT", false),
			AccountsFile:    getEnvString("ACCOUNTS_FILE", "accounts.yaml"),
		},
		Notifier: models.NotifierConfig{
			Driver: strings.ToLower(getEnvString("NOTIFIER_DRIVER", "log")),
		},
		Mail: models.MailConfig{
			Host:        getEnvString("MAIL_HOST", "mailhog"),
			Port:        getEnvInt("MAIL_PORT", 1025),
			Username:    getEnvString("MAIL_USERNAME", ""),
			Password:    getEnvString("MAIL_PASSWORD", ""),
			Encryption:  strings.ToLower(getEnvString("MAIL_ENCRYPTION", "")),
			FromAddress: getEnvString("MAIL_FROM_ADDRESS", "noreply@hyperfbank.com"),
			FromName:    getEnvString("MAIL_FROM_NAME", "Hyperf Bank"),
		},
		Kafka: models.KafkaConfig{
			Brokers:           getEnvList("KAFKA_BROKERS"),
			NotificationTopic: getEnvString("KAFKA_NOTIFICATION_TOPIC", "withdraw.notifications"),
			WriteTimeout:      kafkaWriteTimeout,
		},
		Redis: models.RedisConfig{
			Addr:     getEnvString("REDIS_ADDR", ""),
			Password: getEnvString("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Formance: models.FormanceConfig{
			StackURL:     getEnvString("FORMANCE_STACK_URL", ""),
			ClientID:     getEnvString("FORMANCE_CLIENT_ID", ""),
			ClientSecret: getEnvString("FORMANCE_CLIENT_SECRET", ""),
			LedgerName:   getEnvString("FORMANCE_LEDGER", "pix-withdraw"),
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping empty entries.
func getEnvList(key string) []string {
	var values []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}
