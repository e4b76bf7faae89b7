package models

import "time"

// Config represents the application configuration
type Config struct {
	Store      StoreConfig
	Database   DatabaseConfig
	Postgres   PostgresConfig
	HTTP       HTTPConfig
	Withdraw   WithdrawConfig
	Settlement SettlementConfig
	Notifier   NotifierConfig
	Mail       MailConfig
	Kafka      KafkaConfig
	Redis      RedisConfig
	Formance   FormanceConfig
}

// StoreConfig selects the persistence backend
type StoreConfig struct {
	Backend string // "sqlite" or "postgres"
}

// DatabaseConfig holds SQLite connection settings
type DatabaseConfig struct {
	Path               string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	PingTimeout        time.Duration
	CreateDemoAccounts bool
}

// PostgresConfig holds PostgreSQL pool settings
type PostgresConfig struct {
	URL                string
	MaxConns           int32
	MinConns           int32
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	PingTimeout        time.Duration
	CreateDemoAccounts bool
}

// HTTPConfig holds API server settings
type HTTPConfig struct {
	Addr            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// WithdrawConfig holds withdraw validation settings
type WithdrawConfig struct {
	Location        *time.Location
	ScheduleHorizon time.Duration
}

// SettlementConfig holds scheduled settlement loop settings
type SettlementConfig struct {
	PollingInterval time.Duration
	LockTTL         time.Duration
	RunInServer     bool
	AccountsFile    string
}

// NotifierConfig selects the notification transport
type NotifierConfig struct {
	Driver string // "smtp", "kafka" or "log"
}

// MailConfig holds SMTP settings
type MailConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	Encryption  string
	FromAddress string
	FromName    string
}

// KafkaConfig holds the notification relay settings
type KafkaConfig struct {
	Brokers           []string
	NotificationTopic string
	WriteTimeout      time.Duration
}

// RedisConfig holds the sweep lock connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// FormanceConfig holds Formance Stack connection settings for the payout journal
type FormanceConfig struct {
	StackURL     string
	ClientID     string
	ClientSecret string
	LedgerName   string
}
