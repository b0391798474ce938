package models

import "time"

// Config represents the application configuration
type Config struct {
	Database   DatabaseConfig
	UnitOfWork UnitOfWorkConfig
	Redemption RedemptionConfig
	Jobs       JobsConfig
	Formance   FormanceConfig
	Events     EventsConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // "sqlite3" or "postgres"
	Path            string // sqlite file, or postgres connection URL
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	SeedFile        string
}

// UnitOfWorkConfig holds retry settings for optimistic-lock conflicts
type UnitOfWorkConfig struct {
	MaxAttempts  int
	RetryBackoff time.Duration
}

// RedemptionConfig holds deal redemption escrow settings
type RedemptionConfig struct {
	HoldTTL         time.Duration
	PollingInterval time.Duration
	CleanupInterval time.Duration
	BatchSize       int
}

// JobsConfig holds cron specs for scheduled jobs
type JobsConfig struct {
	ReconcileWallets string
}

// FormanceConfig holds the optional Formance ledger mirror settings.
// The mirror is disabled when StackURL is empty.
type FormanceConfig struct {
	StackURL     string
	ClientID     string
	ClientSecret string
	LedgerName   string
}

// EventsConfig holds the optional Kafka publisher settings.
// Publishing is disabled when Brokers is empty.
type EventsConfig struct {
	Brokers []string
	Topic   string
}
