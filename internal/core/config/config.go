package config

import (
	"time"

	redisclient "github.com/vietddude/schedrecovery/internal/infra/redis"
	"github.com/vietddude/schedrecovery/internal/infra/storage/sqldb"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Logging  LoggingConfig      `yaml:"logging"`
	Storage  StorageConfig      `yaml:"storage"`
	Redis    redisclient.Config `yaml:"redis"`
	Database sqldb.Config       `yaml:"database"`
	Recovery RecoveryConfig     `yaml:"recovery"`
	History  HistoryConfig      `yaml:"history"`
	Pruner   PrunerConfig       `yaml:"pruner"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// StorageConfig selects the key/value backend.
type StorageConfig struct {
	Backend string `yaml:"backend"` // memory, redis, postgres, sqlite
}

// RecoveryConfig tunes rollback points and retry policies.
type RecoveryConfig struct {
	MaxRollbackPoints int                          `yaml:"max_rollback_points"`
	RollbackTTL       time.Duration                `yaml:"rollback_ttl"`
	Retry             map[string]RetryPolicyConfig `yaml:"retry"` // keyed by error kind wire name
}

// RetryPolicyConfig overrides the retry policy of one error kind.
type RetryPolicyConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
	Multiplier  float64       `yaml:"multiplier"`
	Jitter      bool          `yaml:"jitter"`
}

// HistoryConfig tunes the operation history ledger.
type HistoryConfig struct {
	MaxPerUser int           `yaml:"max_per_user"`
	TTL        time.Duration `yaml:"ttl"`
}

// PrunerConfig controls expiry sweeps for backends without native TTL.
type PrunerConfig struct {
	Interval time.Duration `yaml:"interval"` // 0 disables pruning
}
