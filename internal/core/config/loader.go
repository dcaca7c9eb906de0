package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/schedrecovery/internal/core/domain"
	"github.com/vietddude/schedrecovery/internal/history"
	"github.com/vietddude/schedrecovery/internal/infra/storage/sqldb"
	"github.com/vietddude/schedrecovery/internal/recovery/retry"
	"github.com/vietddude/schedrecovery/internal/recovery/rollback"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML content, expanding environment variables first.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *AppConfig {
	var cfg AppConfig
	cfg.applyDefaults()
	return &cfg
}

func (c *AppConfig) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendMemory
	}
	switch c.Storage.Backend {
	case BackendPostgres:
		c.Database.Driver = sqldb.DriverPostgres
	case BackendSQLite:
		c.Database.Driver = sqldb.DriverSQLite
		if c.Database.URL == "" {
			c.Database.URL = "schedrecovery.db"
		}
	}
	if c.Recovery.MaxRollbackPoints == 0 {
		c.Recovery.MaxRollbackPoints = rollback.DefaultMaxPoints
	}
	if c.Recovery.RollbackTTL == 0 {
		c.Recovery.RollbackTTL = rollback.DefaultTTL
	}
	if c.History.MaxPerUser == 0 {
		c.History.MaxPerUser = history.DefaultMaxPerUser
	}
	if c.History.TTL == 0 {
		c.History.TTL = history.DefaultTTL
	}
	if c.Pruner.Interval == 0 && c.Storage.Backend != BackendRedis {
		c.Pruner.Interval = 10 * time.Minute
	}
}

// Validate rejects configurations the service cannot run with.
func (c *AppConfig) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendSQLite:
	case BackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("storage backend redis requires redis.url")
		}
	case BackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("storage backend postgres requires database.url")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Recovery.MaxRollbackPoints < 0 || c.History.MaxPerUser < 0 {
		return fmt.Errorf("capacity limits must be positive")
	}
	if _, err := c.Recovery.RetryTable(); err != nil {
		return err
	}
	return nil
}

// RetryTable builds the retry policy table with configured overrides applied.
func (c RecoveryConfig) RetryTable() (*retry.Table, error) {
	t := retry.DefaultTable()
	for name, pc := range c.Retry {
		kind, err := domain.ParseErrorKind(name)
		if err != nil {
			return nil, fmt.Errorf("recovery.retry: %w", err)
		}
		p := retry.Policy{
			MaxAttempts: pc.MaxAttempts,
			BaseDelay:   pc.BaseDelay,
			MaxDelay:    pc.MaxDelay,
			Multiplier:  pc.Multiplier,
			Jitter:      pc.Jitter,
		}
		if err := t.Override(kind, p); err != nil {
			return nil, fmt.Errorf("recovery.retry.%s: %w", name, err)
		}
	}
	return t, nil
}
