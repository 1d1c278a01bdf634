package backend

import (
	"errors"
	"fmt"
	"time"

	"smartsave/internal/budget"
	"smartsave/internal/config"
	"smartsave/internal/recommend"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	driver := StorageDriver(appConfig.DBDriver)
	if !driver.IsValid() {
		return Config{}, fmt.Errorf("invalid database driver in config: %s", appConfig.DBDriver)
	}
	policy, err := budget.ParsePolicy(appConfig.BudgetAlertPolicy)
	if err != nil {
		return Config{}, err
	}
	mode, err := recommend.ParseFailureMode(appConfig.RecommendationFailureMode)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Driver:       driver,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		DatabaseURL:  appConfig.DatabaseURL,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
		AMQPPrefetch: appConfig.WorkerPrefetch,

		SessionSecret: appConfig.SessionSecret,
		SessionTTL:    appConfig.SessionTTL,

		CategoryRulesFile: appConfig.CategoryRulesFile,
		AlertThresholds:   appConfig.BudgetAlertThresholds,
		AlertPolicy:       policy,
		FailureMode:       mode,

		CacheSize: appConfig.CacheSize,
		CacheTTL:  appConfig.CacheTTL,

		GeminiAPIKey:     appConfig.GeminiAPIKey,
		GeminiModel:      appConfig.GeminiModel,
		CSVArchiveBucket: appConfig.CSVArchiveBucket,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Driver.IsValid() {
		return fmt.Errorf("invalid database driver: %s", c.Driver)
	}

	switch c.Driver {
	case SQLiteDriver:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite driver")
		}
	case PostgresDriver:
		if c.DatabaseURL == "" {
			return errors.New("database URL is required for postgres driver")
		}
	}

	if c.AMQPIsRequired && c.AMQPURL == "" {
		return errors.New("AMQP URL is required")
	}
	if c.SessionSecret == "" {
		return errors.New("session secret is required")
	}
	if c.CacheSize < 1 {
		return fmt.Errorf("invalid cache size %d", c.CacheSize)
	}
	if c.CacheTTL < time.Second {
		return fmt.Errorf("invalid cache TTL %s: must be at least 1s", c.CacheTTL)
	}
	return nil
}
