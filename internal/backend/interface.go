// Package backend builds the SmartSave service graph from configuration.
package backend

import (
	"context"
	"time"

	"smartsave/internal/amqp"
	"smartsave/internal/auth"
	"smartsave/internal/budget"
	"smartsave/internal/cache"
	"smartsave/internal/recommend"
	"smartsave/internal/services"
	"smartsave/internal/storage"
)

// Backend is everything the API server and the worker share.
type Backend struct {
	Repository *storage.Repository
	Snapshots  *cache.SnapshotStore
	Monitor    *budget.Monitor
	// Events is nil when AMQP is not configured.
	Events *amqp.Client

	Auth         *auth.Service
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	Goals        *services.GoalService
	Insights     *services.InsightsService
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and its cleanup function
type BackendResult struct {
	Backend *Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Storage
	Driver       StorageDriver
	SQLiteDBPath string
	DatabaseURL  string

	// AMQP, optional
	AMQPURL        string
	AMQPExchange   string
	AMQPQueue      string
	AMQPPrefetch   int
	AMQPIsRequired bool

	// Sessions
	SessionSecret string
	SessionTTL    time.Duration

	// Analysis
	CategoryRulesFile string
	AlertThresholds   []float64
	AlertPolicy       budget.Policy
	FailureMode       recommend.FailureMode

	// Snapshot cache
	CacheSize int
	CacheTTL  time.Duration

	// Optional integrations
	GeminiAPIKey     string
	GeminiModel      string
	CSVArchiveBucket string
}

// StorageDriver selects the SQL database.
type StorageDriver string

const (
	SQLiteDriver   StorageDriver = "sqlite"
	PostgresDriver StorageDriver = "postgres"
)

// String implements fmt.Stringer
func (d StorageDriver) String() string {
	return string(d)
}

// IsValid returns true if the driver is supported
func (d StorageDriver) IsValid() bool {
	switch d {
	case SQLiteDriver, PostgresDriver:
		return true
	default:
		return false
	}
}
