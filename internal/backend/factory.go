package backend

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"smartsave/internal/adapters"
	"smartsave/internal/amqp"
	"smartsave/internal/archive"
	"smartsave/internal/assistant"
	"smartsave/internal/auth"
	"smartsave/internal/budget"
	"smartsave/internal/cache"
	"smartsave/internal/categorize"
	"smartsave/internal/log"
	"smartsave/internal/recommend"
	"smartsave/internal/services"
	"smartsave/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend opens storage and wires every service. AMQP, the CSV
// archive and the assistant are optional: when one is missing or fails to
// start the backend runs without it.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	repo, err := storage.Open(config.Driver.String(), config.SQLiteDBPath, config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	closers := []func() error{repo.Close}
	cleanup := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	categorizer, err := categorize.FromFile(config.CategoryRulesFile)
	if err != nil {
		cleanup()
		return nil, err
	}

	snapshots := cache.NewSnapshotStore(repo, config.CacheSize, config.CacheTTL)
	caches := cache.NewManager()
	caches.Register(snapshots.Cache())
	caches.StartCleanup(config.CacheTTL)
	closers = append(closers, func() error {
		caches.Stop()
		return nil
	})
	monitor := budget.NewMonitor(config.AlertThresholds, config.AlertPolicy)

	events := f.connectAMQP(config)
	if events != nil {
		closers = append(closers, events.Close)
	} else if config.AMQPIsRequired {
		cleanup()
		return nil, errors.New("AMQP is required but unavailable")
	}

	archiver, err := archive.New(ctx, config.CSVArchiveBucket)
	if err != nil {
		f.logger.Warn("Failed to initialize CSV archive, uploads will not be archived", log.FieldError, err)
		archiver = archive.Noop{}
	} else if gcs, ok := archiver.(*archive.GCS); ok {
		closers = append(closers, gcs.Close)
		f.logger.Info("CSV archive enabled", "bucket", config.CSVArchiveBucket)
	}

	gen, err := assistant.NewGemini(ctx, config.GeminiAPIKey, config.GeminiModel, genai.HTTPOptions{})
	if err != nil {
		f.logger.Warn("Failed to initialize assistant", log.FieldError, err)
		gen = nil
	}
	asst := assistant.New(gen, f.logger)

	budgets := services.NewBudgetService(repo, snapshots, monitor, snapshots, f.logger)
	b := &Backend{
		Repository: repo,
		Snapshots:  snapshots,
		Monitor:    monitor,
		Events:     events,

		Auth:         auth.NewService(repo, auth.NewSessions(config.SessionSecret, config.SessionTTL), f.logger),
		Transactions: services.NewTransactionService(repo, categorizer, archiver, adapters.TransactionPublisher(events), snapshots, f.logger),
		Budgets:      budgets,
		Goals:        services.NewGoalService(repo, snapshots, f.logger),
		Insights:     services.NewInsightsService(snapshots, repo, recommend.NewEngine(config.FailureMode), budgets, asst, f.logger),
	}

	f.logger.Info("Initialized backend",
		"driver", config.Driver,
		"amqp_enabled", events != nil,
		"assistant_enabled", asst.Configured())

	return &BackendResult{Backend: b, Cleanup: cleanup}, nil
}

func (f *DefaultFactory) connectAMQP(config Config) *amqp.Client {
	if config.AMQPURL == "" {
		f.logger.Info("AMQP not configured, events will not be published")
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, config.AMQPPrefetch)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}
