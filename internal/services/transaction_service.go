// Package services orchestrates storage, messaging and the analysis
// packages behind the HTTP handlers.
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"smartsave/internal/archive"
	"smartsave/internal/categorize"
	"smartsave/internal/core"
	"smartsave/internal/csvimport"
	"smartsave/internal/log"
)

const (
	// MaxUploadSize bounds the size of an uploaded CSV file.
	MaxUploadSize = 10 << 20
	// DefaultLatestLimit applies when Latest gets a non-positive limit.
	DefaultLatestLimit = 5
)

var ErrFileTooLarge = errors.New("csv file too large")

// ImportResult describes a completed CSV upload.
type ImportResult struct {
	File           core.CSVFile `json:"file"`
	Imported       int          `json:"imported"`
	Skipped        int          `json:"skipped"`
	TransactionIDs []string     `json:"transaction_ids"`
}

// TransactionService saves transactions locally, then announces them to the
// worker. Publishing never fails a request: the data is already stored.
type TransactionService struct {
	store       TransactionStore
	categorizer *categorize.Categorizer
	parser      *csvimport.Parser
	archiver    archive.Archiver
	publisher   Publisher
	cache       Invalidator
	logger      *log.Logger
	events      *log.StructuredLogger
	newID       func() string
}

// NewTransactionService wires the service. archiver, publisher and cache
// may be nil.
func NewTransactionService(store TransactionStore, categorizer *categorize.Categorizer, archiver archive.Archiver, publisher Publisher, cache Invalidator, logger *log.Logger) *TransactionService {
	if archiver == nil {
		archiver = archive.Noop{}
	}
	if cache == nil {
		cache = noopInvalidator{}
	}
	return &TransactionService{
		store:       store,
		categorizer: categorizer,
		parser:      csvimport.NewParser(categorizer),
		archiver:    archiver,
		publisher:   publisher,
		cache:       cache,
		logger:      logger,
		events:      log.NewStructuredLogger(logger),
		newID:       uuid.NewString,
	}
}

// Create stores a manually entered transaction. A transaction without a
// category is categorized from its description and amount.
func (s *TransactionService) Create(ctx context.Context, userID string, t core.Transaction) (core.Transaction, error) {
	t.ID = s.newID()
	t.UserID = userID
	t.Description = strings.TrimSpace(t.Description)
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if strings.TrimSpace(t.Category) == "" {
		t = s.categorizer.Categorize(t)
	}
	if err := s.store.CreateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.cache.Invalidate(userID)
	s.publish(ctx, userID, "", []string{t.ID})
	return t, nil
}

// Import parses an uploaded CSV, stores the file and its rows in one
// database transaction, archives the raw file and publishes the new ids.
func (s *TransactionService) Import(ctx context.Context, userID, filename string, r io.Reader) (ImportResult, error) {
	content, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return ImportResult{}, fmt.Errorf("read upload: %w", err)
	}
	if len(content) > MaxUploadSize {
		return ImportResult{}, ErrFileTooLarge
	}

	parsed, err := s.parser.Parse(bytes.NewReader(content))
	if err != nil {
		return ImportResult{}, fmt.Errorf("parse csv: %w", err)
	}

	file := core.CSVFile{
		ID:       s.newID(),
		UserID:   userID,
		Filename: filename,
		Content:  string(content),
	}
	file, err = s.store.ImportTransactions(ctx, file, parsed.Transactions)
	if err != nil {
		return ImportResult{}, fmt.Errorf("store import: %w", err)
	}
	s.cache.Invalidate(userID)

	if uri, err := s.archiver.Archive(ctx, userID, file.ID, filename, content); err != nil {
		s.events.LogError(ctx, "Failed to archive CSV file", err, log.OpImport,
			log.NewFields().WithUser(userID).WithImport(file.ID, len(parsed.Transactions)))
	} else if uri != "" {
		if err := s.store.SetCSVArchiveURI(ctx, file.ID, uri); err != nil {
			s.logger.WarnContext(ctx, "Failed to record archive URI", log.FieldFileID, file.ID, log.FieldError, err)
		} else {
			file.ArchiveURI = uri
		}
	}

	ids := make([]string, len(parsed.Transactions))
	for i, t := range parsed.Transactions {
		ids[i] = t.ID
	}
	s.events.LogImport(ctx, userID, file.ID, len(ids))
	if len(ids) > 0 {
		s.publish(ctx, userID, file.ID, ids)
	}

	return ImportResult{
		File:           file,
		Imported:       len(ids),
		Skipped:        parsed.Skipped,
		TransactionIDs: ids,
	}, nil
}

// List returns every transaction of the user, newest first.
func (s *TransactionService) List(ctx context.Context, userID string) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, userID)
}

// Latest returns the user's most recent transactions.
func (s *TransactionService) Latest(ctx context.Context, userID string, limit int) ([]core.Transaction, error) {
	if limit <= 0 {
		limit = DefaultLatestLimit
	}
	return s.store.LatestTransactions(ctx, userID, limit)
}

func (s *TransactionService) publish(ctx context.Context, userID, fileID string, ids []string) {
	if s.publisher == nil {
		s.logger.WarnContext(ctx, "AMQP client not available, skipping transactions event")
		return
	}
	if err := s.publisher.PublishTransactionsImported(ctx, userID, fileID, ids); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish transactions event",
			log.FieldUserID, userID,
			log.FieldFileID, fileID,
			log.FieldCount, len(ids),
			log.FieldError, err)
	}
}
