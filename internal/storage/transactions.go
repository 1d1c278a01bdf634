package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"smartsave/internal/core"
)

const transactionColumns = "id, user_id, date, description, amount, type, account_number, currency, category, csv_file_id"

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateTransaction stores a single transaction.
func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	if err := r.insertTransaction(ctx, r.db, t, r.timestamp()); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"user_id", t.UserID,
		"amount", t.Amount.String(),
		"category", t.Category)
	return nil
}

// ImportTransactions stores the uploaded file and every parsed row in one
// transaction. Rows are linked to the file; a failure stores nothing.
func (r *Repository) ImportTransactions(ctx context.Context, file core.CSVFile, txs []core.Transaction) (core.CSVFile, error) {
	created := r.timestamp()
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, r.rebind(`INSERT INTO csv_files (id, user_id, filename, content, archive_uri, created_at) VALUES (?, ?, ?, ?, ?, ?)`),
			file.ID, file.UserID, file.Filename, file.Content, nullable(file.ArchiveURI), created)
		if err != nil {
			return fmt.Errorf("insert csv file: %w", err)
		}
		for _, t := range txs {
			t.UserID = file.UserID
			t.CSVFileID = file.ID
			if err := r.insertTransaction(ctx, tx, t, created); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return core.CSVFile{}, err
	}
	file.CreatedAt = parseTime(created)
	slog.InfoContext(ctx, "CSV file imported",
		"file_id", file.ID,
		"user_id", file.UserID,
		"filename", file.Filename,
		"transactions", len(txs))
	return file, nil
}

// SetCSVArchiveURI records where the raw file was archived.
func (r *Repository) SetCSVArchiveURI(ctx context.Context, fileID, uri string) error {
	res, err := r.db.ExecContext(ctx, r.rebind(`UPDATE csv_files SET archive_uri = ? WHERE id = ?`), uri, fileID)
	if err != nil {
		return fmt.Errorf("update csv archive uri: %w", err)
	}
	return expectRow(res)
}

// ListTransactions returns every transaction of userID, newest first.
func (r *Repository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? ORDER BY date DESC, created_at DESC, id`, userID)
}

// LatestTransactions returns at most limit transactions of userID, newest
// first.
func (r *Repository) LatestTransactions(ctx context.Context, userID string, limit int) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? ORDER BY date DESC, created_at DESC, id LIMIT ?`, userID, limit)
}

// GetTransactions returns the transactions with the given ids that belong to
// userID.
func (r *Repository) GetTransactions(ctx context.Context, userID string, ids []string) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, id := range ids {
		txs, err := r.queryTransactions(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? AND id = ?`, userID, id)
		if err != nil {
			return nil, err
		}
		out = append(out, txs...)
	}
	return out, nil
}

func (r *Repository) insertTransaction(ctx context.Context, q querier, t core.Transaction, created string) error {
	_, err := q.ExecContext(ctx, r.rebind(`INSERT INTO transactions (`+transactionColumns+`, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		t.ID, t.UserID, t.Date.String(), t.Description, t.Amount,
		nullable(t.Type), nullable(t.AccountNumber), nullable(t.Currency), nullable(t.Category), nullable(t.CSVFileID),
		created)
	if err != nil {
		return fmt.Errorf("insert transaction %s: %w", t.ID, err)
	}
	return nil
}

func (r *Repository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t                                          core.Transaction
			date                                       string
			txType, account, currency, category, csvID sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.UserID, &date, &t.Description, &t.Amount, &txType, &account, &currency, &category, &csvID); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("transaction %s has invalid date %q: %w", t.ID, date, err)
		}
		t.Type = txType.String
		t.AccountNumber = account.String
		t.Currency = currency.String
		t.Category = category.String
		t.CSVFileID = csvID.String
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}
