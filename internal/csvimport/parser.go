// Package csvimport reads bank-export CSV files into categorized
// transactions.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"smartsave/internal/core"
)

var (
	ErrEmptyFile      = errors.New("csv file is empty")
	ErrMissingColumns = errors.New("csv header must contain date, description and amount")
)

// Categorizer assigns a category to a transaction.
type Categorizer interface {
	Categorize(tx core.Transaction) core.Transaction
}

// Result is the outcome of a parse. Skipped counts rows dropped for missing
// required values.
type Result struct {
	Transactions []core.Transaction
	Skipped      int
}

type columns struct {
	date, description, amount                int
	txType, accountNumber, currency, category int
}

// Parser turns CSV content into transactions.
type Parser struct {
	categorizer Categorizer
	newID       func() string
}

// NewParser returns a Parser categorizing with c.
func NewParser(c Categorizer) *Parser {
	return &Parser{categorizer: c, newID: uuid.NewString}
}

// Parse reads r. The header row is matched case-insensitively and in any
// order. Rows lacking a date, description or amount are dropped; an amount
// that does not parse becomes 0. Only structurally unreadable input fails.
func (p *Parser) Parse(r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Result{}, ErrEmptyFile
	}
	if err != nil {
		return Result{}, fmt.Errorf("read csv header: %w", err)
	}
	cols, err := mapHeader(header)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if blank(record) {
			continue
		}
		tx, ok := p.row(record, cols)
		if !ok {
			res.Skipped++
			continue
		}
		res.Transactions = append(res.Transactions, tx)
	}
	return res, nil
}

// ParseString is Parse over an in-memory string.
func (p *Parser) ParseString(content string) (Result, error) {
	return p.Parse(strings.NewReader(content))
}

func (p *Parser) row(record []string, cols columns) (core.Transaction, bool) {
	rawDate := field(record, cols.date)
	description := field(record, cols.description)
	rawAmount := field(record, cols.amount)
	if rawDate == "" || description == "" || rawAmount == "" {
		return core.Transaction{}, false
	}
	date, err := core.ParseDate(rawDate)
	if err != nil {
		return core.Transaction{}, false
	}
	amount, err := core.ParseAmount(rawAmount)
	if err != nil {
		amount = decimal.Zero
	}

	tx := core.Transaction{
		ID:            p.newID(),
		Date:          date,
		Description:   description,
		Amount:        amount,
		Type:          field(record, cols.txType),
		AccountNumber: field(record, cols.accountNumber),
		Currency:      field(record, cols.currency),
		Category:      field(record, cols.category),
	}
	if tx.Category == "" && p.categorizer != nil {
		tx = p.categorizer.Categorize(tx)
	}
	return tx, true
}

func mapHeader(header []string) (columns, error) {
	cols := columns{-1, -1, -1, -1, -1, -1, -1}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		switch name {
		case "date":
			cols.date = i
		case "description":
			cols.description = i
		case "amount":
			cols.amount = i
		case "type":
			cols.txType = i
		case "account_number":
			cols.accountNumber = i
		case "currency":
			cols.currency = i
		case "category":
			cols.category = i
		}
	}
	if cols.date < 0 || cols.description < 0 || cols.amount < 0 {
		return cols, ErrMissingColumns
	}
	return cols, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
