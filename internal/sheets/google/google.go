package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"smartsave/internal/core"
	"smartsave/internal/log"
	ports "smartsave/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client mirrors transactions into one sheet per year ("2025 Transactions").
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string

	// mu serializes appends so the duplicate check and the append see the
	// same sheet contents.
	mu    sync.Mutex
	known map[string]bool
}

// Ensure interface conformance
var (
	_ ports.TransactionWriter = (*Client)(nil)
	_ ports.TransactionLister = (*Client)(nil)
)

// New creates a Sheets client. Without options it authenticates with the
// service account found in GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, spreadsheetID, sheetBase string, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetBase = strings.TrimSpace(sheetBase)
	if sheetBase == "" {
		sheetBase = "Transactions"
	}

	if len(opts) == 0 {
		creds, err := serviceAccountCredentials(ctx)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetBase:     sheetBase,
		known:         map[string]bool{},
	}, nil
}

func serviceAccountCredentials(ctx context.Context) ([]byte, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		slog.DebugContext(ctx, "Using inline service account credentials", log.FieldComponent, log.ComponentSheets)
		return []byte(serviceAccountJSON), nil
	case serviceAccountFile != "":
		slog.DebugContext(ctx, "Reading service account credentials", log.FieldComponent, log.ComponentSheets, "path", serviceAccountFile)
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
}

// AppendTransactions appends rows for transactions whose ID is not yet in
// the sheet for their year, creating the sheet when needed.
func (c *Client) AppendTransactions(ctx context.Context, txs []core.Transaction) (int, error) {
	if c.svc == nil {
		return 0, errors.New("sheets service not initialized")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var years []int
	byYear := map[int][]core.Transaction{}
	for _, t := range txs {
		y := t.Date.Year()
		if _, ok := byYear[y]; !ok {
			years = append(years, y)
		}
		byYear[y] = append(byYear[y], t)
	}

	appended := 0
	for _, year := range years {
		sheet := yearPrefixedName(c.sheetBase, year)
		if err := c.ensureSheet(ctx, sheet); err != nil {
			return appended, err
		}
		existing, err := c.existingIDs(ctx, sheet)
		if err != nil {
			return appended, err
		}

		var rows [][]any
		for _, t := range byYear[year] {
			if existing[t.ID] {
				continue
			}
			existing[t.ID] = true
			rows = append(rows, transactionRow(t))
		}
		if len(rows) == 0 {
			continue
		}

		_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, a1(sheet, "A:I"), &gsheet.ValueRange{Values: rows}).
			ValueInputOption("USER_ENTERED").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).Do()
		if err != nil {
			return appended, fmt.Errorf("append to sheet %s: %w", sheet, err)
		}
		appended += len(rows)
	}
	return appended, nil
}

// ListTransactions reads every mirrored row of the given year's sheet.
// Rows that cannot be parsed are skipped.
func (c *Client) ListTransactions(ctx context.Context, year int) ([]core.Transaction, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := a1(yearPrefixedName(c.sheetBase, year), "A:I")
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	var out []core.Transaction
	for i, row := range resp.Values {
		if i == 0 && isHeader(row) {
			continue
		}
		t, err := parseRow(row)
		if err != nil {
			slog.DebugContext(ctx, "Skipping unreadable sheet row", log.FieldComponent, log.ComponentSheets, "row", i+1, log.FieldError, err)
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (c *Client) ensureSheet(ctx context.Context, title string) error {
	if c.known[title] {
		return nil
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			c.known[s.Properties.Title] = true
		}
	}
	if c.known[title] {
		return nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, a1(title, "A1:I1"), &gsheet.ValueRange{Values: [][]any{headerRow()}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header to %s: %w", title, err)
	}
	slog.InfoContext(ctx, "Created sheet", log.FieldComponent, log.ComponentSheets, "sheet", title)
	c.known[title] = true
	return nil
}

func (c *Client) existingIDs(ctx context.Context, sheet string) (map[string]bool, error) {
	rng := a1(sheet, "A:A")
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	ids := make(map[string]bool, len(resp.Values))
	for _, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if id := strings.TrimSpace(fmt.Sprint(row[0])); id != "" {
			ids[id] = true
		}
	}
	return ids, nil
}

// a1 builds a quoted A1 range for sheet names that contain spaces.
func a1(sheet, cols string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(sheet, "'", "''"), cols)
}
