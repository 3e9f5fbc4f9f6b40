package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"worklife/internal/core"
	ports "worklife/internal/sheets"
)

const defaultSheetName = "Transactions"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base name without year; each transaction goes to "<year> <base>".
	sheetBase string
}

var (
	_ ports.TransactionExporter = (*Client)(nil)
	_ ports.OverviewReader      = (*Client)(nil)
)

// New creates a client for one spreadsheet. opts carry credentials or, in
// tests, an alternative endpoint.
func New(ctx context.Context, spreadsheetID, sheetBase string, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(sheetBase) == "" {
		sheetBase = defaultSheetName
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetBase: strings.TrimSpace(sheetBase)}, nil
}

// NewFromEnv creates a client from GOOGLE_SPREADSHEET_ID, GOOGLE_SHEET_NAME
// and service account credentials.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := serviceAccountCredentials(ctx)
	if err != nil {
		return nil, err
	}
	return New(ctx, spreadsheetID, os.Getenv("GOOGLE_SHEET_NAME"),
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// serviceAccountCredentials reads GOOGLE_SERVICE_ACCOUNT_JSON, then
// GOOGLE_SERVICE_ACCOUNT_FILE, then GOOGLE_APPLICATION_CREDENTIALS.
func serviceAccountCredentials(ctx context.Context) ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
		slog.InfoContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	}
	path := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	slog.InfoContext(ctx, "Read service account credentials", "path", path)
	return data, nil
}

// Export appends one row to the sheet of the transaction's year and returns
// the updated range.
func (c *Client) Export(ctx context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rng := sheetRange(yearPrefixedName(c.sheetBase, t.Date.Year()), "A:H")
	vr := &gsheet.ValueRange{Values: [][]any{toRow(t)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", rng, err)
	}
	if resp.Updates == nil || resp.Updates.UpdatedRange == "" {
		return "", fmt.Errorf("append to %s: no updated range in response", rng)
	}
	slog.DebugContext(ctx, "Exported transaction", "id", t.ID, "range", resp.Updates.UpdatedRange)
	return resp.Updates.UpdatedRange, nil
}

// Remove clears a previously exported row. The row itself stays so later
// references remain valid.
func (c *Client) Remove(ctx context.Context, rowRef string) error {
	if strings.TrimSpace(rowRef) == "" {
		return errors.New("empty row reference")
	}
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rowRef, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", rowRef, err)
	}
	return nil
}

// ReadMonthOverview folds the exported rows of a month into an overview.
func (c *Client) ReadMonthOverview(ctx context.Context, year, month int) (core.MonthOverview, error) {
	if err := core.ValidateYearMonth(year, month); err != nil {
		return core.MonthOverview{}, err
	}
	if c.svc == nil {
		return core.MonthOverview{}, errors.New("sheets service not initialized")
	}
	rng := sheetRange(yearPrefixedName(c.sheetBase, year), "A:H")
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return core.MonthOverview{}, fmt.Errorf("read %s: %w", rng, err)
	}
	return core.Overview(year, month, parseRows(resp.Values)), nil
}

func toRow(t core.Transaction) []any {
	return []any{
		t.ID,
		t.Date.String(),
		string(t.Kind),
		t.Category,
		t.Description,
		t.Amount.Decimal().StringFixed(2),
		accountCell(t.FromAccount),
		accountCell(t.ToAccount),
	}
}

func accountCell(id *int64) any {
	if id == nil {
		return ""
	}
	return *id
}

func sheetRange(sheet, cells string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(sheet, "'", "''"), cells)
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
