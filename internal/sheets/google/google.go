// Package google mirrors annual panels into a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	ports "igreja/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const defaultBaseName = "Painel"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base sheet name without year; the year is prefixed per panel.
	baseName string
}

var _ ports.PanelWriter = (*Client)(nil)

// New wraps an existing Sheets service.
func New(svc *gsheet.Service, spreadsheetID, baseName string) *Client {
	baseName = strings.TrimSpace(baseName)
	if baseName == "" {
		baseName = defaultBaseName
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, baseName: baseName}
}

// NewFromEnv creates a client from the environment.
// Required: GOOGLE_SPREADSHEET_ID and service account credentials.
// Optional: GOOGLE_SHEET_NAME (default "Painel").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return New(svc, spreadsheetID, os.Getenv("GOOGLE_SHEET_NAME")), nil
}

// newSheetsService authenticates with a service account taken from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS, in that order.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	credentialsJSON, err := serviceAccountCredentials()
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func serviceAccountCredentials() ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
		return []byte(inline), nil
	}
	path := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return b, nil
}

// WritePanel overwrites the "<year> <base>" sheet, creating it when missing.
func (c *Client) WritePanel(ctx context.Context, year int, table [][]any) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	sheet := yearPrefixedName(c.baseName, year)

	if err := c.ensureSheet(ctx, sheet); err != nil {
		return err
	}

	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, a1(sheet, "A:ZZ"), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %q: %w", sheet, err)
	}

	vr := &gsheet.ValueRange{Values: table}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, a1(sheet, "A1"), vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write sheet %q: %w", sheet, err)
	}

	slog.InfoContext(ctx, "Panel written to Google Sheets",
		"sheet", sheet,
		"rows", len(table))
	return nil
}

func (c *Client) ensureSheet(ctx context.Context, sheet string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == sheet {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: sheet},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %q: %w", sheet, err)
	}
	slog.InfoContext(ctx, "Created sheet", "sheet", sheet)
	return nil
}

// a1 builds a quoted A1 range for sheet names with spaces.
func a1(sheet, cells string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!" + cells
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
