package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/xavierca1/coach-outreach/internal/entity"
)

type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// Client reads and writes the coach sheet.
type Client struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	sheetName     string
	retry         *Retrier
	logger        *zap.Logger

	sheetID *int64
}

// NewService authenticates with a service account, preferring the JSON held
// in the environment over the credentials file.
func NewService(ctx context.Context, cfg Config) (*sheetsapi.Service, error) {
	data, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	creds, err := google.CredentialsFromJSON(ctx, data, sheetsapi.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("invalid google credentials: %w", err)
	}
	return sheetsapi.NewService(ctx, option.WithCredentials(creds))
}

func credentials(cfg Config) ([]byte, error) {
	if raw := strings.TrimSpace(cfg.CredentialsJSON); raw != "" {
		// some hosts wrap the value in quotes and double-escape newlines
		if len(raw) > 1 && strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`) {
			raw = raw[1 : len(raw)-1]
		}
		raw = strings.ReplaceAll(raw, `\\n`, `\n`)

		var probe map[string]any
		if err := json.Unmarshal([]byte(raw), &probe); err != nil {
			return nil, fmt.Errorf("GOOGLE_CREDENTIALS is not valid JSON: %w", err)
		}
		var missing []string
		for _, k := range []string{"client_email", "token_uri", "private_key"} {
			if _, ok := probe[k]; !ok {
				missing = append(missing, k)
			}
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("service account credentials missing fields: %s", strings.Join(missing, ", "))
		}
		return []byte(raw), nil
	}

	data, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("no GOOGLE_CREDENTIALS and cannot read %s: %w", cfg.CredentialsFile, err)
	}
	return data, nil
}

func NewClient(svc *sheetsapi.Service, cfg Config, retry *Retrier, logger *zap.Logger) *Client {
	name := cfg.SheetName
	if name == "" {
		name = "Sheet1"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     name,
		retry:         retry,
		logger:        logger.Named("sheets"),
	}
}

// Snapshot reads the whole main sheet in one call.
func (c *Client) Snapshot(ctx context.Context) (entity.Snapshot, error) {
	var resp *sheetsapi.ValueRange
	err := c.retry.Do(ctx, "read", func() error {
		var err error
		resp, err = c.svc.Spreadsheets.Values.Get(c.spreadsheetID, quoteSheet(c.sheetName)).Context(ctx).Do()
		return err
	})
	if err != nil {
		return entity.Snapshot{}, fmt.Errorf("read sheet %s: %w", c.sheetName, err)
	}

	rows := toStrings(resp.Values)
	if len(rows) == 0 {
		return entity.Snapshot{}, nil
	}
	c.logger.Debug("sheet read", zap.Int("rows", len(rows)-1))
	return entity.Snapshot{Headers: rows[0], Rows: rows[1:]}, nil
}

func toStrings(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = make([]string, len(row))
		for j, v := range row {
			if v != nil {
				out[i][j] = fmt.Sprint(v)
			}
		}
	}
	return out
}

// UpdateCells writes every update in a single batch request.
func (c *Client) UpdateCells(ctx context.Context, updates []entity.CellUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	data := make([]*sheetsapi.ValueRange, 0, len(updates))
	for _, u := range updates {
		data = append(data, &sheetsapi.ValueRange{
			Range:  CellRef(c.sheetName, u.Row, u.Col),
			Values: [][]interface{}{{u.Value}},
		})
	}
	req := &sheetsapi.BatchUpdateValuesRequest{ValueInputOption: "USER_ENTERED", Data: data}

	err := c.retry.Do(ctx, "update", func() error {
		_, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("update %d cells: %w", len(updates), err)
	}
	return nil
}

// DeleteRow removes a 1-based sheet row; rows below shift up.
func (c *Client) DeleteRow(ctx context.Context, row int) error {
	if row < 2 {
		return fmt.Errorf("refusing to delete header row %d", row)
	}
	id, err := c.resolveSheetID(ctx)
	if err != nil {
		return err
	}

	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			DeleteDimension: &sheetsapi.DeleteDimensionRequest{
				Range: &sheetsapi.DimensionRange{
					SheetId:    id,
					Dimension:  "ROWS",
					StartIndex: int64(row - 1),
					EndIndex:   int64(row),
				},
			},
		}},
	}
	err = c.retry.Do(ctx, "delete_row", func() error {
		_, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("delete row %d: %w", row, err)
	}
	c.logger.Info("row deleted", zap.Int("row", row))
	return nil
}

func (c *Client) resolveSheetID(ctx context.Context) (int64, error) {
	if c.sheetID != nil {
		return *c.sheetID, nil
	}

	var ss *sheetsapi.Spreadsheet
	err := c.retry.Do(ctx, "metadata", func() error {
		var err error
		ss, err = c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == c.sheetName {
			id := s.Properties.SheetId
			c.sheetID = &id
			return id, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet", c.sheetName)
}

// EnsureHeaders appends any of the given headers missing from row 1 and
// returns the ones it added.
func (c *Client) EnsureHeaders(ctx context.Context, headers []string) ([]string, error) {
	snap, err := c.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(snap.Headers))
	for _, h := range snap.Headers {
		present[strings.ToLower(strings.TrimSpace(h))] = true
	}

	var updates []entity.CellUpdate
	var added []string
	next := len(snap.Headers)
	for _, h := range headers {
		if present[strings.ToLower(h)] {
			continue
		}
		updates = append(updates, entity.CellUpdate{Row: 1, Col: next, Value: h})
		added = append(added, h)
		next++
	}
	if err := c.UpdateCells(ctx, updates); err != nil {
		return nil, err
	}
	if len(added) > 0 {
		c.logger.Info("headers added", zap.Strings("headers", added))
	}
	return added, nil
}
