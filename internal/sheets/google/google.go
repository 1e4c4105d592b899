package google

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/kpi"
	"finanzas/internal/log"
	ports "finanzas/internal/sheets"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// DefaultSheetName is the base name of the snapshot sheet. The year of the
// exported month is prefixed to it.
const DefaultSheetName = "KPIs"

// lastColumn is the column letter of the last Header cell.
var lastColumn = string(rune('A' + len(ports.Header) - 1))

type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
	// Endpoint and HTTPClient override the API target; used by tests.
	Endpoint   string
	HTTPClient *http.Client
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
	now           func() time.Time
	logger        *log.Logger
}

var _ ports.SnapshotStore = (*Client)(nil)

// New creates a Sheets client authenticated with service account
// credentials. When neither CredentialsJSON nor CredentialsFile is set,
// GOOGLE_APPLICATION_CREDENTIALS is used.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(cfg.SheetName) == "" {
		cfg.SheetName = DefaultSheetName
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	svc, err := newSheetsService(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(cfg.SpreadsheetID),
		sheetBase:     strings.TrimSpace(cfg.SheetName),
		now:           time.Now,
		logger:        logger,
	}, nil
}

func newSheetsService(ctx context.Context, cfg Config, logger *log.Logger) (*gsheet.Service, error) {
	if cfg.Endpoint != "" {
		client := cfg.HTTPClient
		if client == nil {
			client = http.DefaultClient
		}
		return gsheet.NewService(ctx,
			goption.WithEndpoint(cfg.Endpoint),
			goption.WithHTTPClient(client),
			goption.WithoutAuthentication())
	}

	credentialsJSON := []byte(strings.TrimSpace(cfg.CredentialsJSON))
	file := strings.TrimSpace(cfg.CredentialsFile)
	if len(credentialsJSON) == 0 && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if len(credentialsJSON) == 0 {
		if file == "" {
			return nil, errors.New("missing service account credentials")
		}
		var err error
		credentialsJSON, err = os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		logger.InfoContext(ctx, "Read service account file", "path", file, "size", len(credentialsJSON))
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
		goption.WithHTTPClient(newHTTPClientWithPooling()))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// newHTTPClientWithPooling returns a client with keep-alive and bounded
// timeouts for the Sheets API.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

// AppendSnapshot writes s to the sheet of its year. The header is written
// first on an empty sheet; an already exported month is overwritten in place.
func (c *Client) AppendSnapshot(ctx context.Context, s kpi.Snapshot) (string, error) {
	if s.Month.IsZero() {
		return "", core.ErrInvalidYearMonth
	}
	sheet := yearPrefixedName(c.sheetBase, s.Month.Year)

	months, err := c.monthColumn(ctx, sheet, true)
	if err != nil {
		return "", err
	}

	if len(months) == 0 {
		header := make([]any, len(ports.Header))
		for i, h := range ports.Header {
			header[i] = h
		}
		if _, err := c.writeRow(ctx, sheet, 1, header); err != nil {
			return "", err
		}
		months = []string{ports.Header[0]}
	}

	row := indexOf(months, s.Month.String()) + 1
	if row == 0 {
		row = len(months) + 1
	}
	ref, err := c.writeRow(ctx, sheet, row, ports.Row(s, c.now()))
	if err != nil {
		return "", err
	}
	c.logger.InfoContext(ctx, "Snapshot exported",
		log.FieldYearMonth, s.Month.String(),
		"range", ref)
	return ref, nil
}

// ExportedMonths lists the months present in the sheet of year.
func (c *Client) ExportedMonths(ctx context.Context, year int) ([]core.YearMonth, error) {
	months, err := c.monthColumn(ctx, yearPrefixedName(c.sheetBase, year), false)
	if err != nil {
		return nil, err
	}
	return ports.ParseMonths(months), nil
}

// monthColumn reads column A. A missing sheet reads as empty and is created
// when create is set.
func (c *Client) monthColumn(ctx context.Context, sheet string, create bool) ([]string, error) {
	rng := fmt.Sprintf("%s!A:A", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusBadRequest {
			if !create {
				return nil, nil
			}
			if err := c.addSheet(ctx, sheet); err != nil {
				return nil, err
			}
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	out := make([]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cols := toStrings(row)
		if len(cols) == 0 {
			out = append(out, "")
			continue
		}
		out = append(out, cols[0])
	}
	return out, nil
}

func (c *Client) addSheet(ctx context.Context, sheet string) error {
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: sheet},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", sheet, err)
	}
	c.logger.InfoContext(ctx, "Sheet created", "sheet", sheet)
	return nil
}

func (c *Client) writeRow(ctx context.Context, sheet string, row int, values []any) (string, error) {
	rng := fmt.Sprintf("%s!A%d:%s%d", sheet, row, lastColumn, row)
	vr := &gsheet.ValueRange{Values: [][]any{values}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("write %s: %w", rng, err)
	}
	return rng, nil
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return -1
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
