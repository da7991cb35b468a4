package sheet

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/nanicare/nani-backend/internal/httpc"
)

// defaultExportBase is the published-spreadsheet CSV export endpoint.
const defaultExportBase = "https://docs.google.com/spreadsheets/d"

// snippetLimit bounds error-body snippets in log output.
const snippetLimit = 200

// Record maps a column header to the cell value of the latest data row.
// A Record is replaced wholesale on every successful poll and never
// mutated in place, so concurrent readers always see a consistent row.
type Record map[string]string

// Fetcher retrieves the latest record from a spreadsheet's CSV export.
type Fetcher struct {
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient overrides the HTTP client used for export fetches.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = client }
}

// WithBaseURL overrides the export endpoint base, mainly for tests.
func WithBaseURL(base string) FetcherOption {
	return func(f *Fetcher) { f.baseURL = strings.TrimSuffix(base, "/") }
}

// WithFetchLogger sets the structured logger.
func WithFetchLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) { f.logger = logger }
}

// NewFetcher creates a Fetcher with bounded-timeout defaults.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:  httpc.Client,
		logger:  slog.Default().With("component", "sheet.fetcher"),
		baseURL: defaultExportBase,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchLatest fetches the CSV export for the given sheet and tab,
// returning the last non-blank data row keyed by header. It reports
// absence instead of failing: any network, status, or shape problem is
// logged as a warning and leaves the caller's cache untouched.
func (f *Fetcher) FetchLatest(ctx context.Context, sheetID, gid string) (Record, bool) {
	url := fmt.Sprintf("%s/%s/export?format=csv&gid=%s", f.baseURL, sheetID, gid)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		f.logger.Warn("sheet fetch: bad request", "error", err)
		return nil, false
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("sheet fetch failed", "error", err)
		return nil, false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		f.logger.Warn("sheet fetch: read body failed", "error", err)
		return nil, false
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.logger.Warn("sheet fetch: unexpected status",
			"status", resp.StatusCode,
			"body", snippet(body),
		)
		return nil, false
	}

	rows := ParseCSV(string(body))
	if len(rows) < 2 {
		f.logger.Warn("sheet fetch: no data rows", "rows", len(rows))
		return nil, false
	}

	headers := rows[0]
	last := lastNonBlankRow(rows[1:])
	if last == nil {
		f.logger.Warn("sheet fetch: all data rows blank")
		return nil, false
	}

	return zipRecord(headers, last), true
}

// lastNonBlankRow returns the last row with at least one non-blank
// cell. The sheet is append-only, so the newest entry sits at the
// bottom.
func lastNonBlankRow(rows [][]string) []string {
	for i := len(rows) - 1; i >= 0; i-- {
		for _, cell := range rows[i] {
			if strings.TrimSpace(cell) != "" {
				return rows[i]
			}
		}
	}
	return nil
}

// zipRecord maps the data row against the header row. Blank header
// cells fall back to Column<N> names so no value is lost.
func zipRecord(headers, row []string) Record {
	n := len(headers)
	if len(row) > n {
		n = len(row)
	}

	rec := make(Record, n)
	for i := 0; i < n; i++ {
		name := ""
		if i < len(headers) {
			name = strings.TrimSpace(headers[i])
		}
		if name == "" {
			name = fmt.Sprintf("Column%d", i+1)
		}

		value := ""
		if i < len(row) {
			value = strings.TrimSpace(row[i])
		}
		rec[name] = value
	}
	return rec
}

// snippet truncates a response body for log output, backing up to a
// rune boundary so the log line stays valid UTF-8.
func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) <= snippetLimit {
		return s
	}
	cut := snippetLimit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
