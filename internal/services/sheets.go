package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PlateWatch-ANPR/Ingest-Service/internal/models"
)

const (
	defaultSheetsBaseURL = "https://sheets.googleapis.com"

	// All rows land in the first four columns of Sheet1, in insertion
	// order as assigned by the Sheets service.
	ledgerRange = "Sheet1!A:D"
)

// SheetsLedger appends rows to a fixed spreadsheet. USER_ENTERED input
// mode lets the service parse the date and time strings as such instead
// of storing them as literal text.
type SheetsLedger struct {
	httpClient    *http.Client
	baseURL       string
	spreadsheetID string
	timeout       time.Duration
}

func NewSheetsLedger(httpClient *http.Client, spreadsheetID string, timeout time.Duration) *SheetsLedger {
	return &SheetsLedger{
		httpClient:    httpClient,
		baseURL:       defaultSheetsBaseURL,
		spreadsheetID: spreadsheetID,
		timeout:       timeout,
	}
}

// NewSheetsLedgerWithBaseURL is used by tests to point at a fake server.
func NewSheetsLedgerWithBaseURL(httpClient *http.Client, baseURL, spreadsheetID string, timeout time.Duration) *SheetsLedger {
	l := NewSheetsLedger(httpClient, spreadsheetID, timeout)
	l.baseURL = strings.TrimRight(baseURL, "/")
	return l
}

// Append adds one row to the ledger. There is no idempotency key: a
// retried call after a prior success would duplicate the row, so Append
// must stay the last pipeline step.
func (l *SheetsLedger) Append(ctx context.Context, row models.LedgerRow) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	payload := map[string][][]string{
		"values": {{row.Date, row.Time, row.URL, row.Plate}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s:append?valueInputOption=USER_ENTERED",
		l.baseURL, url.PathEscape(l.spreadsheetID), url.PathEscape(ledgerRange))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sheets append: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sheets append: unexpected status %d", resp.StatusCode)
	}
	return nil
}
