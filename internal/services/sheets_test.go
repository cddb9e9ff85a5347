package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PlateWatch-ANPR/Ingest-Service/internal/models"
)

func TestSheetsLedgerAppend(t *testing.T) {
	var gotPath, gotMode string
	var gotBody map[string][][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMode = r.URL.Query().Get("valueInputOption")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.Write([]byte(`{"updates":{"updatedRows":1}}`))
	}))
	t.Cleanup(srv.Close)

	ledger := NewSheetsLedgerWithBaseURL(srv.Client(), srv.URL, "sheet-1", 5*time.Second)
	row := models.LedgerRow{
		Date:  "2025-06-14",
		Time:  "18:42:07",
		URL:   "https://drive.google.com/uc?id=abc&export=view",
		Plate: "MH 20 EE 7602",
	}
	if err := ledger.Append(context.Background(), row); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if gotPath != "/v4/spreadsheets/sheet-1/values/Sheet1!A:D:append" {
		t.Errorf("path = %q", gotPath)
	}
	if gotMode != "USER_ENTERED" {
		t.Errorf("valueInputOption = %q, want USER_ENTERED", gotMode)
	}
	want := [][]string{{row.Date, row.Time, row.URL, row.Plate}}
	if len(gotBody["values"]) != 1 || len(gotBody["values"][0]) != 4 {
		t.Fatalf("values = %v, want one four-column row", gotBody["values"])
	}
	for i, cell := range want[0] {
		if gotBody["values"][0][i] != cell {
			t.Errorf("values[0][%d] = %q, want %q", i, gotBody["values"][0][i], cell)
		}
	}
}

func TestSheetsLedgerAppendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	ledger := NewSheetsLedgerWithBaseURL(srv.Client(), srv.URL, "sheet-1", 5*time.Second)
	if err := ledger.Append(context.Background(), models.LedgerRow{}); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}
