package models

import (
	"time"
)

// Submission is one decoded camera capture moving through the pipeline.
// It is built per request and discarded once the pipeline completes.
type Submission struct {
	Content    []byte
	ImageName  string
	CapturedAt time.Time
}

// Result is what the caller gets back on success.
type Result struct {
	DetectedText string `json:"detected_text"`
	DriveURL     string `json:"drive_url"`
}

// LedgerRow is one appended record. Date and Time are pre-formatted
// strings in the capture timezone so the ledger service interprets them
// as user-entered values.
type LedgerRow struct {
	Date  string `json:"date"`
	Time  string `json:"time"`
	URL   string `json:"url"`
	Plate string `json:"plate"`
}

// PlateEvent is published after a submission is recorded.
type PlateEvent struct {
	Plate     string `json:"plate"`
	URL       string `json:"url"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	ImageName string `json:"image_name"`
}
