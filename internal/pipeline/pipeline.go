package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/PlateWatch-ANPR/Ingest-Service/internal/models"
	"github.com/PlateWatch-ANPR/Ingest-Service/internal/plate"
)

// Stage names reported in failure responses.
const (
	StageRecognition = "recognition"
	StageFolder      = "folder"
	StageArchive     = "archive"
	StageRecord      = "record"
)

// Recognizer turns image bytes into recognized text. An empty string is
// a valid result; an error means the recognition call itself failed.
type Recognizer interface {
	DetectText(ctx context.Context, image []byte) (string, error)
}

// Archive resolves the date partition and stores images in it.
type Archive interface {
	ResolveFolder(ctx context.Context, date string) (string, error)
	Upload(ctx context.Context, content []byte, name, folderID string) (string, error)
}

// Ledger appends one row per recorded submission.
type Ledger interface {
	Append(ctx context.Context, row models.LedgerRow) error
}

// Publisher emits detection events. Optional; failures are logged only.
type Publisher interface {
	PublishEvent(subject string, payload interface{}) error
}

// StageError carries which pipeline stage failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Pipeline drives one submission through recognize → resolve folder →
// archive → record. All collaborators are process-wide immutable handles
// injected at construction; Process holds no state between calls.
type Pipeline struct {
	recognizer Recognizer
	archive    Archive
	ledger     Ledger
	events     Publisher
	log        *zap.Logger
}

func New(recognizer Recognizer, archive Archive, ledger Ledger, events Publisher, log *zap.Logger) *Pipeline {
	return &Pipeline{
		recognizer: recognizer,
		archive:    archive,
		ledger:     ledger,
		events:     events,
		log:        log,
	}
}

// Process runs the stages in order, stopping at the first failure. Prior
// side effects are not rolled back: an archive that succeeds before a
// failed ledger append leaves the image archived without a row. The
// ledger is never written before the archive URL exists.
func (p *Pipeline) Process(ctx context.Context, sub models.Submission) (models.Result, error) {
	fullText, err := p.recognizer.DetectText(ctx, sub.Content)
	if err != nil {
		return models.Result{}, &StageError{Stage: StageRecognition, Err: err}
	}
	detected := plate.Extract(fullText)

	date := sub.CapturedAt.Format("2006-01-02")
	folderID, err := p.archive.ResolveFolder(ctx, date)
	if err != nil {
		return models.Result{}, &StageError{Stage: StageFolder, Err: err}
	}

	url, err := p.archive.Upload(ctx, sub.Content, sub.ImageName, folderID)
	if err != nil {
		return models.Result{}, &StageError{Stage: StageArchive, Err: err}
	}

	row := models.LedgerRow{
		Date:  date,
		Time:  sub.CapturedAt.Format("15:04:05"),
		URL:   url,
		Plate: detected,
	}
	if err := p.ledger.Append(ctx, row); err != nil {
		return models.Result{}, &StageError{Stage: StageRecord, Err: err}
	}

	p.log.Info("submission recorded",
		zap.String("image_name", sub.ImageName),
		zap.String("plate", detected),
		zap.String("url", url),
	)

	if p.events != nil {
		event := models.PlateEvent{
			Plate:     detected,
			URL:       url,
			Date:      row.Date,
			Time:      row.Time,
			ImageName: sub.ImageName,
		}
		if err := p.events.PublishEvent("plates.detected", event); err != nil {
			p.log.Warn("failed to publish plates.detected event", zap.Error(err))
		}
	}

	return models.Result{DetectedText: detected, DriveURL: url}, nil
}
