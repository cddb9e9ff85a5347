package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	clamd "github.com/dutchcoders/go-clamd"
)

// ErrInfected marks a submission rejected by the malware scan. The
// handler maps it to a client error; the image never reaches recognition
// or storage.
var ErrInfected = errors.New("image rejected by malware scan")

// ClamAVScanner streams raw image bytes to a ClamAV daemon before the
// pipeline runs. Configured only when CLAMAV_URL is set.
type ClamAVScanner struct {
	client *clamd.Clamd
}

func NewClamAVScanner(clamAvURL string) *ClamAVScanner {
	return &ClamAVScanner{client: clamd.NewClamd(clamAvURL)}
}

// ScanBytes returns ErrInfected when the daemon flags the content and a
// plain error when the scan itself cannot be performed.
func (s *ClamAVScanner) ScanBytes(ctx context.Context, content []byte) error {
	abort := make(chan bool)
	defer close(abort)

	response, err := s.client.ScanStream(bytes.NewReader(content), abort)
	if err != nil {
		return fmt.Errorf("clamav scan failed: %w", err)
	}

	for res := range response {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if res.Status == clamd.RES_FOUND {
			return fmt.Errorf("%w: %s", ErrInfected, res.Description)
		}
	}
	return nil
}
