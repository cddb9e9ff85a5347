package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/PlateWatch-ANPR/Ingest-Service/internal/models"
	"github.com/PlateWatch-ANPR/Ingest-Service/internal/pipeline"
	"github.com/PlateWatch-ANPR/Ingest-Service/internal/services"
)

type fakeProcessor struct {
	calls  int
	gotSub models.Submission
	result models.Result
	err    error
}

func (f *fakeProcessor) Process(ctx context.Context, sub models.Submission) (models.Result, error) {
	f.calls++
	f.gotSub = sub
	return f.result, f.err
}

type fakeScanner struct {
	err error
}

func (f *fakeScanner) ScanBytes(ctx context.Context, content []byte) error {
	return f.err
}

func newTestRouter(p Processor, s Scanner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewIngestHandler(p, s, time.UTC, zap.NewNop())
	r := gin.New()
	r.POST("/", h.ProcessImage)
	r.GET("/api/health", h.HealthCheck)
	return r
}

func postJSON(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestProcessImageSuccess(t *testing.T) {
	proc := &fakeProcessor{result: models.Result{
		DetectedText: "MH 20 EE 7602",
		DriveURL:     "https://drive.google.com/uc?id=abc&export=view",
	}}
	r := newTestRouter(proc, nil)

	image := base64.StdEncoding.EncodeToString([]byte("jpeg bytes"))
	body, _ := json.Marshal(map[string]string{"image": image, "image_name": "gate-cam.jpg"})
	w := postJSON(r, string(body))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var resp models.Result
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp != proc.result {
		t.Errorf("response = %+v, want %+v", resp, proc.result)
	}
	if proc.gotSub.ImageName != "gate-cam.jpg" {
		t.Errorf("image name = %q, want gate-cam.jpg", proc.gotSub.ImageName)
	}
	if !bytes.Equal(proc.gotSub.Content, []byte("jpeg bytes")) {
		t.Error("decoded content does not match submitted bytes")
	}
}

func TestProcessImageDefaultsImageName(t *testing.T) {
	proc := &fakeProcessor{}
	r := newTestRouter(proc, nil)

	image := base64.StdEncoding.EncodeToString([]byte("x"))
	body, _ := json.Marshal(map[string]string{"image": image})
	w := postJSON(r, string(body))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.HasPrefix(proc.gotSub.ImageName, "esp32cam_") || !strings.HasSuffix(proc.gotSub.ImageName, ".jpg") {
		t.Errorf("synthesized name = %q, want esp32cam_HHMMSS.jpg", proc.gotSub.ImageName)
	}
}

func TestProcessImageRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "{not json"},
		{"missing image", `{"image_name":"a.jpg"}`},
		{"invalid base64", `{"image":"@@not-base64@@"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc := &fakeProcessor{}
			r := newTestRouter(proc, nil)
			w := postJSON(r, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
			if proc.calls != 0 {
				t.Error("pipeline ran on malformed input")
			}
		})
	}
}

func TestProcessImagePipelineFailure(t *testing.T) {
	proc := &fakeProcessor{err: &pipeline.StageError{Stage: pipeline.StageArchive, Err: errors.New("upload rejected")}}
	r := newTestRouter(proc, nil)

	image := base64.StdEncoding.EncodeToString([]byte("x"))
	body, _ := json.Marshal(map[string]string{"image": image})
	w := postJSON(r, string(body))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(resp["error"], pipeline.StageArchive) {
		t.Errorf("error %q does not name the failing stage", resp["error"])
	}
}

func TestProcessImageInfectedUpload(t *testing.T) {
	proc := &fakeProcessor{}
	scanner := &fakeScanner{err: services.ErrInfected}
	r := newTestRouter(proc, scanner)

	image := base64.StdEncoding.EncodeToString([]byte("x"))
	body, _ := json.Marshal(map[string]string{"image": image})
	w := postJSON(r, string(body))

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
	if proc.calls != 0 {
		t.Error("pipeline ran for infected upload")
	}
}

func TestProcessImageScannerUnavailableContinues(t *testing.T) {
	proc := &fakeProcessor{}
	scanner := &fakeScanner{err: errors.New("dial tcp: connection refused")}
	r := newTestRouter(proc, scanner)

	image := base64.StdEncoding.EncodeToString([]byte("x"))
	body, _ := json.Marshal(map[string]string{"image": image})
	w := postJSON(r, string(body))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if proc.calls != 1 {
		t.Error("pipeline did not run when scanner was merely unavailable")
	}
}

func TestHealthCheck(t *testing.T) {
	r := newTestRouter(&fakeProcessor{}, nil)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}
