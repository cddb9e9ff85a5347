package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func visionServer(t *testing.T, handler http.HandlerFunc) *VisionClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewVisionClientWithBaseURL(srv.Client(), srv.URL, 5*time.Second)
}

func TestDetectTextReturnsFirstAnnotationTrimmed(t *testing.T) {
	var gotContent string
	client := visionServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/images:annotate" {
			t.Errorf("path = %q, want /v1/images:annotate", r.URL.Path)
		}
		var req annotateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Requests) != 1 || req.Requests[0].Features[0].Type != "TEXT_DETECTION" {
			t.Errorf("unexpected annotate request: %+v", req)
		}
		gotContent = req.Requests[0].Image.Content

		w.Write([]byte(`{"responses":[{"textAnnotations":[
			{"description":"  MH 20 EE 7602\nTAXI  "},
			{"description":"MH"}
		]}]}`))
	})

	text, err := client.DetectText(context.Background(), []byte("jpeg bytes"))
	if err != nil {
		t.Fatalf("DetectText: %v", err)
	}
	if text != "MH 20 EE 7602\nTAXI" {
		t.Errorf("text = %q, want first annotation trimmed", text)
	}
	if gotContent != base64.StdEncoding.EncodeToString([]byte("jpeg bytes")) {
		t.Error("image content was not base64 encoded in the request")
	}
}

func TestDetectTextEmptyResultIsNotAnError(t *testing.T) {
	client := visionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"responses":[{}]}`))
	})

	text, err := client.DetectText(context.Background(), []byte("x"))
	if err != nil {
		t.Fatalf("DetectText: %v", err)
	}
	if text != "" {
		t.Errorf("text = %q, want empty", text)
	}
}

func TestDetectTextAnnotationError(t *testing.T) {
	client := visionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"responses":[{"error":{"code":7,"message":"permission denied"}}]}`))
	})

	if _, err := client.DetectText(context.Background(), []byte("x")); err == nil {
		t.Fatal("expected error for annotation-level failure")
	}
}

func TestDetectTextHTTPFailure(t *testing.T) {
	client := visionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	if _, err := client.DetectText(context.Background(), []byte("x")); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}
