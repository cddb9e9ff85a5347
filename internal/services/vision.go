package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultVisionBaseURL = "https://vision.googleapis.com"

// VisionClient calls the text-recognition endpoint of the Google Vision
// REST API. An empty recognition result is a valid outcome and is
// reported as an empty string; only transport or API errors are errors.
type VisionClient struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
}

func NewVisionClient(httpClient *http.Client, timeout time.Duration) *VisionClient {
	return &VisionClient{httpClient: httpClient, baseURL: defaultVisionBaseURL, timeout: timeout}
}

// NewVisionClientWithBaseURL is used by tests to point at a fake server.
func NewVisionClientWithBaseURL(httpClient *http.Client, baseURL string, timeout time.Duration) *VisionClient {
	return &VisionClient{httpClient: httpClient, baseURL: strings.TrimRight(baseURL, "/"), timeout: timeout}
}

type annotateRequest struct {
	Requests []annotateImageRequest `json:"requests"`
}

type annotateImageRequest struct {
	Image    visionImage     `json:"image"`
	Features []visionFeature `json:"features"`
}

type visionImage struct {
	Content string `json:"content"`
}

type visionFeature struct {
	Type string `json:"type"`
}

type annotateResponse struct {
	Responses []struct {
		TextAnnotations []struct {
			Description string `json:"description"`
		} `json:"textAnnotations"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

// DetectText submits the image bytes for TEXT_DETECTION and returns the
// first annotation's description, trimmed. An image with no detectable
// text returns ("", nil).
func (c *VisionClient) DetectText(ctx context.Context, image []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload := annotateRequest{
		Requests: []annotateImageRequest{{
			Image:    visionImage{Content: base64.StdEncoding.EncodeToString(image)},
			Features: []visionFeature{{Type: "TEXT_DETECTION"}},
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode annotate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/images:annotate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("vision annotate call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("vision annotate: unexpected status %d", resp.StatusCode)
	}

	var decoded annotateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode annotate response: %w", err)
	}
	if len(decoded.Responses) == 0 {
		return "", nil
	}
	first := decoded.Responses[0]
	if first.Error != nil {
		return "", fmt.Errorf("vision annotate: %s (code %d)", first.Error.Message, first.Error.Code)
	}
	if len(first.TextAnnotations) == 0 {
		return "", nil
	}
	return strings.TrimSpace(first.TextAnnotations[0].Description), nil
}
