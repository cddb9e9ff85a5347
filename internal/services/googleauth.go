package services

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Scopes required by the three Google clients. Granted to the service
// account, requested once at startup.
const (
	ScopeSpreadsheets  = "https://www.googleapis.com/auth/spreadsheets"
	ScopeDrive         = "https://www.googleapis.com/auth/drive"
	ScopeCloudPlatform = "https://www.googleapis.com/auth/cloud-platform"
)

// NewGoogleHTTPClient reads a service account key file and returns an
// http.Client whose transport injects and refreshes the bearer token.
// One client is built at startup and shared by all three Google services.
func NewGoogleHTTPClient(ctx context.Context, credentialsFile string) (*http.Client, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data,
		ScopeSpreadsheets, ScopeDrive, ScopeCloudPlatform)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}
	return oauth2.NewClient(ctx, creds.TokenSource), nil
}
