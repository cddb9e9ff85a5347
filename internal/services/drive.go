package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

const (
	defaultDriveBaseURL = "https://www.googleapis.com"
	folderMimeType      = "application/vnd.google-apps.folder"
)

// DriveClient talks to the Drive v3 REST API: folder lookup and creation,
// multipart upload, and the anyone-with-link reader grant.
type DriveClient struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
}

func NewDriveClient(httpClient *http.Client, timeout time.Duration) *DriveClient {
	return &DriveClient{httpClient: httpClient, baseURL: defaultDriveBaseURL, timeout: timeout}
}

// NewDriveClientWithBaseURL is used by tests to point at a fake server.
func NewDriveClientWithBaseURL(httpClient *http.Client, baseURL string, timeout time.Duration) *DriveClient {
	return &DriveClient{httpClient: httpClient, baseURL: strings.TrimRight(baseURL, "/"), timeout: timeout}
}

// escapeQueryTerm neutralizes backslashes and single quotes so folder and
// date names cannot break out of the quoted query term.
var escapeQueryTerm = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// folderQuery builds the files.list q filter for a non-trashed folder
// with the given name, optionally under a parent.
func folderQuery(name, parentID string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "mimeType='%s' and name='%s' and trashed=false",
		folderMimeType, escapeQueryTerm.Replace(name))
	if parentID != "" {
		fmt.Fprintf(&b, " and '%s' in parents", escapeQueryTerm.Replace(parentID))
	}
	return b.String()
}

type driveFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type driveFileList struct {
	Files []driveFile `json:"files"`
}

// ResolveFolder returns the ID of the folder with the given name (and
// parent, when given), creating it when absent. The check-then-create is
// not atomic: two concurrent submissions may both create the folder and
// leave same-named duplicates behind. Drive allows that, and the race is
// accepted rather than coordinated away.
func (c *DriveClient) ResolveFolder(ctx context.Context, name, parentID string) (string, error) {
	id, found, err := c.findFolder(ctx, name, parentID)
	if err != nil {
		return "", err
	}
	if found {
		return id, nil
	}
	return c.createFolder(ctx, name, parentID)
}

func (c *DriveClient) findFolder(ctx context.Context, name, parentID string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("q", folderQuery(name, parentID))
	params.Set("fields", "files(id, name)")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/drive/v3/files?"+params.Encode(), nil)
	if err != nil {
		return "", false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("drive folder lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("drive folder lookup: unexpected status %d", resp.StatusCode)
	}

	var list driveFileList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return "", false, fmt.Errorf("decode folder list: %w", err)
	}
	if len(list.Files) == 0 {
		return "", false, nil
	}
	return list.Files[0].ID, true, nil
}

func (c *DriveClient) createFolder(ctx context.Context, name, parentID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	metadata := map[string]interface{}{
		"name":     name,
		"mimeType": folderMimeType,
	}
	if parentID != "" {
		metadata["parents"] = []string{parentID}
	}
	body, err := json.Marshal(metadata)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/drive/v3/files?fields=id", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("drive folder create: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("drive folder create: unexpected status %d", resp.StatusCode)
	}

	var created driveFile
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decode folder create response: %w", err)
	}
	return created.ID, nil
}

// UploadImage uploads the image bytes as a single multipart/related
// request (metadata part + media part) and returns the new file ID.
func (c *DriveClient) UploadImage(ctx context.Context, content []byte, name, folderID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	metadata := map[string]interface{}{
		"name":    name,
		"parents": []string{folderID},
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	metaPart, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"application/json; charset=UTF-8"},
	})
	if err != nil {
		return "", err
	}
	if _, err := metaPart.Write(metaJSON); err != nil {
		return "", err
	}

	mediaPart, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"image/jpeg"},
	})
	if err != nil {
		return "", err
	}
	if _, err := mediaPart.Write(content); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/upload/drive/v3/files?uploadType=multipart&fields=id", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "multipart/related; boundary="+w.Boundary())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("drive upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("drive upload: unexpected status %d", resp.StatusCode)
	}

	var created driveFile
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	return created.ID, nil
}

// ShareAnyone grants anyone-with-link read access to the file.
func (c *DriveClient) ShareAnyone(ctx context.Context, fileID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(map[string]string{"role": "reader", "type": "anyone"})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/drive/v3/files/"+url.PathEscape(fileID)+"/permissions", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("drive permission grant: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("drive permission grant: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// PublicURL builds the stable retrieval URL for a shared file.
func PublicURL(fileID string) string {
	return fmt.Sprintf("https://drive.google.com/uc?id=%s&export=view", fileID)
}

// DriveArchive adapts the Drive client to the archive contract used by
// the pipeline: date folders resolved under a fixed root, uploads made
// publicly fetchable.
type DriveArchive struct {
	client   *DriveClient
	rootName string
}

func NewDriveArchive(client *DriveClient, rootName string) *DriveArchive {
	return &DriveArchive{client: client, rootName: rootName}
}

// ResolveFolder resolves the root archive folder, then the date folder
// under it, creating whichever is missing.
func (a *DriveArchive) ResolveFolder(ctx context.Context, date string) (string, error) {
	rootID, err := a.client.ResolveFolder(ctx, a.rootName, "")
	if err != nil {
		return "", err
	}
	return a.client.ResolveFolder(ctx, date, rootID)
}

// Upload stores the image in the resolved folder, grants public read and
// returns the retrieval URL. When the grant fails after a successful
// upload the file is left in place; no compensating delete is attempted.
func (a *DriveArchive) Upload(ctx context.Context, content []byte, name, folderID string) (string, error) {
	fileID, err := a.client.UploadImage(ctx, content, name, folderID)
	if err != nil {
		return "", err
	}
	if err := a.client.ShareAnyone(ctx, fileID); err != nil {
		return "", err
	}
	return PublicURL(fileID), nil
}
