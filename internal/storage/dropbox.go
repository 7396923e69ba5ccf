package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const dropboxContentURL = "https://content.dropboxapi.com"

// Dropbox implements Provider against the Dropbox content API.
type Dropbox struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

func NewDropbox(token string) *Dropbox {
	return &Dropbox{
		token:      token,
		baseURL:    dropboxContentURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Upload stores contents at path via /2/files/upload. Mode "add" with
// autorename asks Dropbox to rename on collision instead of overwriting.
func (d *Dropbox) Upload(ctx context.Context, path string, contents []byte) (string, error) {
	arg, err := json.Marshal(map[string]interface{}{
		"path":       path,
		"mode":       "add",
		"autorename": true,
		"mute":       false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal upload arg: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", d.baseURL+"/2/files/upload", bytes.NewReader(contents))
	if err != nil {
		return "", fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+d.token)
	req.Header.Set("Dropbox-API-Arg", string(arg))
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var apiErr struct {
			ErrorSummary string `json:"error_summary"`
		}
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.ErrorSummary != "" {
			return "", fmt.Errorf("dropbox upload failed: %s", apiErr.ErrorSummary)
		}
		return "", fmt.Errorf("dropbox upload failed: received non-200 status code: %d - %s", resp.StatusCode, string(body))
	}

	var response struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}
	return response.Name, nil
}
