package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/opencurtain/photodrop/internal/catalog"
)

// ServerError is a non-2xx response from the submission endpoint, carrying
// the server's user-facing message.
type ServerError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *ServerError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("server rejected upload (%d): %s: %s", e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("server rejected upload (%d): %s", e.StatusCode, e.Message)
}

// HTTPSubmitter talks to the photodrop server's transport contract.
type HTTPSubmitter struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPSubmitter(baseURL string) *HTTPSubmitter {
	return &HTTPSubmitter{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Performances fetches the selectable performance list.
func (s *HTTPSubmitter) Performances(ctx context.Context) ([]catalog.Performance, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+"/performances", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch performances: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	var performances []catalog.Performance
	if err := json.NewDecoder(resp.Body).Decode(&performances); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}
	return performances, nil
}

// Submit posts the multipart form the server expects: field "photo" with
// the cropped JPEG bytes and field "performance" with the id.
func (s *HTTPSubmitter) Submit(ctx context.Context, photo []byte, filename, performanceID string) (Result, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photo"; filename=%q`, filename))
	header.Set("Content-Type", "image/jpeg")
	part, err := form.CreatePart(header)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := part.Write(photo); err != nil {
		return Result{}, fmt.Errorf("failed to write photo: %w", err)
	}
	if err := form.WriteField("performance", performanceID); err != nil {
		return Result{}, fmt.Errorf("failed to write performance field: %w", err)
	}
	if err := form.Close(); err != nil {
		return Result{}, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/upload", &body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		serverErr := &ServerError{StatusCode: resp.StatusCode, Message: "Upload failed"}
		var parsed struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		if err := json.Unmarshal(respBody, &parsed); err == nil && parsed.Error != "" {
			serverErr.Message = parsed.Error
			serverErr.Details = parsed.Details
		}
		return Result{}, serverErr
	}

	var response struct {
		Success     bool   `json:"success"`
		Filename    string `json:"filename"`
		Performance string `json:"performance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return Result{}, fmt.Errorf("failed to decode response body: %w", err)
	}
	return Result{Filename: response.Filename, Performance: response.Performance}, nil
}
