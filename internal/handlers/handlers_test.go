package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/opencurtain/photodrop/internal/catalog"
	"github.com/opencurtain/photodrop/internal/imageproc"
	"github.com/opencurtain/photodrop/internal/storage"
	"github.com/opencurtain/photodrop/internal/submission"
)

type fakeProvider struct {
	uploads map[string][]byte
	err     error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{uploads: make(map[string][]byte)}
}

func (f *fakeProvider) Upload(ctx context.Context, path string, contents []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.uploads[path] = contents
	parts := strings.Split(path, "/")
	return parts[len(parts)-1], nil
}

func newTestServer(t *testing.T, provider storage.Provider, performances []catalog.Performance) *httptest.Server {
	t.Helper()
	cat := catalog.New(performances)
	service := submission.NewService(cat, imageproc.New(), storage.NewPlacer(provider, "/Show Photos"))
	handler := New(service, cat)

	mux := http.NewServeMux()
	mux.HandleFunc("/performances", handler.HandlePerformances)
	mux.HandleFunc("/upload", handler.HandleUpload)
	mux.HandleFunc("/health", handler.HandleHealth)
	mux.HandleFunc("/", handler.HandleStatic)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func defaultPerformances() []catalog.Performance {
	return []catalog.Performance{{ID: "2024-05-01", Display: "May 1 Matinee"}}
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8((x + y) % 256), G: 90, B: 140, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// uploadRequest builds the multipart form the browser sends: a "photo"
// file part plus a "performance" field. An empty performance omits the
// field entirely.
func uploadRequest(t *testing.T, url string, photo []byte, mimeType, performance string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	if photo != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="photo"; filename="photo.jpg"`)
		header.Set("Content-Type", mimeType)
		part, err := form.CreatePart(header)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(photo); err != nil {
			t.Fatal(err)
		}
	}
	if performance != "" {
		if err := form.WriteField("performance", performance); err != nil {
			t.Fatal(err)
		}
	}
	if err := form.Close(); err != nil {
		t.Fatal(err)
	}

	req, err := http.NewRequest("POST", url+"/upload", &body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	return req
}

func doJSON(t *testing.T, req *http.Request) (int, map[string]interface{}) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp.StatusCode, body
}

func TestUploadSuccess(t *testing.T) {
	provider := newFakeProvider()
	server := newTestServer(t, provider, defaultPerformances())

	req := uploadRequest(t, server.URL, encodeJPEG(t, 2000, 3000), "image/jpeg", "2024-05-01")
	status, body := doJSON(t, req)

	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", status, body)
	}
	if body["success"] != true {
		t.Errorf("expected success true, got %v", body["success"])
	}
	filename, _ := body["filename"].(string)
	if !strings.HasPrefix(filename, "photo_") || !strings.HasSuffix(filename, ".jpg") {
		t.Errorf("unexpected filename %q", filename)
	}
	if body["performance"] != "May 1 Matinee" {
		t.Errorf("expected display name, got %v", body["performance"])
	}

	if len(provider.uploads) != 1 {
		t.Fatalf("expected one stored object, got %d", len(provider.uploads))
	}
	for path, stored := range provider.uploads {
		if !strings.HasPrefix(path, "/Show Photos/2024-05-01/photo_") {
			t.Errorf("unexpected storage path %q", path)
		}
		cfg, format, err := image.DecodeConfig(bytes.NewReader(stored))
		if err != nil {
			t.Fatalf("stored bytes do not decode: %v", err)
		}
		if format != "jpeg" || cfg.Width != 480 || cfg.Height != 640 {
			t.Errorf("stored image is %dx%d %s, want 480x640 jpeg", cfg.Width, cfg.Height, format)
		}
	}
}

func TestUploadMissingPerformance(t *testing.T) {
	server := newTestServer(t, newFakeProvider(), defaultPerformances())

	req := uploadRequest(t, server.URL, encodeJPEG(t, 100, 100), "image/jpeg", "")
	status, body := doJSON(t, req)

	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if body["error"] != "No performance selected" {
		t.Errorf("unexpected error %v", body["error"])
	}
}

func TestUploadInvalidPerformance(t *testing.T) {
	server := newTestServer(t, newFakeProvider(), defaultPerformances())

	req := uploadRequest(t, server.URL, encodeJPEG(t, 100, 100), "image/jpeg", "nonexistent")
	status, body := doJSON(t, req)

	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if body["error"] != "Invalid performance selected" {
		t.Errorf("unexpected error %v", body["error"])
	}
}

func TestUploadMissingPhoto(t *testing.T) {
	server := newTestServer(t, newFakeProvider(), defaultPerformances())

	req := uploadRequest(t, server.URL, nil, "", "2024-05-01")
	status, body := doJSON(t, req)

	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if body["error"] != "No photo uploaded" {
		t.Errorf("unexpected error %v", body["error"])
	}
}

func TestUploadOversizeRejectedBeforeStorage(t *testing.T) {
	// Invoked in-process: a real connection would be torn down mid-body
	// once the byte cap trips, which is exactly the point.
	provider := newFakeProvider()
	cat := catalog.New(defaultPerformances())
	service := submission.NewService(cat, imageproc.New(), storage.NewPlacer(provider, "/Show Photos"))
	handler := New(service, cat)

	oversize := make([]byte, 15*1024*1024)
	req := uploadRequest(t, "http://photodrop.test", oversize, "image/jpeg", "2024-05-01")
	rec := httptest.NewRecorder()
	handler.HandleUpload(rec, req)

	status := rec.Code
	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}

	if status < 400 || status >= 500 {
		t.Fatalf("expected client-error status, got %d", status)
	}
	errMsg, _ := body["error"].(string)
	if !strings.Contains(errMsg, "too large") {
		t.Errorf("expected size-limit error, got %v", body["error"])
	}
	if len(provider.uploads) != 0 {
		t.Error("storage must never be invoked for oversize uploads")
	}
}

func TestUploadUnsupportedMediaType(t *testing.T) {
	provider := newFakeProvider()
	server := newTestServer(t, provider, defaultPerformances())

	req := uploadRequest(t, server.URL, []byte("GIF89a..."), "image/gif", "2024-05-01")
	status, body := doJSON(t, req)

	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	errMsg, _ := body["error"].(string)
	if !strings.Contains(errMsg, "JPEG, PNG, WEBP") {
		t.Errorf("unexpected error %v", body["error"])
	}
	if len(provider.uploads) != 0 {
		t.Error("storage must never be invoked for rejected media types")
	}
}

func TestUploadUndecodableImage(t *testing.T) {
	provider := newFakeProvider()
	server := newTestServer(t, provider, defaultPerformances())

	req := uploadRequest(t, server.URL, []byte("claims to be a jpeg"), "image/jpeg", "2024-05-01")
	status, body := doJSON(t, req)

	if status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", status)
	}
	if body["details"] == nil {
		t.Error("expected processing detail to be carried")
	}
	if len(provider.uploads) != 0 {
		t.Error("storage must never be invoked when processing fails")
	}
}

func TestUploadStorageFailure(t *testing.T) {
	provider := newFakeProvider()
	provider.err = errors.New("path/insufficient_space/..")
	server := newTestServer(t, provider, defaultPerformances())

	req := uploadRequest(t, server.URL, encodeJPEG(t, 800, 600), "image/jpeg", "2024-05-01")
	status, body := doJSON(t, req)

	if status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", status)
	}
	if body["error"] == nil {
		t.Error("expected error message")
	}
	details, _ := body["details"].(string)
	if !strings.Contains(details, "path/insufficient_space/..") {
		t.Errorf("expected provider detail, got %v", body["details"])
	}
}

func TestPerformancesEndpoint(t *testing.T) {
	server := newTestServer(t, newFakeProvider(), defaultPerformances())

	resp, err := http.Get(server.URL + "/performances")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var performances []catalog.Performance
	if err := json.NewDecoder(resp.Body).Decode(&performances); err != nil {
		t.Fatal(err)
	}
	if len(performances) != 1 || performances[0].Display != "May 1 Matinee" {
		t.Fatalf("unexpected performances %v", performances)
	}
}

func TestPerformancesEmptyCatalogIsEmptyArray(t *testing.T) {
	server := newTestServer(t, newFakeProvider(), nil)

	resp, err := http.Get(server.URL + "/performances")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var raw bytes.Buffer
	if _, err := raw.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(raw.String()) != "[]" {
		t.Fatalf("expected empty array, got %q", raw.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, newFakeProvider(), nil)

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected health response %v", body)
	}
}

func TestFailedSubmissionDoesNotAffectSubsequentOnes(t *testing.T) {
	provider := newFakeProvider()
	server := newTestServer(t, provider, defaultPerformances())

	// A rejected submission first.
	req := uploadRequest(t, server.URL, []byte("garbage"), "image/jpeg", "2024-05-01")
	if status, _ := doJSON(t, req); status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", status)
	}

	// The next valid one still succeeds.
	req = uploadRequest(t, server.URL, encodeJPEG(t, 640, 480), "image/jpeg", "2024-05-01")
	if status, body := doJSON(t, req); status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", status, body)
	}
}

func TestStaticServesIndex(t *testing.T) {
	server := newTestServer(t, newFakeProvider(), nil)

	resp, err := http.Get(server.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("unexpected content type %q", ct)
	}
}
