package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/opencurtain/photodrop/internal/submission"
)

// formOverheadBytes leaves room for multipart boundaries and the
// performance field on top of the photo cap.
const formOverheadBytes = 1024 * 1024

// HandleUpload accepts one multipart photo submission: fields "photo"
// (image bytes) and "performance" (performance id).
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	// Cap the request before buffering so oversize uploads are rejected
	// without reading them fully into memory.
	r.Body = http.MaxBytesReader(w, r.Body, submission.MaxPhotoBytes+formOverheadBytes)

	var photo []byte
	var mimeType string
	file, header, err := r.FormFile("photo")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "File is too large. Maximum size is 10MB", "")
			return
		}
		// Missing photo field falls through to the service so validation
		// order stays: photo first, then performance.
	} else {
		defer file.Close()
		photo, err = io.ReadAll(io.LimitReader(file, submission.MaxPhotoBytes+1))
		if err != nil {
			h.writeError(w, http.StatusInternalServerError, "Failed to read file contents", err.Error())
			return
		}
		mimeType = header.Header.Get("Content-Type")
	}

	performanceID := r.FormValue("performance")

	stored, err := h.service.Submit(r.Context(), photo, mimeType, performanceID)
	if err != nil {
		var failure *submission.Failure
		if errors.As(err, &failure) {
			status := http.StatusBadRequest
			if failure.ServerSide() {
				status = http.StatusInternalServerError
			}
			h.writeError(w, status, failure.Message, failure.Detail)
			return
		}
		h.writeError(w, http.StatusInternalServerError, "Upload failed", err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"message":     "Photo uploaded successfully",
		"filename":    stored.StoredName,
		"performance": stored.PerformanceDisplay,
	})
}
