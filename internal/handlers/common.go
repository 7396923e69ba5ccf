package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/opencurtain/photodrop/internal/catalog"
	"github.com/opencurtain/photodrop/internal/submission"
)

type Handler struct {
	service *submission.Service
	catalog *catalog.Catalog
}

func New(service *submission.Service, cat *catalog.Catalog) *Handler {
	return &Handler{
		service: service,
		catalog: cat,
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, details string) {
	slog.Error("Request failed", "status", status, "error", message, "details", details)
	h.writeJSON(w, status, errorResponse{Error: message, Details: details})
}
