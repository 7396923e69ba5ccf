package handlers

import "net/http"

// HandlePerformances serves the configured performance list. An empty
// catalog yields an empty array, not an error.
func (h *Handler) HandlePerformances(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}
	h.writeJSON(w, http.StatusOK, h.catalog.List())
}

// HandleHealth is the liveness probe.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Server is running",
	})
}
