package handler

import (
	"log/slog"
	"net/http"

	"github.com/fintrack/fintrack/internal/auth"
	"github.com/fintrack/fintrack/internal/service"
	"github.com/fintrack/fintrack/internal/summary"
)

// SummaryHandler serves the dashboard summary.
type SummaryHandler struct {
	svc    *service.SummaryService
	logger *slog.Logger
}

// NewSummaryHandler creates a new SummaryHandler.
func NewSummaryHandler(svc *service.SummaryService, logger *slog.Logger) *SummaryHandler {
	return &SummaryHandler{svc: svc, logger: logger}
}

// Get handles GET /summary?window=&start=&end=.
func (h *SummaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	ownerID := auth.UserIDFromContext(r.Context())

	window, err := summary.ParseWindow(
		query.Get("window"),
		query.Get("start"),
		query.Get("end"),
		h.svc.Now().Location(),
	)
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	result, err := h.svc.Summary(r.Context(), ownerID, window)
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
