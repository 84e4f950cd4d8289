package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fintrack/fintrack/internal/auth"
	"github.com/fintrack/fintrack/internal/handler/dto"
	"github.com/fintrack/fintrack/internal/model"
	"github.com/fintrack/fintrack/internal/service"
)

// RecordHandler serves one record collection. Every route runs behind the
// auth middleware and acts only on the caller's own records.
type RecordHandler struct {
	kind   model.Kind
	svc    *service.RecordService
	logger *slog.Logger
}

// NewRecordHandler creates a RecordHandler for kind.
func NewRecordHandler(kind model.Kind, svc *service.RecordService, logger *slog.Logger) *RecordHandler {
	return &RecordHandler{kind: kind, svc: svc, logger: logger}
}

// Routes mounts list, create and delete on a new router.
func (h *RecordHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Delete("/{id}", h.Delete)
	return r
}

// List handles GET /{collection}.
func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())

	records, err := h.svc.List(r.Context(), ownerID, h.kind)
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToRecordList(records))
}

// Create handles POST /{collection}.
func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())

	var req dto.RecordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	label, category := req.Fields(h.kind)
	record, err := h.svc.Create(r.Context(), ownerID, h.kind, service.RecordInput{
		Amount:   req.Amount,
		Date:     req.DateValue(),
		Label:    label,
		Category: category,
	})
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	h.logger.Info("record_created",
		"kind", string(h.kind),
		"record_id", record.ID,
		"user_id", ownerID,
	)

	writeJSON(w, http.StatusCreated, dto.ToRecordResponse(record))
}

// Delete handles DELETE /{collection}/{id}.
func (h *RecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.svc.Delete(r.Context(), ownerID, h.kind, id); err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	h.logger.Info("record_deleted",
		"kind", string(h.kind),
		"record_id", id,
		"user_id", ownerID,
	)

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: deletedMessage(h.kind)})
}

// deletedMessage renders e.g. "Expense deleted".
func deletedMessage(kind model.Kind) string {
	name := string(kind)
	if name == "" {
		return "Record deleted"
	}
	return strings.ToUpper(name[:1]) + name[1:] + " deleted"
}
