package worktime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"

	apperrors "github.com/frahmantamala/workforce-management/internal"
	"github.com/frahmantamala/workforce-management/internal/transport"
	"github.com/frahmantamala/workforce-management/pkg/logger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.L()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// entryResponse pairs a persisted entry with its validation outcome so the
// client can render warnings without a second request.
type entryResponse struct {
	Entry      *TimeEntry `json:"entry"`
	Validation *Result    `json:"validation,omitempty"`
}

func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var dto CreateTimeEntryDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := apperrors.UserIDFromContext(r.Context())
	companyID := apperrors.CompanyIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	entry, result, err := h.Service.CreateEntry(r.Context(), userID, companyID, dto)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, entryResponse{Entry: entry, Validation: result})
}

func (h *Handler) ValidateEntry(w http.ResponseWriter, r *http.Request) {
	var dto CreateTimeEntryDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := apperrors.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	result, err := h.Service.ValidateEntry(r.Context(), userID, dto)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) CloseEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid entry id")
		return
	}

	var dto CloseTimeEntryDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := apperrors.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	entry, result, err := h.Service.CloseEntry(r.Context(), userID, entryID, dto)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, entryResponse{Entry: entry, Validation: result})
}

func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	userID := apperrors.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	limit, offset := paginationParams(r)
	entries, err := h.Service.ListEntries(r.Context(), userID, limit, offset)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"limit":   limit,
		"offset":  offset,
	})
}

func (h *Handler) WeeklySummary(w http.ResponseWriter, r *http.Request) {
	userID := apperrors.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	at := time.Now()
	if raw := r.URL.Query().Get("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "at must be RFC3339")
			return
		}
		at = parsed
	}

	summary, err := h.Service.WeeklySummary(r.Context(), userID, at)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"models": h.Service.Models(),
	})
}

func (h *Handler) CreateModel(w http.ResponseWriter, r *http.Request) {
	var dto CreateModelDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	model, err := h.Service.AddModel(r.Context(), dto)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, model)
}

func (h *Handler) AssignModel(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		h.WriteError(w, http.StatusBadRequest, "missing user id")
		return
	}

	var dto AssignModelDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.AssignModel(r.Context(), userID, dto); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := apperrors.IsAppError(err); ok {
		status, body := appErr.ToHTTPResponse()
		h.WriteJSON(w, status, body)
		return
	}
	if _, ok := err.(ValidationError); ok {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.Logger.Error("worktime handler: unexpected error", "error", err)
	h.WriteError(w, http.StatusInternalServerError, "internal server error")
}

func paginationParams(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}
