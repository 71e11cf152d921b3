package tenant

import (
	"encoding/json"
	"log/slog"
	"net/http"

	apperrors "github.com/frahmantamala/workforce-management/internal"
	"github.com/frahmantamala/workforce-management/internal/transport"
	"github.com/frahmantamala/workforce-management/pkg/logger"
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

// GetContext resolves the effective tenant for the caller's token. Always
// succeeds: an unusable token resolves to the unscoped, unprivileged context.
func (h *Handler) GetContext(w http.ResponseWriter, r *http.Request) {
	token := h.ExtractTokenFromHeader(r)
	resolved := h.Service.ResolveForToken(r.Context(), token)
	h.WriteJSON(w, http.StatusOK, resolved.ToResponse())
}

// GetContextAudit returns the diagnostics snapshot of the resolution.
func (h *Handler) GetContextAudit(w http.ResponseWriter, r *http.Request) {
	token := h.ExtractTokenFromHeader(r)
	audit := h.Service.AuditForToken(r.Context(), token)
	h.WriteJSON(w, http.StatusOK, audit)
}

func (h *Handler) StartImpersonation(w http.ResponseWriter, r *http.Request) {
	var dto ImpersonateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token := h.ExtractTokenFromHeader(r)
	session, err := h.Service.StartImpersonation(r.Context(), token, dto)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, session)
}

func (h *Handler) StopImpersonation(w http.ResponseWriter, r *http.Request) {
	token := h.ExtractTokenFromHeader(r)
	if err := h.Service.StopImpersonation(r.Context(), token); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) StartTenantSession(w http.ResponseWriter, r *http.Request) {
	var dto TenantSessionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token := h.ExtractTokenFromHeader(r)
	session, err := h.Service.StartTenantSession(r.Context(), token, dto)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, session)
}

func (h *Handler) StopTenantSession(w http.ResponseWriter, r *http.Request) {
	token := h.ExtractTokenFromHeader(r)
	if err := h.Service.StopTenantSession(r.Context(), token); err != nil {
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
	h.Logger.Error("tenant handler: unexpected error", "error", err)
	h.WriteError(w, http.StatusInternalServerError, "internal server error")
}
