package audithandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"holidayhub/internal/domain/audit"
	"holidayhub/internal/domain/auth"
	"holidayhub/internal/transport/http/api"
	"holidayhub/internal/transport/http/middleware"
	"holidayhub/internal/transport/http/shared"
)

type Handler struct {
	Service *audit.Service
}

func NewHandler(service *audit.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireRole(auth.RoleHR)).Get("/audit", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 500)
	q := r.URL.Query()
	filter := audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entityType"),
		ActorID:    q.Get("actorId"),
	}
	events, total, err := h.Service.List(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		shared.FailError(w, err, "audit_failed", requestID)
		return
	}
	api.Success(w, page.Page(events, total), requestID)
}
