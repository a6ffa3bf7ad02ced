package userhandler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"holidayhub/internal/domain/audit"
	"holidayhub/internal/domain/auth"
	"holidayhub/internal/domain/users"
	"holidayhub/internal/transport/http/api"
	"holidayhub/internal/transport/http/middleware"
	"holidayhub/internal/transport/http/shared"
)

type Handler struct {
	Service *users.Service
	Audit   *audit.Service
}

func NewHandler(service *users.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

type createPayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type rolePayload struct {
	Role string `json:"role"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleHR))
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{userID}", h.handleGet)
		r.Put("/{userID}/role", h.handleUpdateRole)
		r.Delete("/{userID}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	list, err := h.Service.List(r.Context())
	if err != nil {
		shared.FailError(w, err, "users_failed", requestID)
		return
	}
	api.Success(w, list, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	u, err := h.Service.Get(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		shared.FailError(w, err, "user_failed", requestID)
		return
	}
	api.Success(w, u, requestID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload createPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Required("email", payload.Email)
	v.Required("name", payload.Name)
	if v.Reject(w, requestID) {
		return
	}

	u, err := h.Service.Create(r.Context(), payload.Email, payload.Name, payload.Role)
	if err != nil {
		shared.FailError(w, err, "user_create_failed", requestID)
		return
	}
	h.record(r, "user.create", u.ID, nil, u)
	api.Created(w, u, requestID)
}

func (h *Handler) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	role := strings.TrimSpace(r.URL.Query().Get("role"))
	if role == "" {
		var payload rolePayload
		if !shared.DecodeJSON(w, r, &payload, requestID) {
			return
		}
		role = strings.TrimSpace(payload.Role)
	}
	id := chi.URLParam(r, "userID")
	before, err := h.Service.Get(r.Context(), id)
	if err != nil {
		shared.FailError(w, err, "user_role_failed", requestID)
		return
	}
	u, err := h.Service.UpdateRole(r.Context(), id, role)
	if err != nil {
		shared.FailError(w, err, "user_role_failed", requestID)
		return
	}
	h.record(r, "user.role", u.ID, map[string]string{"role": before.Role}, map[string]string{"role": u.Role})
	api.Success(w, u, requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "userID")
	if err := h.Service.Delete(r.Context(), user.ID, id); err != nil {
		shared.FailError(w, err, "user_delete_failed", requestID)
		return
	}
	h.record(r, "user.delete", id, nil, nil)
	api.Success(w, map[string]string{"id": id}, requestID)
}

func (h *Handler) record(r *http.Request, action, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	if err := h.Audit.Record(r.Context(), user.ID, action, audit.EntityUser, entityID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, after); err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}
}
