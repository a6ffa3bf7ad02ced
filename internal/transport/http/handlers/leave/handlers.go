package leavehandler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"holidayhub/internal/domain/audit"
	"holidayhub/internal/domain/auth"
	"holidayhub/internal/domain/leave"
	"holidayhub/internal/transport/http/api"
	"holidayhub/internal/transport/http/middleware"
	"holidayhub/internal/transport/http/shared"
)

type Handler struct {
	Service *leave.Service
	Audit   *audit.Service
	Now     func() time.Time
}

func NewHandler(service *leave.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/categories", h.handleListCategories)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/requests", h.handleSubmitRequest)
		r.Get("/requests/my", h.handleListMyRequests)
		r.Get("/requests/{requestID}", h.handleGetRequest)
		r.Get("/credits/my", h.handleListMyCredits)
		r.Get("/credits/my/statement.pdf", h.handleMyStatement)
		r.Get("/public-holidays", h.handleListHolidays)
		r.Get("/calendar/events", h.handleCalendarEvents)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleHR))
		r.Get("/requests/all", h.handleListAllRequests)
		r.Get("/requests/pending", h.handleListPendingRequests)
		r.Put("/requests/{requestID}/approve", h.handleApproveRequest)
		r.Put("/requests/{requestID}/reject", h.handleRejectRequest)
		r.Get("/credits/all", h.handleListAllCredits)
		r.Get("/credits/user/{userID}", h.handleListUserCredits)
		r.Get("/credits/user/{userID}/statement.pdf", h.handleUserStatement)
		r.Post("/credits", h.handleUpsertCredit)
		r.Put("/credits/adjust", h.handleAdjustCredit)
		r.Post("/public-holidays", h.handleCreateHoliday)
		r.Delete("/public-holidays/{holidayID}", h.handleDeleteHoliday)
	})
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now().UTC()
	}
	return h.Now().UTC()
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	api.Success(w, leave.Categories(), middleware.GetRequestID(r.Context()))
}

func person(user auth.Identity) leave.Person {
	return leave.Person{ID: user.ID, Name: user.Name, Email: user.Email}
}

// currentUser is only called behind RequireAuth or RequireRole.
func currentUser(ctx context.Context) auth.Identity {
	user, _ := middleware.GetUser(ctx)
	return user
}

func (h *Handler) record(r *http.Request, action, entityType, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	user := currentUser(r.Context())
	if err := h.Audit.Record(r.Context(), user.ID, action, entityType, entityID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, after); err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}
}
