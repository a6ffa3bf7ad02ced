package settingshandler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"holidayhub/internal/domain/audit"
	"holidayhub/internal/domain/auth"
	"holidayhub/internal/domain/settings"
	"holidayhub/internal/transport/http/api"
	"holidayhub/internal/transport/http/middleware"
	"holidayhub/internal/transport/http/shared"
)

type Handler struct {
	Service *settings.Service
	Audit   *audit.Service
}

func NewHandler(service *settings.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

type view struct {
	EmailNotificationsEnabled bool      `json:"emailNotificationsEnabled"`
	CalendarSyncEnabled       bool      `json:"calendarSyncEnabled"`
	GoogleConnected           bool      `json:"googleConnected"`
	UpdatedAt                 time.Time `json:"updatedAt"`
}

type updatePayload struct {
	EmailNotificationsEnabled *bool `json:"emailNotificationsEnabled"`
	CalendarSyncEnabled       *bool `json:"calendarSyncEnabled"`
}

type tokenPayload struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	TokenType    string    `json:"tokenType"`
	Expiry       time.Time `json:"expiry"`
}

func toView(s settings.Settings) view {
	return view{
		EmailNotificationsEnabled: s.EmailNotificationsEnabled,
		CalendarSyncEnabled:       s.CalendarSyncEnabled,
		GoogleConnected:           s.GoogleConnected(),
		UpdatedAt:                 s.UpdatedAt,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleHR))
		r.Get("/settings", h.handleGet)
		r.Put("/settings", h.handleUpdate)
		r.Put("/settings/google", h.handleInstallToken)
		r.Post("/oauth/google/disconnect", h.handleDisconnect)
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	api.Success(w, toView(h.Service.Current()), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload updatePayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	before := toView(h.Service.Current())
	updated, err := h.Service.Update(r.Context(), settings.Patch{
		EmailNotificationsEnabled: payload.EmailNotificationsEnabled,
		CalendarSyncEnabled:       payload.CalendarSyncEnabled,
	})
	if err != nil {
		shared.FailError(w, err, "settings_update_failed", requestID)
		return
	}
	after := toView(updated)
	h.record(r, "settings.update", before, after)
	api.Success(w, after, requestID)
}

func (h *Handler) handleInstallToken(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload tokenPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	if payload.AccessToken == "" && payload.RefreshToken == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_token", "accessToken or refreshToken is required", requestID)
		return
	}
	updated, err := h.Service.SaveGoogleToken(r.Context(), settings.GoogleToken{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		TokenType:    payload.TokenType,
		Expiry:       payload.Expiry,
	})
	if err != nil {
		shared.FailError(w, err, "google_connect_failed", requestID)
		return
	}
	h.record(r, "settings.google.connect", nil, map[string]bool{"googleConnected": true})
	api.Success(w, toView(updated), requestID)
}

func (h *Handler) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	updated, err := h.Service.DisconnectGoogle(r.Context())
	if err != nil {
		shared.FailError(w, err, "google_disconnect_failed", requestID)
		return
	}
	h.record(r, "settings.google.disconnect", nil, map[string]bool{"googleConnected": false})
	api.Success(w, toView(updated), requestID)
}

func (h *Handler) record(r *http.Request, action string, before, after any) {
	if h.Audit == nil {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	if err := h.Audit.Record(r.Context(), user.ID, action, audit.EntitySettings, "app", middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, after); err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}
}
