package authhandler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"holidayhub/internal/transport/http/api"
	"holidayhub/internal/transport/http/middleware"
)

type Handler struct {
	SecureCookies bool
}

func NewHandler(secureCookies bool) *Handler {
	return &Handler{SecureCookies: secureCookies}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAuth).Get("/auth/me", h.handleMe)
	r.Post("/auth/logout", h.handleLogout)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	api.Success(w, user, middleware.GetRequestID(r.Context()))
}

// handleLogout clears the session cookie. Tokens are stateless and simply
// expire.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	api.Success(w, map[string]string{"message": "logged out"}, middleware.GetRequestID(r.Context()))
}
