package leavehandler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"holidayhub/internal/domain/audit"
	"holidayhub/internal/domain/leave"
	"holidayhub/internal/platform/report"
	"holidayhub/internal/transport/http/api"
	"holidayhub/internal/transport/http/middleware"
	"holidayhub/internal/transport/http/shared"
)

type upsertPayload struct {
	UserID    string  `json:"userId"`
	Year      int     `json:"year"`
	Category  string  `json:"category"`
	TotalDays float64 `json:"totalDays"`
}

type adjustPayload struct {
	UserID     string  `json:"userId"`
	Year       int     `json:"year"`
	Category   string  `json:"category"`
	Adjustment float64 `json:"adjustment"`
	Reason     string  `json:"reason"`
}

func (h *Handler) handleListMyCredits(w http.ResponseWriter, r *http.Request) {
	h.listCredits(w, r, currentUser(r.Context()).ID)
}

func (h *Handler) handleListUserCredits(w http.ResponseWriter, r *http.Request) {
	h.listCredits(w, r, chi.URLParam(r, "userID"))
}

func (h *Handler) listCredits(w http.ResponseWriter, r *http.Request, userID string) {
	requestID := middleware.GetRequestID(r.Context())
	year, err := shared.QueryInt(r, "year")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_query", err.Error(), requestID)
		return
	}
	credits, err := h.Service.ListCreditsForUser(r.Context(), userID, year)
	if err != nil {
		shared.FailError(w, err, "credits_failed", requestID)
		return
	}
	api.Success(w, credits, requestID)
}

func (h *Handler) handleListAllCredits(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	credits, err := h.Service.ListAllCredits(r.Context())
	if err != nil {
		shared.FailError(w, err, "credits_failed", requestID)
		return
	}
	api.Success(w, credits, requestID)
}

func (h *Handler) handleUpsertCredit(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload upsertPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	if payload.Category == "" {
		payload.Category = leave.CategoryPaidHoliday
	}
	v := shared.NewValidator()
	v.Required("userId", payload.UserID)
	v.Year("year", payload.Year)
	if payload.TotalDays < 0 {
		v.Add("totalDays", "must not be negative")
	}
	if v.Reject(w, requestID) {
		return
	}

	credit, err := h.Service.Upsert(r.Context(), payload.UserID, payload.Year, payload.Category, payload.TotalDays)
	if err != nil {
		shared.FailError(w, err, "credit_upsert_failed", requestID)
		return
	}
	h.record(r, "credit.upsert", audit.EntityCredit, credit.ID, nil, credit)
	api.Success(w, credit, requestID)
}

func (h *Handler) handleAdjustCredit(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload adjustPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Required("userId", payload.UserID)
	v.Required("category", payload.Category)
	v.Year("year", payload.Year)
	if v.Reject(w, requestID) {
		return
	}

	key := leave.CreditKey{UserID: payload.UserID, Year: payload.Year, Category: payload.Category}
	result, err := h.Service.Adjust(r.Context(), key, payload.Adjustment, payload.Reason)
	if err != nil {
		shared.FailError(w, err, "credit_adjust_failed", requestID)
		return
	}
	h.record(r, "credit.adjust", audit.EntityCredit, key.String(), payload, result)
	api.Success(w, result, requestID)
}

func (h *Handler) handleMyStatement(w http.ResponseWriter, r *http.Request) {
	h.statement(w, r, person(currentUser(r.Context())))
}

func (h *Handler) handleUserStatement(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	p, err := h.Service.Directory.Person(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		shared.FailError(w, err, "statement_failed", requestID)
		return
	}
	h.statement(w, r, p)
}

func (h *Handler) statement(w http.ResponseWriter, r *http.Request, p leave.Person) {
	requestID := middleware.GetRequestID(r.Context())
	year, err := shared.QueryInt(r, "year")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_query", err.Error(), requestID)
		return
	}
	credits, err := h.Service.ListCreditsForUser(r.Context(), p.ID, year)
	if err != nil {
		shared.FailError(w, err, "statement_failed", requestID)
		return
	}
	var buf bytes.Buffer
	if err := report.CreditStatement(&buf, p, credits, h.now()); err != nil {
		shared.FailError(w, err, "statement_failed", requestID)
		return
	}
	name := "credits"
	if year != nil {
		name += "-" + strconv.Itoa(*year)
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".pdf"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
