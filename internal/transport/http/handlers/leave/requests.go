package leavehandler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"holidayhub/internal/domain/audit"
	"holidayhub/internal/domain/leave"
	"holidayhub/internal/transport/http/api"
	"holidayhub/internal/transport/http/middleware"
	"holidayhub/internal/transport/http/shared"
)

type submitPayload struct {
	Category  string  `json:"category"`
	StartDate string  `json:"startDate"`
	EndDate   string  `json:"endDate"`
	Days      float64 `json:"days"`
	Reason    string  `json:"reason"`
}

type decisionPayload struct {
	Comment string `json:"comment"`
}

func (h *Handler) handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload submitPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	if payload.Category == "" {
		payload.Category = leave.CategoryPaidHoliday
	}

	v := shared.NewValidator()
	start := v.Date("startDate", payload.StartDate)
	end := v.Date("endDate", payload.EndDate)
	v.DateOrder("startDate", start, "endDate", end)
	v.Positive("days", payload.Days)
	if v.Reject(w, requestID) {
		return
	}

	req, err := h.Service.Submit(r.Context(), person(currentUser(r.Context())), leave.SubmitInput{
		Category:  payload.Category,
		StartDate: start,
		EndDate:   end,
		Days:      payload.Days,
		Reason:    payload.Reason,
	})
	if err != nil {
		shared.FailError(w, err, "request_submit_failed", requestID)
		return
	}
	api.Created(w, req, requestID)
}

func (h *Handler) handleListMyRequests(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	reqs, err := h.Service.ListRequestsForUser(r.Context(), currentUser(r.Context()).ID)
	if err != nil {
		shared.FailError(w, err, "requests_failed", requestID)
		return
	}
	api.Success(w, reqs, requestID)
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	req, err := h.Service.GetRequest(r.Context(), chi.URLParam(r, "requestID"))
	if err != nil {
		shared.FailError(w, err, "request_failed", requestID)
		return
	}
	user := currentUser(r.Context())
	if !user.IsHR() && req.UserID != user.ID {
		// Other people's requests are reported as missing.
		api.Fail(w, http.StatusNotFound, "not_found", "request not found", requestID)
		return
	}
	api.Success(w, req, requestID)
}

func (h *Handler) handleListAllRequests(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	reqs, err := h.Service.ListAllRequests(r.Context())
	if err != nil {
		shared.FailError(w, err, "requests_failed", requestID)
		return
	}
	api.Success(w, reqs, requestID)
}

func (h *Handler) handleListPendingRequests(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	reqs, err := h.Service.ListPendingRequests(r.Context())
	if err != nil {
		shared.FailError(w, err, "requests_failed", requestID)
		return
	}
	api.Success(w, reqs, requestID)
}

func (h *Handler) handleApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, leave.StatusApproved)
}

func (h *Handler) handleRejectRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, leave.StatusRejected)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, status leave.Status) {
	requestID := middleware.GetRequestID(r.Context())
	comment, ok := decisionComment(w, r, requestID)
	if !ok {
		return
	}
	id := chi.URLParam(r, "requestID")
	reviewer := person(currentUser(r.Context()))

	var (
		req    leave.Request
		err    error
		action string
	)
	if status == leave.StatusApproved {
		req, err = h.Service.Approve(r.Context(), reviewer, id, comment)
		action = "request.approve"
	} else {
		req, err = h.Service.Reject(r.Context(), reviewer, id, comment)
		action = "request.reject"
	}
	if err != nil {
		shared.FailError(w, err, "request_decision_failed", requestID)
		return
	}
	h.record(r, action, audit.EntityRequest, req.ID, map[string]any{"status": leave.StatusPending}, req)
	api.Success(w, req, requestID)
}

// decisionComment reads hr_comment from the query, falling back to an
// optional JSON body.
func decisionComment(w http.ResponseWriter, r *http.Request, requestID string) (string, bool) {
	if c := strings.TrimSpace(r.URL.Query().Get("hr_comment")); c != "" {
		return c, true
	}
	var payload decisionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestID)
			return "", false
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return "", false
	}
	return strings.TrimSpace(payload.Comment), true
}
