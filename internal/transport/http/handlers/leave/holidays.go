package leavehandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"holidayhub/internal/domain/audit"
	"holidayhub/internal/transport/http/api"
	"holidayhub/internal/transport/http/middleware"
	"holidayhub/internal/transport/http/shared"
)

type holidayPayload struct {
	Name string `json:"name"`
	Date string `json:"date"`
	Year int    `json:"year"`
}

func (h *Handler) handleListHolidays(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	year, err := shared.QueryInt(r, "year")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_query", err.Error(), requestID)
		return
	}
	holidays, err := h.Service.ListHolidays(r.Context(), year)
	if err != nil {
		shared.FailError(w, err, "holidays_failed", requestID)
		return
	}
	api.Success(w, holidays, requestID)
}

func (h *Handler) handleCreateHoliday(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload holidayPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name)
	date := v.Date("date", payload.Date)
	if payload.Year != 0 {
		v.Year("year", payload.Year)
	}
	if v.Reject(w, requestID) {
		return
	}

	holiday, err := h.Service.CreateHoliday(r.Context(), payload.Name, date, payload.Year)
	if err != nil {
		shared.FailError(w, err, "holiday_create_failed", requestID)
		return
	}
	h.record(r, "holiday.create", audit.EntityHoliday, holiday.ID, nil, holiday)
	api.Created(w, holiday, requestID)
}

func (h *Handler) handleDeleteHoliday(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "holidayID")
	if err := h.Service.DeleteHoliday(r.Context(), id); err != nil {
		shared.FailError(w, err, "holiday_delete_failed", requestID)
		return
	}
	h.record(r, "holiday.delete", audit.EntityHoliday, id, nil, nil)
	api.Success(w, map[string]string{"id": id}, requestID)
}

func (h *Handler) handleCalendarEvents(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	year, err := shared.QueryInt(r, "year")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_query", err.Error(), requestID)
		return
	}
	month, err := shared.QueryInt(r, "month")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_query", err.Error(), requestID)
		return
	}
	now := h.now()
	y, m := now.Year(), int(now.Month())
	if year != nil {
		y = *year
	}
	if month != nil {
		m = *month
	}
	events, err := h.Service.CalendarEvents(r.Context(), y, m)
	if err != nil {
		shared.FailError(w, err, "calendar_failed", requestID)
		return
	}
	api.Success(w, events, requestID)
}
