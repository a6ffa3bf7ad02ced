package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holidayhub/internal/domain/auth"
	"holidayhub/internal/domain/leave"
	"holidayhub/internal/domain/users"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-07-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2025-07-01T18:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = ParseDate("01/07/2025")
	assert.Error(t, err)
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?year=2025&month=x", nil)
	year, err := QueryInt(r, "year")
	require.NoError(t, err)
	require.NotNil(t, year)
	assert.Equal(t, 2025, *year)

	_, err = QueryInt(r, "month")
	assert.Error(t, err)

	missing, err := QueryInt(r, "day")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestParsePagination(t *testing.T) {
	p := ParsePagination(httptest.NewRequest(http.MethodGet, "/?limit=1000&offset=20", nil), 50, 500)
	assert.Equal(t, Pagination{Limit: 500, Offset: 20}, p)

	p = ParsePagination(httptest.NewRequest(http.MethodGet, "/?limit=-1&offset=-5", nil), 50, 500)
	assert.Equal(t, Pagination{Limit: 50}, p)
}

func TestValidator(t *testing.T) {
	v := NewValidator()
	v.Required("name", " ")
	start := v.Date("startDate", "2025-07-05")
	end := v.Date("endDate", "2025-07-01")
	v.DateOrder("startDate", start, "endDate", end)
	v.Positive("days", 0)
	v.Year("year", 25)

	issues := v.Issues()
	require.Len(t, issues, 5)
	assert.Equal(t, "days", issues[0].Field)

	rec := httptest.NewRecorder()
	assert.True(t, v.Reject(rec, "req-1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"validation_error"`)

	assert.False(t, NewValidator().Reject(httptest.NewRecorder(), ""))
}

func TestDecodeJSON(t *testing.T) {
	var dst map[string]any
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`))
	assert.True(t, DecodeJSON(rec, r, &dst, ""))

	rec = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	assert.False(t, DecodeJSON(rec, r, &dst, ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":"`+strings.Repeat("x", 100)+`"}`))
	r.Body = http.MaxBytesReader(rec, r.Body, 10)
	assert.False(t, DecodeJSON(rec, r, &dst, ""))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", ClientIP(r))

	r.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", ClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.3")
	assert.Equal(t, "203.0.113.9", ClientIP(r))
}

func TestFailErrorMapping(t *testing.T) {
	key := leave.CreditKey{UserID: "u1", Year: 2025, Category: leave.CategoryPaidHoliday}
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{&leave.InsufficientBalanceError{Key: key, Available: 2, Requested: 3}, http.StatusBadRequest, "insufficient_balance"},
		{&leave.AdjustmentExceedsBalanceError{Key: key, Remaining: 2, Delta: -3}, http.StatusBadRequest, "adjustment_exceeds_balance"},
		{leave.ErrInvalidCategory, http.StatusBadRequest, "invalid_category"},
		{fmt.Errorf("%w for Paid Holiday", leave.ErrNoCreditRecord), http.StatusBadRequest, "no_credit_record"},
		{leave.ErrAlreadyProcessed, http.StatusConflict, "already_processed"},
		{users.ErrNotFound, http.StatusNotFound, "not_found"},
		{users.ErrEmailExists, http.StatusConflict, "email_exists"},
		{auth.ErrSessionExpired, http.StatusUnauthorized, "session_expired"},
		{auth.ErrForbidden, http.StatusForbidden, "forbidden"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "op_failed"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		FailError(rec, tc.err, "op_failed", "req-1")
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())

		var body struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, tc.code, body.Error.Code)
		if tc.status == http.StatusInternalServerError {
			assert.NotContains(t, body.Error.Message, "disk")
		}
	}
}
