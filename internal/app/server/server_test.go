package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holidayhub/internal/domain/auth"
	"holidayhub/internal/domain/leave"
	"holidayhub/internal/domain/users"
	"holidayhub/internal/platform/config"
	"holidayhub/internal/platform/store/memory"
)

const testSecret = "journey-secret"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	RequestID string `json:"requestId"`
}

type testApp struct {
	*App
	hrToken  string
	empToken string
	hr       users.User
	emp      users.User
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := config.Defaults()
	cfg.StoreDriver = config.StoreMemory
	cfg.JWTSecret = testSecret
	cfg.JobWorkers = 1

	app, err := Build(cfg, memory.New(), nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		app.Jobs.Wait()
		cancel()
	})
	require.NoError(t, app.Start(ctx))

	hr, err := app.Users.Create(context.Background(), "hr@example.com", "Hannah HR", auth.RoleHR)
	require.NoError(t, err)
	emp, err := app.Users.Create(context.Background(), "ann@example.com", "Ann Employee", auth.RoleEmployee)
	require.NoError(t, err)

	ta := &testApp{App: app, hr: hr, emp: emp}
	ta.hrToken = token(t, hr.ID, time.Hour)
	ta.empToken = token(t, emp.ID, time.Hour)
	return ta
}

func token(t *testing.T, userID string, ttl time.Duration) string {
	t.Helper()
	tok, err := auth.GenerateToken(testSecret, userID, ttl)
	require.NoError(t, err)
	return tok
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestHolidayRequestJourney(t *testing.T) {
	a := newTestApp(t)
	year := time.Now().UTC().Year()

	rec, env := a.do(t, http.MethodPost, "/api/requests", a.empToken, map[string]any{
		"category":  "paid_holiday",
		"startDate": "2025-07-01",
		"endDate":   "2025-07-03",
		"days":      3,
		"reason":    "Summer",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	submitted := decode[leave.Request](t, env)
	assert.Equal(t, leave.StatusPending, submitted.Status)
	assert.Equal(t, "Paid Holiday", submitted.CategoryName)

	rec, env = a.do(t, http.MethodGet, "/api/requests/pending", a.empToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", env.Error.Code)

	rec, env = a.do(t, http.MethodGet, "/api/requests/pending", a.hrToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]leave.Request](t, env), 1)

	rec, env = a.do(t, http.MethodPut, "/api/requests/"+submitted.ID+"/approve?hr_comment=enjoy", a.hrToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	approved := decode[leave.Request](t, env)
	assert.Equal(t, leave.StatusApproved, approved.Status)
	assert.Equal(t, "enjoy", approved.Comment)
	assert.Equal(t, a.hr.ID, approved.ProcessedBy)

	rec, env = a.do(t, http.MethodPut, "/api/requests/"+submitted.ID+"/reject", a.hrToken, map[string]string{"comment": "late"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_processed", env.Error.Code)

	rec, env = a.do(t, http.MethodGet, "/api/credits/my?year="+strconv.Itoa(year), a.empToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var paid leave.Credit
	for _, c := range decode[[]leave.Credit](t, env) {
		if c.Category == leave.CategoryPaidHoliday {
			paid = c
		}
	}
	assert.Equal(t, 35.0, paid.TotalDays)
	assert.Equal(t, 3.0, paid.UsedDays)
	assert.Equal(t, 32.0, paid.RemainingDays)

	rec, env = a.do(t, http.MethodPost, "/api/requests", a.empToken, map[string]any{
		"startDate": "2025-08-01",
		"endDate":   "2025-09-30",
		"days":      40,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "insufficient_balance", env.Error.Code)
	assert.Contains(t, env.Error.Message, "available 32 days")

	rec, env = a.do(t, http.MethodGet, "/api/requests/my", a.empToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]leave.Request](t, env), 1)
}

func TestSubmitValidation(t *testing.T) {
	a := newTestApp(t)

	rec, env := a.do(t, http.MethodPost, "/api/requests", a.empToken, map[string]any{
		"startDate": "2025-07-05",
		"endDate":   "2025-07-01",
		"days":      0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", env.Error.Code)

	rec, env = a.do(t, http.MethodPost, "/api/requests", a.empToken, map[string]any{
		"category":  "sabbatical",
		"startDate": "2025-07-01",
		"endDate":   "2025-07-01",
		"days":      1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_category", env.Error.Code)

	rec, env = a.do(t, http.MethodPost, "/api/requests", a.empToken, map[string]any{
		"category":  "unpaid_leave",
		"startDate": "2025-07-01",
		"endDate":   "2025-07-01",
		"days":      1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "insufficient_balance", env.Error.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/requests", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+a.empToken)
	raw := httptest.NewRecorder()
	a.Router.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestAuthentication(t *testing.T) {
	a := newTestApp(t)

	rec, env := a.do(t, http.MethodGet, "/api/requests/my", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", env.Error.Code)
	assert.NotEmpty(t, env.RequestID)

	rec, env = a.do(t, http.MethodGet, "/api/auth/me", token(t, a.emp.ID, -time.Minute), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "session_expired", env.Error.Code)

	rec, env = a.do(t, http.MethodGet, "/api/auth/me", token(t, "ghost", time.Hour), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", env.Error.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: a.empToken})
	cookieRec := httptest.NewRecorder()
	a.Router.ServeHTTP(cookieRec, req)
	require.Equal(t, http.StatusOK, cookieRec.Code)
	var me envelope
	require.NoError(t, json.Unmarshal(cookieRec.Body.Bytes(), &me))
	identity := decode[auth.Identity](t, me)
	assert.Equal(t, "ann@example.com", identity.Email)
	assert.Equal(t, auth.RoleEmployee, identity.Role)

	rec, _ = a.do(t, http.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "session_token=")
}

func TestCreditManagement(t *testing.T) {
	a := newTestApp(t)
	year := time.Now().UTC().Year()

	rec, env := a.do(t, http.MethodPost, "/api/credits", a.hrToken, map[string]any{
		"userId":    a.emp.ID,
		"year":      year,
		"category":  "sick_leave",
		"totalDays": 8,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 8.0, decode[leave.Credit](t, env).RemainingDays)

	rec, env = a.do(t, http.MethodPost, "/api/credits", a.hrToken, map[string]any{
		"userId": "nobody", "year": year, "category": "sick_leave", "totalDays": 8,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", env.Error.Code)

	rec, env = a.do(t, http.MethodPut, "/api/credits/adjust", a.hrToken, map[string]any{
		"userId": a.emp.ID, "year": year, "category": "sick_leave", "adjustment": -20, "reason": "typo",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "adjustment_exceeds_balance", env.Error.Code)

	rec, env = a.do(t, http.MethodPut, "/api/credits/adjust", a.hrToken, map[string]any{
		"userId": a.emp.ID, "year": year, "category": "sick_leave", "adjustment": 2, "reason": "bonus",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[leave.AdjustResult](t, env)
	assert.Equal(t, 10.0, result.TotalDays)
	assert.Equal(t, 10.0, result.RemainingDays)

	rec, env = a.do(t, http.MethodPut, "/api/credits/adjust", a.hrToken, map[string]any{
		"userId": a.emp.ID, "year": year - 5, "category": "sick_leave", "adjustment": 2,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no_credit_record", env.Error.Code)

	rec, env = a.do(t, http.MethodGet, "/api/credits/all", a.hrToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]leave.Credit](t, env), 2*len(leave.Categories()))

	rec, env = a.do(t, http.MethodGet, "/api/audit?entityType=credit", a.hrToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[struct {
		Total int `json:"total"`
	}](t, env)
	assert.Equal(t, 2, page.Total)
}

func TestStatementPDF(t *testing.T) {
	a := newTestApp(t)

	rec, _ := a.do(t, http.MethodGet, "/api/credits/my/statement.pdf", a.empToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))

	rec, _ = a.do(t, http.MethodGet, "/api/credits/user/"+a.emp.ID+"/statement.pdf", a.empToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = a.do(t, http.MethodGet, "/api/credits/user/missing/statement.pdf", a.hrToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHolidaysAndCalendar(t *testing.T) {
	a := newTestApp(t)

	rec, env := a.do(t, http.MethodPost, "/api/public-holidays", a.hrToken, map[string]any{
		"name": "Christmas Day", "date": "2025-12-25",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	holiday := decode[leave.Holiday](t, env)
	assert.Equal(t, 2025, holiday.Year)

	rec, env = a.do(t, http.MethodGet, "/api/public-holidays?year=2025", a.empToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]leave.Holiday](t, env), 1)

	rec, env = a.do(t, http.MethodGet, "/api/calendar/events?year=2025&month=12", a.empToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	events := decode[[]leave.FeedEvent](t, env)
	require.Len(t, events, 1)
	assert.Equal(t, leave.FeedTypePublicHoliday, events[0].Type)

	rec, env = a.do(t, http.MethodGet, "/api/calendar/events?year=2025&month=13", a.empToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", env.Error.Code)

	rec, _ = a.do(t, http.MethodDelete, "/api/public-holidays/"+holiday.ID, a.empToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = a.do(t, http.MethodDelete, "/api/public-holidays/"+holiday.ID, a.hrToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = a.do(t, http.MethodDelete, "/api/public-holidays/"+holiday.ID, a.hrToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", env.Error.Code)
}

func TestUserAdministration(t *testing.T) {
	a := newTestApp(t)

	rec, env := a.do(t, http.MethodPost, "/api/users", a.hrToken, map[string]string{
		"email": "Bob@Example.com", "name": "Bob",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bob := decode[users.User](t, env)
	assert.Equal(t, "bob@example.com", bob.Email)
	assert.Equal(t, auth.RoleEmployee, bob.Role)

	rec, env = a.do(t, http.MethodPost, "/api/users", a.hrToken, map[string]string{
		"email": "bob@example.com", "name": "Bobby",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "email_exists", env.Error.Code)

	rec, env = a.do(t, http.MethodPut, "/api/users/"+bob.ID+"/role?role=hr", a.hrToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, auth.RoleHR, decode[users.User](t, env).Role)

	rec, env = a.do(t, http.MethodPut, "/api/users/"+bob.ID+"/role", a.hrToken, map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_role", env.Error.Code)

	rec, env = a.do(t, http.MethodDelete, "/api/users/"+a.hr.ID, a.hrToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "self_delete", env.Error.Code)

	rec, _ = a.do(t, http.MethodDelete, "/api/users/"+bob.ID, a.hrToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = a.do(t, http.MethodGet, "/api/users", a.hrToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]users.User](t, env), 2)
}

func TestSettingsEndpoints(t *testing.T) {
	a := newTestApp(t)

	rec, env := a.do(t, http.MethodGet, "/api/settings", a.hrToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `true`, string(mustField(t, env.Data, "emailNotificationsEnabled")))
	assert.JSONEq(t, `false`, string(mustField(t, env.Data, "googleConnected")))

	rec, env = a.do(t, http.MethodPut, "/api/settings", a.hrToken, map[string]bool{"calendarSyncEnabled": false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `false`, string(mustField(t, env.Data, "calendarSyncEnabled")))
	assert.False(t, a.Settings.Current().CalendarSyncEnabled)

	rec, env = a.do(t, http.MethodPut, "/api/settings/google", a.hrToken, map[string]any{
		"accessToken": "a", "refreshToken": "r", "expiry": time.Now().Add(time.Hour),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `true`, string(mustField(t, env.Data, "googleConnected")))
	assert.NotContains(t, rec.Body.String(), `"r"`)

	rec, env = a.do(t, http.MethodPost, "/api/oauth/google/disconnect", a.hrToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `false`, string(mustField(t, env.Data, "googleConnected")))

	rec, _ = a.do(t, http.MethodGet, "/api/settings", a.empToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func mustField(t *testing.T, raw json.RawMessage, key string) json.RawMessage {
	t.Helper()
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))
	v, ok := fields[key]
	require.True(t, ok, "missing field %s", key)
	return v
}

func TestOpsEndpoints(t *testing.T) {
	a := newTestApp(t)

	for _, path := range []string{"/healthz", "/readyz", "/api/health"} {
		rec := httptest.NewRecorder()
		a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec, env := a.do(t, http.MethodGet, "/api/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]leave.Category](t, env), 5)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	metricsRec := httptest.NewRecorder()
	a.Router.ServeHTTP(metricsRec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, metricsRec.Code)
	assert.Contains(t, metricsRec.Body.String(), `holidayhub_http_requests_total{code="200",method="GET",route="/api/categories"}`)
}
