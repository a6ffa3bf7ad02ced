package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holidayhub/internal/domain/leave"
)

func TestCollectorCounts(t *testing.T) {
	c := New()
	c.Record(http.MethodGet, "/api/holidays", 200, 15*time.Millisecond)
	c.Record(http.MethodGet, "/api/holidays", 200, 5*time.Millisecond)
	c.CreditMutation("adjust", nil)
	c.CreditMutation("adjust", errors.New("boom"))
	c.RequestTransition(leave.StatusApproved)
	c.SideEffect("notify", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.requestCount.WithLabelValues("200", http.MethodGet, "/api/holidays")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.creditMutations.WithLabelValues("adjust", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.creditMutations.WithLabelValues("adjust", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.transitions.WithLabelValues("approved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.sideEffects.WithLabelValues("notify", "ok")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := New()
	c.JobDone("provision_year", time.Second, nil)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "holidayhub_job_duration_seconds")
}

func TestCollectorsAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.SideEffect("calendar_request", nil)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.sideEffects.WithLabelValues("calendar_request", "ok")))
}
