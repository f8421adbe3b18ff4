package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCounters(t *testing.T) {
	m := New()

	m.SessionIssued()
	m.SessionIssued()
	m.SessionsRevokedAdd(3)
	m.SessionsRevokedAdd(0)
	m.SessionsExpiredAdd(-1)
	m.SessionsExpiredAdd(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SessionsIssued))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SessionsRevoked))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SessionsExpired))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.SessionIssued()
		m.SessionsRevokedAdd(1)
		m.SessionsExpiredAdd(1)
		m.ObserveRequest(http.MethodGet, "/notes", http.StatusOK, 0.01)
	})
}

func TestHandlerExposesRequestMetrics(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/notes", http.StatusOK, 0.02)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/notes", "200")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "notes_http_requests_total"))
	assert.True(t, strings.Contains(body, "notes_sessions_issued_total"))
}
