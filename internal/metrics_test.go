package internal

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics

	m.observeRequest(http.MethodGet, IntentView, http.StatusOK)
	m.observeCommit(nil)
	m.observeSearch(time.Millisecond)
}

func TestMetricsExposition(t *testing.T) {
	m := NewMetrics()
	m.observeCommit(nil)
	m.observeCommit(errors.New("boom"))
	m.observeSearch(5 * time.Millisecond)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	out := rr.Body.String()

	assert.Contains(t, out, `gitwiki_commits_total{result="ok"} 1`)
	assert.Contains(t, out, `gitwiki_commits_total{result="error"} 1`)
	assert.Contains(t, out, "gitwiki_search_duration_seconds_count 1")
}
