package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveTask(t *testing.T) {
	m := New()

	m.ObserveTask("styles", 20*time.Millisecond, nil)
	m.ObserveTask("styles", 30*time.Millisecond, errors.New("boom"))
	m.ObserveIntercepted("styles")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TaskFailures.WithLabelValues("styles")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Intercepted.WithLabelValues("styles")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.TaskDuration))
}

func TestCounters(t *testing.T) {
	m := New()
	m.CacheHit()
	m.CacheHit()
	m.CacheMiss()
	m.WatchEvent()
	m.Reload("full_reload")
	m.SetClients(3)
	m.FileWritten("fonts")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMisses))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WatchEvents))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reloads.WithLabelValues("full_reload")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ReloadClients))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesWritten.WithLabelValues("fonts")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTask("x", time.Second, nil)
		m.CacheHit()
		m.Reload("css_update")
		m.SetClients(1)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveTask("fonts", time.Millisecond, nil)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `assetforge_task_duration_seconds_count{task="fonts"} 1`)
}
