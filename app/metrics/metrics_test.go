package metrics

import (
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRun(t *testing.T) {
	m := New()

	m.ObserveRun(RunObservation{
		Status:    "succeeded",
		Listed:    3,
		Selected:  2,
		Reported:  1,
		Failed:    1,
		Watermark: 103,
		Duration:  2 * time.Second,
	})
	m.ObserveRun(RunObservation{Status: "failed", Watermark: 0})

	assert.Equal(t, float64(1), testutil.ToFloat64(m.runsTotal.WithLabelValues("succeeded")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.runsTotal.WithLabelValues("failed")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.memosListed))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.memosSelected))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.memosReported))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.memosFailed))
	// A failed run leaves the last good watermark in place.
	assert.Equal(t, float64(103), testutil.ToFloat64(m.watermark))
}

func TestNotificationFailed(t *testing.T) {
	m := New()
	m.NotificationFailed("slack")
	m.NotificationFailed("slack")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.notificationFailures.WithLabelValues("slack")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveRun(RunObservation{Status: "succeeded", Listed: 5, Watermark: 7})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "memo_comb_memos_listed_total 5")
	assert.Contains(t, string(body), "memo_comb_watermark 7")
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveRun(RunObservation{Status: "succeeded", Reported: 2})

	path := filepath.Join(t.TempDir(), "memo_comb.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `memo_comb_runs_total{status="succeeded"} 1`)
	assert.Contains(t, string(data), "memo_comb_memos_reported_total 2")
}
