package monitoring

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.ObservePrediction("Positive", time.Millisecond, false)
	m.ObservePrediction("Positive", 0, true)
	m.ObservePrediction("Negative", time.Millisecond, false)
	m.ObserveError(ErrorKindInput)
	m.SetModelLoaded(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.predictions.WithLabelValues("Positive")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.predictions.WithLabelValues("Negative")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues(ErrorKindInput)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.modelLoaded))

	m.SetModelLoaded(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.modelLoaded))
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	m.ObservePrediction("Negative", time.Millisecond, false)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `feedback_predictions_total{label="Negative"} 1`)
	assert.Contains(t, string(body), "feedback_inference_duration_seconds_count 1")
}
