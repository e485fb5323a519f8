package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"feedbacksense/db"
	"feedbacksense/inference"
	"feedbacksense/ml"
	"feedbacksense/monitoring"
)

const exampleBody = `{"Age":25,"Gender":"Female","Marital Status":"Single","Occupation":"Student",
"Monthly Income":"No Income","Educational Qualifications":"Graduate","Family size":3,
"latitude":12.977,"longitude":77.5773,"Pin code":560009,"Output":"Yes"}`

// recordingPredictor decodes like the real service and remembers the
// last record it saw.
type recordingPredictor struct {
	label string
	last  ml.FeatureRecord
}

func (p *recordingPredictor) Predict(_ context.Context, rec ml.FeatureRecord) (inference.Prediction, error) {
	p.last = rec
	return inference.Prediction{Label: p.label}, nil
}

func (p *recordingPredictor) PredictJSON(ctx context.Context, body io.Reader) (inference.Prediction, error) {
	rec, err := ml.DecodeRecord(body)
	if err != nil {
		return inference.Prediction{}, &inference.InputError{Err: err}
	}
	return p.Predict(ctx, rec)
}

func (p *recordingPredictor) Info() inference.ModelInfo {
	return inference.ModelInfo{Loaded: true}
}

func (p *recordingPredictor) Ready() bool { return true }

func loadedService() *inference.Service {
	return inference.FromLoader(ml.NewArtifactLoader(filepath.Join("..", "models"), "", ""))
}

func degradedService(t *testing.T) *inference.Service {
	return inference.FromLoader(ml.NewArtifactLoader(t.TempDir(), "", ""))
}

func newTestHandler(predictor inference.Predictor) http.Handler {
	config := DefaultServerConfig()
	api := NewAPI(predictor, monitoring.NewMetrics(), zap.NewNop(), config)
	return NewHandler(api, config, zap.NewNop())
}

func postJSON(t *testing.T, handler http.Handler, body string) (int, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var payload map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return w.Code, payload
}

func TestHandlePredict(t *testing.T) {
	handler := newTestHandler(loadedService())

	t.Run("full record", func(t *testing.T) {
		status, payload := postJSON(t, handler, exampleBody)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, map[string]string{"prediction": "Positive"}, payload)
	})

	t.Run("missing fields are tolerated", func(t *testing.T) {
		status, payload := postJSON(t, handler, `{"Age":40,"Output":"No"}`)
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, []string{"Positive", "Negative"}, payload["prediction"])
	})

	t.Run("wrong type is a client error", func(t *testing.T) {
		status, payload := postJSON(t, handler, `{"Age":"old"}`)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, payload["error"], "Age")
	})

	t.Run("empty body is a client error", func(t *testing.T) {
		status, payload := postJSON(t, handler, ``)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.NotEmpty(t, payload["error"])
	})

	t.Run("empty object is consistent", func(t *testing.T) {
		firstStatus, first := postJSON(t, handler, `{}`)
		secondStatus, second := postJSON(t, handler, `{}`)
		assert.Contains(t, []int{http.StatusOK, http.StatusBadRequest}, firstStatus)
		assert.Equal(t, firstStatus, secondStatus)
		assert.Equal(t, first, second)
	})

	t.Run("get is not allowed", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/predict", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestHandlePredictModelUnavailable(t *testing.T) {
	handler := newTestHandler(degradedService(t))

	for _, body := range []string{exampleBody, `{}`, `not json`} {
		status, payload := postJSON(t, handler, body)
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.NotEmpty(t, payload["error"])
	}

	t.Run("unsupported charset still reports the missing model", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(exampleBody))
		req.Header.Set("Content-Type", "application/json; charset=bogus")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		var payload map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
		assert.Equal(t, inference.ErrModelUnavailable.Error(), payload["error"])
	})
}

func TestHandlePredictTrailingData(t *testing.T) {
	handler := newTestHandler(loadedService())
	status, payload := postJSON(t, handler, exampleBody+` }}} not json`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, payload["error"], "unexpected data")
}

func TestHandlePredictUnknownLabel(t *testing.T) {
	handler := newTestHandler(&recordingPredictor{label: ml.LabelUnknown})
	status, payload := postJSON(t, handler, exampleBody)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Unknown", payload["prediction"])
}

func TestHandlePredictCharset(t *testing.T) {
	predictor := &recordingPredictor{label: ml.LabelPositive}
	handler := newTestHandler(predictor)

	// "Self Employé" in ISO-8859-1
	body := append([]byte(`{"Occupation":"Self Employ`), 0xE9, '"', '}')
	req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json; charset=ISO-8859-1")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, predictor.last.Occupation)
	assert.Equal(t, "Self Employ\u00e9", *predictor.last.Occupation)

	req = httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(exampleBody))
	req.Header.Set("Content-Type", "application/json; charset=klingon")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported charset")
}

func TestHandlePredictBodyLimit(t *testing.T) {
	config := DefaultServerConfig()
	config.MaxBodyBytes = 16
	api := NewAPI(loadedService(), nil, nil, config)
	handler := NewHandler(api, config, nil)

	status, payload := postJSON(t, handler, exampleBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, payload["error"])
}

func TestHealthHandler(t *testing.T) {
	for name, svc := range map[string]*inference.Service{
		"loaded":   loadedService(),
		"degraded": degradedService(t),
	} {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newTestHandler(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
			require.Equal(t, http.StatusOK, w.Code)

			var payload map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
			assert.Equal(t, "ok", payload["status"])
			assert.Equal(t, svc.Ready(), payload["model_loaded"])
		})
	}
}

func TestModelHandler(t *testing.T) {
	require.NoError(t, db.InitDB(filepath.Join(t.TempDir(), "feedback.db")))
	defer db.Close()

	svc := loadedService()
	require.NoError(t, db.RecordArtifactLoad(svc.Info().Load))

	w := httptest.NewRecorder()
	newTestHandler(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/model", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		Model   inference.ModelInfo `json:"model"`
		History []ml.LoadReport     `json:"history"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.True(t, payload.Model.Loaded)
	assert.Equal(t, ml.ExpectedColumns(), payload.Model.Columns)
	require.Len(t, payload.History, 1)
	assert.Equal(t, ml.KindLinearSVC, payload.History[0].ClassifierKind)
}

func TestIndexAndMetrics(t *testing.T) {
	metrics := monitoring.NewMetrics()
	svc := inference.FromLoader(ml.NewArtifactLoader(filepath.Join("..", "models"), "", ""), inference.WithMetrics(metrics))
	config := DefaultServerConfig()
	handler := NewHandler(NewAPI(svc, metrics, nil, config), config, nil)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "/form")

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	postJSON(t, handler, exampleBody)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `feedback_predictions_total{label="Positive"} 1`)
}
