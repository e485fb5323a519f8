package http

import (
	"embed"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"feedbacksense/db"
	"feedbacksense/inference"
	"feedbacksense/monitoring"
)

//go:embed templates/*.html
var templateFS embed.FS

// API serves every front-end over one shared Predictor.
type API struct {
	predictor    inference.Predictor
	metrics      *monitoring.Metrics
	log          *zap.Logger
	maxBodyBytes int64
	upgrader     websocket.Upgrader
	pages        *pageSet
}

// NewAPI builds the handlers. metrics and log may be nil.
func NewAPI(predictor inference.Predictor, metrics *monitoring.Metrics, log *zap.Logger, config ServerConfig) *API {
	if log == nil {
		log = zap.NewNop()
	}
	maxBody := config.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultServerConfig().MaxBodyBytes
	}
	return &API{
		predictor:    predictor,
		metrics:      metrics,
		log:          log,
		maxBodyBytes: maxBody,
		upgrader: websocket.Upgrader{
			CheckOrigin:     originChecker(config.AllowedOrigins),
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		pages: mustParsePages(),
	}
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", a.handleIndex)
	mux.HandleFunc("POST /predict", a.handlePredict)
	mux.HandleFunc("GET /form", a.handleFormPage)
	mux.HandleFunc("POST /form", a.handleFormSubmit)
	mux.HandleFunc("GET /api/ws/predict", a.handlePredictSocket)
	mux.HandleFunc("GET /api/health", a.handleHealth)
	mux.HandleFunc("GET /api/model", a.handleModel)
	if a.metrics != nil {
		mux.Handle("GET /metrics", a.metrics.Handler())
	}
}

func (a *API) handleIndex(w http.ResponseWriter, r *http.Request) {
	a.pages.render(w, http.StatusOK, "index.html", nil)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"model_loaded": a.predictor.Info().Loaded,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleModel(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"model": a.predictor.Info(),
	}
	if db.Enabled() {
		history, err := db.QueryArtifactLoads(10)
		if err != nil {
			a.log.Warn("query artifact loads failed", zap.Error(err))
		} else {
			response["history"] = history
		}
	}
	respondJSON(w, http.StatusOK, response)
}

func (a *API) handlePredict(w http.ResponseWriter, r *http.Request) {
	if !a.predictor.Ready() {
		a.respondPredictError(w, r, a.unavailable())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.maxBodyBytes)
	body, err := requestBody(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	prediction, err := a.predictor.PredictJSON(r.Context(), body)
	if err != nil {
		a.respondPredictError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, prediction)
}

func (a *API) respondPredictError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		a.log.Error("prediction failed", zap.Error(err), zap.String("request_id", GetRequestID(r.Context())))
	}
	respondError(w, status, messageForError(err))
}

// unavailable short-circuits requests that arrive while the artifacts are
// missing, before any request parsing can turn them into client errors.
func (a *API) unavailable() error {
	if a.metrics != nil {
		a.metrics.ObserveError(monitoring.ErrorKindUnavailable)
	}
	return inference.ErrModelUnavailable
}

func originChecker(origins []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, allowed := range origins {
			if allowed == "*" || allowed == origin {
				return true
			}
		}
		return false
	}
}
