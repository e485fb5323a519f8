// Package inference holds the prediction logic shared by every front-end.
package inference

import (
	"context"
	"io"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"feedbacksense/ml"
	"feedbacksense/monitoring"
)

// Prediction is the outcome of one inference.
type Prediction struct {
	Label string `json:"prediction"`
	Code  int    `json:"-"`
}

// Predictor is what the presentation adapters depend on.
type Predictor interface {
	Predict(ctx context.Context, rec ml.FeatureRecord) (Prediction, error)
	PredictJSON(ctx context.Context, body io.Reader) (Prediction, error)
	Info() ModelInfo
	Ready() bool
}

// ModelInfo describes the loaded artifacts.
type ModelInfo struct {
	Loaded  bool          `json:"loaded"`
	Columns []string      `json:"columns"`
	Labels  []string      `json:"labels"`
	Load    ml.LoadReport `json:"load"`
}

// Service runs transform and predict over a pipeline that is never
// mutated after construction, so it needs no locking.
type Service struct {
	pipeline *ml.Pipeline
	loadErr  error
	report   ml.LoadReport
	cache    *lru.Cache[string, Prediction]
	metrics  *monitoring.Metrics
	log      *zap.Logger
}

type Option func(*Service)

// WithCache enables an LRU of the given size keyed on the normalized row.
func WithCache(size int) Option {
	return func(s *Service) {
		if size <= 0 {
			return
		}
		cache, err := lru.New[string, Prediction](size)
		if err == nil {
			s.cache = cache
		}
	}
}

func WithMetrics(m *monitoring.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Service) { s.log = log }
}

// NewService wraps the outcome of an artifact load. A nil pipeline puts
// the service in the degraded state where every call fails fast.
func NewService(pipeline *ml.Pipeline, loadErr error, opts ...Option) *Service {
	s := &Service{pipeline: pipeline, loadErr: loadErr, log: zap.NewNop()}
	if pipeline == nil && s.loadErr == nil {
		s.loadErr = ErrModelUnavailable
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics != nil {
		s.metrics.SetModelLoaded(s.Ready())
	}
	return s
}

// FromLoader loads the artifacts once and builds the service around the
// outcome. Load failures are logged, not returned.
func FromLoader(loader *ml.ArtifactLoader, opts ...Option) *Service {
	pipeline, err := loader.Load()
	s := NewService(pipeline, err, opts...)
	s.report = loader.Report()
	if err != nil {
		s.log.Error("failed to load model artifacts", zap.Error(err),
			zap.String("preprocessor", s.report.PreprocessorPath),
			zap.String("classifier", s.report.ClassifierPath))
	} else {
		s.log.Info("model artifacts loaded",
			zap.String("classifier_kind", s.report.ClassifierKind),
			zap.String("preprocessor", s.report.PreprocessorPath),
			zap.String("classifier", s.report.ClassifierPath))
	}
	return s
}

// Ready reports whether the artifacts are available.
func (s *Service) Ready() bool {
	return s.pipeline != nil
}

// LoadError is the startup failure, or nil.
func (s *Service) LoadError() error {
	if s.Ready() {
		return nil
	}
	return s.loadErr
}

func (s *Service) Info() ModelInfo {
	return ModelInfo{
		Loaded:  s.Ready(),
		Columns: ml.ExpectedColumns(),
		Labels:  []string{ml.LabelFor(0), ml.LabelFor(1)},
		Load:    s.report,
	}
}

// PredictJSON decodes a JSON object body and predicts on it.
func (s *Service) PredictJSON(ctx context.Context, body io.Reader) (Prediction, error) {
	if !s.Ready() {
		return s.unavailable()
	}
	rec, err := ml.DecodeRecord(body)
	if err != nil {
		s.observeError(monitoring.ErrorKindInput)
		return Prediction{}, &InputError{Err: err}
	}
	return s.Predict(ctx, rec)
}

// Predict scores one record. Missing columns are passed to the
// preprocessor as nulls; whether that succeeds is up to its fitted
// imputation.
func (s *Service) Predict(ctx context.Context, rec ml.FeatureRecord) (Prediction, error) {
	if !s.Ready() {
		return s.unavailable()
	}
	if err := ctx.Err(); err != nil {
		s.observeError(monitoring.ErrorKindInternal)
		return Prediction{}, err
	}

	key := rec.Key()
	if s.cache != nil && key != "" {
		if p, ok := s.cache.Get(key); ok {
			s.observe(p.Label, 0, true)
			return p, nil
		}
	}

	start := time.Now()
	vector, err := s.pipeline.Preprocessor.Transform(rec)
	if err != nil {
		s.observeError(monitoring.ErrorKindInput)
		return Prediction{}, &InputError{Err: err}
	}
	code, err := s.pipeline.Classifier.Predict(vector)
	if err != nil {
		s.observeError(monitoring.ErrorKindInput)
		return Prediction{}, inputErrorf("predict: %w", err)
	}

	p := Prediction{Label: ml.LabelFor(code), Code: code}
	if p.Label == ml.LabelUnknown {
		s.log.Warn("classifier returned a code outside the label table", zap.Int("code", code))
	}
	if s.cache != nil && key != "" {
		s.cache.Add(key, p)
	}
	s.observe(p.Label, time.Since(start), false)
	return p, nil
}

func (s *Service) unavailable() (Prediction, error) {
	s.observeError(monitoring.ErrorKindUnavailable)
	return Prediction{}, ErrModelUnavailable
}

func (s *Service) observe(label string, elapsed time.Duration, cached bool) {
	if s.metrics != nil {
		s.metrics.ObservePrediction(label, elapsed, cached)
	}
}

func (s *Service) observeError(kind string) {
	if s.metrics != nil {
		s.metrics.ObserveError(kind)
	}
}
