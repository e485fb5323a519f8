package ml

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	KindLinearSVC    = "linear_svc"
	KindDecisionTree = "decision_tree"

	DefaultPreprocessorFile = "preprocessor.json"
	DefaultClassifierFile   = "classifier.json"
)

// LoadClassifier reads a classifier artifact, dispatching on its "kind".
func LoadClassifier(path string) (Classifier, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("decode classifier: %w", err)
	}

	switch envelope.Kind {
	case KindLinearSVC:
		model := &LinearSVC{}
		if err := json.Unmarshal(payload, model); err != nil {
			return nil, fmt.Errorf("decode classifier: %w", err)
		}
		if err := model.validate(); err != nil {
			return nil, err
		}
		return model, nil
	case KindDecisionTree:
		model := &DecisionTree{}
		if err := json.Unmarshal(payload, model); err != nil {
			return nil, fmt.Errorf("decode classifier: %w", err)
		}
		if err := model.validate(); err != nil {
			return nil, err
		}
		return model, nil
	default:
		return nil, fmt.Errorf("unsupported model type %q", envelope.Kind)
	}
}

// Pipeline is a preprocessor composed with the classifier fitted on its
// output. Both halves are immutable once loaded.
type Pipeline struct {
	Preprocessor *Preprocessor
	Classifier   Classifier
}

// NewPipeline checks that the two halves agree on the vector width where
// the classifier exposes it.
func NewPipeline(pre *Preprocessor, clf Classifier) (*Pipeline, error) {
	if svc, ok := clf.(*LinearSVC); ok && len(svc.Coef) != pre.Width() {
		return nil, fmt.Errorf("classifier expects %d features, preprocessor produces %d", len(svc.Coef), pre.Width())
	}
	return &Pipeline{Preprocessor: pre, Classifier: clf}, nil
}

// Predict runs transform then predict and returns the raw class code.
func (p *Pipeline) Predict(rec FeatureRecord) (int, error) {
	vector, err := p.Preprocessor.Transform(rec)
	if err != nil {
		return 0, err
	}
	return p.Classifier.Predict(vector)
}

// ArtifactError is returned when either artifact cannot be loaded.
type ArtifactError struct {
	Path string
	Err  error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("load artifact %s: %v", e.Path, e.Err)
}

func (e *ArtifactError) Unwrap() error {
	return e.Err
}

// LoadReport describes the outcome of an artifact load.
type LoadReport struct {
	PreprocessorPath   string    `json:"preprocessor_path"`
	ClassifierPath     string    `json:"classifier_path"`
	PreprocessorSHA256 string    `json:"preprocessor_sha256,omitempty"`
	ClassifierSHA256   string    `json:"classifier_sha256,omitempty"`
	ClassifierKind     string    `json:"classifier_kind,omitempty"`
	Loaded             bool      `json:"loaded"`
	Error              string    `json:"error,omitempty"`
	LoadedAt           time.Time `json:"loaded_at"`
}

// ArtifactLoader loads the preprocessor/classifier pair exactly once.
type ArtifactLoader struct {
	Dir              string
	PreprocessorFile string
	ClassifierFile   string

	once     sync.Once
	pipeline *Pipeline
	report   LoadReport
	err      error
}

// NewArtifactLoader resolves artifact paths. An empty dir means the
// directory holding the running executable.
func NewArtifactLoader(dir, preprocessorFile, classifierFile string) *ArtifactLoader {
	if dir == "" {
		dir = executableDir()
	}
	if preprocessorFile == "" {
		preprocessorFile = DefaultPreprocessorFile
	}
	if classifierFile == "" {
		classifierFile = DefaultClassifierFile
	}
	return &ArtifactLoader{Dir: dir, PreprocessorFile: preprocessorFile, ClassifierFile: classifierFile}
}

func (l *ArtifactLoader) PreprocessorPath() string {
	return resolve(l.Dir, l.PreprocessorFile)
}

func (l *ArtifactLoader) ClassifierPath() string {
	return resolve(l.Dir, l.ClassifierFile)
}

// Load returns the pipeline, loading it on the first call. Later calls
// return the first outcome unchanged, including a failure.
func (l *ArtifactLoader) Load() (*Pipeline, error) {
	l.once.Do(func() {
		l.pipeline, l.err = l.load()
		l.report.Loaded = l.err == nil
		if l.err != nil {
			l.report.Error = l.err.Error()
		}
		l.report.LoadedAt = time.Now()
	})
	return l.pipeline, l.err
}

// Report returns the load outcome. It is only meaningful after Load.
func (l *ArtifactLoader) Report() LoadReport {
	l.Load()
	return l.report
}

func (l *ArtifactLoader) load() (*Pipeline, error) {
	l.report.PreprocessorPath = l.PreprocessorPath()
	l.report.ClassifierPath = l.ClassifierPath()

	pre, err := LoadPreprocessor(l.report.PreprocessorPath)
	if err != nil {
		return nil, &ArtifactError{Path: l.report.PreprocessorPath, Err: err}
	}
	clf, err := LoadClassifier(l.report.ClassifierPath)
	if err != nil {
		return nil, &ArtifactError{Path: l.report.ClassifierPath, Err: err}
	}
	pipeline, err := NewPipeline(pre, clf)
	if err != nil {
		return nil, &ArtifactError{Path: l.report.ClassifierPath, Err: err}
	}

	l.report.ClassifierKind = clf.Kind()
	l.report.PreprocessorSHA256, _ = fileSHA256(l.report.PreprocessorPath)
	l.report.ClassifierSHA256, _ = fileSHA256(l.report.ClassifierPath)
	return pipeline, nil
}

func resolve(dir, file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(dir, file)
}

func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
