package ml

// Classifier maps a feature vector to a discrete class code.
// Implementations are read-only after loading and safe for concurrent use.
type Classifier interface {
	Predict(features []float64) (int, error)
	Kind() string
}
