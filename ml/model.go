package ml

// Classifier is a fitted model that maps one feature vector to a class.
// Implementations must be safe for concurrent use once loaded.
type Classifier interface {
	Predict(features []float64) (int, error)
	PredictProba(features []float64) ([]float64, error)
	Classes() []int
}

// Model types understood by LoadModel.
const (
	ModelTypeDecisionTree = "decision_tree"
	ModelTypeRandomForest = "random_forest"
)
