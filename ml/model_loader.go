package ml

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ModelBundle is the exported classifier artifact: the fitted model plus the
// column order it was trained on.
type ModelBundle struct {
	ModelType    string          `json:"model_type"`
	FeatureNames []string        `json:"feature_names"`
	Metadata     ModelMetadata   `json:"metadata"`
	Model        json.RawMessage `json:"model"`
}

type ModelMetadata struct {
	Version   string `json:"version,omitempty"`
	TrainedAt string `json:"trained_at,omitempty"`
}

// VersionOrUnknown returns the artifact version tag, or "unknown".
func (m ModelMetadata) VersionOrUnknown() string {
	if m.Version == "" {
		return "unknown"
	}
	return m.Version
}

// DecodeModelBundle parses a model artifact and builds its classifier.
func DecodeModelBundle(payload []byte) (*ModelBundle, Classifier, error) {
	var bundle ModelBundle
	if err := json.Unmarshal(payload, &bundle); err != nil {
		return nil, nil, fmt.Errorf("decode model bundle: %w", err)
	}
	if len(bundle.FeatureNames) == 0 {
		return nil, nil, errors.New("model bundle has no feature_names")
	}
	model, err := LoadModel(bundle.ModelType, bundle.Model)
	if err != nil {
		return nil, nil, err
	}
	return &bundle, model, nil
}

func LoadModel(modelType string, payload []byte) (Classifier, error) {
	if len(payload) == 0 {
		return nil, errors.New("model payload is empty")
	}
	switch modelType {
	case ModelTypeDecisionTree:
		model := &DecisionTree{}
		if err := json.Unmarshal(payload, model); err != nil {
			return nil, fmt.Errorf("decode decision tree: %w", err)
		}
		return model, nil
	case ModelTypeRandomForest:
		model := &RandomForest{}
		if err := json.Unmarshal(payload, model); err != nil {
			return nil, fmt.Errorf("decode random forest: %w", err)
		}
		return model, nil
	default:
		return nil, fmt.Errorf("unsupported model type %q", modelType)
	}
}
