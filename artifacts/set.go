package artifacts

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cardiai/ml"
	"cardiai/pipeline"
)

// Set is the process-wide artifact state. It is built once at startup and
// never mutated afterwards, so request handlers read it without locking.
type Set struct {
	model        ml.Classifier
	modelType    string
	featureNames []string
	metadata     ml.ModelMetadata
	scaler       *ml.MinMaxScaler
	encoder      *ml.Encoder
	loadedAt     time.Time
}

// Status is the readiness report served by the health endpoint.
type Status struct {
	ModelLoaded      bool     `json:"model_loaded"`
	ScalerLoaded     bool     `json:"scaler_loaded"`
	EncoderLoaded    bool     `json:"encoder_loaded"`
	ExpectedFeatures int      `json:"expected_features"`
	FeatureNames     []string `json:"feature_names"`
	ModelVersion     string   `json:"model_version"`
	ModelType        string   `json:"model_type"`
}

// Load reads and decodes all three artifacts. Any failure is returned
// immediately; callers treat it as fatal.
func Load(src Source, logger *zap.Logger) (*Set, error) {
	payload, err := src.Read(NameModel)
	if err != nil {
		return nil, fmt.Errorf("read model artifact %s: %w", src.Describe(NameModel), err)
	}
	bundle, model, err := ml.DecodeModelBundle(payload)
	if err != nil {
		return nil, fmt.Errorf("load model artifact %s: %w", src.Describe(NameModel), err)
	}

	payload, err = src.Read(NameScaler)
	if err != nil {
		return nil, fmt.Errorf("read scaler artifact %s: %w", src.Describe(NameScaler), err)
	}
	var scaler ml.MinMaxScaler
	if err := json.Unmarshal(payload, &scaler); err != nil {
		return nil, fmt.Errorf("decode scaler artifact %s: %w", src.Describe(NameScaler), err)
	}

	payload, err = src.Read(NameEncoder)
	if err != nil {
		return nil, fmt.Errorf("read encoder artifact %s: %w", src.Describe(NameEncoder), err)
	}
	var encoder ml.Encoder
	if err := json.Unmarshal(payload, &encoder); err != nil {
		return nil, fmt.Errorf("decode encoder artifact %s: %w", src.Describe(NameEncoder), err)
	}

	set, err := NewSet(bundle, model, &scaler, &encoder)
	if err != nil {
		return nil, err
	}
	logger.Info("artifacts loaded",
		zap.String("model_type", set.modelType),
		zap.String("model_version", set.metadata.VersionOrUnknown()),
		zap.Strings("feature_names", set.featureNames),
		zap.Strings("scaler_order", set.ScalerOrder()),
		zap.Strings("encoder_labels", encoder.Labels()),
	)
	return set, nil
}

// NewSet assembles a Set from already decoded artifacts.
func NewSet(bundle *ml.ModelBundle, model ml.Classifier, scaler *ml.MinMaxScaler, encoder *ml.Encoder) (*Set, error) {
	if bundle == nil || model == nil {
		return nil, fmt.Errorf("model artifact is required")
	}
	if len(bundle.FeatureNames) == 0 {
		return nil, fmt.Errorf("model artifact has no feature names")
	}
	if scaler == nil {
		return nil, fmt.Errorf("scaler artifact is required")
	}
	if err := scaler.Validate(); err != nil {
		return nil, fmt.Errorf("scaler artifact: %w", err)
	}
	if encoder == nil {
		return nil, fmt.Errorf("encoder artifact is required")
	}
	if err := encoder.Validate(); err != nil {
		return nil, fmt.Errorf("encoder artifact: %w", err)
	}
	if encoder.Column == "" {
		encoder.Column = pipeline.ColumnAlcohol
	}
	return &Set{
		model:        model,
		modelType:    bundle.ModelType,
		featureNames: append([]string(nil), bundle.FeatureNames...),
		metadata:     bundle.Metadata,
		scaler:       scaler,
		encoder:      encoder,
		loadedAt:     time.Now(),
	}, nil
}

func (s *Set) Classifier() ml.Classifier {
	return s.model
}

func (s *Set) ModelVersion() string {
	return s.metadata.VersionOrUnknown()
}

// FeatureNames is the classifier's input order.
func (s *Set) FeatureNames() []string {
	return append([]string(nil), s.featureNames...)
}

// ScalerOrder is the column order the scaler was fitted on. Older scaler
// exports carry no names; those were fitted on pipeline.NumericColumns().
func (s *Set) ScalerOrder() []string {
	if len(s.scaler.FeatureNames) > 0 {
		return append([]string(nil), s.scaler.FeatureNames...)
	}
	return pipeline.NumericColumns()
}

func (s *Set) LoadedAt() time.Time {
	return s.loadedAt
}

// Schema wires the artifacts into the feature assembler.
func (s *Set) Schema() pipeline.Schema {
	return pipeline.Schema{
		Encoding:          s.encoder,
		CategoricalColumn: s.encoder.Column,
		Scaler:            s.scaler,
		ScalerOrder:       s.ScalerOrder(),
		ModelOrder:        s.FeatureNames(),
	}
}

func (s *Set) Status() Status {
	return Status{
		ModelLoaded:      s.model != nil,
		ScalerLoaded:     s.scaler != nil,
		EncoderLoaded:    s.encoder != nil,
		ExpectedFeatures: len(s.featureNames),
		FeatureNames:     s.FeatureNames(),
		ModelVersion:     s.ModelVersion(),
		ModelType:        s.modelType,
	}
}

// Describe summarises the artifacts for operators.
func (s *Set) Describe() map[string]interface{} {
	info := map[string]interface{}{
		"model_type":     s.modelType,
		"model_version":  s.ModelVersion(),
		"feature_names":  s.featureNames,
		"feature_count":  len(s.featureNames),
		"classes":        s.model.Classes(),
		"scaler_order":   s.ScalerOrder(),
		"scaler_min":     s.scaler.DataMin,
		"scaler_scale":   s.scaler.Scale,
		"encoder_column": s.encoder.Column,
		"encoder_map":    s.encoder.Mapping,
	}
	if forest, ok := s.model.(*ml.RandomForest); ok {
		info["n_estimators"] = forest.NumTrees()
	}
	if s.metadata.TrainedAt != "" {
		info["trained_at"] = s.metadata.TrainedAt
	}
	return info
}
