// Package predictor runs one patient record through validation, feature
// assembly and the classifier.
package predictor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cardiai/artifacts"
	"cardiai/monitoring"
	"cardiai/pipeline"
)

const (
	RiskHigh = "Alto Riesgo"
	RiskLow  = "Bajo Riesgo"
)

// RiskLabel depends on the predicted class only.
func RiskLabel(class int) string {
	if class == 1 {
		return RiskHigh
	}
	return RiskLow
}

type Probabilities struct {
	LowRisk  float64 `json:"class_0_low_risk"`
	HighRisk float64 `json:"class_1_high_risk"`
}

type Metadata struct {
	ModelVersion   string `json:"model_version"`
	FeatureCount   int    `json:"feature_count"`
	AlcoholEncoded int    `json:"alcohol_encoded"`
}

type Result struct {
	Prediction    int           `json:"prediction"`
	RiskLabel     string        `json:"risk_label"`
	Probabilities Probabilities `json:"probabilities"`
	Confidence    float64       `json:"confidence"`
	Metadata      Metadata      `json:"metadata"`

	Input pipeline.PatientInput `json:"-"`
}

type DebugResult struct {
	DebugInfo     *pipeline.Trace `json:"debug_info"`
	Prediction    int             `json:"prediction"`
	Probabilities []float64       `json:"probabilities"`
	Confidence    float64         `json:"confidence"`
}

// Service is stateless apart from metrics; it is safe for concurrent use.
type Service struct {
	set       *artifacts.Set
	assembler *pipeline.Assembler
	logger    *zap.Logger
	metrics   *monitoring.PredictionMetrics
}

func NewService(set *artifacts.Set, assembler *pipeline.Assembler, logger *zap.Logger, metrics *monitoring.PredictionMetrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = monitoring.NewPredictionMetrics()
	}
	return &Service{
		set:       set,
		assembler: assembler,
		logger:    logger,
		metrics:   metrics,
	}
}

func (s *Service) Artifacts() *artifacts.Set {
	return s.set
}

func (s *Service) Metrics() *monitoring.PredictionMetrics {
	return s.metrics
}

type outcome struct {
	input pipeline.PatientInput
	trace *pipeline.Trace
	class int
	proba []float64
}

func (o *outcome) confidence() float64 {
	best := o.proba[0]
	for _, p := range o.proba[1:] {
		if p > best {
			best = p
		}
	}
	return best
}

func (s *Service) Predict(ctx context.Context, raw pipeline.RawInput) (*Result, error) {
	out, err := s.run(ctx, raw, "predict")
	if err != nil {
		return nil, err
	}
	return &Result{
		Prediction: out.class,
		RiskLabel:  RiskLabel(out.class),
		Probabilities: Probabilities{
			LowRisk:  out.proba[0],
			HighRisk: out.proba[1],
		},
		Confidence: out.confidence(),
		Metadata: Metadata{
			ModelVersion:   s.set.ModelVersion(),
			FeatureCount:   len(out.trace.Vector),
			AlcoholEncoded: out.trace.AlcoholEncoded,
		},
		Input: out.input,
	}, nil
}

// PredictDebug returns the intermediate values of the assembly along with
// the prediction.
func (s *Service) PredictDebug(ctx context.Context, raw pipeline.RawInput) (*DebugResult, error) {
	out, err := s.run(ctx, raw, "predict_debug")
	if err != nil {
		return nil, err
	}
	return &DebugResult{
		DebugInfo:     out.trace,
		Prediction:    out.class,
		Probabilities: out.proba,
		Confidence:    out.confidence(),
	}, nil
}

func (s *Service) run(ctx context.Context, raw pipeline.RawInput, op string) (*outcome, error) {
	start := time.Now()
	out, err := s.evaluate(ctx, raw)
	elapsed := time.Since(start)

	if err != nil {
		rerr := AsRequestError(err)
		s.metrics.Record(string(rerr.Kind), elapsed)
		fields := []zap.Field{
			zap.String("op", op),
			zap.String("kind", string(rerr.Kind)),
			zap.Int("status", rerr.Status),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		}
		if rerr.Status >= 500 {
			s.logger.Error("prediction failed", fields...)
		} else {
			s.logger.Warn("prediction rejected", fields...)
		}
		return nil, rerr
	}

	s.metrics.Record(monitoring.OutcomeSuccess, elapsed)
	s.metrics.RecordPrediction(RiskLabel(out.class))
	s.logger.Info("prediction served",
		zap.String("op", op),
		zap.Int("prediction", out.class),
		zap.Float64("confidence", out.confidence()),
		zap.Duration("elapsed", elapsed),
	)
	return out, nil
}

func (s *Service) evaluate(ctx context.Context, raw pipeline.RawInput) (*outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	input, err := pipeline.Validate(raw)
	if err != nil {
		return nil, err
	}
	trace, err := s.assembler.Trace(input)
	if err != nil {
		return nil, err
	}
	class, proba, err := s.infer(trace.Vector)
	if err != nil {
		return nil, err
	}
	return &outcome{input: input, trace: trace, class: class, proba: proba}, nil
}

func (s *Service) infer(vector pipeline.FeatureVector) (class int, proba []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = inferenceError(fmt.Errorf("classifier panic: %v", r))
		}
	}()

	model := s.set.Classifier()
	class, err = model.Predict(vector)
	if err != nil {
		return 0, nil, inferenceError(err)
	}
	proba, err = model.PredictProba(vector)
	if err != nil {
		return 0, nil, inferenceError(err)
	}
	if len(proba) != 2 {
		return 0, nil, inferenceError(fmt.Errorf("expected 2 class probabilities, got %d", len(proba)))
	}
	if class != 0 && class != 1 {
		return 0, nil, inferenceError(fmt.Errorf("unexpected class %d", class))
	}
	return class, proba, nil
}

func inferenceError(err error) error {
	return &pipeline.Error{Kind: pipeline.InferenceFailure, Err: err}
}
