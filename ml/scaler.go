package ml

import (
	"errors"
	"fmt"
	"math"
)

// MinMaxScaler holds fitted min-max parameters. FeatureNames is the column
// order the parameters were fitted on; Transform expects rows in that order.
type MinMaxScaler struct {
	FeatureNames []string  `json:"feature_names,omitempty"`
	DataMin      []float64 `json:"data_min"`
	Scale        []float64 `json:"scale"`
}

func (s *MinMaxScaler) Validate() error {
	if len(s.DataMin) == 0 {
		return errors.New("scaler has no columns")
	}
	if len(s.DataMin) != len(s.Scale) {
		return fmt.Errorf("scaler data_min/scale length mismatch: %d vs %d", len(s.DataMin), len(s.Scale))
	}
	if len(s.FeatureNames) != 0 && len(s.FeatureNames) != len(s.DataMin) {
		return fmt.Errorf("scaler has %d feature names for %d columns", len(s.FeatureNames), len(s.DataMin))
	}
	return nil
}

// NumFeatures reports the number of fitted columns.
func (s *MinMaxScaler) NumFeatures() int {
	return len(s.DataMin)
}

// Transform scales one row: (x - min) * scale per column.
func (s *MinMaxScaler) Transform(row []float64) ([]float64, error) {
	if len(row) != len(s.DataMin) || len(row) != len(s.Scale) {
		return nil, fmt.Errorf("row has %d values, scaler expects %d", len(row), len(s.DataMin))
	}
	result := make([]float64, len(row))
	for i := range row {
		result[i] = ScaleFeature(row[i], s.DataMin[i], s.Scale[i])
		if math.IsNaN(result[i]) || math.IsInf(result[i], 0) {
			return nil, fmt.Errorf("column %d scaled to non-finite value", i)
		}
	}
	return result, nil
}

func ScaleFeature(value, min, scale float64) float64 {
	return (value - min) * scale
}
