package pipeline

import (
	"errors"
	"fmt"
)

// FeatureVector is the positional classifier input for one request.
type FeatureVector []float64

// NamedValues holds column values by name. Values stay keyed by name until a
// Project call fixes their positions.
type NamedValues map[string]float64

// Project returns the values in the given column order. source names the
// artifact the order came from and is reported on a SchemaMismatch.
func (n NamedValues) Project(order []string, source string) ([]float64, error) {
	row := make([]float64, len(order))
	for i, column := range order {
		v, ok := n[column]
		if !ok {
			return nil, schemaError(source, column)
		}
		row[i] = v
	}
	return row, nil
}

// Zip is the inverse of Project: it re-keys a positional row by column name.
func Zip(order []string, row []float64) (NamedValues, error) {
	if len(order) != len(row) {
		return nil, fmt.Errorf("zip: %d names for %d values", len(order), len(row))
	}
	named := make(NamedValues, len(order))
	for i, column := range order {
		named[column] = row[i]
	}
	return named, nil
}

// Numeric returns the nine continuous values of the input keyed by column name.
func (p PatientInput) Numeric() NamedValues {
	named := make(NamedValues, len(measurements)+1)
	named[ColumnAge] = float64(p.Age)
	for _, m := range measurements {
		named[m.column] = *m.ref(&p)
	}
	return named
}

// Encoding maps a canonical categorical label to its integer code.
type Encoding interface {
	Encode(label string) (int, bool)
}

// Transformer scales one row given in its fitted column order.
type Transformer interface {
	Transform(row []float64) ([]float64, error)
}

// Schema ties the artifacts together. ScalerOrder is the column order the
// scaler was fitted on; ModelOrder is the classifier's input order. The two
// are independent.
type Schema struct {
	Encoding          Encoding
	CategoricalColumn string
	Scaler            Transformer
	ScalerOrder       []string
	ModelOrder        []string
}

// Trace records every intermediate value of one assembly.
type Trace struct {
	AlcoholEncoded int           `json:"step_1_alcohol_encoded"`
	Numeric        NamedValues   `json:"step_2_numeric_data_original"`
	ScalerOrder    []string      `json:"step_3_scaler_input_order"`
	Scaled         []float64     `json:"step_4_scaled_values"`
	ModelOrder     []string      `json:"step_5_final_vector_order"`
	Vector         FeatureVector `json:"step_6_final_vector_values"`
}

// Assembler turns validated input into the classifier's feature vector. It
// holds no mutable state and is safe for concurrent use.
type Assembler struct {
	schema Schema
}

func NewAssembler(schema Schema) (*Assembler, error) {
	if schema.Encoding == nil {
		return nil, errors.New("assembler: encoding table is required")
	}
	if schema.Scaler == nil {
		return nil, errors.New("assembler: scaler is required")
	}
	if len(schema.ScalerOrder) == 0 || len(schema.ModelOrder) == 0 {
		return nil, errors.New("assembler: scaler and model column orders are required")
	}
	if schema.CategoricalColumn == "" {
		schema.CategoricalColumn = ColumnAlcohol
	}
	schema.ScalerOrder = append([]string(nil), schema.ScalerOrder...)
	schema.ModelOrder = append([]string(nil), schema.ModelOrder...)
	return &Assembler{schema: schema}, nil
}

// ModelOrder returns a copy of the classifier's column order.
func (a *Assembler) ModelOrder() []string {
	return append([]string(nil), a.schema.ModelOrder...)
}

func (a *Assembler) Assemble(input PatientInput) (FeatureVector, error) {
	trace, err := a.Trace(input)
	if err != nil {
		return nil, err
	}
	return trace.Vector, nil
}

// Trace runs the assembly and keeps the intermediate values: scale in the
// scaler's order, then emit in the model's order.
func (a *Assembler) Trace(input PatientInput) (*Trace, error) {
	code, ok := a.schema.Encoding.Encode(string(input.Alcohol))
	if !ok {
		return nil, schemaError("encoding table", string(input.Alcohol))
	}

	numeric := input.Numeric()
	toScale, err := numeric.Project(a.schema.ScalerOrder, "patient input")
	if err != nil {
		return nil, err
	}
	scaled, err := a.schema.Scaler.Transform(toScale)
	if err != nil {
		return nil, &Error{Kind: TransformFailure, Err: err}
	}

	combined, err := Zip(a.schema.ScalerOrder, scaled)
	if err != nil {
		return nil, &Error{Kind: TransformFailure, Err: err}
	}
	if _, clash := combined[a.schema.CategoricalColumn]; clash {
		return nil, &Error{Kind: SchemaMismatch, Err: fmt.Errorf("column %q is both scaled and categorical", a.schema.CategoricalColumn)}
	}
	combined[a.schema.CategoricalColumn] = float64(code)

	vector, err := combined.Project(a.schema.ModelOrder, "scaled features")
	if err != nil {
		return nil, err
	}

	return &Trace{
		AlcoholEncoded: code,
		Numeric:        numeric,
		ScalerOrder:    append([]string(nil), a.schema.ScalerOrder...),
		Scaled:         scaled,
		ModelOrder:     append([]string(nil), a.schema.ModelOrder...),
		Vector:         vector,
	}, nil
}

// Check reports inconsistencies between the artifacts that would make every
// request fail with SchemaMismatch.
func (a *Assembler) Check() error {
	var errs []error

	numeric := make(map[string]bool)
	for _, column := range NumericColumns() {
		numeric[column] = true
	}
	seen := make(map[string]bool)
	for _, column := range a.schema.ScalerOrder {
		if !numeric[column] {
			errs = append(errs, fmt.Errorf("scaler column %q is not a patient measurement", column))
		}
		if seen[column] {
			errs = append(errs, fmt.Errorf("scaler column %q listed twice", column))
		}
		seen[column] = true
	}

	available := make(map[string]bool, len(seen)+1)
	for column := range seen {
		available[column] = true
	}
	available[a.schema.CategoricalColumn] = true
	for _, column := range a.schema.ModelOrder {
		if !available[column] {
			errs = append(errs, fmt.Errorf("model column %q is produced by neither the scaler nor the encoder", column))
		}
	}
	if len(a.schema.ModelOrder) != len(available) {
		errs = append(errs, fmt.Errorf("model expects %d features, artifacts provide %d", len(a.schema.ModelOrder), len(available)))
	}

	for _, level := range AlcoholLevels() {
		if _, ok := a.schema.Encoding.Encode(string(level)); !ok {
			errs = append(errs, fmt.Errorf("encoding table has no code for %q", level))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return &Error{Kind: SchemaMismatch, Err: errors.Join(errs...)}
}
