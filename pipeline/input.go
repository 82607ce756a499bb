package pipeline

import (
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Request field names.
const (
	FieldAlcohol           = "Alcohol_Consumption"
	FieldHomocysteine      = "Homocysteine_Level"
	FieldCRP               = "CRP_Level"
	FieldBMI               = "BMI"
	FieldSleepHours        = "Sleep_Hours"
	FieldTriglyceride      = "Triglyceride_Level"
	FieldCholesterol       = "Cholesterol_Level"
	FieldFastingBloodSugar = "Fasting_Blood_Sugar"
	FieldBloodPressure     = "Blood_Pressure"
	FieldAge               = "Age"
)

// Artifact column names.
const (
	ColumnAlcohol           = "Alcohol Consumption"
	ColumnAge               = "Age"
	ColumnBloodPressure     = "Blood Pressure"
	ColumnCholesterol       = "Cholesterol Level"
	ColumnBMI               = "BMI"
	ColumnSleepHours        = "Sleep Hours"
	ColumnTriglyceride      = "Triglyceride Level"
	ColumnFastingBloodSugar = "Fasting Blood Sugar"
	ColumnCRP               = "CRP Level"
	ColumnHomocysteine      = "Homocysteine Level"
)

const (
	MinAge = 0
	MaxAge = 120
)

// RawInput is an unvalidated request body, keyed by request field name.
type RawInput map[string]any

// PatientInput is a fully validated request.
type PatientInput struct {
	Alcohol           AlcoholLevel `json:"Alcohol_Consumption"`
	HomocysteineLevel float64      `json:"Homocysteine_Level"`
	CRPLevel          float64      `json:"CRP_Level"`
	BMI               float64      `json:"BMI"`
	SleepHours        float64      `json:"Sleep_Hours"`
	TriglycerideLevel float64      `json:"Triglyceride_Level"`
	CholesterolLevel  float64      `json:"Cholesterol_Level"`
	FastingBloodSugar float64      `json:"Fasting_Blood_Sugar"`
	BloodPressure     float64      `json:"Blood_Pressure"`
	Age               int          `json:"Age"`
}

type measurement struct {
	field  string
	column string
	ref    func(*PatientInput) *float64
}

// measurements lists the eight continuous fields in request order.
var measurements = []measurement{
	{FieldHomocysteine, ColumnHomocysteine, func(p *PatientInput) *float64 { return &p.HomocysteineLevel }},
	{FieldCRP, ColumnCRP, func(p *PatientInput) *float64 { return &p.CRPLevel }},
	{FieldBMI, ColumnBMI, func(p *PatientInput) *float64 { return &p.BMI }},
	{FieldSleepHours, ColumnSleepHours, func(p *PatientInput) *float64 { return &p.SleepHours }},
	{FieldTriglyceride, ColumnTriglyceride, func(p *PatientInput) *float64 { return &p.TriglycerideLevel }},
	{FieldCholesterol, ColumnCholesterol, func(p *PatientInput) *float64 { return &p.CholesterolLevel }},
	{FieldFastingBloodSugar, ColumnFastingBloodSugar, func(p *PatientInput) *float64 { return &p.FastingBloodSugar }},
	{FieldBloodPressure, ColumnBloodPressure, func(p *PatientInput) *float64 { return &p.BloodPressure }},
}

// Fields returns the ten request field names in request order.
func Fields() []string {
	fields := []string{FieldAlcohol}
	for _, m := range measurements {
		fields = append(fields, m.field)
	}
	return append(fields, FieldAge)
}

// NumericColumns returns the nine scaled column names.
func NumericColumns() []string {
	return []string{
		ColumnAge,
		ColumnBloodPressure,
		ColumnCholesterol,
		ColumnBMI,
		ColumnSleepHours,
		ColumnTriglyceride,
		ColumnFastingBloodSugar,
		ColumnCRP,
		ColumnHomocysteine,
	}
}

// Validate checks every field of raw in request order and stops at the first
// failure. No defaults are substituted for missing or invalid values.
func Validate(raw RawInput) (PatientInput, error) {
	var input PatientInput

	value, err := require(raw, FieldAlcohol)
	if err != nil {
		return PatientInput{}, err
	}
	if input.Alcohol, err = ParseAlcohol(value); err != nil {
		return PatientInput{}, err
	}

	for _, m := range measurements {
		value, err := require(raw, m.field)
		if err != nil {
			return PatientInput{}, err
		}
		parsed, err := parseMeasurement(m.field, value)
		if err != nil {
			return PatientInput{}, err
		}
		*m.ref(&input) = parsed
	}

	value, err = require(raw, FieldAge)
	if err != nil {
		return PatientInput{}, err
	}
	if input.Age, err = parseAge(value); err != nil {
		return PatientInput{}, err
	}
	return input, nil
}

// FromForm builds a RawInput from submitted form values. Blank fields are
// left out so they surface as MissingField.
func FromForm(values url.Values) RawInput {
	raw := make(RawInput, len(values))
	for _, field := range Fields() {
		if v := strings.TrimSpace(values.Get(field)); v != "" {
			raw[field] = v
		}
	}
	return raw
}

func require(raw RawInput, field string) (any, error) {
	value, ok := raw[field]
	if !ok || value == nil {
		return nil, fieldError(MissingField, field, nil)
	}
	return value, nil
}

func parseMeasurement(field string, value any) (float64, error) {
	f, ok := toFloat(value)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fieldError(NotNumeric, field, value)
	}
	if f < 0 {
		return 0, fieldError(OutOfRange, field, value)
	}
	return f, nil
}

func parseAge(value any) (int, error) {
	f, ok := toFloat(value)
	if !ok || math.IsNaN(f) || f != math.Trunc(f) || f < MinAge || f > MaxAge {
		return 0, fieldError(InvalidAge, FieldAge, value)
	}
	return int(f), nil
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}
