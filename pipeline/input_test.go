package pipeline

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"
)

func validRaw() RawInput {
	return RawInput{
		FieldAlcohol:           "bajo",
		FieldAge:               45,
		FieldBloodPressure:     120.0,
		FieldCholesterol:       180.0,
		FieldBMI:               24.5,
		FieldSleepHours:        7.0,
		FieldTriglyceride:      140.0,
		FieldFastingBloodSugar: 95.0,
		FieldCRP:               2.0,
		FieldHomocysteine:      10.0,
	}
}

func expectKind(t *testing.T, err error, kind Kind, field string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if !errors.Is(err, kind) {
		t.Fatalf("expected %s, got %v", kind, err)
	}
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if perr.Field != field {
		t.Fatalf("expected field %s, got %s", field, perr.Field)
	}
	if !strings.Contains(err.Error(), field) {
		t.Fatalf("message %q does not name field %s", err.Error(), field)
	}
}

func TestValidateAcceptsScenario(t *testing.T) {
	input, err := Validate(validRaw())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if input.Alcohol != AlcoholLow {
		t.Fatalf("expected Low, got %s", input.Alcohol)
	}
	if input.Age != 45 || input.BMI != 24.5 || input.HomocysteineLevel != 10 {
		t.Fatalf("unexpected input: %+v", input)
	}
}

func TestValidateAcceptsJSONNumbersAndStrings(t *testing.T) {
	body := `{"Alcohol_Consumption":"High","Age":"60","Blood_Pressure":"130.5","Cholesterol_Level":210,
		"BMI":27.1,"Sleep_Hours":" 6 ","Triglyceride_Level":160,"Fasting_Blood_Sugar":101,"CRP_Level":0,"Homocysteine_Level":12}`
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var raw RawInput
	if err := dec.Decode(&raw); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	input, err := Validate(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if input.Age != 60 || input.BloodPressure != 130.5 || input.SleepHours != 6 || input.CRPLevel != 0 {
		t.Fatalf("unexpected input: %+v", input)
	}
}

func TestAlcoholSynonyms(t *testing.T) {
	cases := map[string]AlcoholLevel{
		"Low":       AlcoholLow,
		"low":       AlcoholLow,
		"  LOW ":    AlcoholLow,
		"bajo":      AlcoholLow,
		"Bajo":      AlcoholLow,
		"Medium":    AlcoholMedium,
		"MEDIO":     AlcoholMedium,
		"\tmedio\n": AlcoholMedium,
		"High":      AlcoholHigh,
		"alto":      AlcoholHigh,
		"ALTO":      AlcoholHigh,
	}
	for label, want := range cases {
		got, err := ParseAlcohol(label)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", label, err)
		}
		if got != want {
			t.Fatalf("%q: expected %s, got %s", label, want, got)
		}
	}
}

func TestAlcoholRejectsUnknown(t *testing.T) {
	for _, value := range []any{"none", "", "lowish", "moderado", 1, true} {
		raw := validRaw()
		raw[FieldAlcohol] = value
		_, err := Validate(raw)
		expectKind(t, err, InvalidCategory, FieldAlcohol)
	}
}

func TestInvalidCategoryNamesValue(t *testing.T) {
	raw := validRaw()
	raw[FieldAlcohol] = "muchisimo"
	_, err := Validate(raw)
	if err == nil || !strings.Contains(err.Error(), "muchisimo") {
		t.Fatalf("expected message naming the value, got %v", err)
	}
}

func TestAgeBoundaries(t *testing.T) {
	for _, age := range []any{0, 120, 45.0, "0", "120"} {
		raw := validRaw()
		raw[FieldAge] = age
		if _, err := Validate(raw); err != nil {
			t.Fatalf("age %v: unexpected error: %v", age, err)
		}
	}
	for _, age := range []any{-1, 121, 45.5, "abc", "121", "", true} {
		raw := validRaw()
		raw[FieldAge] = age
		_, err := Validate(raw)
		expectKind(t, err, InvalidAge, FieldAge)
	}
}

func TestMeasurementsRejectNegative(t *testing.T) {
	for _, m := range measurements {
		raw := validRaw()
		raw[m.field] = -0.5
		_, err := Validate(raw)
		expectKind(t, err, OutOfRange, m.field)

		raw[m.field] = 0.0
		if _, err := Validate(raw); err != nil {
			t.Fatalf("%s = 0: unexpected error: %v", m.field, err)
		}
	}
}

func TestMeasurementsRejectNonNumeric(t *testing.T) {
	for _, value := range []any{"abc", "", "NaN", "Inf", false, []any{1}} {
		raw := validRaw()
		raw[FieldCholesterol] = value
		_, err := Validate(raw)
		expectKind(t, err, NotNumeric, FieldCholesterol)
	}
}

func TestMissingFields(t *testing.T) {
	for _, field := range Fields() {
		raw := validRaw()
		delete(raw, field)
		_, err := Validate(raw)
		expectKind(t, err, MissingField, field)

		raw[field] = nil
		_, err = Validate(raw)
		expectKind(t, err, MissingField, field)
	}
}

func TestMissingAgeFailsWithMissingField(t *testing.T) {
	raw := validRaw()
	delete(raw, FieldAge)
	input, err := Validate(raw)
	expectKind(t, err, MissingField, FieldAge)
	if input != (PatientInput{}) {
		t.Fatalf("expected zero input on failure, got %+v", input)
	}
	if KindOf(err) != MissingField || !KindOf(err).ClientError() {
		t.Fatalf("unexpected kind: %s", KindOf(err))
	}
}

func TestFromFormDropsBlankValues(t *testing.T) {
	values := url.Values{}
	values.Set(FieldAlcohol, "Medium")
	values.Set(FieldAge, "  ")
	values.Set(FieldBMI, "22.5")

	raw := FromForm(values)
	if _, ok := raw[FieldAge]; ok {
		t.Fatalf("blank age must be dropped")
	}
	if raw[FieldBMI] != "22.5" || raw[FieldAlcohol] != "Medium" {
		t.Fatalf("unexpected raw: %v", raw)
	}
	if _, err := Validate(raw); !errors.Is(err, MissingField) {
		t.Fatalf("expected MissingField, got %v", err)
	}
}

func TestFieldsOrder(t *testing.T) {
	fields := Fields()
	if len(fields) != 10 || fields[0] != FieldAlcohol || fields[9] != FieldAge {
		t.Fatalf("unexpected fields: %v", fields)
	}
	if len(NumericColumns()) != 9 {
		t.Fatalf("expected nine numeric columns")
	}
}
