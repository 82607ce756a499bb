package pipeline

import "fmt"

// ReferenceRange describes the accepted form bounds and the typical clinical
// range of one measurement. Ranges are advisory: Validate never enforces them.
type ReferenceRange struct {
	Field      string
	Label      string
	Unit       string
	FormMin    float64
	FormMax    float64
	TypicalMin *float64
	TypicalMax *float64
}

// Advisory is a soft warning shown next to a prediction.
type Advisory struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func ptr(f float64) *float64 {
	return &f
}

// ReferenceRanges returns the ranges in form display order.
func ReferenceRanges() []ReferenceRange {
	return []ReferenceRange{
		{Field: FieldAge, Label: "Age", Unit: "years", FormMin: 1, FormMax: 120},
		{Field: FieldBMI, Label: "Body mass index", Unit: "kg/m²", FormMin: 10, FormMax: 60,
			TypicalMin: ptr(18.5), TypicalMax: ptr(24.9)},
		{Field: FieldSleepHours, Label: "Sleep", Unit: "hours/day", FormMin: 0, FormMax: 24,
			TypicalMin: ptr(6), TypicalMax: ptr(9)},
		{Field: FieldBloodPressure, Label: "Systolic blood pressure", Unit: "mmHg", FormMin: 50, FormMax: 250,
			TypicalMin: ptr(90), TypicalMax: ptr(120)},
		{Field: FieldFastingBloodSugar, Label: "Fasting blood sugar", Unit: "mg/dL", FormMin: 50, FormMax: 400,
			TypicalMin: ptr(70), TypicalMax: ptr(100)},
		{Field: FieldCholesterol, Label: "Total cholesterol", Unit: "mg/dL", FormMin: 100, FormMax: 400,
			TypicalMax: ptr(200)},
		{Field: FieldTriglyceride, Label: "Triglycerides", Unit: "mg/dL", FormMin: 30, FormMax: 500,
			TypicalMax: ptr(150)},
		{Field: FieldHomocysteine, Label: "Homocysteine", Unit: "µmol/L", FormMin: 1, FormMax: 50,
			TypicalMin: ptr(5), TypicalMax: ptr(15)},
		{Field: FieldCRP, Label: "C-reactive protein", Unit: "mg/L", FormMin: 0.1, FormMax: 50,
			TypicalMax: ptr(3)},
	}
}

// Advise compares validated input against the reference ranges.
func Advise(input PatientInput) []Advisory {
	values := map[string]float64{FieldAge: float64(input.Age)}
	allZero := input.Age == 0
	for _, m := range measurements {
		v := *m.ref(&input)
		values[m.field] = v
		allZero = allZero && v == 0
	}
	if allZero {
		return []Advisory{{Message: "all values are zero; enter the patient's measurements"}}
	}

	var advisories []Advisory
	if input.Age == 0 {
		advisories = append(advisories, Advisory{Field: FieldAge, Message: "age is zero; enter the patient's age"})
	}
	for _, r := range ReferenceRanges() {
		v := values[r.Field]
		switch {
		case r.Field == FieldAge:
			// age zero is reported above; the form bounds cover the rest
			if v > r.FormMax {
				advisories = append(advisories, outsideForm(r, v))
			}
		case v < r.FormMin || v > r.FormMax:
			advisories = append(advisories, outsideForm(r, v))
		case r.TypicalMin != nil && v < *r.TypicalMin, r.TypicalMax != nil && v > *r.TypicalMax:
			advisories = append(advisories, Advisory{
				Field:   r.Field,
				Message: fmt.Sprintf("%s %g %s is outside the typical range %s", r.Label, v, r.Unit, r.Typical()),
			})
		}
	}
	return advisories
}

func outsideForm(r ReferenceRange, v float64) Advisory {
	return Advisory{
		Field:   r.Field,
		Message: fmt.Sprintf("%s %g %s is outside the expected range %g-%g", r.Label, v, r.Unit, r.FormMin, r.FormMax),
	}
}

// Typical renders the typical range, or "" when none is known.
func (r ReferenceRange) Typical() string {
	switch {
	case r.TypicalMin != nil && r.TypicalMax != nil:
		return fmt.Sprintf("%g-%g", *r.TypicalMin, *r.TypicalMax)
	case r.TypicalMax != nil:
		return fmt.Sprintf("<%g", *r.TypicalMax)
	case r.TypicalMin != nil:
		return fmt.Sprintf(">%g", *r.TypicalMin)
	}
	return ""
}
