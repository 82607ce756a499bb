package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"cardiai/pipeline"
	"cardiai/predictor"
)

//go:embed templates/form.html
var templateFS embed.FS

var formTemplate = template.Must(template.ParseFS(templateFS, "templates/form.html"))

var recommendations = map[int][]string{
	1: {
		"See a cardiologist as soon as possible",
		"Keep blood pressure under regular control",
		"Consider changes to lifestyle habits",
		"Schedule periodic medical check-ups",
	},
	0: {
		"Keep a balanced diet",
		"Stay physically active",
		"Have a yearly medical check-up",
		"Keep monitoring your health indicators",
	},
}

type formField struct {
	Name    string
	Label   string
	Unit    string
	Min     float64
	Max     float64
	Typical string
	Step    string
	Value   string
}

type formView struct {
	AlcoholLevels   []pipeline.AlcoholLevel
	Alcohol         string
	Fields          []formField
	Error           string
	Result          *predictor.Result
	Confidence      string
	Recommendations []string
	Advisories      []pipeline.Advisory
}

func newFormView(r *http.Request) *formView {
	view := &formView{
		AlcoholLevels: pipeline.AlcoholLevels(),
		Alcohol:       string(pipeline.AlcoholLow),
	}
	if r.PostForm != nil {
		if v := strings.TrimSpace(r.PostForm.Get(pipeline.FieldAlcohol)); v != "" {
			view.Alcohol = v
		}
	}
	for _, ref := range pipeline.ReferenceRanges() {
		field := formField{
			Name:    ref.Field,
			Label:   ref.Label,
			Unit:    ref.Unit,
			Min:     ref.FormMin,
			Max:     ref.FormMax,
			Typical: ref.Typical(),
			Step:    "any",
		}
		if ref.Field == pipeline.FieldAge {
			field.Step = "1"
		}
		if r.PostForm != nil {
			field.Value = r.PostForm.Get(ref.Field)
		}
		view.Fields = append(view.Fields, field)
	}
	return view
}

func (h *Handlers) handleForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, newFormView(r))
}

func (h *Handlers) handleFormSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		view := newFormView(r)
		view.Error = "could not read the submitted form: " + err.Error()
		h.renderForm(w, r, http.StatusBadRequest, view)
		return
	}
	view := newFormView(r)

	result, err := h.service.Predict(r.Context(), pipeline.FromForm(r.PostForm))
	if err != nil {
		rerr := predictor.AsRequestError(err)
		if rerr.Status >= http.StatusInternalServerError {
			h.logger.Error("form prediction failed",
				zap.String("request_id", GetRequestID(r.Context())),
				zap.Error(err),
			)
		}
		view.Error = rerr.Detail
		h.renderForm(w, r, rerr.Status, view)
		return
	}

	view.Result = result
	view.Confidence = fmt.Sprintf("%.1f%%", result.Confidence*100)
	view.Recommendations = recommendations[result.Prediction]
	view.Advisories = pipeline.Advise(result.Input)
	h.renderForm(w, r, http.StatusOK, view)
}

func (h *Handlers) renderForm(w http.ResponseWriter, r *http.Request, status int, view *formView) {
	var buf bytes.Buffer
	if err := formTemplate.Execute(&buf, view); err != nil {
		h.logger.Error("render form",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.Error(err),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
