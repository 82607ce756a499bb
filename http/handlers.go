package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"cardiai/artifacts"
	"cardiai/pipeline"
	"cardiai/predictor"
)

const (
	ServiceName    = "Heart Disease Prediction API"
	ServiceVersion = "1.0"
)

// Error kinds raised by the transport itself.
const (
	kindInvalidRequest = "InvalidRequest"
	kindRateLimited    = "RateLimited"
	kindInternal       = "Internal"
)

type Handlers struct {
	service *predictor.Service
	logger  *zap.Logger
}

func NewHandlers(service *predictor.Service, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{service: service, logger: logger}
}

func RegisterHandlers(mux *http.ServeMux, h *Handlers) {
	mux.HandleFunc("GET /{$}", h.handleRoot)
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /health/{$}", h.handleHealth)
	mux.HandleFunc("POST /predict", h.handlePredict)
	mux.HandleFunc("POST /predict/{$}", h.handlePredict)
	mux.HandleFunc("POST /predict/debug", h.handlePredictDebug)
	mux.HandleFunc("POST /predict/debug/{$}", h.handlePredictDebug)
	mux.HandleFunc("GET /metrics", h.handleMetrics)
	mux.HandleFunc("GET /app", h.handleForm)
	mux.HandleFunc("POST /app", h.handleFormSubmit)
}

type errorResponse struct {
	Detail string `json:"detail"`
	Error  string `json:"error,omitempty"`
}

type artifactsStatus = artifacts.Status

type healthResponse struct {
	Status string `json:"status"`
	artifactsStatus
}

func (h *Handlers) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": ServiceName,
		"version": ServiceVersion,
		"endpoints": map[string]string{
			"/predict/":       "POST - run a prediction",
			"/predict/debug/": "POST - run a prediction and return every pipeline step",
			"/health/":        "GET - health check",
			"/metrics":        "GET - prediction metrics",
			"/app":            "GET - web form",
		},
	})
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:          "healthy",
		artifactsStatus: h.service.Artifacts().Status(),
	})
}

func (h *Handlers) handlePredict(w http.ResponseWriter, r *http.Request) {
	raw, ok := decodeRaw(w, r)
	if !ok {
		return
	}
	result, err := h.service.Predict(r.Context(), raw)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) handlePredictDebug(w http.ResponseWriter, r *http.Request) {
	raw, ok := decodeRaw(w, r)
	if !ok {
		return
	}
	result, err := h.service.PredictDebug(r.Context(), raw)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Metrics().Snapshot())
}

// decodeRaw reads the JSON body. Numbers stay json.Number so the validator
// sees exactly what the client sent.
func decodeRaw(w http.ResponseWriter, r *http.Request) (pipeline.RawInput, bool) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var raw pipeline.RawInput
	if err := dec.Decode(&raw); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, kindInvalidRequest, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return nil, false
		}
		writeError(w, http.StatusBadRequest, kindInvalidRequest, "invalid JSON body: "+err.Error())
		return nil, false
	}
	return raw, true
}

func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	rerr := predictor.AsRequestError(err)
	if rerr.Status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.String("kind", string(rerr.Kind)),
			zap.Error(err),
		)
	}
	writeError(w, rerr.Status, string(rerr.Kind), rerr.Detail)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail, Error: kind})
}
