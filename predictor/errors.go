package predictor

import (
	"context"
	"errors"
	"net/http"

	"cardiai/pipeline"
)

// Cancelled marks a request whose context ended before it was evaluated.
const Cancelled pipeline.Kind = "Cancelled"

// RequestError is the only error type Service hands to the transport layer.
type RequestError struct {
	Status int
	Kind   pipeline.Kind
	Detail string
	Err    error
}

func (e *RequestError) Error() string { return e.Detail }

func (e *RequestError) Unwrap() error { return e.Err }

// AsRequestError maps any error to a RequestError. Client kinds become 400,
// everything else 500.
func AsRequestError(err error) *RequestError {
	if err == nil {
		return nil
	}
	var rerr *RequestError
	if errors.As(err, &rerr) {
		return rerr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &RequestError{Status: http.StatusServiceUnavailable, Kind: Cancelled, Detail: "request cancelled", Err: err}
	}

	kind := pipeline.KindOf(err)
	status := http.StatusInternalServerError
	if kind.ClientError() {
		status = http.StatusBadRequest
	}
	if kind == "" {
		kind = pipeline.InferenceFailure
	}
	return &RequestError{Status: status, Kind: kind, Detail: err.Error(), Err: err}
}
