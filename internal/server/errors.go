package server

import (
	"errors"
	"net/http"

	"github.com/attendkit/presence/internal/attendance/domain"
	"github.com/attendkit/presence/internal/capture"
	"github.com/attendkit/presence/internal/fault"
	"github.com/gin-gonic/gin"
)

// apiError is the wire shape of every non-2xx response.
type apiError struct {
	status   int
	Code     string `json:"code"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
	Guidance string `json:"guidance,omitempty"`
}

func (e *apiError) Error() string { return e.Code + ": " + e.Message }

var ErrNotFound = &apiError{status: http.StatusNotFound, Code: "not_found", Message: "resource not found"}

func invalidRequestError() *apiError {
	return &apiError{status: http.StatusBadRequest, Code: "invalid_request", Message: "request body could not be parsed"}
}

func newValidationError(field, code, message string) *apiError {
	return &apiError{status: http.StatusBadRequest, Code: code, Message: message, Field: field}
}

// faultStatus maps the capture fault taxonomy onto HTTP statuses for the
// local API. Rejections never reach this path; they are 200 responses.
var faultStatus = map[fault.Kind]int{
	fault.TagUnavailable:      http.StatusServiceUnavailable,
	fault.TagReadFailed:       http.StatusGatewayTimeout,
	fault.PayloadInvalid:      http.StatusUnprocessableEntity,
	fault.LocationUnavailable: http.StatusGatewayTimeout,
	fault.Network:             http.StatusBadGateway,
	fault.RateLimited:         http.StatusTooManyRequests,
}

// AbortWithError resolves err to a status code and writes the error envelope.
func AbortWithError(c *gin.Context, err error) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(apiErr.status, gin.H{"error": apiErr})
		return
	}

	switch {
	case errors.Is(err, capture.ErrCaptureInFlight):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": &apiError{
			Code:    "capture_in_flight",
			Message: "a capture flow is already in progress",
		}})
		return
	case errors.Is(err, domain.ErrInvalidLocationID):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": &apiError{
			Code:    "invalid_location_id",
			Message: "location id is missing or malformed",
		}})
		return
	case errors.Is(err, domain.ErrHistoryUnavailable):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": &apiError{
			Code:     "history_unavailable",
			Message:  "no cached history and the validator is unreachable",
			Guidance: fault.Guidance(fault.New(fault.Network, "")),
		}})
		return
	}

	if kind, ok := fault.KindOf(err); ok {
		status, found := faultStatus[kind]
		if !found {
			status = http.StatusInternalServerError
		}
		c.AbortWithStatusJSON(status, gin.H{"error": &apiError{
			Code:     string(kind),
			Message:  err.Error(),
			Guidance: fault.Guidance(err),
		}})
		return
	}

	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": &apiError{
		Code:    "internal",
		Message: "unexpected error",
	}})
}
