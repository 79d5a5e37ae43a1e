package server

import (
	"net/http"

	"github.com/attendkit/presence/internal/fault"
	"github.com/attendkit/presence/internal/location"
	"github.com/gin-gonic/gin"
)

type flowResponse struct {
	FlowID  string         `json:"flow_id,omitempty"`
	State   string         `json:"state"`
	Outcome any            `json:"outcome,omitempty"`
	Error   *flowErrorBody `json:"error,omitempty"`
}

type flowErrorBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Guidance string `json:"guidance"`
}

// StartCapture launches a new capture flow. At most one flow may be in
// flight; a second request is rejected with 409 and the active flow is left
// untouched.
func (s *Server) StartCapture(c *gin.Context) {
	if !s.limiter.Allow(s.rateKey()) {
		AbortWithError(c, fault.New(fault.RateLimited, "capture start rate exceeded"))
		return
	}

	id, err := s.manager.Start()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	_, state := s.manager.State()
	c.JSON(http.StatusAccepted, gin.H{"data": flowResponse{
		FlowID: id.String(),
		State:  string(state),
	}})
}

// CaptureStatus reports the active flow, or the last terminal result when no
// flow is running.
func (s *Server) CaptureStatus(c *gin.Context) {
	id, state := s.manager.State()

	resp := flowResponse{State: string(state)}
	if id != 0 {
		resp.FlowID = id.String()
	}

	if state.Terminal() {
		outcome, err := s.manager.LastResult()
		if outcome != nil {
			resp.Outcome = outcome
		}
		if err != nil {
			body := &flowErrorBody{Message: err.Error(), Guidance: fault.Guidance(err)}
			if kind, ok := fault.KindOf(err); ok {
				body.Code = string(kind)
			} else {
				body.Code = "capture_cancelled"
				body.Guidance = "The check-in was cancelled."
			}
			resp.Error = body
		}
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// CancelCapture requests cooperative cancellation of the active flow.
func (s *Server) CancelCapture(c *gin.Context) {
	cancelled := s.manager.Cancel()
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"cancelled": cancelled}})
}

// PushTag feeds a scanned tag record into the awaiting flow. The body is the
// raw text record; validation happens in the decode step.
func (s *Server) PushTag(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if len(raw) == 0 {
		AbortWithError(c, newValidationError("body", "required", "tag record body is required"))
		return
	}

	s.tags.Push(raw)
	c.JSON(http.StatusAccepted, gin.H{"status": "ok"})
}

// PushFix feeds a position fix into the awaiting flow. Out-of-range values
// are rejected at this boundary.
func (s *Server) PushFix(c *gin.Context) {
	var fix location.Fix
	if err := c.ShouldBindJSON(&fix); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.fixes.Push(fix); err != nil {
		AbortWithError(c, newValidationError("coordinates", "out_of_range", err.Error()))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "ok"})
}

// rateKey identifies this device for the capture-start limiter. The API is
// device-local, so a single key per configured device identity suffices.
func (s *Server) rateKey() string {
	if s.cfg.DeviceID != "" {
		return s.cfg.DeviceID
	}
	return "local"
}
