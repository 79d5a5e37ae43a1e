package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/attendkit/presence/internal/attendance/domain"
	"github.com/attendkit/presence/internal/config"
	"github.com/attendkit/presence/internal/fault"
	"github.com/attendkit/presence/internal/geo"
	"github.com/attendkit/presence/internal/observability/tracing"
	"github.com/attendkit/presence/internal/payload"
	"go.uber.org/zap"
)

// Client is the boundary to the remote validator. Transport-level failures
// map to network faults; a well-formed rejection is a successful round trip,
// not an error.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	timeout time.Duration
	log     *zap.Logger
}

func NewClient(cfg config.Config, log *zap.Logger) *Client {
	return &Client{
		http:    tracing.WrapHTTPClient(&http.Client{}),
		baseURL: cfg.RemoteBaseURL,
		token:   cfg.DeviceToken,
		timeout: cfg.SubmitTimeout,
		log:     log.Named("remote"),
	}
}

type submitRequest struct {
	LocationID string  `json:"locationId"`
	Credential string  `json:"credential"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

type outcomeResponse struct {
	Status     string    `json:"status"`
	ReasonCode string    `json:"reasonCode,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// SubmitAttempt sends one validation request. The remote procedure is
// idempotent per physical attempt, so repeating an identical request after a
// timeout cannot double-count presence.
func (c *Client) SubmitAttempt(ctx context.Context, p payload.Payload, coord geo.Coordinate) (domain.AttemptOutcome, error) {
	body := submitRequest{
		LocationID: p.LocationID(),
		Credential: p.Credential(),
		Latitude:   coord.Latitude(),
		Longitude:  coord.Longitude(),
	}

	var resp outcomeResponse
	if err := c.do(ctx, http.MethodPost, "/v1/attempts", body, &resp); err != nil {
		return domain.AttemptOutcome{}, err
	}

	outcome := domain.AttemptOutcome{
		Status:     domain.Status(resp.Status),
		ReasonCode: domain.ReasonCode(resp.ReasonCode),
		OccurredAt: resp.OccurredAt,
	}
	switch outcome.Status {
	case domain.StatusAccepted:
		outcome.ReasonCode = ""
	case domain.StatusRejected:
		if resp.ReasonCode == "" {
			return domain.AttemptOutcome{}, fault.New(fault.Network, "rejection response missing reasonCode")
		}
		if !outcome.ReasonCode.Known() {
			c.log.Warn("unknown rejection reason code", zap.String("reason_code", resp.ReasonCode))
		}
	default:
		return domain.AttemptOutcome{}, fault.Newf(fault.Network, "unexpected outcome status %q", resp.Status)
	}
	return outcome, nil
}

// FetchHistory reads the authenticated identity's attendance records.
func (c *Client) FetchHistory(ctx context.Context) ([]domain.HistoryRecord, error) {
	var resp struct {
		Data []domain.HistoryRecord `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/attempts", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// FetchLocationMeta reads checkpoint metadata by identifier.
func (c *Client) FetchLocationMeta(ctx context.Context, id string) (*domain.LocationMeta, error) {
	var resp struct {
		Data domain.LocationMeta `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/locations/"+id, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fault.Wrap(fault.Network, "encode request", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fault.Wrap(fault.Network, "build request", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fault.Wrap(fault.Network, fmt.Sprintf("%s %s", method, path), err)
	}
	defer resp.Body.Close()

	c.log.Debug("validator call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fault.New(fault.RateLimited, "validator cooldown active")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fault.Newf(fault.Network, "%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fault.Wrap(fault.Network, "decode response", err)
	}
	return nil
}
