package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/attendkit/presence/internal/attendance/domain"
	"github.com/attendkit/presence/internal/config"
	"github.com/attendkit/presence/internal/fault"
	"github.com/attendkit/presence/internal/geo"
	"github.com/attendkit/presence/internal/payload"
	"go.uber.org/zap"
)

const validID = "11111111-1111-1111-1111-111111111111"

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(config.Config{
		RemoteBaseURL: srv.URL,
		DeviceToken:   "device-token",
		SubmitTimeout: 2 * time.Second,
	}, zap.NewNop())
	return client, srv
}

func testPayload(t *testing.T) payload.Payload {
	t.Helper()
	p, err := payload.Decode([]byte(`{"location_id":"` + validID + `","secret_token":"abc"}`))
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return p
}

func testCoordinate(t *testing.T) geo.Coordinate {
	t.Helper()
	coord, err := geo.New(37.7749, -122.4194, 5.0)
	if err != nil {
		t.Fatalf("new coordinate: %v", err)
	}
	return coord
}

func TestSubmitAttemptAccepted(t *testing.T) {
	var gotReq map[string]any
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/attempts" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer device-token" {
			t.Errorf("unexpected authorization header %q", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":     "ACCEPTED",
			"occurredAt": "2025-01-01T10:00:00Z",
		})
	}))

	outcome, err := client.SubmitAttempt(context.Background(), testPayload(t), testCoordinate(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.Accepted() {
		t.Fatalf("expected accepted outcome, got %+v", outcome)
	}
	if gotReq["locationId"] != validID || gotReq["credential"] != "abc" {
		t.Fatalf("unexpected request body: %v", gotReq)
	}
	if gotReq["latitude"] != 37.7749 || gotReq["longitude"] != -122.4194 {
		t.Fatalf("unexpected coordinates in request: %v", gotReq)
	}
}

func TestSubmitAttemptRejectedIsOutcomeNotError(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":     "REJECTED",
			"reasonCode": "outside_geofence",
			"occurredAt": "2025-01-01T10:00:00Z",
		})
	}))

	outcome, err := client.SubmitAttempt(context.Background(), testPayload(t), testCoordinate(t))
	if err != nil {
		t.Fatalf("rejection must not be an error, got %v", err)
	}
	if outcome.Status != domain.StatusRejected {
		t.Fatalf("expected rejected status, got %q", outcome.Status)
	}
	if outcome.ReasonCode != domain.ReasonOutsideGeofence {
		t.Fatalf("expected outside_geofence, got %q", outcome.ReasonCode)
	}
}

func TestSubmitAttemptRejectionWithoutReasonIsNetworkFault(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":     "REJECTED",
			"occurredAt": "2025-01-01T10:00:00Z",
		})
	}))

	_, err := client.SubmitAttempt(context.Background(), testPayload(t), testCoordinate(t))
	if !fault.IsKind(err, fault.Network) {
		t.Fatalf("expected network fault, got %v", err)
	}
}

func TestSubmitAttemptRateLimited(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := client.SubmitAttempt(context.Background(), testPayload(t), testCoordinate(t))
	if !fault.IsKind(err, fault.RateLimited) {
		t.Fatalf("expected rate_limited fault, got %v", err)
	}
	if fault.Retryable(err) {
		t.Fatalf("rate_limited must not be retryable")
	}
}

func TestSubmitAttemptServerErrorIsNetworkFault(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.SubmitAttempt(context.Background(), testPayload(t), testCoordinate(t))
	if !fault.IsKind(err, fault.Network) {
		t.Fatalf("expected network fault, got %v", err)
	}
	if !fault.Retryable(err) {
		t.Fatalf("network faults must be retryable")
	}
}

func TestSubmitAttemptConnectionRefused(t *testing.T) {
	client, srv := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := client.SubmitAttempt(context.Background(), testPayload(t), testCoordinate(t))
	if !fault.IsKind(err, fault.Network) {
		t.Fatalf("expected network fault, got %v", err)
	}
}

func TestSubmitAttemptTimeout(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	client.timeout = 20 * time.Millisecond

	_, err := client.SubmitAttempt(context.Background(), testPayload(t), testCoordinate(t))
	if !fault.IsKind(err, fault.Network) {
		t.Fatalf("expected network fault on timeout, got %v", err)
	}
}

func TestFetchHistory(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/attempts" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"id": "r1", "location_id": validID, "status": "ACCEPTED", "occurred_at": "2025-01-01T10:00:00Z"},
			},
		})
	}))

	records, err := client.FetchHistory(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].ID != "r1" || records[0].Status != domain.StatusAccepted {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestFetchLocationMeta(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/locations/"+validID {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"id": validID, "name": "North Gate", "building": "B1"},
		})
	}))

	meta, err := client.FetchLocationMeta(context.Background(), validID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.Name != "North Gate" || meta.Building != "B1" {
		t.Fatalf("unexpected meta: %+v", meta)
	}
}
