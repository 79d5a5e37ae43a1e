package domain

import "time"

// Status is the validator's verdict on a submitted attempt.
type Status string

const (
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
)

// ReasonCode explains why the validator rejected a submission. The set is
// fixed by the remote contract.
type ReasonCode string

const (
	ReasonOutsideGeofence   ReasonCode = "outside_geofence"
	ReasonInvalidToken      ReasonCode = "invalid_token"
	ReasonDeviceMismatch    ReasonCode = "device_mismatch"
	ReasonEmailNotVerified  ReasonCode = "email_not_verified"
	ReasonRateLimitExceeded ReasonCode = "rate_limit_exceeded"
)

// Known reports whether the code belongs to the fixed enumeration.
func (r ReasonCode) Known() bool {
	switch r {
	case ReasonOutsideGeofence, ReasonInvalidToken, ReasonDeviceMismatch,
		ReasonEmailNotVerified, ReasonRateLimitExceeded:
		return true
	}
	return false
}

var reasonGuidance = map[ReasonCode]string{
	ReasonOutsideGeofence:   "You are too far from the checkpoint. Move closer and scan again.",
	ReasonInvalidToken:      "This tag is no longer valid. Contact your administrator.",
	ReasonDeviceMismatch:    "Your account is bound to a different device.",
	ReasonEmailNotVerified:  "Verify your email address before checking in.",
	ReasonRateLimitExceeded: "Too many check-ins in a short period. Wait a moment before trying again.",
}

// Guidance returns user-facing text for a rejection reason.
func (r ReasonCode) Guidance() string {
	if text, ok := reasonGuidance[r]; ok {
		return text
	}
	return "The check-in was rejected."
}

// AttemptOutcome is the verdict of a single completed submission. Produced
// exactly once per round trip; never mutated.
type AttemptOutcome struct {
	Status     Status     `json:"status"`
	ReasonCode ReasonCode `json:"reason_code,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// Accepted reports whether the attempt was accepted.
func (o AttemptOutcome) Accepted() bool { return o.Status == StatusAccepted }

// HistoryRecord is a persisted attempt outcome enriched with identity,
// location and display fields. Owned by the cache store once persisted;
// read-only everywhere else.
type HistoryRecord struct {
	ID         string     `json:"id"`
	LocationID string     `json:"location_id"`
	Status     Status     `json:"status"`
	ReasonCode ReasonCode `json:"reason_code,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`

	// Denormalized display fields, filled in by the server or joined from
	// cached location metadata at read time.
	LocationName string `json:"location_name,omitempty"`
	Building     string `json:"building,omitempty"`
}

// LocationMeta describes a presence checkpoint.
type LocationMeta struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Building  string  `json:"building,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
