package payload

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/attendkit/presence/internal/fault"
	"github.com/google/uuid"
)

// Payload is the decoded content of a scanned tag: the checkpoint identifier
// and the secret credential bound to it. Immutable after decode.
type Payload struct {
	locationID string
	credential string
}

func (p Payload) LocationID() string { return p.locationID }
func (p Payload) Credential() string { return p.credential }

type wirePayload struct {
	LocationID  *string `json:"location_id"`
	SecretToken *string `json:"secret_token"`
}

// Decode parses and validates a tag's raw text record. Anything that is not
// a JSON object carrying exactly a canonical location identifier and a
// non-empty credential fails with a payload_invalid fault. No I/O.
func Decode(raw []byte) (Payload, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Payload{}, fault.New(fault.PayloadInvalid, "empty tag payload")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var wire wirePayload
	if err := dec.Decode(&wire); err != nil {
		return Payload{}, fault.Wrap(fault.PayloadInvalid, "malformed tag payload", err)
	}
	// A second value after the object means the record is not a single
	// JSON document.
	if dec.More() {
		return Payload{}, fault.New(fault.PayloadInvalid, "trailing data after tag payload")
	}

	if wire.LocationID == nil {
		return Payload{}, fault.New(fault.PayloadInvalid, "missing location_id")
	}
	if wire.SecretToken == nil {
		return Payload{}, fault.New(fault.PayloadInvalid, "missing secret_token")
	}

	locationID := strings.TrimSpace(*wire.LocationID)
	credential := strings.TrimSpace(*wire.SecretToken)
	if locationID == "" {
		return Payload{}, fault.New(fault.PayloadInvalid, "empty location_id")
	}
	if credential == "" {
		return Payload{}, fault.New(fault.PayloadInvalid, "empty secret_token")
	}

	if len(locationID) != 36 {
		return Payload{}, fault.Newf(fault.PayloadInvalid, "location_id %q is not a canonical identifier", locationID)
	}
	if _, err := uuid.Parse(locationID); err != nil {
		return Payload{}, fault.Wrap(fault.PayloadInvalid, "location_id is not a canonical identifier", err)
	}

	return Payload{locationID: locationID, credential: credential}, nil
}
