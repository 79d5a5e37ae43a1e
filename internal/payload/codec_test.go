package payload

import (
	"testing"

	"github.com/attendkit/presence/internal/fault"
)

const validID = "11111111-1111-1111-1111-111111111111"

func TestDecodeValid(t *testing.T) {
	p, err := Decode([]byte(`{"location_id":"` + validID + `","secret_token":"abc"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.LocationID() != validID {
		t.Fatalf("expected location id %q, got %q", validID, p.LocationID())
	}
	if p.Credential() != "abc" {
		t.Fatalf("expected credential %q, got %q", "abc", p.Credential())
	}
}

func TestDecodeTrimsWhitespace(t *testing.T) {
	p, err := Decode([]byte(`{"location_id":"  ` + validID + `  ","secret_token":" tok "}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.LocationID() != validID || p.Credential() != "tok" {
		t.Fatalf("expected trimmed fields, got %q / %q", p.LocationID(), p.Credential())
	}
}

func TestDecodeInvalid(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty input", ""},
		{"not json", "hello"},
		{"missing location_id", `{"secret_token":"abc"}`},
		{"missing secret_token", `{"location_id":"` + validID + `"}`},
		{"empty location_id", `{"location_id":"","secret_token":"abc"}`},
		{"whitespace secret_token", `{"location_id":"` + validID + `","secret_token":"   "}`},
		{"non-string location_id", `{"location_id":42,"secret_token":"abc"}`},
		{"non-string secret_token", `{"location_id":"` + validID + `","secret_token":7}`},
		{"unknown key", `{"location_id":"` + validID + `","secret_token":"abc","extra":1}`},
		{"short identifier", `{"location_id":"1111","secret_token":"abc"}`},
		{"non-canonical identifier", `{"location_id":"zzzzzzzz-1111-1111-1111-111111111111","secret_token":"abc"}`},
		{"trailing document", `{"location_id":"` + validID + `","secret_token":"abc"}{}`},
	}
	for _, tc := range cases {
		_, err := Decode([]byte(tc.raw))
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !fault.IsKind(err, fault.PayloadInvalid) {
			t.Fatalf("%s: expected payload_invalid, got %v", tc.name, err)
		}
	}
}

func TestDecodeIsDeterministic(t *testing.T) {
	raw := []byte(`{"location_id":"` + validID + `","secret_token":"abc"}`)
	first, err := Decode(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Decode(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical payloads, got %v and %v", first, second)
	}
}
