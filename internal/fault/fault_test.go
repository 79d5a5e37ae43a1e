package fault

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfWrappedChain(t *testing.T) {
	inner := Wrap(Network, "submit attempt", errors.New("connection refused"))
	outer := fmt.Errorf("capture flow: %w", inner)

	kind, ok := KindOf(outer)
	if !ok {
		t.Fatalf("expected fault kind in chain")
	}
	if kind != Network {
		t.Fatalf("expected %q, got %q", Network, kind)
	}
}

func TestRetryableOnlyNetwork(t *testing.T) {
	cases := []struct {
		kind Kind
		want bool
	}{
		{TagUnavailable, false},
		{TagReadFailed, false},
		{PayloadInvalid, false},
		{LocationUnavailable, false},
		{Network, true},
		{RateLimited, false},
	}
	for _, tc := range cases {
		if got := Retryable(New(tc.kind, "x")); got != tc.want {
			t.Fatalf("Retryable(%s) = %v, want %v", tc.kind, got, tc.want)
		}
	}
}

func TestRetryableNonFault(t *testing.T) {
	if Retryable(errors.New("plain")) {
		t.Fatalf("plain errors must not be retryable")
	}
}

func TestGuidanceKnownKinds(t *testing.T) {
	for _, kind := range []Kind{TagUnavailable, TagReadFailed, PayloadInvalid, LocationUnavailable, Network, RateLimited} {
		if Guidance(New(kind, "x")) == "" {
			t.Fatalf("expected guidance for %s", kind)
		}
	}
	if Guidance(errors.New("plain")) == "" {
		t.Fatalf("expected fallback guidance")
	}
}
