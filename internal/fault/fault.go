package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a capture failure. Rejections from the validator are not
// faults; they are valid outcomes and never appear here.
type Kind string

const (
	TagUnavailable      Kind = "tag_unavailable"
	TagReadFailed       Kind = "tag_read_failed"
	PayloadInvalid      Kind = "payload_invalid"
	LocationUnavailable Kind = "location_unavailable"
	Network             Kind = "network_error"
	RateLimited         Kind = "rate_limited"
)

// Fault is a typed capture error. The orchestrator maps every step failure to
// exactly one Fault and decides retry behavior from its kind.
type Fault struct {
	kind  Kind
	msg   string
	cause error
}

// New builds a fault with a human-readable cause.
func New(kind Kind, msg string) *Fault {
	return &Fault{kind: kind, msg: msg}
}

// Newf builds a fault with a formatted cause.
func Newf(kind Kind, format string, args ...any) *Fault {
	return &Fault{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap builds a fault around an underlying error.
func Wrap(kind Kind, msg string, cause error) *Fault {
	return &Fault{kind: kind, msg: msg, cause: cause}
}

func (f *Fault) Error() string {
	if f.cause != nil {
		return fmt.Sprintf("%s: %s: %v", f.kind, f.msg, f.cause)
	}
	return fmt.Sprintf("%s: %s", f.kind, f.msg)
}

func (f *Fault) Unwrap() error { return f.cause }

// Kind returns the taxonomy classification.
func (f *Fault) Kind() Kind { return f.kind }

// KindOf extracts the fault kind from an error chain.
func KindOf(err error) (Kind, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f.kind, true
	}
	return "", false
}

// IsKind reports whether err carries the given fault kind.
func IsKind(err error, kind Kind) bool {
	got, ok := KindOf(err)
	return ok && got == kind
}

// Retryable reports whether the error may be retried automatically. Only
// transport-level failures qualify; everything else is terminal.
func Retryable(err error) bool {
	return IsKind(err, Network)
}

var guidance = map[Kind]string{
	TagUnavailable:      "Tag scanning is disabled or unsupported on this device. Enable NFC and try again.",
	TagReadFailed:       "The tag could not be read. Hold the device steady against the tag and scan again.",
	PayloadInvalid:      "This tag does not carry a valid checkpoint payload. Contact your administrator.",
	LocationUnavailable: "Your location could not be determined. Check location permissions and GPS signal.",
	Network:             "The server could not be reached. Check your connection and try again.",
	RateLimited:         "Too many attempts in a short period. Wait a moment before trying again.",
}

// Guidance returns user-facing guidance for a fault, keyed by its kind.
func Guidance(err error) string {
	if kind, ok := KindOf(err); ok {
		if text, ok := guidance[kind]; ok {
			return text
		}
	}
	return "Something went wrong. Try again."
}
