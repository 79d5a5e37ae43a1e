package logger

import "testing"

func TestMaskSecret(t *testing.T) {
	got := MaskSecret("s3cr3t-credential")
	want := "****tial"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestMaskSecretShort(t *testing.T) {
	got := MaskSecret("abc")
	want := "****abc"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestMaskAuthorization(t *testing.T) {
	got := MaskAuthorization("Bearer abcdef1234")
	want := "Bearer ****1234"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestMaskAuthorizationBareToken(t *testing.T) {
	got := MaskAuthorization("abcdef1234")
	want := "****1234"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
