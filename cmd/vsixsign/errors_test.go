package main

import (
	"crypto"
	"errors"
	"testing"
)

func TestParseDigestAlgorithm_KnownNames(t *testing.T) {
	t.Parallel()

	cases := map[string]crypto.Hash{
		"sha1":   crypto.SHA1,
		"sha256": crypto.SHA256,
		"sha384": crypto.SHA384,
		"sha512": crypto.SHA512,
	}
	for name, want := range cases {
		got, err := parseDigestAlgorithm(name)
		if err != nil {
			t.Errorf("parseDigestAlgorithm(%q): %v", name, err)
		}
		if got != want {
			t.Errorf("parseDigestAlgorithm(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestParseDigestAlgorithm_UnknownNameIsValidationError(t *testing.T) {
	t.Parallel()

	_, err := parseDigestAlgorithm("md5")
	if err == nil {
		t.Fatal("expected an error for an unsupported digest algorithm")
	}
	var ve *validationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *validationError, got %T", err)
	}
}

func TestExitCodeFor(t *testing.T) {
	t.Parallel()

	if code := exitCodeFor(nil); code != 0 {
		t.Errorf("exitCodeFor(nil) = %d, want 0", code)
	}
	if code := exitCodeFor(&validationError{msg: "bad flag"}); code != 1 {
		t.Errorf("exitCodeFor(validationError) = %d, want 1", code)
	}
	if code := exitCodeFor(errors.New("some crypto or I/O failure")); code != 2 {
		t.Errorf("exitCodeFor(generic error) = %d, want 2", code)
	}
}
