package main

import "crypto"

// validationError marks a failure in the caller's input (a missing or
// bad flag value, an unreadable certificate file, an unsupported
// algorithm) that should exit 1. Anything else — crypto, I/O including
// a package that cannot be opened, transport — exits 2.
type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }

func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if _, ok := err.(*validationError); ok {
		return 1
	}
	return 2
}

var digestAlgorithms = map[string]crypto.Hash{
	"sha1":   crypto.SHA1,
	"sha256": crypto.SHA256,
	"sha384": crypto.SHA384,
	"sha512": crypto.SHA512,
}

func parseDigestAlgorithm(name string) (crypto.Hash, error) {
	h, ok := digestAlgorithms[name]
	if !ok {
		return 0, &validationError{msg: "unsupported digest algorithm: " + name + " (want sha1, sha256, sha384, or sha512)"}
	}
	return h, nil
}
