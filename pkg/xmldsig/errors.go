package xmldsig

import "errors"

// Sentinel errors for the signature builder and enumerator/remover
// (spec §4.6, §4.7, §7).
var (
	// ErrReadOnlyPackage mirrors opc.ErrReadOnly at the signing layer.
	ErrReadOnlyPackage = errors.New("xmldsig: package is read-only")

	// ErrNoReferencesEnqueued is returned by Sign when no preset (or an
	// empty preset) was enqueued before signing.
	ErrNoReferencesEnqueued = errors.New("xmldsig: no references enqueued")

	// ErrUnknownContentType names the unknown-content-type kind at the
	// signing layer. No function in this package returns it: a part
	// whose content type cannot be resolved makes opc.OpenBytes /
	// opc.OpenFile fail with opc.ErrUnknownContentType.
	ErrUnknownContentType = errors.New("xmldsig: unknown content type")

	// ErrInvalidOperation is returned by the error-returning methods of
	// a Signature handle whose underlying part has been removed
	// (spec §4.7).
	ErrInvalidOperation = errors.New("xmldsig: invalid operation on removed signature")
)
