package opc

import "errors"

// Sentinel errors forming the package's error taxonomy (spec §7).
var (
	// ErrReadOnly is returned when a mutation is attempted on a package
	// opened in read-only mode.
	ErrReadOnly = errors.New("opc: package is read-only")

	// ErrMalformedPackage is returned when [Content_Types].xml or a
	// .rels part fails to parse or is missing required attributes.
	ErrMalformedPackage = errors.New("opc: malformed package")

	// ErrUnknownContentType is returned when a part's content type
	// cannot be resolved against the Default/Override tables.
	ErrUnknownContentType = errors.New("opc: unknown content type")

	// ErrPartNotFound is returned when a requested part does not exist.
	ErrPartNotFound = errors.New("opc: part not found")

	// ErrNotZipPackage is returned when the opened file is not a ZIP
	// archive at all.
	ErrNotZipPackage = errors.New("opc: not a zip package")
)
