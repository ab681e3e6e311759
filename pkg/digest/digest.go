// Package digest implements the OPC part digester (spec §4.5): given a
// part and a hash algorithm, produce the base64-encoded digest of the
// part's canonicalized form (for XML parts carrying transforms) or of
// its raw bytes otherwise.
package digest

import (
	"crypto"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/vortex/vsixsign/pkg/canon"
	"github.com/vortex/vsixsign/pkg/opc"
)

// isXMLContentType reports whether ct names an XML media type, by the
// same rule a digester needs: the part is "XML" if its MIME type ends
// in "+xml" or is exactly "text/xml" / "application/xml".
func isXMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return strings.HasSuffix(ct, "+xml") || ct == "text/xml" || ct == "application/xml"
}

// Digest computes the digest of part under hash, applying transform (if
// non-nil) when the part's content type is XML. It returns the raw
// digest bytes; callers base64-encode via Base64.
func Digest(part opc.Part, hash crypto.Hash, transform canon.Canonicalizer) ([]byte, error) {
	blob, err := part.Blob()
	if err != nil {
		return nil, fmt.Errorf("digest: reading part %q: %w", part.PartName(), err)
	}

	data := blob
	if transform != nil && isXMLContentType(part.ContentType()) {
		doc := etree.NewDocument()
		doc.ReadSettings.Permissive = true
		if err := doc.ReadFromBytes(blob); err != nil {
			return nil, fmt.Errorf("digest: part %q declares XML content type but does not parse: %w: %w", part.PartName(), opc.ErrMalformedPackage, err)
		}
		data, err = transform.Canonicalize(doc.Root())
		if err != nil {
			return nil, fmt.Errorf("digest: canonicalizing part %q: %w", part.PartName(), err)
		}
	}

	h := hash.New()
	h.Write(data)
	return h.Sum(nil), nil
}

// Base64 base64-encodes a digest for embedding as a DigestValue.
func Base64(sum []byte) string {
	return base64.StdEncoding.EncodeToString(sum)
}

// URI maps a crypto.Hash to its XML-DSig DigestMethod algorithm URI
// (spec §4.6).
func URI(hash crypto.Hash) (string, error) {
	switch hash {
	case crypto.SHA1:
		return "http://www.w3.org/2000/09/xmldsig#sha1", nil
	case crypto.SHA256:
		return "http://www.w3.org/2001/04/xmlenc#sha256", nil
	case crypto.SHA384:
		return "http://www.w3.org/2001/04/xmldsig-more#sha384", nil
	case crypto.SHA512:
		return "http://www.w3.org/2001/04/xmlenc#sha512", nil
	default:
		return "", fmt.Errorf("digest: unsupported hash algorithm %v", hash)
	}
}
