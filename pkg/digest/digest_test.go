package digest

import (
	"crypto"
	_ "crypto/sha256"
	"errors"
	"testing"

	"github.com/vortex/vsixsign/pkg/canon"
	"github.com/vortex/vsixsign/pkg/opc"
)

func TestDigest_RawBytesWhenNotXML(t *testing.T) {
	t.Parallel()

	part := opc.NewBasePart(opc.NewPackURI("/image.png"), "image/png", []byte{1, 2, 3, 4})
	sum, err := Digest(part, crypto.SHA256, canon.C14N())
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}

	h := crypto.SHA256.New()
	h.Write([]byte{1, 2, 3, 4})
	want := h.Sum(nil)

	if string(sum) != string(want) {
		t.Error("expected raw-byte digest for a non-XML part even when a transform is supplied")
	}
}

func TestDigest_CanonicalizesXMLBeforeHashing(t *testing.T) {
	t.Parallel()

	blob := []byte(`<Root a="1" b="2"/>`)
	part := opc.NewBasePart(opc.NewPackURI("/part.xml"), "application/xml", blob)

	withTransform, err := Digest(part, crypto.SHA256, canon.C14N())
	if err != nil {
		t.Fatalf("Digest with transform: %v", err)
	}
	withoutTransform, err := Digest(part, crypto.SHA256, nil)
	if err != nil {
		t.Fatalf("Digest without transform: %v", err)
	}

	if string(withTransform) == string(withoutTransform) {
		t.Error("expected canonicalized digest to differ from raw-byte digest")
	}
}

func TestDigest_MalformedDeclaredXMLIsMalformedPackage(t *testing.T) {
	t.Parallel()

	part := opc.NewBasePart(opc.NewPackURI("/broken.xml"), "application/xml", []byte("<unterminated"))
	_, err := Digest(part, crypto.SHA256, canon.C14N())
	if err == nil {
		t.Fatal("expected error for malformed declared-XML part")
	}
	if !errors.Is(err, opc.ErrMalformedPackage) {
		t.Errorf("expected ErrMalformedPackage, got %v", err)
	}
}

func TestURI_MapsAllSupportedHashes(t *testing.T) {
	t.Parallel()

	for _, h := range []crypto.Hash{crypto.SHA1, crypto.SHA256, crypto.SHA384, crypto.SHA512} {
		if _, err := URI(h); err != nil {
			t.Errorf("URI(%v): %v", h, err)
		}
	}
}
