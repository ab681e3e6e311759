package xmldsig

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/vortex/vsixsign/pkg/opc"
)

// Signature is a handle on one existing (or freshly produced) signature
// part. Modeled as (package, part reference) rather than two-way
// ownership, per spec §9's cyclic-ownership note: once Remove clears
// the part reference, SignatureValueBytes, AppendTimestampObject and
// Remove fail with ErrInvalidOperation, Valid reports false, PartName
// returns "" and Element returns nil (spec §4.7).
type Signature struct {
	pkg        *opc.Package
	part       opc.Part
	id         string
	originPart opc.Part
	rel        *opc.Relationship
}

// Valid reports whether the handle still refers to a live signature
// part.
func (s *Signature) Valid() bool { return s.part != nil }

// PartName returns the signature part's name, or "" once removed.
func (s *Signature) PartName() opc.PackURI {
	if !s.Valid() {
		return ""
	}
	return s.part.PartName()
}

// Element returns the root <Signature> element. A signature part read
// back from an archive is held as a BasePart; on first use it is parsed
// into an XmlPart, which replaces it in a ReadWrite package.
func (s *Signature) Element() *etree.Element {
	if !s.Valid() {
		return nil
	}
	xp, ok := s.part.(*opc.XmlPart)
	if !ok {
		blob, err := s.part.Blob()
		if err != nil {
			return nil
		}
		if xp, err = opc.NewXmlPart(s.part.PartName(), s.part.ContentType(), blob); err != nil {
			return nil
		}
		xp.SetRels(s.part.Rels())
		_ = s.pkg.AddPart(xp) // ErrReadOnly on a read-only package, where the parsed part stays local
		s.part = xp
	}
	return xp.Element()
}

// SignatureValueBytes decodes and returns the raw SignatureValue bytes,
// the input to the timestamp builder (spec §4.8 step 1).
func (s *Signature) SignatureValueBytes() ([]byte, error) {
	if !s.Valid() {
		return nil, ErrInvalidOperation
	}
	el := s.Element()
	sv := el.FindElement("SignatureValue")
	if sv == nil {
		return nil, fmt.Errorf("xmldsig: signature part %q has no SignatureValue", s.part.PartName())
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(sv.Text()))
}

// AppendTimestampObject embeds tokenDER, base64-encoded, as an unsigned
// XML-DSig property (spec §4.8 step 7). It is the one mutation allowed
// after signing that does not touch SignedInfo or SignatureValue.
func (s *Signature) AppendTimestampObject(tokenDER []byte) error {
	if !s.Valid() {
		return ErrInvalidOperation
	}
	el := s.Element()
	if el == nil {
		return fmt.Errorf("xmldsig: signature part %q has no parsed element", s.part.PartName())
	}

	obj := el.CreateElement("Object")
	qp := obj.CreateElement("xd:QualifyingProperties")
	qp.CreateAttr("xmlns:xd", NSXD)
	qp.CreateAttr("Target", "#"+s.id)
	up := qp.CreateElement("xd:UnsignedProperties")
	usp := up.CreateElement("xd:UnsignedSignatureProperties")
	ts := usp.CreateElement("xd:SignatureTimeStamp")
	enc := ts.CreateElement("xd:EncapsulatedTimeStamp")
	enc.SetText(base64.StdEncoding.EncodeToString(tokenDER))

	return nil
}

// Signatures enumerates every signature the package's signature-origin
// part currently points at (spec §4.7).
func Signatures(pkg *opc.Package) ([]*Signature, error) {
	originURI := opc.PackURI(SignatureOriginPartName)
	originPart := pkg.Part(originURI)
	if originPart == nil {
		return nil, nil
	}

	var out []*Signature
	for _, rel := range originPart.Rels().ByType(opc.RelTypeDigitalSignature) {
		if rel.TargetPart == nil {
			continue
		}
		xp, ok := rel.TargetPart.(*opc.XmlPart)
		var id string
		if ok {
			id = signatureIDFromElement(xp.Element())
		} else {
			id = signatureElementID
		}
		out = append(out, &Signature{
			pkg:        pkg,
			part:       rel.TargetPart,
			id:         id,
			originPart: originPart,
			rel:        rel,
		})
	}
	return out, nil
}

// Remove deletes the signature part, the origin's relationship to it,
// and — if no signatures remain — the origin part itself and the root's
// relationship to the origin (spec §4.7).
func (s *Signature) Remove() error {
	if !s.Valid() {
		return ErrInvalidOperation
	}
	if s.pkg.Mode() != opc.ReadWrite {
		return ErrReadOnlyPackage
	}

	originURI := s.originPart.PartName()
	s.originPart.Rels().Remove(s.rel.ID)

	if err := s.pkg.DeletePart(s.part.PartName()); err != nil {
		return err
	}
	s.pkg.ContentTypes().RemoveOverride(s.part.PartName())

	if s.originPart.Rels().Len() == 0 {
		if err := s.pkg.DeletePart(originURI); err != nil {
			return err
		}
		s.pkg.ContentTypes().RemoveOverride(originURI)
		if rel := s.pkg.RootRels().GetByRelType(opc.RelTypeDigitalSignatureOrigin); rel != nil {
			s.pkg.RootRels().Remove(rel.ID)
		}
	}

	s.part = nil
	s.originPart = nil
	s.rel = nil
	return nil
}
