package xmldsig

import (
	"crypto"
	"fmt"
	"sort"

	"github.com/beevik/etree"

	"github.com/vortex/vsixsign/pkg/canon"
	"github.com/vortex/vsixsign/pkg/digest"
	"github.com/vortex/vsixsign/pkg/opc"
)

// ReferencePreset enumerates the references a signature should carry
// for a given package, expressed as data rather than a type hierarchy
// (spec §9's "preset abstraction ... variants are data, not
// subclasses"). A preset both selects the parts/relationships and
// computes their digests; the builder stores the references it returns.
type ReferencePreset func(pkg *opc.Package, hash crypto.Hash) ([]Reference, error)

// VSIXPreset is the one preset spec.md names: reference every package
// part except the content-types part (never a Part in opc.Package — see
// pkg/opc's grounding note), any existing signature or
// signature-origin part, and any .rels part — plus one relationships
// reference per non-empty .rels collection, restricted to non-signature
// relationship ids (spec §4.6 "VSIX preset").
func VSIXPreset(pkg *opc.Package, hash crypto.Hash) ([]Reference, error) {
	digestURI, ok := DigestMethodURI(hash)
	if !ok {
		return nil, fmt.Errorf("xmldsig: unsupported digest hash %v", hash)
	}

	excluded := excludedParts(pkg)

	var refs []Reference

	var partURIs []opc.PackURI
	for _, part := range pkg.Parts() {
		if excluded[part.PartName()] {
			continue
		}
		partURIs = append(partURIs, part.PartName())
	}
	sort.Slice(partURIs, func(i, j int) bool { return partURIs[i] < partURIs[j] })

	for _, uri := range partURIs {
		part := pkg.Part(uri)
		sum, err := digest.Digest(part, hash, nil)
		if err != nil {
			return nil, err
		}
		refs = append(refs, Reference{
			URI:             string(uri),
			DigestMethodURI: digestURI,
			DigestValueB64:  digest.Base64(sum),
		})
	}

	relOwners := []opc.PackURI{opc.PackageURI}
	for _, uri := range partURIs {
		relOwners = append(relOwners, uri)
	}
	for _, owner := range relOwners {
		rels := pkg.RelsFor(owner)
		if rels == nil || rels.Len() == 0 {
			continue
		}
		ids := nonSignatureRelationshipIDs(rels)
		if len(ids) == 0 {
			continue
		}
		ref, err := relationshipsReference(pkg, owner, ids, hash, digestURI)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}

	return refs, nil
}

// excludedParts returns the set of part names the VSIX preset must
// never reference directly: every existing signature part, the
// signature-origin part itself (when present).
func excludedParts(pkg *opc.Package) map[opc.PackURI]bool {
	excluded := make(map[opc.PackURI]bool)
	origin := opc.PackURI(SignatureOriginPartName)
	if pkg.HasPart(origin) {
		excluded[origin] = true
		if rels := pkg.RelsFor(origin); rels != nil {
			for _, rel := range rels.ByType(opc.RelTypeDigitalSignature) {
				if rel.TargetPart != nil {
					excluded[rel.TargetPart.PartName()] = true
				}
			}
		}
	}
	return excluded
}

// nonSignatureRelationshipIDs returns the ids of every relationship in
// rels whose type is not one of the digital-signature relationship
// types, sorted for determinism.
func nonSignatureRelationshipIDs(rels *opc.Relationships) []string {
	var ids []string
	for _, rel := range rels.All() {
		switch rel.RelType {
		case opc.RelTypeDigitalSignature, opc.RelTypeDigitalSignatureOrigin, opc.RelTypeDigitalSignatureCert:
			continue
		}
		ids = append(ids, rel.ID)
	}
	sort.Strings(ids)
	return ids
}

func relationshipsReference(pkg *opc.Package, owner opc.PackURI, ids []string, hash crypto.Hash, digestURI string) (Reference, error) {
	rels := pkg.RelsFor(owner)
	blob, err := rels.Serialize()
	if err != nil {
		return Reference{}, fmt.Errorf("xmldsig: serializing relationships for %q: %w", owner, err)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(blob); err != nil {
		return Reference{}, fmt.Errorf("xmldsig: reparsing relationships for %q: %w", owner, err)
	}

	transform := canon.Chain(canon.RelationshipsTransform(ids), canon.C14N())
	out, err := transform.Canonicalize(doc.Root())
	if err != nil {
		return Reference{}, fmt.Errorf("xmldsig: canonicalizing relationships for %q: %w", owner, err)
	}
	h := hash.New()
	h.Write(out)

	return Reference{
		URI:             string(owner.RelsURI()),
		Type:            "http://schemas.openxmlformats.org/package/2006/relationships",
		Transforms:      []transformDescriptor{{algorithm: canon.AlgorithmRelationshipsTransform}, {algorithm: canon.AlgorithmC14N10}},
		DigestMethodURI: digestURI,
		DigestValueB64:  digest.Base64(h.Sum(nil)),
	}, nil
}
