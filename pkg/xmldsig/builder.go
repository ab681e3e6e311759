package xmldsig

import (
	"crypto"
	"crypto/x509"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/vortex/vsixsign/pkg/canon"
	"github.com/vortex/vsixsign/pkg/identity"
	"github.com/vortex/vsixsign/pkg/opc"
)

// signatureElementID is fixed rather than per-signature because spec.md
// never distinguishes multiple co-existing signature ids, and a stable
// id keeps the SignatureProperties Target reference simple.
const signatureElementID = "idPackageSignature"

// Builder accumulates references and produces a Signature (spec §4.6's
// "enqueue_preset / sign" contract).
type Builder struct {
	pkg  *opc.Package
	hash crypto.Hash
	refs []Reference
}

// NewBuilder returns a Builder over pkg. Nothing is read or written
// until EnqueuePreset and Sign are called.
func NewBuilder(pkg *opc.Package) *Builder {
	return &Builder{pkg: pkg}
}

// EnqueuePreset runs preset over the builder's package under hash and
// stores the resulting references.
func (b *Builder) EnqueuePreset(preset ReferencePreset, hash crypto.Hash) error {
	refs, err := preset(b.pkg, hash)
	if err != nil {
		return errors.Wrap(err, "xmldsig: enqueue preset")
	}
	b.hash = hash
	b.refs = refs
	return nil
}

// Sign produces the Signature, writing the signature part, the
// signature-origin part (if not already present), and the associated
// relationships and content types (spec §4.6 "Signature emission").
// Any signatures already present in the package are removed first, so
// re-signing an already-signed package always yields exactly one
// signature regardless of what the caller enqueued (spec §8 Invariant
// 1 and Scenario 2: re-signing with a different digest replaces, it
// never accumulates).
// No partial state is written on failure: every mutation below is
// buffered in memory by opc.Package until Package.Flush is called, so
// an error here leaves the archive exactly as it was (spec §4.6
// "Failure modes").
func (b *Builder) Sign(id identity.Identity) (*Signature, error) {
	if b.pkg.Mode() != opc.ReadWrite {
		return nil, ErrReadOnlyPackage
	}
	if len(b.refs) == 0 {
		return nil, ErrNoReferencesEnqueued
	}

	existing, err := Signatures(b.pkg)
	if err != nil {
		return nil, errors.Wrap(err, "xmldsig: enumerating existing signatures")
	}
	for _, sig := range existing {
		if err := sig.Remove(); err != nil {
			return nil, errors.Wrap(err, "xmldsig: removing existing signature before re-signing")
		}
	}

	manifestID := signatureElementID + "-manifest"
	sigPropsID := signatureElementID + "-sigprops"

	manifestEl := buildManifestElement(manifestID, b.refs)
	manifestDigestB64, err := digestElement(manifestEl, b.hash)
	if err != nil {
		return nil, errors.Wrap(err, "xmldsig: digest manifest")
	}

	signingTime := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	sigPropsEl := buildSignaturePropertiesElement(sigPropsID, signatureElementID, signingTime)
	sigPropsDigestB64, err := digestElement(sigPropsEl, b.hash)
	if err != nil {
		return nil, errors.Wrap(err, "xmldsig: digest signature properties")
	}

	ecdsa := id.PublicKeyAlgorithm() == x509.ECDSA
	signedInfoEl, err := buildSignedInfoElement(b.hash, ecdsa, manifestID, manifestDigestB64, sigPropsID, sigPropsDigestB64)
	if err != nil {
		return nil, errors.Wrap(err, "xmldsig: build SignedInfo")
	}

	signedInfoC14N, err := canon.C14N().Canonicalize(signedInfoEl)
	if err != nil {
		return nil, errors.Wrap(err, "xmldsig: canonicalize SignedInfo")
	}
	h := b.hash.New()
	h.Write(signedInfoC14N)
	sigValue, err := id.Sign(h.Sum(nil), b.hash)
	if err != nil {
		return nil, errors.Wrap(err, "xmldsig: sign SignedInfo")
	}

	signatureEl := buildSignatureElement(signatureElementID, signedInfoEl, sigValue, id.Certificates(), manifestEl, sigPropsEl)

	partURI := opc.NewPackURI(signaturePartDir + uuid.New().String() + ".psdsxs")
	sigPart := opc.NewXmlPartFromElement(partURI, ContentTypeSignatureXML, signatureEl)
	if err := b.pkg.AddPart(sigPart); err != nil {
		return nil, errors.Wrap(err, "xmldsig: writing signature part")
	}
	b.pkg.ContentTypes().AddOverride(partURI, ContentTypeSignatureXML)

	originURI := opc.PackURI(SignatureOriginPartName)
	originPart := b.pkg.Part(originURI)
	if originPart == nil {
		originPart = opc.NewBasePart(originURI, ContentTypeSignatureOrigin, []byte{})
		if err := b.pkg.AddPart(originPart); err != nil {
			return nil, errors.Wrap(err, "xmldsig: writing signature-origin part")
		}
		b.pkg.ContentTypes().AddOverride(originURI, ContentTypeSignatureOrigin)
		b.pkg.RootRels().GetOrAdd(opc.RelTypeDigitalSignatureOrigin, originURI.RelativeRef("/"), originPart)
	}

	rel := originPart.Rels().Add(opc.RelTypeDigitalSignature, partURI.RelativeRef(originURI.BaseURI()), sigPart, false)

	return &Signature{
		pkg:        b.pkg,
		part:       sigPart,
		id:         signatureElementID,
		originPart: originPart,
		rel:        rel,
	}, nil
}

func buildSignatureElement(id string, signedInfo *etree.Element, sigValue []byte, chain []*x509.Certificate, manifest, sigProps *etree.Element) *etree.Element {
	sig := etree.NewElement("Signature")
	sig.CreateAttr("xmlns", NSDSig)
	sig.CreateAttr("Id", id)
	sig.AddChild(signedInfo)

	sv := sig.CreateElement("SignatureValue")
	sv.SetText(b64(sigValue))

	ki := sig.CreateElement("KeyInfo")
	x509Data := ki.CreateElement("X509Data")
	for _, cert := range chain {
		cEl := x509Data.CreateElement("X509Certificate")
		cEl.SetText(b64(cert.Raw))
	}

	obj1 := sig.CreateElement("Object")
	obj1.AddChild(manifest)

	obj2 := sig.CreateElement("Object")
	obj2.AddChild(sigProps)

	return sig
}

// signatureIDFromElement reads the Signature element's Id attribute,
// used by the enumerator to restore a handle's identity from bytes
// already on disk.
func signatureIDFromElement(el *etree.Element) string {
	if el == nil {
		return ""
	}
	if v := el.SelectAttrValue("Id", ""); v != "" {
		return v
	}
	return signatureElementID
}
