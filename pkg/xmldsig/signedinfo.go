package xmldsig

import (
	"crypto"
	"fmt"

	"github.com/beevik/etree"

	"github.com/vortex/vsixsign/pkg/canon"
)

// buildSignedInfoElement renders <SignedInfo> per spec §4.6 step 3:
// C14N canonicalization method, the signature method for (hash,
// ecdsa), and one Reference each to the Manifest and the
// SignatureProperties objects, both digested over their C14N form.
func buildSignedInfoElement(hash crypto.Hash, ecdsa bool, manifestID, manifestDigestB64, sigPropsID, sigPropsDigestB64 string) (*etree.Element, error) {
	digestURI, ok := DigestMethodURI(hash)
	if !ok {
		return nil, fmt.Errorf("xmldsig: unsupported digest hash %v", hash)
	}
	sigURI, ok := SignatureMethodURI(hash, ecdsa)
	if !ok {
		return nil, fmt.Errorf("xmldsig: unsupported signature hash %v", hash)
	}

	si := etree.NewElement("SignedInfo")
	si.CreateAttr("xmlns", NSDSig)

	cm := si.CreateElement("CanonicalizationMethod")
	cm.CreateAttr("Algorithm", canon.AlgorithmC14N10)

	sm := si.CreateElement("SignatureMethod")
	sm.CreateAttr("Algorithm", sigURI)

	si.AddChild(objectReference("#"+manifestID, digestURI, manifestDigestB64))
	si.AddChild(objectReference("#"+sigPropsID, digestURI, sigPropsDigestB64))

	return si, nil
}

func objectReference(uri, digestMethodURI, digestValueB64 string) *etree.Element {
	re := etree.NewElement("Reference")
	re.CreateAttr("URI", uri)
	dm := re.CreateElement("DigestMethod")
	dm.CreateAttr("Algorithm", digestMethodURI)
	dv := re.CreateElement("DigestValue")
	dv.SetText(digestValueB64)
	return re
}

// digestElement canonicalizes el with C14N and hashes the result,
// returning the base64-encoded digest (used for the Manifest and
// SignatureProperties self-references inside SignedInfo).
func digestElement(el *etree.Element, hash crypto.Hash) (string, error) {
	c14nBytes, err := canon.C14N().Canonicalize(el)
	if err != nil {
		return "", fmt.Errorf("xmldsig: canonicalizing %s: %w", el.Tag, err)
	}
	h := hash.New()
	h.Write(c14nBytes)
	return b64(h.Sum(nil)), nil
}
