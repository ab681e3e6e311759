package xmldsig

import (
	"github.com/beevik/etree"
)

// transformDescriptor names a transform for Manifest/SignedInfo
// serialization. Only the Algorithm URI is recorded; the
// canon.Canonicalizer that computed the digest is not kept in Reference.
type transformDescriptor struct {
	algorithm string
}

// Reference is one <Reference> entry of the Manifest: a target part or
// relationships document, the transforms applied before digesting, and
// the resulting digest (spec §3 Data model, §4.6 step 1).
type Reference struct {
	URI             string
	Type            string // optional Reference/@Type, e.g. for the relationships reference
	Transforms      []transformDescriptor
	DigestMethodURI string
	DigestValueB64  string
}

// buildManifestElement renders <Manifest Id="..."> with one <Reference>
// per entry, in the order given.
func buildManifestElement(id string, refs []Reference) *etree.Element {
	m := etree.NewElement("Manifest")
	m.CreateAttr("xmlns", NSDSig)
	m.CreateAttr("Id", id)
	for _, ref := range refs {
		m.AddChild(buildReferenceElement(ref))
	}
	return m
}

func buildReferenceElement(ref Reference) *etree.Element {
	re := etree.NewElement("Reference")
	re.CreateAttr("URI", ref.URI)
	if ref.Type != "" {
		re.CreateAttr("Type", ref.Type)
	}
	if len(ref.Transforms) > 0 {
		ts := re.CreateElement("Transforms")
		for _, t := range ref.Transforms {
			te := ts.CreateElement("Transform")
			te.CreateAttr("Algorithm", t.algorithm)
		}
	}
	dm := re.CreateElement("DigestMethod")
	dm.CreateAttr("Algorithm", ref.DigestMethodURI)
	dv := re.CreateElement("DigestValue")
	dv.SetText(ref.DigestValueB64)
	return re
}

// buildSignaturePropertiesElement renders the SignatureProperties
// object containing a single SigningTime property (spec §4.6 step 2).
func buildSignaturePropertiesElement(id, signatureID, signingTimeISO8601 string) *etree.Element {
	sp := etree.NewElement("SignatureProperties")
	sp.CreateAttr("xmlns", NSDSig)
	sp.CreateAttr("Id", id)
	prop := sp.CreateElement("SignatureProperty")
	prop.CreateAttr("Id", id+"-st")
	prop.CreateAttr("Target", "#"+signatureID)
	st := prop.CreateElement("mdssi:SignatureTime")
	st.CreateAttr("xmlns:mdssi", "http://schemas.openxmlformats.org/package/2006/digital-signature")
	fmtEl := st.CreateElement("mdssi:Format")
	fmtEl.SetText("YYYY-MM-DDThh:mm:ss.sTZD")
	valueEl := st.CreateElement("mdssi:Value")
	valueEl.SetText(signingTimeISO8601)
	return sp
}
