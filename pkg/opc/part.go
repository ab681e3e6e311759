package opc

import (
	"fmt"

	"github.com/beevik/etree"
)

// Part is a named byte stream inside an OPC package, adapted from
// go-docx's opc.Part for the signing domain: a part here is either an
// opaque binary blob or a parsed XML document, never a WordprocessingML
// content-model node.
type Part interface {
	PartName() PackURI
	ContentType() string
	Blob() ([]byte, error)
	Rels() *Relationships
	SetRels(rels *Relationships)
}

// BasePart is the default Part implementation for binary (or
// not-yet-parsed) parts: images, the signature-origin part, certificate
// parts.
type BasePart struct {
	partName    PackURI
	contentType string
	blob        []byte
	rels        *Relationships
}

// NewBasePart creates a new BasePart holding blob verbatim.
func NewBasePart(partName PackURI, contentType string, blob []byte) *BasePart {
	return &BasePart{
		partName:    partName,
		contentType: contentType,
		blob:        blob,
		rels:        NewRelationships(partName.BaseURI()),
	}
}

func (p *BasePart) PartName() PackURI           { return p.partName }
func (p *BasePart) ContentType() string         { return p.contentType }
func (p *BasePart) Blob() ([]byte, error)       { return p.blob, nil }
func (p *BasePart) Rels() *Relationships        { return p.rels }
func (p *BasePart) SetRels(rels *Relationships) { p.rels = rels }

// SetBlob replaces the part's bytes.
func (p *BasePart) SetBlob(blob []byte) { p.blob = blob }

// SetPartName updates the part's name (used when relocating a part).
func (p *BasePart) SetPartName(pn PackURI) { p.partName = pn }

const xmlProcInst = `version="1.0" encoding="UTF-8" standalone="yes"`

// XmlPart is a Part backed by a parsed *etree.Document: the manifest,
// SignedInfo-bearing Signature part, and any .rels/[Content_Types].xml
// companion views a caller wants to inspect as a tree rather than bytes.
type XmlPart struct {
	BasePart
	doc *etree.Document
}

func newXmlDoc() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", xmlProcInst)
	doc.WriteSettings.CanonicalEndTags = true
	return doc
}

// NewXmlPart parses blob as XML.
func NewXmlPart(partName PackURI, contentType string, blob []byte) (*XmlPart, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.Permissive = true
	doc.WriteSettings.CanonicalEndTags = true
	if err := doc.ReadFromBytes(blob); err != nil {
		return nil, fmt.Errorf("opc: parsing XML part %q: %w: %w", partName, ErrMalformedPackage, err)
	}
	ensureProcInst(doc)
	return &XmlPart{
		BasePart: *NewBasePart(partName, contentType, nil),
		doc:      doc,
	}, nil
}

// NewXmlPartFromElement adopts element as the root of a fresh document.
func NewXmlPartFromElement(partName PackURI, contentType string, element *etree.Element) *XmlPart {
	doc := newXmlDoc()
	doc.SetRoot(element)
	return &XmlPart{
		BasePart: *NewBasePart(partName, contentType, nil),
		doc:      doc,
	}
}

func ensureProcInst(doc *etree.Document) {
	for _, tok := range doc.Child {
		if pi, ok := tok.(*etree.ProcInst); ok && pi.Target == "xml" {
			pi.Inst = xmlProcInst
			return
		}
	}
	pi := &etree.ProcInst{Target: "xml", Inst: xmlProcInst}
	doc.Child = append([]etree.Token{pi}, doc.Child...)
}

// Element returns the document root, or nil.
func (p *XmlPart) Element() *etree.Element {
	if p.doc == nil {
		return nil
	}
	return p.doc.Root()
}

// SetElement replaces the document root.
func (p *XmlPart) SetElement(el *etree.Element) {
	if p.doc == nil {
		p.doc = newXmlDoc()
	}
	p.doc.SetRoot(el)
}

// Blob serializes the document.
func (p *XmlPart) Blob() ([]byte, error) {
	if p.doc == nil || p.doc.Root() == nil {
		return nil, nil
	}
	b, err := p.doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("opc: serializing XML part %q: %w", p.partName, err)
	}
	return b, nil
}
