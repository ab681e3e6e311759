// Package canon implements the XML canonicalization algorithms OPC
// package signing requires: Canonical XML 1.0 without comments, and the
// OPC-specific Relationships Transform that precedes it when a
// reference targets a relationships part.
package canon

import "github.com/beevik/etree"

// Algorithm URIs, as they appear in SignedInfo/Reference/Transforms and
// CanonicalizationMethod elements.
const (
	AlgorithmC14N10          = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"
	AlgorithmRelationshipsTransform = "http://schemas.openxmlformats.org/package/2006/RelationshipTransform"
)

// Canonicalizer turns a parsed XML element into its canonical byte
// serialization. Implementations are total functions of (element,
// configuration): identical input trees must produce identical output
// bytes, on any platform (spec §4.4).
type Canonicalizer interface {
	Algorithm() string
	Canonicalize(el *etree.Element) ([]byte, error)
}

// C14N returns the Canonical XML 1.0 (no comments) canonicalizer.
func C14N() Canonicalizer { return c14n10{} }

// RelationshipsTransform returns the OPC Relationships Transform
// restricted to the given relationship ids (nil/empty means "all
// relationships in the document"). Its output is itself the input to a
// subsequent C14N pass, matching spec §4.4's "transforms left to right".
func RelationshipsTransform(ids []string) Canonicalizer {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return relationshipsTransform{ids: set, all: len(ids) == 0}
}

// Chain applies each canonicalizer in order, reparsing the previous
// stage's output bytes before handing them to the next. This models
// spec §4.5's "apply the transforms left-to-right" for a reference
// whose Transforms list has more than one entry (Relationships
// Transform followed by C14N).
func Chain(steps ...Canonicalizer) Canonicalizer {
	return chain{steps: steps}
}

type chain struct {
	steps []Canonicalizer
}

func (c chain) Algorithm() string {
	if len(c.steps) == 0 {
		return AlgorithmC14N10
	}
	return c.steps[len(c.steps)-1].Algorithm()
}

func (c chain) Canonicalize(el *etree.Element) ([]byte, error) {
	cur := el
	var out []byte
	var err error
	for i, step := range c.steps {
		out, err = step.Canonicalize(cur)
		if err != nil {
			return nil, err
		}
		if i == len(c.steps)-1 {
			break
		}
		doc := etree.NewDocument()
		if err := doc.ReadFromBytes(out); err != nil {
			return nil, err
		}
		cur = doc.Root()
	}
	return out, nil
}
