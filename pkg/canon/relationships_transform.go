package canon

import (
	"fmt"
	"sort"

	"github.com/beevik/etree"
)

// relationshipsTransform implements the OPC Relationships Transform
// (spec §4.4): from a source _rels/*.rels document, retain only
// Relationship elements whose Id is in the configured set (or all, if
// no set was given), sorted lexicographically by Id, each stripped down
// to Id/Type/Target/TargetMode in that order. Its own output (not yet
// canonical) is meant to be piped into C14N by the caller, e.g. via
// canon.Chain(canon.RelationshipsTransform(ids), canon.C14N()).
type relationshipsTransform struct {
	ids map[string]bool
	all bool
}

func (relationshipsTransform) Algorithm() string { return AlgorithmRelationshipsTransform }

func (t relationshipsTransform) Canonicalize(el *etree.Element) ([]byte, error) {
	if el == nil || el.Tag != "Relationships" {
		return nil, fmt.Errorf("canon: relationships transform expects a Relationships root element, got %q", elTag(el))
	}

	type rel struct {
		id, typ, target, targetMode string
	}
	var kept []rel
	for _, child := range el.ChildElements() {
		if child.Tag != "Relationship" {
			continue
		}
		id := child.SelectAttrValue("Id", "")
		if !t.all && !t.ids[id] {
			continue
		}
		kept = append(kept, rel{
			id:         id,
			typ:        child.SelectAttrValue("Type", ""),
			target:     child.SelectAttrValue("Target", ""),
			targetMode: child.SelectAttrValue("TargetMode", ""),
		})
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].id < kept[j].id })

	out := etree.NewElement("Relationships")
	out.CreateAttr("xmlns", el.SelectAttrValue("xmlns", "http://schemas.openxmlformats.org/package/2006/relationships"))
	for _, r := range kept {
		re := out.CreateElement("Relationship")
		re.CreateAttr("Id", r.id)
		re.CreateAttr("Type", r.typ)
		re.CreateAttr("Target", r.target)
		if r.targetMode != "" {
			re.CreateAttr("TargetMode", r.targetMode)
		}
	}

	doc := etree.NewDocument()
	doc.SetRoot(out)
	return doc.WriteToBytes()
}

func elTag(el *etree.Element) string {
	if el == nil {
		return "<nil>"
	}
	return el.Tag
}
