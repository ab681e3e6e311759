package canon

import (
	"testing"

	"github.com/beevik/etree"
)

func TestRelationshipsTransform_FiltersSortsAndStrips(t *testing.T) {
	t.Parallel()

	el := parseElement(t, `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
		<Relationship Id="rId2" Type="t2" Target="/b" TargetMode="External" SomeExtra="drop-me"/>
		<Relationship Id="rId1" Type="t1" Target="/a"/>
		<Relationship Id="rId3" Type="t3" Target="/c"/>
	</Relationships>`)

	out, err := RelationshipsTransform([]string{"rId1", "rId2"}).Canonicalize(el)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(out); err != nil {
		t.Fatalf("reparsing transform output: %v", err)
	}
	kept := doc.Root().ChildElements()
	if len(kept) != 2 {
		t.Fatalf("expected 2 relationships kept, got %d", len(kept))
	}
	if kept[0].SelectAttrValue("Id", "") != "rId1" || kept[1].SelectAttrValue("Id", "") != "rId2" {
		t.Errorf("expected sorted order rId1, rId2; got %s, %s",
			kept[0].SelectAttrValue("Id", ""), kept[1].SelectAttrValue("Id", ""))
	}
	if kept[1].SelectAttrValue("SomeExtra", "") != "" {
		t.Error("expected non-canonical attributes to be stripped")
	}
	if kept[1].SelectAttrValue("TargetMode", "") != "External" {
		t.Error("expected TargetMode to survive stripping")
	}
}

func TestRelationshipsTransform_AllWhenNoIDsGiven(t *testing.T) {
	t.Parallel()

	el := parseElement(t, `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
		<Relationship Id="rId1" Type="t1" Target="/a"/>
		<Relationship Id="rId2" Type="t2" Target="/b"/>
	</Relationships>`)

	out, err := RelationshipsTransform(nil).Canonicalize(el)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(out); err != nil {
		t.Fatalf("reparsing: %v", err)
	}
	if len(doc.Root().ChildElements()) != 2 {
		t.Errorf("expected all relationships kept, got %d", len(doc.Root().ChildElements()))
	}
}

func TestRelationshipsTransform_RejectsWrongRoot(t *testing.T) {
	t.Parallel()

	el := parseElement(t, `<NotRelationships/>`)
	if _, err := RelationshipsTransform(nil).Canonicalize(el); err == nil {
		t.Fatal("expected error for non-Relationships root")
	}
}

func TestChain_ReparsesBetweenStages(t *testing.T) {
	t.Parallel()

	el := parseElement(t, `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
		<Relationship Id="rId1" Type="t1" Target="/a"/>
	</Relationships>`)

	out, err := Chain(RelationshipsTransform([]string{"rId1"}), C14N()).Canonicalize(el)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	if string(out) == "" {
		t.Error("expected non-empty canonicalized output")
	}
}
