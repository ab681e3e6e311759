package canon

import (
	"testing"

	"github.com/beevik/etree"
)

func parseElement(t *testing.T, xml string) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xml); err != nil {
		t.Fatalf("ReadFromString: %v", err)
	}
	return doc.Root()
}

func TestC14N_SortsAttributesAndNamespaces(t *testing.T) {
	t.Parallel()

	el := parseElement(t, `<b:Root xmlns:b="urn:b" xmlns:a="urn:a" a:z="1" z="1" a="2"/>`)

	out, err := C14N().Canonicalize(el)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}

	got := string(out)
	want := `<b:Root xmlns:a="urn:a" xmlns:b="urn:b" a="2" z="1" a:z="1"></b:Root>`
	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestC14N_DropsComments(t *testing.T) {
	t.Parallel()

	el := parseElement(t, `<Root><!--comment--><Child>text</Child></Root>`)
	out, err := C14N().Canonicalize(el)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	if string(out) != `<Root><Child>text</Child></Root>` {
		t.Errorf("got %s", out)
	}
}

func TestC14N_IsIdempotent(t *testing.T) {
	t.Parallel()

	el := parseElement(t, `<Root a="1" b="2"><Child>hello &amp; world</Child></Root>`)

	first, err := C14N().Canonicalize(el)
	if err != nil {
		t.Fatalf("first Canonicalize: %v", err)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(first); err != nil {
		t.Fatalf("reparsing canonicalized output: %v", err)
	}
	second, err := C14N().Canonicalize(doc.Root())
	if err != nil {
		t.Fatalf("second Canonicalize: %v", err)
	}

	if string(first) != string(second) {
		t.Errorf("canonicalization is not idempotent:\nfirst:  %s\nsecond: %s", first, second)
	}
}

func TestC14N_NormalizesLineEndings(t *testing.T) {
	t.Parallel()

	el := etree.NewElement("Root")
	el.SetText("a\r\nb\rc")

	out, err := C14N().Canonicalize(el)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	if string(out) != "<Root>a\nb\nc</Root>" {
		t.Errorf("got %q", out)
	}
}
