package opc

import "testing"

func TestNewPackURI_Normalizes(t *testing.T) {
	t.Parallel()

	cases := map[string]PackURI{
		"word/document.xml":  "/word/document.xml",
		"/word/document.xml": "/word/document.xml",
		`word\document.xml`:  "/word/document.xml",
		"//word//document.xml/": "/word/document.xml",
	}
	for in, want := range cases {
		if got := NewPackURI(in); got != want {
			t.Errorf("NewPackURI(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPackURI_RelsURI(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   PackURI
		want PackURI
	}{
		{PackageURI, "/_rels/.rels"},
		{NewPackURI("/word/document.xml"), "/word/_rels/document.xml.rels"},
		{NewPackURI("/document.xml"), "/_rels/document.xml.rels"},
	}
	for _, c := range cases {
		if got := c.in.RelsURI(); got != c.want {
			t.Errorf("%q.RelsURI() = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestPackURI_EqualFold(t *testing.T) {
	t.Parallel()

	a := NewPackURI("/Word/Document.xml")
	b := NewPackURI("/word/document.xml")
	if !a.EqualFold(b) {
		t.Errorf("expected %q and %q to be equal under EqualFold", a, b)
	}
}

func TestPackURI_ZipName(t *testing.T) {
	t.Parallel()

	if got := NewPackURI("/word/document.xml").ZipName(); got != "word/document.xml" {
		t.Errorf("ZipName() = %q, want %q", got, "word/document.xml")
	}
}
