package opc

import (
	"bytes"
	"testing"
)

func buildMinimalPackage(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := NewPhysPkgWriter(&buf)

	ct := NewContentTypeMap()
	ct.AddDefault("xml", "application/xml")
	ct.AddDefault("rels", "application/vnd.openxmlformats-package.relationships+xml")
	ct.AddDefault("vsixmanifest", "text/xml")
	ctBlob, err := ct.Serialize()
	if err != nil {
		t.Fatalf("Serialize content types: %v", err)
	}
	if err := w.Write(NewPackURI("/[Content_Types].xml"), ctBlob); err != nil {
		t.Fatalf("write content types: %v", err)
	}

	rootRels := NewRelationships("/")
	rootRels.Add("http://example.com/main", "/extension.vsixmanifest", nil, false)
	relsBlob, err := rootRels.Serialize()
	if err != nil {
		t.Fatalf("Serialize root rels: %v", err)
	}
	if err := w.Write(PackageURI.RelsURI(), relsBlob); err != nil {
		t.Fatalf("write root rels: %v", err)
	}

	if err := w.Write(NewPackURI("/extension.vsixmanifest"), []byte("<PackageManifest/>")); err != nil {
		t.Fatalf("write manifest part: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buf.Bytes()
}

func TestPackage_OpenBytes_ResolvesRootRelTarget(t *testing.T) {
	t.Parallel()

	pkg, err := OpenBytes(buildMinimalPackage(t), ReadOnly)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}

	if !pkg.HasPart(NewPackURI("/extension.vsixmanifest")) {
		t.Fatal("expected manifest part to be loaded")
	}

	rel := pkg.RootRels().GetByRelType("http://example.com/main")
	if rel == nil {
		t.Fatal("expected root relationship to be present")
	}
	if rel.TargetPart == nil {
		t.Fatal("expected root relationship TargetPart to be resolved")
	}
	if rel.TargetPart.PartName() != NewPackURI("/extension.vsixmanifest") {
		t.Errorf("got TargetPart %q, want /extension.vsixmanifest", rel.TargetPart.PartName())
	}
}

func TestPackage_AddPart_FailsReadOnly(t *testing.T) {
	t.Parallel()

	pkg, err := OpenBytes(buildMinimalPackage(t), ReadOnly)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}

	part := NewBasePart(NewPackURI("/new.xml"), "application/xml", []byte("<x/>"))
	if err := pkg.AddPart(part); err != ErrReadOnly {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
}

func TestPackage_FlushRoundTrip(t *testing.T) {
	t.Parallel()

	pkg, err := OpenBytes(buildMinimalPackage(t), ReadWrite)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}

	newPart := NewBasePart(NewPackURI("/added.bin"), "application/octet-stream", []byte{1, 2, 3})
	if err := pkg.AddPart(newPart); err != nil {
		t.Fatalf("AddPart: %v", err)
	}
	pkg.ContentTypes().AddOverride(NewPackURI("/added.bin"), "application/octet-stream")

	out, err := pkg.Flush()
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}

	reopened, err := OpenBytes(out, ReadOnly)
	if err != nil {
		t.Fatalf("reopening flushed package: %v", err)
	}
	if !reopened.HasPart(NewPackURI("/added.bin")) {
		t.Fatal("expected /added.bin to survive the flush round-trip")
	}
	ctype, err := reopened.ContentTypes().Resolve(NewPackURI("/added.bin"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ctype != "application/octet-stream" {
		t.Errorf("got content type %q, want application/octet-stream", ctype)
	}
}

func TestPackage_DeletePart(t *testing.T) {
	t.Parallel()

	pkg, err := OpenBytes(buildMinimalPackage(t), ReadWrite)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}

	if err := pkg.DeletePart(NewPackURI("/extension.vsixmanifest")); err != nil {
		t.Fatalf("DeletePart: %v", err)
	}
	if pkg.HasPart(NewPackURI("/extension.vsixmanifest")) {
		t.Error("expected part to be gone after DeletePart")
	}
}
