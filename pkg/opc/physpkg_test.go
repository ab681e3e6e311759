package opc

import (
	"bytes"
	"errors"
	"testing"
)

func TestPhysPkgWriter_RoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewPhysPkgWriter(&buf)
	if err := w.Write(NewPackURI("/test/data.xml"), []byte("<root/>")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := NewPhysPkgReaderFromBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("NewPhysPkgReaderFromBytes: %v", err)
	}
	defer r.Close()

	blob, err := r.BlobFor(NewPackURI("/test/data.xml"))
	if err != nil {
		t.Fatalf("BlobFor: %v", err)
	}
	if string(blob) != "<root/>" {
		t.Errorf("got %q, want %q", blob, "<root/>")
	}
}

func TestNewPhysPkgReaderFromBytes_OLE2ReturnsEncryptedError(t *testing.T) {
	t.Parallel()

	header := make([]byte, 512)
	copy(header, ole2Magic)

	_, err := NewPhysPkgReaderFromBytes(header)
	if !errors.Is(err, ErrEncryptedPackage) {
		t.Fatalf("expected ErrEncryptedPackage, got %v", err)
	}
}

func TestNewPhysPkgReaderFromBytes_GarbageReturnsNotZipError(t *testing.T) {
	t.Parallel()

	_, err := NewPhysPkgReaderFromBytes([]byte("not a zip file, just text"))
	if !errors.Is(err, ErrNotZipPackage) {
		t.Fatalf("expected ErrNotZipPackage, got %v", err)
	}
}

func TestPhysPkgReader_RelsXmlForMissingReturnsNil(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewPhysPkgWriter(&buf)
	if err := w.Write(NewPackURI("/word/document.xml"), []byte("<root/>")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := NewPhysPkgReaderFromBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("NewPhysPkgReaderFromBytes: %v", err)
	}
	defer r.Close()

	blob, err := r.RelsXmlFor(NewPackURI("/word/document.xml"))
	if err != nil {
		t.Fatalf("RelsXmlFor: %v", err)
	}
	if blob != nil {
		t.Errorf("expected nil rels blob, got %q", blob)
	}
}
