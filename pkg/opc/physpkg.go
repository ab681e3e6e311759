package opc

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
)

// ole2Magic is the OLE2/CFB signature (used by encrypted OOXML/VSIX
// variants); seeing it instead of a ZIP local-file-header means the
// archive cannot be opened directly.
var ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// ErrEncryptedPackage is returned when the opened file carries the OLE2
// compound-file signature instead of a ZIP header.
var ErrEncryptedPackage = fmt.Errorf("opc: package appears to be OLE2/encrypted")

// PhysPkgReader reads the raw ZIP member bytes of a package, independent
// of any OPC-level interpretation of those bytes.
type PhysPkgReader struct {
	zr     *zip.Reader
	closer io.Closer // non-nil when reading from an *os.File
	byName map[string]*zip.File
}

// NewPhysPkgReaderFromBytes opens a package already held in memory.
func NewPhysPkgReaderFromBytes(data []byte) (*PhysPkgReader, error) {
	if len(data) >= len(ole2Magic) && bytes.Equal(data[:len(ole2Magic)], ole2Magic) {
		return nil, ErrEncryptedPackage
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opc: %w: %w", ErrNotZipPackage, err)
	}
	return newPhysPkgReader(zr, nil), nil
}

// NewPhysPkgReader opens a package from an io.ReaderAt of known size,
// keeping no open OS handle beyond what the caller already owns.
func NewPhysPkgReader(r io.ReaderAt, size int64, closer io.Closer) (*PhysPkgReader, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("opc: %w: %w", ErrNotZipPackage, err)
	}
	return newPhysPkgReader(zr, closer), nil
}

func newPhysPkgReader(zr *zip.Reader, closer io.Closer) *PhysPkgReader {
	pr := &PhysPkgReader{zr: zr, closer: closer, byName: make(map[string]*zip.File)}
	for _, f := range zr.File {
		pr.byName[f.Name] = f
	}
	return pr
}

// Close releases the underlying file handle, if any.
func (r *PhysPkgReader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// URIs returns the part name of every ZIP member, including
// [Content_Types].xml and every _rels/*.rels entry.
func (r *PhysPkgReader) URIs() []PackURI {
	out := make([]PackURI, 0, len(r.zr.File))
	for _, f := range r.zr.File {
		if isDirEntry(f.Name) {
			continue
		}
		out = append(out, NewPackURI(f.Name))
	}
	return out
}

// Has reports whether the ZIP contains an entry for uri.
func (r *PhysPkgReader) Has(uri PackURI) bool {
	_, ok := r.byName[uri.ZipName()]
	return ok
}

// BlobFor returns the raw bytes of the member named by uri.
func (r *PhysPkgReader) BlobFor(uri PackURI) ([]byte, error) {
	f, ok := r.byName[uri.ZipName()]
	if !ok {
		return nil, fmt.Errorf("opc: %q: %w", uri, ErrPartNotFound)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opc: opening %q: %w", uri, err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("opc: reading %q: %w", uri, err)
	}
	return b, nil
}

// ContentTypesXml returns the raw bytes of [Content_Types].xml.
func (r *PhysPkgReader) ContentTypesXml() ([]byte, error) {
	return r.BlobFor(NewPackURI("/[Content_Types].xml"))
}

// RelsXmlFor returns the raw bytes of partURI's relationships part, or
// nil (no error) if it does not exist.
func (r *PhysPkgReader) RelsXmlFor(partURI PackURI) ([]byte, error) {
	relsURI := partURI.RelsURI()
	if !r.Has(relsURI) {
		return nil, nil
	}
	return r.BlobFor(relsURI)
}

func isDirEntry(name string) bool {
	return len(name) > 0 && name[len(name)-1] == '/'
}

// PhysPkgWriter writes raw member bytes to a ZIP archive.
type PhysPkgWriter struct {
	zw *zip.Writer
}

// NewPhysPkgWriter wraps w as the destination ZIP stream.
func NewPhysPkgWriter(w io.Writer) *PhysPkgWriter {
	return &PhysPkgWriter{zw: zip.NewWriter(w)}
}

// Write adds a member named by uri with the given bytes.
func (w *PhysPkgWriter) Write(uri PackURI, blob []byte) error {
	f, err := w.zw.Create(uri.ZipName())
	if err != nil {
		return fmt.Errorf("opc: creating zip entry %q: %w", uri, err)
	}
	if _, err := f.Write(blob); err != nil {
		return fmt.Errorf("opc: writing zip entry %q: %w", uri, err)
	}
	return nil
}

// Close flushes the ZIP central directory.
func (w *PhysPkgWriter) Close() error {
	return w.zw.Close()
}
