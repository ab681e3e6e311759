package opc

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Mode controls whether a Package permits mutation.
type Mode int

const (
	ReadOnly Mode = iota
	ReadWrite
)

const contentTypesPartName = PackURI("/[Content_Types].xml")

// Package is the top-level handle on an OPC archive: the ZIP part
// store, the content-types registry, and the root relationships,
// together with every part discovered while opening it.
//
// Unlike go-docx's OpcPackage, Parts() enumerates the flat ZIP
// directory rather than walking the relationship graph from a single
// main document: a signing engine must reference every part, whether
// or not anything currently points at it (spec §3 invariant on
// reference enumeration).
type Package struct {
	path         string
	mode         Mode
	contentTypes *ContentTypeMap
	rootRels     *Relationships
	parts        map[PackURI]Part // includes binary and XML parts, excludes .rels and [Content_Types].xml
	partRels     map[PackURI]*Relationships
	dirty        bool
	deleted      map[PackURI]bool
}

// OpenBytes parses an in-memory VSIX/OPC archive.
func OpenBytes(data []byte, mode Mode) (*Package, error) {
	pr, err := NewPhysPkgReaderFromBytes(data)
	if err != nil {
		return nil, err
	}
	defer pr.Close()
	return openFrom(pr, "", mode)
}

// OpenFile parses a VSIX/OPC archive from disk.
func OpenFile(path string, mode Mode) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opc: reading %q: %w", path, err)
	}
	pr, err := NewPhysPkgReaderFromBytes(data)
	if err != nil {
		return nil, err
	}
	defer pr.Close()
	return openFrom(pr, path, mode)
}

func openFrom(pr *PhysPkgReader, path string, mode Mode) (*Package, error) {
	ctBlob, err := pr.ContentTypesXml()
	if err != nil {
		return nil, fmt.Errorf("opc: missing [Content_Types].xml: %w: %w", ErrMalformedPackage, err)
	}
	contentTypes, err := ParseContentTypes(ctBlob)
	if err != nil {
		return nil, err
	}

	pkg := &Package{
		path:         path,
		mode:         mode,
		contentTypes: contentTypes,
		parts:        make(map[PackURI]Part),
		partRels:     make(map[PackURI]*Relationships),
		deleted:      make(map[PackURI]bool),
	}

	rootRelsBlob, err := pr.RelsXmlFor(PackageURI)
	if err != nil {
		return nil, err
	}
	if rootRelsBlob != nil {
		pkg.rootRels, err = ParseRelationships(rootRelsBlob, "/")
		if err != nil {
			return nil, err
		}
	} else {
		pkg.rootRels = NewRelationships("/")
	}

	for _, uri := range pr.URIs() {
		if uri == contentTypesPartName {
			continue
		}
		if isRelsURI(uri) {
			continue
		}
		blob, err := pr.BlobFor(uri)
		if err != nil {
			return nil, err
		}
		ct, err := contentTypes.Resolve(uri)
		if err != nil {
			return nil, err
		}
		part := NewBasePart(uri, ct, blob)

		relsBlob, err := pr.RelsXmlFor(uri)
		if err != nil {
			return nil, err
		}
		if relsBlob != nil {
			rels, err := ParseRelationships(relsBlob, uri.BaseURI())
			if err != nil {
				return nil, err
			}
			part.SetRels(rels)
			pkg.partRels[uri] = rels
		}

		pkg.parts[uri] = part
	}

	resolveRelTargets(pkg)

	return pkg, nil
}

// resolveRelTargets performs the second pass ParseRelationships defers:
// now that every part is known, fill in each internal relationship's
// TargetPart by resolving its Target attribute against its owning
// collection's base URI.
func resolveRelTargets(pkg *Package) {
	resolve := func(rels *Relationships) {
		for _, rel := range rels.All() {
			if rel.IsExternal() {
				continue
			}
			abs := resolveTarget(rels.baseURI, rel.TargetRef)
			if part, ok := pkg.parts[abs]; ok {
				rel.TargetPart = part
			}
		}
	}
	resolve(pkg.rootRels)
	for _, rels := range pkg.partRels {
		resolve(rels)
	}
}

func resolveTarget(base, target string) PackURI {
	if len(target) > 0 && target[0] == '/' {
		return NewPackURI(target)
	}
	if base == "" {
		base = "/"
	}
	if base[len(base)-1] != '/' {
		base += "/"
	}
	return NewPackURI(base + target)
}

func isRelsURI(uri PackURI) bool {
	name := uri.Filename()
	return uri.BaseURI() != "" && len(name) > 5 && name[len(name)-5:] == ".rels" &&
		filepath.Base(filepath.Dir(string(uri))) == "_rels"
}

// Mode reports whether the package was opened read-only or read-write.
func (p *Package) Mode() Mode { return p.mode }

// ContentTypes returns the content-types registry.
func (p *Package) ContentTypes() *ContentTypeMap { return p.contentTypes }

// RootRels returns the package-level (root) relationships collection.
func (p *Package) RootRels() *Relationships { return p.rootRels }

// RelsFor returns the relationships collection owned by uri (the root,
// for PackageURI, or the part's own collection otherwise), or nil if
// the part has none.
func (p *Package) RelsFor(uri PackURI) *Relationships {
	if uri == PackageURI {
		return p.rootRels
	}
	return p.partRels[uri]
}

// Parts returns every non-relationship, non-content-types part in the
// archive, in no particular order.
func (p *Package) Parts() []Part {
	out := make([]Part, 0, len(p.parts))
	for _, part := range p.parts {
		out = append(out, part)
	}
	return out
}

// Part returns the part named uri, or nil if it does not exist.
func (p *Package) Part(uri PackURI) Part {
	return p.parts[uri]
}

// HasPart reports whether uri names an existing part.
func (p *Package) HasPart(uri PackURI) bool {
	_, ok := p.parts[uri]
	return ok
}

// AddPart inserts or replaces a part. Fails with ErrReadOnly outside
// ReadWrite mode.
func (p *Package) AddPart(part Part) error {
	if p.mode != ReadWrite {
		return ErrReadOnly
	}
	p.parts[part.PartName()] = part
	if rels := part.Rels(); rels != nil {
		p.partRels[part.PartName()] = rels
	}
	delete(p.deleted, part.PartName())
	p.dirty = true
	return nil
}

// DeletePart removes a part. Fails with ErrReadOnly outside ReadWrite
// mode.
func (p *Package) DeletePart(uri PackURI) error {
	if p.mode != ReadWrite {
		return ErrReadOnly
	}
	delete(p.parts, uri)
	delete(p.partRels, uri)
	p.deleted[uri] = true
	p.dirty = true
	return nil
}

// IsDirty reports whether the package has unflushed changes.
func (p *Package) IsDirty() bool {
	return p.dirty || p.contentTypes.Dirty()
}

// Flush materializes all buffered writes/deletes. Against a package
// opened with OpenFile, this rewrites the file atomically (temp file
// plus rename); against one opened with OpenBytes, it returns the
// rendered archive bytes.
func (p *Package) Flush() ([]byte, error) {
	if p.mode != ReadWrite {
		return nil, ErrReadOnly
	}

	var buf bytes.Buffer
	pw := NewPhysPkgWriter(&buf)

	ctBlob, err := p.contentTypes.Serialize()
	if err != nil {
		return nil, err
	}
	if err := pw.Write(contentTypesPartName, ctBlob); err != nil {
		return nil, err
	}

	if p.rootRels.Len() > 0 {
		relsBlob, err := p.rootRels.Serialize()
		if err != nil {
			return nil, err
		}
		if err := pw.Write(PackageURI.RelsURI(), relsBlob); err != nil {
			return nil, err
		}
	}

	for uri, part := range p.parts {
		blob, err := part.Blob()
		if err != nil {
			return nil, fmt.Errorf("opc: serializing part %q: %w", uri, err)
		}
		if err := pw.Write(uri, blob); err != nil {
			return nil, err
		}
		if rels := part.Rels(); rels != nil && rels.Len() > 0 {
			relsBlob, err := rels.Serialize()
			if err != nil {
				return nil, err
			}
			if err := pw.Write(uri.RelsURI(), relsBlob); err != nil {
				return nil, err
			}
		}
	}

	if err := pw.Close(); err != nil {
		return nil, fmt.Errorf("opc: closing archive: %w", err)
	}

	out := buf.Bytes()
	if p.path != "" {
		if err := atomicWriteFile(p.path, out); err != nil {
			return nil, err
		}
	}

	p.dirty = false
	p.contentTypes.ClearDirty()
	return out, nil
}

// atomicWriteFile writes data to a temp file alongside path, then
// renames it into place, so a failing write never corrupts the
// original (spec §4.1, §5).
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".vsixsign-*.tmp")
	if err != nil {
		return fmt.Errorf("opc: creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("opc: writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("opc: closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("opc: renaming into place: %w", err)
	}
	return nil
}

// ReadAll is a convenience matching io.ReadAll for callers that hold an
// io.Reader instead of a byte slice.
func ReadAll(r io.Reader) ([]byte, error) {
	return io.ReadAll(r)
}
