package opc

import (
	"encoding/xml"
	"fmt"
	"path"
	"strings"
)

const contentTypesNamespace = "http://schemas.openxmlformats.org/package/2006/content-types"

// ContentTypeMap is the parsed [Content_Types].xml: a Default (by
// lowercased extension) table and an Override (by part name) table.
// Serialize sorts each table, so output is stable across round-trips;
// the order entries had in the parsed document is not kept (spec §4.2).
type ContentTypeMap struct {
	defaults  *caseInsensitiveMap // extension (no dot) -> content type
	overrides map[string]string   // part name -> content type
	dirty     bool
}

// NewContentTypeMap returns an empty registry.
func NewContentTypeMap() *ContentTypeMap {
	return &ContentTypeMap{
		defaults:  newCaseInsensitiveMap(),
		overrides: make(map[string]string),
	}
}

type contentTypesXML struct {
	XMLName   xml.Name               `xml:"Types"`
	Xmlns     string                 `xml:"xmlns,attr"`
	Defaults  []contentTypeDefaultXML  `xml:"Default"`
	Overrides []contentTypeOverrideXML `xml:"Override"`
}

type contentTypeDefaultXML struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type contentTypeOverrideXML struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// ParseContentTypes parses [Content_Types].xml.
func ParseContentTypes(blob []byte) (*ContentTypeMap, error) {
	var doc contentTypesXML
	if err := xml.Unmarshal(blob, &doc); err != nil {
		return nil, fmt.Errorf("opc: parsing [Content_Types].xml: %w: %w", ErrMalformedPackage, err)
	}
	m := NewContentTypeMap()
	for _, d := range doc.Defaults {
		if d.Extension == "" || d.ContentType == "" {
			return nil, fmt.Errorf("opc: Default entry missing Extension/ContentType: %w", ErrMalformedPackage)
		}
		m.defaults.Set(strings.ToLower(d.Extension), d.ContentType)
	}
	for _, o := range doc.Overrides {
		if o.PartName == "" || o.ContentType == "" {
			return nil, fmt.Errorf("opc: Override entry missing PartName/ContentType: %w", ErrMalformedPackage)
		}
		m.overrides[string(NewPackURI(o.PartName))] = o.ContentType
	}
	return m, nil
}

// Resolve returns the content type for partName, consulting Override
// first, then Default by lowercased extension.
func (m *ContentTypeMap) Resolve(partName PackURI) (string, error) {
	if ct, ok := m.overrides[string(partName)]; ok {
		return ct, nil
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(partName.Filename())), ".")
	if ext != "" && m.defaults.Has(ext) {
		return m.defaults.Get(ext), nil
	}
	return "", fmt.Errorf("opc: resolving content type for %q: %w", partName, ErrUnknownContentType)
}

// AddOverride registers (or replaces) an Override entry for partName.
func (m *ContentTypeMap) AddOverride(partName PackURI, contentType string) {
	m.overrides[string(partName)] = contentType
	m.dirty = true
}

// AddDefault registers (or replaces) a Default entry for ext (no dot).
func (m *ContentTypeMap) AddDefault(ext, contentType string) {
	m.defaults.Set(strings.ToLower(ext), contentType)
	m.dirty = true
}

// RemoveOverride removes the Override entry for partName, if present.
func (m *ContentTypeMap) RemoveOverride(partName PackURI) {
	if _, ok := m.overrides[string(partName)]; ok {
		delete(m.overrides, string(partName))
		m.dirty = true
	}
}

// Dirty reports whether the map has unflushed changes.
func (m *ContentTypeMap) Dirty() bool { return m.dirty }

// ClearDirty resets the dirty flag, called after a successful flush.
func (m *ContentTypeMap) ClearDirty() { m.dirty = false }

// Serialize renders the map back to [Content_Types].xml bytes, with
// stable (sorted) ordering so round-trips are byte-identical for an
// unchanged map.
func (m *ContentTypeMap) Serialize() ([]byte, error) {
	doc := contentTypesXML{Xmlns: contentTypesNamespace}
	for _, ext := range m.defaults.SortedKeys() {
		doc.Defaults = append(doc.Defaults, contentTypeDefaultXML{
			Extension:   ext,
			ContentType: m.defaults.Get(ext),
		})
	}
	for _, pn := range sortedStringKeys(m.overrides) {
		doc.Overrides = append(doc.Overrides, contentTypeOverrideXML{
			PartName:    pn,
			ContentType: m.overrides[pn],
		})
	}
	out, err := xml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("opc: serializing [Content_Types].xml: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}
