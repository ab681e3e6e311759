package opc

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
)

const relationshipsNamespace = "http://schemas.openxmlformats.org/package/2006/relationships"

// Relationship type URIs used by the signing engine. Spelled out exactly
// as OPC/ECMA-376 requires; grounded on qmuntal-opc's relationship.go.
const (
	RelTypeDigitalSignatureOrigin = "http://schemas.openxmlformats.org/package/2006/relationships/digital-signature/origin"
	RelTypeDigitalSignature       = "http://schemas.openxmlformats.org/package/2006/relationships/digital-signature/signature"
	RelTypeDigitalSignatureCert   = "http://schemas.openxmlformats.org/package/2006/relationships/digital-signature/certificate"
)

// TargetMode distinguishes relationships to parts within the package
// from relationships to external resources.
type TargetMode int

const (
	ModeInternal TargetMode = iota
	ModeExternal
)

func (m TargetMode) String() string {
	if m == ModeExternal {
		return "External"
	}
	return "Internal"
}

// Relationship is a single typed link from a source part (or the
// package root) to a target URI.
type Relationship struct {
	ID         string
	RelType    string
	TargetRef  string // as written in the Target attribute
	TargetPart Part   // non-nil for internal relationships whose target is resolved
	TargetMode TargetMode
}

// IsExternal reports whether the relationship targets something outside
// the package.
func (r *Relationship) IsExternal() bool { return r.TargetMode == ModeExternal }

// Relationships is the parsed _rels/<name>.rels (or root _rels/.rels)
// for one owning part. IDs are unique within a single Relationships
// collection only (spec §9 Open Question: per-source-part uniqueness).
type Relationships struct {
	baseURI string
	byID    map[string]*Relationship
	order   []string // insertion order of IDs, for All/ByType iteration
	rng     io.Reader
}

// NewRelationships returns an empty collection whose relative Target
// references resolve against baseURI (the owning part's directory).
func NewRelationships(baseURI string) *Relationships {
	return &Relationships{
		baseURI: baseURI,
		byID:    make(map[string]*Relationship),
		rng:     rand.Reader,
	}
}

// SetRandSource overrides the randomness source used for id generation,
// per spec §9 ("random id generation should accept an injectable
// randomness source").
func (r *Relationships) SetRandSource(src io.Reader) { r.rng = src }

// Add creates and stores a new relationship, generating a fresh id.
// The relationship is external if external is true and internal
// otherwise; target is stored verbatim as its Target attribute and
// targetPart (which may be nil) as its resolved part.
func (r *Relationships) Add(relType, target string, targetPart Part, external bool) *Relationship {
	mode := ModeInternal
	if external {
		mode = ModeExternal
	}
	rel := &Relationship{
		ID:         r.nextID(),
		RelType:    relType,
		TargetRef:  target,
		TargetPart: targetPart,
		TargetMode: mode,
	}
	r.byID[rel.ID] = rel
	r.order = append(r.order, rel.ID)
	return rel
}

// Load inserts a relationship with an explicit id, used when parsing an
// existing .rels part.
func (r *Relationships) Load(id, relType, targetRef string, targetPart Part, external bool) {
	mode := ModeInternal
	if external {
		mode = ModeExternal
	}
	rel := &Relationship{ID: id, RelType: relType, TargetRef: targetRef, TargetPart: targetPart, TargetMode: mode}
	if _, exists := r.byID[id]; !exists {
		r.order = append(r.order, id)
	}
	r.byID[id] = rel
}

// Remove deletes the relationship with the given id, if present.
func (r *Relationships) Remove(id string) {
	if _, ok := r.byID[id]; !ok {
		return
	}
	delete(r.byID, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// GetByRID returns the relationship with the given id, or nil.
func (r *Relationships) GetByRID(id string) *Relationship {
	return r.byID[id]
}

// ByType returns all relationships of the given type, in insertion order.
func (r *Relationships) ByType(relType string) []*Relationship {
	var out []*Relationship
	for _, id := range r.order {
		rel := r.byID[id]
		if rel.RelType == relType {
			out = append(out, rel)
		}
	}
	return out
}

// GetByRelType returns the single relationship of the given type. It is
// an error for more than one to exist when uniqueness is expected by
// the caller; this returns the first found, or nil if none.
func (r *Relationships) GetByRelType(relType string) *Relationship {
	for _, id := range r.order {
		rel := r.byID[id]
		if rel.RelType == relType {
			return rel
		}
	}
	return nil
}

// GetOrAdd returns the existing relationship of relType targeting
// targetPart if one exists, otherwise adds one.
func (r *Relationships) GetOrAdd(relType, target string, targetPart Part) *Relationship {
	for _, id := range r.order {
		rel := r.byID[id]
		if rel.RelType == relType && rel.TargetPart == targetPart {
			return rel
		}
	}
	return r.Add(relType, target, targetPart, false)
}

// All returns every relationship in insertion order.
func (r *Relationships) All() []*Relationship {
	out := make([]*Relationship, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Len reports the number of relationships in the collection.
func (r *Relationships) Len() int { return len(r.order) }

// nextID generates an id of the form "R" + uppercase hex of a random
// 32-bit value, retried on collision with an existing id (spec §4.3).
func (r *Relationships) nextID() string {
	for {
		var b [4]byte
		if _, err := io.ReadFull(r.rng, b[:]); err != nil {
			// crypto/rand.Reader does not fail in practice; fall back to
			// a counter-derived id rather than panic.
			id := fmt.Sprintf("R%08X", len(r.order)+1)
			if _, exists := r.byID[id]; !exists {
				return id
			}
			continue
		}
		id := "R" + strings.ToUpper(hex.EncodeToString(b[:]))
		if _, exists := r.byID[id]; !exists {
			return id
		}
	}
}

type relationshipsXML struct {
	XMLName       xml.Name           `xml:"Relationships"`
	Xmlns         string             `xml:"xmlns,attr"`
	Relationships []relationshipXML  `xml:"Relationship"`
}

type relationshipXML struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// ParseRelationships parses a _rels/*.rels blob. Resolving TargetPart
// references is the caller's responsibility (it requires knowledge of
// the rest of the package); each entry is inserted with Load and left
// with a nil TargetPart, which Package fills in a second pass
// (resolveRelTargets).
func ParseRelationships(blob []byte, baseURI string) (*Relationships, error) {
	var doc relationshipsXML
	if err := xml.Unmarshal(blob, &doc); err != nil {
		return nil, fmt.Errorf("opc: parsing relationships: %w: %w", ErrMalformedPackage, err)
	}
	rels := NewRelationships(baseURI)
	for _, rel := range doc.Relationships {
		if rel.ID == "" || rel.Type == "" || rel.Target == "" {
			return nil, fmt.Errorf("opc: relationship missing Id/Type/Target: %w", ErrMalformedPackage)
		}
		external := strings.EqualFold(rel.TargetMode, "External")
		rels.Load(rel.ID, rel.Type, rel.Target, nil, external)
	}
	return rels, nil
}

// Serialize renders the collection to _rels/*.rels bytes, sorted by id
// for deterministic output.
func (r *Relationships) Serialize() ([]byte, error) {
	doc := relationshipsXML{Xmlns: relationshipsNamespace}
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	sort.Strings(ids)
	for _, id := range ids {
		rel := r.byID[id]
		x := relationshipXML{ID: rel.ID, Type: rel.RelType, Target: rel.TargetRef}
		if rel.IsExternal() {
			x.TargetMode = "External"
		}
		doc.Relationships = append(doc.Relationships, x)
	}
	out, err := xml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("opc: serializing relationships: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}
