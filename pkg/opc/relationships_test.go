package opc

import (
	"bytes"
	"io"
	"testing"
)

// sequenceReader yields each 4-byte sequence in turn, then repeats the
// last one forever — used to force a deterministic id collision and
// verify nextID retries rather than returning a duplicate.
type sequenceReader struct {
	seqs [][]byte
	i    int
}

func (r *sequenceReader) Read(p []byte) (int, error) {
	seq := r.seqs[r.i]
	if r.i < len(r.seqs)-1 {
		r.i++
	}
	n := copy(p, seq)
	return n, nil
}

func TestRelationships_AddGeneratesUniqueIDs(t *testing.T) {
	t.Parallel()

	rels := NewRelationships("/")
	rels.SetRandSource(&sequenceReader{seqs: [][]byte{
		{0x01, 0x01, 0x01, 0x01},
		{0x01, 0x01, 0x01, 0x01}, // collision: nextID must retry
		{0x02, 0x02, 0x02, 0x02},
	}})

	a := rels.Add(RelTypeDigitalSignature, "/sig.xml", nil, false)
	b := rels.Add(RelTypeDigitalSignature, "/sig2.xml", nil, false)

	if a.ID == b.ID {
		t.Fatalf("expected distinct ids, both got %q", a.ID)
	}
	if a.ID != "R01010101" || b.ID != "R02020202" {
		t.Errorf("unexpected ids: %q, %q", a.ID, b.ID)
	}
}

func TestRelationships_RemoveAndByType(t *testing.T) {
	t.Parallel()

	rels := NewRelationships("/")
	a := rels.Add(RelTypeDigitalSignatureOrigin, "/origin.psdsor", nil, false)
	b := rels.Add(RelTypeDigitalSignature, "/sig.xml", nil, false)

	if got := rels.ByType(RelTypeDigitalSignature); len(got) != 1 || got[0].ID != b.ID {
		t.Fatalf("ByType returned %v, want [%s]", got, b.ID)
	}

	rels.Remove(a.ID)
	if rels.Len() != 1 {
		t.Fatalf("expected 1 relationship after Remove, got %d", rels.Len())
	}
	if rels.GetByRID(a.ID) != nil {
		t.Error("expected removed relationship to be gone")
	}
}

func TestParseRelationships_RoundTrip(t *testing.T) {
	t.Parallel()

	rels := NewRelationships("/")
	rels.Add(RelTypeDigitalSignatureOrigin, "/package/services/digital-signature/origin.psdsor", nil, false)
	rels.Add("http://example.com/external", "http://example.com/", nil, true)

	blob, err := rels.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if !bytes.Contains(blob, []byte(`TargetMode="External"`)) {
		t.Error("expected serialized external relationship to carry TargetMode=External")
	}

	parsed, err := ParseRelationships(blob, "/")
	if err != nil {
		t.Fatalf("ParseRelationships: %v", err)
	}
	if parsed.Len() != 2 {
		t.Fatalf("expected 2 relationships after round-trip, got %d", parsed.Len())
	}
	ext := parsed.GetByRelType("http://example.com/external")
	if ext == nil || !ext.IsExternal() {
		t.Error("expected external relationship to round-trip as external")
	}
}

func TestParseRelationships_MalformedReturnsError(t *testing.T) {
	t.Parallel()

	_, err := ParseRelationships([]byte("not xml at all"), "/")
	if err == nil {
		t.Fatal("expected error for malformed relationships XML")
	}
}

var _ io.Reader = (*sequenceReader)(nil)
