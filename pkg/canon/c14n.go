package canon

import (
	"bytes"
	"sort"
	"strings"

	"github.com/beevik/etree"
)

// c14n10 implements Canonical XML 1.0, without comments: UTF-8 output,
// namespace declarations sorted before attributes, default-namespace
// expansion, removal of redundant namespace declarations, normalized
// attribute-value and line-ending whitespace, and no XML/DOCTYPE
// declarations or comments (spec §4.4).
type c14n10 struct{}

func (c14n10) Algorithm() string { return AlgorithmC14N10 }

func (c14n10) Canonicalize(el *etree.Element) ([]byte, error) {
	var buf bytes.Buffer
	nsScope := map[string]string{} // prefix -> URI already declared in an ancestor
	writeElementC14N(&buf, el, nsScope)
	return buf.Bytes(), nil
}

// nsDecl is a namespace declaration pending serialization on an element:
// prefix == "" for the default namespace.
type nsDecl struct {
	prefix string
	uri    string
}

func writeElementC14N(buf *bytes.Buffer, el *etree.Element, inherited map[string]string) {
	// Determine the namespace declarations newly introduced or changed on
	// this element (including its own prefix and its attributes' prefixes).
	local := make(map[string]string, len(inherited))
	for k, v := range inherited {
		local[k] = v
	}

	var newDecls []nsDecl
	declareIfNew := func(prefix, uri string) {
		if uri == "" {
			return
		}
		if cur, ok := local[prefix]; ok && cur == uri {
			return
		}
		local[prefix] = uri
		newDecls = append(newDecls, nsDecl{prefix: prefix, uri: uri})
	}

	if el.Space != "" {
		declareIfNew(el.Space, namespaceURIFor(el, el.Space))
	} else if ns := namespaceURIFor(el, ""); ns != "" {
		declareIfNew("", ns)
	}
	for _, a := range el.Attr {
		if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") {
			continue // namespace declarations are re-derived, not copied verbatim
		}
		if a.Space != "" {
			declareIfNew(a.Space, namespaceURIFor(el, a.Space))
		}
	}

	sort.Slice(newDecls, func(i, j int) bool { return newDecls[i].prefix < newDecls[j].prefix })

	// Regular (non-namespace) attributes, sorted by (namespace URI, local name).
	attrs := make([]etree.Attr, 0, len(el.Attr))
	for _, a := range el.Attr {
		if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") {
			continue
		}
		attrs = append(attrs, a)
	}
	attrNS := func(a etree.Attr) string {
		if a.Space == "" {
			return "" // unprefixed attributes are in no namespace
		}
		return local[a.Space]
	}
	sort.SliceStable(attrs, func(i, j int) bool {
		ui, uj := attrNS(attrs[i]), attrNS(attrs[j])
		if ui != uj {
			return ui < uj
		}
		return attrs[i].Key < attrs[j].Key
	})

	buf.WriteByte('<')
	buf.WriteString(el.FullTag())

	for _, d := range newDecls {
		buf.WriteByte(' ')
		if d.prefix == "" {
			buf.WriteString("xmlns")
		} else {
			buf.WriteString("xmlns:")
			buf.WriteString(d.prefix)
		}
		buf.WriteString(`="`)
		buf.WriteString(escapeAttrValue(d.uri))
		buf.WriteByte('"')
	}
	for _, a := range attrs {
		buf.WriteByte(' ')
		if a.Space != "" {
			buf.WriteString(a.Space)
			buf.WriteByte(':')
		}
		buf.WriteString(a.Key)
		buf.WriteString(`="`)
		buf.WriteString(escapeAttrValue(a.Value))
		buf.WriteByte('"')
	}

	if len(el.Child) == 0 {
		buf.WriteString("></")
		buf.WriteString(el.FullTag())
		buf.WriteByte('>')
		return
	}
	buf.WriteByte('>')
	for _, child := range el.Child {
		switch t := child.(type) {
		case *etree.Element:
			writeElementC14N(buf, t, local)
		case *etree.CharData:
			buf.WriteString(escapeText(t.Data))
		case *etree.Comment:
			// comments are dropped (C14N without comments)
		}
	}
	buf.WriteString("</")
	buf.WriteString(el.FullTag())
	buf.WriteByte('>')
}

func elementChildren(el *etree.Element) []*etree.Element {
	var out []*etree.Element
	for _, c := range el.Child {
		if e, ok := c.(*etree.Element); ok {
			out = append(out, e)
		}
	}
	return out
}

// namespaceURIFor resolves the namespace URI bound to prefix (""
// meaning the default namespace) by walking up from el through its own
// attribute list; etree does not track ancestor scope for us once we
// are working from a detached subtree, so the builder that constructs
// signed elements is responsible for repeating xmlns declarations on
// whichever node first uses a given prefix.
func namespaceURIFor(el *etree.Element, prefix string) string {
	key := "xmlns"
	if prefix != "" {
		key = "xmlns:" + prefix
	}
	for n := el; n != nil; n = n.Parent() {
		for _, a := range n.Attr {
			if a.FullKey() == key {
				return a.Value
			}
		}
	}
	return ""
}

func escapeText(s string) string {
	s = normalizeLineEndings(s)
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

func escapeAttrValue(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		`"`, "&quot;",
		"\t", "&#x9;",
		"\n", "&#xA;",
		"\r", "&#xD;",
	)
	return r.Replace(s)
}

// normalizeLineEndings converts CRLF and bare CR to LF, per C14N's
// requirement that line endings outside attribute values are
// normalized to LF before serialization.
func normalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return s
}
