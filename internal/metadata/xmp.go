package metadata

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// XMP namespaces written by the transformer.
const (
	NSRDF       = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NSDC        = "http://purl.org/dc/elements/1.1/"
	NSXMP       = "http://ns.adobe.com/xap/1.0/"
	NSXMPMM     = "http://ns.adobe.com/xap/1.0/mm/"
	NSExif      = "http://ns.adobe.com/exif/1.0/"
	NSExifEX    = "http://cipa.jp/exif/1.0/"
	NSTIFF      = "http://ns.adobe.com/tiff/1.0/"
	NSAux       = "http://ns.adobe.com/exif/1.0/aux/"
	NSPhotoshop = "http://ns.adobe.com/photoshop/1.0/"

	nsMeta = "adobe:ns:meta/"
	nsXML  = "http://www.w3.org/XML/1998/namespace"
)

var knownPrefixes = map[string]string{
	NSRDF:       "rdf",
	NSDC:        "dc",
	NSXMP:       "xmp",
	NSXMPMM:     "xmpMM",
	NSExif:      "exif",
	NSExifEX:    "exifEX",
	NSTIFF:      "tiff",
	NSAux:       "aux",
	NSPhotoshop: "photoshop",
}

// Kind is the RDF shape of an XMP property.
type Kind int

const (
	Simple Kind = iota
	Bag
	Seq
	Alt
)

func (k Kind) container() string {
	switch k {
	case Bag:
		return "Bag"
	case Seq:
		return "Seq"
	case Alt:
		return "Alt"
	default:
		return ""
	}
}

// Property is one XMP property. Simple properties carry a single value.
type Property struct {
	NS     string
	Name   string
	Kind   Kind
	Values []string
}

// Value returns the first value of the property.
func (p Property) Value() string {
	if len(p.Values) == 0 {
		return ""
	}
	return p.Values[0]
}

// XMP is an editable XMP packet holding simple and array properties.
// Structured properties of a parsed packet are not kept.
type XMP struct {
	props    []Property
	prefixes map[string]string
}

// NewXMP returns an empty packet.
func NewXMP() *XMP {
	return &XMP{prefixes: make(map[string]string)}
}

// xmlNode is a minimal element tree used while parsing.
type xmlNode struct {
	name     xml.Name
	attrs    []xml.Attr
	children []*xmlNode
	text     strings.Builder
}

// ParseXMP reads the rdf:Description blocks of a serialized packet.
func ParseXMP(data []byte) (*XMP, error) {
	root, err := parseTree(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse XMP: %w", err)
	}

	x := NewXMP()
	x.collect(root)
	return x, nil
}

func parseTree(data []byte) (*xmlNode, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	root := &xmlNode{}
	stack := []*xmlNode{root}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		top := stack[len(stack)-1]
		switch t := tok.(type) {
		case xml.StartElement:
			n := &xmlNode{name: t.Name, attrs: t.Copy().Attr}
			top.children = append(top.children, n)
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			top.text.Write(t)
		}
	}

	return root, nil
}

func (x *XMP) collect(n *xmlNode) {
	for _, a := range n.attrs {
		if a.Name.Space == "xmlns" {
			x.prefixes[a.Value] = a.Name.Local
		}
	}

	if n.name.Space == NSRDF && n.name.Local == "Description" {
		x.collectDescription(n)
		return
	}
	for _, c := range n.children {
		x.collect(c)
	}
}

func (x *XMP) collectDescription(n *xmlNode) {
	// Short form: simple values as attributes.
	for _, a := range n.attrs {
		switch a.Name.Space {
		case "", "xmlns", NSRDF, nsXML:
			continue
		}
		x.Set(a.Name.Space, a.Name.Local, a.Value)
	}

	for _, c := range n.children {
		for _, a := range c.attrs {
			if a.Name.Space == "xmlns" {
				x.prefixes[a.Value] = a.Name.Local
			}
		}
		if c.name.Space == "" {
			continue
		}

		if len(c.children) == 0 {
			x.Set(c.name.Space, c.name.Local, strings.TrimSpace(c.text.String()))
			continue
		}

		arr := c.children[0]
		if arr.name.Space != NSRDF || len(c.children) != 1 {
			continue
		}

		var kind Kind
		switch arr.name.Local {
		case "Bag":
			kind = Bag
		case "Seq":
			kind = Seq
		case "Alt":
			kind = Alt
		default:
			continue
		}

		var values []string
		for _, li := range arr.children {
			if li.name.Space == NSRDF && li.name.Local == "li" && len(li.children) == 0 {
				values = append(values, strings.TrimSpace(li.text.String()))
			}
		}
		x.SetList(c.name.Space, c.name.Local, kind, values...)
	}
}

func (x *XMP) index(ns, name string) int {
	for i, p := range x.props {
		if p.NS == ns && p.Name == name {
			return i
		}
	}
	return -1
}

func (x *XMP) put(p Property) {
	if i := x.index(p.NS, p.Name); i >= 0 {
		x.props[i] = p
		return
	}
	x.props = append(x.props, p)
}

// Set stores a simple property.
func (x *XMP) Set(ns, name, value string) {
	x.put(Property{NS: ns, Name: name, Kind: Simple, Values: []string{value}})
}

// SetList stores an array property of the given kind.
func (x *XMP) SetList(ns, name string, kind Kind, values ...string) {
	x.put(Property{NS: ns, Name: name, Kind: kind, Values: append([]string(nil), values...)})
}

// SetAlt stores a language alternative with a single default value.
func (x *XMP) SetAlt(ns, name, value string) {
	x.SetList(ns, name, Alt, value)
}

// Get returns the property ns:name.
func (x *XMP) Get(ns, name string) (Property, bool) {
	if i := x.index(ns, name); i >= 0 {
		return x.props[i], true
	}
	return Property{}, false
}

// Delete removes the property ns:name.
func (x *XMP) Delete(ns, name string) {
	x.DeleteFunc(func(p Property) bool { return p.NS == ns && p.Name == name })
}

// DeleteFunc removes every property for which del returns true.
func (x *XMP) DeleteFunc(del func(Property) bool) {
	kept := x.props[:0]
	for _, p := range x.props {
		if !del(p) {
			kept = append(kept, p)
		}
	}
	x.props = kept
}

// Properties returns the properties in insertion order.
func (x *XMP) Properties() []Property {
	return append([]Property(nil), x.props...)
}

// Empty reports whether the packet has no properties.
func (x *XMP) Empty() bool {
	return x == nil || len(x.props) == 0
}

func (x *XMP) prefix(ns string) string {
	if p, ok := knownPrefixes[ns]; ok {
		return p
	}
	if p, ok := x.prefixes[ns]; ok && p != "" {
		return p
	}
	return ""
}

// Encode serializes the packet inside an xpacket wrapper.
func (x *XMP) Encode() []byte {
	if x.Empty() {
		return nil
	}

	// Assign a prefix to every namespace in use.
	prefixes := make(map[string]string)
	used := make(map[string]bool)
	for _, p := range x.props {
		if _, ok := prefixes[p.NS]; ok {
			continue
		}
		pfx := x.prefix(p.NS)
		if pfx == "" || used[pfx] {
			pfx = fmt.Sprintf("ns%d", len(prefixes)+1)
		}
		prefixes[p.NS] = pfx
		used[pfx] = true
	}

	namespaces := make([]string, 0, len(prefixes))
	for ns := range prefixes {
		namespaces = append(namespaces, ns)
	}
	sort.Slice(namespaces, func(i, j int) bool { return prefixes[namespaces[i]] < prefixes[namespaces[j]] })

	var b bytes.Buffer
	b.WriteString("<?xpacket begin=\"\xef\xbb\xbf\" id=\"W5M0MpCehiHzreSzNTczkc9d\"?>\n")
	b.WriteString(`<x:xmpmeta xmlns:x="` + nsMeta + `">` + "\n")
	b.WriteString(` <rdf:RDF xmlns:rdf="` + NSRDF + `">` + "\n")
	b.WriteString(`  <rdf:Description rdf:about=""`)
	for _, ns := range namespaces {
		fmt.Fprintf(&b, "\n    xmlns:%s=\"%s\"", prefixes[ns], escape(ns))
	}
	b.WriteString(">\n")

	for _, p := range x.props {
		tag := prefixes[p.NS] + ":" + p.Name
		if p.Kind == Simple {
			fmt.Fprintf(&b, "   <%s>%s</%s>\n", tag, escape(p.Value()), tag)
			continue
		}

		fmt.Fprintf(&b, "   <%s>\n    <rdf:%s>\n", tag, p.Kind.container())
		for _, v := range p.Values {
			if p.Kind == Alt {
				fmt.Fprintf(&b, "     <rdf:li xml:lang=\"x-default\">%s</rdf:li>\n", escape(v))
			} else {
				fmt.Fprintf(&b, "     <rdf:li>%s</rdf:li>\n", escape(v))
			}
		}
		fmt.Fprintf(&b, "    </rdf:%s>\n   </%s>\n", p.Kind.container(), tag)
	}

	b.WriteString("  </rdf:Description>\n </rdf:RDF>\n</x:xmpmeta>\n")
	b.WriteString(`<?xpacket end="w"?>`)

	return b.Bytes()
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
