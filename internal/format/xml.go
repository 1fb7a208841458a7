package format

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"

	"github.com/omarluq/ptree-loader/internal/ptree"
)

// AttrKey is the reserved child key that holds an element's attributes,
// following the property-tree XML convention.
const AttrKey = "<xmlattr>"

// xmlCodec maps XML onto the property-tree model: element name becomes the
// child key, text content becomes the node value, nested elements become
// children, and attributes are collected under an AttrKey subtree. The
// stdlib token stream is used directly because it reports elements in
// document order, repeated names included; no pack library covers XML.
type xmlCodec struct{}

func (xmlCodec) String() string { return "xml" }

func (xmlCodec) Parse(data []byte) (*ptree.Tree, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	root := ptree.New()
	stack := []*ptree.Tree{root}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("format: parse xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			node := stack[len(stack)-1].Add(t.Name.Local, ptree.New())
			if len(t.Attr) > 0 {
				attrs := node.Add(AttrKey, ptree.New())
				for _, a := range t.Attr {
					attrs.AddValue(a.Name.Local, a.Value)
				}
			}
			stack = append(stack, node)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			// Whitespace between elements is formatting, not data.
			if text := strings.TrimSpace(string(t)); text != "" && len(stack) > 1 {
				node := stack[len(stack)-1]
				node.SetValue(node.Value() + text)
			}
		}
	}

	return root, nil
}

func (xmlCodec) Serialize(w io.Writer, t *ptree.Tree) error {
	var b bytes.Buffer
	b.WriteString(xml.Header)
	for _, c := range t.Children() {
		writeXML(&b, c.Key, c.Node, 0)
	}
	_, err := w.Write(b.Bytes())
	return err
}

const xmlIndent = "    "

func writeXML(b *bytes.Buffer, key string, t *ptree.Tree, depth int) {
	if key == AttrKey {
		return
	}

	pad := strings.Repeat(xmlIndent, depth)
	b.WriteString(pad)
	b.WriteByte('<')
	b.WriteString(key)
	if attrs, ok := t.Get(AttrKey).Get(); ok {
		for _, a := range attrs.Children() {
			b.WriteByte(' ')
			b.WriteString(a.Key)
			b.WriteString(`="`)
			xmlEscape(b, a.Node.Value())
			b.WriteByte('"')
		}
	}

	elems := lo.Filter(t.Children(), func(c ptree.Child, _ int) bool { return c.Key != AttrKey })
	if len(elems) == 0 && t.Value() == "" {
		b.WriteString("/>\n")
		return
	}

	b.WriteByte('>')
	xmlEscape(b, t.Value())
	if len(elems) > 0 {
		b.WriteByte('\n')
		for _, c := range elems {
			writeXML(b, c.Key, c.Node, depth+1)
		}
		b.WriteString(pad)
	}
	b.WriteString("</")
	b.WriteString(key)
	b.WriteString(">\n")
}

func xmlEscape(b *bytes.Buffer, s string) {
	// EscapeText only fails on writer errors; bytes.Buffer has none.
	_ = xml.EscapeText(b, []byte(s))
}
