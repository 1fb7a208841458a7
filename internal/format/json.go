package format

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"

	"github.com/omarluq/ptree-loader/internal/ptree"
)

// jsonCodec maps JSON onto the property-tree model the way property-tree
// libraries conventionally do: object members and array elements become
// children (array elements under the empty key), and every scalar becomes a
// string. Parsing walks the raw document with gjson, which keeps member
// order and duplicate keys exactly as written.
type jsonCodec struct{}

func (jsonCodec) String() string { return "json" }

func (jsonCodec) Parse(data []byte) (*ptree.Tree, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() && !doc.IsArray() {
		return nil, ErrJSONTopLevel
	}
	root := ptree.New()
	jsonChildren(doc, root)
	return root, nil
}

func jsonChildren(v gjson.Result, dst *ptree.Tree) {
	if v.IsObject() {
		v.ForEach(func(key, value gjson.Result) bool {
			addJSONChild(dst, key.String(), value)
			return true
		})
		return
	}
	for _, value := range v.Array() {
		addJSONChild(dst, "", value)
	}
}

func addJSONChild(dst *ptree.Tree, key string, value gjson.Result) {
	node := dst.Add(key, ptree.New())
	if value.IsObject() || value.IsArray() {
		jsonChildren(value, node)
		return
	}
	node.SetValue(value.String())
}

func (jsonCodec) Serialize(w io.Writer, t *ptree.Tree) error {
	var b bytes.Buffer
	if t.Len() == 0 {
		// A childless root has no scalar document form; write the empty object.
		b.WriteString("{}")
	} else {
		writeJSON(&b, t, 0)
	}
	b.WriteByte('\n')
	_, err := w.Write(b.Bytes())
	return err
}

const jsonIndent = "    "

// writeJSON emits a node: childless nodes as quoted strings, nodes whose
// children all carry the empty key as arrays, everything else as objects.
// Duplicate keys are written as-is; the result is still syntactically valid
// JSON and re-parses to the same tree.
func writeJSON(b *bytes.Buffer, t *ptree.Tree, depth int) {
	children := t.Children()
	if len(children) == 0 {
		b.Write(jsonQuote(t.Value()))
		return
	}

	isArray := lo.EveryBy(children, func(c ptree.Child) bool { return c.Key == "" })
	open, closing := "{", "}"
	if isArray {
		open, closing = "[", "]"
	}

	b.WriteString(open)
	b.WriteByte('\n')
	pad := strings.Repeat(jsonIndent, depth+1)
	for i, c := range children {
		b.WriteString(pad)
		if !isArray {
			b.Write(jsonQuote(c.Key))
			b.WriteString(": ")
		}
		writeJSON(b, c.Node, depth+1)
		if i < len(children)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString(strings.Repeat(jsonIndent, depth))
	b.WriteString(closing)
}

func jsonQuote(s string) []byte {
	// Marshaling a plain string cannot fail.
	out, _ := json.Marshal(s)
	return out
}
