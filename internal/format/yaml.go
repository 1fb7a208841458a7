package format

import (
	"fmt"
	"io"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/omarluq/ptree-loader/internal/ptree"
)

// yamlCodec goes through yaml.v3's Node API, which reports mapping entries
// in document order and does not collapse duplicate keys. Mapping entries
// become keyed children, sequence items children under the empty key, and
// scalars node values, mirroring the JSON codec's conventions.
type yamlCodec struct{}

func (yamlCodec) String() string { return "yaml" }

func (yamlCodec) Parse(data []byte) (*ptree.Tree, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("format: parse yaml: %w", err)
	}
	root := ptree.New()
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		yamlFill(doc.Content[0], root)
	}
	return root, nil
}

func yamlFill(n *yaml.Node, dst *ptree.Tree) {
	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			yamlFill(n.Content[i+1], dst.Add(n.Content[i].Value, ptree.New()))
		}
	case yaml.SequenceNode:
		for _, item := range n.Content {
			yamlFill(item, dst.Add("", ptree.New()))
		}
	case yaml.ScalarNode:
		dst.SetValue(n.Value)
	case yaml.AliasNode:
		yamlFill(n.Alias, dst)
	}
}

func (yamlCodec) Serialize(w io.Writer, t *ptree.Tree) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(yamlNode(t)); err != nil {
		return fmt.Errorf("format: serialize yaml: %w", err)
	}
	return enc.Close()
}

func yamlNode(t *ptree.Tree) *yaml.Node {
	children := t.Children()
	if len(children) == 0 {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: t.Value()}
	}
	if lo.EveryBy(children, func(c ptree.Child) bool { return c.Key == "" }) {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, c := range children {
			seq.Content = append(seq.Content, yamlNode(c.Node))
		}
		return seq
	}
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, c := range children {
		m.Content = append(m.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: c.Key},
			yamlNode(c.Node))
	}
	return m
}
