// Package ptree implements an ordered property tree: every node carries a
// scalar string value and an ordered list of key/subtree children. Keys may
// repeat, and children are only ever appended, never replaced, so merge
// operations preserve both order and duplicates.
package ptree

import (
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Child is one key/subtree pair inside a node's ordered child list.
type Child struct {
	Key  string
	Node *Tree
}

// Tree is a single property-tree node.
type Tree struct {
	value    string
	children []Child
}

// New returns an empty node.
func New() *Tree {
	return &Tree{}
}

// NewValue returns a leaf node holding value.
func NewValue(value string) *Tree {
	return &Tree{value: value}
}

// Value returns the node's scalar data.
func (t *Tree) Value() string {
	return t.value
}

// SetValue replaces the node's scalar data.
func (t *Tree) SetValue(value string) {
	t.value = value
}

// Add appends node as a new child under key and returns it. Children that
// already exist under the same key are left untouched.
func (t *Tree) Add(key string, node *Tree) *Tree {
	t.children = append(t.children, Child{Key: key, Node: node})
	return node
}

// AddValue appends a leaf child holding value under key and returns it.
func (t *Tree) AddValue(key, value string) *Tree {
	return t.Add(key, NewValue(value))
}

// Children returns the node's child list in insertion order. The returned
// slice is the node's own backing storage and must not be mutated.
func (t *Tree) Children() []Child {
	return t.children
}

// Len returns the number of immediate children.
func (t *Tree) Len() int {
	return len(t.children)
}

// Empty reports whether the node has neither data nor children.
func (t *Tree) Empty() bool {
	return t.value == "" && len(t.children) == 0
}

// Get returns the first child stored under key.
func (t *Tree) Get(key string) mo.Option[*Tree] {
	for _, c := range t.children {
		if c.Key == key {
			return mo.Some(c.Node)
		}
	}
	return mo.None[*Tree]()
}

// Keys returns the child keys in insertion order, duplicates included.
func (t *Tree) Keys() []string {
	return lo.Map(t.children, func(c Child, _ int) string { return c.Key })
}

// Equal reports structural equality: same value and the same children, key
// for key and node for node, in the same order.
func (t *Tree) Equal(other *Tree) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.value != other.value || len(t.children) != len(other.children) {
		return false
	}
	for i, c := range t.children {
		oc := other.children[i]
		if c.Key != oc.Key || !c.Node.Equal(oc.Node) {
			return false
		}
	}
	return true
}
