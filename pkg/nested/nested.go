// Package nested is a string-keyed tree whose nodes are either a Leaf
// holding a value or a Branch holding children. The variant is fixed when
// a node is created.
//
// SetPath and UpdatePath create missing intermediate nodes as empty
// branches. Walking through an existing leaf is an error.
package nested

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

var (
	ErrEmptyPath  = errors.New("empty path")
	ErrLeafInPath = errors.New("path traverses a leaf")
)

// Node is a Leaf or a Branch.
type Node[V any] struct {
	leaf     bool
	value    V
	children map[string]*Node[V]
}

// NewBranch returns an empty branch.
func NewBranch[V any]() *Node[V] {
	return &Node[V]{children: make(map[string]*Node[V])}
}

// NewLeaf returns a leaf holding v.
func NewLeaf[V any](v V) *Node[V] {
	return &Node[V]{leaf: true, value: v}
}

// IsLeaf reports whether n is a leaf.
func (n *Node[V]) IsLeaf() bool { return n.leaf }

// Value returns the leaf value; ok is false for branches.
func (n *Node[V]) Value() (v V, ok bool) {
	if !n.leaf {
		return v, false
	}
	return n.value, true
}

// Len returns the number of children (0 for leaves).
func (n *Node[V]) Len() int { return len(n.children) }

// Keys returns child keys in sorted order.
func (n *Node[V]) Keys() []string {
	keys := make([]string, 0, len(n.children))
	for k := range n.children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Child returns the direct child at key.
func (n *Node[V]) Child(key string) (*Node[V], bool) {
	c, ok := n.children[key]
	return c, ok
}

// Lookup follows path from n. An empty path returns n itself.
func (n *Node[V]) Lookup(path ...string) (*Node[V], bool) {
	cur := n
	for _, key := range path {
		next, ok := cur.children[key]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// EnsurePath returns the branch at path, creating empty branches where
// nodes are missing.
func (n *Node[V]) EnsurePath(path []string) (*Node[V], error) {
	cur := n
	for i, key := range path {
		if cur.leaf {
			return nil, fmt.Errorf("%w at %v", ErrLeafInPath, path[:i])
		}
		next, ok := cur.children[key]
		if !ok {
			next = NewBranch[V]()
			cur.children[key] = next
		}
		cur = next
	}
	if cur.leaf {
		return nil, fmt.Errorf("%w at %v", ErrLeafInPath, path)
	}
	return cur, nil
}

// SetPath stores v as a leaf at path. Whatever node held the final key is
// replaced.
func (n *Node[V]) SetPath(path []string, v V) error {
	return n.UpdatePath(path, func(V, bool) V { return v })
}

// UpdatePath replaces the leaf at path with update(old, found). found is
// false when no leaf existed there.
func (n *Node[V]) UpdatePath(path []string, update func(old V, found bool) V) error {
	if len(path) == 0 {
		return ErrEmptyPath
	}
	parent, err := n.EnsurePath(path[:len(path)-1])
	if err != nil {
		return err
	}
	key := path[len(path)-1]

	var old V
	found := false
	if c, ok := parent.children[key]; ok && c.leaf {
		old, found = c.value, true
	}
	parent.children[key] = NewLeaf(update(old, found))
	return nil
}

// Walk visits every leaf in key order with its full path.
func (n *Node[V]) Walk(fn func(path []string, v V)) {
	n.walk(nil, fn)
}

func (n *Node[V]) walk(prefix []string, fn func([]string, V)) {
	if n.leaf {
		fn(prefix, n.value)
		return
	}
	for _, k := range n.Keys() {
		p := append(append([]string(nil), prefix...), k)
		n.children[k].walk(p, fn)
	}
}

// MarshalJSON encodes leaves as their value and branches as objects.
func (n *Node[V]) MarshalJSON() ([]byte, error) {
	if n.leaf {
		return json.Marshal(n.value)
	}
	return json.Marshal(n.children)
}
