package basic

import (
	"reflect"

	enc "github.com/Tankmaster48/ndnd-catchunks/std/encoding"
)

// NameTrie indexes values of type V by NDN name, one trie node per name
// component. The FIB and PIT are both instances of this trie: the FIB
// keyed by registered prefix, the PIT keyed by pending Interest name.
type NameTrie[V any] struct {
	root *NameTrieNode[V]
}

// NameTrieNode is one component-level node in a NameTrie.
type NameTrieNode[V any] struct {
	parent   *NameTrieNode[V]
	children map[string]*NameTrieNode[V]
	comp     string
	depth    int
	value    V
}

// NewNameTrie creates an empty trie.
func NewNameTrie[V any]() *NameTrie[V] {
	return &NameTrie[V]{
		root: &NameTrieNode[V]{children: make(map[string]*NameTrieNode[V])},
	}
}

func compKey(c enc.Component) string {
	return string(c.Bytes())
}

// MatchAlways walks name component by component, creating any missing
// nodes along the way, and returns the node for the full name.
func (t *NameTrie[V]) MatchAlways(name enc.Name) *NameTrieNode[V] {
	cur := t.root
	for _, c := range name {
		key := compKey(c)
		next, ok := cur.children[key]
		if !ok {
			next = &NameTrieNode[V]{
				parent:   cur,
				children: make(map[string]*NameTrieNode[V]),
				comp:     key,
				depth:    cur.depth + 1,
			}
			cur.children[key] = next
		}
		cur = next
	}
	return cur
}

// ExactMatch returns the node for name if every component on the path
// already exists, or nil if the path is not (fully) present.
func (t *NameTrie[V]) ExactMatch(name enc.Name) *NameTrieNode[V] {
	cur := t.root
	for _, c := range name {
		next, ok := cur.children[compKey(c)]
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

// PrefixMatch walks name as far as the trie already has nodes for and
// returns the deepest node reached, or nil if not even the first
// component of name is present. Callers looking for the longest
// registered/pending prefix then walk Parent() from the result until
// they find a node carrying a value.
func (t *NameTrie[V]) PrefixMatch(name enc.Name) *NameTrieNode[V] {
	cur := t.root
	for _, c := range name {
		next, ok := cur.children[compKey(c)]
		if !ok {
			break
		}
		cur = next
	}
	if cur == t.root {
		return nil
	}
	return cur
}

// Value returns the value stored at this node.
func (n *NameTrieNode[V]) Value() V {
	return n.value
}

// SetValue stores a value at this node.
func (n *NameTrieNode[V]) SetValue(v V) {
	n.value = v
}

// Parent returns the node's parent, or nil at the root.
func (n *NameTrieNode[V]) Parent() *NameTrieNode[V] {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

// Depth returns the number of name components from the root to this node.
func (n *NameTrieNode[V]) Depth() int {
	return n.depth
}

// Prune removes this node, and any now-childless ancestor, as long as
// each carries the zero value for V (nil for the pointer/func/slice/map
// types this trie is instantiated with).
func (n *NameTrieNode[V]) Prune() {
	n.PruneIf(isZeroValue[V])
}

// PruneIf removes this node, and any now-childless ancestor, as long as
// empty reports true for the value stored there.
func (n *NameTrieNode[V]) PruneIf(empty func(V) bool) {
	cur := n
	for cur != nil && cur.parent != nil && len(cur.children) == 0 && empty(cur.value) {
		parent := cur.parent
		delete(parent.children, cur.comp)
		cur = parent
	}
}

// isZeroValue reports whether v is the zero value of V, using reflection
// since V is not constrained to be comparable (it holds func and slice
// values for the FIB and PIT respectively).
func isZeroValue[V any](v V) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Invalid:
		return true
	case reflect.Slice, reflect.Func, reflect.Map, reflect.Ptr, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	default:
		return rv.IsZero()
	}
}
