// Package trie implements the token trie shared by the command tree and the
// number grammar.
package trie

// Node is one position in a token trie. The root has depth 0; every child sits
// one token deeper than its parent.
type Node[T any] struct {
	Value    T
	Set      bool
	Depth    int
	children map[string]*Node[T]
}

// New returns an empty root node.
func New[T any]() *Node[T] {
	return &Node[T]{}
}

// Child returns the direct child keyed by token.
func (n *Node[T]) Child(token string) (*Node[T], bool) {
	if n == nil || n.children == nil {
		return nil, false
	}
	child, ok := n.children[token]
	return child, ok
}

// Len reports the number of direct children.
func (n *Node[T]) Len() int {
	if n == nil {
		return 0
	}
	return len(n.children)
}

// Insert walks tokens from n, creating missing nodes, and returns the final
// node. It returns nil when tokens is empty.
func (n *Node[T]) Insert(tokens []string) *Node[T] {
	if len(tokens) == 0 {
		return nil
	}

	node := n
	for _, token := range tokens {
		child, ok := node.Child(token)
		if !ok {
			if node.children == nil {
				node.children = make(map[string]*Node[T])
			}
			child = &Node[T]{Depth: node.Depth + 1}
			node.children[token] = child
		}
		node = child
	}
	return node
}

// Longest follows tokens[start:] as deep as the trie allows and returns the
// deepest node on that path accepted by match. Shallower nodes are only
// considered when every deeper one is rejected. The root is never returned.
func (n *Node[T]) Longest(tokens []string, start int, match func(*Node[T]) bool) *Node[T] {
	if start < 0 || start >= len(tokens) {
		return nil
	}

	path := make([]*Node[T], 0, 4)
	node := n
	for i := start; i < len(tokens); i++ {
		child, ok := node.Child(tokens[i])
		if !ok {
			break
		}
		path = append(path, child)
		node = child
	}

	for i := len(path) - 1; i >= 0; i-- {
		if match(path[i]) {
			return path[i]
		}
	}
	return nil
}
