// Package collections assembles the collection hierarchy from the two flat
// lists the service returns and flattens it into processing order.
//
// The service guarantees the hierarchy is acyclic. Building and walking
// both recurse on that assumption; a cycle would recurse without bound.
package collections

import "rdtagger/pkg/raindrop"

// Node is a collection together with its direct children
type Node struct {
	raindrop.Collection
	Children []*Node
}

// BuildTree attaches nested collections under their parents. Roots are
// returned in input order and children keep the order of the nested list.
// Nested collections whose parent never appears are left out of the tree.
func BuildTree(roots, nested []raindrop.Collection) []*Node {
	byParent := make(map[int64][]raindrop.Collection)
	for _, c := range nested {
		if c.Parent == nil {
			continue
		}
		byParent[*c.Parent] = append(byParent[*c.Parent], c)
	}

	tree := make([]*Node, 0, len(roots))
	for _, r := range roots {
		tree = append(tree, attach(r, byParent))
	}
	return tree
}

func attach(c raindrop.Collection, byParent map[int64][]raindrop.Collection) *Node {
	node := &Node{Collection: c}
	for _, child := range byParent[c.ID] {
		node.Children = append(node.Children, attach(child, byParent))
	}
	return node
}

// Walk visits every node in pre-order. depth is 0 for roots.
func Walk(tree []*Node, fn func(n *Node, depth int)) {
	var visit func(nodes []*Node, depth int)
	visit = func(nodes []*Node, depth int) {
		for _, n := range nodes {
			fn(n, depth)
			visit(n.Children, depth+1)
		}
	}
	visit(tree, 0)
}

// Flatten lists every collection id in pre-order: parent before children,
// siblings in input order
func Flatten(tree []*Node) []int64 {
	var ids []int64
	Walk(tree, func(n *Node, _ int) {
		ids = append(ids, n.ID)
	})
	return ids
}

// Find returns the node with the given id, or nil
func Find(tree []*Node, id int64) *Node {
	var found *Node
	Walk(tree, func(n *Node, _ int) {
		if found == nil && n.ID == id {
			found = n
		}
	})
	return found
}

// Size counts every node in the tree
func Size(tree []*Node) int {
	n := 0
	Walk(tree, func(*Node, int) { n++ })
	return n
}
