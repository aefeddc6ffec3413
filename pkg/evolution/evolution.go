// Package evolution models evolution chains as an explicit tree and walks
// them without recursion.
package evolution

import "github.com/Sternrassler/pokedex-web/pkg/pokeapi"

// Node is one species in an evolution tree.
type Node struct {
	Species string
	Next    []*Node
}

// FromChain builds a tree from the upstream chain representation.
func FromChain(root pokeapi.ChainLink) *Node {
	type pending struct {
		link *pokeapi.ChainLink
		node *Node
	}

	top := &Node{Species: root.Species.Name}
	stack := []pending{{link: &root, node: top}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		p.node.Next = make([]*Node, len(p.link.EvolvesTo))
		for i := range p.link.EvolvesTo {
			child := &Node{Species: p.link.EvolvesTo[i].Species.Name}
			p.node.Next[i] = child
			stack = append(stack, pending{link: &p.link.EvolvesTo[i], node: child})
		}
	}
	return top
}

// Flatten returns species names in pre-order: a node before its successors,
// successors in listed order. A nil root yields nil.
func Flatten(root *Node) []string {
	if root == nil {
		return nil
	}

	var out []string
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, n.Species)

		// push in reverse so the first successor is visited first
		for i := len(n.Next) - 1; i >= 0; i-- {
			stack = append(stack, n.Next[i])
		}
	}
	return out
}

// Stage is one flattened species with its resolved creature id.
type Stage struct {
	Name string `json:"name"`
	// ID is 0 when the creature record could not be resolved.
	ID int `json:"id"`
}

// Resolved reports whether the stage carries a creature id.
func (s Stage) Resolved() bool {
	return s.ID > 0
}
