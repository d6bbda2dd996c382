// Package selector chooses which nodes of a document get tested.
//
// Both policies are pure functions of the tree: output is pre-order,
// parent before child, sibling order preserved, and nothing is mutated.
package selector

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/figdiff/figma"
)

// DefaultPrefix marks nodes selected by the tagged policy.
const DefaultPrefix = "Test"

// Policy names a selection policy.
type Policy string

const (
	PolicyTopLevel Policy = "top"
	PolicyTagged   Policy = "tagged"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyTopLevel, PolicyTagged:
		return Policy(s), nil
	case "":
		return PolicyTopLevel, nil
	}
	return "", fmt.Errorf("selector: unknown policy %q (want top or tagged)", s)
}

// Select runs policy p over root. prefix is only used by PolicyTagged and
// defaults to DefaultPrefix.
func Select(root *figma.Node, p Policy, prefix string) []*figma.Node {
	switch p {
	case PolicyTagged:
		if prefix == "" {
			prefix = DefaultPrefix
		}
		return Tagged(root, prefix)
	default:
		return TopLevel(root)
	}
}

// TopLevel returns every direct child of every canvas, and for every node
// that has children, the result of the same rule applied to each child.
// Only canvas children are ever emitted; the recursion merely reaches
// canvases wherever they sit. A tree that nests canvases (Figma never
// does) would list the inner canvas both as a child and through its own
// children; Dedupe drops such repeats.
func TopLevel(n *figma.Node) []*figma.Node {
	if n == nil {
		return nil
	}
	var out []*figma.Node
	if n.Type == figma.TypeCanvas {
		out = append(out, n.ChildNodes...)
	}
	if n.HasChildren() {
		for _, c := range n.ChildNodes {
			out = append(out, TopLevel(c)...)
		}
	}
	return out
}

// Tagged returns every node at any depth whose name starts with prefix.
func Tagged(root *figma.Node, prefix string) []*figma.Node {
	var out []*figma.Node
	root.Walk(func(n *figma.Node) bool {
		if strings.HasPrefix(n.Name, prefix) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Dedupe drops nodes whose ID was already seen, keeping first occurrences.
func Dedupe(nodes []*figma.Node) []*figma.Node {
	seen := make(map[string]bool, len(nodes))
	out := make([]*figma.Node, 0, len(nodes))
	for _, n := range nodes {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		out = append(out, n)
	}
	return out
}

// IDs returns the node IDs in order.
func IDs(nodes []*figma.Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
