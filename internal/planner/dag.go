// Package planner orders entity collections by their foreign-key dependencies.
package planner

// Node is one entity collection with forward and reverse dependency edges.
// Forward edges point from a referenced collection to the collections that
// reference it (parent -> child); reverse edges point back (child -> parents).
type Node struct {
	Name    string
	Forward map[string]struct{}
	Reverse map[string]struct{}
}

// DAG holds the dependency graph between entity collections.
type DAG struct {
	Nodes map[string]*Node
}

// Dependency states that Child holds a required reference to Parent, so
// Parent must be restored first and wiped last.
type Dependency struct {
	Child  string
	Parent string
}

// BuildDAG constructs a DAG from collection names and their dependencies.
// Dependencies naming an unknown collection are silently ignored.
func BuildDAG(names []string, deps []Dependency) *DAG {
	dag := &DAG{
		Nodes: make(map[string]*Node, len(names)),
	}

	for _, name := range names {
		dag.Nodes[name] = &Node{
			Name:    name,
			Forward: make(map[string]struct{}),
			Reverse: make(map[string]struct{}),
		}
	}

	for _, d := range deps {
		parent, parentOK := dag.Nodes[d.Parent]
		child, childOK := dag.Nodes[d.Child]
		if !parentOK || !childOK {
			continue
		}
		parent.Forward[d.Child] = struct{}{}
		child.Reverse[d.Parent] = struct{}{}
	}

	return dag
}
