package planner

import (
	"fmt"
	"slices"
)

// OrderError reports a collection scheduled before one of its parents.
type OrderError struct {
	Name   string
	Parent string
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("%s is ordered before its dependency %s", e.Name, e.Parent)
}

// CheckOrder verifies that order lists every collection of the DAG exactly
// once and never places a collection before one of its parents. A fixed
// restore sequence passes iff it is one of the DAG's topological orders.
func CheckOrder(dag *DAG, order []string) error {
	if _, err := TopoSort(dag); err != nil {
		return err
	}

	position := make(map[string]int, len(order))
	for i, name := range order {
		if _, ok := dag.Nodes[name]; !ok {
			return fmt.Errorf("unknown collection %q", name)
		}
		if _, dup := position[name]; dup {
			return fmt.Errorf("collection %q listed twice", name)
		}
		position[name] = i
	}
	for name := range dag.Nodes {
		if _, ok := position[name]; !ok {
			return fmt.Errorf("collection %q missing from order", name)
		}
	}

	for _, name := range order {
		parents := make([]string, 0, len(dag.Nodes[name].Reverse))
		for p := range dag.Nodes[name].Reverse {
			parents = append(parents, p)
		}
		slices.Sort(parents)
		for _, p := range parents {
			if position[p] > position[name] {
				return &OrderError{Name: name, Parent: p}
			}
		}
	}
	return nil
}

// Reverse returns order back to front, the safe sequence for deletes.
func Reverse(order []string) []string {
	out := slices.Clone(order)
	slices.Reverse(out)
	return out
}
