package planner

import (
	"fmt"
	"sort"
	"strings"
)

// CycleError is returned when the DAG contains a cycle and topological
// sorting is not possible.
type CycleError struct {
	Names []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected among collections: %s", strings.Join(e.Names, ", "))
}

// TopoSort performs a topological sort on the DAG using Kahn's algorithm.
// It returns names grouped by level: level 0 holds collections with no
// dependencies, level 1 those whose dependencies are all in level 0, and so
// on. Names within a level are sorted.
func TopoSort(dag *DAG) ([][]string, error) {
	inDegree := make(map[string]int, len(dag.Nodes))
	for name, node := range dag.Nodes {
		inDegree[name] = len(node.Reverse)
	}

	var queue []string
	for name, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	var levels [][]string
	processed := 0

	for len(queue) > 0 {
		level := make([]string, len(queue))
		copy(level, queue)
		levels = append(levels, level)
		processed += len(level)

		var nextQueue []string
		for _, name := range queue {
			for neighbor := range dag.Nodes[name].Forward {
				inDegree[neighbor]--
				if inDegree[neighbor] == 0 {
					nextQueue = append(nextQueue, neighbor)
				}
			}
		}
		sort.Strings(nextQueue)
		queue = nextQueue
	}

	if processed != len(dag.Nodes) {
		var cycle []string
		for name, deg := range inDegree {
			if deg > 0 {
				cycle = append(cycle, name)
			}
		}
		sort.Strings(cycle)
		return nil, &CycleError{Names: cycle}
	}

	return levels, nil
}
