package loader

// traversal colors for cycle detection.
type color int

const (
	// colorUnvisited marks a node never seen.
	colorUnvisited color = iota
	// colorInProgress marks a node on the current DFS path.
	colorInProgress
	// colorDone marks a fully explored node.
	colorDone
)

// DetectCircularDependencies walks the related-component graph depth-first
// from start and returns every distinct cycle reachable from it, each as an
// ordered path closing on its first repeated node. Shared sub-dependencies
// that form a diamond are not cycles and are never reported. Cycles are
// reported as data; the loader never fails a load because of one.
func (l *Loader) DetectCircularDependencies(start string) [][]string {
	colors := make(map[string]color)
	var path []string
	var cycles [][]string

	var visit func(name string)
	visit = func(name string) {
		colors[name] = colorInProgress
		path = append(path, name)

		c, ok := l.registry.GetComponent(name)
		if ok {
			for _, rel := range c.Related {
				switch colors[rel.Ref] {
				case colorInProgress:
					cycles = append(cycles, extractCycle(path, rel.Ref))
				case colorUnvisited:
					visit(rel.Ref)
				case colorDone:
					// Shared dependency already explored - a diamond,
					// not a cycle.
				}
			}
		}

		path = path[:len(path)-1]
		colors[name] = colorDone
	}

	visit(start)
	return cycles
}

// HasCircularDependencies reports whether any cycle is reachable from start.
func (l *Loader) HasCircularDependencies(start string) bool {
	return len(l.DetectCircularDependencies(start)) > 0
}

// extractCycle copies the portion of the DFS path from the repeated node to
// the current node and closes it, e.g. [a b c] + a -> [a b c a].
func extractCycle(path []string, repeated string) []string {
	for i, name := range path {
		if name == repeated {
			cycle := append([]string(nil), path[i:]...)
			return append(cycle, repeated)
		}
	}
	// repeated is always on the path when marked in-progress
	return nil
}
