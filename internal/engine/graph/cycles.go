package graph

// DetectCycles returns the require cycles among named modules. Raw
// expression entries never take part. Modules are visited in sorted order,
// so the result is deterministic for a given graph.
func (g *DependencyGraph) DetectCycles() [][]string {
	var cycles [][]string
	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	for _, name := range g.Modules() {
		if !visited[name] {
			g.findCycles(name, visited, onStack, nil, &cycles)
		}
	}
	return cycles
}

func (g *DependencyGraph) findCycles(curr string, visited, onStack map[string]bool, path []string, cycles *[][]string) {
	visited[curr] = true
	onStack[curr] = true
	path = append(path, curr)

	for _, next := range g.requires[curr] {
		if IsRaw(next) {
			continue
		}
		if onStack[next] {
			for i, mod := range path {
				if mod == next {
					cycle := make([]string, len(path)-i)
					copy(cycle, path[i:])
					*cycles = append(*cycles, cycle)
					break
				}
			}
		} else if !visited[next] {
			g.findCycles(next, visited, onStack, path, cycles)
		}
	}

	onStack[curr] = false
}
