package schema

// Graph maps each question id to the ids its showIf condition reads. Nodes
// keep schema order so traversals are reproducible.
type Graph struct {
	nodes []string
	deps  map[string][]string
}

// BuildGraph derives the dependency graph of questions. It never fails:
// references to unknown ids are kept as edges for the validator to report.
func BuildGraph(questions []Question) Graph {
	g := Graph{deps: make(map[string][]string, len(questions))}
	for _, q := range questions {
		if _, ok := g.deps[q.ID]; !ok {
			g.nodes = append(g.nodes, q.ID)
			g.deps[q.ID] = []string{}
		}
		if q.ShowIf == nil {
			continue
		}
		for _, ref := range References(q.ShowIf) {
			if !contains(g.deps[q.ID], ref) {
				g.deps[q.ID] = append(g.deps[q.ID], ref)
			}
		}
	}
	return g
}

// Nodes returns question ids in schema order.
func (g Graph) Nodes() []string {
	return append([]string(nil), g.nodes...)
}

// Dependencies returns the ids id's condition references.
func (g Graph) Dependencies(id string) []string {
	return append([]string(nil), g.deps[id]...)
}

// Len is the number of nodes.
func (g Graph) Len() int {
	return len(g.nodes)
}

// topologicalOrder lists known nodes with dependencies ahead of dependents.
// Only meaningful on an acyclic graph.
func (g Graph) topologicalOrder() []string {
	order := make([]string, 0, len(g.nodes))
	done := make(map[string]bool, len(g.nodes))
	var visit func(string)
	visit = func(id string) {
		if done[id] {
			return
		}
		done[id] = true
		for _, dep := range g.deps[id] {
			if _, known := g.deps[dep]; known {
				visit(dep)
			}
		}
		order = append(order, id)
	}
	for _, id := range g.nodes {
		visit(id)
	}
	return order
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
