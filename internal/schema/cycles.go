package schema

import "strings"

// CycleReport lists every cycle found, each as the ordered ids along it. The
// closing edge back to the first id is implied.
type CycleReport struct {
	HasCycle bool       `json:"hasCycle"`
	Cycles   [][]string `json:"cycles"`
}

// FindCycles walks g depth-first from every unvisited node in schema order and
// records the stack slice each back edge closes. A cycle reached twice from
// different entry points is reported once.
func FindCycles(g Graph) CycleReport {
	const (
		unvisited = iota
		onStack
		finished
	)

	report := CycleReport{Cycles: [][]string{}}
	state := make(map[string]int, len(g.nodes))
	position := make(map[string]int)
	seen := make(map[string]struct{})
	var stack []string

	var visit func(string)
	visit = func(id string) {
		state[id] = onStack
		position[id] = len(stack)
		stack = append(stack, id)

		for _, dep := range g.deps[id] {
			switch state[dep] {
			case unvisited:
				visit(dep)
			case onStack:
				cycle := append([]string(nil), stack[position[dep]:]...)
				key := cycleKey(cycle)
				if _, dup := seen[key]; !dup {
					seen[key] = struct{}{}
					report.Cycles = append(report.Cycles, cycle)
				}
			}
		}

		stack = stack[:len(stack)-1]
		delete(position, id)
		state[id] = finished
	}

	for _, id := range g.nodes {
		if state[id] == unvisited {
			visit(id)
		}
	}

	report.HasCycle = len(report.Cycles) > 0
	return report
}

// FormatCycle renders a cycle as "q1 → q3 → q1".
func FormatCycle(cycle []string) string {
	if len(cycle) == 0 {
		return ""
	}
	return strings.Join(append(append([]string(nil), cycle...), cycle[0]), " → ")
}

// cycleKey identifies a cycle regardless of which member it starts at.
func cycleKey(cycle []string) string {
	start := 0
	for i, id := range cycle {
		if id < cycle[start] {
			start = i
		}
	}
	rotated := append(append([]string(nil), cycle[start:]...), cycle[:start]...)
	return strings.Join(rotated, "\x00")
}
