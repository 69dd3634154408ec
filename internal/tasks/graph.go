package tasks

import (
	"github.com/gammazero/toposort"
)

// depGraph is the resolved dependency relation of one batch, by position.
type depGraph struct {
	deps       [][]int // deps[i]: tasks that i depends on
	dependents []int   // dependents[i]: other tasks that depend on i
}

// buildGraph resolves references. A string reference matches a task id
// first, then a title; an integer is a position. Unknown references are
// ignored.
func buildGraph(ts []Task) *depGraph {
	byID := make(map[string]int, len(ts))
	byTitle := make(map[string]int, len(ts))
	for i, t := range ts {
		if t.ID != "" {
			if _, dup := byID[t.ID]; !dup {
				byID[t.ID] = i
			}
		}
		if _, dup := byTitle[t.Title]; !dup {
			byTitle[t.Title] = i
		}
	}

	g := &depGraph{
		deps:       make([][]int, len(ts)),
		dependents: make([]int, len(ts)),
	}

	for i, t := range ts {
		seen := make(map[int]bool, len(t.Dependencies))
		for _, ref := range t.Dependencies {
			j, ok := resolve(ref, byID, byTitle, len(ts))
			if !ok {
				continue
			}
			if seen[j] {
				continue
			}
			seen[j] = true
			g.deps[i] = append(g.deps[i], j)
			if j != i {
				g.dependents[j]++
			}
		}
	}
	return g
}

func resolve(ref Ref, byID, byTitle map[string]int, n int) (int, bool) {
	if ref.IsIndex {
		if ref.Index >= 0 && ref.Index < n {
			return ref.Index, true
		}
		return 0, false
	}
	if j, ok := byID[ref.Name]; ok {
		return j, true
	}
	j, ok := byTitle[ref.Name]
	return j, ok
}

// acyclic reports whether a topological order exists.
func (g *depGraph) acyclic() bool {
	var edges []toposort.Edge
	for i, deps := range g.deps {
		if len(deps) == 0 {
			edges = append(edges, toposort.Edge{nil, i})
			continue
		}
		for _, j := range deps {
			if j == i {
				return false
			}
			// j must come before i
			edges = append(edges, toposort.Edge{j, i})
		}
	}
	_, err := toposort.Toposort(edges)
	return err == nil
}

// cycleMembers returns the positions of tasks that sit on a cycle, in
// ascending order. Members are the strongly connected components of size
// greater than one plus self-dependent tasks (Tarjan).
func (g *depGraph) cycleMembers() []int {
	if g.acyclic() {
		return nil
	}

	n := len(g.deps)
	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}

	var (
		stack   []int
		counter int
		member  = make([]bool, n)
	)

	var strongConnect func(v int)
	strongConnect = func(v int) {
		index[v] = counter
		low[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.deps[v] {
			if index[w] == -1 {
				strongConnect(w)
				low[v] = min(low[v], low[w])
			} else if onStack[w] {
				low[v] = min(low[v], index[w])
			}
		}

		if low[v] != index[v] {
			return
		}

		var comp []int
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			comp = append(comp, w)
			if w == v {
				break
			}
		}

		if len(comp) > 1 {
			for _, w := range comp {
				member[w] = true
			}
			return
		}
		for _, w := range g.deps[v] {
			if w == v {
				member[v] = true
			}
		}
	}

	for v := 0; v < n; v++ {
		if index[v] == -1 {
			strongConnect(v)
		}
	}

	var out []int
	for v, ok := range member {
		if ok {
			out = append(out, v)
		}
	}
	return out
}

// DetectCycles returns the identifiers (Task.Key) of every task on a
// dependency cycle, in input order. The result is empty, never nil.
func DetectCycles(ts []Task) []string {
	g := buildGraph(ts)
	members := g.cycleMembers()
	out := make([]string, 0, len(members))
	for _, i := range members {
		out = append(out, ts[i].Key())
	}
	return out
}
