package compiler

import (
	"fmt"

	"github.com/sourceplane/datachain/internal/model"
)

// TopologicalOrder returns the node identifiers of a path graph from its
// unique source to its unique sink. Graphs produced by Compile always pass;
// graphs assembled by hand (for example from a plan file) are checked for
// unknown endpoints, branching, merging and cycles.
func TopologicalOrder(g *model.Graph) ([]string, error) {
	if g == nil {
		return nil, &MalformedGraphError{Reason: "graph is nil"}
	}

	inDegree := make(map[string]int, len(g.Nodes))
	next := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, dup := inDegree[n.ID]; dup {
			return nil, &MalformedGraphError{Chain: g.Chain, Reason: fmt.Sprintf("node %q appears more than once", n.ID)}
		}
		inDegree[n.ID] = 0
	}

	for _, e := range g.Edges {
		if _, ok := inDegree[e.From]; !ok {
			return nil, &MalformedGraphError{Chain: g.Chain, Reason: fmt.Sprintf("edge from unknown node %q", e.From)}
		}
		if _, ok := inDegree[e.To]; !ok {
			return nil, &MalformedGraphError{Chain: g.Chain, Reason: fmt.Sprintf("edge to unknown node %q", e.To)}
		}
		if _, branched := next[e.From]; branched {
			return nil, &MalformedGraphError{Chain: g.Chain, Reason: fmt.Sprintf("node %q has more than one successor", e.From)}
		}
		next[e.From] = e.To
		inDegree[e.To]++
	}

	var sources, sinks []string
	for _, n := range g.Nodes {
		if inDegree[n.ID] == 0 {
			sources = append(sources, n.ID)
		}
		if _, ok := next[n.ID]; !ok {
			sinks = append(sinks, n.ID)
		}
	}
	if len(sources) != 1 || len(sinks) != 1 {
		return nil, &MalformedGraphError{
			Chain:   g.Chain,
			Sources: len(sources),
			Sinks:   len(sinks),
			Reason:  "expected exactly one source and one sink",
		}
	}

	order := make([]string, 0, len(g.Nodes))
	visited := make(map[string]bool, len(g.Nodes))
	for current, ok := sources[0], true; ok; current, ok = next[current] {
		if visited[current] {
			return nil, &MalformedGraphError{Chain: g.Chain, Sources: 1, Sinks: 1, Reason: fmt.Sprintf("cycle through node %q", current)}
		}
		visited[current] = true
		order = append(order, current)
	}

	// A merge or a detached cycle leaves nodes off the walked path
	if len(order) != len(g.Nodes) {
		return nil, &MalformedGraphError{
			Chain:   g.Chain,
			Sources: 1,
			Sinks:   1,
			Reason:  fmt.Sprintf("path covers %d of %d nodes", len(order), len(g.Nodes)),
		}
	}

	return order, nil
}
