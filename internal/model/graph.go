package model

// Node is one compiled step in an execution graph
type Node struct {
	ID    string   `json:"id"`
	Index int      `json:"index"`
	Step  WorkStep `json:"step"`
}

// Edge is a directed dependency: To runs after From
type Edge struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

// Graph is the execution structure compiled from a chain. Graphs produced by
// the compiler are a single simple path; graphs rebuilt from plan files are
// not trusted to be.
type Graph struct {
	Chain string `json:"chain"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node looks up a node by identifier
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Successors returns the identifiers of nodes that directly depend on id
func (g *Graph) Successors(id string) []string {
	var out []string
	for _, e := range g.Edges {
		if e.From == id {
			out = append(out, e.To)
		}
	}
	return out
}

// Predecessors returns the identifiers of nodes id directly depends on
func (g *Graph) Predecessors(id string) []string {
	var out []string
	for _, e := range g.Edges {
		if e.To == id {
			out = append(out, e.From)
		}
	}
	return out
}
