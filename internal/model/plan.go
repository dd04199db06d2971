package model

// Plan is the execution-ready document handed to an external scheduler
type Plan struct {
	APIVersion string      `yaml:"apiVersion" json:"apiVersion"`
	Kind       string      `yaml:"kind" json:"kind"`
	Metadata   Metadata    `yaml:"metadata" json:"metadata"`
	Chains     []PlanChain `yaml:"chains" json:"chains"`
}

// PlanChain is one compiled chain in the plan
type PlanChain struct {
	ID      string      `yaml:"id" json:"id"`
	Name    string      `yaml:"name" json:"name"`
	Product string      `yaml:"product" json:"product"`
	Source  string      `yaml:"source,omitempty" json:"source,omitempty"`
	Order   []string    `yaml:"order" json:"order"`
	Nodes   []PlanNode  `yaml:"nodes" json:"nodes"`
	Edges   []Edge      `yaml:"edges" json:"edges"`
	Assets  []AssetSpec `yaml:"assets,omitempty" json:"assets,omitempty"`
}

// PlanNode is a step in the final plan
type PlanNode struct {
	ID        string            `yaml:"id" json:"id"`
	Index     int               `yaml:"index" json:"index"`
	Step      string            `yaml:"step" json:"step"`
	Kind      string            `yaml:"kind,omitempty" json:"kind,omitempty"`
	Inputs    []string          `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	Outputs   []string          `yaml:"outputs,omitempty" json:"outputs,omitempty"`
	Params    map[string]string `yaml:"params,omitempty" json:"params,omitempty"`
	DependsOn []string          `yaml:"dependsOn" json:"dependsOn"`
}

// Graph rebuilds the execution graph described by the plan chain. The result
// has not been validated; order it with compiler.TopologicalOrder.
func (pc PlanChain) Graph() *Graph {
	g := &Graph{
		Chain: pc.Name,
		Nodes: make([]Node, 0, len(pc.Nodes)),
		Edges: make([]Edge, len(pc.Edges)),
	}
	for _, n := range pc.Nodes {
		g.Nodes = append(g.Nodes, Node{
			ID:    n.ID,
			Index: n.Index,
			Step: WorkStep{
				Name:    n.Step,
				Kind:    Kind(n.Kind),
				Inputs:  n.Inputs,
				Outputs: n.Outputs,
				Params:  n.Params,
			},
		})
	}
	copy(g.Edges, pc.Edges)
	return g
}
