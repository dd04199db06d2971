package compiler

import (
	"fmt"

	"github.com/sourceplane/datachain/internal/model"
)

// NodeID builds the identifier of the step at index in chain
func NodeID(chain string, index int, step string) string {
	return fmt.Sprintf("%s.%d.%s", chain, index, step)
}

// Compile turns a chain into a linear execution graph: one node per step and
// one edge per consecutive pair. Every declared input must be produced by
// some earlier step. Compile does not modify its argument and never returns a
// partial graph.
func Compile(chain model.Chain) (*model.Graph, error) {
	if len(chain.Steps) == 0 {
		return nil, &EmptyChainError{Chain: chain.Name}
	}
	if chain.Name == "" {
		return nil, &InvalidChainError{Chain: chain.Name, Step: -1, Reason: "chain name is empty"}
	}

	seen := make(map[string]int, len(chain.Steps))
	for i, step := range chain.Steps {
		if step.Name == "" {
			return nil, &InvalidChainError{Chain: chain.Name, Step: i, Reason: "step name is empty"}
		}
		if first, exists := seen[step.Name]; exists {
			return nil, &DuplicateStepNameError{Chain: chain.Name, Step: step.Name, First: first, Second: i}
		}
		seen[step.Name] = i
	}

	if err := checkDependencies(chain); err != nil {
		return nil, err
	}

	graph := &model.Graph{
		Chain: chain.Name,
		Nodes: make([]model.Node, len(chain.Steps)),
		Edges: make([]model.Edge, 0, len(chain.Steps)-1),
	}
	for i, step := range chain.Steps {
		graph.Nodes[i] = model.Node{
			ID:    NodeID(chain.Name, i, step.Name),
			Index: i,
			Step:  step.Clone(),
		}
		if i > 0 {
			graph.Edges = append(graph.Edges, model.Edge{
				From: graph.Nodes[i-1].ID,
				To:   graph.Nodes[i].ID,
			})
		}
	}

	return graph, nil
}

// checkDependencies verifies each step's inputs against the outputs of all
// steps before it, not only the immediate predecessor.
func checkDependencies(chain model.Chain) error {
	produced := make(map[string]bool)
	for _, step := range chain.Steps {
		for _, input := range step.Inputs {
			if !produced[input] {
				return &DependencyError{Chain: chain.Name, Step: step.Name, Input: input}
			}
		}
		for _, output := range step.Outputs {
			produced[output] = true
		}
	}
	return nil
}
