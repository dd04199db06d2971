// Package runner walks an execution plan in dependency order and hands each
// step to a Handler. Steps are never executed here.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sourceplane/datachain/internal/compiler"
	"github.com/sourceplane/datachain/internal/ctxlog"
	"github.com/sourceplane/datachain/internal/model"
	"gopkg.in/yaml.v3"
)

// Handler receives plan nodes in execution order. It is the hook an external
// scheduler plugs into.
type Handler interface {
	Handle(ctx context.Context, chain *model.PlanChain, node *model.PlanNode) error
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, chain *model.PlanChain, node *model.PlanNode) error

// Handle calls f
func (f HandlerFunc) Handle(ctx context.Context, chain *model.PlanChain, node *model.PlanNode) error {
	return f(ctx, chain, node)
}

// DryRunHandler prints each step instead of running it
type DryRunHandler struct {
	Out io.Writer
}

// Handle prints the node's step, kind and declared resources
func (h *DryRunHandler) Handle(_ context.Context, _ *model.PlanChain, node *model.PlanNode) error {
	fmt.Fprintf(h.Out, "  - Step %s", node.Step)
	if node.Kind != "" {
		fmt.Fprintf(h.Out, " (%s)", node.Kind)
	}
	fmt.Fprintln(h.Out)
	if len(node.Inputs) > 0 {
		fmt.Fprintf(h.Out, "    in:  %s\n", strings.Join(node.Inputs, ", "))
	}
	if len(node.Outputs) > 0 {
		fmt.Fprintf(h.Out, "    out: %s\n", strings.Join(node.Outputs, ", "))
	}
	return nil
}

// Runner walks a plan chain by chain
type Runner struct {
	Stdout  io.Writer
	Handler Handler
}

// NewRunner creates a runner. A nil handler means a DryRunHandler on stdout.
func NewRunner(stdout io.Writer, handler Handler) *Runner {
	if handler == nil {
		handler = &DryRunHandler{Out: stdout}
	}
	return &Runner{
		Stdout:  stdout,
		Handler: handler,
	}
}

// LoadPlan reads a plan file (JSON or YAML based on extension)
func LoadPlan(path string) (*model.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	var plan model.Plan
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &plan)
	default:
		err = json.Unmarshal(data, &plan)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse plan %s: %w", path, err)
	}

	return &plan, nil
}

// Run walks every chain of plan in plan order, or only the named chains when
// any are given. Each chain's graph is rebuilt from the plan and ordered
// before its first node is handed out, so a malformed chain is rejected
// without side effects. Cancelling ctx stops the walk between nodes.
func (r *Runner) Run(ctx context.Context, plan *model.Plan, chains ...string) error {
	if plan == nil {
		return fmt.Errorf("plan cannot be nil")
	}
	logger := ctxlog.FromContext(ctx)

	for _, name := range chains {
		if !slices.ContainsFunc(plan.Chains, func(pc model.PlanChain) bool { return pc.Name == name }) {
			return fmt.Errorf("chain %s not found in plan", name)
		}
	}

	for i := range plan.Chains {
		chain := &plan.Chains[i]
		if len(chains) > 0 && !slices.Contains(chains, chain.Name) {
			continue
		}

		order, err := compiler.TopologicalOrder(chain.Graph())
		if err != nil {
			return fmt.Errorf("chain %s: %w", chain.Name, err)
		}
		if len(chain.Order) > 0 && !slices.Equal(order, chain.Order) {
			logger.Warn("recorded order differs from graph, using graph order",
				"chain", chain.Name, "recorded", chain.Order, "computed", order)
		}

		nodes := make(map[string]*model.PlanNode, len(chain.Nodes))
		for j := range chain.Nodes {
			nodes[chain.Nodes[j].ID] = &chain.Nodes[j]
		}

		fmt.Fprintf(r.Stdout, "→ Chain %s (%s)\n", chain.Name, chain.Product)
		for _, id := range order {
			if err := ctx.Err(); err != nil {
				return err
			}
			logger.Debug("handling node", "chain", chain.Name, "node", id)
			if err := r.Handler.Handle(ctx, chain, nodes[id]); err != nil {
				return fmt.Errorf("chain %s step %s failed: %w", chain.Name, nodes[id].Step, err)
			}
		}
	}

	return nil
}
