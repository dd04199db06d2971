package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sourceplane/datachain/internal/model"
	"github.com/sourceplane/datachain/internal/planner"
	"gopkg.in/yaml.v3"
)

const (
	// PlanAPIVersion is the apiVersion of rendered plans
	PlanAPIVersion = "datachain.sourceplane.io/v1"
	// PlanKind is the kind of rendered plans
	PlanKind = "ExecutionPlan"
)

// planNamespace scopes the name-based UUIDs given to plan chains
var planNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://datachain.sourceplane.io/plan"))

// Renderer materializes compiled chains into a Plan
type Renderer struct{}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderPlan creates a plan from compiled chains, keeping their order
func (r *Renderer) RenderPlan(metadata model.Metadata, compiled []*planner.CompiledChain) *model.Plan {
	plan := &model.Plan{
		APIVersion: PlanAPIVersion,
		Kind:       PlanKind,
		Metadata: model.Metadata{
			Name:        metadata.Name,
			Description: metadata.Description,
		},
		Chains: make([]model.PlanChain, 0, len(compiled)),
	}

	for _, cc := range compiled {
		plan.Chains = append(plan.Chains, r.renderChain(cc))
	}

	return plan
}

func (r *Renderer) renderChain(cc *planner.CompiledChain) model.PlanChain {
	g := cc.Graph
	pc := model.PlanChain{
		ID:      ChainID(cc.Product, g),
		Name:    g.Chain,
		Product: cc.Product,
		Source:  cc.Source,
		Order:   append([]string{}, cc.Order...),
		Nodes:   make([]model.PlanNode, 0, len(g.Nodes)),
		Edges:   append([]model.Edge{}, g.Edges...),
		Assets:  cc.Chain.Assets,
	}

	for _, node := range g.Nodes {
		dependsOn := g.Predecessors(node.ID)
		if dependsOn == nil {
			dependsOn = []string{}
		}
		pc.Nodes = append(pc.Nodes, model.PlanNode{
			ID:        node.ID,
			Index:     node.Index,
			Step:      node.Step.Name,
			Kind:      string(node.Step.Kind),
			Inputs:    node.Step.Inputs,
			Outputs:   node.Step.Outputs,
			Params:    node.Step.Params,
			DependsOn: dependsOn,
		})
	}

	return pc
}

// ChainID derives a stable identifier for a compiled chain from its product,
// node identifiers and edges. Recompiling an unchanged chain yields the same id.
func ChainID(product string, g *model.Graph) string {
	var sb strings.Builder
	sb.WriteString(product)
	sb.WriteString("\n")
	sb.WriteString(g.Chain)
	sb.WriteString("\n")
	for _, node := range g.Nodes {
		sb.WriteString(node.ID)
		sb.WriteString("\n")
	}

	edges := make([]string, 0, len(g.Edges))
	for _, e := range g.Edges {
		edges = append(edges, e.From+" -> "+e.To)
	}
	sort.Strings(edges)
	sb.WriteString(strings.Join(edges, "\n"))

	return uuid.NewSHA1(planNamespace, []byte(sb.String())).String()
}

// RenderJSON renders plan as JSON
func (r *Renderer) RenderJSON(plan *model.Plan) ([]byte, error) {
	return json.MarshalIndent(plan, "", "  ")
}

// RenderYAML renders plan as YAML
func (r *Renderer) RenderYAML(plan *model.Plan) ([]byte, error) {
	return yaml.Marshal(plan)
}

// Render renders plan in the named format (json or yaml)
func (r *Renderer) Render(plan *model.Plan, format string) ([]byte, error) {
	switch format {
	case "json", "":
		return r.RenderJSON(plan)
	case "yaml", "yml":
		return r.RenderYAML(plan)
	default:
		return nil, fmt.Errorf("unsupported plan format %q: expected json or yaml", format)
	}
}

// WritePlan writes plan to file. A .json, .yaml or .yml extension picks the
// format; otherwise format is used.
func (r *Renderer) WritePlan(plan *model.Plan, path, format string) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	switch filepath.Ext(path) {
	case ".json":
		format = "json"
	case ".yaml", ".yml":
		format = "yaml"
	}

	data, err := r.Render(plan, format)
	if err != nil {
		return fmt.Errorf("failed to render plan: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write plan to %s: %w", path, err)
	}

	return nil
}

// DebugDump outputs debug information about the plan
func (r *Renderer) DebugDump(plan *model.Plan) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Plan: %s (%s)\n", plan.Metadata.Name, plan.Metadata.Description)
	fmt.Fprintf(&sb, "Chains: %d\n\n", len(plan.Chains))

	for _, chain := range plan.Chains {
		fmt.Fprintf(&sb, "Chain: %s\n", chain.Name)
		fmt.Fprintf(&sb, "  ID: %s\n", chain.ID)
		fmt.Fprintf(&sb, "  Product: %s\n", chain.Product)
		if chain.Source != "" {
			fmt.Fprintf(&sb, "  Source: %s\n", chain.Source)
		}
		fmt.Fprintf(&sb, "  Nodes: %d\n", len(chain.Nodes))
		fmt.Fprintf(&sb, "  Edges: %d\n", len(chain.Edges))
		fmt.Fprintf(&sb, "  Order: %v\n", chain.Order)
		for _, node := range chain.Nodes {
			fmt.Fprintf(&sb, "  Node: %s\n", node.ID)
			fmt.Fprintf(&sb, "    Kind: %s\n", node.Kind)
			fmt.Fprintf(&sb, "    Inputs: %v\n", node.Inputs)
			fmt.Fprintf(&sb, "    Outputs: %v\n", node.Outputs)
			fmt.Fprintf(&sb, "    DependsOn: %v\n", node.DependsOn)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
