package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sourceplane/datachain/internal/model"
)

const rule = "═══════════════════════════════════════════════════════════"

// PlanViewer provides human-readable visualization of a plan
type PlanViewer struct {
	plan *model.Plan

	chainStyle lipgloss.Style
	nodeStyle  lipgloss.Style
	mutedStyle lipgloss.Style
	assetStyle lipgloss.Style
}

// NewPlanViewer creates a plan viewer whose styling adapts to out: a
// terminal gets colors, anything else gets plain text.
func NewPlanViewer(plan *model.Plan, out io.Writer) *PlanViewer {
	r := lipgloss.NewRenderer(out)
	return &PlanViewer{
		plan:       plan,
		chainStyle: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FFFF")),
		nodeStyle:  r.NewStyle().Foreground(lipgloss.Color("#FFFFFF")),
		mutedStyle: r.NewStyle().Foreground(lipgloss.Color("#888888")),
		assetStyle: r.NewStyle().Foreground(lipgloss.Color("#00FF00")),
	}
}

// ViewDAG returns a tree of every chain and its steps in execution order
func (pv *PlanViewer) ViewDAG() string {
	if len(pv.plan.Chains) == 0 {
		return "No chains in plan"
	}

	var sb strings.Builder
	nodes := 0
	for i, chain := range pv.plan.Chains {
		isLastChain := i == len(pv.plan.Chains)-1
		chainPrefix, connector := "├─ ", "│  "
		if isLastChain {
			chainPrefix, connector = "└─ ", "   "
		}

		sb.WriteString(fmt.Sprintf("%s%s %s\n", chainPrefix,
			pv.chainStyle.Render(chain.Name),
			pv.mutedStyle.Render("["+chain.Product+"]")))

		ordered := orderedNodes(chain)
		nodes += len(ordered)
		for j, node := range ordered {
			isLastNode := j == len(ordered)-1
			nodePrefix, nodeConnector := connector+"├─ ", connector+"│  "
			if isLastNode {
				nodePrefix, nodeConnector = connector+"└─ ", connector+"   "
			}

			line := nodePrefix + pv.nodeStyle.Render(node.Step)
			if node.Kind != "" {
				line += " " + pv.mutedStyle.Render("("+node.Kind+")")
			}
			sb.WriteString(line + "\n")

			if len(node.Inputs) > 0 {
				sb.WriteString(fmt.Sprintf("%s  in:  %s\n", nodeConnector, pv.assetStyle.Render(strings.Join(node.Inputs, ", "))))
			}
			if len(node.Outputs) > 0 {
				sb.WriteString(fmt.Sprintf("%s  out: %s\n", nodeConnector, pv.assetStyle.Render(strings.Join(node.Outputs, ", "))))
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString(rule + "\n")
	sb.WriteString(fmt.Sprintf("Summary: %d chains, %d steps\n", len(pv.plan.Chains), nodes))

	return sb.String()
}

// ViewOrder lists the node identifiers of every chain in execution order
func (pv *PlanViewer) ViewOrder() string {
	if len(pv.plan.Chains) == 0 {
		return "No chains in plan"
	}

	var sb strings.Builder
	sb.WriteString("Execution Order\n")
	sb.WriteString(rule + "\n\n")

	for _, chain := range pv.plan.Chains {
		sb.WriteString(pv.chainStyle.Render(chain.Name) + "\n")
		for i, id := range chain.Order {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, id))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// ViewChain shows a single chain with its steps, params and assets
func (pv *PlanViewer) ViewChain(name string) string {
	var chain *model.PlanChain
	for i := range pv.plan.Chains {
		if pv.plan.Chains[i].Name == name {
			chain = &pv.plan.Chains[i]
			break
		}
	}
	if chain == nil {
		return fmt.Sprintf("No chain found: %s", name)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s [%s]\n", pv.chainStyle.Render(chain.Name), chain.Product))
	sb.WriteString(rule + "\n")
	sb.WriteString(fmt.Sprintf("ID: %s\n", chain.ID))
	if chain.Source != "" {
		sb.WriteString(fmt.Sprintf("Source: %s\n", chain.Source))
	}
	sb.WriteString("\n")

	graph := chain.Graph()
	ordered := orderedNodes(*chain)
	for i, node := range ordered {
		prefix, connector := "├─ ", "│  "
		if i == len(ordered)-1 {
			prefix, connector = "└─ ", "   "
		}

		sb.WriteString(fmt.Sprintf("%s%s\n", prefix, pv.nodeStyle.Render(node.ID)))
		if node.Kind != "" {
			sb.WriteString(fmt.Sprintf("%s  Kind: %s\n", connector, node.Kind))
		}
		if len(node.DependsOn) > 0 {
			sb.WriteString(fmt.Sprintf("%s  Depends on: %s\n", connector, strings.Join(node.DependsOn, ", ")))
		}
		if feeds := graph.Successors(node.ID); len(feeds) > 0 {
			sb.WriteString(fmt.Sprintf("%s  Feeds: %s\n", connector, strings.Join(feeds, ", ")))
		}
		if len(node.Inputs) > 0 {
			sb.WriteString(fmt.Sprintf("%s  Inputs: %s\n", connector, strings.Join(node.Inputs, ", ")))
		}
		if len(node.Outputs) > 0 {
			sb.WriteString(fmt.Sprintf("%s  Outputs: %s\n", connector, strings.Join(node.Outputs, ", ")))
		}
		if len(node.Params) > 0 {
			sb.WriteString(fmt.Sprintf("%s  Params:\n", connector))
			for _, key := range sortedKeys(node.Params) {
				sb.WriteString(fmt.Sprintf("%s    %s: %s\n", connector, key, node.Params[key]))
			}
		}
		sb.WriteString("\n")
	}

	if len(chain.Assets) > 0 {
		sb.WriteString("Assets\n")
		for _, asset := range chain.Assets {
			line := fmt.Sprintf("  %s (%s)", pv.assetStyle.Render(asset.Name), asset.Type)
			if asset.Provided {
				line += " provided"
			}
			sb.WriteString(line + "\n")
		}
	}

	return sb.String()
}

// orderedNodes returns the chain's nodes following its order, falling back
// to index order for nodes the order does not mention
func orderedNodes(chain model.PlanChain) []model.PlanNode {
	byID := make(map[string]model.PlanNode, len(chain.Nodes))
	for _, node := range chain.Nodes {
		byID[node.ID] = node
	}

	out := make([]model.PlanNode, 0, len(chain.Nodes))
	seen := make(map[string]bool, len(chain.Nodes))
	for _, id := range chain.Order {
		if node, ok := byID[id]; ok && !seen[id] {
			out = append(out, node)
			seen[id] = true
		}
	}

	var rest []model.PlanNode
	for _, node := range chain.Nodes {
		if !seen[node.ID] {
			rest = append(rest, node)
		}
	}
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].Index < rest[j].Index })

	return append(out, rest...)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
