package normalize

import (
	"fmt"
	"strings"
	"text/template"
)

// renderParams renders every param value as a text/template against the
// product context. Parsed templates are cached by their source text since
// the same text repeats across steps and products, so a cached template must
// not carry the name of the step that first parsed it.
func (n *Normalizer) renderParams(params map[string]string, context map[string]any, stepName string) (map[string]string, error) {
	if len(params) == 0 {
		return nil, nil
	}

	rendered := make(map[string]string, len(params))
	for key, text := range params {
		if !strings.Contains(text, "{{") {
			rendered[key] = text
			continue
		}

		tmpl, exists := n.templateCache[text]
		if !exists {
			var err error
			tmpl, err = template.New("param").Option("missingkey=error").Parse(text)
			if err != nil {
				return nil, fmt.Errorf("invalid template in param %s of step %s: %w", key, stepName, err)
			}
			n.templateCache[text] = tmpl
		}

		var buf strings.Builder
		if err := tmpl.Execute(&buf, context); err != nil {
			return nil, fmt.Errorf("failed to render param %s of step %s: %w", key, stepName, err)
		}
		rendered[key] = buf.String()
	}

	return rendered, nil
}

// templateContext builds the data templates see: workspace vars, then
// product vars, then the built-in names.
func templateContext(workspaceVars, productVars map[string]string, product, chain string) map[string]any {
	context := make(map[string]any, len(workspaceVars)+len(productVars)+2)
	for k, v := range workspaceVars {
		context[k] = v
	}
	for k, v := range productVars {
		context[k] = v
	}
	context["Product"] = product
	context["Chain"] = chain
	return context
}
