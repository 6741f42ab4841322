// Package inputsrc computes the input source map that redirects downstream
// alias inputs to their upstream source, and normalizes raw input values
// accordingly.
package inputsrc

import (
	"strings"

	"github.com/keremk/tutopanda/internal/blueprint"
	"github.com/keremk/tutopanda/internal/canon"
	"github.com/keremk/tutopanda/internal/errkind"
)

// SourceMap maps every canonical input id to its upstream source id. An
// input that is its own source maps to itself.
type SourceMap map[canon.InputID]canon.InputID

// BuildSourceMap computes the source map for g. An input is its own
// source unless it has exactly one inbound InputSource->InputSource edge
// and is not marked FanIn.
func BuildSourceMap(g *blueprint.Graph) (SourceMap, error) {
	sm := make(SourceMap)
	upstreamOf := make(map[canon.InputID]canon.InputID)

	for _, e := range g.Edges {
		from, fromOK := g.NodeByID(e.FromID)
		to, toOK := g.NodeByID(e.ToID)
		if !fromOK || !toOK {
			continue
		}
		if from.Type != blueprint.NodeInputSource || to.Type != blueprint.NodeInputSource {
			continue
		}
		toID := canon.InputID(to.ID)
		fromID := canon.InputID(from.ID)
		if existing, ok := upstreamOf[toID]; ok && existing != fromID {
			return nil, errkind.New(errkind.UserInput,
				"input %q has multiple upstream sources: %q and %q", toID, existing, fromID)
		}
		upstreamOf[toID] = fromID
	}

	for _, n := range g.Nodes {
		if n.Type != blueprint.NodeInputSource {
			continue
		}
		id := canon.InputID(n.ID)
		if n.FanIn {
			sm[id] = id
			continue
		}
		if upstream, ok := upstreamOf[id]; ok {
			sm[id] = upstream
			continue
		}
		sm[id] = id
	}
	return sm, nil
}

// NormalizeInputValues redirects every "Input:"-prefixed key in values to
// its upstream source key per sm; keys with any other prefix pass through
// unchanged. On collision at a source key, the first value encountered
// wins (map iteration order is not relied upon by callers that need
// determinism; pass values built from a deterministically ordered source).
func NormalizeInputValues(values map[string]any, sm SourceMap) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		if !strings.HasPrefix(k, "Input:") {
			out[k] = v
			continue
		}
		target := k
		if src, ok := sm[canon.InputID(k)]; ok {
			target = string(src)
		}
		if _, exists := out[target]; exists {
			continue
		}
		out[target] = v
	}
	return out
}

// SeedDefaults walks tree and fills any input id missing from values with
// its declared defaultValue, if any.
func SeedDefaults(tree *blueprint.TreeNode, values map[string]any) {
	seedDefaults(tree, nil, values)
}

func seedDefaults(node *blueprint.TreeNode, namespacePath []string, values map[string]any) {
	for _, decl := range node.Document.Inputs {
		if decl.DefaultValue == nil {
			continue
		}
		id := string(canon.NewInputID(namespacePath, decl.Name))
		if _, ok := values[id]; !ok {
			values[id] = decl.DefaultValue
		}
	}
	for name, child := range node.Children {
		childNS := append(append([]string{}, namespacePath...), name)
		seedDefaults(child, childNS, values)
	}
}
