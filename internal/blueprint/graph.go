package blueprint

// NodeType discriminates the three kinds of canonical graph node.
type NodeType string

const (
	NodeInputSource NodeType = "InputSource"
	NodeProducer    NodeType = "Producer"
	NodeArtefact    NodeType = "Artifact"
)

// Node is one declared (dimensionless) canonical graph node.
type Node struct {
	ID            string
	Type          NodeType
	NamespacePath []string
	Name          string
	Dimensions    []string // ordered dimension symbols this node varies over

	// Artefact-only:
	CountInput string // the declared input name supplying the cardinality of this artefact's last dimension
	FanIn      bool   // Input-only: aggregation input, always its own source

	// Producer-only:
	Provider string
	Model    string
	Config   map[string]any
	Variants []ProducerVariant
	Produces []string // artefact node ids this producer emits (from edges)
}

// DimensionBinding records that a dimension symbol occupies a given
// ordinal position within an endpoint's own Dimensions list.
type DimensionBinding struct {
	Symbol   string
	Position int
}

// Edge is a resolved data-flow edge between two canonical nodes.
type Edge struct {
	FromID       string
	FromBindings []DimensionBinding
	ToID         string
	ToBindings   []DimensionBinding
	Note         string
}

// Graph is the canonical, unexpanded producer graph: one node per
// declared input/producer/artefact, edges resolved from symbolic
// references, dimensions collected but not yet cross-produced.
type Graph struct {
	Nodes               []Node
	Edges               []Edge
	NamespaceDimensions map[string][]string // dotted namespace path -> ordered dimension symbols

	byID map[string]int // node id -> index into Nodes
}

// NodeByID looks up a node by its canonical id.
func (g *Graph) NodeByID(id string) (Node, bool) {
	idx, ok := g.byID[id]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[idx], true
}
