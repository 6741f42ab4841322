package blueprint

import (
	"strings"

	"github.com/keremk/tutopanda/internal/canon"
	"github.com/keremk/tutopanda/internal/errkind"
)

type rawEdge struct {
	fromID, toID     string
	fromSyms, toSyms []string
	note             string
}

type builder struct {
	nodes     []Node
	byID      map[string]int
	declByKey map[string]string // "dotted.namespace.name" -> node id, one per declared name
	nsDims    map[string][]string
	explicit  map[string][]string // node id -> explicit dimension symbols seen on edges referencing it, first-seen order
}

// Compile walks tree and produces its canonical graph.
func Compile(tree *TreeNode) (*Graph, error) {
	b := &builder{
		byID:      make(map[string]int),
		declByKey: make(map[string]string),
		nsDims:    make(map[string][]string),
		explicit:  make(map[string][]string),
	}
	b.walk(tree)

	var edges []rawEdge
	if err := b.collectEdges(tree, &edges); err != nil {
		return nil, err
	}

	var graphEdges []Edge
	for _, re := range edges {
		for _, s := range re.fromSyms {
			b.noteExplicit(re.fromID, s)
		}
		for _, s := range re.toSyms {
			b.noteExplicit(re.toID, s)
		}
		graphEdges = append(graphEdges, Edge{FromID: re.fromID, ToID: re.toID, Note: re.note})

		fromNode, ok := b.nodeByID(re.fromID)
		if !ok {
			return nil, errkind.New(errkind.UserInput, "edge references unknown node %q", re.fromID)
		}
		toNode, ok := b.nodeByID(re.toID)
		if !ok {
			return nil, errkind.New(errkind.UserInput, "edge references unknown node %q", re.toID)
		}
		if fromNode.Type == NodeProducer && toNode.Type == NodeArtefact {
			b.nodes[b.byID[re.fromID]].Produces = append(b.nodes[b.byID[re.fromID]].Produces, re.toID)
		}
	}

	for i := range b.nodes {
		b.nodes[i].Dimensions = b.resolveDimensions(b.nodes[i])
	}

	for i := range graphEdges {
		graphEdges[i].FromBindings = b.bindings(graphEdges[i].FromID)
		graphEdges[i].ToBindings = b.bindings(graphEdges[i].ToID)
	}

	if err := b.validate(graphEdges); err != nil {
		return nil, err
	}

	return &Graph{
		Nodes:               b.nodes,
		Edges:                graphEdges,
		NamespaceDimensions: b.nsDims,
		byID:                b.byID,
	}, nil
}

func (b *builder) nodeByID(id string) (Node, bool) {
	idx, ok := b.byID[id]
	if !ok {
		return Node{}, false
	}
	return b.nodes[idx], true
}

func (b *builder) addNode(n Node) {
	b.byID[n.ID] = len(b.nodes)
	b.nodes = append(b.nodes, n)
	key := declKey(n.NamespacePath, n.Name)
	b.declByKey[key] = n.ID
}

func declKey(namespacePath []string, name string) string {
	return canon.Dotted(namespacePath, name)
}

func nsKey(namespacePath []string) string {
	return strings.Join(namespacePath, ".")
}

func (b *builder) walk(node *TreeNode) {
	if node.Dimension != "" {
		key := nsKey(node.NamespacePath)
		b.nsDims[key] = append(b.nsDims[key], node.Dimension)
	}

	doc := node.Document
	for _, decl := range doc.Inputs {
		b.addNode(Node{
			ID:            string(canon.NewInputID(node.NamespacePath, decl.Name)),
			Type:          NodeInputSource,
			NamespacePath: node.NamespacePath,
			Name:          decl.Name,
			FanIn:         decl.FanIn,
		})
	}
	for _, decl := range doc.Artefacts {
		b.addNode(Node{
			ID:            string(canon.NewArtifactID(node.NamespacePath, decl.Name, nil)),
			Type:          NodeArtefact,
			NamespacePath: node.NamespacePath,
			Name:          decl.Name,
			CountInput:    decl.CountInput,
		})
	}
	for _, decl := range doc.Producers {
		b.addNode(Node{
			ID:            string(canon.NewProducerID(node.NamespacePath, decl.Name, nil)),
			Type:          NodeProducer,
			NamespacePath: node.NamespacePath,
			Name:          decl.Name,
			Provider:      decl.Provider,
			Model:         decl.Model,
			Config:        decl.Config,
			Variants:      decl.Models,
		})
	}

	for _, child := range node.Children {
		b.walk(child)
	}
}

func (b *builder) collectEdges(node *TreeNode, out *[]rawEdge) error {
	for _, decl := range node.Document.Edges {
		fromID, fromSyms, err := b.resolveRef(node.NamespacePath, decl.From)
		if err != nil {
			return err
		}
		toID, toSyms, err := b.resolveRef(node.NamespacePath, decl.To)
		if err != nil {
			return err
		}
		*out = append(*out, rawEdge{fromID: fromID, toID: toID, fromSyms: fromSyms, toSyms: toSyms, note: decl.Note})
	}
	for _, child := range node.Children {
		if err := b.collectEdges(child, out); err != nil {
			return err
		}
	}
	return nil
}

// resolveRef resolves a possibly-dotted, possibly bracket-suffixed edge
// endpoint reference relative to namespacePath.
func (b *builder) resolveRef(namespacePath []string, ref string) (id string, symbols []string, err error) {
	base, brackets := splitAllBrackets(ref)
	segments := strings.Split(base, ".")
	if len(segments) == 0 || segments[len(segments)-1] == "" {
		return "", nil, errkind.New(errkind.UserInput, "malformed edge endpoint %q", ref)
	}
	name := segments[len(segments)-1]
	prefix := segments[:len(segments)-1]
	targetNS := append(append([]string{}, namespacePath...), prefix...)

	key := declKey(targetNS, name)
	id, ok := b.declByKey[key]
	if !ok {
		return "", nil, errkind.New(errkind.UserInput, "edge references unknown node %q (resolved namespace %v)", ref, targetNS)
	}
	return id, brackets, nil
}

// splitAllBrackets splits "A.B[i][j]" into ("A.B", ["i","j"]).
func splitAllBrackets(ref string) (base string, symbols []string) {
	i := strings.IndexByte(ref, '[')
	if i < 0 {
		return ref, nil
	}
	base = ref[:i]
	rest := ref[i:]
	for len(rest) > 0 {
		if rest[0] != '[' {
			break
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			break
		}
		symbols = append(symbols, rest[1:end])
		rest = rest[end+1:]
	}
	return base, symbols
}

func (b *builder) noteExplicit(id, symbol string) {
	for _, s := range b.explicit[id] {
		if s == symbol {
			return
		}
	}
	b.explicit[id] = append(b.explicit[id], symbol)
}

func (b *builder) ancestorDims(namespacePath []string) []string {
	var out []string
	for k := 0; k <= len(namespacePath); k++ {
		key := nsKey(namespacePath[:k])
		for _, s := range b.nsDims[key] {
			out = append(out, s)
		}
	}
	return out
}

func (b *builder) resolveDimensions(n Node) []string {
	out := append([]string{}, b.ancestorDims(n.NamespacePath)...)
	for _, s := range b.explicit[n.ID] {
		if !containsString(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func containsString(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

func (b *builder) bindings(id string) []DimensionBinding {
	n, ok := b.nodeByID(id)
	if !ok {
		return nil
	}
	var out []DimensionBinding
	for pos, sym := range n.Dimensions {
		out = append(out, DimensionBinding{Symbol: sym, Position: pos})
	}
	return out
}
