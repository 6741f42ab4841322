// Package producergraph projects a compiled canonical graph, together
// with resolved input values, into the concrete job DAG the planner and
// runner operate on.
package producergraph

import (
	"fmt"
	"sort"

	"github.com/keremk/tutopanda/internal/blueprint"
	"github.com/keremk/tutopanda/internal/canon"
	"github.com/keremk/tutopanda/internal/errkind"
)

// FanInMember is one contributor to an aggregated (fan-in) logical input.
type FanInMember struct {
	ID    string `json:"id"`
	Group int    `json:"group"`
	Order int    `json:"order"`
}

// FanInDescriptor lists every member contributing to one aggregated
// logical input.
type FanInDescriptor struct {
	Members []FanInMember `json:"members"`
}

// Context carries runtime-resolvable metadata for one job instance.
type Context struct {
	InputBindings map[string]string          `json:"input_bindings"`
	FanIn         map[string]FanInDescriptor `json:"fan_in,omitempty"`
	Indices       []canon.Index              `json:"indices"`
}

// JobDescriptor is one concrete, indexed producer instance to execute.
type JobDescriptor struct {
	JobID         canon.ProducerID   `json:"job_id"`
	Producer      string             `json:"producer"`
	Inputs        []string           `json:"inputs"`
	Produces      []canon.ArtifactID `json:"produces"`
	Provider      string             `json:"provider"`
	ProviderModel string             `json:"provider_model"`
	RateKey       string             `json:"rate_key"`
	Context       Context            `json:"context"`
}

// Edge is a directed dependency between two job instances: From produces
// something To consumes.
type Edge struct {
	From canon.ProducerID
	To   canon.ProducerID
}

// Graph is the projected, concrete job DAG.
type Graph struct {
	Jobs  []JobDescriptor
	Edges []Edge
}

// Project expands g's canonical nodes by cross-product of their
// dimensions, using resolvedInputs (canonical input id -> decoded JSON
// value) to resolve each dimension's cardinality via its declaring
// artefact's CountInput.
func Project(g *blueprint.Graph, resolvedInputs map[string]any) (*Graph, error) {
	cardinalities, err := cardinalitiesBySymbol(g, resolvedInputs)
	if err != nil {
		return nil, err
	}

	producingJob := make(map[string]canon.ProducerID) // indexed artefact id -> producing job id
	var jobs []JobDescriptor

	var producerNodes []blueprint.Node
	for _, n := range g.Nodes {
		if n.Type == blueprint.NodeProducer {
			producerNodes = append(producerNodes, n)
		}
	}
	sort.Slice(producerNodes, func(i, j int) bool { return producerNodes[i].ID < producerNodes[j].ID })

	for _, n := range producerNodes {
		tuples, err := crossProduct(n.Dimensions, cardinalities)
		if err != nil {
			return nil, fmt.Errorf("producergraph: %s: %w", n.ID, err)
		}
		for _, tuple := range tuples {
			job, err := buildJob(g, n, tuple, cardinalities)
			if err != nil {
				return nil, err
			}
			jobs = append(jobs, job)
			for _, a := range job.Produces {
				producingJob[string(a)] = job.JobID
			}
		}
	}

	var edges []Edge
	seen := make(map[Edge]bool)
	for _, job := range jobs {
		for _, in := range job.Inputs {
			if from, ok := producingJob[in]; ok {
				e := Edge{From: from, To: job.JobID}
				if !seen[e] {
					seen[e] = true
					edges = append(edges, e)
				}
			}
		}
		for _, desc := range job.Context.FanIn {
			for _, m := range desc.Members {
				if from, ok := producingJob[m.ID]; ok {
					e := Edge{From: from, To: job.JobID}
					if !seen[e] {
						seen[e] = true
						edges = append(edges, e)
					}
				}
			}
		}
	}

	return &Graph{Jobs: jobs, Edges: edges}, nil
}

func cardinalitiesBySymbol(g *blueprint.Graph, resolvedInputs map[string]any) (map[string]int, error) {
	out := make(map[string]int)
	for _, n := range g.Nodes {
		if n.Type != blueprint.NodeArtefact || n.CountInput == "" || len(n.Dimensions) == 0 {
			continue
		}
		symbol := n.Dimensions[len(n.Dimensions)-1]
		if _, ok := out[symbol]; ok {
			continue
		}
		inputID := string(canon.NewInputID(nil, n.CountInput))
		raw, ok := resolvedInputs[inputID]
		if !ok {
			return nil, errkind.New(errkind.UserInput, "no value for count input %q (dimension %q)", inputID, symbol)
		}
		n, err := toInt(raw)
		if err != nil {
			return nil, errkind.Wrap(errkind.UserInput, err, "count input %q", inputID)
		}
		out[symbol] = n
	}
	return out, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("value %v is not numeric", v)
	}
}

// crossProduct enumerates every index tuple over dims in declared order.
func crossProduct(dims []string, cardinalities map[string]int) ([][]canon.Index, error) {
	if len(dims) == 0 {
		return [][]canon.Index{nil}, nil
	}
	counts := make([]int, len(dims))
	for i, d := range dims {
		c, ok := cardinalities[d]
		if !ok {
			return nil, fmt.Errorf("no cardinality known for dimension %q", d)
		}
		counts[i] = c
	}
	var out [][]canon.Index
	var rec func(i int, acc []canon.Index)
	rec = func(i int, acc []canon.Index) {
		if i == len(dims) {
			cp := append([]canon.Index{}, acc...)
			out = append(out, cp)
			return
		}
		for n := 0; n < counts[i]; n++ {
			rec(i+1, append(acc, canon.Index{Symbol: dims[i], N: n}))
		}
	}
	rec(0, nil)
	return out, nil
}

func indicesFor(tuple []canon.Index, dims []string) []canon.Index {
	var out []canon.Index
	for _, d := range dims {
		for _, idx := range tuple {
			if idx.Symbol == d {
				out = append(out, idx)
				break
			}
		}
	}
	return out
}

func buildJob(g *blueprint.Graph, n blueprint.Node, tuple []canon.Index, cardinalities map[string]int) (JobDescriptor, error) {
	jobID := canon.NewProducerID(n.NamespacePath, n.Name, tuple)

	ownSymbols := make(map[string]bool, len(n.Dimensions))
	for _, d := range n.Dimensions {
		ownSymbols[d] = true
	}

	var produces []canon.ArtifactID
	for _, declaredID := range n.Produces {
		artNode, ok := g.NodeByID(declaredID)
		if !ok {
			return JobDescriptor{}, errkind.New(errkind.UserInput, "producer %q produces unknown artefact %q", n.ID, declaredID)
		}
		var ownedByJob []string
		for _, d := range artNode.Dimensions {
			if !ownSymbols[d] {
				ownedByJob = append(ownedByJob, d)
			}
		}
		if len(ownedByJob) == 0 {
			idx := indicesFor(tuple, artNode.Dimensions)
			produces = append(produces, canon.NewArtifactID(artNode.NamespacePath, artNode.Name, idx))
			continue
		}
		extensions, err := crossProduct(ownedByJob, cardinalities)
		if err != nil {
			return JobDescriptor{}, fmt.Errorf("producergraph: %s produces %s: %w", n.ID, declaredID, err)
		}
		for _, ext := range extensions {
			full := append(append([]canon.Index{}, tuple...), ext...)
			idx := indicesFor(full, artNode.Dimensions)
			produces = append(produces, canon.NewArtifactID(artNode.NamespacePath, artNode.Name, idx))
		}
	}

	bindings := make(map[string]string)
	fanIn := make(map[string]FanInDescriptor)
	var inputs []string

	for _, e := range g.Edges {
		if e.ToID != n.ID {
			continue
		}
		fromNode, ok := g.NodeByID(e.FromID)
		if !ok {
			continue
		}
		if fromNode.Type == blueprint.NodeProducer {
			continue
		}
		alias := fromNode.Name

		var aggregated []string
		for _, d := range fromNode.Dimensions {
			if !ownSymbols[d] {
				aggregated = append(aggregated, d)
			}
		}

		if len(aggregated) == 0 {
			idx := indicesFor(tuple, fromNode.Dimensions)
			id := resolvedNodeID(fromNode, idx)
			inputs = append(inputs, id)
			bindings[alias] = id
			continue
		}

		members, err := expandFanIn(fromNode, tuple, aggregated, cardinalities)
		if err != nil {
			return JobDescriptor{}, err
		}
		fanIn[alias] = FanInDescriptor{Members: members}
		for _, m := range members {
			inputs = append(inputs, m.ID)
		}
	}

	sort.Strings(inputs)

	provider, model := n.Provider, n.Model
	return JobDescriptor{
		JobID:         jobID,
		Producer:      n.Name,
		Inputs:        inputs,
		Produces:      produces,
		Provider:      provider,
		ProviderModel: model,
		RateKey:       provider + ":" + model,
		Context: Context{
			InputBindings: bindings,
			FanIn:         fanIn,
			Indices:       tuple,
		},
	}, nil
}

func resolvedNodeID(n blueprint.Node, idx []canon.Index) string {
	switch n.Type {
	case blueprint.NodeArtefact:
		return string(canon.NewArtifactID(n.NamespacePath, n.Name, idx))
	default:
		return n.ID
	}
}

// expandFanIn enumerates every member artefact a fan-in input aggregates,
// one per index of its single aggregated dimension (multi-dimension
// fan-in is not modelled: a producer aggregates at most one dimension its
// own instances do not already iterate).
func expandFanIn(n blueprint.Node, tuple []canon.Index, aggregated []string, cardinalities map[string]int) ([]FanInMember, error) {
	if len(aggregated) != 1 {
		return nil, fmt.Errorf("producergraph: fan-in over %d dimensions is not supported for %q", len(aggregated), n.ID)
	}
	symbol := aggregated[0]
	count, ok := cardinalities[symbol]
	if !ok {
		return nil, fmt.Errorf("producergraph: no cardinality known for fan-in dimension %q", symbol)
	}
	members := make([]FanInMember, 0, count)
	for i := 0; i < count; i++ {
		memberIdx := append(append([]canon.Index{}, tuple...), canon.Index{Symbol: symbol, N: i})
		idx := indicesFor(memberIdx, n.Dimensions)
		members = append(members, FanInMember{
			ID:    resolvedNodeID(n, idx),
			Group: 0,
			Order: i,
		})
	}
	return members, nil
}
