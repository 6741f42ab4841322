package planner

import (
	"sort"

	"github.com/keremk/tutopanda/internal/errkind"
	"github.com/keremk/tutopanda/internal/producergraph"
)

// stratify orders the dirty subset of jobs into layers via Kahn's
// algorithm: each layer holds every remaining job whose dependencies (as
// restricted to the dirty subset) have already been emitted in an earlier
// layer. Within a layer, jobs are sorted by job id for determinism.
func stratify(pg *producergraph.Graph, dirtyJobs map[string]bool) ([][]producergraph.JobDescriptor, error) {
	byID := make(map[string]producergraph.JobDescriptor, len(pg.Jobs))
	for _, j := range pg.Jobs {
		if dirtyJobs[string(j.JobID)] {
			byID[string(j.JobID)] = j
		}
	}
	if len(byID) == 0 {
		return nil, nil
	}

	indegree := make(map[string]int, len(byID))
	dependents := make(map[string][]string, len(byID))
	for id := range byID {
		indegree[id] = 0
	}
	for _, e := range pg.Edges {
		from, to := string(e.From), string(e.To)
		if !dirtyJobs[from] || !dirtyJobs[to] {
			continue
		}
		indegree[to]++
		dependents[from] = append(dependents[from], to)
	}

	var layers [][]producergraph.JobDescriptor
	remaining := len(byID)
	frontier := make(map[string]bool)
	for id, deg := range indegree {
		if deg == 0 {
			frontier[id] = true
		}
	}

	for remaining > 0 {
		if len(frontier) == 0 {
			return nil, errkind.New(errkind.Cycle, "cycle detected among jobs: %s", exampleCycleMember(indegree))
		}
		ids := make([]string, 0, len(frontier))
		for id := range frontier {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		layer := make([]producergraph.JobDescriptor, 0, len(ids))
		for _, id := range ids {
			layer = append(layer, byID[id])
		}
		layers = append(layers, layer)

		next := make(map[string]bool)
		for _, id := range ids {
			delete(indegree, id)
			remaining--
			for _, dep := range dependents[id] {
				if _, ok := indegree[dep]; !ok {
					continue
				}
				indegree[dep]--
				if indegree[dep] == 0 {
					next[dep] = true
				}
			}
		}
		frontier = next
	}

	return layers, nil
}

// exampleCycleMember returns one of the job ids still stuck with a
// non-zero indegree once no further frontier can be formed, to name in the
// cycle error.
func exampleCycleMember(indegree map[string]int) string {
	ids := make([]string, 0, len(indegree))
	for id := range indegree {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if len(ids) == 0 {
		return "<unknown>"
	}
	return ids[0]
}
