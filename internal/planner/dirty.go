package planner

import (
	"github.com/keremk/tutopanda/internal/eventlog"
	"github.com/keremk/tutopanda/internal/hashing"
	"github.com/keremk/tutopanda/internal/manifest"
	"github.com/keremk/tutopanda/internal/producergraph"
)

// effectiveInputHashes overlays pending edits onto the manifest's input
// hashes and returns the resulting id->hash view plus the set of ids
// whose hash changed (or that did not previously exist).
func effectiveInputHashes(base manifest.Manifest, pending []eventlog.InputEvent) (map[string]string, DirtySet) {
	effective := make(map[string]string, len(base.Inputs))
	for id, entry := range base.Inputs {
		effective[string(id)] = entry.Hash
	}

	changed := make(DirtySet)
	for _, e := range pending {
		id := string(e.ID)
		prior, existed := effective[id]
		effective[id] = e.Hash
		if !existed || prior != e.Hash {
			changed[id] = true
		}
	}
	return effective, changed
}

// hashPayload computes an input value's hash the same way InputEvent hash
// fields are computed (hashing.HashPayload). It has no caller in the package.
func hashPayload(v hashing.Value) string {
	return hashing.HashPayload(v).Hash
}

// seedMissingArtefacts adds every produced artefact id that has no
// succeeded manifest entry to dirty.
func seedMissingArtefacts(base manifest.Manifest, pg *producergraph.Graph, dirty DirtySet) {
	for _, job := range pg.Jobs {
		for _, a := range job.Produces {
			entry, ok := base.Artefacts[a]
			if !ok || entry.Status != eventlog.StatusSucceeded {
				dirty[string(a)] = true
			}
		}
	}
}

// propagate performs forward BFS over the job graph: a job is dirty iff
// any declared input is dirty; its produced artefacts then join dirty.
// Runs to a fixed point and returns the set of dirty job ids.
func propagate(pg *producergraph.Graph, dirty DirtySet) map[string]bool {
	dirtyJobs := make(map[string]bool)
	changed := true
	for changed {
		changed = false
		for _, job := range pg.Jobs {
			id := string(job.JobID)
			if dirtyJobs[id] {
				continue
			}
			if jobIsDirty(job, dirty) {
				dirtyJobs[id] = true
				changed = true
				for _, a := range job.Produces {
					if !dirty[string(a)] {
						dirty[string(a)] = true
					}
				}
			}
		}
	}
	return dirtyJobs
}

func jobIsDirty(job producergraph.JobDescriptor, dirty DirtySet) bool {
	for _, in := range job.Inputs {
		if dirty[in] {
			return true
		}
	}
	for _, desc := range job.Context.FanIn {
		for _, m := range desc.Members {
			if dirty[m.ID] {
				return true
			}
		}
	}
	return false
}
