// Package planner diffs a movie's current manifest against pending input
// edits, propagates dirtiness through the producer graph, and emits a
// layered execution plan.
package planner

import (
	"time"

	"github.com/keremk/tutopanda/internal/canon"
	"github.com/keremk/tutopanda/internal/producergraph"
	"github.com/keremk/tutopanda/internal/revision"
)

// Plan is a persisted, layered execution plan for one target revision.
type Plan struct {
	Revision         revision.ID                    `json:"revision"`
	ManifestBaseHash string                         `json:"manifest_base_hash"`
	Layers           [][]producergraph.JobDescriptor `json:"layers"`
	CreatedAt        time.Time                      `json:"created_at"`
}

// DirtySet is the set of canonical ids (input or artefact) considered
// stale for a planning pass.
type DirtySet map[string]bool

func newDirtySet(ids ...string) DirtySet {
	s := make(DirtySet, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}

// asArtifactID narrows a raw dirty-set id string back to canon.ArtifactID
// for callers that already know it has the "Artifact:" shape.
func asArtifactID(id string) canon.ArtifactID { return canon.ArtifactID(id) }
