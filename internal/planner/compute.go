package planner

import (
	"sort"
	"strings"
	"time"

	"github.com/keremk/tutopanda/internal/eventlog"
	"github.com/keremk/tutopanda/internal/manifest"
	"github.com/keremk/tutopanda/internal/producergraph"
	"github.com/keremk/tutopanda/internal/revision"
)

// Compute diffs pending input edits against base, propagates dirtiness
// through pg, and stratifies the dirty jobs into a layered plan for
// targetRevision. A plan with no layers means nothing is stale.
func Compute(base manifest.Manifest, pending []eventlog.InputEvent, pg *producergraph.Graph, targetRevision revision.ID) (*Plan, error) {
	_, changed := effectiveInputHashes(base, pending)

	dirty := newDirtySet()
	for id := range changed {
		dirty[id] = true
	}
	seedMissingArtefacts(base, pg, dirty)

	dirtyJobs := propagate(pg, dirty)
	if len(dirtyJobs) == 0 {
		return &Plan{Revision: targetRevision, CreatedAt: time.Now().UTC()}, nil
	}

	layers, err := stratify(pg, dirtyJobs)
	if err != nil {
		return nil, err
	}

	baseHash, err := manifest.Hash(base)
	if err != nil {
		return nil, err
	}

	return &Plan{
		Revision:         targetRevision,
		ManifestBaseHash: baseHash,
		Layers:           layers,
		CreatedAt:        time.Now().UTC(),
	}, nil
}

// DirtyArtifactIDs returns the artefact-shaped members of a dirty set, for
// callers that need to report which artefacts are considered stale.
func DirtyArtifactIDs(dirty DirtySet) []string {
	var out []string
	for id := range dirty {
		if strings.HasPrefix(id, "Artifact:") {
			out = append(out, string(asArtifactID(id)))
		}
	}
	sort.Strings(out)
	return out
}
