package manifest

import (
	"context"
	"fmt"

	"github.com/keremk/tutopanda/internal/canon"
	"github.com/keremk/tutopanda/internal/eventlog"
	"github.com/keremk/tutopanda/internal/revision"
)

// BuildParams configures BuildFromEvents.
type BuildParams struct {
	MovieID        string
	TargetRevision revision.ID
	BaseRevision   revision.ID
	Base           Manifest // ignored unless BaseRevision is non-zero
	Events         eventlog.Store
}

// BuildFromEvents folds every input and artefact event with Revision <=
// TargetRevision onto the base manifest, producing the manifest for
// TargetRevision.
//
// Artefact events with Status in {failed, skipped} never overwrite a prior
// succeeded entry for the same id; they become the current entry only
// when no succeeded entry exists yet at or before the target revision.
func BuildFromEvents(ctx context.Context, p BuildParams) (Manifest, error) {
	m := Empty()
	if !p.BaseRevision.IsZero() {
		m = p.Base
	}
	m.BaseRevision = p.BaseRevision
	m.Revision = p.TargetRevision
	if m.Inputs == nil {
		m.Inputs = make(map[canon.InputID]InputEntry)
	}
	if m.Artefacts == nil {
		m.Artefacts = make(map[canon.ArtifactID]ArtefactEntry)
	}

	succeededAt := make(map[canon.ArtifactID]revision.ID)
	for id, e := range m.Artefacts {
		if e.Status == eventlog.StatusSucceeded {
			succeededAt[id] = m.BaseRevision
		}
	}

	for e, err := range p.Events.StreamInputs(ctx, p.MovieID, revision.Zero) {
		if err != nil {
			return Manifest{}, fmt.Errorf("manifest: stream inputs: %w", err)
		}
		if p.TargetRevision.Less(e.Revision) {
			continue
		}
		m.Inputs[e.ID] = InputEntry{
			Hash:          e.Hash,
			PayloadDigest: e.Hash,
			Payload:       e.Payload,
			CreatedAt:     e.CreatedAt,
		}
	}

	for e, err := range p.Events.StreamArtefacts(ctx, p.MovieID, revision.Zero) {
		if err != nil {
			return Manifest{}, fmt.Errorf("manifest: stream artefacts: %w", err)
		}
		if p.TargetRevision.Less(e.Revision) {
			continue
		}
		if e.Status != eventlog.StatusSucceeded {
			if _, hasSuccess := succeededAt[e.ArtifactID]; hasSuccess {
				continue
			}
		}
		m.Artefacts[e.ArtifactID] = ArtefactEntry{
			Hash:       e.InputsHash,
			Output:     e.Output,
			ProducedBy: e.ProducedBy,
			Status:     e.Status,
			CreatedAt:  e.CreatedAt,
		}
		if e.Status == eventlog.StatusSucceeded {
			succeededAt[e.ArtifactID] = e.Revision
		}
	}

	return m, nil
}
