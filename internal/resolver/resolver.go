// Package resolver hydrates artefact payloads for a requested set of ids
// by streaming the artefact event log once and reading the winning
// blob or inline value back out of storage.
package resolver

import (
	"context"

	"github.com/keremk/tutopanda/internal/blobstore"
	"github.com/keremk/tutopanda/internal/canon"
	"github.com/keremk/tutopanda/internal/errkind"
	"github.com/keremk/tutopanda/internal/eventlog"
	"github.com/keremk/tutopanda/internal/revision"
	"github.com/keremk/tutopanda/internal/storage"
)

// Resolved is one hydrated artefact payload.
type Resolved struct {
	ArtifactID canon.ArtifactID
	Revision   revision.ID
	MimeType   string
	Bytes      []byte
}

// Resolve streams the artefact log for movieID once, keeps the
// greatest-revision succeeded event for every id in artifactIDs, then
// hydrates each winner's payload. The returned map is keyed both by the
// requested full id and by its dimensionless base kind, so a caller can
// look an artefact up either way.
func Resolve(ctx context.Context, events eventlog.Store, blobs blobstore.Store, movieID string, artifactIDs []canon.ArtifactID) (map[string]Resolved, error) {
	wanted := make(map[canon.ArtifactID]bool, len(artifactIDs))
	for _, id := range artifactIDs {
		wanted[id] = true
	}

	winners := make(map[canon.ArtifactID]eventlog.ArtefactEvent)
	for ev, err := range events.StreamArtefacts(ctx, movieID, revision.Zero) {
		if err != nil {
			return nil, errkind.Wrap(errkind.EventLogCorrupt, err, "resolver: streaming artefacts for %q", movieID)
		}
		if !wanted[ev.ArtifactID] {
			continue
		}
		if ev.Status != eventlog.StatusSucceeded {
			continue
		}
		prior, ok := winners[ev.ArtifactID]
		if !ok || prior.Revision.Less(ev.Revision) {
			winners[ev.ArtifactID] = ev
		}
	}

	out := make(map[string]Resolved, len(winners)*2)
	for id, ev := range winners {
		resolved, err := hydrate(ctx, blobs, movieID, id, ev)
		if err != nil {
			return nil, err
		}
		out[string(id)] = resolved
		out[string(id.Base())] = resolved
	}
	return out, nil
}

func hydrate(ctx context.Context, blobs blobstore.Store, movieID string, id canon.ArtifactID, ev eventlog.ArtefactEvent) (Resolved, error) {
	if ev.Output.Blob == nil {
		return Resolved{
			ArtifactID: id,
			Revision:   ev.Revision,
			Bytes:      []byte(ev.Output.Inline),
		}, nil
	}

	ref := ev.Output.Blob
	sc := storage.New(movieID)
	ext := storage.ExtensionForMime(ref.MimeType)

	path := sc.BlobPath(ref.Hash, ext)
	data, err := blobs.ReadToBytes(ctx, path)
	if err != nil {
		if ext != "" {
			fallback := sc.BlobPath(ref.Hash, "")
			data, err = blobs.ReadToBytes(ctx, fallback)
		}
		if err != nil {
			return Resolved{}, errkind.New(errkind.BlobMissing, "artefact %q blob %q not found", id, ref.Hash)
		}
	}

	return Resolved{
		ArtifactID: id,
		Revision:   ev.Revision,
		MimeType:   ref.MimeType,
		Bytes:      data,
	}, nil
}

