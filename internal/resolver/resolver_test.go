package resolver_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keremk/tutopanda/internal/blobstore"
	"github.com/keremk/tutopanda/internal/canon"
	"github.com/keremk/tutopanda/internal/errkind"
	"github.com/keremk/tutopanda/internal/eventlog"
	"github.com/keremk/tutopanda/internal/resolver"
	"github.com/keremk/tutopanda/internal/revision"
	"github.com/keremk/tutopanda/internal/storage"
)

const movieID = "movie1"

func TestResolveHydratesInlinePayload(t *testing.T) {
	ctx := context.Background()
	events := eventlog.NewMemoryStore()
	blobs := blobstore.NewMemoryStore()

	id := canon.ArtifactID("Artifact:Script")
	require.NoError(t, events.AppendArtefact(ctx, movieID, eventlog.ArtefactEvent{
		ArtifactID: id,
		Revision:   revision.New(1),
		Status:     eventlog.StatusSucceeded,
		Output:     eventlog.Output{Inline: []byte(`"hello"`)},
		CreatedAt:  time.Now(),
	}))

	out, err := resolver.Resolve(ctx, events, blobs, movieID, []canon.ArtifactID{id})
	require.NoError(t, err)
	require.Contains(t, out, string(id))
	assert.Equal(t, `"hello"`, string(out[string(id)].Bytes))
}

func TestResolveHydratesBlobPayloadAndKeysByBaseKind(t *testing.T) {
	ctx := context.Background()
	events := eventlog.NewMemoryStore()
	blobs := blobstore.NewMemoryStore()

	id := canon.ArtifactID("Artifact:ScriptProducer.NarrationScript[segment=0]")
	hash := "deadbeef"
	require.NoError(t, blobs.WriteBytes(ctx, storage.New(movieID).BlobPath(hash, "mp3"), []byte("audio-bytes")))

	require.NoError(t, events.AppendArtefact(ctx, movieID, eventlog.ArtefactEvent{
		ArtifactID: id,
		Revision:   revision.New(1),
		Status:     eventlog.StatusSucceeded,
		Output: eventlog.Output{
			Blob: &eventlog.BlobRef{Hash: hash, Size: 11, MimeType: "audio/mp3"},
		},
		CreatedAt: time.Now(),
	}))

	out, err := resolver.Resolve(ctx, events, blobs, movieID, []canon.ArtifactID{id})
	require.NoError(t, err)

	full, ok := out[string(id)]
	require.True(t, ok)
	assert.Equal(t, "audio-bytes", string(full.Bytes))

	base, ok := out[string(id.Base())]
	require.True(t, ok)
	assert.Equal(t, "audio-bytes", string(base.Bytes))
}

func TestResolvePicksGreatestSucceededRevision(t *testing.T) {
	ctx := context.Background()
	events := eventlog.NewMemoryStore()
	blobs := blobstore.NewMemoryStore()

	id := canon.ArtifactID("Artifact:Script")
	require.NoError(t, events.AppendArtefact(ctx, movieID, eventlog.ArtefactEvent{
		ArtifactID: id, Revision: revision.New(1), Status: eventlog.StatusSucceeded,
		Output: eventlog.Output{Inline: []byte(`"v1"`)}, CreatedAt: time.Now(),
	}))
	require.NoError(t, events.AppendArtefact(ctx, movieID, eventlog.ArtefactEvent{
		ArtifactID: id, Revision: revision.New(2), Status: eventlog.StatusFailed,
		Output: eventlog.Output{Inline: []byte(`"v2-failed"`)}, CreatedAt: time.Now(),
	}))
	require.NoError(t, events.AppendArtefact(ctx, movieID, eventlog.ArtefactEvent{
		ArtifactID: id, Revision: revision.New(3), Status: eventlog.StatusSucceeded,
		Output: eventlog.Output{Inline: []byte(`"v3"`)}, CreatedAt: time.Now(),
	}))

	out, err := resolver.Resolve(ctx, events, blobs, movieID, []canon.ArtifactID{id})
	require.NoError(t, err)
	assert.Equal(t, `"v3"`, string(out[string(id)].Bytes))
}

func TestResolveMissingBlobFailsWithBlobMissing(t *testing.T) {
	ctx := context.Background()
	events := eventlog.NewMemoryStore()
	blobs := blobstore.NewMemoryStore()

	id := canon.ArtifactID("Artifact:Audio")
	require.NoError(t, events.AppendArtefact(ctx, movieID, eventlog.ArtefactEvent{
		ArtifactID: id, Revision: revision.New(1), Status: eventlog.StatusSucceeded,
		Output:    eventlog.Output{Blob: &eventlog.BlobRef{Hash: "missinghash", MimeType: "audio/mp3"}},
		CreatedAt: time.Now(),
	}))

	_, err := resolver.Resolve(ctx, events, blobs, movieID, []canon.ArtifactID{id})
	require.Error(t, err)
	assert.True(t, errkind.Is(err, errkind.BlobMissing))
}
