package manifest_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keremk/tutopanda/internal/blobstore"
	"github.com/keremk/tutopanda/internal/canon"
	"github.com/keremk/tutopanda/internal/eventlog"
	"github.com/keremk/tutopanda/internal/manifest"
	"github.com/keremk/tutopanda/internal/revision"
)

func TestBuildFromEventsOverwritesLatestByRevision(t *testing.T) {
	ctx := context.Background()
	events := eventlog.NewMemoryStore()
	inputID := canon.NewInputID(nil, "Prompt")

	require.NoError(t, events.AppendInput(ctx, "m1", eventlog.InputEvent{
		ID: inputID, Revision: revision.New(1), Hash: "h1", Payload: json.RawMessage(`"a"`),
	}))
	require.NoError(t, events.AppendInput(ctx, "m1", eventlog.InputEvent{
		ID: inputID, Revision: revision.New(2), Hash: "h2", Payload: json.RawMessage(`"b"`),
	}))

	m, err := manifest.BuildFromEvents(ctx, manifest.BuildParams{
		MovieID: "m1", TargetRevision: revision.New(2), BaseRevision: revision.Zero, Events: events,
	})
	require.NoError(t, err)
	assert.Equal(t, "h2", m.Inputs[inputID].Hash)
}

func TestBuildFromEventsIgnoresEventsAfterTarget(t *testing.T) {
	ctx := context.Background()
	events := eventlog.NewMemoryStore()
	inputID := canon.NewInputID(nil, "Prompt")

	require.NoError(t, events.AppendInput(ctx, "m1", eventlog.InputEvent{
		ID: inputID, Revision: revision.New(1), Hash: "h1",
	}))
	require.NoError(t, events.AppendInput(ctx, "m1", eventlog.InputEvent{
		ID: inputID, Revision: revision.New(2), Hash: "h2",
	}))

	m, err := manifest.BuildFromEvents(ctx, manifest.BuildParams{
		MovieID: "m1", TargetRevision: revision.New(1), Events: events,
	})
	require.NoError(t, err)
	assert.Equal(t, "h1", m.Inputs[inputID].Hash)
}

func TestBuildFromEventsFailedNeverOverwritesSucceeded(t *testing.T) {
	ctx := context.Background()
	events := eventlog.NewMemoryStore()
	art := canon.NewArtifactID([]string{"ScriptProducer"}, "NarrationScript", []canon.Index{{Symbol: "segment", N: 0}})

	require.NoError(t, events.AppendArtefact(ctx, "m1", eventlog.ArtefactEvent{
		ArtifactID: art, Revision: revision.New(1), Status: eventlog.StatusSucceeded, ProducedBy: "p1",
	}))
	require.NoError(t, events.AppendArtefact(ctx, "m1", eventlog.ArtefactEvent{
		ArtifactID: art, Revision: revision.New(2), Status: eventlog.StatusFailed, ProducedBy: "p1",
	}))

	m, err := manifest.BuildFromEvents(ctx, manifest.BuildParams{
		MovieID: "m1", TargetRevision: revision.New(2), Events: events,
	})
	require.NoError(t, err)
	assert.Equal(t, eventlog.StatusSucceeded, m.Artefacts[art].Status)
}

func TestBuildFromEventsFailedRecordedWhenNoPriorSuccess(t *testing.T) {
	ctx := context.Background()
	events := eventlog.NewMemoryStore()
	art := canon.NewArtifactID([]string{"ScriptProducer"}, "NarrationScript", []canon.Index{{Symbol: "segment", N: 0}})

	require.NoError(t, events.AppendArtefact(ctx, "m1", eventlog.ArtefactEvent{
		ArtifactID: art, Revision: revision.New(1), Status: eventlog.StatusFailed, ProducedBy: "p1",
	}))

	m, err := manifest.BuildFromEvents(ctx, manifest.BuildParams{
		MovieID: "m1", TargetRevision: revision.New(1), Events: events,
	})
	require.NoError(t, err)
	assert.Equal(t, eventlog.StatusFailed, m.Artefacts[art].Status)
}

func TestManifestRoundTripThroughPointer(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemoryStore()
	svc := manifest.NewService(blobs)
	svc.Now = func() time.Time { return time.Unix(100, 0).UTC() }

	m := manifest.Empty()
	m.Revision = revision.New(1)
	m.Inputs[canon.NewInputID(nil, "X")] = manifest.InputEntry{Hash: "h1"}

	_, hash, err := svc.WriteCurrent(ctx, "m1", m)
	require.NoError(t, err)

	loaded, loadedHash, err := svc.LoadCurrent(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, hash, loadedHash)

	wantHash, err := manifest.Hash(loaded)
	require.NoError(t, err)
	assert.Equal(t, wantHash, loadedHash)
	assert.Equal(t, "h1", loaded.Inputs[canon.NewInputID(nil, "X")].Hash)
}

func TestLoadCurrentNotFound(t *testing.T) {
	ctx := context.Background()
	svc := manifest.NewService(blobstore.NewMemoryStore())
	_, _, err := svc.LoadCurrent(ctx, "never-seen")
	assert.Error(t, err)
}
