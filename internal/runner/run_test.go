package runner_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keremk/tutopanda/internal/blobstore"
	"github.com/keremk/tutopanda/internal/canon"
	"github.com/keremk/tutopanda/internal/eventlog"
	"github.com/keremk/tutopanda/internal/manifest"
	"github.com/keremk/tutopanda/internal/planner"
	"github.com/keremk/tutopanda/internal/producergraph"
	"github.com/keremk/tutopanda/internal/revision"
	"github.com/keremk/tutopanda/internal/runner"
)

const movieID = "movie1"

func jobA() producergraph.JobDescriptor {
	return producergraph.JobDescriptor{
		JobID:    canon.ProducerID("Producer:A"),
		Producer: "A",
		Produces: []canon.ArtifactID{"Artifact:X"},
	}
}

func jobB() producergraph.JobDescriptor {
	return producergraph.JobDescriptor{
		JobID:    canon.ProducerID("Producer:B"),
		Producer: "B",
		Inputs:   []string{"Artifact:X"},
		Produces: []canon.ArtifactID{"Artifact:Y"},
	}
}

// scriptedInvoker returns a fixed sequence of responses per job id, cycling
// to the last entry once exhausted, and counts invocations per job.
type scriptedInvoker struct {
	mu        sync.Mutex
	responses map[string][]runner.Response
	calls     map[string]int
}

func newScriptedInvoker(responses map[string][]runner.Response) *scriptedInvoker {
	return &scriptedInvoker{responses: responses, calls: make(map[string]int)}
}

func (s *scriptedInvoker) Invoke(_ context.Context, req runner.Request) (runner.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := string(req.Job.JobID)
	seq := s.responses[id]
	idx := s.calls[id]
	s.calls[id]++
	if idx >= len(seq) {
		idx = len(seq) - 1
	}
	return seq[idx], nil
}

func (s *scriptedInvoker) count(jobID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[jobID]
}

func succeedResponse(artefactID string) runner.Response {
	return runner.Response{
		Status: runner.StatusSucceeded,
		Artefacts: []runner.ProducedArtefact{
			{ArtifactID: artefactID, Status: runner.StatusSucceeded, Inline: "ok"},
		},
	}
}

func failResponse() runner.Response {
	return runner.Response{Status: runner.StatusFailed}
}

func TestExecuteUpToLayerStopsEarly(t *testing.T) {
	events := eventlog.NewMemoryStore()
	blobs := blobstore.NewMemoryStore()
	invoker := newScriptedInvoker(map[string][]runner.Response{
		"Producer:A": {succeedResponse("Artifact:X")},
		"Producer:B": {succeedResponse("Artifact:Y")},
	})
	r := runner.New(events, blobs, invoker, nil)

	plan := planner.Plan{
		Revision: revision.New(1),
		Layers: [][]producergraph.JobDescriptor{
			{jobA()},
			{jobB()},
		},
	}
	upTo := 0

	result, err := r.Execute(context.Background(), movieID, plan, manifest.Empty(), nil, runner.Config{
		Concurrency: 2,
		UpToLayer:   &upTo,
	})
	require.NoError(t, err)
	assert.Equal(t, runner.StatusSucceeded, result.Status)
	assert.Equal(t, 1, invoker.count("Producer:A"))
	assert.Equal(t, 0, invoker.count("Producer:B"))
}

func TestExecuteRetriesFailingJobThreeTimesThenSkipsDownstream(t *testing.T) {
	events := eventlog.NewMemoryStore()
	blobs := blobstore.NewMemoryStore()
	invoker := newScriptedInvoker(map[string][]runner.Response{
		"Producer:A": {failResponse(), failResponse(), failResponse()},
		"Producer:B": {succeedResponse("Artifact:Y")},
	})
	r := runner.New(events, blobs, invoker, nil)

	plan := planner.Plan{
		Revision: revision.New(1),
		Layers: [][]producergraph.JobDescriptor{
			{jobA()},
			{jobB()},
		},
	}

	result, err := r.Execute(context.Background(), movieID, plan, manifest.Empty(), nil, runner.Config{
		Concurrency: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, runner.StatusFailed, result.Status)
	assert.Equal(t, 3, invoker.count("Producer:A"))
	assert.Equal(t, 0, invoker.count("Producer:B")) // downstream skipped, never invoked
	assert.Contains(t, result.FailedJobs, "Producer:A")

	entry, ok := result.Manifest.Artefacts[canon.ArtifactID("Artifact:X")]
	require.True(t, ok)
	assert.Equal(t, eventlog.StatusFailed, entry.Status)

	skipped, ok := result.Manifest.Artefacts[canon.ArtifactID("Artifact:Y")]
	require.True(t, ok)
	assert.Equal(t, eventlog.StatusSkipped, skipped.Status)
}

func TestExecuteSucceedsAfterTransientFailures(t *testing.T) {
	events := eventlog.NewMemoryStore()
	blobs := blobstore.NewMemoryStore()
	invoker := newScriptedInvoker(map[string][]runner.Response{
		"Producer:A": {failResponse(), failResponse(), succeedResponse("Artifact:X")},
		"Producer:B": {succeedResponse("Artifact:Y")},
	})
	r := runner.New(events, blobs, invoker, nil)

	plan := planner.Plan{
		Revision: revision.New(1),
		Layers: [][]producergraph.JobDescriptor{
			{jobA()},
			{jobB()},
		},
	}

	result, err := r.Execute(context.Background(), movieID, plan, manifest.Empty(), nil, runner.Config{
		Concurrency: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, runner.StatusSucceeded, result.Status)
	assert.Equal(t, 3, invoker.count("Producer:A"))
	assert.Equal(t, 1, invoker.count("Producer:B"))

	entry, ok := result.Manifest.Artefacts[canon.ArtifactID("Artifact:X")]
	require.True(t, ok)
	assert.Equal(t, eventlog.StatusSucceeded, entry.Status)
}

func TestExecuteRejectsNonPositiveConcurrency(t *testing.T) {
	events := eventlog.NewMemoryStore()
	blobs := blobstore.NewMemoryStore()
	invoker := newScriptedInvoker(nil)
	r := runner.New(events, blobs, invoker, nil)

	_, err := r.Execute(context.Background(), movieID, planner.Plan{Revision: revision.New(1)}, manifest.Empty(), nil, runner.Config{Concurrency: 0})
	assert.Error(t, err)
}
