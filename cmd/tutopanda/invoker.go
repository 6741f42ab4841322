package main

import (
	"context"
	"fmt"

	"github.com/keremk/tutopanda/internal/blobstore"
	"github.com/keremk/tutopanda/internal/canon"
	"github.com/keremk/tutopanda/internal/eventlog"
	"github.com/keremk/tutopanda/internal/resolver"
	"github.com/keremk/tutopanda/internal/runner"
)

// stubInvoker is the default Invoker wired by the CLI. It stands in for a
// real provider adapter: it hydrates every declared upstream artefact via
// resolver.Resolve (so a produced placeholder can reference what an
// actual provider call would have received) and then succeeds
// immediately, producing an inline placeholder payload for each declared
// artefact. Swapping in an actual provider-backed Invoker is the
// integration point a deployment would replace this with.
type stubInvoker struct {
	events  eventlog.Store
	blobs   blobstore.Store
	movieID string
}

func newStubInvoker(events eventlog.Store, blobs blobstore.Store, movieID string) runner.Invoker {
	return stubInvoker{events: events, blobs: blobs, movieID: movieID}
}

func (s stubInvoker) Invoke(ctx context.Context, req runner.Request) (runner.Response, error) {
	wanted := make([]canon.ArtifactID, 0, len(req.Job.Inputs))
	for _, id := range req.Job.Inputs {
		wanted = append(wanted, canon.ArtifactID(id))
	}
	resolved, err := resolver.Resolve(ctx, s.events, s.blobs, s.movieID, wanted)
	if err != nil {
		return runner.Response{}, fmt.Errorf("stub invoker: resolve inputs for %s: %w", req.Job.JobID, err)
	}

	artefacts := make([]runner.ProducedArtefact, 0, len(req.Job.Produces))
	for _, id := range req.Job.Produces {
		artefacts = append(artefacts, runner.ProducedArtefact{
			ArtifactID: string(id),
			Status:     runner.StatusSucceeded,
			Inline:     fmt.Sprintf("placeholder output for %s (attempt %d, %d upstream artefact(s) hydrated)", id, req.Attempt, len(resolved)),
		})
	}
	return runner.Response{
		JobID:     string(req.Job.JobID),
		Status:    runner.StatusSucceeded,
		Artefacts: artefacts,
	}, nil
}
