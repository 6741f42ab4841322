package runner_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/keremk/tutopanda/internal/blobstore"
	"github.com/keremk/tutopanda/internal/canon"
	"github.com/keremk/tutopanda/internal/eventlog"
	"github.com/keremk/tutopanda/internal/manifest"
	"github.com/keremk/tutopanda/internal/planner"
	"github.com/keremk/tutopanda/internal/producergraph"
	"github.com/keremk/tutopanda/internal/revision"
	"github.com/keremk/tutopanda/internal/runner"
)

// TestExecuteRetryAttemptsProperty verifies property 6's success branch
// (spec §8): a job that fails n times before succeeding, n < 3, is
// invoked exactly n+1 times and its success is recorded.
func TestExecuteRetryAttemptsProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("transient failures are retried until success", prop.ForAll(
		func(failures int) bool {
			responses := make([]runner.Response, 0, failures+1)
			for i := 0; i < failures; i++ {
				responses = append(responses, failResponse())
			}
			responses = append(responses, succeedResponse("Artifact:X"))

			events := eventlog.NewMemoryStore()
			blobs := blobstore.NewMemoryStore()
			invoker := newScriptedInvoker(map[string][]runner.Response{
				"Producer:A": responses,
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

			result, err := r.Execute(context.Background(), movieID, plan, manifest.Empty(), nil, runner.Config{Concurrency: 1})
			if err != nil {
				return false
			}
			if result.Status != runner.StatusSucceeded {
				return false
			}
			return invoker.count("Producer:A") == failures+1
		},
		gen.IntRange(0, 2),
	))

	properties.TestingRun(t)
}

// TestExecutePermanentFailureSkipsAllDownstreamProperty verifies
// property 6's failure branch: a job that fails every attempt is
// invoked exactly 3 times and every downstream consumer of its artefact
// is skipped, regardless of how many downstream consumers exist.
func TestExecutePermanentFailureSkipsAllDownstreamProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	properties.Property("permanent failure skips every downstream consumer", prop.ForAll(
		func(downstream int) bool {
			events := eventlog.NewMemoryStore()
			blobs := blobstore.NewMemoryStore()

			responses := map[string][]runner.Response{
				"Producer:A": {failResponse(), failResponse(), failResponse()},
			}
			layer2 := make([]producergraph.JobDescriptor, 0, downstream)
			for i := 0; i < downstream; i++ {
				id := fmt.Sprintf("Producer:B%d", i)
				artefact := fmt.Sprintf("Artifact:Y%d", i)
				responses[id] = []runner.Response{succeedResponse(artefact)}
				layer2 = append(layer2, producergraph.JobDescriptor{
					JobID:    canon.ProducerID(id),
					Producer: fmt.Sprintf("B%d", i),
					Inputs:   []string{"Artifact:X"},
					Produces: []canon.ArtifactID{canon.ArtifactID(artefact)},
				})
			}

			invoker := newScriptedInvoker(responses)
			r := runner.New(events, blobs, invoker, nil)

			plan := planner.Plan{
				Revision: revision.New(1),
				Layers: [][]producergraph.JobDescriptor{
					{jobA()},
					layer2,
				},
			}

			result, err := r.Execute(context.Background(), movieID, plan, manifest.Empty(), nil, runner.Config{Concurrency: 2})
			if err != nil {
				return false
			}
			if result.Status != runner.StatusFailed {
				return false
			}
			if invoker.count("Producer:A") != 3 {
				return false
			}
			for i := 0; i < downstream; i++ {
				entry, ok := result.Manifest.Artefacts[canon.ArtifactID(fmt.Sprintf("Artifact:Y%d", i))]
				if !ok || entry.Status != eventlog.StatusSkipped {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 4),
	))

	properties.TestingRun(t)
}
