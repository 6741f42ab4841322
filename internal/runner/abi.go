// Package runner executes a layered plan: for each job it invokes the
// caller-supplied producer function, retries transient failures, records
// artefact events, skips downstream jobs whose inputs failed, and folds
// the resulting event log into a new manifest.
package runner

import (
	"context"

	"github.com/keremk/tutopanda/internal/eventlog"
	"github.com/keremk/tutopanda/internal/producergraph"
	"github.com/keremk/tutopanda/internal/revision"
)

// Status is a producer invocation's normalized outcome.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// normalize maps an unknown or empty status to succeeded, per the
// producer invocation contract.
func normalize(s Status) eventlog.ArtefactStatus {
	switch s {
	case StatusFailed:
		return eventlog.StatusFailed
	case StatusSkipped:
		return eventlog.StatusSkipped
	default:
		return eventlog.StatusSucceeded
	}
}

// BlobPayload is a binary artefact output awaiting storage.
type BlobPayload struct {
	Bytes    []byte
	MimeType string
}

// ProducedArtefact is one artefact a producer invocation reports back,
// either succeeded/failed/skipped with an inline value or a blob payload.
type ProducedArtefact struct {
	ArtifactID  string
	Status      Status
	Inline      any
	Blob        *BlobPayload
	Diagnostics *eventlog.Diagnostics
}

// Request is what the runner hands to a producer invocation.
type Request struct {
	MovieID        string
	Job            producergraph.JobDescriptor
	LayerIndex     int
	Attempt        int
	Revision       revision.ID
	ResolvedInputs map[string]any
}

// Response is what a producer invocation returns.
type Response struct {
	JobID       string
	Status      Status
	Artefacts   []ProducedArtefact
	Diagnostics *eventlog.Diagnostics
}

// Invoker is the pluggable producer call the runner drives. Implementations
// talk to whatever external model/provider a job names; the runner itself
// is provider-agnostic.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (Response, error)
}
