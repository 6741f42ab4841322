package runner

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/keremk/tutopanda/internal/blobstore"
	"github.com/keremk/tutopanda/internal/canon"
	"github.com/keremk/tutopanda/internal/errkind"
	"github.com/keremk/tutopanda/internal/eventlog"
	"github.com/keremk/tutopanda/internal/hashing"
	"github.com/keremk/tutopanda/internal/manifest"
	"github.com/keremk/tutopanda/internal/planner"
	"github.com/keremk/tutopanda/internal/producergraph"
	"github.com/keremk/tutopanda/internal/revision"
	"github.com/keremk/tutopanda/internal/storage"
	"github.com/keremk/tutopanda/internal/telemetry"
)

// maxAttempts is the total number of produce() attempts per job (the
// first attempt plus two retries), fixed by the retry policy.
const maxAttempts = 3

// retryDelay is the short bounded wait between attempts; the backoff
// schedule itself is not otherwise constrained.
const retryDelay = 200 * time.Millisecond

// Config controls one execution of a plan.
type Config struct {
	Concurrency int
	UpToLayer   *int // nil means run every layer
	RetryDelay  time.Duration
}

// Runner drives a plan's layers against an Invoker, recording every
// attempt to the event log and rebuilding the manifest afterward.
type Runner struct {
	Events  eventlog.Store
	Blobs   blobstore.Store
	Invoker Invoker
	Logger  telemetry.Logger
}

// RunResult is what execute() returns.
type RunResult struct {
	Status      Status
	Revision    revision.ID
	Manifest    manifest.Manifest
	FailedJobs  []string
	SkippedJobs []string
}

// New constructs a Runner; logger defaults to a no-op logger if nil.
func New(events eventlog.Store, blobs blobstore.Store, invoker Invoker, logger telemetry.Logger) *Runner {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	return &Runner{Events: events, Blobs: blobs, Invoker: invoker, Logger: logger}
}

// Execute runs plan against movieID, under cfg, starting from base (the
// manifest at plan's base revision).
func (r *Runner) Execute(ctx context.Context, movieID string, plan planner.Plan, base manifest.Manifest, resolvedInputs map[string]any, cfg Config) (RunResult, error) {
	if cfg.Concurrency <= 0 {
		return RunResult{}, errkind.New(errkind.UserInput, "concurrency must be a positive integer, got %d", cfg.Concurrency)
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = retryDelay
	}

	layers := plan.Layers
	if cfg.UpToLayer != nil {
		if *cfg.UpToLayer < 0 {
			return RunResult{}, errkind.New(errkind.UserInput, "up_to_layer must be >= 0, got %d", *cfg.UpToLayer)
		}
		if *cfg.UpToLayer+1 < len(layers) {
			layers = layers[:*cfg.UpToLayer+1]
		}
	}

	failedArtefacts := make(map[string]bool)
	var failedJobs, skippedJobs []string
	cancelled := false

	for layerIdx, layer := range layers {
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(cfg.Concurrency)

		type outcome struct {
			jobID  string
			failed bool
		}
		outcomes := make([]outcome, len(layer))

		for i, job := range layer {
			i, job := i, job
			eg.Go(func() error {
				skip := jobDependsOnFailure(job, failedArtefacts)
				if skip {
					if err := r.recordSkipped(egCtx, movieID, job, plan.Revision); err != nil {
						return err
					}
					outcomes[i] = outcome{jobID: string(job.JobID), failed: false}
					return nil
				}

				failed, err := r.runJob(egCtx, movieID, job, layerIdx, plan.Revision, resolvedInputs, delay)
				if err != nil {
					return err
				}
				outcomes[i] = outcome{jobID: string(job.JobID), failed: failed}
				return nil
			})
		}

		if err := eg.Wait(); err != nil {
			cancelled = true
			break
		}

		for i, job := range layer {
			if outcomes[i].failed {
				failedJobs = append(failedJobs, outcomes[i].jobID)
				for _, a := range job.Produces {
					failedArtefacts[string(a)] = true
				}
			}
		}
		for i := range layer {
			if jobDependsOnFailure(layer[i], failedArtefacts) && !outcomes[i].failed {
				skippedJobs = append(skippedJobs, outcomes[i].jobID)
			}
		}

		if ctx.Err() != nil {
			cancelled = true
			break
		}
	}

	built, err := manifest.BuildFromEvents(ctx, manifest.BuildParams{
		MovieID:        movieID,
		TargetRevision: plan.Revision,
		BaseRevision:   base.Revision,
		Base:           base,
		Events:         r.Events,
	})
	if err != nil {
		return RunResult{}, err
	}

	status := StatusSucceeded
	if cancelled {
		status = StatusFailed
	} else if len(failedJobs) > 0 {
		status = StatusFailed
	}

	return RunResult{
		Status:      status,
		Revision:    plan.Revision,
		Manifest:    built,
		FailedJobs:  failedJobs,
		SkippedJobs: skippedJobs,
	}, nil
}

// jobDependsOnFailure reports whether any of job's declared inputs (direct
// or via a fan-in member) is a previously failed artefact.
func jobDependsOnFailure(job producergraph.JobDescriptor, failedArtefacts map[string]bool) bool {
	for _, in := range job.Inputs {
		if failedArtefacts[in] {
			return true
		}
	}
	for _, desc := range job.Context.FanIn {
		for _, m := range desc.Members {
			if failedArtefacts[m.ID] {
				return true
			}
		}
	}
	return false
}

func (r *Runner) recordSkipped(ctx context.Context, movieID string, job producergraph.JobDescriptor, rev revision.ID) error {
	inputsHash := hashing.HashInputs(job.Inputs)
	for _, a := range job.Produces {
		ev := eventlog.ArtefactEvent{
			ArtifactID: a,
			Revision:   rev,
			InputsHash: inputsHash,
			Status:     eventlog.StatusSkipped,
			ProducedBy: string(job.JobID),
			CreatedAt:  time.Now().UTC(),
		}
		if err := r.Events.AppendArtefact(ctx, movieID, ev); err != nil {
			return fmt.Errorf("runner: record skipped %s: %w", a, err)
		}
	}
	return nil
}

// runJob drives one job through its retry loop, returns whether it ended
// failed at its last attempt.
func (r *Runner) runJob(ctx context.Context, movieID string, job producergraph.JobDescriptor, layerIndex int, rev revision.ID, resolvedInputs map[string]any, delay time.Duration) (bool, error) {
	var last Response
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			r.Logger.Info(ctx, "retrying job", "job_id", string(job.JobID), "attempt", attempt)
			select {
			case <-ctx.Done():
				return true, nil
			case <-time.After(delay):
			}
		}

		resp, err := r.invokeOnce(ctx, movieID, job, layerIndex, attempt, rev, resolvedInputs)
		last, lastErr = resp, err

		if lastErr == nil && normalize(resp.Status) != eventlog.StatusFailed {
			if err := r.recordResponse(ctx, movieID, job, rev, resp); err != nil {
				return false, err
			}
			return false, nil
		}
		if attempt == maxAttempts {
			break
		}
		failedAttempt := resp
		if err != nil {
			failedAttempt = Response{
				Status:      StatusFailed,
				Diagnostics: &eventlog.Diagnostics{Name: "ProviderError", Message: err.Error()},
			}
		}
		if err := r.recordFailure(ctx, movieID, job, rev, failedAttempt); err != nil {
			return true, err
		}
	}

	if lastErr != nil {
		last = Response{
			Status: StatusFailed,
			Diagnostics: &eventlog.Diagnostics{
				Name:    "ProviderError",
				Message: lastErr.Error(),
			},
		}
	}
	if err := r.recordFailure(ctx, movieID, job, rev, last); err != nil {
		return true, err
	}
	return true, nil
}

func (r *Runner) invokeOnce(ctx context.Context, movieID string, job producergraph.JobDescriptor, layerIndex, attempt int, rev revision.ID, resolvedInputs map[string]any) (resp Response, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("runner: producer panic: %v", rec)
		}
	}()
	return r.Invoker.Invoke(ctx, Request{
		MovieID:        movieID,
		Job:            job,
		LayerIndex:     layerIndex,
		Attempt:        attempt,
		Revision:       rev,
		ResolvedInputs: resolvedInputs,
	})
}

// recordResponse appends one artefact event per reported artefact, and one
// per produced id the response omitted (defensively marked succeeded with
// no output, since the producer claimed overall success).
func (r *Runner) recordResponse(ctx context.Context, movieID string, job producergraph.JobDescriptor, rev revision.ID, resp Response) error {
	reported := make(map[string]bool, len(resp.Artefacts))
	inputsHash := hashing.HashInputs(job.Inputs)

	for _, pa := range resp.Artefacts {
		reported[pa.ArtifactID] = true
		output, err := r.materializeOutput(ctx, movieID, pa)
		if err != nil {
			return err
		}
		status := normalize(pa.Status)
		if pa.Status == "" {
			status = eventlog.StatusSucceeded
		}
		ev := eventlog.ArtefactEvent{
			ArtifactID:  canon.ArtifactID(pa.ArtifactID),
			Revision:    rev,
			InputsHash:  inputsHash,
			Output:      output,
			Status:      status,
			ProducedBy:  string(job.JobID),
			Diagnostics: pa.Diagnostics,
			CreatedAt:   time.Now().UTC(),
		}
		if err := r.Events.AppendArtefact(ctx, movieID, ev); err != nil {
			return fmt.Errorf("runner: record %s: %w", pa.ArtifactID, err)
		}
	}

	for _, declared := range job.Produces {
		if reported[string(declared)] {
			continue
		}
		ev := eventlog.ArtefactEvent{
			ArtifactID: declared,
			Revision:   rev,
			InputsHash: inputsHash,
			Status:     eventlog.StatusSucceeded,
			ProducedBy: string(job.JobID),
			CreatedAt:  time.Now().UTC(),
		}
		if err := r.Events.AppendArtefact(ctx, movieID, ev); err != nil {
			return fmt.Errorf("runner: record %s: %w", declared, err)
		}
	}
	return nil
}

// recordFailure appends a failed artefact event for every id the job
// declared it would produce, regardless of what (if anything) the failed
// attempt's response reported.
func (r *Runner) recordFailure(ctx context.Context, movieID string, job producergraph.JobDescriptor, rev revision.ID, resp Response) error {
	inputsHash := hashing.HashInputs(job.Inputs)
	diag := resp.Diagnostics
	if diag == nil && len(resp.Artefacts) > 0 {
		diag = resp.Artefacts[0].Diagnostics
	}
	for _, a := range job.Produces {
		ev := eventlog.ArtefactEvent{
			ArtifactID:  a,
			Revision:    rev,
			InputsHash:  inputsHash,
			Status:      eventlog.StatusFailed,
			ProducedBy:  string(job.JobID),
			Diagnostics: diag,
			CreatedAt:   time.Now().UTC(),
		}
		if err := r.Events.AppendArtefact(ctx, movieID, ev); err != nil {
			return fmt.Errorf("runner: record failed %s: %w", a, err)
		}
	}
	return nil
}

// materializeOutput writes blob payloads to the blob store and returns the
// recorded output reference; inline payloads pass through as-is.
func (r *Runner) materializeOutput(ctx context.Context, movieID string, pa ProducedArtefact) (eventlog.Output, error) {
	if pa.Blob == nil {
		raw, err := inlineToRaw(pa.Inline)
		if err != nil {
			return eventlog.Output{}, err
		}
		return eventlog.Output{Inline: raw}, nil
	}

	hash := hashing.HashBytes(pa.Blob.Bytes)
	ext := storage.ExtensionForMime(pa.Blob.MimeType)
	path := storage.New(movieID).BlobPath(hash, ext)
	if err := r.Blobs.WriteBytes(ctx, path, pa.Blob.Bytes); err != nil {
		return eventlog.Output{}, fmt.Errorf("runner: write blob %s: %w", hash, err)
	}
	return eventlog.Output{
		Blob: &eventlog.BlobRef{
			Hash:     hash,
			Size:     int64(len(pa.Blob.Bytes)),
			MimeType: pa.Blob.MimeType,
		},
	}, nil
}

func inlineToRaw(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	val, err := hashing.FromAny(v)
	if err != nil {
		return nil, fmt.Errorf("runner: inline payload: %w", err)
	}
	return []byte(hashing.Canonicalize(val)), nil
}

