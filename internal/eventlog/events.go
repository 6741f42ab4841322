// Package eventlog implements the append-only, per-movie input and artefact
// event streams that the manifest service folds into point-in-time
// manifests. Appends are atomic per line and safe for concurrent callers;
// streams are lazy, finite, and restartable.
package eventlog

import (
	"encoding/json"
	"time"

	"github.com/keremk/tutopanda/internal/canon"
	"github.com/keremk/tutopanda/internal/hashing"
	"github.com/keremk/tutopanda/internal/revision"
)

// EditedBy identifies who produced an input edit.
type EditedBy string

const (
	EditedByUser   EditedBy = "user"
	EditedBySystem EditedBy = "system"
)

// ArtefactStatus is the outcome recorded for a produced artefact.
type ArtefactStatus string

const (
	StatusSucceeded ArtefactStatus = "succeeded"
	StatusFailed    ArtefactStatus = "failed"
	StatusSkipped   ArtefactStatus = "skipped"
)

// InputEvent is one recorded change to a user-editable input, appended once
// per changed input per planner run.
type InputEvent struct {
	ID        canon.InputID   `json:"id"`
	Revision  revision.ID     `json:"revision"`
	Hash      string          `json:"hash"`
	Payload   json.RawMessage `json:"payload"`
	EditedBy  EditedBy        `json:"edited_by"`
	CreatedAt time.Time       `json:"created_at"`
}

// BlobRef identifies a binary artefact payload already written to the blob
// store.
type BlobRef struct {
	Hash     string `json:"hash"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

// Output carries exactly one of Blob or Inline, matching the artefact
// event's "output: blob|inline" union.
type Output struct {
	Blob   *BlobRef        `json:"blob,omitempty"`
	Inline json.RawMessage `json:"inline,omitempty"`
}

// Diagnostics captures structured failure/retry information attached to an
// artefact event.
type Diagnostics struct {
	Name    string `json:"name,omitempty"`
	Message string `json:"message,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

// ArtefactEvent is one recorded production attempt for an artefact
// instance, appended by the runner (or injected directly as a workspace
// edit for pending artefact drafts).
type ArtefactEvent struct {
	ArtifactID  canon.ArtifactID `json:"artifact_id"`
	Revision    revision.ID      `json:"revision"`
	InputsHash  string           `json:"inputs_hash"`
	Output      Output           `json:"output"`
	Status      ArtefactStatus   `json:"status"`
	ProducedBy  string           `json:"produced_by"`
	Diagnostics *Diagnostics     `json:"diagnostics,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// HashInputPayload computes the hash recorded on an InputEvent for the
// given decoded payload value.
func HashInputPayload(v hashing.Value) string {
	return hashing.HashPayload(v).Hash
}

// HashArtefactOutput computes a stable hash for an artefact's output,
// independent of JSON field permutation: inline payloads are hashed via
// canonical JSON, blob payloads via their raw bytes (computed by the
// caller before constructing BlobRef, see internal/runner).
func HashArtefactOutput(v hashing.Value) string {
	return hashing.HashPayload(v).Hash
}
