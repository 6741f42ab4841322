// Package manifest folds a movie's event log into point-in-time
// manifests and maintains the atomically-updated pointer to the current
// one.
package manifest

import (
	"encoding/json"
	"time"

	"github.com/keremk/tutopanda/internal/canon"
	"github.com/keremk/tutopanda/internal/eventlog"
	"github.com/keremk/tutopanda/internal/hashing"
	"github.com/keremk/tutopanda/internal/revision"
)

// InputEntry is the manifest's materialized view of one input.
type InputEntry struct {
	Hash          string    `json:"hash"`
	PayloadDigest string    `json:"payload_digest"`
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     time.Time `json:"created_at"`
}

// ArtefactEntry is the manifest's materialized view of one artefact,
// always the latest succeeded event at or before the manifest's revision
// (or, absent a success, the latest recorded attempt).
type ArtefactEntry struct {
	Hash       string              `json:"hash"`
	Output     eventlog.Output     `json:"output"`
	ProducedBy string              `json:"produced_by"`
	Status     eventlog.ArtefactStatus `json:"status"`
	CreatedAt  time.Time           `json:"created_at"`
}

// Manifest is the materialized snapshot of every input and artefact known
// as of Revision.
type Manifest struct {
	Revision     revision.ID                       `json:"revision"`
	BaseRevision revision.ID                       `json:"base_revision"`
	CreatedAt    time.Time                          `json:"created_at"`
	Inputs       map[canon.InputID]InputEntry       `json:"inputs"`
	Artefacts    map[canon.ArtifactID]ArtefactEntry `json:"artefacts"`
	Timeline     json.RawMessage                    `json:"timeline,omitempty"`
}

// Empty returns a manifest with no committed revision and no entries, the
// starting point for the very first build.
func Empty() Manifest {
	return Manifest{
		Revision:     revision.Zero,
		BaseRevision: revision.Zero,
		Inputs:       make(map[canon.InputID]InputEntry),
		Artefacts:    make(map[canon.ArtifactID]ArtefactEntry),
	}
}

// Hash computes the manifest's content hash, as recorded on its pointer.
func Hash(m Manifest) (string, error) {
	v, err := toValue(m)
	if err != nil {
		return "", err
	}
	return hashing.HashPayload(v).Hash, nil
}

func toValue(m Manifest) (hashing.Value, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return hashing.Value{}, err
	}
	var decoded any
	if err := json.Unmarshal(b, &decoded); err != nil {
		return hashing.Value{}, err
	}
	return hashing.FromAny(decoded)
}
