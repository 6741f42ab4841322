package eventlog

import (
	"context"
	"iter"

	"github.com/keremk/tutopanda/internal/revision"
)

// Store is an append-only event log for a movie's input and artefact
// streams.
//
// Implementations must make Append durable before returning and must
// serialize concurrent appends to the same movie so that readers never
// observe a torn line. Stream methods return lazily-evaluated sequences:
// callers that break out of a range loop early do not pay to read the
// rest of the log.
type Store interface {
	// AppendInput appends one input event to movie's input log.
	AppendInput(ctx context.Context, movieID string, event InputEvent) error

	// AppendArtefact appends one artefact event to movie's artefact log.
	AppendArtefact(ctx context.Context, movieID string, event ArtefactEvent) error

	// StreamInputs yields every input event for movie, in append order,
	// with Revision strictly greater than after (pass revision.Zero for
	// the full log).
	StreamInputs(ctx context.Context, movieID string, after revision.ID) iter.Seq2[InputEvent, error]

	// StreamArtefacts yields every artefact event for movie, in append
	// order, with Revision strictly greater than after.
	StreamArtefacts(ctx context.Context, movieID string, after revision.ID) iter.Seq2[ArtefactEvent, error]
}
