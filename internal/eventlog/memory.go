package eventlog

import (
	"context"
	"iter"
	"sync"

	"github.com/keremk/tutopanda/internal/revision"
)

// MemoryStore is an in-memory Store, used by tests.
type MemoryStore struct {
	mu        sync.Mutex
	inputs    map[string][]InputEvent
	artefacts map[string][]ArtefactEvent
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		inputs:    make(map[string][]InputEvent),
		artefacts: make(map[string][]ArtefactEvent),
	}
}

func (s *MemoryStore) AppendInput(_ context.Context, movieID string, event InputEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs[movieID] = append(s.inputs[movieID], event)
	return nil
}

func (s *MemoryStore) AppendArtefact(_ context.Context, movieID string, event ArtefactEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artefacts[movieID] = append(s.artefacts[movieID], event)
	return nil
}

func (s *MemoryStore) StreamInputs(ctx context.Context, movieID string, after revision.ID) iter.Seq2[InputEvent, error] {
	return func(yield func(InputEvent, error) bool) {
		s.mu.Lock()
		snapshot := append([]InputEvent(nil), s.inputs[movieID]...)
		s.mu.Unlock()
		for _, e := range snapshot {
			if ctx.Err() != nil {
				yield(InputEvent{}, ctx.Err())
				return
			}
			if !after.Less(e.Revision) {
				continue
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

func (s *MemoryStore) StreamArtefacts(ctx context.Context, movieID string, after revision.ID) iter.Seq2[ArtefactEvent, error] {
	return func(yield func(ArtefactEvent, error) bool) {
		s.mu.Lock()
		snapshot := append([]ArtefactEvent(nil), s.artefacts[movieID]...)
		s.mu.Unlock()
		for _, e := range snapshot {
			if ctx.Err() != nil {
				yield(ArtefactEvent{}, ctx.Err())
				return
			}
			if !after.Less(e.Revision) {
				continue
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}
