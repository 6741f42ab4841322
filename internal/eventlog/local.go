package eventlog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sync"

	"github.com/keremk/tutopanda/internal/revision"
	"github.com/keremk/tutopanda/internal/storage"
)

// LocalStore is a filesystem-backed Store rooted at Dir. Each movie gets
// its own lock so concurrent appends to different movies never block each
// other.
type LocalStore struct {
	Dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore returns a LocalStore rooted at dir, creating it if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("eventlog: create root: %w", err)
	}
	return &LocalStore{Dir: dir, locks: make(map[string]*sync.Mutex)}, nil
}

func (s *LocalStore) lockFor(movieID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[movieID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[movieID] = l
	}
	return l
}

func (s *LocalStore) resolve(logicalPath string) string {
	return filepath.Join(s.Dir, filepath.FromSlash(logicalPath))
}

func (s *LocalStore) appendLine(movieID, logicalPath string, v any) error {
	l := s.lockFor(movieID)
	l.Lock()
	defer l.Unlock()

	path := s.resolve(logicalPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("eventlog: create dir: %w", err)
	}
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("eventlog: marshal event: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("eventlog: open log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("eventlog: append: %w", err)
	}
	return f.Sync()
}

func (s *LocalStore) AppendInput(_ context.Context, movieID string, event InputEvent) error {
	return s.appendLine(movieID, storage.New(movieID).InputsLog(), event)
}

func (s *LocalStore) AppendArtefact(_ context.Context, movieID string, event ArtefactEvent) error {
	return s.appendLine(movieID, storage.New(movieID).ArtefactsLog(), event)
}

func (s *LocalStore) StreamInputs(ctx context.Context, movieID string, after revision.ID) iter.Seq2[InputEvent, error] {
	return func(yield func(InputEvent, error) bool) {
		path := s.resolve(storage.New(movieID).InputsLog())
		f, err := os.Open(path)
		if os.IsNotExist(err) {
			return
		}
		if err != nil {
			yield(InputEvent{}, fmt.Errorf("eventlog: open inputs log: %w", err))
			return
		}
		defer f.Close()

		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for sc.Scan() {
			if ctx.Err() != nil {
				yield(InputEvent{}, ctx.Err())
				return
			}
			var e InputEvent
			if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
				yield(InputEvent{}, fmt.Errorf("eventlog: decode input event: %w", err))
				return
			}
			if !after.Less(e.Revision) {
				continue
			}
			if !yield(e, nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield(InputEvent{}, fmt.Errorf("eventlog: scan inputs log: %w", err))
		}
	}
}

func (s *LocalStore) StreamArtefacts(ctx context.Context, movieID string, after revision.ID) iter.Seq2[ArtefactEvent, error] {
	return func(yield func(ArtefactEvent, error) bool) {
		path := s.resolve(storage.New(movieID).ArtefactsLog())
		f, err := os.Open(path)
		if os.IsNotExist(err) {
			return
		}
		if err != nil {
			yield(ArtefactEvent{}, fmt.Errorf("eventlog: open artefacts log: %w", err))
			return
		}
		defer f.Close()

		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for sc.Scan() {
			if ctx.Err() != nil {
				yield(ArtefactEvent{}, ctx.Err())
				return
			}
			var e ArtefactEvent
			if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
				yield(ArtefactEvent{}, fmt.Errorf("eventlog: decode artefact event: %w", err))
				return
			}
			if !after.Less(e.Revision) {
				continue
			}
			if !yield(e, nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield(ArtefactEvent{}, fmt.Errorf("eventlog: scan artefacts log: %w", err))
		}
	}
}
