package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/keremk/tutopanda/internal/blobstore"
	"github.com/keremk/tutopanda/internal/errkind"
	"github.com/keremk/tutopanda/internal/storage"
)

// Pointer is the atomically-updated "current revision" record.
type Pointer struct {
	Revision     string    `json:"revision"`
	ManifestPath string    `json:"manifest_path"`
	Hash         string    `json:"hash"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Service folds events into manifests and persists them via a blob store.
type Service struct {
	Blobs blobstore.Store
	Now   func() time.Time
}

// NewService returns a Service backed by blobs. Now defaults to time.Now.
func NewService(blobs blobstore.Store) *Service {
	return &Service{Blobs: blobs, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// LoadCurrent reads the movie's pointer and the manifest it references.
// Returns an errkind.ManifestNotFound error if no pointer has ever been
// written.
func (s *Service) LoadCurrent(ctx context.Context, movieID string) (Manifest, string, error) {
	sc := storage.New(movieID)
	ok, err := s.Blobs.FileExists(ctx, sc.CurrentPointer())
	if err != nil {
		return Manifest{}, "", fmt.Errorf("manifest: check pointer: %w", err)
	}
	if !ok {
		return Manifest{}, "", errkind.New(errkind.ManifestNotFound, "no current manifest for movie %q", movieID)
	}
	raw, err := s.Blobs.ReadToBytes(ctx, sc.CurrentPointer())
	if err != nil {
		return Manifest{}, "", fmt.Errorf("manifest: read pointer: %w", err)
	}
	var ptr Pointer
	if err := json.Unmarshal(raw, &ptr); err != nil {
		return Manifest{}, "", errkind.Wrap(errkind.EventLogCorrupt, err, "decode pointer")
	}
	mraw, err := s.Blobs.ReadToBytes(ctx, ptr.ManifestPath)
	if err != nil {
		return Manifest{}, "", fmt.Errorf("manifest: read manifest %s: %w", ptr.ManifestPath, err)
	}
	var m Manifest
	if err := json.Unmarshal(mraw, &m); err != nil {
		return Manifest{}, "", errkind.Wrap(errkind.EventLogCorrupt, err, "decode manifest %s", ptr.ManifestPath)
	}
	return m, ptr.Hash, nil
}

// WriteCurrent serializes m to manifests/<revision>.json and atomically
// rewrites the movie's pointer to reference it.
func (s *Service) WriteCurrent(ctx context.Context, movieID string, m Manifest) (path, hash string, err error) {
	sc := storage.New(movieID)
	h, err := Hash(m)
	if err != nil {
		return "", "", fmt.Errorf("manifest: hash: %w", err)
	}
	body, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("manifest: marshal: %w", err)
	}
	manifestPath := sc.ManifestPath(string(m.Revision))
	if err := s.Blobs.WriteBytes(ctx, manifestPath, body); err != nil {
		return "", "", fmt.Errorf("manifest: write manifest: %w", err)
	}
	ptr := Pointer{
		Revision:     string(m.Revision),
		ManifestPath: manifestPath,
		Hash:         h,
		UpdatedAt:    s.now(),
	}
	ptrBody, err := json.MarshalIndent(ptr, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("manifest: marshal pointer: %w", err)
	}
	if err := s.Blobs.WriteBytes(ctx, sc.CurrentPointer(), ptrBody); err != nil {
		return "", "", fmt.Errorf("manifest: write pointer: %w", err)
	}
	return manifestPath, h, nil
}
