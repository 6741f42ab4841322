// Package storage resolves the fixed per-movie path layout used by every
// other component: events, blobs, manifests, runs, and the pointer files.
// It is pure path arithmetic; it does not itself touch the blobstore.
package storage

import (
	"path"
	"strings"
)

// Context resolves logical paths for a single movie's data, relative to a
// blobstore root. It mirrors the fixed subpaths named in spec §4.C.
type Context struct {
	MovieID string
}

// New returns a Context scoped to movieID.
func New(movieID string) Context {
	return Context{MovieID: movieID}
}

func (c Context) join(segments ...string) string {
	parts := append([]string{c.MovieID}, segments...)
	return path.Join(parts...)
}

// InputsLog is the append-only input event stream for the movie.
func (c Context) InputsLog() string { return c.join("events", "inputs.log") }

// ArtefactsLog is the append-only artefact event stream for the movie.
func (c Context) ArtefactsLog() string { return c.join("events", "artefacts.log") }

// BlobPath resolves the storage path for a blob identified by hash, using
// the <first-two-hex>/<hash>[.ext] layout. ext should not include the dot;
// pass "" for an extensionless (legacy) path.
func (c Context) BlobPath(hash, ext string) string {
	prefix := hash
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	name := hash
	if ext != "" {
		name = hash + "." + ext
	}
	return c.join("blobs", prefix, name)
}

// BlobDir is the directory a blob for hash would live under.
func (c Context) BlobDir(hash string) string {
	prefix := hash
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	return c.join("blobs", prefix)
}

// ManifestPath resolves the path of the materialized manifest for revision.
func (c Context) ManifestPath(revision string) string {
	return c.join("manifests", revision+".json")
}

// PlanPath resolves the path of the persisted execution plan for revision.
func (c Context) PlanPath(revision string) string {
	return c.join("runs", revision+"-plan.json")
}

// CurrentPointer is the atomically-updated pointer to the latest manifest.
func (c Context) CurrentPointer() string { return c.join("current.json") }

// InputsYAML is the user-readable materialization of the latest resolved
// inputs, rewritten by the planner on every run.
func (c Context) InputsYAML() string { return c.join("inputs.yaml") }

// ParseBlobPath extracts the hash and extension from a blob path produced
// by BlobPath, tolerating legacy extensionless files.
func ParseBlobPath(blobPath string) (hash, ext string) {
	base := path.Base(blobPath)
	if idx := strings.LastIndex(base, "."); idx >= 0 {
		return base[:idx], base[idx+1:]
	}
	return base, ""
}

// mimeExtensions maps a blob's mime type to the filename extension used
// under blobs/, per the minimum extension map named in spec §6. Unknown
// mime types (or none) get no extension.
var mimeExtensions = map[string]string{
	"audio/mp3":        "mp3",
	"audio/mpeg":       "mp3",
	"audio/wav":        "wav",
	"video/mp4":        "mp4",
	"image/png":        "png",
	"image/jpeg":       "jpg",
	"text/plain":       "txt",
	"application/json": "json",
}

// ExtensionForMime resolves the blob filename extension for a mime type,
// or "" if unrecognized.
func ExtensionForMime(mime string) string {
	return mimeExtensions[mime]
}
