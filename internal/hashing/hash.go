package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
)

// Digest is the result of hashing a Value: the hex-encoded SHA-256 of its
// canonical serialization, plus the canonical form itself so callers can
// persist or compare it without re-deriving it.
type Digest struct {
	Hash      string
	Canonical string
}

// HashPayload implements hash_payload: it canonicalizes v and returns the
// hex-encoded SHA-256 digest of the canonical bytes.
func HashPayload(v Value) Digest {
	canonical := Canonicalize(v)
	sum := sha256.Sum256([]byte(canonical))
	return Digest{Hash: hex.EncodeToString(sum[:]), Canonical: canonical}
}

// HashBytes hashes raw bytes directly (used for binary artefact payloads,
// where there is no JSON structure to canonicalize).
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// HashInputs implements hash_inputs: it deduplicates and sorts the given id
// strings, joins them with "\n", and hashes the result. The output is
// identical for any permutation of the same id set.
func HashInputs(ids []string) string {
	seen := make(map[string]struct{}, len(ids))
	uniq := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	sort.Strings(uniq)
	sum := sha256.Sum256([]byte(strings.Join(uniq, "\n")))
	return hex.EncodeToString(sum[:])
}

// stringMarshal delegates to encoding/json for UTF-8-safe string escaping;
// it is the only place this package depends on encoding/json, and only for
// quoting semantics, not for structural decoding.
func stringMarshal(s string) ([]byte, error) {
	return json.Marshal(s)
}
