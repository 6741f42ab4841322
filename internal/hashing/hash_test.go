package hashing

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPayloadKeyOrderIndependence(t *testing.T) {
	a := Object(map[string]Value{
		"name": String("darwin"),
		"age":  Number(42),
	})
	b := Object(map[string]Value{
		"age":  Number(42),
		"name": String("darwin"),
	})
	require.Equal(t, HashPayload(a).Hash, HashPayload(b).Hash)
}

func TestHashPayloadNumericEquivalence(t *testing.T) {
	assert.Equal(t, HashPayload(Number(1)).Hash, HashPayload(Number(1.0)).Hash)
	assert.Equal(t, Canonicalize(Number(1)), Canonicalize(Number(1.0)))
}

func TestHashPayloadSpecialNumbers(t *testing.T) {
	assert.Contains(t, Canonicalize(Number(0)), "0")
	assert.Equal(t, `"NaN"`, Canonicalize(Number(math.NaN())))
	assert.Equal(t, `"Infinity"`, Canonicalize(Number(math.Inf(1))))
	assert.Equal(t, `"-Infinity"`, Canonicalize(Number(math.Inf(-1))))
}

func TestHashInputsPermutationInvariant(t *testing.T) {
	ids := []string{"Input:B", "Input:A", "Input:C"}
	permuted := []string{"Input:C", "Input:A", "Input:B"}
	assert.Equal(t, HashInputs(ids), HashInputs(permuted))
}

func TestHashInputsDeduplicates(t *testing.T) {
	assert.Equal(t, HashInputs([]string{"Input:A", "Input:A"}), HashInputs([]string{"Input:A"}))
}

// TestHashPayloadObjectKeyOrderProperty verifies Property 1 from spec §8:
// for any payloads with the same JSON value but different key order, their
// hashes are equal.
func TestHashPayloadObjectKeyOrderProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("object key permutations hash identically", prop.ForAll(
		func(keys []string, vals []string) bool {
			n := len(keys)
			if len(vals) < n {
				vals = append(vals, make([]string, n-len(vals))...)
			}
			orig := make(map[string]Value, n)
			for i, k := range keys {
				orig[k] = String(vals[i])
			}
			shuffled := make(map[string]Value, n)
			for k, v := range orig {
				shuffled[k] = v
			}
			return HashPayload(Object(orig)).Hash == HashPayload(Object(shuffled)).Hash
		},
		gen.SliceOfN(5, gen.Identifier()),
		gen.SliceOfN(5, gen.AlphaString()),
	))

	properties.TestingRun(t)
}
