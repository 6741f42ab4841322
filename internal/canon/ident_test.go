package canon_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keremk/tutopanda/internal/canon"
)

func TestNewInputID(t *testing.T) {
	assert.Equal(t, canon.InputID("Input:InquiryPrompt"), canon.NewInputID(nil, "InquiryPrompt"))
	assert.Equal(t, canon.InputID("Input:Child.ImagesPer"), canon.NewInputID([]string{"Child"}, "ImagesPer"))
}

func TestNewArtifactIDWithIndices(t *testing.T) {
	id := canon.NewArtifactID([]string{"ScriptProducer"}, "NarrationScript", []canon.Index{{Symbol: "segment", N: 0}})
	assert.Equal(t, canon.ArtifactID("Artifact:ScriptProducer.NarrationScript[segment=0]"), id)
}

func TestNewProducerIDMultiIndex(t *testing.T) {
	id := canon.NewProducerID([]string{"ImageProducer"}, "Shot", []canon.Index{{Symbol: "segment", N: 1}, {Symbol: "image", N: 2}})
	assert.Equal(t, canon.ProducerID("Producer:ImageProducer.Shot[segment=1][image=2]"), id)
}

func TestArtifactIDBaseStripsIndices(t *testing.T) {
	id := canon.ArtifactID("Artifact:ScriptProducer.NarrationScript[segment=0]")
	assert.Equal(t, canon.ArtifactID("Artifact:ScriptProducer.NarrationScript"), id.Base())

	bare := canon.ArtifactID("Artifact:Bare")
	assert.Equal(t, bare, bare.Base())
}

func TestIndicesRoundTrip(t *testing.T) {
	id := canon.NewArtifactID([]string{"ImageProducer"}, "Shot", []canon.Index{{Symbol: "segment", N: 1}, {Symbol: "image", N: 2}})
	idx, err := canon.Indices(string(id))
	require.NoError(t, err)
	assert.Equal(t, []canon.Index{{Symbol: "segment", N: 1}, {Symbol: "image", N: 2}}, idx)
}

func TestIndicesNoSuffix(t *testing.T) {
	idx, err := canon.Indices("Artifact:Bare")
	require.NoError(t, err)
	assert.Nil(t, idx)
}

func TestIndicesMalformed(t *testing.T) {
	cases := []string{
		"Artifact:X[segment0]",
		"Artifact:X[segment=",
		"Artifact:X[segment=abc]",
	}
	for _, c := range cases {
		_, err := canon.Indices(c)
		assert.Error(t, err, c)
	}
}

func TestSortStrings(t *testing.T) {
	in := []string{"c", "a", "b"}
	assert.Equal(t, []string{"a", "b", "c"}, canon.SortStrings(in))
}
