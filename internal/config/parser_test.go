package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	c := Default()
	b, err := Marshal(c)
	require.NoError(t, err)

	got, err := Parse(b)
	require.NoError(t, err)
	assert.Equal(t, c, got)

	b2, err := Marshal(got)
	require.NoError(t, err)
	got2, err := Parse(b2)
	require.NoError(t, err)
	assert.Equal(t, got, got2)
}

func TestParseRejectsOutOfRangeBPM(t *testing.T) {
	c := Default()
	c.Music.BPM = 500
	b, err := json.Marshal(c)
	require.NoError(t, err)

	_, err = Parse(b)
	assert.Error(t, err)
}

func TestDeepMergeOverlaysSection(t *testing.T) {
	base := Default()
	patch := []byte(`{"music":{"density":0.9}}`)

	merged, err := DeepMerge(base, patch)
	require.NoError(t, err)

	assert.Equal(t, 0.9, merged.Music.Density)
	// Untouched fields in the same section survive the merge.
	assert.Equal(t, base.Music.BPM, merged.Music.BPM)
	assert.Equal(t, base.Music.Preset, merged.Music.Preset)
	// Untouched sections are unchanged.
	assert.Equal(t, base.Audio, merged.Audio)
}

func TestDeepMergeRejectsMalformedPatch(t *testing.T) {
	_, err := DeepMerge(Default(), []byte(`not json`))
	assert.Error(t, err)
}

func TestDeepMergeRejectsOutOfBoundsResult(t *testing.T) {
	_, err := DeepMerge(Default(), []byte(`{"music":{"bpm":0}}`))
	assert.Error(t, err)
}

func TestDeepMergeFallsBackUnknownScale(t *testing.T) {
	merged, err := DeepMerge(Default(), []byte(`{"music":{"scale":"whatever"}}`))
	require.NoError(t, err)
	assert.Equal(t, "pentatonic_minor", merged.Music.Scale)
}
