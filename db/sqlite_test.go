package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedbacksense/ml"
)

func TestArtifactLoads(t *testing.T) {
	require.NoError(t, InitDB(filepath.Join(t.TempDir(), "feedback.db")))
	defer Close()

	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, RecordArtifactLoad(ml.LoadReport{
		PreprocessorPath: "/srv/preprocessor.json",
		ClassifierPath:   "/srv/classifier.json",
		Loaded:           false,
		Error:            "load artifact /srv/classifier.json: no such file",
		LoadedAt:         first,
	}))
	require.NoError(t, RecordArtifactLoad(ml.LoadReport{
		PreprocessorPath:   "/srv/preprocessor.json",
		ClassifierPath:     "/srv/classifier.json",
		PreprocessorSHA256: "aa",
		ClassifierSHA256:   "bb",
		ClassifierKind:     ml.KindLinearSVC,
		Loaded:             true,
		LoadedAt:           first.Add(time.Hour),
	}))

	reports, err := QueryArtifactLoads(10)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.True(t, reports[0].Loaded)
	assert.Equal(t, ml.KindLinearSVC, reports[0].ClassifierKind)
	assert.False(t, reports[1].Loaded)
	assert.Contains(t, reports[1].Error, "no such file")
	assert.True(t, reports[1].LoadedAt.Equal(first))

	reports, err = QueryArtifactLoads(1)
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}

func TestNotInitialized(t *testing.T) {
	require.NoError(t, Close())
	assert.False(t, Enabled())
	assert.ErrorIs(t, RecordArtifactLoad(ml.LoadReport{}), ErrNotInitialized)
	_, err := QueryArtifactLoads(1)
	assert.ErrorIs(t, err, ErrNotInitialized)
}
