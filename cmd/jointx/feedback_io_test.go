package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/czcorpus/jointextract/joint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFeedbackEmptyPath(t *testing.T) {
	fb, err := loadFeedback("")
	require.NoError(t, err)
	assert.Empty(t, fb.Entries)
}

func TestLoadFeedbackParsesAllKinds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feedback.json")
	raw := `{"entries": [
		{"kind": "record", "startLine": 0, "endLine": 2},
		{"kind": "sub_entity", "fileStart": 0, "fileEnd": 40, "entityType": "Primary"},
		{"kind": "field", "action": "add", "line": 0, "start": 0, "end": 5, "fieldType": "Name"},
		{"kind": "field", "action": "remove", "line": 1, "start": 6, "end": 18, "fieldType": "Phone"}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0644))

	fb, err := loadFeedback(path)
	require.NoError(t, err)
	require.Len(t, fb.Entries, 4)
	assert.Equal(t, joint.FeedbackRecord, fb.Entries[0].Kind)
	assert.Equal(t, joint.FeedbackSubEntity, fb.Entries[1].Kind)
	assert.Equal(t, joint.FieldAdd, fb.Entries[2].Action)
	assert.Equal(t, joint.FieldRemove, fb.Entries[3].Action)
	assert.Equal(t, "Phone", fb.Entries[3].FieldType)
}

func TestLoadFeedbackRejectsUnknownKind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feedback.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"entries": [{"kind": "bogus"}]}`), 0644))

	_, err := loadFeedback(path)
	assert.Error(t, err)
}

func TestLoadFeedbackRejectsUnknownAction(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feedback.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"entries": [{"kind": "field", "action": "bogus"}]}`), 0644))

	_, err := loadFeedback(path)
	assert.Error(t, err)
}

func TestLoadFieldStatsEmptyPath(t *testing.T) {
	stats, err := loadFieldStats("")
	require.NoError(t, err)
	assert.Nil(t, stats.PositionConsistency)
}

func TestLoadFieldStatsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stats.json")
	raw := `{"PositionConsistency": {"0": 0.8}, "OptionalPenalty": {"0": 0.1}}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0644))

	stats, err := loadFieldStats(path)
	require.NoError(t, err)
	assert.Equal(t, 0.8, stats.PositionConsistency["0"])
	assert.Equal(t, 0.1, stats.OptionalPenalty["0"])
}
