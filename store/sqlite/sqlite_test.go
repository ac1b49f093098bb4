package sqlite

import (
	"database/sql"
	"testing"

	"github.com/czcorpus/jointextract/joint"
	"github.com/czcorpus/jointextract/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createDatabase(t *testing.T) *sql.DB {
	database, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	return database
}

func TestCreateSchema(t *testing.T) {
	database := createDatabase(t)
	require.NoError(t, createSchema(database))

	res, err := database.Query("SELECT name FROM sqlite_master WHERE type = 'table'")
	require.NoError(t, err)
	defer res.Close()
	names := make(map[string]bool)
	for res.Next() {
		var name string
		require.NoError(t, res.Scan(&name))
		names[name] = true
	}
	for _, want := range []string{"sessions", "record_spans", "sub_entity_spans", "field_spans", "feedback_entries"} {
		assert.Contains(t, names, want)
	}
}

func TestDropExisting(t *testing.T) {
	database := createDatabase(t)
	require.NoError(t, createSchema(database))
	require.NoError(t, dropExisting(database))

	res, err := database.Query("SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'")
	require.NoError(t, err)
	defer res.Close()
	assert.False(t, res.Next())
}

func TestWriteSessionPersistsTree(t *testing.T) {
	w := &Writer{Path: ":memory:"}
	require.NoError(t, w.Initialize(false))
	defer w.Close()

	session := store.Session{
		DocHash:       "abc123",
		SchemaVersion: "v1",
		StartedAt:     "2026-07-30T00:00:00Z",
		Records: []joint.RecordSpan{
			{
				StartLine: 0, EndLine: 0, FileStart: 0, FileEnd: 18,
				SubEntities: []joint.SubEntitySpan{
					{
						StartLine: 0, EndLine: 0, FileStart: 0, FileEnd: 18, EntityType: "Primary",
						Fields: []joint.FieldSpan{
							{LineIndex: 0, Start: 0, End: 5, FileStart: 0, FileEnd: 5, FieldType: "Name", Confidence: 0.9},
						},
					},
				},
			},
		},
		Applied: joint.Feedback{Entries: []joint.FeedbackEntry{
			joint.NewFieldFeedback(joint.FieldAdd, 0, 0, 5, "Name"),
		}},
	}

	require.NoError(t, w.WriteSession(session))
	require.NoError(t, w.Commit())

	var count int
	require.NoError(t, w.database.QueryRow("SELECT COUNT(*) FROM field_spans").Scan(&count))
	assert.Equal(t, 1, count)

	require.NoError(t, w.database.QueryRow("SELECT COUNT(*) FROM feedback_entries").Scan(&count))
	assert.Equal(t, 1, count)
}
