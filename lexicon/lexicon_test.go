package lexicon

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfIsConfigured(t *testing.T) {
	assert.False(t, Conf{}.IsConfigured())
	assert.True(t, Conf{Host: "db.internal", Name: "lexicon"}.IsConfigured())
}

func TestOpenUnconfiguredIsInert(t *testing.T) {
	s, err := Open(Conf{})
	require.NoError(t, err)
	assert.Nil(t, s.DB)

	known, err := s.IsKnown(context.Background(), "Name", "Alice")
	require.NoError(t, err)
	assert.False(t, known)

	values, err := s.FilterKnownValues(context.Background(), "Name", []string{"Alice", "Bob"})
	require.NoError(t, err)
	assert.Nil(t, values)

	assert.NoError(t, s.Close())
}

func TestNilSearcherIsInert(t *testing.T) {
	var s *Searcher
	known, err := s.IsKnown(context.Background(), "Name", "Alice")
	require.NoError(t, err)
	assert.False(t, known)
	assert.NoError(t, s.Close())
}
