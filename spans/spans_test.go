package spans

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSplitsOnWhitespace(t *testing.T) {
	line := "Alice\t410-111-1111"
	got := Generate(line, DefaultOptions())
	assert.Len(t, got, 3)
	assert.Equal(t, "Alice", got[0].Text(line))
	assert.True(t, got[1].IsWhitespaceOnly(line))
	assert.Equal(t, "410-111-1111", got[2].Text(line))
}

func TestGenerateEmptyLine(t *testing.T) {
	assert.Nil(t, Generate("", DefaultOptions()))
}

func TestGenerateCoversWholeLine(t *testing.T) {
	line := "a b  c"
	got := Generate(line, DefaultOptions())
	assert.Equal(t, 0, got[0].Start)
	assert.Equal(t, len(line), got[len(got)-1].End)
	for i := 1; i < len(got); i++ {
		assert.Equal(t, got[i-1].End, got[i].Start)
	}
}

func TestGenerateMinTokenLengthFoldsShortRuns(t *testing.T) {
	opts := DefaultOptions()
	opts.MinTokenLength = 3
	line := "a bb ccc"
	got := Generate(line, opts)
	assert.Equal(t, 0, got[0].Start)
	assert.Equal(t, len(line), got[len(got)-1].End)
}

func TestGenerateMaxPartsPerLineMergesTail(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxPartsPerLine = 2
	line := "Alice\t410-111-1111\talice@example.com"
	got := Generate(line, opts)
	assert.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Start)
	assert.Equal(t, len(line), got[len(got)-1].End)
}

func TestGenerateAllAppliesPerLine(t *testing.T) {
	got := GenerateAll([]string{"a b", ""}, DefaultOptions())
	assert.Len(t, got, 2)
	assert.NotEmpty(t, got[0])
	assert.Nil(t, got[1])
}
