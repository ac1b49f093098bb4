package fieldstats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabelCounterIncAndTotal(t *testing.T) {
	c := NewLabelCounter()
	c.IncCount("0", "Name")
	c.IncCount("0", "Name")
	c.IncCount("0", "Phone")

	assert.Equal(t, 2, c.Count("0", "Name"))
	assert.Equal(t, 1, c.Count("0", "Phone"))
	assert.Equal(t, 3, c.Total("0"))
	assert.Equal(t, 0, c.Count("1", "Name"))
}

func TestAccumulatorEvenlySpreadIsMoreConsistent(t *testing.T) {
	evenAcc := NewAccumulator(10)
	for doc := 0; doc < 10; doc++ {
		evenAcc.Observe(doc, "0", "Name")
	}
	evenStats := evenAcc.Finalize()

	clusteredAcc := NewAccumulator(10)
	for doc := 0; doc < 3; doc++ {
		clusteredAcc.Observe(doc, "0", "Name")
	}
	clusteredStats := clusteredAcc.Finalize()

	assert.Greater(t, evenStats.PositionConsistency["0"], clusteredStats.PositionConsistency["0"])
}

func TestAccumulatorOptionalPenaltyPunishesRareFields(t *testing.T) {
	rareAcc := NewAccumulator(100)
	rareAcc.Observe(0, "3", "ExtID")
	rareStats := rareAcc.Finalize()

	commonAcc := NewAccumulator(10)
	for doc := 0; doc < 10; doc++ {
		commonAcc.Observe(doc, "3", "ExtID")
	}
	commonStats := commonAcc.Finalize()

	assert.Greater(t, rareStats.OptionalPenalty["3"], commonStats.OptionalPenalty["3"])
	assert.Equal(t, 0.0, commonStats.OptionalPenalty["3"])
}

func TestFinalizeEmptyAccumulator(t *testing.T) {
	acc := NewAccumulator(5)
	stats := acc.Finalize()
	assert.Empty(t, stats.PositionConsistency)
	assert.Empty(t, stats.OptionalPenalty)
}
