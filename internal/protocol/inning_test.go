package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scorehub/ingest-hub/pkg/schema"
)

func outsSnap(outs string) schema.Snapshot {
	return schema.Snapshot{"outs": outs}
}

func TestInningColdStartFirstPacket(t *testing.T) {
	tr := NewInningTracker()
	half, inning := tr.Update(outsSnap("0"), "t")
	assert.Equal(t, Top, half)
	assert.Equal(t, 1, inning)
	assert.Equal(t, "TOP 1st", Display(half, inning))
}

func TestInningSequenceZeroOneThreePersistsMidFirst(t *testing.T) {
	tr := NewInningTracker()
	tr.Update(outsSnap("0"), "t")
	tr.Update(outsSnap("1"), "t")
	half, inning := tr.Update(outsSnap("3"), "t")
	assert.Equal(t, Mid, half)
	assert.Equal(t, 1, inning)

	// An additional "3" packet must not move the state further.
	half, inning = tr.Update(outsSnap("3"), "t")
	assert.Equal(t, Mid, half)
	assert.Equal(t, 1, inning)
}

func TestInningSequenceZeroThreeZeroYieldsBotFirst(t *testing.T) {
	tr := NewInningTracker()
	tr.Update(outsSnap("0"), "t")
	tr.Update(outsSnap("3"), "t")
	half, inning := tr.Update(outsSnap("0"), "t")
	assert.Equal(t, Bot, half)
	assert.Equal(t, 1, inning)
}

func TestInningSequenceThroughEndFirst(t *testing.T) {
	tr := NewInningTracker()
	tr.Update(outsSnap("0"), "t")
	tr.Update(outsSnap("3"), "t")
	tr.Update(outsSnap("0"), "t")
	half, inning := tr.Update(outsSnap("3"), "t")
	assert.Equal(t, End, half)
	assert.Equal(t, 1, inning)
}

func TestInningSequenceRollsToTopSecond(t *testing.T) {
	tr := NewInningTracker()
	var half Half
	var inning int
	for _, o := range []string{"0", "3", "0", "3", "0"} {
		half, inning = tr.Update(outsSnap(o), "t")
	}
	assert.Equal(t, Top, half)
	assert.Equal(t, 2, inning)
}

func TestInningFullCycleThroughInningFour(t *testing.T) {
	tr := NewInningTracker()
	var half Half
	var inning int
	for i := 0; i < 3; i++ {
		for _, o := range []string{"0", "3", "0", "3"} {
			half, inning = tr.Update(outsSnap(o), "t")
		}
	}
	half, inning = tr.Update(outsSnap("0"), "t")
	assert.Equal(t, Top, half)
	assert.Equal(t, 4, inning)
}

func TestInningNonNumericOutsIsIgnored(t *testing.T) {
	tr := NewInningTracker()
	tr.Update(outsSnap("0"), "t")
	tr.Update(outsSnap("3"), "t")
	half, inning := tr.Update(outsSnap(" "), "t")
	assert.Equal(t, Mid, half)
	assert.Equal(t, 1, inning)
}

func TestInningColdStartBootstrapAwayAheadOfHome(t *testing.T) {
	tr := NewInningTracker()
	snap := schema.Snapshot{
		"outs":         "1",
		"away_innings": []string{"2", "0", " "},
		"home_innings": []string{"1", " "},
	}
	half, inning := tr.Update(snap, "t")
	assert.Equal(t, Bot, half)
	assert.Equal(t, 2, inning)
}

func TestInningColdStartBootstrapPromotesMidFirst(t *testing.T) {
	tr := NewInningTracker()
	snap := schema.Snapshot{
		"outs":         "3",
		"away_innings": []string{"3", " "},
		"home_innings": []string{" "},
	}
	half, inning := tr.Update(snap, "t")
	assert.Equal(t, Mid, half)
	assert.Equal(t, 1, inning)
}

func TestOrdinalFormatting(t *testing.T) {
	assert.Equal(t, "1st", Ordinal(1))
	assert.Equal(t, "2nd", Ordinal(2))
	assert.Equal(t, "3rd", Ordinal(3))
	assert.Equal(t, "11th", Ordinal(11))
	assert.Equal(t, "22nd", Ordinal(22))
}
