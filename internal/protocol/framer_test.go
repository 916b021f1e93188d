package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() []byte {
	return []byte{STX, TypeVolleyball, '3', '0', '0', '0', '0', '0', '0', '0', '0', CR}
}

func TestFramerEmitsOneCompletePacket(t *testing.T) {
	f := NewFramer()
	packets := f.Feed(sample())
	require.Len(t, packets, 1)
	assert.Equal(t, sample(), packets[0])
}

func TestFramerSplitAcrossFeedsMatchesSingleFeed(t *testing.T) {
	whole := sample()

	f1 := NewFramer()
	var split [][]byte
	for i := range whole {
		split = append(split, f1.Feed(whole[i:i+1])...)
	}

	f2 := NewFramer()
	joined := f2.Feed(whole)

	require.Len(t, split, 1)
	require.Len(t, joined, 1)
	assert.Equal(t, joined[0], split[0])
}

func TestFramerResyncsAfterGarbage(t *testing.T) {
	f := NewFramer()
	garbage := []byte{0xFF, 0x00, STX, 'x', 0x41}
	data := append(garbage, sample()...)

	packets := f.Feed(data)
	require.Len(t, packets, 1)
	assert.Equal(t, sample(), packets[0])
}

func TestFramerRejectsUnknownType(t *testing.T) {
	f := NewFramer()
	packets := f.Feed([]byte{STX, 0x01, '0', '0', CR})
	assert.Empty(t, packets)
}

func TestFramerHandlesMultiplePacketsInOneFeed(t *testing.T) {
	f := NewFramer()
	data := append(append([]byte{}, sample()...), sample()...)
	packets := f.Feed(data)
	require.Len(t, packets, 2)
	assert.Equal(t, sample(), packets[0])
	assert.Equal(t, sample(), packets[1])
}
