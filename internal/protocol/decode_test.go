package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scorehub/ingest-hub/pkg/schema"
)

// fill builds a packet of length n filled with '0' (0x30), a harmless value
// for every field decoder used in these tests, so only the bytes a scenario
// cares about need to be overridden.
func fill(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = '0'
	}
	return p
}

func TestIdentifyBasketballScenario(t *testing.T) {
	p := fill(LenBasketball)
	p[0] = STX
	p[1] = TypeBasketballBaseballSoftball
	p[6] = '2'
	p[7], p[8] = '4', '5'
	p[9], p[10] = '3', '8'
	p[16] = 0x31 // hm_values

	sport, snap := Identify(p)
	require.Equal(t, "Basketball", string(sport))
	assert.Equal(t, "2", snap["period"])
	assert.Equal(t, "45", snap["home_score"])
	assert.Equal(t, "38", snap["visitor_score"])
	assert.Equal(t, "home", snap["possession"])
}

func TestIdentifyFootballScenario(t *testing.T) {
	p := fill(22)
	p[0] = STX
	p[1] = TypeFootball
	p[6] = '3'
	p[13] = 0xB8 // hm_poss

	sport, snap := Identify(p)
	require.Equal(t, "Football", string(sport))
	assert.Equal(t, "3", snap["quarter"])
	assert.Equal(t, "home", snap["possession"])
}

func TestIdentifyVolleyballScenario(t *testing.T) {
	p := fill(40)
	p[0] = STX
	p[1] = TypeVolleyball
	p[6] = '3'

	sport, snap := Identify(p)
	require.Equal(t, "Volleyball", string(sport))
	assert.Equal(t, "3", snap["period"])
}

func TestIdentifyUnknownTypeLengthReturnsEmpty(t *testing.T) {
	sport, snap := Identify([]byte{STX, TypeBasketballBaseballSoftball, '0'})
	assert.Equal(t, "", string(sport))
	assert.Nil(t, snap)
}

func TestDecodersAreTotalOnShortPackets(t *testing.T) {
	for _, sport := range []byte{
		TypeBasketballBaseballSoftball, TypeFootball, TypeVolleyball,
		TypeLacrosseHockey, TypeWrestling, TypeSoccer,
	} {
		p := []byte{STX, sport}
		assert.NotPanics(t, func() {
			Identify(p)
		})
	}

	// A recognized (type, length) pair with truncated-looking content still
	// must not panic even when every byte is zero.
	zero := make([]byte, LenBaseball)
	zero[1] = TypeBasketballBaseballSoftball
	assert.NotPanics(t, func() {
		sport, snap := Identify(zero)
		assert.Equal(t, "Baseball", string(sport))
		assert.NotNil(t, snap)
	})
}

func TestDecoderTotalityOnTruncatedSlice(t *testing.T) {
	var out []schema.Snapshot
	assert.NotPanics(t, func() {
		snap := decodeBasketball([]byte{STX, TypeBasketballBaseballSoftball, '0', '0'})
		out = append(out, snap)
	})
	require.Len(t, out, 1)
	assert.Contains(t, out[0], "error")
}
