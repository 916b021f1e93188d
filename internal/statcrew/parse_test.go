package statcrew

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scorehub/ingest-hub/pkg/schema"
)

func noColors(string) string { return "" }

func TestParseEmptyInputYieldsEmptyMapping(t *testing.T) {
	sport, snap := Parse("", noColors)
	assert.Equal(t, schema.Sport(""), sport)
	assert.Empty(t, snap)
}

func TestParseInvalidXMLYieldsEmptyMapping(t *testing.T) {
	sport, snap := Parse("<bsgame><team", noColors)
	assert.Equal(t, schema.Sport(""), sport)
	assert.Empty(t, snap)
}

const baseballRunnerFixture = `<bsgame>
  <team vh="V" id="100" name="Visitors" code="VIS"><linescore runs="3" hits="5" errs="0"/></team>
  <team vh="H" id="200" name="Home" code="HOM"><linescore runs="2" hits="4" errs="1"/></team>
  <status vh="V" inning="3" batter="Smith,John" outs="1"/>
  <plays>
    <batting vh="V" inning="3">
      <play first="Runner, A"/>
      <play first="" second="" third="Runner, B"/>
    </batting>
  </plays>
</bsgame>`

func TestParseBaseballRunnerExtraction(t *testing.T) {
	sport, snap := Parse(baseballRunnerFixture, noColors)
	require.Equal(t, schema.Baseball, sport)
	assert.Equal(t, "Runner, A", snap["runner_first"])
	assert.Equal(t, "", snap["runner_second"])
	assert.Equal(t, "Runner, B", snap["runner_third"])
}

const baseballCompleteFixture = `<bsgame>
  <team vh="V" id="100" name="Visitors" code="VIS"><linescore runs="3" hits="5" errs="0"/></team>
  <team vh="H" id="200" name="Home" code="HOM"><linescore runs="2" hits="4" errs="1"/></team>
  <status vh="V" inning="3" batter="Smith,John" outs="3" complete="Y"/>
  <plays>
    <batting vh="V" inning="3">
      <play first="Runner, A"/>
      <play first="" second="" third="Runner, B"/>
    </batting>
  </plays>
</bsgame>`

func TestParseBaseballCompleteGameHasEmptyRunners(t *testing.T) {
	sport, snap := Parse(baseballCompleteFixture, noColors)
	require.Equal(t, schema.Baseball, sport)
	assert.Equal(t, "", snap["runner_first"])
	assert.Equal(t, "", snap["runner_second"])
	assert.Equal(t, "", snap["runner_third"])
}

const lacrosseFixture = `<lcgame>
  <team vh="V" id="1" name="Visitors" code="VIS">
    <totals>
      <stats fo_won="10" fo_lost="8" clears_made="5" clears_att="7"/>
      <goalie sf="28" saves="6"/>
    </totals>
  </team>
  <team vh="H" id="2" name="Home" code="HOM">
    <totals>
      <stats fo_won="8" fo_lost="10" clears_made="4" clears_att="6"/>
      <goalie sf="20" saves="10"/>
    </totals>
  </team>
</lcgame>`

func TestParseLacrosseSavePct(t *testing.T) {
	sport, snap := Parse(lacrosseFixture, noColors)
	require.Equal(t, schema.Lacrosse, sport)

	away, ok := snap["away_lacrosse_stats"].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "21%", away["save_pct"])
	assert.Equal(t, "10-8", away["fo_display"])
	assert.Equal(t, "5/7", away["clears"])
}

const volleyballFixture = `<vbgame>
  <team vh="V" id="1" name="Visitors" code="VIS">
    <totals>
      <attack pct="-.167" kills="10"/>
      <stats digs="12" aces="3"/>
    </totals>
  </team>
  <team vh="H" id="2" name="Home" code="HOM">
    <totals>
      <attack pct=".280" kills="18"/>
      <stats digs="9" aces="5"/>
    </totals>
  </team>
</vbgame>`

func TestParseVolleyballHitPct(t *testing.T) {
	sport, snap := Parse(volleyballFixture, noColors)
	require.Equal(t, schema.Volleyball, sport)

	away, ok := snap["away_volleyball_stats"].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "-16.7%", away["hit_pct"])
	assert.Equal(t, "10", away["kills"])
	assert.Equal(t, "12", away["digs"])
}

func TestParseColorLookupInjected(t *testing.T) {
	colors := func(code string) string {
		if code == "VIS" {
			return "#FF0000"
		}
		return "#000000"
	}
	_, snap := Parse(baseballRunnerFixture, colors)
	assert.Equal(t, "#FF0000", snap["away_team_color"])
	assert.Equal(t, "#000000", snap["home_team_color"])
}
