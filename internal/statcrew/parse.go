// Copyright (c) scoreboard-hub contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package statcrew

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/scorehub/ingest-hub/pkg/schema"
)

// ColorLookup resolves a team's code to a broadcast color, injected
// by the caller so this package carries no dependency on the NCAA color
// table (an external collaborator's concern, out of scope here).
type ColorLookup func(teamCode string) string

// Parse decodes a StatCrew XML export into a sport and a flat snapshot.
// It never returns an error: malformed or empty input yields ("", empty
// map), matching every decoder elsewhere in this system being total.
func Parse(xmlText string, colors ColorLookup) (schema.Sport, schema.Snapshot) {
	if strings.TrimSpace(xmlText) == "" {
		return "", schema.Snapshot{}
	}

	root, err := parseTree(xmlText)
	if err != nil || root == nil {
		return "", schema.Snapshot{}
	}

	sport, isFieldHockey := detectSport(root)

	snap := extractCommon(root, colors)
	if len(snap) == 0 {
		return sport, genericFallback(root)
	}

	switch sport {
	case schema.Baseball, schema.Softball:
		enrichBaseball(root, snap)
	case schema.Basketball:
		enrichBasketball(root, snap)
	case schema.Lacrosse:
		enrichLacrosse(root, snap)
	case schema.Football:
		enrichFootball(root, snap)
	case schema.Volleyball:
		enrichVolleyball(root, snap)
	case schema.Soccer:
		if isFieldHockey {
			enrichFieldHockey(root, snap)
		} else {
			enrichSoccer(root, snap)
		}
	}

	return sport, snap
}

// detectSport classifies the export by its root element name, per
// spec.md §4.8. isFieldHockey disambiguates the shared "sogame" root.
func detectSport(root *node) (schema.Sport, bool) {
	switch strings.ToLower(root.tag) {
	case "bsgame":
		return schema.Baseball, false
	case "bbgame", "wbbgame":
		return schema.Basketball, false
	case "lcgame":
		return schema.Lacrosse, false
	case "fbgame":
		return schema.Football, false
	case "vbgame":
		return schema.Volleyball, false
	case "sogame":
		show := root.find("show")
		isFH := show != nil && show.attr("fhk") == "1"
		return schema.Soccer, isFH
	default:
		return "", false
	}
}

// extractCommon performs the always-attempted extraction described in
// spec.md §4.8: venue, teams with linescore/totals, and players.
func extractCommon(root *node, colors ColorLookup) schema.Snapshot {
	snap := schema.Snapshot{}

	if venue := root.find("venue"); venue != nil {
		snap["venue"] = map[string]string{
			"date":       venue.attr("date"),
			"location":   venue.attr("location"),
			"stadium":    venue.attr("stadium"),
			"attendance": venue.attr("attend"),
			"gameid":     venue.attr("gameid"),
			"weather":    venue.attr("weather"),
			"temp":       venue.attr("temp"),
			"start":      venue.attr("start"),
			"end":        venue.attr("end"),
			"duration":   venue.attr("duration"),
		}
	}

	teamNodes := root.findAll("team")
	if len(teamNodes) == 0 {
		return snap
	}

	teams := make([]map[string]any, 0, len(teamNodes))
	playersByTeam := map[string]any{}

	for _, team := range teamNodes {
		vh := strings.ToUpper(team.attr("vh"))
		teamID := team.attr("id")

		teamData := map[string]any{
			"id":     teamID,
			"name":   team.attr("name"),
			"code":   team.attr("code"),
			"record": team.attr("record"),
			"rank":   team.attr("rank"),
			"vh":     vh,
		}

		if linescore := team.directChild("linescore"); linescore != nil {
			ls := map[string]string{
				"runs": linescore.attr("runs"),
				"hits": linescore.attr("hits"),
				"errs": linescore.attr("errs"),
				"lob":  linescore.attr("lob"),
			}
			teamData["linescore"] = ls
			var innings []string
			for _, line := range linescore.findAll("lineinn") {
				innings = append(innings, line.attr("score"))
			}
			if len(innings) > 0 {
				teamData["innings"] = innings
			}
		}

		if totals := team.directChild("totals"); totals != nil {
			if hitting := totals.directChild("hitting"); hitting != nil {
				teamData["hitting"] = hitting.attrMap()
			}
			if pitching := totals.directChild("pitching"); pitching != nil {
				teamData["pitching"] = pitching.attrMap()
			}
			if fielding := totals.directChild("fielding"); fielding != nil {
				teamData["fielding"] = fielding.attrMap()
			}
			if stats := totals.directChild("stats"); stats != nil {
				teamData["totals"] = stats.attrMap()
			}
		}

		teams = append(teams, teamData)

		players, pitchers, batters := extractPlayers(team)
		if len(players) > 0 {
			playersByTeam[teamID] = players
		}

		if vh == "V" {
			promote(snap, "away", teamData)
			if colors != nil {
				snap["away_team_color"] = colors(team.attr("code"))
			}
			if len(pitchers) > 0 {
				snap["pitchers_away"] = pitchers
			}
			if len(batters) > 0 {
				snap["batters_away"] = batters
			}
		} else if vh == "H" {
			promote(snap, "home", teamData)
			if colors != nil {
				snap["home_team_color"] = colors(team.attr("code"))
			}
			if len(pitchers) > 0 {
				snap["pitchers_home"] = pitchers
			}
			if len(batters) > 0 {
				snap["batters_home"] = batters
			}
		}
	}

	snap["teams"] = teams
	if len(playersByTeam) > 0 {
		snap["players"] = playersByTeam
	}
	return snap
}

// promote copies teamData's fields onto snap under an away_/home_ prefix,
// the "top-level accessor" promotion spec.md §4.8 describes.
func promote(snap schema.Snapshot, prefix string, teamData map[string]any) {
	for k, v := range teamData {
		if k == "vh" {
			continue
		}
		snap[prefix+"_"+k] = v
	}
}

func extractPlayers(team *node) (players, pitchers, batters []map[string]string) {
	for _, p := range team.findAll("player") {
		pd := map[string]string{
			"name":      p.attr("name"),
			"shortname": p.attr("shortname"),
			"uni":       p.attr("uni"),
			"pos":       p.attr("pos"),
			"spot":      p.attr("spot"),
			"gs":        p.attr("gs"),
		}
		players = append(players, pd)

		if pit := p.directChild("pitching"); pit != nil {
			entry := p.attrMap()
			for k, v := range pit.attrMap() {
				entry[k] = v
			}
			pitchers = append(pitchers, entry)
		}
		if hit := p.directChild("hitting"); hit != nil {
			entry := p.attrMap()
			for k, v := range hit.attrMap() {
				entry[k] = v
			}
			batters = append(batters, entry)
		}
	}
	return
}

// --- Baseball / Softball enrichment ---

var currentPitcherFields = []string{"ip", "h", "r", "er", "bb", "so", "pitches", "strikes"}

func enrichBaseball(root *node, snap schema.Snapshot) {
	if _, ok := snap["teams"]; !ok {
		return
	}

	for _, side := range []string{"away", "home"} {
		pitchers, _ := snap["pitchers_"+side].([]map[string]string)
		cur := currentPitcher(pitchers)
		if cur == nil {
			continue
		}
		proj := map[string]string{}
		for _, f := range currentPitcherFields {
			proj[f] = cur[f]
		}
		snap["current_pitcher_"+side] = proj
	}

	status := root.find("status")
	if status == nil {
		return
	}

	snap["current_batter_name"] = status.attr("batter")
	snap["current_pitcher_name"] = status.attr("pitcher")

	vh := strings.ToUpper(status.attr("vh"))
	battingTeam := "away"
	if vh == "H" {
		battingTeam = "home"
	}
	snap["batting_team"] = battingTeam

	outs, _ := strconv.Atoi(strings.TrimSpace(status.attr("outs")))
	inning, _ := strconv.Atoi(strings.TrimSpace(status.attr("inning")))
	half := halfFromStatus(vh, outs, status.attr("endinn") == "Y")
	snap["inning_display"] = fmt.Sprintf("%s %s", half, ordinalStr(inning))

	if np := strings.TrimSpace(status.attr("np")); np != "" {
		if n, err := strconv.Atoi(np); err == nil && n > 0 {
			fieldingSide := "home"
			if battingTeam == "home" {
				fieldingSide = "away"
			}
			key := "current_pitcher_" + fieldingSide
			cur, _ := snap[key].(map[string]string)
			if cur == nil {
				cur = map[string]string{}
			}
			existing, _ := strconv.Atoi(strings.TrimSpace(cur["pitcher_pitches"]))
			cur["pitcher_pitches"] = strconv.Itoa(existing + n)
			snap[key] = cur
		}
	}

	runners := baseRunners(root, status)
	snap["runner_first"] = runners["first"]
	snap["runner_second"] = runners["second"]
	snap["runner_third"] = runners["third"]
	snap["batters"] = mergeBatord(root)
}

func currentPitcher(pitchers []map[string]string) map[string]string {
	var best map[string]string
	bestAppear := -1
	for _, p := range pitchers {
		appear, err := strconv.Atoi(strings.TrimSpace(p["appear"]))
		if err != nil {
			continue
		}
		if appear > bestAppear {
			bestAppear = appear
			best = p
		}
	}
	return best
}

func halfFromStatus(vh string, outs int, endinn bool) string {
	if outs >= 3 || endinn {
		if vh == "V" {
			return "MID"
		}
		return "END"
	}
	if vh == "H" {
		return "BOT"
	}
	return "TOP"
}

func baseRunners(root, status *node) map[string]string {
	empty := map[string]string{"first": "", "second": "", "third": ""}
	if status == nil {
		return empty
	}
	if status.attr("complete") == "Y" {
		return empty
	}
	if status.attr("first") != "" || status.attr("second") != "" || status.attr("third") != "" {
		return map[string]string{
			"first":  status.attr("first"),
			"second": status.attr("second"),
			"third":  status.attr("third"),
		}
	}

	plays := root.find("plays")
	if plays == nil {
		return empty
	}

	var chosen *node
	for _, b := range plays.findAll("batting") {
		if strings.EqualFold(b.attr("vh"), status.attr("vh")) && b.attr("inning") == status.attr("inning") {
			chosen = b
		}
	}
	if chosen == nil {
		for _, b := range plays.findAll("batting") {
			if b.directChild("innsummary") == nil {
				chosen = b
			}
		}
	}
	if chosen == nil {
		return empty
	}
	if chosen.directChild("innsummary") != nil {
		return empty
	}

	playNodes := chosen.findAll("play")
	if len(playNodes) == 0 {
		return empty
	}

	// Each play only reports the bases a runner moved onto; a blank base
	// attribute does not clear a runner placed there by an earlier play in
	// the same at-bat sequence, so the last non-blank value per base wins.
	out := map[string]string{"first": "", "second": "", "third": ""}
	for _, p := range playNodes {
		for _, base := range []string{"first", "second", "third"} {
			if v := p.attr(base); v != "" {
				out[base] = v
			}
		}
	}
	return out
}

func mergeBatord(root *node) []map[string]string {
	merged := map[string]map[string]string{}
	var order []string

	for _, b := range root.findAll("batord") {
		uni := b.attr("uni")
		if uni == "" {
			continue
		}
		merged[uni] = map[string]string{"uni": uni, "name": b.attr("name"), "spot": b.attr("spot")}
		order = append(order, uni)
	}

	for _, p := range root.findAll("player") {
		if p.directChild("hitting") == nil {
			continue
		}
		uni := p.attr("uni")
		if uni == "" {
			continue
		}
		if existing, ok := merged[uni]; ok {
			if existing["name"] == "" {
				existing["name"] = p.attr("name")
			}
			continue
		}
		merged[uni] = map[string]string{"uni": uni, "name": p.attr("name"), "spot": p.attr("spot")}
		order = append(order, uni)
	}

	out := make([]map[string]string, 0, len(order))
	seen := map[string]bool{}
	for _, uni := range order {
		if seen[uni] {
			continue
		}
		seen[uni] = true
		out = append(out, merged[uni])
	}
	return out
}

func ordinalStr(n int) string {
	if m := n % 100; m >= 11 && m <= 13 {
		return fmt.Sprintf("%dth", n)
	}
	suffix := "th"
	switch n % 10 {
	case 1:
		suffix = "st"
	case 2:
		suffix = "nd"
	case 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

// --- Basketball enrichment ---

func enrichBasketball(root *node, snap schema.Snapshot) {
	for _, vh := range []string{"V", "H"} {
		side := "away"
		if vh == "H" {
			side = "home"
		}
		var team *node
		for _, t := range root.findAll("team") {
			if strings.EqualFold(t.attr("vh"), vh) {
				team = t
				break
			}
		}
		if team == nil {
			continue
		}

		var players []map[string]string
		for _, p := range team.findAll("player") {
			if p.attr("gp") == "0" {
				continue
			}
			players = append(players, map[string]string{
				"name":    p.attr("name"),
				"uni":     p.attr("uni"),
				"pts":     p.attr("pts"),
				"oncourt": p.attr("oncourt"),
				"min":     p.attr("min"),
				"fgm":     p.attr("fgm"),
				"fga":     p.attr("fga"),
				"reb":     p.attr("reb"),
				"ast":     p.attr("ast"),
			})
		}

		sort.SliceStable(players, func(i, j int) bool {
			onI := players[i]["oncourt"] == "1"
			onJ := players[j]["oncourt"] == "1"
			if onI != onJ {
				return onI
			}
			ptsI, _ := strconv.Atoi(players[i]["pts"])
			ptsJ, _ := strconv.Atoi(players[j]["pts"])
			return ptsI > ptsJ
		})

		snap[side+"_players"] = players
	}
}

// --- Lacrosse enrichment ---

func enrichLacrosse(root *node, snap schema.Snapshot) {
	show := root.find("show")
	gender := "men"
	if show != nil && show.attr("dcs") == "1" {
		gender = "women"
	}
	snap["gender"] = gender

	for _, vh := range []string{"V", "H"} {
		side := sideName(vh)
		totals := teamTotals(root, vh)
		if totals == nil {
			continue
		}

		stats := totals.directChild("stats").attrMap()
		goalie := totals.directChild("goalie").attrMap()

		won, _ := strconv.Atoi(stats["fo_won"])
		lost, _ := strconv.Atoi(stats["fo_lost"])
		saves, _ := strconv.Atoi(goalie["saves"])
		sf, _ := strconv.Atoi(goalie["sf"])
		clearsMade, _ := strconv.Atoi(stats["clears_made"])
		clearsAtt, _ := strconv.Atoi(stats["clears_att"])

		savePct := "--"
		if sf > 0 {
			savePct = fmt.Sprintf("%d%%", saves*100/sf)
		}

		snap[side+"_lacrosse_stats"] = map[string]string{
			"fo_display": fmt.Sprintf("%d-%d", won, lost),
			"save_pct":   savePct,
			"clears":     fmt.Sprintf("%d/%d", clearsMade, clearsAtt),
		}
	}
}

func sideName(vh string) string {
	if strings.EqualFold(vh, "H") {
		return "home"
	}
	return "away"
}

// teamTotals looks up <team vh="..."><totals> directly in the tree, used
// by sport enrichments that need a totals child extractCommon did not
// generically capture (e.g. lacrosse's goalie block, volleyball's attack
// block).
func teamTotals(root *node, vh string) *node {
	for _, t := range root.findAll("team") {
		if strings.EqualFold(t.attr("vh"), vh) {
			return t.directChild("totals")
		}
	}
	return nil
}

// --- Football / Soccer / Field hockey / Volleyball ---

func enrichFootball(root *node, snap schema.Snapshot) {
	for _, side := range []string{"away", "home"} {
		totals, _ := snap[side+"_totals"].(map[string]string)
		if totals == nil {
			continue
		}
		snap[side+"_football_stats"] = map[string]string{
			"rush_yards": totals["rush_yds"],
			"pass_yards": totals["pass_yds"],
			"total_yards": totals["total_yds"],
			"turnovers":  totals["turnovers"],
			"penalties":  totals["penalties"],
		}
	}
}

func enrichSoccer(root *node, snap schema.Snapshot) {
	for _, side := range []string{"away", "home"} {
		totals, _ := snap[side+"_totals"].(map[string]string)
		if totals == nil {
			continue
		}
		snap[side+"_soccer_stats"] = map[string]string{
			"shots":   totals["shots"],
			"saves":   totals["saves"],
			"corners": totals["corners"],
			"fouls":   totals["fouls"],
		}
	}
}

func enrichFieldHockey(root *node, snap schema.Snapshot) {
	for _, side := range []string{"away", "home"} {
		totals, _ := snap[side+"_totals"].(map[string]string)
		if totals == nil {
			continue
		}
		snap[side+"_field_hockey_stats"] = map[string]string{
			"shots":   totals["shots"],
			"saves":   totals["saves"],
			"corners": totals["corners"],
			"penalty_corners": totals["pc"],
		}
	}
}

func enrichVolleyball(root *node, snap schema.Snapshot) {
	for _, vh := range []string{"V", "H"} {
		side := sideName(vh)
		totals := teamTotals(root, vh)
		if totals == nil {
			continue
		}

		attack := totals.directChild("attack")
		if attack == nil {
			continue
		}
		pct, _ := strconv.ParseFloat(attack.attr("pct"), 64)

		stats := totals.directChild("stats").attrMap()
		snap[side+"_volleyball_stats"] = map[string]string{
			"kills":   attack.attr("kills"),
			"digs":    stats["digs"],
			"aces":    stats["aces"],
			"hit_pct": formatSignedPercent(pct),
		}
	}
}

// formatSignedPercent renders a fraction as a one-decimal percent with an
// explicit sign, e.g. -0.167 -> "-16.7%", 0.25 -> "+25.0%".
func formatSignedPercent(frac float64) string {
	sign := "+"
	if frac < 0 {
		sign = "-"
		frac = -frac
	}
	return fmt.Sprintf("%s%.1f%%", sign, frac*100)
}

// --- Generic fallback ---

// genericFallback walks the whole tree when no sport-specific structure
// matched anything: every element with text contributes tag -> text,
// every attribute contributes tag_attr -> value, first writer wins.
func genericFallback(root *node) schema.Snapshot {
	out := schema.Snapshot{}
	var walk func(*node)
	walk = func(n *node) {
		text := strings.TrimSpace(n.text)
		if text != "" {
			if _, exists := out[n.tag]; !exists {
				out[n.tag] = text
			}
		}
		for k, v := range n.attrs {
			key := n.tag + "_" + k
			if _, exists := out[key]; !exists {
				out[key] = v
			}
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(root)
	return out
}
