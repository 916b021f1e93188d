// Copyright (c) scoreboard-hub contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package protocol

import (
	"fmt"

	"github.com/scorehub/ingest-hub/pkg/schema"
)

// blank is the byte that marks a digit position as "not lit" on the
// scoreboard. In the tens position of a score or clock field it renders as
// a space; in certain ones positions it instead switches the field to
// tenth-of-second mode (see decodeClock).
const blank = 0x3A

// Identify dispatches a framed packet to the right sport decoder by
// (type byte, packet length), per spec.md §4.2. It returns ("", nil) when
// the (type, length) pair is not recognized — the caller drops the packet.
func Identify(packet []byte) (schema.Sport, schema.Snapshot) {
	if len(packet) < 3 {
		return "", nil
	}

	switch packet[1] {
	case TypeBasketballBaseballSoftball:
		switch len(packet) {
		case LenBasketball:
			return schema.Basketball, decodeBasketball(packet)
		case LenBaseball:
			return schema.Baseball, decodeBaseball(packet)
		case LenSoftball:
			return schema.Softball, decodeSoftball(packet)
		}
	case TypeFootball:
		return schema.Football, decodeFootball(packet)
	case TypeVolleyball:
		return schema.Volleyball, decodeVolleyball(packet)
	case TypeLacrosseHockey:
		switch len(packet) {
		case LenLacrosse:
			return schema.Lacrosse, decodeLacrosse(packet)
		case LenHockey:
			return schema.Hockey, decodeHockey(packet)
		}
	case TypeWrestling:
		return schema.Wrestling, decodeWrestling(packet)
	case TypeSoccer:
		return schema.Soccer, decodeSoccer(packet)
	}

	return "", nil
}

// --- shared field decoders ---

func ch(b byte) string { return string(rune(b)) }

func decodeScore(tens, ones byte) string {
	if tens >= 0xB0 {
		return fmt.Sprintf("1%s%s", ch(tens&0x7F), ch(ones&0x7F))
	}
	tensCh := ch(tens)
	if tens == blank {
		tensCh = " "
	}
	return tensCh + ch(ones)
}

// decodeClock renders a four-byte MM:SS clock field. A blank minutes-tens
// byte renders as a leading space instead of "0"; a blank seconds-ones byte
// switches the field to tenth-of-second mode ("MM.T").
func decodeClock(minTens, minOnes, secTens, secOnes byte) string {
	if secOnes == blank {
		if minTens == blank {
			return fmt.Sprintf(" %s.%s", ch(minOnes), ch(secTens))
		}
		return fmt.Sprintf("%s%s.%s", ch(minTens), ch(minOnes), ch(secTens))
	}
	if minTens == blank {
		return fmt.Sprintf(" %s:%s%s", ch(minOnes), ch(secTens), ch(secOnes))
	}
	return fmt.Sprintf("%s%s:%s%s", ch(minTens), ch(minOnes), ch(secTens), ch(secOnes))
}

func decodeShotClock(msByte, lsByte byte) string {
	ms := msByte
	if ms == blank {
		ms = 0x20
	}
	return ch(ms) + ch(lsByte)
}

func decodePenaltyTime(min, secTens, secOnes byte) string {
	if secOnes == blank {
		return fmt.Sprintf(" %s%s%s", ch(min), ch(secTens), ch(secOnes))
	}
	return fmt.Sprintf(" %s:%s%s", ch(min), ch(secTens), ch(secOnes))
}

func decodeSimpleTime(min, secTens, secOnes byte) string {
	return fmt.Sprintf("%s:%s%s", ch(min), ch(secTens), ch(secOnes))
}

func decodeFouls(b byte) string {
	switch {
	case b > blank:
		return "10"
	case b == blank:
		return " "
	default:
		return ch(b)
	}
}

// blankAsSpace renders b as a space when it is the blank marker, else as
// its ASCII character. Used by the penalty-player-number fields.
func blankAsSpace(b byte) string {
	if b == blank {
		return " "
	}
	return ch(b)
}

// blankAsZero renders b as "0" when it is the blank marker, else as its
// ASCII character. Used by hockey's saves/corners pairs.
func blankAsZero(b byte) string {
	if b == blank {
		return "0"
	}
	return ch(b)
}

func errParse(sport, detail string) schema.Snapshot {
	return schema.Snapshot{"error": fmt.Sprintf("%s parse error: %s", sport, detail)}
}

// recoverParse turns an index-out-of-range or similar panic inside a
// decoder into the {"error": ...} record spec.md §4.2 requires: every
// decoder is total, never aborting the worker that called it.
func recoverParse(sport string, out *schema.Snapshot) {
	if r := recover(); r != nil {
		*out = errParse(sport, fmt.Sprint(r))
	}
}

// --- Basketball ---

func decodeBasketball(p []byte) (out schema.Snapshot) {
	defer recoverParse("Basketball", &out)

	gameClock := decodeClock(p[2]&0x7F, p[3]&0x7F, p[4]&0x7F, p[5])
	period := ch(p[6])
	if period >= "5" && period <= "9" {
		period = "OT"
	}

	homeScore := decodeScore(p[7], p[8])
	visitorScore := decodeScore(p[9], p[10])

	hmValues := p[16] - 0x30
	vsValues := p[17] - 0x30
	hmPoss := hmValues & 0x01
	vsPoss := vsValues & 0x01
	hmBonus := hmValues&0x02 > 0
	vsBonus := vsValues&0x02 > 0
	hm20Tol := (hmValues & 0x0C) / 4
	vs20Tol := (vsValues & 0x0C) / 4

	hmTol := ch(p[11] & 0x7F)
	vsTol := ch(p[12] & 0x7F)

	hmFouls := decodeFouls(p[13])
	vsFouls := decodeFouls(p[14])

	shotClock := decodeShotClock(p[18], p[19])

	var possession any
	switch {
	case hmPoss == 0x01:
		possession = "home"
	case vsPoss == 0x01:
		possession = "visitor"
	default:
		possession = nil
	}

	return schema.Snapshot{
		"game_clock":       gameClock,
		"period":           period,
		"home_score":       homeScore,
		"visitor_score":    visitorScore,
		"home_full_tol":    hmTol,
		"visitor_full_tol": vsTol,
		"home_20_tol":      hm20Tol,
		"visitor_20_tol":   vs20Tol,
		"home_fouls":       hmFouls,
		"visitor_fouls":    vsFouls,
		"shot_clock":       shotClock,
		"home_bonus":       hmBonus,
		"visitor_bonus":    vsBonus,
		"possession":       possession,
	}
}

// --- Football ---

func decodeFootball(p []byte) (out schema.Snapshot) {
	defer recoverParse("Football", &out)

	gameClock := decodeClock(p[2]&0x7F, p[3]&0x7F, p[4]&0x7F, p[5])
	quarter := ch(p[6])
	if quarter >= "5" && quarter <= "9" {
		quarter = "OT"
	}

	homeScore := decodeScore(p[7], p[8])
	visitorScore := decodeScore(p[9], p[10])

	hmPossByte := p[13]
	vsPossByte := p[14]

	hmTol := ch(p[11] & 0x7F)
	vsTol := ch(p[12] & 0x7F)

	shotClock := decodeShotClock(p[20], p[21])
	down := ch(p[15])

	ytg10s := p[16]
	if ytg10s == blank {
		ytg10s = 0x20
	}
	yardsToGo := ch(ytg10s) + ch(p[17])

	ballOn10s := p[18]
	if ballOn10s == blank {
		ballOn10s = 0x20
	}
	ballOn := ch(ballOn10s) + ch(p[19])

	var possession any
	switch {
	case hmPossByte == 0xB8:
		possession = "home"
	case vsPossByte == 0xB8:
		possession = "visitor"
	default:
		possession = nil
	}

	return schema.Snapshot{
		"game_clock":       gameClock,
		"quarter":          quarter,
		"home_score":       homeScore,
		"visitor_score":    visitorScore,
		"home_full_tol":    hmTol,
		"visitor_full_tol": vsTol,
		"shot_clock":       shotClock,
		"down":             down,
		"yards_to_go":      yardsToGo,
		"ball_on":          ballOn,
		"possession":       possession,
	}
}

// --- Volleyball ---

func decodeVolleyball(p []byte) (out schema.Snapshot) {
	defer recoverParse("Volleyball", &out)

	gameClock := decodeClock(p[2]&0x7F, p[3]&0x7F, p[4]&0x7F, p[5])
	period := ch(p[6])
	homeScore := decodeScore(p[7], p[8])
	visitorScore := decodeScore(p[9], p[10])
	hmTol := ch(p[11] & 0x7F)
	vsTol := ch(p[12] & 0x7F)

	hmValues := p[16] - 0x30
	vsValues := p[17] - 0x30
	hmPoss := hmValues & 0x01
	vsPoss := vsValues & 0x01

	hmSetsWon := ch(p[18])
	vsSetsWon := ch(p[19])

	hmSetScores := []string{
		decodeScore(p[20], p[21]),
		decodeScore(p[22], p[23]),
		decodeScore(p[24], p[25]),
		decodeScore(p[26], p[27]),
		decodeScore(p[28], p[29]),
	}
	vsSetScores := []string{
		decodeScore(p[30], p[31]),
		decodeScore(p[32], p[33]),
		decodeScore(p[34], p[35]),
		decodeScore(p[36], p[37]),
		decodeScore(p[38], p[39]),
	}

	var possession any
	switch {
	case hmPoss == 0x01:
		possession = "home"
	case vsPoss == 0x01:
		possession = "visitor"
	default:
		possession = nil
	}

	return schema.Snapshot{
		"game_clock":         gameClock,
		"period":             period,
		"home_score":         homeScore,
		"visitor_score":      visitorScore,
		"home_full_tol":      hmTol,
		"visitor_full_tol":   vsTol,
		"home_sets_won":      hmSetsWon,
		"visitor_sets_won":   vsSetsWon,
		"home_set_scores":    hmSetScores,
		"visitor_set_scores": vsSetScores,
		"possession":         possession,
	}
}

// --- Soccer ---

func decodeSoccer(p []byte) (out schema.Snapshot) {
	defer recoverParse("Soccer", &out)

	gameClock := decodeClock(p[2]&0x7F, p[3]&0x7F, p[4]&0x7F, p[5])
	period := ch(p[6])
	homeScore := decodeScore(p[7], p[8])
	visitorScore := decodeScore(p[9], p[10])

	hmShots := decodeScore(p[11], p[12])
	hmSaves := decodeScore(p[13], p[14])
	hmCorners := decodeScore(p[15], p[16])
	hmPenalties := decodeScore(p[17], p[18])

	vsShots := decodeScore(p[19], p[20])
	vsSaves := decodeScore(p[21], p[22])
	vsCorners := decodeScore(p[23], p[24])
	vsPenalties := decodeScore(p[25], p[26])

	return schema.Snapshot{
		"game_clock":         gameClock,
		"period":             period,
		"home_score":         homeScore,
		"visitor_score":      visitorScore,
		"home_shots":         hmShots,
		"home_saves":         hmSaves,
		"home_corners":       hmCorners,
		"home_penalties":     hmPenalties,
		"visitor_shots":      vsShots,
		"visitor_saves":      vsSaves,
		"visitor_corners":    vsCorners,
		"visitor_penalties":  vsPenalties,
	}
}

// --- Lacrosse / Hockey share a penalty-queue shape ---

type penalty struct {
	Player string `json:"player"`
	Time   string `json:"time"`
}

func decodeLacrosse(p []byte) (out schema.Snapshot) {
	defer recoverParse("Lacrosse", &out)

	gameClock := decodeClock(p[2]&0x7F, p[3]&0x7F, p[4]&0x7F, p[5])
	period := ch(p[6])
	homeScore := decodeScore(p[7], p[8])
	visitorScore := decodeScore(p[9], p[10])
	homeTol := ch(p[16] & 0x7F)
	visitorTol := ch(p[17] & 0x7F)

	homeShots := decodeScore(p[18], p[19])
	visitorShots := decodeScore(p[20], p[21])

	hmPen1 := penalty{
		Player: blankAsSpace(p[22]) + ch(p[23]),
		Time:   decodePenaltyTime(p[24]&0x7F, p[25]&0x7F, p[26]),
	}
	hmPen2 := penalty{
		Player: blankAsSpace(p[27]) + ch(p[28]),
		Time:   decodePenaltyTime(p[29]&0x7F, p[30]&0x7F, p[31]),
	}
	vsPen1 := penalty{
		Player: blankAsSpace(p[32]) + ch(p[33]),
		Time:   decodePenaltyTime(p[34]&0x7F, p[35]&0x7F, p[36]),
	}
	vsPen2 := penalty{
		Player: blankAsSpace(p[37]) + ch(p[38]),
		Time:   decodePenaltyTime(p[39]&0x7F, p[40]&0x7F, p[41]),
	}

	shotClock := decodeShotClock(p[42], p[43])

	return schema.Snapshot{
		"game_clock":        gameClock,
		"period":            period,
		"home_score":        homeScore,
		"visitor_score":     visitorScore,
		"home_full_tol":     homeTol,
		"visitor_full_tol":  visitorTol,
		"home_shots":        homeShots,
		"visitor_shots":     visitorShots,
		"home_penalties":    []penalty{hmPen1, hmPen2},
		"visitor_penalties": []penalty{vsPen1, vsPen2},
		"shot_clock":        shotClock,
	}
}

func decodeHockey(p []byte) (out schema.Snapshot) {
	defer recoverParse("Hockey", &out)

	gameClock := decodeClock(p[2]&0x7F, p[3]&0x7F, p[4]&0x7F, p[5])
	period := ch(p[6])
	homeScore := decodeScore(p[7], p[8])
	visitorScore := decodeScore(p[9], p[10])

	homeSaves := blankAsSpace(p[11]) + blankAsZero(p[12])
	visitorSaves := blankAsSpace(p[13]) + blankAsZero(p[14])

	homeShots := decodeScore(p[18], p[19])
	visitorShots := decodeScore(p[20], p[21])

	hmPen1 := penalty{
		Player: blankAsSpace(p[22]) + ch(p[23]),
		Time:   decodePenaltyTime(p[24]&0x7F, p[25]&0x7F, p[26]),
	}
	hmPen2 := penalty{
		Player: blankAsSpace(p[27]) + ch(p[28]),
		Time:   decodePenaltyTime(p[29]&0x7F, p[30]&0x7F, p[31]),
	}
	vsPen1 := penalty{
		Player: blankAsSpace(p[32]) + ch(p[33]),
		Time:   decodePenaltyTime(p[34]&0x7F, p[35]&0x7F, p[36]),
	}
	vsPen2 := penalty{
		Player: blankAsSpace(p[37]) + ch(p[38]),
		Time:   decodePenaltyTime(p[39]&0x7F, p[40]&0x7F, p[41]),
	}

	homeCorners := blankAsSpace(p[42]) + blankAsZero(p[43])
	visitorCorners := blankAsSpace(p[44]) + blankAsZero(p[45])

	return schema.Snapshot{
		"game_clock":        gameClock,
		"period":            period,
		"home_score":        homeScore,
		"visitor_score":     visitorScore,
		"home_saves":        homeSaves,
		"visitor_saves":     visitorSaves,
		"home_shots":        homeShots,
		"visitor_shots":     visitorShots,
		"home_penalties":    []penalty{hmPen1, hmPen2},
		"visitor_penalties": []penalty{vsPen1, vsPen2},
		"home_corners":      homeCorners,
		"visitor_corners":   visitorCorners,
	}
}

// --- Wrestling ---

func decodeWrestling(p []byte) (out schema.Snapshot) {
	defer recoverParse("Wrestling", &out)

	gameClock := decodeClock(p[2]&0x7F, p[3]&0x7F, p[4]&0x7F, p[5])
	period := ch(p[6])
	homeScore := decodeScore(p[7], p[8])
	visitorScore := decodeScore(p[9], p[10])

	homeTeamPoints := decodeScore(p[18], p[19])
	visitorTeamPoints := decodeScore(p[20], p[21])

	weightClass := ch(p[22]) + ch(p[23]) + ch(p[24])

	homeAdvTime := decodeSimpleTime(p[25]&0x7F, p[26]&0x7F, p[27])
	visitorAdvTime := decodeSimpleTime(p[28]&0x7F, p[29]&0x7F, p[30])
	homeInjTime := decodeSimpleTime(p[34]&0x7F, p[35]&0x7F, p[36])
	visitorInjTime := decodeSimpleTime(p[37]&0x7F, p[38]&0x7F, p[39])

	return schema.Snapshot{
		"game_clock":           gameClock,
		"period":               period,
		"home_score":           homeScore,
		"visitor_score":        visitorScore,
		"home_team_points":     homeTeamPoints,
		"visitor_team_points":  visitorTeamPoints,
		"match_weight_class":   weightClass,
		"home_adv_time":        homeAdvTime,
		"visitor_adv_time":     visitorAdvTime,
		"home_inj_time":        homeInjTime,
		"visitor_inj_time":     visitorInjTime,
	}
}

// --- Baseball ---

func decodeBaseball(p []byte) (out schema.Snapshot) {
	defer recoverParse("Baseball", &out)

	vsRuns := blankAsSpace(p[33]) + ch(p[34])
	vsHits := blankAsSpace(p[35]) + ch(p[36])
	vsErrors := " " + ch(p[37])

	hmRuns := blankAsSpace(p[38]) + ch(p[39])
	hmHits := blankAsSpace(p[40]) + ch(p[41])
	hmErrors := " " + ch(p[42])

	vsInnings := blankInnings([]byte{
		p[2], p[3], p[4], p[17], p[18], p[19], p[20], p[21], p[22], p[23],
	})
	hmInnings := blankInnings([]byte{
		p[5], p[6], p[7], p[24], p[25], p[26], p[27], p[28], p[29], p[30],
	})

	batterNum := blankAsSpace(p[8]) + ch(p[9])
	balls := ch(p[10])
	strikes := ch(p[31])
	outs := ch(p[43])

	pitchH := p[46]
	if pitchH == blank {
		pitchH = 0x30
	}
	pitchT := p[47]
	if pitchT == blank {
		pitchT = 0x30
	}
	pitchO := p[48]
	if pitchO == blank {
		pitchO = 0x30
	}
	pitchSpeed := ch(pitchH) + ch(pitchT) + ch(pitchO)

	return schema.Snapshot{
		"away_innings": vsInnings,
		"home_innings": hmInnings,
		"balls":        balls,
		"strikes":      strikes,
		"outs":         outs,
		"batter_num":   batterNum,
		"pitch_speed":  pitchSpeed,
		"away_runs":    vsRuns,
		"away_hits":    vsHits,
		"away_errors":  vsErrors,
		"home_runs":    hmRuns,
		"home_hits":    hmHits,
		"home_errors":  hmErrors,
	}
}

// blankInnings renders each inning cell, turning the blank marker into a
// space (an un-played half shows blank, not "0" — this is exactly why the
// baseball inning FSM in inning.go exists instead of counting cells).
func blankInnings(cells []byte) []string {
	out := make([]string, len(cells))
	for i, b := range cells {
		if b == blank {
			out[i] = " "
		} else {
			out[i] = ch(b)
		}
	}
	return out
}

// --- Softball ---

func decodeSoftball(p []byte) (out schema.Snapshot) {
	defer recoverParse("Softball", &out)

	teamAtBat := ch(p[2])
	battingTeam := "BOT"
	if teamAtBat == "1" {
		battingTeam = "TOP"
	}

	inningTens := " "
	if p[3] != blank {
		inningTens = ch(p[3])
	}
	inningOnes := " "
	if p[4] != blank {
		inningOnes = ch(p[4])
	}
	inning := inningTens + inningOnes

	batterNum := blankAsSpace(p[5]) + blankAsZero(p[6])
	batterAvg := blankAsZero(p[7]) + blankAsZero(p[8]) + blankAsZero(p[9])

	pitcherNum := blankAsSpace(p[10]) + blankAsZero(p[11])
	pitcherCount := blankAsSpace(p[71]) + blankAsSpace(p[12]) + blankAsZero(p[13])

	pitchH := p[22]
	if pitchH == blank {
		pitchH = 0x30
	}
	pitchT := p[23]
	if pitchT == blank {
		pitchT = 0x30
	}
	pitchO := p[24]
	if pitchO == blank {
		pitchO = 0x30
	}
	pitchSpeed := ch(pitchH) + ch(pitchT) + ch(pitchO)

	balls := ch(p[25])
	strikes := ch(p[26])
	outs := ch(p[27])

	lastPlayType := p[28]
	lastPlayPos := p[29]
	var lastPlay string
	switch {
	case lastPlayType == blank:
		lastPlay = "N/A"
	case lastPlayType == 0x49:
		lastPlay = "  H"
	case lastPlayPos == blank:
		lastPlay = "  E"
	default:
		lastPlay = " E" + ch(lastPlayPos)
	}

	vsRuns := blankAsSpace(p[30]) + ch(p[31])
	vsHits := blankAsSpace(p[32]) + ch(p[33])
	vsErrors := " " + ch(p[34])

	hmRuns := blankAsSpace(p[35]) + ch(p[36])
	hmHits := blankAsSpace(p[37]) + ch(p[38])
	hmErrors := " " + ch(p[39])

	vsInnings := blankInnings(p[40:50])
	hmInnings := blankInnings(p[50:60])

	return schema.Snapshot{
		"inning":       inning,
		"batting_team": battingTeam,
		"batter_num":   batterNum,
		"batter_avg":   batterAvg,
		"pitcher_num":  pitcherNum,
		"pitcher_count": pitcherCount,
		"pitch_speed":  pitchSpeed,
		"balls":        balls,
		"strikes":      strikes,
		"outs":         outs,
		"last_play":    lastPlay,
		"away_runs":    vsRuns,
		"away_hits":    vsHits,
		"away_errors":  vsErrors,
		"home_runs":    hmRuns,
		"home_hits":    hmHits,
		"home_errors":  hmErrors,
		"away_innings": vsInnings,
		"home_innings": hmInnings,
	}
}
