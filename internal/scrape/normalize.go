package scrape

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"matchworker/pkg/errors"
)

// ResolveMatchData finds the match-centre object inside a parsed payload.
// The require-config embedding nests it under "matchCentreData"; the var
// embedding is the object itself, recognized by its "matchId" key.
func ResolveMatchData(payload map[string]interface{}) (map[string]interface{}, error) {
	if v, ok := payload["matchCentreData"]; ok {
		if nested, ok := v.(map[string]interface{}); ok {
			return nested, nil
		}
		return nil, errors.NewExtraction("payload", "matchCentreData is present but empty", nil)
	}
	if _, ok := payload["matchId"]; ok {
		return payload, nil
	}

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return nil, errors.NewExtraction("payload",
		fmt.Sprintf("unrecognized payload shape, top-level keys: %s", strings.Join(keys, ", ")), nil)
}

// kickoffLayouts are tried in order; the zoned ones first
var kickoffLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// parseKickoff parses the kickoff timestamp. Zoneless values are taken as
// UTC; an unparseable or missing value falls back to the capture time.
func parseKickoff(value string, capturedAt time.Time) time.Time {
	if value != "" {
		for _, layout := range kickoffLayouts {
			if t, err := time.Parse(layout, value); err == nil {
				return t.UTC()
			}
		}
	}
	return capturedAt.UTC()
}

// BuildFixtureRecord normalizes the match-centre object into one fixture row.
// Every field is probed through its known alternate key names; absent fields
// stay zero or nil rather than failing the record.
func BuildFixtureRecord(matchID int64, data map[string]interface{}, capturedAt time.Time) FixtureRecord {
	rec := FixtureRecord{
		MatchID:   matchID,
		ScrapedAt: capturedAt.UTC(),
	}

	rec.Status = probeString(data, "statusDescription", "detailedStatus", "status")
	rec.KickoffUTC = parseKickoff(probeString(data, "startTime", "kickOff", "startDate"), capturedAt)

	if stage := nestedMap(data, "stage"); stage != nil {
		rec.RoundName = probeString(stage, "stageName")
	}

	if ref := nestedMap(data, "referee"); ref != nil {
		rec.RefereeName = probeString(ref, "name", "officialName")
	}

	rec.VenueName = probeString(data, "venueName")
	if rec.VenueName == "" {
		if venue := nestedMap(data, "venue"); venue != nil {
			rec.VenueName = probeString(venue, "name")
		}
	}

	if home := nestedMap(data, "home"); home != nil {
		rec.HomeTeamID = intField(home, "teamId", "id")
		rec.HomeTeamName = probeString(home, "name", "teamName")
	}
	if away := nestedMap(data, "away"); away != nil {
		rec.AwayTeamID = intField(away, "teamId", "id")
		rec.AwayTeamName = probeString(away, "name", "teamName")
	}

	rec.HomeScore, rec.AwayScore = probeScore(data)
	return rec
}

// probeScore walks the known score shapes: a full-time score string, a plain
// score string, a score object, then flat home/away fields.
func probeScore(data map[string]interface{}) (*int64, *int64) {
	if s := probeString(data, "ftScore"); s != "" {
		if home, away, ok := parseScoreString(s); ok {
			return home, away
		}
	}
	if s := probeString(data, "score"); s != "" {
		if home, away, ok := parseScoreString(s); ok {
			return home, away
		}
	}
	if score := nestedMap(data, "score"); score != nil {
		home := intField(score, "home")
		away := intField(score, "away")
		if home != nil || away != nil {
			return home, away
		}
	}
	return intField(data, "homeScore"), intField(data, "awayScore")
}

// parseScoreString splits "2 : 1" or "2-1" style score strings
func parseScoreString(s string) (*int64, *int64, bool) {
	var parts []string
	switch {
	case strings.Contains(s, ":"):
		parts = strings.SplitN(s, ":", 2)
	case strings.Contains(s, "-"):
		parts = strings.SplitN(s, "-", 2)
	default:
		return nil, nil, false
	}

	home, err1 := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	away, err2 := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err1 != nil || err2 != nil {
		return nil, nil, false
	}
	return &home, &away, true
}

// minuteStatKeys maps record fields to the stat keys used by the feed
var minuteStatKeys = []string{
	"possession",
	"ratings",
	"shotsTotal",
	"passSuccess",
	"dribblesWon",
	"aerialsWon",
	"tackleSuccessful",
	"cornersTotal",
}

// BuildMinuteRecords normalizes the per-minute stat maps of both sides into
// paired rows. Minutes are the union of numeric keys across every stat of
// both sides, ascending; a side with no reading for a minute gets nil. A
// payload with no numeric minutes yields an empty slice, not an error.
func BuildMinuteRecords(matchID int64, data map[string]interface{}, capturedAt time.Time) []MinuteRecord {
	homeStats := sideStats(data, "home")
	awayStats := sideStats(data, "away")

	minutes := minuteUnion(homeStats, awayStats)
	if len(minutes) == 0 {
		return nil
	}

	records := make([]MinuteRecord, 0, len(minutes))
	for _, minute := range minutes {
		key := strconv.Itoa(minute)
		rec := MinuteRecord{
			MatchID:   matchID,
			Minute:    minute,
			ScrapedAt: capturedAt.UTC(),
		}
		rec.PossessionHome = statValue(homeStats, "possession", key)
		rec.PossessionAway = statValue(awayStats, "possession", key)
		rec.RatingHome = statValue(homeStats, "ratings", key)
		rec.RatingAway = statValue(awayStats, "ratings", key)
		rec.TotalShotsHome = statValue(homeStats, "shotsTotal", key)
		rec.TotalShotsAway = statValue(awayStats, "shotsTotal", key)
		rec.PassSuccessHome = statValue(homeStats, "passSuccess", key)
		rec.PassSuccessAway = statValue(awayStats, "passSuccess", key)
		rec.DribblesHome = statValue(homeStats, "dribblesWon", key)
		rec.DribblesAway = statValue(awayStats, "dribblesWon", key)
		rec.AerialWonHome = statValue(homeStats, "aerialsWon", key)
		rec.AerialWonAway = statValue(awayStats, "aerialsWon", key)
		rec.TacklesHome = statValue(homeStats, "tackleSuccessful", key)
		rec.TacklesAway = statValue(awayStats, "tackleSuccessful", key)
		rec.CornersHome = statValue(homeStats, "cornersTotal", key)
		rec.CornersAway = statValue(awayStats, "cornersTotal", key)
		records = append(records, rec)
	}
	return records
}

// sideStats returns the stats map of one side, or nil
func sideStats(data map[string]interface{}, side string) map[string]interface{} {
	if s := nestedMap(data, side); s != nil {
		return nestedMap(s, "stats")
	}
	return nil
}

// minuteUnion collects the numeric minute keys across every stat map of both
// sides, sorted ascending. Non-numeric keys are ignored.
func minuteUnion(sides ...map[string]interface{}) []int {
	seen := make(map[int]struct{})
	for _, stats := range sides {
		if stats == nil {
			continue
		}
		for _, statKey := range minuteStatKeys {
			perMinute := nestedMap(stats, statKey)
			for k := range perMinute {
				if !allDigits(k) {
					continue
				}
				if minute, err := strconv.Atoi(k); err == nil {
					seen[minute] = struct{}{}
				}
			}
		}
	}

	minutes := make([]int, 0, len(seen))
	for m := range seen {
		minutes = append(minutes, m)
	}
	sort.Ints(minutes)
	return minutes
}

// allDigits reports whether the key is purely numeric text. Signed keys like
// "-3" or "+5" are not minutes.
func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// statValue reads one side's reading for a stat and minute, nil when absent
func statValue(stats map[string]interface{}, statKey, minute string) *float64 {
	perMinute := nestedMap(stats, statKey)
	if perMinute == nil {
		return nil
	}
	if f, ok := asFloat(perMinute[minute]); ok {
		return &f
	}
	return nil
}

// probeString returns the first alternate key holding a non-empty string
func probeString(m map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// nestedMap returns the object under the key, or nil
func nestedMap(m map[string]interface{}, key string) map[string]interface{} {
	if m == nil {
		return nil
	}
	nested, _ := m[key].(map[string]interface{})
	return nested
}

// intField returns the first alternate key holding a number, as an int64
func intField(m map[string]interface{}, keys ...string) *int64 {
	for _, key := range keys {
		if f, ok := asFloat(m[key]); ok {
			n := int64(f)
			return &n
		}
	}
	return nil
}

// asFloat coerces the JSON number shapes to a float64
func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
