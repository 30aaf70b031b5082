package scrape

import (
	"sort"
	"time"
)

// IDSet is a deduplicated set of match identifiers. Only positive IDs are kept.
type IDSet map[int64]struct{}

// NewIDSet creates an empty set
func NewIDSet() IDSet {
	return make(IDSet)
}

// Add inserts an ID and reports whether it was newly added. Non-positive IDs
// are rejected.
func (s IDSet) Add(id int64) bool {
	if id <= 0 {
		return false
	}
	if _, ok := s[id]; ok {
		return false
	}
	s[id] = struct{}{}
	return true
}

// AddAll inserts every ID and returns how many were new
func (s IDSet) AddAll(ids []int64) int {
	added := 0
	for _, id := range ids {
		if s.Add(id) {
			added++
		}
	}
	return added
}

// Len returns the number of IDs in the set
func (s IDSet) Len() int {
	return len(s)
}

// Sorted returns the IDs in ascending order
func (s IDSet) Sorted() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// HarvestResult is the outcome of one calendar harvest. It is produced on
// every exit path, including the error state.
type HarvestResult struct {
	MatchIDs            []int64  `json:"match_ids"`
	Errors              []string `json:"errors"`
	LeagueSlug          string   `json:"league_slug"`
	TotalUniqueFixtures int      `json:"total_unique_fixtures"`
	ScrapeTimestamp     string   `json:"scrape_timestamp"`
}

// FixtureRecord is the normalized per-match fixture row. Nullable columns are
// pointers so absent payload fields survive the round trip to the store.
type FixtureRecord struct {
	MatchID      int64     `json:"match_id"`
	KickoffUTC   time.Time `json:"kickoff_utc"`
	Status       string    `json:"status"`
	RoundName    string    `json:"round_name"`
	HomeTeamID   *int64    `json:"home_team_id"`
	HomeTeamName string    `json:"home_team_name"`
	AwayTeamID   *int64    `json:"away_team_id"`
	AwayTeamName string    `json:"away_team_name"`
	HomeScore    *int64    `json:"home_score"`
	AwayScore    *int64    `json:"away_score"`
	RefereeName  string    `json:"referee_name"`
	VenueName    string    `json:"venue_name"`
	ScrapedAt    time.Time `json:"scraped_at"`
}

// MinuteRecord is one row of paired home/away stats for a single match minute.
// A nil value means the feed had no reading for that side and minute.
type MinuteRecord struct {
	MatchID         int64     `json:"match_id"`
	Minute          int       `json:"minute"`
	PossessionHome  *float64  `json:"possession_home"`
	PossessionAway  *float64  `json:"possession_away"`
	RatingHome      *float64  `json:"rating_home"`
	RatingAway      *float64  `json:"rating_away"`
	TotalShotsHome  *float64  `json:"total_shots_home"`
	TotalShotsAway  *float64  `json:"total_shots_away"`
	PassSuccessHome *float64  `json:"pass_success_home"`
	PassSuccessAway *float64  `json:"pass_success_away"`
	DribblesHome    *float64  `json:"dribbles_home"`
	DribblesAway    *float64  `json:"dribbles_away"`
	AerialWonHome   *float64  `json:"aerial_won_home"`
	AerialWonAway   *float64  `json:"aerial_won_away"`
	TacklesHome     *float64  `json:"tackles_home"`
	TacklesAway     *float64  `json:"tackles_away"`
	CornersHome     *float64  `json:"corners_home"`
	CornersAway     *float64  `json:"corners_away"`
	ScrapedAt       time.Time `json:"scraped_at"`
}
