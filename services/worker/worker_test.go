package worker

import (
	"errors"
	"testing"
	"time"

	"matchworker/internal/scrape"

	"github.com/stretchr/testify/assert"
)

// fakeHarvester returns a fixed result
type fakeHarvester struct {
	result *scrape.HarvestResult
}

func (f *fakeHarvester) Run() *scrape.HarvestResult {
	return f.result
}

// fakeFetcher returns a fixed match-centre object and records the IDs asked for
type fakeFetcher struct {
	data  map[string]interface{}
	err   error
	calls []int64
}

func (f *fakeFetcher) Fetch(matchID int64) (map[string]interface{}, error) {
	f.calls = append(f.calls, matchID)
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

// fakeStore records upserts in memory
type fakeStore struct {
	fixtures []scrape.FixtureRecord
	minutes  [][]scrape.MinuteRecord
}

func (s *fakeStore) Migrate() error { return nil }
func (s *fakeStore) Close() error   { return nil }

func (s *fakeStore) UpsertFixture(fixture scrape.FixtureRecord) error {
	s.fixtures = append(s.fixtures, fixture)
	return nil
}

func (s *fakeStore) UpsertMinuteRecords(records []scrape.MinuteRecord) error {
	s.minutes = append(s.minutes, records)
	return nil
}

// fakePublisher records published fixtures and minute batches
type fakePublisher struct {
	fixtures []scrape.FixtureRecord
	minutes  map[int64][]scrape.MinuteRecord
	trimmed  int
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{minutes: make(map[int64][]scrape.MinuteRecord)}
}

func (p *fakePublisher) PublishFixture(fixture scrape.FixtureRecord) error {
	p.fixtures = append(p.fixtures, fixture)
	return nil
}

func (p *fakePublisher) PublishMinutes(matchID int64, records []scrape.MinuteRecord) error {
	p.minutes[matchID] = append(p.minutes[matchID], records...)
	return nil
}

func (p *fakePublisher) TrimStreams() error {
	p.trimmed++
	return nil
}

func (p *fakePublisher) Close() error { return nil }

// memoryCache is an in-memory MatchCache
type memoryCache struct {
	marked map[int64]bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{marked: make(map[int64]bool)}
}

func (c *memoryCache) WasScraped(matchID int64) bool {
	return c.marked[matchID]
}

func (c *memoryCache) MarkScraped(matchID int64, ttl time.Duration) error {
	c.marked[matchID] = true
	return nil
}

func (c *memoryCache) Forget(matchID int64) error {
	delete(c.marked, matchID)
	return nil
}

func matchData() map[string]interface{} {
	return map[string]interface{}{
		"matchId":   float64(100),
		"status":    "FT",
		"startTime": "2026-03-01T15:00:00",
		"home": map[string]interface{}{
			"teamId": float64(13),
			"name":   "Arsenal",
			"stats": map[string]interface{}{
				"possession": map[string]interface{}{"1": 55.0},
			},
		},
		"away": map[string]interface{}{
			"teamId": float64(14),
			"name":   "Chelsea",
			"stats": map[string]interface{}{
				"possession": map[string]interface{}{"1": 45.0},
			},
		},
	}
}

func harvestResult(ids ...int64) *scrape.HarvestResult {
	return &scrape.HarvestResult{
		MatchIDs:            ids,
		Errors:              []string{},
		LeagueSlug:          "epl",
		TotalUniqueFixtures: len(ids),
		ScrapeTimestamp:     "2026-03-01T12:00:00Z",
	}
}

func TestRunOnceProcessesHarvestedMatches(t *testing.T) {
	fetcher := &fakeFetcher{data: matchData()}
	st := &fakeStore{}
	pub := newFakePublisher()
	cacheSvc := newMemoryCache()

	w := NewWorker(
		&fakeHarvester{result: harvestResult(100, 200)},
		fetcher, st, cacheSvc, pub,
		Config{OutputDir: t.TempDir(), FetchTTL: time.Hour},
	)

	err := w.RunOnce()
	assert.NoError(t, err)

	assert.Equal(t, []int64{100, 200}, fetcher.calls)
	assert.Len(t, st.fixtures, 2)
	assert.Equal(t, "Arsenal", st.fixtures[0].HomeTeamName)
	assert.Len(t, st.minutes, 2)
	assert.Len(t, st.minutes[0], 1)
	assert.Len(t, pub.fixtures, 2)
	assert.Len(t, pub.minutes[100], 1)
	assert.Equal(t, 1, pub.trimmed)
}

func TestRunOnceSkipsCachedMatches(t *testing.T) {
	fetcher := &fakeFetcher{data: matchData()}
	cacheSvc := newMemoryCache()
	cacheSvc.MarkScraped(100, time.Hour)

	w := NewWorker(
		&fakeHarvester{result: harvestResult(100, 200)},
		fetcher, nil, cacheSvc, nil,
		Config{OutputDir: t.TempDir(), FetchTTL: time.Hour},
	)

	err := w.RunOnce()
	assert.NoError(t, err)

	// 100 is fresh in the cache, only 200 is fetched and then marked
	assert.Equal(t, []int64{200}, fetcher.calls)
	assert.True(t, cacheSvc.WasScraped(200))
}

func TestProcessMatchFetchError(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("page did not load")}
	st := &fakeStore{}

	w := NewWorker(
		&fakeHarvester{result: harvestResult(100)},
		fetcher, st, nil, nil,
		Config{OutputDir: t.TempDir(), FetchTTL: time.Hour},
	)

	err := w.ProcessMatch(100)
	assert.Error(t, err)
	assert.Empty(t, st.fixtures)
}
