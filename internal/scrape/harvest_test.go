package scrape

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"matchworker/internal/browser"

	"github.com/stretchr/testify/assert"
)

// fakeSession serves canned HTML per URL; the fake clicker swaps the current
// page to simulate calendar paging
type fakeSession struct {
	current    string
	currentURL string
	pagesByURL map[string]string
	loads      []string
	clicks     []string
	waits      []string
	failLoads  map[string]bool
}

func newHarvestSession() *fakeSession {
	return &fakeSession{
		pagesByURL: make(map[string]string),
		failLoads:  make(map[string]bool),
	}
}

func (s *fakeSession) Load(url string) error {
	s.loads = append(s.loads, url)
	if s.failLoads[url] {
		return fmt.Errorf("navigation failed: %s", url)
	}
	s.currentURL = url
	if html, ok := s.pagesByURL[url]; ok {
		s.current = html
	}
	return nil
}

func (s *fakeSession) CurrentURL() (string, error) { return s.currentURL, nil }

func (s *fakeSession) HTML() (string, error) { return s.current, nil }

func (s *fakeSession) WaitVisible(sel string, d time.Duration) error {
	s.waits = append(s.waits, sel)
	return nil
}

func (s *fakeSession) ScrollIntoView(sel string) error { return nil }

func (s *fakeSession) Click(sel string, d time.Duration) error {
	s.clicks = append(s.clicks, sel)
	return nil
}

func (s *fakeSession) ClickJS(sel string) error { return nil }

func (s *fakeSession) Evaluate(js string, out interface{}) error { return nil }

func (s *fakeSession) Screenshot(path string) error { return nil }

func (s *fakeSession) Sleep(d time.Duration) {}

func (s *fakeSession) Close() error { return nil }

// fakeClicker lands the fixtures tab when a page was configured for it, and
// serves one page per successful month click, failing once its pages run out
type fakeClicker struct {
	session      *fakeSession
	fixturesPage string
	prevPages    []string
	nextPages    []string
	prevCalls    int
	nextCalls    int
}

func (c *fakeClicker) ClickAny(target string, _ []browser.Candidate) bool {
	if strings.Contains(target, "fixtures") {
		if c.fixturesPage == "" {
			return false
		}
		c.session.current = c.fixturesPage
		c.session.currentURL = fixturesTabURL
		return true
	}
	if strings.Contains(target, "previous") {
		c.prevCalls++
		if c.prevCalls > len(c.prevPages) {
			return false
		}
		c.session.current = c.prevPages[c.prevCalls-1]
		return true
	}
	c.nextCalls++
	if c.nextCalls > len(c.nextPages) {
		return false
	}
	c.session.current = c.nextPages[c.nextCalls-1]
	return true
}

func calendarPage(ids ...int64) string {
	var sb strings.Builder
	sb.WriteString("<html><body><div id='tournament-fixture'>")
	for _, id := range ids {
		fmt.Fprintf(&sb, "<a href='/matches/%d/live'>match</a>", id)
	}
	sb.WriteString("</div></body></html>")
	return sb.String()
}

const (
	overviewURL = "https://example.com/overview"
	fixturesURL = "https://example.com/fixtures"
	// the URL the browser reports after the fixtures tab click lands
	fixturesTabURL = "https://example.com/tournaments/2/fixtures"
)

func newTestHarvester(session *fakeSession, clicker Clicker, past, future int) *Harvester {
	h := NewHarvester(session, HarvestConfig{
		LeagueSlug:     "epl",
		OverviewURL:    overviewURL,
		FixturesURL:    fixturesURL,
		PastMonths:     past,
		FutureMonths:   future,
		ElementTimeout: 10 * time.Millisecond,
	})
	h.clicker = clicker
	h.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return h
}

func TestExtractMatchIDs(t *testing.T) {
	html := `<html><body>
		<a href="/matches/1821372/live">one</a>
		<a href="/matches/1821001/preview">two</a>
		<a href="/matches/1821372/live/stats">one again</a>
		<a href="/matches/upcoming">no id</a>
		<a href="/teams/13">other link</a>
	</body></html>`

	ids, err := ExtractMatchIDs(html)
	assert.NoError(t, err)
	assert.Equal(t, []int64{1821372, 1821001, 1821372}, ids)
}

func TestIDSetDedupAndOrder(t *testing.T) {
	set := NewIDSet()
	added := set.AddAll([]int64{300, 100, 300, 0, -5, 200})
	assert.Equal(t, 3, added)
	assert.Equal(t, []int64{100, 200, 300}, set.Sorted())

	assert.False(t, set.Add(100))
	assert.True(t, set.Add(400))
	assert.Equal(t, 4, set.Len())
}

func TestHarvesterFullRun(t *testing.T) {
	session := newHarvestSession()
	session.pagesByURL[fixturesTabURL] = calendarPage(101, 102)
	clicker := &fakeClicker{
		session:      session,
		fixturesPage: calendarPage(101, 102),
		prevPages:    []string{calendarPage(201, 101)},
		nextPages:    []string{calendarPage(301)},
	}

	h := newTestHarvester(session, clicker, 1, 1)
	result := h.Run()

	assert.Equal(t, []int64{101, 102, 201, 301}, result.MatchIDs)
	assert.Equal(t, 4, result.TotalUniqueFixtures)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "epl", result.LeagueSlug)
	assert.Equal(t, "2026-03-01T12:00:00Z", result.ScrapeTimestamp)
	// the fixtures page is reached by clicking the tab, so the only loads are
	// the overview and the reset, which reuses the URL the tab click landed on
	assert.Equal(t, []string{overviewURL, fixturesTabURL}, session.loads)
}

func TestHarvesterFixturesTabFallback(t *testing.T) {
	// no fixtures tab on the overview: the harvester navigates to the
	// configured fixtures URL directly and resets to it too
	session := newHarvestSession()
	session.pagesByURL[fixturesURL] = calendarPage(101, 102)
	clicker := &fakeClicker{
		session:   session,
		nextPages: []string{calendarPage(301)},
	}

	h := newTestHarvester(session, clicker, 0, 1)
	result := h.Run()

	assert.Equal(t, []int64{101, 102, 301}, result.MatchIDs)
	assert.Empty(t, result.Errors)
	assert.Equal(t, []string{overviewURL, fixturesURL, fixturesURL}, session.loads)
}

func TestHarvesterPastClickFailureStopsDirection(t *testing.T) {
	// Two past months requested but only one page is reachable: the second
	// click fails, one error is recorded, and the run still harvests the
	// future direction
	session := newHarvestSession()
	session.pagesByURL[fixturesTabURL] = calendarPage(101)
	clicker := &fakeClicker{
		session:      session,
		fixturesPage: calendarPage(101),
		prevPages:    []string{calendarPage(201)},
		nextPages:    []string{calendarPage(301)},
	}

	h := newTestHarvester(session, clicker, 2, 1)
	result := h.Run()

	assert.Equal(t, []int64{101, 201, 301}, result.MatchIDs)
	assert.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "previous month")
	assert.Equal(t, 2, clicker.prevCalls)
}

func TestHarvesterSkipsResetWithoutFutureMonths(t *testing.T) {
	// No future months requested: the run ends after the past direction even
	// when the backwards walk stopped early, and the calendar is never reset
	session := newHarvestSession()
	session.failLoads[fixturesTabURL] = true
	clicker := &fakeClicker{
		session:      session,
		fixturesPage: calendarPage(101),
		prevPages:    []string{calendarPage(201)},
	}

	h := newTestHarvester(session, clicker, 2, 0)
	result := h.Run()

	assert.Equal(t, []int64{101, 201}, result.MatchIDs)
	assert.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "previous month")
	assert.Equal(t, []string{overviewURL}, session.loads)
}

func TestHarvesterDismissesPopupsAfterPaging(t *testing.T) {
	// Overlays can reappear on any calendar page, so they are cleared on the
	// initial page, after every month click, and after the reset
	session := newHarvestSession()
	session.pagesByURL[fixturesTabURL] = calendarPage(101)
	clicker := &fakeClicker{
		session:      session,
		fixturesPage: calendarPage(101),
		prevPages:    []string{calendarPage(201)},
		nextPages:    []string{calendarPage(301)},
	}

	h := newTestHarvester(session, clicker, 1, 1)
	result := h.Run()
	assert.Empty(t, result.Errors)

	dismissals := 0
	for _, sel := range session.clicks {
		if sel == "#onetrust-accept-btn-handler" {
			dismissals++
		}
	}
	assert.Equal(t, 4, dismissals)
}

func TestHarvesterWaitsForFixtureLink(t *testing.T) {
	session := newHarvestSession()
	clicker := &fakeClicker{session: session, fixturesPage: calendarPage(101)}

	h := newTestHarvester(session, clicker, 0, 0)
	result := h.Run()

	assert.Equal(t, []int64{101}, result.MatchIDs)
	// the readiness wait is for an actual fixture link, not for a container
	// that may render empty
	assert.Contains(t, session.waits, "a[href*='/matches/']")
}

func TestHarvesterInitializeFailure(t *testing.T) {
	session := newHarvestSession()
	session.failLoads[overviewURL] = true

	h := newTestHarvester(session, &fakeClicker{session: session}, 1, 1)
	result := h.Run()

	// a structured result comes back even from the error state
	assert.Empty(t, result.MatchIDs)
	assert.Equal(t, 0, result.TotalUniqueFixtures)
	assert.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "overview")
	assert.NotEmpty(t, result.ScrapeTimestamp)
}

// panicClicker reaches the fixtures page, then blows up on the first month click
type panicClicker struct {
	session *fakeSession
	page    string
}

func (c *panicClicker) ClickAny(target string, _ []browser.Candidate) bool {
	if strings.Contains(target, "fixtures") {
		c.session.current = c.page
		return true
	}
	panic("boom")
}

func TestHarvesterRecoversFromPanic(t *testing.T) {
	session := newHarvestSession()

	h := newTestHarvester(session, &panicClicker{session: session, page: calendarPage(101)}, 1, 0)
	result := h.Run()

	// IDs collected before the panic survive, and the panic is an error entry
	assert.Equal(t, []int64{101}, result.MatchIDs)
	assert.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "panic")
}

func TestHarvesterZeroMonths(t *testing.T) {
	session := newHarvestSession()
	clicker := &fakeClicker{session: session, fixturesPage: calendarPage(101, 102)}

	h := newTestHarvester(session, clicker, 0, 0)
	result := h.Run()

	assert.Equal(t, []int64{101, 102}, result.MatchIDs)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 0, clicker.prevCalls)
	assert.Equal(t, 0, clicker.nextCalls)
	assert.Equal(t, []string{overviewURL}, session.loads)
}
