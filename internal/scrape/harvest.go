package scrape

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"matchworker/helpers"
	"matchworker/internal/browser"
	"matchworker/logger"

	"github.com/PuerkitoBio/goquery"
)

// harvestState is one step of the calendar pagination run
type harvestState int

const (
	stateInitializing harvestState = iota
	stateScrapingCurrent
	stateScrapingPast
	stateResetting
	stateScrapingFuture
	stateDone
	stateError
)

func (s harvestState) String() string {
	switch s {
	case stateInitializing:
		return "initializing"
	case stateScrapingCurrent:
		return "scraping_current"
	case stateScrapingPast:
		return "scraping_past"
	case stateResetting:
		return "resetting"
	case stateScrapingFuture:
		return "scraping_future"
	case stateDone:
		return "done"
	case stateError:
		return "error"
	default:
		return "unknown"
	}
}

// Clicker is the click-with-fallback contract the harvester pages the
// calendar with
type Clicker interface {
	ClickAny(target string, candidates []browser.Candidate) bool
}

// Calendar navigation candidates, ordered by how specific they are to the
// current markup. Layout changes are absorbed by extending these lists.
var (
	previousMonthCandidates = []browser.Candidate{
		browser.ID("dayChangeBtn-prev"),
		browser.CSS("button.previous"),
		browser.TextEquals("a", "‹"),
	}
	nextMonthCandidates = []browser.Candidate{
		browser.ID("dayChangeBtn-next"),
		browser.CSS("button.next"),
		browser.TextEquals("a", "›"),
	}
	fixturesTabCandidates = []browser.Candidate{
		browser.CSS("a[href*='/fixtures']"),
		browser.ID("sub-navigation-fixtures"),
		browser.TextEquals("a", "Fixtures"),
	}
	// an empty calendar container is not enough; the wait needs at least
	// one fixture reference
	fixtureLinkCandidates = []browser.Candidate{
		browser.CSS("a[href*='/matches/']"),
		browser.CSS("a[href*='/Matches/']"),
	}
)

var matchLinkPattern = regexp.MustCompile(`/matches/(\d+)`)

// ExtractMatchIDs pulls numeric match identifiers from the fixture anchors of
// a page. Links without a numeric ID are skipped.
func ExtractMatchIDs(html string) ([]int64, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var ids []int64
	doc.Find("a[href*='/matches/']").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		m := matchLinkPattern.FindStringSubmatch(href)
		if m == nil {
			return
		}
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || id <= 0 {
			return
		}
		ids = append(ids, id)
	})
	return ids, nil
}

// HarvestConfig configures one calendar harvest run
type HarvestConfig struct {
	LeagueSlug     string
	OverviewURL    string
	FixturesURL    string
	PastMonths     int
	FutureMonths   int
	ElementTimeout time.Duration
	OutputDir      string
	Debug          bool
}

// Harvester pages a league's fixtures calendar and collects match IDs.
// Single-threaded: it owns the session for the duration of Run.
type Harvester struct {
	session browser.Session
	clicker Clicker
	cfg     HarvestConfig
	log     *logger.Logger

	state    harvestState
	resetURL string
	ids      IDSet
	errs     []string
	now      func() time.Time
}

// NewHarvester creates a harvester over the session
func NewHarvester(session browser.Session, cfg HarvestConfig) *Harvester {
	return &Harvester{
		session:  session,
		clicker:  browser.NewFallbackClicker(session, cfg.ElementTimeout),
		cfg:      cfg,
		log:      logger.ForHarvester(cfg.LeagueSlug),
		resetURL: cfg.FixturesURL,
		ids:      NewIDSet(),
		now:      time.Now,
	}
}

// Run walks the harvest states to completion and always returns a result,
// even when a stage fails or panics.
func (h *Harvester) Run() (result *HarvestResult) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error().Str("state", h.state.String()).Interface("panic", r).Msg("Harvest panicked")
			h.errs = append(h.errs, fmt.Sprintf("panic in state %s: %v", h.state, r))
			h.state = stateError
			result = h.finalize()
		}
	}()

	h.state = stateInitializing
	for h.state != stateDone && h.state != stateError {
		h.log.Debug().Str("state", h.state.String()).Msg("Entering state")
		switch h.state {
		case stateInitializing:
			h.state = h.initialize()
		case stateScrapingCurrent:
			h.state = h.scrapeCurrent()
		case stateScrapingPast:
			h.state = h.scrapePast()
		case stateResetting:
			h.state = h.reset()
		case stateScrapingFuture:
			h.state = h.scrapeFuture()
		}
	}

	return h.finalize()
}

// initialize loads the league overview, clears popups and reaches the
// fixtures calendar through the tab candidates, falling back to a direct
// navigation when none of them lands
func (h *Harvester) initialize() harvestState {
	if err := h.session.Load(h.cfg.OverviewURL); err != nil {
		h.recordError(fmt.Sprintf("failed to load overview: %v", err))
		return stateError
	}
	browser.DismissPopups(h.session)

	if h.clicker.ClickAny("fixtures tab", fixturesTabCandidates) {
		// the landed URL is the reset target for the future direction
		if url, err := h.session.CurrentURL(); err == nil && url != "" {
			h.resetURL = url
		}
	} else {
		h.log.Warn().Str("url", h.cfg.FixturesURL).Msg("Fixtures tab not found, navigating directly")
		if err := h.session.Load(h.cfg.FixturesURL); err != nil {
			h.recordError(fmt.Sprintf("failed to load fixtures: %v", err))
			return stateError
		}
	}

	if err := h.waitFixtureList(); err != nil {
		h.recordError(fmt.Sprintf("fixture list never appeared: %v", err))
		return stateError
	}

	h.debugShot("initialized")
	return stateScrapingCurrent
}

// scrapeCurrent harvests the month the calendar opens on
func (h *Harvester) scrapeCurrent() harvestState {
	h.harvestPage("current")
	return stateScrapingPast
}

// scrapePast pages backwards up to PastMonths. The first failed click records
// one error and ends the backwards walk; it does not fail the run. The reset
// only happens when the future direction is still to come.
func (h *Harvester) scrapePast() harvestState {
	for i := 0; i < h.cfg.PastMonths; i++ {
		if !h.clicker.ClickAny("previous month", previousMonthCandidates) {
			h.recordError(fmt.Sprintf("previous month click failed after %d of %d months", i, h.cfg.PastMonths))
			break
		}
		browser.DismissPopups(h.session)
		h.harvestPage(fmt.Sprintf("past_%d", i+1))
	}
	if h.cfg.FutureMonths == 0 {
		return stateDone
	}
	return stateResetting
}

// reset returns the calendar to the current month by re-navigating
func (h *Harvester) reset() harvestState {
	if err := h.session.Load(h.resetURL); err != nil {
		h.recordError(fmt.Sprintf("failed to reset calendar: %v", err))
		return stateError
	}
	browser.DismissPopups(h.session)
	if err := h.waitFixtureList(); err != nil {
		h.recordError(fmt.Sprintf("fixture list never appeared after reset: %v", err))
		return stateError
	}
	return stateScrapingFuture
}

// scrapeFuture pages forwards up to FutureMonths, mirroring scrapePast
func (h *Harvester) scrapeFuture() harvestState {
	for i := 0; i < h.cfg.FutureMonths; i++ {
		if !h.clicker.ClickAny("next month", nextMonthCandidates) {
			h.recordError(fmt.Sprintf("next month click failed after %d of %d months", i, h.cfg.FutureMonths))
			break
		}
		browser.DismissPopups(h.session)
		h.harvestPage(fmt.Sprintf("future_%d", i+1))
	}
	return stateDone
}

// harvestPage collects IDs from the currently shown calendar page. Failures
// here are recorded but never end the run.
func (h *Harvester) harvestPage(stage string) {
	html, err := h.session.HTML()
	if err != nil {
		h.recordError(fmt.Sprintf("failed to read page at %s: %v", stage, err))
		return
	}

	ids, err := ExtractMatchIDs(html)
	if err != nil {
		h.recordError(fmt.Sprintf("failed to extract IDs at %s: %v", stage, err))
		return
	}

	added := h.ids.AddAll(ids)
	h.log.Info().
		Str("stage", stage).
		Int("found", len(ids)).
		Int("new", added).
		Int("total", h.ids.Len()).
		Msg("Harvested page")
	h.debugShot(stage)
}

// waitFixtureList waits until at least one fixture link is visible
func (h *Harvester) waitFixtureList() error {
	var lastErr error
	for _, cand := range fixtureLinkCandidates {
		err := h.session.WaitVisible(cand.Selector(), h.cfg.ElementTimeout)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return lastErr
}

// recordError keeps a stage error on the result and logs it
func (h *Harvester) recordError(msg string) {
	h.log.Warn().Str("state", h.state.String()).Msg(msg)
	h.errs = append(h.errs, msg)
}

// debugShot saves a screenshot of the current page when debug output is on
func (h *Harvester) debugShot(stage string) {
	if !h.cfg.Debug {
		return
	}
	dir := filepath.Join(h.cfg.OutputDir, "debug")
	if err := helpers.EnsureDir(dir); err != nil {
		h.log.Debug().Err(err).Msg("Failed to create debug dir")
		return
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", h.cfg.LeagueSlug, stage))
	if err := h.session.Screenshot(path); err != nil {
		h.log.Debug().Err(err).Msg("Failed to capture debug screenshot")
	}
}

// finalize builds the result object. Errors collected along the way ride
// along regardless of the final state.
func (h *Harvester) finalize() *HarvestResult {
	ids := h.ids.Sorted()
	result := &HarvestResult{
		MatchIDs:            ids,
		Errors:              h.errs,
		LeagueSlug:          h.cfg.LeagueSlug,
		TotalUniqueFixtures: len(ids),
		ScrapeTimestamp:     h.now().UTC().Format(time.RFC3339),
	}
	if result.Errors == nil {
		result.Errors = []string{}
	}

	h.log.Info().
		Str("state", h.state.String()).
		Int("fixtures", result.TotalUniqueFixtures).
		Int("errors", len(result.Errors)).
		Msg("Harvest finished")
	return result
}
