package worker

import (
	"time"

	"matchworker/internal/scrape"
	"matchworker/logger"
	"matchworker/services/cache"
	"matchworker/services/publisher"
	"matchworker/services/store"
)

// HarvestRunner produces the set of match IDs to extract
type HarvestRunner interface {
	Run() *scrape.HarvestResult
}

// MatchFetcher loads one match page and returns its match-centre object
type MatchFetcher interface {
	Fetch(matchID int64) (map[string]interface{}, error)
}

// Config holds the worker knobs
type Config struct {
	OutputDir string
	FetchTTL  time.Duration
	Interval  time.Duration
}

// Worker drives full scrape cycles: harvest the calendar, then extract,
// store and publish every collected match. Matches marked in the cache are
// skipped until their TTL runs out.
type Worker struct {
	harvester HarvestRunner
	fetcher   MatchFetcher
	store     store.Store
	cacheSvc  cache.MatchCache
	pub       publisher.Publisher
	cfg       Config
	log       *logger.Logger
	now       func() time.Time
}

// NewWorker creates a worker. The store, cache and publisher may each be nil,
// in which case that side effect is skipped.
func NewWorker(
	harvester HarvestRunner,
	fetcher MatchFetcher,
	st store.Store,
	cacheSvc cache.MatchCache,
	pub publisher.Publisher,
	cfg Config,
) *Worker {
	return &Worker{
		harvester: harvester,
		fetcher:   fetcher,
		store:     st,
		cacheSvc:  cacheSvc,
		pub:       pub,
		cfg:       cfg,
		log:       logger.ForWorker(),
		now:       time.Now,
	}
}

// Start runs scrape cycles until the process is stopped
func (w *Worker) Start() error {
	for {
		start := time.Now()
		if err := w.RunOnce(); err != nil {
			w.log.Error().Err(err).Msg("Scrape cycle failed")
		}
		w.log.Info().Dur("elapsed", time.Since(start)).Msg("Scrape cycle finished")
		time.Sleep(w.cfg.Interval)
	}
}

// RunOnce performs one full cycle
func (w *Worker) RunOnce() error {
	result := w.harvester.Run()

	jsonPath, idsPath, err := scrape.WriteArtifacts(result, w.cfg.OutputDir)
	if err != nil {
		w.log.Error().Err(err).Msg("Failed to write harvest artifacts")
	} else {
		w.log.Info().Str("summary", jsonPath).Str("ids", idsPath).Msg("Harvest artifacts written")
	}

	processed, skipped, failed := 0, 0, 0
	for _, matchID := range result.MatchIDs {
		if w.recentlyScraped(matchID) {
			skipped++
			continue
		}
		if err := w.ProcessMatch(matchID); err != nil {
			failed++
			w.log.Error().Err(err).Int64("match_id", matchID).Msg("Match extraction failed")
			continue
		}
		processed++
	}

	if w.pub != nil {
		if err := w.pub.TrimStreams(); err != nil {
			w.log.Error().Err(err).Msg("Stream trimming failed")
		}
	}

	w.log.Info().
		Int("harvested", len(result.MatchIDs)).
		Int("processed", processed).
		Int("skipped", skipped).
		Int("failed", failed).
		Int("harvest_errors", len(result.Errors)).
		Msg("Cycle summary")
	return nil
}

// ProcessMatch extracts, normalizes, stores and publishes a single match
func (w *Worker) ProcessMatch(matchID int64) error {
	data, err := w.fetcher.Fetch(matchID)
	if err != nil {
		return err
	}

	capturedAt := w.now()
	fixture := scrape.BuildFixtureRecord(matchID, data, capturedAt)
	minutes := scrape.BuildMinuteRecords(matchID, data, capturedAt)

	if w.store != nil {
		if err := w.store.UpsertFixture(fixture); err != nil {
			return err
		}
		if err := w.store.UpsertMinuteRecords(minutes); err != nil {
			return err
		}
	}

	if w.pub != nil {
		if err := w.pub.PublishFixture(fixture); err != nil {
			w.log.Error().Err(err).Int64("match_id", matchID).Msg("Fixture publish failed")
		}
		if err := w.pub.PublishMinutes(matchID, minutes); err != nil {
			w.log.Error().Err(err).Int64("match_id", matchID).Msg("Minutes publish failed")
		}
	}

	w.markScraped(matchID)
	w.log.Info().
		Int64("match_id", matchID).
		Str("home", fixture.HomeTeamName).
		Str("away", fixture.AwayTeamName).
		Int("minutes", len(minutes)).
		Msg("Match scraped")
	return nil
}

// recentlyScraped reports whether the match was scraped within the TTL
func (w *Worker) recentlyScraped(matchID int64) bool {
	if w.cacheSvc == nil {
		return false
	}
	return w.cacheSvc.WasScraped(matchID)
}

// markScraped flags the match so reruns skip it until the TTL runs out
func (w *Worker) markScraped(matchID int64) {
	if w.cacheSvc == nil {
		return
	}
	if err := w.cacheSvc.MarkScraped(matchID, w.cfg.FetchTTL); err != nil {
		w.log.Warn().Err(err).Int64("match_id", matchID).Msg("Failed to mark match in cache")
	}
}
