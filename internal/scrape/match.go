package scrape

import (
	"fmt"
	"os"
	"time"

	"matchworker/helpers"
	"matchworker/internal/browser"
	"matchworker/logger"
)

// DefaultMatchURLTemplate builds a match page URL from an ID
const DefaultMatchURLTemplate = "https://www.whoscored.com/matches/%d/live"

// MatchConfig configures per-match extraction
type MatchConfig struct {
	URLTemplate    string
	ElementTimeout time.Duration
	SettleDelay    time.Duration
	OutputDir      string
}

// MatchFetcher loads a match page and extracts its match-centre object
type MatchFetcher struct {
	session browser.Session
	cfg     MatchConfig
}

// NewMatchFetcher creates a fetcher over the session
func NewMatchFetcher(session browser.Session, cfg MatchConfig) *MatchFetcher {
	if cfg.URLTemplate == "" {
		cfg.URLTemplate = DefaultMatchURLTemplate
	}
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = 2 * time.Second
	}
	return &MatchFetcher{session: session, cfg: cfg}
}

// Fetch loads the match page and returns the resolved match-centre object.
// On a parse failure the raw and repaired literals are dumped next to the
// other output files before the error is returned.
func (f *MatchFetcher) Fetch(matchID int64) (map[string]interface{}, error) {
	log := logger.ForMatch(matchID)

	url := fmt.Sprintf(f.cfg.URLTemplate, matchID)
	if err := f.session.Load(url); err != nil {
		return nil, err
	}
	if f.cfg.ElementTimeout > 0 {
		// best effort: the payload script rides along even when the
		// container never renders
		if err := f.session.WaitVisible("#layout-wrapper", f.cfg.ElementTimeout); err != nil {
			log.Debug().Err(err).Msg("Match container wait timed out")
		}
	}
	f.session.Sleep(f.cfg.SettleDelay)

	html, err := f.session.HTML()
	if err != nil {
		return nil, err
	}

	raw, pattern, err := ExtractPayload(html)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("pattern", pattern).Int("bytes", len(raw)).Msg("Payload located")

	payload, repaired, err := ParseLiteral(raw)
	if err != nil {
		f.dumpDiagnostics(matchID, raw, repaired, log)
		return nil, err
	}

	data, err := ResolveMatchData(payload)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// dumpDiagnostics writes the raw and repaired literals for offline inspection
func (f *MatchFetcher) dumpDiagnostics(matchID int64, raw, repaired string, log *logger.Logger) {
	if err := helpers.EnsureDir(f.cfg.OutputDir); err != nil {
		log.Warn().Err(err).Msg("Failed to create diagnostics dir")
		return
	}

	rawPath, repairedPath := helpers.DiagnosticPaths(f.cfg.OutputDir, matchID)
	if err := os.WriteFile(rawPath, []byte(raw), 0644); err != nil {
		log.Warn().Err(err).Msg("Failed to write raw dump")
	}
	if err := os.WriteFile(repairedPath, []byte(repaired), 0644); err != nil {
		log.Warn().Err(err).Msg("Failed to write repaired dump")
	}
	log.Warn().
		Str("raw", rawPath).
		Str("repaired", repairedPath).
		Msg("Parse failed, diagnostics dumped")
}
