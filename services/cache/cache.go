package cache

import (
	"time"
)

// MatchCache remembers which matches were scraped recently so repeat cycles
// can skip them until the TTL runs out
type MatchCache interface {
	// WasScraped reports whether the match was marked within its TTL
	WasScraped(matchID int64) bool

	// MarkScraped marks the match as scraped for the given TTL
	MarkScraped(matchID int64, ttl time.Duration) error

	// Forget drops the mark so the next cycle scrapes the match again
	Forget(matchID int64) error
}
