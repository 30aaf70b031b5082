package cache

import (
	"fmt"
	"time"

	"matchworker/logger"

	"github.com/bradfitz/gomemcache/memcache"
)

// MemcacheMatchCache implements MatchCache on memcached
type MemcacheMatchCache struct {
	client *memcache.Client
	log    *logger.Logger
}

// NewMemcacheMatchCache creates a match cache backed by the given memcached
// server
func NewMemcacheMatchCache(serverAddr string) *MemcacheMatchCache {
	return &MemcacheMatchCache{
		client: memcache.New(serverAddr),
		log:    logger.ForCache(),
	}
}

func matchKey(matchID int64) string {
	return fmt.Sprintf("match_scraped_%d", matchID)
}

// WasScraped reports whether the match was marked within its TTL. Any cache
// error counts as a miss so the match gets scraped again.
func (m *MemcacheMatchCache) WasScraped(matchID int64) bool {
	_, err := m.client.Get(matchKey(matchID))
	if err == nil {
		m.log.Debug().Int64("match_id", matchID).Msg("Match scraped recently")
		return true
	}
	return false
}

// MarkScraped marks the match as scraped for the given TTL
func (m *MemcacheMatchCache) MarkScraped(matchID int64, ttl time.Duration) error {
	return m.client.Set(&memcache.Item{
		Key:        matchKey(matchID),
		Value:      []byte("1"),
		Expiration: int32(ttl.Seconds()),
	})
}

// Forget drops the mark. A missing key is not an error.
func (m *MemcacheMatchCache) Forget(matchID int64) error {
	err := m.client.Delete(matchKey(matchID))
	if err == memcache.ErrCacheMiss {
		return nil
	}
	return err
}
