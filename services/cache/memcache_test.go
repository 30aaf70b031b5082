package cache

import (
	"testing"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/stretchr/testify/assert"
)

// This test requires a running memcached instance
// If memcached is not available, the test will be skipped
func TestMemcacheMatchCache(t *testing.T) {
	mc := NewMemcacheMatchCache("localhost:11211")

	// Test if memcached is available
	_, err := mc.client.Get("test")
	if err != nil && err != memcache.ErrCacheMiss {
		t.Skip("Memcached is not available, skipping test")
	}

	const matchID = int64(1821372)

	// An unmarked match counts as not scraped
	assert.False(t, mc.WasScraped(matchID))

	// Mark the match and read the flag back
	err = mc.MarkScraped(matchID, 1*time.Second)
	assert.NoError(t, err)
	assert.True(t, mc.WasScraped(matchID))

	// Forget the match so the next cycle scrapes it again
	err = mc.Forget(matchID)
	assert.NoError(t, err)
	assert.False(t, mc.WasScraped(matchID))

	// Forgetting an already missing match is not an error
	assert.NoError(t, mc.Forget(matchID))
}
