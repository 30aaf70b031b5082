package store

import (
	"matchworker/internal/scrape"
)

// Store persists normalized match data
type Store interface {
	// Migrate creates the schema when it does not exist yet
	Migrate() error

	// UpsertFixture inserts or updates one fixture row
	UpsertFixture(fixture scrape.FixtureRecord) error

	// UpsertMinuteRecords inserts or updates the per-minute rows of a match
	UpsertMinuteRecords(records []scrape.MinuteRecord) error

	// Close releases the underlying connections
	Close() error
}
