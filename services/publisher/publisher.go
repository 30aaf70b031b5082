package publisher

import (
	"matchworker/internal/scrape"
)

// Publisher pushes normalized match data onto downstream streams
type Publisher interface {
	// PublishFixture publishes one fixture record
	PublishFixture(fixture scrape.FixtureRecord) error

	// PublishMinutes publishes the per-minute rows of one match
	PublishMinutes(matchID int64, records []scrape.MinuteRecord) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams() error

	// Close closes the publisher connection
	Close() error
}
