package publisher

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strconv"

	"math/rand"

	"matchworker/internal/scrape"
	"matchworker/logger"
	"matchworker/pkg/errors"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher implements Publisher on sharded Redis streams. Fixture and
// minute payloads ride the same streams under different field names so one
// consumer group can follow a match end to end.
type RedisPublisher struct {
	client          *redis.Client
	ctx             context.Context
	streamPrefix    string
	streamCount     int
	streamMaxLength int
	log             *logger.Logger
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(ctx context.Context, addr string, db int, streamPrefix string, streamCount int, streamMaxLength int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client:          client,
		ctx:             ctx,
		streamPrefix:    streamPrefix,
		streamCount:     streamCount,
		streamMaxLength: streamMaxLength,
		log:             logger.ForPublisher(),
	}
}

// PublishFixture publishes one fixture record
func (p *RedisPublisher) PublishFixture(fixture scrape.FixtureRecord) error {
	payload, err := json.Marshal(fixture)
	if err != nil {
		return errors.NewPublisher("fixture", "failed to encode fixture", err)
	}
	return p.publish("fixture", payload)
}

// PublishMinutes publishes the per-minute rows of one match as one message.
// A match without minute data publishes nothing.
func (p *RedisPublisher) PublishMinutes(matchID int64, records []scrape.MinuteRecord) error {
	if len(records) == 0 {
		return nil
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return errors.NewPublisher("minutes", "failed to encode minute rows", err)
	}
	p.log.Debug().Int64("match_id", matchID).Int("minutes", len(records)).Msg("Publishing minute rows")
	return p.publish("minutes", payload)
}

// publish base64-encodes the payload and appends it to one of the match
// streams, chosen at random to spread consumer load across the shards
func (p *RedisPublisher) publish(field string, payload []byte) error {
	encoded := base64.StdEncoding.EncodeToString(payload)
	stream := p.streamPrefix + ":" + strconv.Itoa(rand.Intn(p.streamCount))

	return p.client.XAdd(p.ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			field: encoded,
		},
	}).Err()
}

// TrimStreams trims every match stream to the configured maximum length
func (p *RedisPublisher) TrimStreams() error {
	pattern := p.streamPrefix + ":*"
	streams, err := p.client.Keys(p.ctx, pattern).Result()
	if err != nil {
		return errors.NewPublisher("trim", "failed to list streams", err)
	}

	for _, stream := range streams {
		if err := p.client.XTrimMaxLen(p.ctx, stream, int64(p.streamMaxLength)).Err(); err != nil {
			return errors.NewPublisher("trim", "failed to trim "+stream, err)
		}
	}
	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
