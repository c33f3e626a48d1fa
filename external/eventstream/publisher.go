package eventstream

import (
	"context"
	"fmt"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/riskibarqy/matchsync/internal/domain/match"
	"github.com/riskibarqy/matchsync/internal/platform/logging"
)

// StreamClient is the subset of *redis.Client the publisher needs.
type StreamClient interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

type Config struct {
	Stream string
	// MaxLen trims the stream approximately; zero keeps every entry.
	MaxLen int64
	Logger *logging.Logger
}

// RedisPublisher appends match events to a Redis stream, one entry per event.
type RedisPublisher struct {
	client StreamClient
	stream string
	maxLen int64
	logger *logging.Logger
	now    func() time.Time
}

func NewRedisPublisher(client StreamClient, cfg Config) *RedisPublisher {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	stream := strings.TrimSpace(cfg.Stream)
	if stream == "" {
		stream = "matchsync:events"
	}
	return &RedisPublisher{
		client: client,
		stream: stream,
		maxLen: max(cfg.MaxLen, 0),
		logger: logger,
		now:    time.Now,
	}
}

// Dial connects to redisURL and checks the connection before returning.
func Dial(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Publish stops at the first failed append and reports how far it got.
func (p *RedisPublisher) Publish(ctx context.Context, events []match.Event) error {
	for i, event := range events {
		data, err := sonic.Marshal(event)
		if err != nil {
			return fmt.Errorf("encode %s event for match %d: %w", event.Type, event.MatchID, err)
		}

		occurredAt := event.OccurredAt
		if occurredAt.IsZero() {
			occurredAt = p.now()
		}

		args := &redis.XAddArgs{
			Stream: p.stream,
			Values: map[string]any{
				"type":      string(event.Type),
				"game":      event.Game,
				"data":      string(data),
				"timestamp": occurredAt.Unix(),
			},
		}
		if p.maxLen > 0 {
			args.MaxLen = p.maxLen
			args.Approx = true
		}

		if err := p.client.XAdd(ctx, args).Err(); err != nil {
			return fmt.Errorf("xadd %s (%d of %d published): %w", p.stream, i, len(events), err)
		}
	}

	if len(events) > 0 {
		p.logger.DebugContext(ctx, "published match events", "stream", p.stream, "count", len(events))
	}
	return nil
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, []match.Event) error {
	return nil
}
