// Package publish fans out actionable signal decisions to Redis so other
// processes can read the latest decision per ticker or subscribe to the
// stream.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/rustyeddy/gridsniper/strategies"
)

var ErrNoSignal = errors.New("no signal published")

// Signal is the published form of a decision.
type Signal struct {
	Ticker   string              `json:"ticker"`
	Decision strategies.Decision `json:"decision"`
	At       time.Time           `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, s Signal) error
}

// Nop discards signals. It is used when Redis is not configured.
type Nop struct{}

func (Nop) Publish(context.Context, Signal) error { return nil }

type RedisPublisher struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedis wraps rdb. Keys are written under prefix and expire after ttl;
// ttl <= 0 keeps them forever.
func NewRedis(rdb redis.UniversalClient, prefix string, ttl time.Duration) *RedisPublisher {
	if prefix == "" {
		prefix = "gridsniper"
	}
	return &RedisPublisher{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (p *RedisPublisher) key(ticker string) string {
	return fmt.Sprintf("%s:signal:%s", p.prefix, ticker)
}

// Channel is the pub/sub channel every signal is published on.
func (p *RedisPublisher) Channel() string {
	return p.prefix + ":signals"
}

// Publish stores s as the latest signal for its ticker and announces it.
func (p *RedisPublisher) Publish(ctx context.Context, s Signal) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode signal %s: %w", s.Ticker, err)
	}

	ttl := p.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := p.rdb.Set(ctx, p.key(s.Ticker), b, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.Ticker, err)
	}
	if err := p.rdb.Publish(ctx, p.Channel(), b).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", s.Ticker, err)
	}
	return nil
}

// Latest reads back the last signal published for ticker.
func (p *RedisPublisher) Latest(ctx context.Context, ticker string) (Signal, error) {
	b, err := p.rdb.Get(ctx, p.key(ticker)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Signal{}, fmt.Errorf("%w for %s", ErrNoSignal, ticker)
	}
	if err != nil {
		return Signal{}, fmt.Errorf("redis get %s: %w", ticker, err)
	}

	var s Signal
	if err := json.Unmarshal(b, &s); err != nil {
		return Signal{}, fmt.Errorf("decode signal %s: %w", ticker, err)
	}
	return s, nil
}

func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}
