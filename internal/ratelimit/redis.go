package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis is a Limiter shared by every API instance. Each user's calls live in
// a sorted set scored by unix nanoseconds.
type Redis struct {
	client *redis.Client
	limits Limits
	prefix string
	now    func() time.Time
}

// RedisConfig holds connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedis connects and pings the server.
func NewRedis(cfg RedisConfig, l Limits) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Redis{client: client, limits: l, prefix: "ratelimit:ai:", now: time.Now}, nil
}

// Close releases the connection pool.
func (r *Redis) Close() error { return r.client.Close() }

func (r *Redis) key(userID int) string {
	return r.prefix + strconv.Itoa(userID)
}

// window trims calls older than an hour and returns the remaining stamps,
// oldest first.
func (r *Redis) window(ctx context.Context, key string, now time.Time) ([]time.Time, error) {
	hourAgo := strconv.FormatInt(now.Add(-time.Hour).UnixNano(), 10)

	var members *redis.ZSliceCmd
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRemRangeByScore(ctx, key, "-inf", hourAgo)
		members = p.ZRangeWithScores(ctx, key, 0, -1)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read window: %w", err)
	}

	zs := members.Val()
	stamps := make([]time.Time, len(zs))
	for i, z := range zs {
		stamps[i] = time.Unix(0, int64(z.Score))
	}
	return stamps, nil
}

func (r *Redis) Allow(ctx context.Context, userID int) error {
	key := r.key(userID)
	now := r.now()

	stamps, err := r.window(ctx, key, now)
	if err != nil {
		return err
	}
	if err := check(r.limits, stamps, now); err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
		p.Expire(ctx, key, time.Hour)
		return nil
	})
	if err != nil {
		return fmt.Errorf("record call: %w", err)
	}
	return nil
}

func (r *Redis) Remaining(ctx context.Context, userID int) (Quota, error) {
	now := r.now()
	stamps, err := r.window(ctx, r.key(userID), now)
	if err != nil {
		return Quota{}, err
	}
	return quota(r.limits, stamps, now), nil
}
