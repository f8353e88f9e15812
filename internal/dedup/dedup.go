// Package dedup keeps the cross-run history of reported dedup keys in Redis so
// that periodic correlation runs do not re-alert on pairs already handled.
package dedup

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/contracts"
)

const keyPrefix = "dedup:"

// NewClient creates a Redis client and verifies the connection with a PING.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

type Store struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewStore(rdb redis.Cmdable, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// Snapshot looks up which of the candidate keys were already reported and
// returns them as an in-memory set the engine can consult synchronously.
func (s *Store) Snapshot(ctx context.Context, candidates []contracts.DedupKey) (Snapshot, error) {
	snap := make(Snapshot)
	if len(candidates) == 0 {
		return snap, nil
	}

	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.IntCmd, len(candidates))
	for i, k := range candidates {
		cmds[i] = pipe.Exists(ctx, RedisKey(k))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("check dedup history: %w", err)
	}

	for i, cmd := range cmds {
		if cmd.Val() > 0 {
			snap[candidates[i]] = struct{}{}
		}
	}
	return snap, nil
}

// Remember records keys so later runs skip them until the TTL lapses.
func (s *Store) Remember(ctx context.Context, keys []contracts.DedupKey) error {
	if len(keys) == 0 {
		return nil
	}
	pipe := s.rdb.Pipeline()
	now := time.Now().UTC().Format(time.RFC3339)
	for _, k := range keys {
		pipe.SetNX(ctx, RedisKey(k), now, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("remember dedup keys: %w", err)
	}
	return nil
}

// Forget drops every remembered key and returns how many were removed.
func (s *Store) Forget(ctx context.Context) (int64, error) {
	var deleted int64
	iter := s.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return deleted, fmt.Errorf("delete key %s: %w", iter.Val(), err)
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("scan dedup keys: %w", err)
	}
	return deleted, nil
}

// RedisKey hashes the dedup key so free-form locations stay within safe key
// lengths and characters.
func RedisKey(k contracts.DedupKey) string {
	hash := sha256.Sum256([]byte(k.String()))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

// Candidates enumerates every dedup key a run over these inputs could emit.
func Candidates(disruptions []contracts.DisruptionEvent, inventory []contracts.ShipmentRecord) []contracts.DedupKey {
	seen := make(map[contracts.DedupKey]struct{}, len(disruptions)*len(inventory))
	keys := make([]contracts.DedupKey, 0, len(disruptions)*len(inventory))
	for _, s := range inventory {
		for _, d := range disruptions {
			k := d.DedupKey(s.ProductID)
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return keys
}

type Snapshot map[contracts.DedupKey]struct{}

func (s Snapshot) Contains(key contracts.DedupKey) bool {
	_, ok := s[key]
	return ok
}
