package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/robalobadob/wordsearch/internal/game"
)

// ErrConflict is returned when a redis update keeps losing optimistic
// races with concurrent writers.
var ErrConflict = errors.New("store: concurrent update, retry")

const (
	redisPrefix       = "wordsearch:"
	redisMaxTxRetries = 5
	DefaultRedisTTL   = 7 * 24 * time.Hour
)

// redisStore keeps each game as a JSON string with a TTL, plus a sorted set
// per owner (score = creation time) for listing.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to addr and verifies the connection.
func NewRedisStore(ctx context.Context, addr, password string, ttl time.Duration) (Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return NewRedisStoreFromClient(client, ttl), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	return &redisStore{client: client, ttl: ttl}
}

func gameKey(id string) string     { return redisPrefix + "game:" + id }
func ownerKey(owner string) string { return redisPrefix + "owner:" + owner }

func (r *redisStore) Create(ctx context.Context, g *game.Game) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode game: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, gameKey(g.ID), data, r.ttl)
		if g.OwnerID != "" {
			pipe.ZAdd(ctx, ownerKey(g.OwnerID), redis.Z{
				Score:  float64(g.CreatedAt.UnixNano()),
				Member: g.ID,
			})
			pipe.Expire(ctx, ownerKey(g.OwnerID), r.ttl)
		}
		return nil
	})
	return err
}

func (r *redisStore) Get(ctx context.Context, id string) (*game.Game, error) {
	data, err := r.client.Get(ctx, gameKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeGame(data)
}

// Update uses WATCH/MULTI: if another writer touches the key between read
// and write, the transaction aborts and is retried.
func (r *redisStore) Update(ctx context.Context, id string, fn func(*game.Game) error) (*game.Game, error) {
	key := gameKey(id)
	var out *game.Game
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		g, err := decodeGame(data)
		if err != nil {
			return err
		}
		if err := fn(g); err != nil {
			return err
		}
		next, err := json.Marshal(g)
		if err != nil {
			return fmt.Errorf("encode game: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, redis.KeepTTL)
			return nil
		})
		if err == nil {
			out = g
		}
		return err
	}

	for i := 0; i < redisMaxTxRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, ErrConflict
}

func (r *redisStore) ListByOwner(ctx context.Context, ownerID string, limit int) ([]*game.Game, error) {
	ids, err := r.client.ZRevRange(ctx, ownerKey(ownerID), 0, int64(clampLimit(limit))-1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*game.Game{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = gameKey(id)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*game.Game, 0, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue // expired
		}
		g, err := decodeGame([]byte(s))
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// ClaimOwner re-owns each game through Update, then moves its entry from
// the old owner's set to the new one with the same creation score.
func (r *redisStore) ClaimOwner(ctx context.Context, from, to string) error {
	if from == "" || to == "" || from == to {
		return nil
	}
	members, err := r.client.ZRangeWithScores(ctx, ownerKey(from), 0, -1).Result()
	if err != nil {
		return err
	}
	for _, z := range members {
		id, _ := z.Member.(string)
		_, err := r.Update(ctx, id, func(g *game.Game) error {
			g.OwnerID = to
			return nil
		})
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		claimed := err == nil // an expired game only loses its stale index entry
		_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if claimed {
				pipe.ZAdd(ctx, ownerKey(to), redis.Z{Score: z.Score, Member: id})
				pipe.Expire(ctx, ownerKey(to), r.ttl)
			}
			pipe.ZRem(ctx, ownerKey(from), id)
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *redisStore) Close() error { return r.client.Close() }

func decodeGame(data []byte) (*game.Game, error) {
	var g game.Game
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decode game: %w", err)
	}
	return &g, nil
}
