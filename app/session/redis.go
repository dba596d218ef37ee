package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"todo-client/app/models"
)

type RedisConfig struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisStore keeps the session under two keys in Redis, for clients that
// share a signed-in session across machines.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and pings it once.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Address, err)
	}
	return &RedisStore{client: client, prefix: cfg.KeyPrefix}, nil
}

func (r *RedisStore) key(name string) string {
	return r.prefix + name
}

func (r *RedisStore) Load(ctx context.Context) (Session, error) {
	token, err := r.client.Get(ctx, r.key(TokenKey)).Result()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, err
	}

	s := Session{Token: token}
	raw, err := r.client.Get(ctx, r.key(UserKey)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return Session{}, err
	default:
		var u models.User
		if err := json.Unmarshal(raw, &u); err != nil {
			return Session{}, fmt.Errorf("decode %s: %w", UserKey, err)
		}
		s.User = &u
	}
	return s, nil
}

func (r *RedisStore) Save(ctx context.Context, s Session) error {
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.key(TokenKey), s.Token, 0)
	if s.User != nil {
		raw, err := json.Marshal(s.User)
		if err != nil {
			return err
		}
		pipe.Set(ctx, r.key(UserKey), raw, 0)
	} else {
		pipe.Del(ctx, r.key(UserKey))
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisStore) Clear(ctx context.Context) error {
	return r.client.Del(ctx, r.key(TokenKey), r.key(UserKey)).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
