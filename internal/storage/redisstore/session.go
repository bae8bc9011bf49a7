package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainErrors "github.com/polkiloo/farmsupply/internal/domain/errors"
	"github.com/polkiloo/farmsupply/internal/domain/model"
)

// DefaultKey is where the console session is stored.
const DefaultKey = "farmsupply:console:session"

type commander interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type sessionPayload struct {
	ID       string    `json:"id"`
	UserID   int64     `json:"userId"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	Token    string    `json:"token"`
	SavedAt  time.Time `json:"savedAt"`
}

// SessionStore keeps the session in Redis with a TTL so an abandoned session expires.
type SessionStore struct {
	client commander
	closer func() error
	key    string
	ttl    time.Duration
}

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Open connects to Redis and checks the connection.
func Open(ctx context.Context, opts Options) (*SessionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &SessionStore{client: client, closer: client.Close, key: DefaultKey, ttl: opts.TTL}, nil
}

// Close closes the client when the store owns it.
func (s *SessionStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

func (s *SessionStore) Save(ctx context.Context, rec model.SessionRecord) error {
	data, err := json.Marshal(sessionPayload{
		ID:       rec.ID,
		UserID:   rec.Principal.ID,
		Username: rec.Principal.Username,
		Role:     string(rec.Principal.Role),
		Token:    rec.Token,
		SavedAt:  rec.SavedAt,
	})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Load(ctx context.Context) (model.SessionRecord, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.SessionRecord{}, domainErrors.ErrNotFound
		}
		return model.SessionRecord{}, fmt.Errorf("load session: %w", err)
	}
	var p sessionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return model.SessionRecord{}, fmt.Errorf("decode session: %w", err)
	}
	return model.SessionRecord{
		ID:        p.ID,
		Principal: model.Principal{ID: p.UserID, Username: p.Username, Role: model.Role(p.Role)},
		Token:     p.Token,
		SavedAt:   p.SavedAt,
	}, nil
}

func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
