package auth

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/oauth2"
)

// TokenCache stores access tokens by cache key
//
// Token returns ErrNoToken if there is no token for the key.
type TokenCache interface {
	Token(ctx context.Context, key string) (*oauth2.Token, error)
	PutToken(ctx context.Context, key string, t *oauth2.Token) error
	DeleteToken(ctx context.Context, key string) error
}

// DefaultCache is the process wide cache used when no other cache is configured
var DefaultCache = NewMemoryCache()

// MemoryCache is an in-process TokenCache
type MemoryCache struct {
	m sync.RWMutex
	t map[string]*oauth2.Token
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{t: make(map[string]*oauth2.Token)}
}

func (c *MemoryCache) Token(_ context.Context, key string) (*oauth2.Token, error) {
	c.m.RLock()
	token := c.t[key]
	c.m.RUnlock()
	if token == nil {
		return nil, ErrNoToken
	}
	return token, nil
}

func (c *MemoryCache) PutToken(_ context.Context, key string, t *oauth2.Token) error {
	c.m.Lock()
	c.t[key] = t
	c.m.Unlock()
	return nil
}

func (c *MemoryCache) DeleteToken(_ context.Context, key string) error {
	c.m.Lock()
	delete(c.t, key)
	c.m.Unlock()
	return nil
}

// RedisCache shares tokens between processes through redis
type RedisCache struct {
	client redis.Cmdable
	prefix string
}

// NewRedisCache creates a cache storing tokens under prefix+key
func NewRedisCache(client redis.Cmdable, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

// NewRedisClient creates the redis client for a RedisCache
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MaxRetries:   2,
	})
}

type storedToken struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	Expiry      time.Time `json:"expiry"`
}

func encodeToken(t *oauth2.Token) ([]byte, error) {
	return json.Marshal(storedToken{
		AccessToken: t.AccessToken,
		TokenType:   t.TokenType,
		Expiry:      t.Expiry,
	})
}

func decodeToken(b []byte) (*oauth2.Token, error) {
	st := storedToken{}
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: st.AccessToken,
		TokenType:   st.TokenType,
		Expiry:      st.Expiry,
	}, nil
}

// ttl returns how long the token should be kept. The second return value is false
// if the token is already expired.
func ttl(t *oauth2.Token, now time.Time) (time.Duration, bool) {
	if t.Expiry.IsZero() {
		return 0, true
	}
	d := t.Expiry.Sub(now)
	return d, d > 0
}

func (c *RedisCache) Token(ctx context.Context, key string) (*oauth2.Token, error) {
	b, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, err
	}
	return decodeToken(b)
}

func (c *RedisCache) PutToken(ctx context.Context, key string, t *oauth2.Token) error {
	exp, ok := ttl(t, time.Now())
	if !ok {
		return nil
	}
	b, err := encodeToken(t)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, b, exp).Err()
}

func (c *RedisCache) DeleteToken(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}
