package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/denisok6893-rgb/lokao-advisor/internal/logging"
	"github.com/denisok6893-rgb/lokao-advisor/internal/storage"
)

// StatusFailed marks a cached failed lookup.
const StatusFailed = "falha"

// Entry is one cached price lookup, or a failure marker.
type Entry struct {
	Value         float64 `json:"valor,omitempty"`
	Status        string  `json:"status,omitempty"`
	Source        string  `json:"fonte"`
	CollectedAt   string  `json:"coletado_em"`
	CooldownHours float64 `json:"cooldown_horas,omitempty"`
}

type Cache interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Put(ctx context.Context, key string, e Entry) error
}

// FileCache stores every entry in one JSON object.
type FileCache struct {
	path string
	log  *logging.Logger
	mu   sync.Mutex
}

func NewFileCache(path string, log *logging.Logger) *FileCache {
	return &FileCache{path: path, log: logging.OrNop(log).With("cache", "market_file")}
}

func (c *FileCache) load() map[string]Entry {
	out := map[string]Entry{}
	b, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.log.Warn("read market cache failed", "path", c.path, "error", err)
		}
		return out
	}
	if err := json.Unmarshal(b, &out); err != nil {
		c.log.Warn("market cache unreadable, ignoring", "path", c.path, "error", err)
		return map[string]Entry{}
	}
	return out
}

func (c *FileCache) Get(_ context.Context, key string) (Entry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.load()[key]
	return e, ok, nil
}

func (c *FileCache) Put(_ context.Context, key string, e Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	all := c.load()
	all[key] = e
	b, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal market cache: %w", err)
	}
	return storage.WriteFileAtomic(c.path, b)
}

// RedisCache keeps entries as JSON strings under prefix+key, expiring after ttl.
type RedisCache struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(ctx context.Context, addr, prefix string, ttl time.Duration) (*RedisCache, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisCache{rdb: rdb, prefix: prefix, ttl: ttl}, nil
}

func (c *RedisCache) Close() error { return c.rdb.Close() }

func (c *RedisCache) Get(ctx context.Context, key string) (Entry, bool, error) {
	raw, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis get: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (c *RedisCache) Put(ctx context.Context, key string, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	if err := c.rdb.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
