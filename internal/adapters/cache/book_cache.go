package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"libralend/internal/adapters/persistence/models"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const (
	redisTTL      = 5 * time.Minute
	memoryTTL     = time.Minute
	memorySweep   = 2 * time.Minute
	keyPrefix     = "book:"
	redisPoolSize = 10
)

// ConnectRedis opens a redis client for the book cache. Redis is optional:
// when the ping fails the cache runs in-memory only and the service keeps
// working, so the error is logged and nil is returned.
func ConnectRedis(ctx context.Context, addr string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		PoolSize: redisPoolSize,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, book cache is in-memory only", "addr", addr, "error", err)
		_ = client.Close()
		return nil
	}

	slog.Info("redis connected", "addr", addr)
	return client
}

// CloseRedis closes the redis client if one was connected
func CloseRedis(client *redis.Client) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		slog.Warn("redis close failed", "error", err)
	}
}

// BookCache is a two-level read-through cache for book metadata: a short
// in-process TTL cache in front of redis. Best-effort only; redis errors
// degrade to misses and are never surfaced to callers.
type BookCache struct {
	redis  *redis.Client
	memory *gocache.Cache
	logger *slog.Logger
}

// NewBookCache creates a book cache. redisClient may be nil.
func NewBookCache(redisClient *redis.Client) *BookCache {
	return &BookCache{
		redis:  redisClient,
		memory: gocache.New(memoryTTL, memorySweep),
		logger: slog.Default().With("component", "book_cache"),
	}
}

// cachedBook is the wire shape stored in redis
type cachedBook struct {
	ID     uint    `json:"id"`
	Title  string  `json:"title"`
	Author string  `json:"author"`
	ISBN   *string `json:"isbn,omitempty"`
}

func cacheKey(bookID uint) string {
	return keyPrefix + strconv.FormatUint(uint64(bookID), 10)
}

// Get looks the book up in memory first, then redis
func (c *BookCache) Get(ctx context.Context, bookID uint) (*models.Book, bool) {
	key := cacheKey(bookID)

	if v, ok := c.memory.Get(key); ok {
		return v.(*models.Book), true
	}

	if c.redis != nil {
		data, err := c.redis.Get(ctx, key).Bytes()
		if err == nil {
			var cb cachedBook
			if err := json.Unmarshal(data, &cb); err == nil {
				book := &models.Book{
					ID:     cb.ID,
					Title:  cb.Title,
					Author: cb.Author,
					ISBN:   cb.ISBN,
				}
				c.memory.Set(key, book, gocache.DefaultExpiration)
				return book, true
			}
		} else if err != redis.Nil {
			c.logger.Warn("redis get failed", "book_id", bookID, "error", err)
		}
	}

	return nil, false
}

// Set stores the book in memory and redis
func (c *BookCache) Set(ctx context.Context, book *models.Book) {
	key := cacheKey(book.ID)
	c.memory.Set(key, book, gocache.DefaultExpiration)

	if c.redis == nil {
		return
	}

	data, err := json.Marshal(cachedBook{
		ID:     book.ID,
		Title:  book.Title,
		Author: book.Author,
		ISBN:   book.ISBN,
	})
	if err != nil {
		return
	}

	if err := c.redis.Set(ctx, key, data, redisTTL).Err(); err != nil {
		c.logger.Warn("redis set failed", "book_id", book.ID, "error", err)
	}
}

// Delete evicts the book from redis; the in-memory entry expires via TTL
func (c *BookCache) Delete(ctx context.Context, bookID uint) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, cacheKey(bookID)).Err(); err != nil {
		c.logger.Warn("redis delete failed", "book_id", bookID, "error", err)
	}
}
