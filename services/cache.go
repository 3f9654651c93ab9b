package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const scrapeCacheTTL = 24 * time.Hour

// ScrapeCache keeps extraction results in Redis so repeated scrapes of the
// same page skip the upstream fetch. All operations are best-effort: cache
// failures are logged and treated as misses, never surfaced to the caller.
type ScrapeCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewScrapeCache(client *redis.Client) *ScrapeCache {
	return &ScrapeCache{client: client, ttl: scrapeCacheTTL}
}

// Key builds the cache key for a page URL. URLs can be long and contain
// characters Redis keys should avoid, so the URL is hashed.
func (c *ScrapeCache) Key(pageURL string) string {
	sum := sha1.Sum([]byte(pageURL))
	return "scrape:" + hex.EncodeToString(sum[:])
}

func (c *ScrapeCache) Get(ctx context.Context, pageURL string) (*ScrapeResult, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, c.Key(pageURL)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("Scrape cache read failed for %s: %v", pageURL, err)
		}
		return nil, false
	}

	var result ScrapeResult
	if err := json.Unmarshal(data, &result); err != nil {
		log.Printf("Scrape cache entry corrupt for %s: %v", pageURL, err)
		return nil, false
	}

	return &result, true
}

func (c *ScrapeCache) Set(ctx context.Context, pageURL string, result *ScrapeResult) {
	if c == nil || c.client == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		log.Printf("Scrape cache encode failed for %s: %v", pageURL, err)
		return
	}

	if err := c.client.Set(ctx, c.Key(pageURL), data, c.ttl).Err(); err != nil {
		log.Printf("Scrape cache write failed for %s: %v", pageURL, err)
	}
}
