package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"sciquiz-service/internal/domain"
	"sciquiz-service/internal/questions"
)

// CachedSource caches generated question sets in Redis (hash per request) and
// falls back to the inner source on cache miss.
// Questions are stored as: HSET set:{requestKey} {index} {question JSON}
type CachedSource struct {
	client *redis.Client
	inner  questions.Source
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCachedSource(client *redis.Client, inner questions.Source, ttl time.Duration) *CachedSource {
	return &CachedSource{
		client: client,
		inner:  inner,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CachedSource) Generate(ctx context.Context, req questions.Request) ([]domain.Question, error) {
	key := c.setKey(req)

	fields, err := c.client.HGetAll(ctx, key).Result()
	if err == nil && len(fields) > 0 {
		return buildSetFromCache(fields)
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		fields, err := c.client.HGetAll(ctx, key).Result()
		if err == nil && len(fields) > 0 {
			set, err := buildSetFromCache(fields)
			if err != nil {
				return nil, err
			}
			return set, nil
		}

		set, err := c.inner.Generate(ctx, req)
		if err != nil {
			return nil, err
		}

		ttl := c.ttlWithJitter()
		pipe := c.client.Pipeline()
		for i, q := range set {
			raw, err := json.Marshal(q)
			if err != nil {
				return nil, fmt.Errorf("marshal question: %w", err)
			}
			pipe.HSet(ctx, key, strconv.Itoa(i), raw)
		}
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return set, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *CachedSource) setKey(req questions.Request) string {
	return "set:" + req.Key()
}

func buildSetFromCache(fields map[string]string) ([]domain.Question, error) {
	indexes := make([]int, 0, len(fields))
	byIndex := make(map[int]domain.Question, len(fields))
	for field, raw := range fields {
		i, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("bad cache field %q: %w", field, err)
		}
		var q domain.Question
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			return nil, fmt.Errorf("unmarshal question: %w", err)
		}
		indexes = append(indexes, i)
		byIndex[i] = q
	}
	sort.Ints(indexes)
	set := make([]domain.Question, 0, len(indexes))
	for _, i := range indexes {
		set = append(set, byIndex[i])
	}
	return set, nil
}

func (c *CachedSource) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
