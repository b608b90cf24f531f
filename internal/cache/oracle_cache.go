package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/sirupsen/logrus"

	"dev.accord.negotiation/internal/llm"
)

// DefaultCompletionTTL bounds how long a cached completion is reused.
const DefaultCompletionTTL = 15 * time.Minute

// CachingOracle decorates an Oracle with a Redis completion cache. Cache
// failures are soft: on any Redis error the call falls through to the
// upstream oracle.
type CachingOracle struct {
	upstream llm.Oracle
	redis    *RedisClient
	ttl      time.Duration
	log      *logrus.Logger
}

// NewCachingOracle wraps upstream with a completion cache. A non-positive ttl
// takes DefaultCompletionTTL.
func NewCachingOracle(upstream llm.Oracle, redis *RedisClient, ttl time.Duration, log *logrus.Logger) *CachingOracle {
	if log == nil {
		log = logrus.New()
	}
	if ttl <= 0 {
		ttl = DefaultCompletionTTL
	}
	return &CachingOracle{
		upstream: upstream,
		redis:    redis,
		ttl:      ttl,
		log:      log,
	}
}

// Complete returns the cached completion for prompt if present, otherwise
// asks the upstream oracle and stores the result.
func (c *CachingOracle) Complete(ctx context.Context, prompt string) (string, error) {
	key := completionKey(prompt)

	var cached string
	err := c.redis.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !IsMiss(err) {
		c.log.WithError(err).Debug("Completion cache read failed, falling through")
	}

	completion, err := c.upstream.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}

	if setErr := c.redis.Set(ctx, key, completion, c.ttl); setErr != nil {
		c.log.WithError(setErr).Debug("Completion cache write failed")
	}
	return completion, nil
}

func completionKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return "oracle:completion:" + hex.EncodeToString(sum[:])
}
