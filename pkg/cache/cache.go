// Package cache provides a Redis-backed cache for computed image hashes and
// the active deduplication config.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/redis/go-redis/v9"

	"github.com/Ramsey-B/clover/pkg/models"
)

const (
	imageHashKeyPrefix = "clover:imagehash:"
	activeConfigKey    = "clover:dedupconfig:active"
)

// Config holds Redis connection configuration
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int

	ImageHashTTL    time.Duration
	ActiveConfigTTL time.Duration
}

// Client wraps the Redis client with the cache operations the service needs
type Client struct {
	rdb    *redis.Client
	logger ectologger.Logger
	cfg    Config
}

// NewClient creates a new Redis-backed cache client
func NewClient(cfg Config, logger ectologger.Logger) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	logger.Infof("Connected to Redis at %s", addr)

	return &Client{
		rdb:    rdb,
		logger: logger,
		cfg:    cfg,
	}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks if Redis is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// GetImageHash returns the cached perceptual hash for an image URL, if any.
func (c *Client) GetImageHash(ctx context.Context, url string) (string, bool) {
	hash, err := c.rdb.Get(ctx, imageHashKeyPrefix+url).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.WithContext(ctx).WithError(err).Warn("Failed to read image hash from cache")
		}
		return "", false
	}
	return hash, true
}

// SetImageHash caches the perceptual hash for an image URL. Cache failures are
// logged and ignored; the hash can always be recomputed.
func (c *Client) SetImageHash(ctx context.Context, url string, hash string) {
	err := c.rdb.Set(ctx, imageHashKeyPrefix+url, hash, c.cfg.ImageHashTTL).Err()
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("Failed to cache image hash")
	}
}

// GetActiveConfig returns the cached active deduplication config, if present.
func (c *Client) GetActiveConfig(ctx context.Context) (*models.DeduplicationConfig, bool) {
	data, err := c.rdb.Get(ctx, activeConfigKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WithContext(ctx).WithError(err).Warn("Failed to read active config from cache")
		}
		return nil, false
	}

	var cfg models.DeduplicationConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("Failed to unmarshal cached active config")
		return nil, false
	}
	return &cfg, true
}

// SetActiveConfig caches the active deduplication config.
func (c *Client) SetActiveConfig(ctx context.Context, cfg *models.DeduplicationConfig) {
	data, err := json.Marshal(cfg)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("Failed to marshal active config for cache")
		return
	}

	if err := c.rdb.Set(ctx, activeConfigKey, data, c.cfg.ActiveConfigTTL).Err(); err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("Failed to cache active config")
	}
}

// InvalidateActiveConfig drops the cached active config. Called after a new
// config version is activated.
func (c *Client) InvalidateActiveConfig(ctx context.Context) {
	if err := c.rdb.Del(ctx, activeConfigKey).Err(); err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("Failed to invalidate active config cache")
	}
}
