// Package redis caches tag resolution and manifest bodies in Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"oci-registry-service/internal/config"
	"oci-registry-service/internal/core/domain"
	ports "oci-registry-service/internal/core/ports/output"
	"oci-registry-service/pkg/image"
)

const keyPrefix = "oci"

// cachedManifest is the stored form of domain.Manifest.
type cachedManifest struct {
	Repository   string            `json:"repository"`
	Digest       image.Digest      `json:"digest"`
	MediaType    image.MediaType   `json:"mediaType"`
	Size         int64             `json:"size"`
	Content      []byte            `json:"content"`
	ArtifactType image.MediaType   `json:"artifactType,omitempty"`
	Subject      *image.Digest     `json:"subject,omitempty"`
	Annotations  map[string]string `json:"annotations,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
}

type manifestCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewClient connects to Redis and checks the connection.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// NewManifestCache creates a ManifestCache whose entries expire after ttl.
// A zero ttl keeps entries until they are deleted.
func NewManifestCache(rdb *redis.Client, ttl time.Duration) ports.ManifestCache {
	return &manifestCache{redis: rdb, ttl: ttl}
}

func tagKey(repository, tag string) string {
	return keyPrefix + ":tag:" + repository + ":" + tag
}

func manifestKey(repository string, digest image.Digest) string {
	return keyPrefix + ":manifest:" + repository + ":" + digest.String()
}

func (c *manifestCache) GetTag(ctx context.Context, repository, tag string) (image.Digest, error) {
	val, err := c.redis.Get(ctx, tagKey(repository, tag)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return image.Digest{}, domain.ErrCacheMiss
		}
		return image.Digest{}, fmt.Errorf("get cached tag: %w", err)
	}
	d, err := image.ParseDigest(val)
	if err != nil {
		return image.Digest{}, fmt.Errorf("parse cached tag: %w", err)
	}
	return d, nil
}

func (c *manifestCache) SetTag(ctx context.Context, repository, tag string, digest image.Digest) error {
	if err := c.redis.Set(ctx, tagKey(repository, tag), digest.String(), c.ttl).Err(); err != nil {
		return fmt.Errorf("cache tag: %w", err)
	}
	return nil
}

func (c *manifestCache) DeleteTag(ctx context.Context, repository, tag string) error {
	if err := c.redis.Del(ctx, tagKey(repository, tag)).Err(); err != nil {
		return fmt.Errorf("evict tag: %w", err)
	}
	return nil
}

func (c *manifestCache) GetManifest(ctx context.Context, repository string, digest image.Digest) (*domain.Manifest, error) {
	raw, err := c.redis.Get(ctx, manifestKey(repository, digest)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrCacheMiss
		}
		return nil, fmt.Errorf("get cached manifest: %w", err)
	}

	var cm cachedManifest
	if err := json.Unmarshal(raw, &cm); err != nil {
		return nil, fmt.Errorf("unmarshal cached manifest: %w", err)
	}
	return &domain.Manifest{
		Repository:   cm.Repository,
		Digest:       cm.Digest,
		MediaType:    cm.MediaType,
		Size:         cm.Size,
		Content:      cm.Content,
		ArtifactType: cm.ArtifactType,
		Subject:      cm.Subject,
		Annotations:  cm.Annotations,
		CreatedAt:    cm.CreatedAt,
	}, nil
}

func (c *manifestCache) SetManifest(ctx context.Context, m *domain.Manifest) error {
	raw, err := json.Marshal(cachedManifest{
		Repository:   m.Repository,
		Digest:       m.Digest,
		MediaType:    m.MediaType,
		Size:         m.Size,
		Content:      m.Content,
		ArtifactType: m.ArtifactType,
		Subject:      m.Subject,
		Annotations:  m.Annotations,
		CreatedAt:    m.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := c.redis.Set(ctx, manifestKey(m.Repository, m.Digest), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache manifest: %w", err)
	}
	return nil
}

func (c *manifestCache) DeleteManifest(ctx context.Context, repository string, digest image.Digest) error {
	if err := c.redis.Del(ctx, manifestKey(repository, digest)).Err(); err != nil {
		return fmt.Errorf("evict manifest: %w", err)
	}
	return nil
}

var _ ports.ManifestCache = (*manifestCache)(nil)
