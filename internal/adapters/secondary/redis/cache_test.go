package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oci-registry-service/internal/config"
	"oci-registry-service/internal/core/domain"
	"oci-registry-service/pkg/image"
)

func setupCache(t *testing.T, ttl time.Duration) (*manifestCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewManifestCache(rdb, ttl).(*manifestCache), mr
}

func TestNewClient(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb, err := NewClient(context.Background(), &config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	_ = rdb.Close()

	mr.Close()
	_, err = NewClient(context.Background(), &config.RedisConfig{Addr: mr.Addr()})
	assert.Error(t, err)
}

func TestManifestCache_Tag(t *testing.T) {
	c, mr := setupCache(t, time.Minute)
	ctx := context.Background()
	d := image.FromBytes([]byte("manifest"))

	_, err := c.GetTag(ctx, "team/app", "v1")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	require.NoError(t, c.SetTag(ctx, "team/app", "v1", d))
	assert.Equal(t, time.Minute, mr.TTL("oci:tag:team/app:v1"))

	got, err := c.GetTag(ctx, "team/app", "v1")
	require.NoError(t, err)
	assert.Equal(t, d, got)

	require.NoError(t, c.DeleteTag(ctx, "team/app", "v1"))
	_, err = c.GetTag(ctx, "team/app", "v1")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestManifestCache_TagExpires(t *testing.T) {
	c, mr := setupCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.SetTag(ctx, "app", "v1", image.FromBytes([]byte("m"))))
	mr.FastForward(2 * time.Minute)

	_, err := c.GetTag(ctx, "app", "v1")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestManifestCache_Manifest(t *testing.T) {
	c, _ := setupCache(t, 0)
	ctx := context.Background()
	content := []byte(`{"schemaVersion":2}`)
	subject := image.FromBytes([]byte("subject"))
	m := &domain.Manifest{
		Repository:   "team/app",
		Digest:       image.FromBytes(content),
		MediaType:    image.MediaTypeImageManifest,
		Size:         int64(len(content)),
		Content:      content,
		ArtifactType: "application/vnd.example.sbom",
		Subject:      &subject,
		Annotations:  map[string]string{"org.example": "yes"},
		CreatedAt:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	_, err := c.GetManifest(ctx, m.Repository, m.Digest)
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	require.NoError(t, c.SetManifest(ctx, m))
	got, err := c.GetManifest(ctx, m.Repository, m.Digest)
	require.NoError(t, err)
	assert.True(t, m.CreatedAt.Equal(got.CreatedAt))
	got.CreatedAt = m.CreatedAt
	assert.Equal(t, m, got)

	require.NoError(t, c.DeleteManifest(ctx, m.Repository, m.Digest))
	_, err = c.GetManifest(ctx, m.Repository, m.Digest)
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}
