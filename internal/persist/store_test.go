package persist_test

import (
	"context"
	"os"
	"testing"

	"github.com/dkeye/runchat/internal/persist"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRedisAddr = "localhost:6379"

func TestFileStore(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := persist.NewFileStore(fs, "/data/snapshots")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Load(ctx, "main")
	assert.ErrorIs(t, err, persist.ErrNotFound)

	require.NoError(t, s.Save(ctx, "main", []byte(`[1]`)))
	require.NoError(t, s.Save(ctx, "main", []byte(`[1,2]`)))
	got, err := s.Load(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, string(got))

	ok, err := afero.Exists(fs, "/data/snapshots/main.json")
	require.NoError(t, err)
	assert.True(t, ok)

	for _, key := range []string{"", "..", "a/b", `a\b`} {
		assert.ErrorIs(t, s.Save(ctx, key, nil), persist.ErrInvalidKey, "key %q", key)
		_, err := s.Load(ctx, key)
		assert.ErrorIs(t, err, persist.ErrInvalidKey, "key %q", key)
	}
	require.NoError(t, s.Close())
}

func TestRedisStore(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}
	prefix := "runchat-test:" + t.Name() + ":"
	s := persist.NewRedisStore(client, prefix)
	t.Cleanup(func() {
		client.Del(ctx, prefix+"main")
		_ = s.Close()
	})

	require.NoError(t, s.Ping(ctx))
	_, err := s.Load(ctx, "main")
	assert.ErrorIs(t, err, persist.ErrNotFound)

	require.NoError(t, s.Save(ctx, "main", []byte(`["x"]`)))
	got, err := s.Load(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, `["x"]`, string(got))
}

func TestNatsStore(t *testing.T) {
	url := os.Getenv("RUNCHAT_TEST_NATS_URL")
	if url == "" {
		t.Skip("RUNCHAT_TEST_NATS_URL not set")
	}
	ctx := context.Background()
	s, err := persist.NewNatsStore(ctx, url, "runchat_test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.Load(ctx, "missing-room")
	assert.ErrorIs(t, err, persist.ErrNotFound)
	require.NoError(t, s.Save(ctx, "main", []byte(`["n"]`)))
	got, err := s.Load(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, `["n"]`, string(got))
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("RUNCHAT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("RUNCHAT_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	s, err := persist.NewPostgresStore(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.Load(ctx, "missing-room")
	assert.ErrorIs(t, err, persist.ErrNotFound)
	require.NoError(t, s.Save(ctx, "main", []byte(`["p"]`)))
	require.NoError(t, s.Save(ctx, "main", []byte(`["p","q"]`)))
	got, err := s.Load(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, `["p","q"]`, string(got))
}
