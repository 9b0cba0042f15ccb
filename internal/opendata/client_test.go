package opendata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hecopilot/copilot-backend/internal/apperr"
)

func newRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client), mr
}

func TestRedisCache(t *testing.T) {
	cache, mr := newRedisCache(t)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "k", []byte("v"), time.Minute))
	val, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", string(val))
	assert.True(t, mr.Exists("opendata:k"))

	mr.FastForward(2 * time.Minute)
	_, ok, err = cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_CachesSuccessOnly(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Query().Get("fail") == "1" {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"n":1}`))
	}))
	defer srv.Close()

	cache, _ := newRedisCache(t)
	c := NewClient(ClientOptions{RequestsPerSecond: 100, Cache: cache, CacheTTL: time.Minute})
	ctx := context.Background()

	var out struct{ N int }
	require.NoError(t, c.GetJSON(ctx, "test", srv.URL+"/ok", nil, &out))
	require.NoError(t, c.GetJSON(ctx, "test", srv.URL+"/ok", nil, &out))
	assert.Equal(t, 1, out.N)
	assert.Equal(t, int32(1), hits.Load())

	for i := 0; i < 2; i++ {
		err := c.GetJSON(ctx, "test", srv.URL+"/ok?fail=1", nil, &out)
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindUpstream))
		assert.Contains(t, err.Error(), "test error 429: rate limited")
	}
	assert.Equal(t, int32(3), hits.Load())
}

func TestClient_RejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/big" {
			_, _ = w.Write([]byte(`{"n":12345678901}`))
			return
		}
		_, _ = w.Write([]byte(`{"n":1}`))
	}))
	defer srv.Close()

	cache, mr := newRedisCache(t)
	c := NewClient(ClientOptions{RequestsPerSecond: 100, MaxBodyBytes: 8, Cache: cache, CacheTTL: time.Minute})
	ctx := context.Background()

	var out struct{ N int }
	require.NoError(t, c.GetJSON(ctx, "test", srv.URL+"/small", nil, &out))
	assert.Equal(t, 1, out.N)
	assert.Len(t, mr.Keys(), 1)

	err := c.GetJSON(ctx, "test", srv.URL+"/big", nil, &out)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
	assert.Equal(t, "test response exceeds 8 bytes", err.Error())
	assert.Len(t, mr.Keys(), 1)
}

func TestClient_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{RequestsPerSecond: 10})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var out map[string]any
	err := c.GetJSON(ctx, "slow", srv.URL, nil, &out)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
}

func TestClient_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	var out map[string]any
	err := NewClient(ClientOptions{}).GetJSON(context.Background(), "fr", srv.URL, nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fr returned invalid JSON")
}

func TestParseLimit(t *testing.T) {
	assert.Equal(t, 10, ParseLimit(""))
	assert.Equal(t, 10, ParseLimit("abc"))
	assert.Equal(t, 1, ParseLimit("0"))
	assert.Equal(t, 1, ParseLimit("-5"))
	assert.Equal(t, 50, ParseLimit("500"))
	assert.Equal(t, 7, ParseLimit(" 7 "))
	assert.Equal(t, 7, ParseLimit("7.0"))
	assert.Equal(t, 50, ParseLimit("1e3"))
	assert.Equal(t, 50, ParseLimit("99999999999999999999"))
	assert.Equal(t, 1, ParseLimit("-99999999999999999999"))
	assert.Equal(t, 10, ParseLimit("2.5"))
}
