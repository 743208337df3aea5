package aigateway

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"chore-workers/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCachePrunesExpiredWhenOverBound(t *testing.T) {
	clk := &clock{fixedNow}
	cache := NewMemoryResponseCache(2, clk.Now)
	ctx := context.Background()

	cache.Set(ctx, "short", &Response{Reasoning: "a"}, time.Minute)
	cache.Set(ctx, "long", &Response{Reasoning: "b"}, time.Hour)
	assert.Equal(t, 2, cache.Len())

	clk.Advance(2 * time.Minute)
	cache.Set(ctx, "new", &Response{Reasoning: "c"}, time.Hour)

	assert.Equal(t, 2, cache.Len())
	_, ok := cache.Get(ctx, "short")
	assert.False(t, ok)
	got, ok := cache.Get(ctx, "long")
	require.True(t, ok)
	assert.Equal(t, "b", got.Reasoning)
}

func TestMemoryCacheReturnsCopies(t *testing.T) {
	cache := NewMemoryResponseCache(10, nil)
	ctx := context.Background()
	cache.Set(ctx, "k", &Response{RequestID: "r1"}, time.Minute)

	got, ok := cache.Get(ctx, "k")
	require.True(t, ok)
	got.RequestID = "mutated"

	again, _ := cache.Get(ctx, "k")
	assert.Equal(t, "r1", again.RequestID)
}

func TestRedisCacheRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	cache := NewRedisResponseCache(client, logger.NewTestLogger(t))
	ctx := context.Background()

	_, ok := cache.Get(ctx, "missing")
	assert.False(t, ok)

	cache.Set(ctx, "suggestions|ideas|3|2", &Response{Success: true, Reasoning: "cached"}, 30*time.Minute)

	got, ok := cache.Get(ctx, "suggestions|ideas|3|2")
	require.True(t, ok)
	assert.Equal(t, "cached", got.Reasoning)
	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, 30*time.Minute, mr.TTL(redisKey("suggestions|ideas|3|2")))

	mr.FastForward(31 * time.Minute)
	_, ok = cache.Get(ctx, "suggestions|ideas|3|2")
	assert.False(t, ok)
}

func TestRedisCacheErrorsAreMisses(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewRedisResponseCache(client, logger.NewNoOpLogger())
	ctx := context.Background()

	mock.ExpectGet(redisKey("k")).SetErr(assert.AnError)
	_, ok := cache.Get(ctx, "k")
	assert.False(t, ok)

	mock.ExpectGet(redisKey("corrupt")).SetVal("{not json")
	_, ok = cache.Get(ctx, "corrupt")
	assert.False(t, ok)

	data, _ := json.Marshal(&Response{Reasoning: "x"})
	mock.ExpectSet(redisKey("k"), data, time.Minute).SetErr(assert.AnError)
	cache.Set(ctx, "k", &Response{Reasoning: "x"}, time.Minute)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGatewayWithRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	svc := newFakeService(t, replyWith(http.StatusOK, geminiBody("shared", "STOP")))
	cache := NewRedisResponseCache(client, logger.NewTestLogger(t))

	// Two gateways stand in for two worker replicas sharing one Redis.
	a := newTestGateway(t, svc.server.URL, &clock{fixedNow}, nil, WithCache(cache))
	b := newTestGateway(t, svc.server.URL, &clock{fixedNow}, nil, WithCache(cache))

	req := Request{FamilyID: "fam-1", Type: RequestSuggestions, Prompt: "weekend ideas", Context: snapshot()}
	_, err := a.ProcessRequest(context.Background(), req)
	require.NoError(t, err)
	resp, err := b.ProcessRequest(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, resp.Cached)
	assert.Equal(t, "shared", resp.Reasoning)
	assert.Equal(t, int32(1), svc.calls.Load())
}

func TestSlidingWindow(t *testing.T) {
	w := newSlidingWindow(2, time.Minute)

	assert.True(t, w.Allow("f", fixedNow))
	assert.True(t, w.Allow("f", fixedNow.Add(10*time.Second)))
	assert.False(t, w.Allow("f", fixedNow.Add(20*time.Second)))
	assert.True(t, w.Allow("other", fixedNow.Add(20*time.Second)))
	assert.Equal(t, 0, w.Remaining("f", fixedNow.Add(30*time.Second)))

	assert.True(t, w.Allow("f", fixedNow.Add(61*time.Second)))
	assert.Equal(t, 0, w.Remaining("f", fixedNow.Add(65*time.Second)))
	assert.Equal(t, 1, w.Remaining("f", fixedNow.Add(71*time.Second)))
}
