package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	st, err := NewRedis(Options{Addr: mr.Addr()}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st, mr
}

// --- SetJSON / GetJSON ---

func TestSetGetJSON_RoundTrip(t *testing.T) {
	ctx := context.Background()
	st, mr := newTestStore(t)

	type user struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	require.NoError(t, st.SetJSON(ctx, "storefront:session:default:user", user{ID: "u1", Email: "a@b.com"}, time.Minute))
	assert.True(t, mr.Exists("storefront:session:default:user"))
	assert.Equal(t, time.Minute, mr.TTL("storefront:session:default:user"))

	var got user
	require.NoError(t, st.GetJSON(ctx, "storefront:session:default:user", &got))
	assert.Equal(t, "a@b.com", got.Email)
}

func TestGetJSON_KeyNotFound(t *testing.T) {
	st, _ := newTestStore(t)

	var dest map[string]string
	err := st.GetJSON(context.Background(), "nonexistent:key", &dest)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetJSON_InvalidJSON(t *testing.T) {
	st, mr := newTestStore(t)
	require.NoError(t, mr.Set("bad", "not-json"))

	var dest map[string]string
	err := st.GetJSON(context.Background(), "bad", &dest)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestSetJSON_NilValue(t *testing.T) {
	st, _ := newTestStore(t)
	// nil marshals to "null"
	require.NoError(t, st.SetJSON(context.Background(), "test:nil", nil, 0))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	st, mr := newTestStore(t)
	require.NoError(t, mr.Set("k", `"v"`))

	require.NoError(t, st.Delete(ctx, "k"))
	assert.False(t, mr.Exists("k"))
	require.NoError(t, st.Delete(ctx, "k"))
}

// --- Pub/Sub ---

func TestPublishSubscribe(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestStore(t)

	ch, closeFn, err := st.Subscribe(ctx, "storefront:session:default:changed")
	require.NoError(t, err)

	require.NoError(t, st.Publish(ctx, "storefront:session:default:changed", []byte(`{"origin":"x"}`)))
	select {
	case msg := <-ch:
		assert.JSONEq(t, `{"origin":"x"}`, string(msg))
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}

	require.NoError(t, closeFn())
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

// --- HealthCheck ---

func TestHealthCheck_Success(t *testing.T) {
	st, _ := newTestStore(t)
	require.NoError(t, st.HealthCheck(context.Background()))
}

func TestHealthCheck_RedisNil(t *testing.T) {
	st := &RedisStore{redis: nil}
	err := st.HealthCheck(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis not initialized")
}

func TestHealthCheck_RedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	st := &RedisStore{redis: rdb}

	// Close miniredis to simulate failure
	mr.Close()

	err = st.HealthCheck(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
}

// --- Construction / Close ---

func TestClose_NilComponents(t *testing.T) {
	st := &RedisStore{}
	require.NoError(t, st.Close())
}

func TestNewRedis_NilLogger(t *testing.T) {
	mr := miniredis.RunT(t)
	st, err := NewRedis(Options{Addr: mr.Addr()}, nil)
	require.NoError(t, err)
	require.NoError(t, st.Close())
}

func TestNewRedis_InvalidAddr(t *testing.T) {
	_, err := NewRedis(Options{Addr: "localhost:1"}, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
}
