package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/letsgobuy/storefront/internal/store"
	"github.com/letsgobuy/storefront/pkg/model"
)

var ana = model.User{ID: "u1", Name: "ana@x.com", Email: "ana@x.com", Type: model.UserTypeUser}

func newMemoryStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(context.Background(), NewMemoryBackend(), Options{Logger: zap.NewNop()})
	require.NoError(t, err)
	return s
}

// ─── Same-process signal ──────────────────────────────────────────────────────

func TestStore_SetNotifiesSynchronously(t *testing.T) {
	s := newMemoryStore(t)
	var seen []*model.User
	unsub := s.Subscribe(func(u *model.User) { seen = append(seen, u) })

	require.NoError(t, s.Set(context.Background(), ana))
	require.Len(t, seen, 1)
	assert.Equal(t, "ana@x.com", seen[0].Email)

	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, ana, cur)

	require.NoError(t, s.Logout(context.Background()))
	require.Len(t, seen, 2)
	assert.Nil(t, seen[1])
	_, ok = s.Current()
	assert.False(t, ok)

	unsub()
	unsub()
	require.NoError(t, s.Set(context.Background(), ana))
	assert.Len(t, seen, 2)
}

func TestStore_PatchEmail(t *testing.T) {
	s := newMemoryStore(t)
	assert.ErrorIs(t, s.PatchEmail(context.Background(), "x@y.z"), ErrNoUser)

	require.NoError(t, s.Set(context.Background(), ana))
	var got string
	s.Subscribe(func(u *model.User) { got = u.Email })

	require.NoError(t, s.PatchEmail(context.Background(), "new@x.com"))
	assert.Equal(t, "new@x.com", got)
	cur, _ := s.Current()
	assert.Equal(t, "new@x.com", cur.Email)
	assert.Equal(t, "u1", cur.ID)
}

func TestStore_ListenersGetCopies(t *testing.T) {
	s := newMemoryStore(t)
	s.Subscribe(func(u *model.User) { u.Email = "mutated" })
	require.NoError(t, s.Set(context.Background(), ana))
	cur, _ := s.Current()
	assert.Equal(t, "ana@x.com", cur.Email)
}

func TestStore_InitialValueFromBackend(t *testing.T) {
	b := NewMemoryBackend()
	require.NoError(t, b.Save(context.Background(), ana))
	s, err := NewStore(context.Background(), b, Options{})
	require.NoError(t, err)
	_, ok := s.Current()
	assert.True(t, ok)
}

type failingBackend struct{ MemoryBackend }

func (*failingBackend) Save(context.Context, model.User) error { return errors.New("disk full") }

func TestStore_BackendFailureLeavesValue(t *testing.T) {
	s, err := NewStore(context.Background(), &failingBackend{}, Options{})
	require.NoError(t, err)
	called := false
	s.Subscribe(func(*model.User) { called = true })

	require.Error(t, s.Set(context.Background(), ana))
	assert.False(t, called)
	_, ok := s.Current()
	assert.False(t, ok)
}

// ─── Cross-process signal over Redis ──────────────────────────────────────────

func newRedisPair(t *testing.T) (*Store, *Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	open := func() *Store {
		st, err := store.NewRedis(store.Options{Addr: mr.Addr()}, zap.NewNop())
		require.NoError(t, err)
		t.Cleanup(func() { _ = st.Close() })
		s, err := NewStore(context.Background(), NewRedisBackend(st, "tab"), Options{
			Scope:    "tab",
			Notifier: NewRedisNotifier(st, "tab", nil),
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	}
	return open(), open(), mr
}

func TestStore_RedisCrossProcess(t *testing.T) {
	a, b, mr := newRedisPair(t)

	var aCalls, bCalls atomic.Int32
	a.Subscribe(func(*model.User) { aCalls.Add(1) })
	b.Subscribe(func(*model.User) { bCalls.Add(1) })

	require.NoError(t, a.Set(context.Background(), ana))
	assert.True(t, mr.Exists(UserKey("tab")))

	require.Eventually(t, func() bool {
		_, ok := b.Current()
		return ok
	}, 2*time.Second, 10*time.Millisecond)
	assert.EqualValues(t, 1, bCalls.Load())

	require.NoError(t, b.Logout(context.Background()))
	require.Eventually(t, func() bool {
		_, ok := a.Current()
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
	assert.False(t, mr.Exists(UserKey("tab")))

	// a hears its own Set once and b's logout once; its own signal is ignored
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 2, aCalls.Load())
}

// ─── Cross-process signal over NATS ───────────────────────────────────────────

type mockNATS struct {
	mu        sync.Mutex
	published []*nats.Msg
	handler   nats.MsgHandler
	fail      bool
}

func (m *mockNATS) PublishMsg(msg *nats.Msg) error {
	if m.fail {
		return errors.New("mock publish error")
	}
	m.mu.Lock()
	m.published = append(m.published, msg)
	m.mu.Unlock()
	return nil
}

func (m *mockNATS) Subscribe(_ string, cb nats.MsgHandler) (*nats.Subscription, error) {
	m.handler = cb
	return nil, nil
}

func (m *mockNATS) deliver(t *testing.T, sig Signal) {
	t.Helper()
	data, err := json.Marshal(sig)
	require.NoError(t, err)
	m.handler(&nats.Msg{Subject: NATSSubject, Data: data})
}

func TestStore_NATSNotifier(t *testing.T) {
	backend := NewMemoryBackend()
	nc := &mockNATS{}
	s, err := NewStore(context.Background(), backend, Options{
		Scope:    "tab",
		Notifier: NewNATSNotifier(nc, "tab", "storefront", nil),
	})
	require.NoError(t, err)
	require.NotNil(t, nc.handler)

	require.NoError(t, s.Set(context.Background(), ana))
	require.Len(t, nc.published, 1)
	msg := nc.published[0]
	assert.Equal(t, NATSSubject, msg.Subject)
	assert.Equal(t, "session.changed", msg.Header.Get("event_type"))
	var sig Signal
	require.NoError(t, json.Unmarshal(msg.Data, &sig))
	assert.Equal(t, "tab", sig.Scope)

	// another process logged out through the shared backend
	require.NoError(t, backend.Clear(context.Background()))
	var calls int
	s.Subscribe(func(*model.User) { calls++ })

	nc.deliver(t, Signal{Origin: sig.Origin, Scope: "tab"})
	nc.deliver(t, Signal{Origin: "other", Scope: "elsewhere"})
	assert.Zero(t, calls)
	_, ok := s.Current()
	assert.True(t, ok)

	nc.deliver(t, Signal{Origin: "other", Scope: "tab"})
	assert.Equal(t, 1, calls)
	_, ok = s.Current()
	assert.False(t, ok)

	require.NoError(t, s.Close())
}

func TestStore_NotifyFailureStillUpdatesLocally(t *testing.T) {
	nc := &mockNATS{fail: true}
	s, err := NewStore(context.Background(), NewMemoryBackend(), Options{Notifier: NewNATSNotifier(nc, "default", "storefront", nil)})
	require.NoError(t, err)
	called := false
	s.Subscribe(func(*model.User) { called = true })

	require.NoError(t, s.Set(context.Background(), ana))
	assert.True(t, called)
}
