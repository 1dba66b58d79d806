package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/letsgobuy/storefront/internal/store"
	"github.com/letsgobuy/storefront/pkg/model"
)

// Backend holds the current user value.
type Backend interface {
	// Load returns nil when nobody is logged in.
	Load(ctx context.Context) (*model.User, error)
	Save(ctx context.Context, u model.User) error
	Clear(ctx context.Context) error
}

// MemoryBackend keeps the value for the lifetime of the process.
type MemoryBackend struct {
	mu   sync.Mutex
	user *model.User
}

func NewMemoryBackend() *MemoryBackend { return &MemoryBackend{} }

func (b *MemoryBackend) Load(context.Context) (*model.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.user == nil {
		return nil, nil
	}
	u := *b.user
	return &u, nil
}

func (b *MemoryBackend) Save(_ context.Context, u model.User) error {
	b.mu.Lock()
	b.user = &u
	b.mu.Unlock()
	return nil
}

func (b *MemoryBackend) Clear(context.Context) error {
	b.mu.Lock()
	b.user = nil
	b.mu.Unlock()
	return nil
}

// RedisBackend shares the value between processes under storefront:session:<scope>:user.
type RedisBackend struct {
	store store.Store
	key   string
}

func NewRedisBackend(s store.Store, scope string) *RedisBackend {
	return &RedisBackend{store: s, key: UserKey(scope)}
}

// UserKey is the Redis key holding the session user for scope.
func UserKey(scope string) string {
	return fmt.Sprintf("storefront:session:%s:user", scope)
}

func (b *RedisBackend) Load(ctx context.Context) (*model.User, error) {
	var u model.User
	err := b.store.GetJSON(ctx, b.key, &u)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &u, nil
}

func (b *RedisBackend) Save(ctx context.Context, u model.User) error {
	if err := b.store.SetJSON(ctx, b.key, u, 0); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (b *RedisBackend) Clear(ctx context.Context) error {
	if err := b.store.Delete(ctx, b.key); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
