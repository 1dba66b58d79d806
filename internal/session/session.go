package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/letsgobuy/storefront/internal/metrics"
	"github.com/letsgobuy/storefront/pkg/model"
)

// ErrNoUser is returned by operations that need a logged-in user.
var ErrNoUser = errors.New("no user logged in")

// Listener receives the new value after every change; nil means logged out.
type Listener func(u *model.User)

// Store is the observable current-user value. Same-process listeners are called
// synchronously on every change; other processes learn about it through the Notifier
// and reload from the shared Backend.
type Store struct {
	backend  Backend
	notifier Notifier
	logger   *zap.Logger
	scope    string
	origin   string

	mu      sync.RWMutex
	current *model.User
	subs    map[int]Listener
	nextID  int

	stop func() error
}

// Options configures a Store.
type Options struct {
	Scope    string
	Notifier Notifier
	Logger   *zap.Logger
}

// NewStore reads the initial value from backend and starts listening for signals.
func NewStore(ctx context.Context, backend Backend, opts Options) (*Store, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Scope == "" {
		opts.Scope = "default"
	}
	s := &Store{
		backend:  backend,
		notifier: opts.Notifier,
		logger:   opts.Logger,
		scope:    opts.Scope,
		origin:   uuid.NewString(),
		subs:     make(map[int]Listener),
	}

	u, err := backend.Load(ctx)
	if err != nil {
		return nil, err
	}
	s.current = u

	if s.notifier != nil {
		stop, err := s.notifier.Listen(ctx, s.onSignal)
		if err != nil {
			return nil, fmt.Errorf("session listen: %w", err)
		}
		s.stop = stop
	}
	return s, nil
}

// Subscribe registers fn for change notifications.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Current returns the logged-in user.
func (s *Store) Current() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return model.User{}, false
	}
	return *s.current, true
}

// Set stores u as the current user and signals every observer.
func (s *Store) Set(ctx context.Context, u model.User) error {
	if err := s.backend.Save(ctx, u); err != nil {
		return err
	}
	s.apply(ctx, &u, "login")
	return nil
}

// Logout clears the current user and signals every observer.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.backend.Clear(ctx); err != nil {
		return err
	}
	s.apply(ctx, nil, "logout")
	return nil
}

// PatchEmail updates the stored user's email in place.
func (s *Store) PatchEmail(ctx context.Context, email string) error {
	u, ok := s.Current()
	if !ok {
		return ErrNoUser
	}
	u.Email = email
	if err := s.backend.Save(ctx, u); err != nil {
		return err
	}
	s.apply(ctx, &u, "patch_email")
	return nil
}

// Reload re-reads the backend and notifies local listeners.
func (s *Store) Reload(ctx context.Context) error {
	u, err := s.backend.Load(ctx)
	if err != nil {
		return err
	}
	s.set(u)
	s.dispatch(u)
	return nil
}

// Close stops listening for signals.
func (s *Store) Close() error {
	if s.stop != nil {
		return s.stop()
	}
	return nil
}

func (s *Store) apply(ctx context.Context, u *model.User, reason string) {
	s.set(u)
	s.logger.Info("session.changed",
		zap.String("reason", reason),
		zap.Bool("logged_in", u != nil))
	metrics.IncSessionNotification("local", "sent")
	s.dispatch(u)

	if s.notifier == nil {
		return
	}
	sig := Signal{Origin: s.origin, Scope: s.scope, At: time.Now().UTC()}
	if err := s.notifier.Notify(ctx, sig); err != nil {
		s.logger.Warn("session.notify_failed", zap.Error(err))
	}
}

func (s *Store) set(u *model.User) {
	s.mu.Lock()
	s.current = u
	s.mu.Unlock()
}

func (s *Store) dispatch(u *model.User) {
	s.mu.RLock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]Listener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		var cp *model.User
		if u != nil {
			v := *u
			cp = &v
		}
		fn(cp)
	}
}

func (s *Store) onSignal(sig Signal) {
	if sig.Origin == s.origin || !strings.EqualFold(sig.Scope, s.scope) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.Reload(ctx); err != nil {
		s.logger.Warn("session.reload_failed", zap.String("origin", sig.Origin), zap.Error(err))
	}
}
