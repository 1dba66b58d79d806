package listview

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/letsgobuy/storefront/internal/metrics"
)

// ErrStale is returned by Refresh when a newer response was already applied.
var ErrStale = errors.New("stale response discarded")

// Fetcher reads the remote collection.
type Fetcher[T any] func(ctx context.Context) ([]T, error)

// Predicate is an active numeric or categorical constraint.
type Predicate[T any] func(item T) bool

// Spec describes how a record type is identified and searched.
type Spec[T any] struct {
	// Name labels logs and metrics ("bancas", "produtos", ...).
	Name string
	// ID returns the identifier used by Select.
	ID func(T) string
	// Text returns the fields matched by the search term.
	Text func(T) []string
}

type options struct {
	logger           *zap.Logger
	lastResponseWins bool
}

// Option configures a ListView.
type Option func(*options)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithLastResponseWins disables the generation guard: every response is applied in
// arrival order, so overlapping refreshes race.
func WithLastResponseWins() Option {
	return func(o *options) { o.lastResponseWins = true }
}

// Snapshot is an immutable copy of list state for rendering.
type Snapshot[T any] struct {
	Loading  bool
	Error    bool
	Err      error
	Loaded   bool
	Total    int
	Items    []T
	Search   string
	Selected *T
}

// Empty reports whether the held collection has no records.
func (s Snapshot[T]) Empty() bool { return s.Total == 0 }

// NoMatches reports whether records are held but none survive filtering.
func (s Snapshot[T]) NoMatches() bool { return s.Total > 0 && len(s.Items) == 0 }

// ListView holds a fetched collection and derives a filtered, sorted view from it.
// It is safe for concurrent use.
type ListView[T any] struct {
	spec  Spec[T]
	fetch Fetcher[T]
	opts  options

	mu          sync.RWMutex
	held        []T
	loaded      bool
	inflight    int
	failed      bool
	lastErr     error
	search      string
	constraints map[string]Predicate[T]
	order       func(a, b T) int
	selected    *T

	issued  uint64
	applied uint64
}

// New creates a list view over fetch.
func New[T any](spec Spec[T], fetch Fetcher[T], opts ...Option) *ListView[T] {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &ListView[T]{
		spec:        spec,
		fetch:       fetch,
		opts:        o,
		constraints: make(map[string]Predicate[T]),
	}
}

// Name returns the view label.
func (v *ListView[T]) Name() string { return v.spec.Name }

// Refresh fetches the collection. On success the held collection is replaced; on failure it
// is reset to empty and the error flag is raised. The returned error mirrors that state.
func (v *ListView[T]) Refresh(ctx context.Context) error {
	v.mu.Lock()
	v.issued++
	gen := v.issued
	v.inflight++
	v.mu.Unlock()

	items, err := v.fetch(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.inflight--

	if !v.opts.lastResponseWins && gen < v.applied {
		metrics.IncListRefresh(v.spec.Name, "stale")
		v.opts.logger.Debug("listview.stale_response",
			zap.String("view", v.spec.Name),
			zap.Uint64("generation", gen),
			zap.Uint64("applied", v.applied))
		return ErrStale
	}
	v.applied = gen
	v.loaded = true

	if err != nil {
		v.held = nil
		v.failed = true
		v.lastErr = err
		metrics.IncListRefresh(v.spec.Name, "error")
		v.opts.logger.Warn("listview.refresh_failed",
			zap.String("view", v.spec.Name),
			zap.Uint64("generation", gen),
			zap.Error(err))
		return err
	}

	v.held = slices.Clone(items)
	v.failed = false
	v.lastErr = nil
	metrics.IncListRefresh(v.spec.Name, "ok")
	v.opts.logger.Debug("listview.refreshed",
		zap.String("view", v.spec.Name),
		zap.Uint64("generation", gen),
		zap.Int("count", len(items)))
	return nil
}

// SetSearch sets the free-text term.
func (v *ListView[T]) SetSearch(term string) {
	v.mu.Lock()
	v.search = term
	v.mu.Unlock()
}

// Search returns the current free-text term.
func (v *ListView[T]) Search() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.search
}

// SetConstraint activates a named constraint. A nil predicate removes it.
func (v *ListView[T]) SetConstraint(name string, p Predicate[T]) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if p == nil {
		delete(v.constraints, name)
		return
	}
	v.constraints[name] = p
}

// SetOrder sets the comparison used to sort the derived view. nil keeps fetch order.
func (v *ListView[T]) SetOrder(cmp func(a, b T) int) {
	v.mu.Lock()
	v.order = cmp
	v.mu.Unlock()
}

// View returns the derived view. The held collection is never modified.
func (v *ListView[T]) View() []T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.deriveLocked()
}

func (v *ListView[T]) deriveLocked() []T {
	term := strings.ToLower(v.search)
	out := make([]T, 0, len(v.held))
	for _, item := range v.held {
		if !v.matches(item, term) {
			continue
		}
		if !v.satisfies(item) {
			continue
		}
		out = append(out, item)
	}
	if v.order != nil {
		slices.SortStableFunc(out, v.order)
	}
	return out
}

func (v *ListView[T]) matches(item T, term string) bool {
	if term == "" {
		return true
	}
	for _, field := range v.spec.Text(item) {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func (v *ListView[T]) satisfies(item T) bool {
	for _, p := range v.constraints {
		if !p(item) {
			return false
		}
	}
	return true
}

// Held returns a copy of the held collection.
func (v *ListView[T]) Held() []T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.held)
}

// Select stores the held record with the given id for detail display.
func (v *ListView[T]) Select(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, item := range v.held {
		if v.spec.ID(item) == id {
			sel := item
			v.selected = &sel
			return true
		}
	}
	return false
}

// Selected returns the record open in the detail view.
func (v *ListView[T]) Selected() (T, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.selected == nil {
		var zero T
		return zero, false
	}
	return *v.selected, true
}

// CloseDetail clears the selection.
func (v *ListView[T]) CloseDetail() {
	v.mu.Lock()
	v.selected = nil
	v.mu.Unlock()
}

// DismissError hides the error banner. The held collection stays empty.
func (v *ListView[T]) DismissError() {
	v.mu.Lock()
	v.failed = false
	v.mu.Unlock()
}

// Snapshot copies the current state.
func (v *ListView[T]) Snapshot() Snapshot[T] {
	v.mu.RLock()
	defer v.mu.RUnlock()
	s := Snapshot[T]{
		Loading: v.inflight > 0,
		Error:   v.failed,
		Err:     v.lastErr,
		Loaded:  v.loaded,
		Total:   len(v.held),
		Items:   v.deriveLocked(),
		Search:  v.search,
	}
	if v.selected != nil {
		sel := *v.selected
		s.Selected = &sel
	}
	return s
}
