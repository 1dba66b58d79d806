package listview

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/letsgobuy/storefront/internal/feira"
	"github.com/letsgobuy/storefront/internal/geo"
	"github.com/letsgobuy/storefront/pkg/model"
)

// Categories offered by the home page.
const (
	CategoryAll      = "todos"
	CategoryProducts = "produtos"
	CategoryStalls   = "bancas"
)

var ErrUnknownCategory = errors.New("unknown category")

// HitKind tags an aggregate search result.
type HitKind string

const (
	HitProduct HitKind = "produto"
	HitStall   HitKind = "banca"
)

// Hit is one product or stall returned by the aggregate search.
type Hit struct {
	Kind    HitKind        `json:"tipo"`
	Product *model.Product `json:"produto,omitempty"`
	Stall   *model.Stall   `json:"banca,omitempty"`
}

func (h Hit) ID() string {
	if h.Kind == HitProduct {
		return string(h.Kind) + ":" + strconv.FormatInt(h.Product.ID, 10)
	}
	return string(h.Kind) + ":" + strconv.FormatInt(h.Stall.ID, 10)
}

func (h Hit) Name() string {
	if h.Kind == HitProduct {
		return h.Product.Name
	}
	return h.Stall.Name
}

// Searcher runs the aggregate search.
type Searcher interface {
	Search(ctx context.Context, p feira.SearchParams) (*model.SearchResult, error)
}

// SearchView is the home page: narrowing happens server-side and every parameter change
// takes effect on the next Refresh.
type SearchView struct {
	*ListView[Hit]

	mu       sync.RWMutex
	params   feira.SearchParams
	category string
}

// NewSearchView creates the aggregate view. user is sent as both the user and reference
// location.
func NewSearchView(s Searcher, user geo.Point, opts ...Option) *SearchView {
	lat, lon := user.Lat, user.Lon
	sv := &SearchView{
		category: CategoryAll,
		params: feira.SearchParams{
			Kind:    feira.SearchAll,
			UserLat: &lat, UserLon: &lon,
			RefLat: &lat, RefLon: &lon,
		},
	}
	spec := Spec[Hit]{
		Name: "pesquisa",
		ID:   Hit.ID,
		Text: func(h Hit) []string { return []string{h.Name()} },
	}
	sv.ListView = New(spec, func(ctx context.Context) ([]Hit, error) {
		res, err := s.Search(ctx, sv.Params())
		if err != nil {
			return nil, err
		}
		return flatten(res), nil
	}, opts...)
	return sv
}

func flatten(res *model.SearchResult) []Hit {
	hits := make([]Hit, 0, len(res.Products)+len(res.Stalls))
	for i := range res.Products {
		hits = append(hits, Hit{Kind: HitProduct, Product: &res.Products[i]})
	}
	for i := range res.Stalls {
		hits = append(hits, Hit{Kind: HitStall, Stall: &res.Stalls[i]})
	}
	return hits
}

// Params returns a copy of the current server-side parameters.
func (sv *SearchView) Params() feira.SearchParams {
	sv.mu.RLock()
	defer sv.mu.RUnlock()
	return sv.params
}

// Category returns the active home-page category.
func (sv *SearchView) Category() string {
	sv.mu.RLock()
	defer sv.mu.RUnlock()
	return sv.category
}

// SetSearch sets the server-side term. Local text matching stays off since the backend
// already matched the term.
func (sv *SearchView) SetSearch(term string) {
	sv.mu.Lock()
	sv.params.Term = term
	sv.mu.Unlock()
}

// SetCategory maps todos|produtos|bancas onto the backend's all|produto|banca and hides
// held hits of the other kind.
func (sv *SearchView) SetCategory(cat string) error {
	var kind string
	var keep HitKind
	switch cat {
	case CategoryAll:
		kind = feira.SearchAll
	case CategoryProducts:
		kind, keep = feira.SearchProduct, HitProduct
	case CategoryStalls:
		kind, keep = feira.SearchStall, HitStall
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCategory, cat)
	}

	sv.mu.Lock()
	sv.category = cat
	sv.params.Kind = kind
	sv.mu.Unlock()

	if keep == "" {
		sv.SetConstraint(constraintCategory, nil)
	} else {
		sv.SetConstraint(constraintCategory, func(h Hit) bool { return h.Kind == keep })
	}
	return nil
}

func (sv *SearchView) SetMaxPrice(max *decimal.Decimal) {
	sv.mu.Lock()
	sv.params.MaxPrice = max
	sv.mu.Unlock()
}

func (sv *SearchView) SetMaxDistance(meters *float64) {
	sv.mu.Lock()
	sv.params.MaxDistanceMeters = meters
	sv.mu.Unlock()
}

// SetSort asks the backend to order by price or distance.
func (sv *SearchView) SetSort(key SortKey) error {
	var orderBy string
	switch key {
	case SortNone:
	case SortPrice:
		orderBy = feira.OrderByPrice
	case SortDistance:
		orderBy = feira.OrderByDistance
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSort, key)
	}
	sv.mu.Lock()
	sv.params.OrderBy = orderBy
	sv.mu.Unlock()
	return nil
}

// SetReference moves the point distances are measured from.
func (sv *SearchView) SetReference(p geo.Point) {
	lat, lon := p.Lat, p.Lon
	sv.mu.Lock()
	sv.params.RefLat, sv.params.RefLon = &lat, &lon
	sv.mu.Unlock()
}
