package listview

import (
	"cmp"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/letsgobuy/storefront/internal/geo"
	"github.com/letsgobuy/storefront/pkg/model"
)

// SortKey selects the ordering of a derived view.
type SortKey string

const (
	SortNone     SortKey = ""
	SortName     SortKey = "nome"
	SortPrice    SortKey = "preco"
	SortDistance SortKey = "distancia"
)

var (
	ErrUnknownSort = errors.New("unknown sort key")
	ErrNoOrigin    = errors.New("distance requires a reference location")
)

// Constraint names.
const (
	constraintMaxPrice    = "max_price"
	constraintMaxDistance = "max_distance"
	constraintCategory    = "category"
)

func byName(a, b string) int {
	return cmp.Compare(strings.ToLower(a), strings.ToLower(b))
}

// ─── Stalls ───────────────────────────────────────────────────────────────────

// StallSpec searches stalls by name, description and formatted address.
func StallSpec() Spec[model.Stall] {
	return Spec[model.Stall]{
		Name: "bancas",
		ID:   func(s model.Stall) string { return strconv.FormatInt(s.ID, 10) },
		Text: func(s model.Stall) []string {
			return []string{s.Name, model.Deref(s.Description), s.Address.Line()}
		},
	}
}

// StallDistance returns the distance in meters from origin, if the stall has coordinates.
func StallDistance(s model.Stall, origin geo.Point) (float64, bool) {
	if !s.Address.HasCoordinates() {
		return 0, false
	}
	return geo.Haversine(origin, geo.Point{Lat: *s.Address.Latitude, Lon: *s.Address.Longitude}), true
}

// StallList is the stalls page.
type StallList struct {
	*ListView[model.Stall]

	mu     sync.Mutex
	origin *geo.Point
}

func NewStallList(fetch Fetcher[model.Stall], opts ...Option) *StallList {
	return &StallList{ListView: New(StallSpec(), fetch, opts...)}
}

// SetOrigin sets the reference location used for distance filtering and sorting.
func (l *StallList) SetOrigin(p geo.Point) {
	l.mu.Lock()
	l.origin = &p
	l.mu.Unlock()
}

// SetMaxDistance keeps only stalls within meters of origin. Stalls without coordinates are
// excluded while the constraint is active. nil clears it.
func (l *StallList) SetMaxDistance(meters *float64, origin geo.Point) {
	l.SetOrigin(origin)
	if meters == nil {
		l.SetConstraint(constraintMaxDistance, nil)
		return
	}
	limit := *meters
	l.SetConstraint(constraintMaxDistance, func(s model.Stall) bool {
		d, ok := StallDistance(s, origin)
		return ok && d <= limit
	})
}

// SetSort orders stalls by name or by distance from the origin (unlocated stalls last).
func (l *StallList) SetSort(key SortKey) error {
	switch key {
	case SortNone:
		l.SetOrder(nil)
	case SortName:
		l.SetOrder(func(a, b model.Stall) int { return byName(a.Name, b.Name) })
	case SortDistance:
		l.mu.Lock()
		origin := l.origin
		l.mu.Unlock()
		if origin == nil {
			return ErrNoOrigin
		}
		o := *origin
		l.SetOrder(func(a, b model.Stall) int {
			da, okA := StallDistance(a, o)
			db, okB := StallDistance(b, o)
			switch {
			case okA && okB:
				return cmp.Compare(da, db)
			case okA:
				return -1
			case okB:
				return 1
			}
			return 0
		})
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSort, key)
	}
	return nil
}

// ─── Products ─────────────────────────────────────────────────────────────────

// ProductSpec searches products by name.
func ProductSpec() Spec[model.Product] {
	return Spec[model.Product]{
		Name: "produtos",
		ID:   func(p model.Product) string { return strconv.FormatInt(p.ID, 10) },
		Text: func(p model.Product) []string { return []string{p.Name} },
	}
}

// ProductList is the products page.
type ProductList struct {
	*ListView[model.Product]
}

func NewProductList(fetch Fetcher[model.Product], opts ...Option) *ProductList {
	return &ProductList{ListView: New(ProductSpec(), fetch, opts...)}
}

// SetMaxPrice keeps only products priced at or below max. nil clears it.
func (l *ProductList) SetMaxPrice(max *decimal.Decimal) {
	if max == nil {
		l.SetConstraint(constraintMaxPrice, nil)
		return
	}
	limit := *max
	l.SetConstraint(constraintMaxPrice, func(p model.Product) bool {
		return p.Price.LessThanOrEqual(limit)
	})
}

func (l *ProductList) SetSort(key SortKey) error {
	switch key {
	case SortNone:
		l.SetOrder(nil)
	case SortName:
		l.SetOrder(func(a, b model.Product) int { return byName(a.Name, b.Name) })
	case SortPrice:
		l.SetOrder(func(a, b model.Product) int { return a.Price.Cmp(b.Price) })
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSort, key)
	}
	return nil
}

// ─── Suppliers ────────────────────────────────────────────────────────────────

// SupplierSpec searches suppliers by name, description and city.
func SupplierSpec() Spec[model.Supplier] {
	return Spec[model.Supplier]{
		Name: "suppliers",
		ID:   func(s model.Supplier) string { return s.ID },
		Text: func(s model.Supplier) []string {
			return []string{s.Name, model.Deref(s.Description), s.City}
		},
	}
}

// SupplierList is the suppliers page.
type SupplierList struct {
	*ListView[model.Supplier]
}

func NewSupplierList(fetch Fetcher[model.Supplier], opts ...Option) *SupplierList {
	return &SupplierList{ListView: New(SupplierSpec(), fetch, opts...)}
}

func (l *SupplierList) SetSort(key SortKey) error {
	switch key {
	case SortNone:
		l.SetOrder(nil)
	case SortName:
		l.SetOrder(func(a, b model.Supplier) int { return byName(a.Name, b.Name) })
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSort, key)
	}
	return nil
}
