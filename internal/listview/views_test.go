package listview

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/letsgobuy/storefront/internal/feira"
	"github.com/letsgobuy/storefront/internal/geo"
	"github.com/letsgobuy/storefront/pkg/model"
)

func f64(v float64) *float64 { return &v }

func locatedStalls() []model.Stall {
	return []model.Stall{
		{ID: 1, Name: "Longe", Address: model.Address{Latitude: f64(-23.55), Longitude: f64(-46.63)}},
		{ID: 2, Name: "Sem GPS"},
		{ID: 3, Name: "Perto", Address: model.Address{Latitude: f64(-25.43), Longitude: f64(-49.27)}},
	}
}

var curitiba = geo.Point{Lat: -25.4257, Lon: -49.2733}

func TestStallList_MaxDistance(t *testing.T) {
	lv := NewStallList(staticFetch(locatedStalls()))
	require.NoError(t, lv.Refresh(context.Background()))

	lv.SetMaxDistance(f64(5000), curitiba)
	assert.Equal(t, []int64{3}, ids(lv.View()))

	lv.SetMaxDistance(nil, curitiba)
	assert.Len(t, lv.View(), 3)
}

func TestStallList_SortByDistance(t *testing.T) {
	lv := NewStallList(staticFetch(locatedStalls()))
	require.NoError(t, lv.Refresh(context.Background()))

	assert.ErrorIs(t, lv.SetSort(SortDistance), ErrNoOrigin)

	lv.SetOrigin(curitiba)
	require.NoError(t, lv.SetSort(SortDistance))
	assert.Equal(t, []int64{3, 1, 2}, ids(lv.View()))

	require.NoError(t, lv.SetSort(SortName))
	assert.Equal(t, []int64{1, 3, 2}, ids(lv.View()))

	assert.ErrorIs(t, lv.SetSort(SortPrice), ErrUnknownSort)
}

func TestProductList_MaxPriceAndSort(t *testing.T) {
	products := []model.Product{
		{ID: 1, Name: "Trator", Price: decimal.RequireFromString("2500.00")},
		{ID: 2, Name: "alface", Price: decimal.RequireFromString("3.50")},
		{ID: 3, Name: "Mel", Price: decimal.RequireFromString("25")},
	}
	lv := NewProductList(staticFetch(products))
	require.NoError(t, lv.Refresh(context.Background()))

	max := decimal.RequireFromString("25")
	lv.SetMaxPrice(&max)
	require.NoError(t, lv.SetSort(SortPrice))

	var got []int64
	for _, p := range lv.View() {
		got = append(got, p.ID)
	}
	assert.Equal(t, []int64{2, 3}, got)

	lv.SetMaxPrice(nil)
	require.NoError(t, lv.SetSort(SortName))
	got = got[:0]
	for _, p := range lv.View() {
		got = append(got, p.ID)
	}
	assert.Equal(t, []int64{2, 3, 1}, got)
}

func TestSupplierList_SearchesCity(t *testing.T) {
	lv := NewSupplierList(staticFetch([]model.Supplier{
		{ID: "a", Name: "Sítio Bom", City: "Curitiba"},
		{ID: "b", Name: "Fazenda Sol", City: "Londrina"},
	}))
	require.NoError(t, lv.Refresh(context.Background()))
	lv.SetSearch("londr")
	got := lv.View()
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}

type fakeSearcher struct {
	last feira.SearchParams
	res  *model.SearchResult
}

func (f *fakeSearcher) Search(_ context.Context, p feira.SearchParams) (*model.SearchResult, error) {
	f.last = p
	return f.res, nil
}

func TestSearchView_ParamsAndCategory(t *testing.T) {
	fs := &fakeSearcher{res: &model.SearchResult{
		Query:    "mel",
		Products: []model.Product{{ID: 1, Name: "Mel"}},
		Stalls:   []model.Stall{{ID: 7, Name: "Banca do Mel"}},
	}}
	sv := NewSearchView(fs, curitiba)

	sv.SetSearch("mel")
	max := decimal.RequireFromString("30")
	sv.SetMaxPrice(&max)
	sv.SetMaxDistance(f64(2000))
	require.NoError(t, sv.SetSort(SortDistance))
	require.NoError(t, sv.Refresh(context.Background()))

	assert.Equal(t, "mel", fs.last.Term)
	assert.Equal(t, feira.SearchAll, fs.last.Kind)
	assert.Equal(t, "30", fs.last.MaxPrice.String())
	assert.Equal(t, feira.OrderByDistance, fs.last.OrderBy)
	assert.Equal(t, curitiba.Lat, *fs.last.UserLat)
	assert.Len(t, sv.View(), 2)

	require.NoError(t, sv.SetCategory(CategoryStalls))
	require.Len(t, sv.View(), 1)
	assert.Equal(t, "banca:7", sv.View()[0].ID())

	require.NoError(t, sv.Refresh(context.Background()))
	assert.Equal(t, feira.SearchStall, fs.last.Kind)

	assert.ErrorIs(t, sv.SetCategory("outros"), ErrUnknownCategory)
	assert.ErrorIs(t, sv.SetSort(SortName), ErrUnknownSort)
}
