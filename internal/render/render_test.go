package render

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/letsgobuy/storefront/internal/form"
	"github.com/letsgobuy/storefront/internal/listview"
	"github.com/letsgobuy/storefront/internal/session"
	"github.com/letsgobuy/storefront/pkg/model"
)

func strPtr(s string) *string { return &s }
func f64(v float64) *float64 { return &v }

func loadedStalls(t *testing.T, items []model.Stall, err error) *listview.StallList {
	t.Helper()
	lv := listview.NewStallList(func(context.Context) ([]model.Stall, error) { return items, err })
	_ = lv.Refresh(context.Background())
	return lv
}

func TestStalls_ZeroRecords(t *testing.T) {
	out := Stalls(loadedStalls(t, []model.Stall{}, nil).Snapshot())
	assert.Contains(t, out, "no stalls registered yet")
}

func TestStalls_NoMatches(t *testing.T) {
	lv := loadedStalls(t, []model.Stall{{ID: 1, Name: "Banca"}}, nil)
	lv.SetSearch("queijo")
	out := Stalls(lv.Snapshot())
	assert.Contains(t, out, NoStallsMatch)
	assert.NotContains(t, out, NoStallsRegistered)
}

func TestStalls_FailureShowsBannerAndEmptyState(t *testing.T) {
	out := Stalls(loadedStalls(t, nil, errors.New("refused")).Snapshot())
	assert.Contains(t, out, ErrorBanner)
	assert.Contains(t, out, NoStallsRegistered)
}

func TestStalls_PlaceholdersAndTruncation(t *testing.T) {
	long := strings.Repeat("Frutas e verduras frescas da estação. ", 5)
	lv := loadedStalls(t, []model.Stall{
		{ID: 1, Name: "Banca do João", Description: strPtr(long)},
		{ID: 2, Name: "Banca Vazia"},
	}, nil)
	out := Stalls(lv.Snapshot())

	assert.Contains(t, out, HoursMissing)
	assert.Contains(t, out, DescriptionMissing)
	assert.NotContains(t, out, strings.TrimSpace(long))
	assert.Contains(t, out, "...")
}

func TestStallDetail_Untruncated(t *testing.T) {
	long := strings.Repeat("Queijo colonial artesanal. ", 6)
	s := model.Stall{
		Name:        "Queijos da Serra",
		Description: strPtr(long),
		Address: model.Address{
			Street: "Rua A", Number: strPtr("10"), City: "Lapa", State: "PR", ZipCode: "83750-000",
			Latitude: f64(-25.769512), Longitude: f64(-49.716211),
		},
	}
	out := StallDetail(s)
	assert.Contains(t, out, strings.TrimSpace(long))
	assert.Contains(t, out, "GPS: -25.7695, -49.7162")
	assert.Contains(t, out, "https://www.google.com/maps/search/?api=1&query=-25.769512,-49.716211")
	assert.NotContains(t, out, GPSMissing)

	bare := StallDetail(model.Stall{Name: "Sem nada"})
	assert.Contains(t, bare, DescriptionNotGiven)
	assert.Contains(t, bare, GPSMissing)
	assert.Contains(t, bare, HoursMissing)
}

func TestStallDetail_MissingAddress(t *testing.T) {
	out := StallDetail(model.Stall{ID: 1, Name: "Banca do Ze"})
	assert.Contains(t, out, "Address: "+AddressMissing+"\n")
	assert.NotContains(t, out, " - , /")
	assert.NotContains(t, out, "ZIP code:")

	partial := StallDetail(model.Stall{Name: "Horta", Address: model.Address{Street: "Rua A", City: "Curitiba", State: "PR", ZipCode: "80000-000"}})
	assert.Contains(t, partial, "Address: Rua A, Curitiba/PR\n")
	assert.Contains(t, partial, "ZIP code: 80000-000\n")
	assert.NotContains(t, partial, AddressMissing)
}

func TestStalls_LoadingBeforeFirstResponse(t *testing.T) {
	out := Stalls(listview.Snapshot[model.Stall]{Loading: true})
	assert.Contains(t, out, LoadingText)
	assert.NotContains(t, out, NoStallsRegistered)
}

func TestProducts(t *testing.T) {
	lv := listview.NewProductList(func(context.Context) ([]model.Product, error) {
		return []model.Product{{ID: 1, Name: "Mel", Price: decimal.RequireFromString("25.9"), StallID: 3}}, nil
	})
	require.NoError(t, lv.Refresh(context.Background()))
	out := Products(lv.Snapshot())
	assert.Contains(t, out, "R$ 25.90")
	assert.Contains(t, out, "stall #3")

	assert.Contains(t, ProductDetail(model.Product{Name: "Mel"}), ImageMissing)
}

func TestSuppliers(t *testing.T) {
	lv := listview.NewSupplierList(func(context.Context) ([]model.Supplier, error) { return nil, nil })
	require.NoError(t, lv.Refresh(context.Background()))
	assert.Contains(t, Suppliers(lv.Snapshot()), NoSuppliers)

	assert.Contains(t, SupplierDetail(model.Supplier{Name: "Sítio"}), DescriptionNotGiven)
}

func TestTruncate_WideRunes(t *testing.T) {
	s := Truncate("日本語のテキストはとても長いです", 10)
	assert.LessOrEqual(t, runewidth.StringWidth(s), 10)
	assert.True(t, strings.HasSuffix(s, "..."))
	assert.Equal(t, "curto", Truncate("curto", 10))
}

func TestForm(t *testing.T) {
	f := form.New(nil, nil)
	require.NoError(t, f.SwitchKind(form.KindProduct))
	require.NoError(t, f.Set(form.FieldName, "Mel"))
	_ = f.Submit(context.Background())

	out := Form(f.State())
	assert.Contains(t, out, "[produto]")
	assert.Contains(t, out, "New Product")
	assert.Contains(t, out, "Price (R$) *")
	assert.Contains(t, out, "Image URL:")
	assert.Contains(t, out, "(error) "+form.MsgRequired)
	assert.Contains(t, out, "[Register]")

	st := f.State()
	st.Submitting = true
	assert.Contains(t, Form(st), "[Processing...]")
}

func TestHeader(t *testing.T) {
	v := session.HeaderView{
		Brand:    session.Brand,
		Links:    []session.Link{{Name: "Home", Href: "/", Active: true}, {Name: "Bancas", Href: "/bancas"}},
		LoggedIn: true,
		UserName: "ana@x.com",
		Actions:  []session.Link{{Name: "Perfil"}, {Name: "Sair"}},
	}
	out := Header(v)
	assert.Contains(t, out, "*Home*")
	assert.Contains(t, out, "ana@x.com [Perfil] [Sair]")
}
