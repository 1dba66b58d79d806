// Package render produces the text views of the storefront pages.
package render

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/shopspring/decimal"

	"github.com/letsgobuy/storefront/internal/form"
	"github.com/letsgobuy/storefront/internal/geo"
	"github.com/letsgobuy/storefront/internal/listview"
	"github.com/letsgobuy/storefront/internal/session"
	"github.com/letsgobuy/storefront/pkg/model"
)

// Empty and placeholder states.
const (
	NoStallsRegistered   = "no stalls registered yet"
	NoStallsMatch        = "no stalls match your search"
	NoProductsRegistered = "no products registered yet"
	NoProductsMatch      = "no products match your search"
	NoSuppliers          = "no suppliers registered yet"
	NoSuppliersMatch     = "no suppliers match your search"
	NoSearchResults      = "no results found"

	HoursMissing        = "Opening hours not provided"
	DescriptionMissing  = "No description."
	DescriptionNotGiven = "No description available."
	GPSMissing          = "GPS location not available"
	AddressMissing      = "Address not provided"
	ImageMissing        = "(no image)"

	LoadingText = "Loading..."
	ErrorBanner = "! Could not load data from the server. (dismiss with --dismiss or refresh)"
)

// DefaultWidth is the column budget for truncated list text.
const DefaultWidth = 60

// Truncate shortens s to width display cells, ending in "...".
func Truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.Truncate(s, width, "...")
}

// Price formats an amount as "R$ 0.00".
func Price(d decimal.Decimal) string {
	return "R$ " + d.StringFixed(2)
}

func orDefault(s *string, placeholder string) string {
	if v := strings.TrimSpace(model.Deref(s)); v != "" {
		return v
	}
	return placeholder
}

// preamble writes the loading and error lines. It reports false when nothing else should
// be rendered yet.
func preamble(b *strings.Builder, loading, failed, loaded bool) bool {
	if loading {
		b.WriteString(LoadingText + "\n")
		if !loaded {
			return false
		}
	}
	if failed {
		b.WriteString(ErrorBanner + "\n")
	}
	return true
}

// ─── Stalls ───────────────────────────────────────────────────────────────────

// Stalls renders the stalls list with truncated descriptions.
func Stalls(snap listview.Snapshot[model.Stall]) string {
	var b strings.Builder
	b.WriteString("Feira Virtual - Stalls\n")
	if !preamble(&b, snap.Loading, snap.Error, snap.Loaded) {
		return b.String()
	}
	switch {
	case snap.Empty():
		b.WriteString(NoStallsRegistered + "\n")
		return b.String()
	case len(snap.Items) == 0:
		b.WriteString(NoStallsMatch + "\n")
		return b.String()
	}
	for _, s := range snap.Items {
		fmt.Fprintf(&b, "[%d] %s\n", s.ID, s.Name)
		fmt.Fprintf(&b, "    %s\n", orDefault(s.OpeningHours, HoursMissing))
		fmt.Fprintf(&b, "    %s\n", Truncate(orDefault(s.Description, DescriptionMissing), DefaultWidth))
	}
	return b.String()
}

// StallDetail renders every field of a stall, untruncated.
func StallDetail(s model.Stall) string {
	var b strings.Builder
	a := s.Address
	fmt.Fprintf(&b, "%s\n", s.Name)
	line := a.Line()
	if line == "" {
		line = AddressMissing
	}
	fmt.Fprintf(&b, "Address: %s\n", line)
	if c := model.Deref(a.Complement); c != "" {
		fmt.Fprintf(&b, "Complement: %s\n", c)
	}
	if zip := strings.TrimSpace(a.ZipCode); zip != "" {
		fmt.Fprintf(&b, "ZIP code: %s\n", zip)
	}
	fmt.Fprintf(&b, "Opening hours: %s\n", orDefault(s.OpeningHours, HoursMissing))
	if a.HasCoordinates() {
		fmt.Fprintf(&b, "GPS: %s, %s\n", geo.FormatCoord(*a.Latitude), geo.FormatCoord(*a.Longitude))
	}
	fmt.Fprintf(&b, "Description: %s\n", orDefault(s.Description, DescriptionNotGiven))
	if a.HasCoordinates() {
		fmt.Fprintf(&b, "Map: %s\n", geo.MapsURL(geo.Point{Lat: *a.Latitude, Lon: *a.Longitude}))
	} else {
		b.WriteString(GPSMissing + "\n")
	}
	return b.String()
}

// ─── Products ─────────────────────────────────────────────────────────────────

func Products(snap listview.Snapshot[model.Product]) string {
	var b strings.Builder
	b.WriteString("Products\n")
	if !preamble(&b, snap.Loading, snap.Error, snap.Loaded) {
		return b.String()
	}
	switch {
	case snap.Empty():
		b.WriteString(NoProductsRegistered + "\n")
		return b.String()
	case len(snap.Items) == 0:
		b.WriteString(NoProductsMatch + "\n")
		return b.String()
	}
	for _, p := range snap.Items {
		fmt.Fprintf(&b, "[%d] %-*s %12s  stall #%d\n", p.ID, 30, Truncate(p.Name, 30), Price(p.Price), p.StallID)
	}
	return b.String()
}

func ProductDetail(p model.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", p.Name)
	fmt.Fprintf(&b, "Price: %s\n", Price(p.Price))
	fmt.Fprintf(&b, "Stall: #%d\n", p.StallID)
	fmt.Fprintf(&b, "Image: %s\n", orDefault(p.Image, ImageMissing))
	return b.String()
}

// ─── Suppliers ────────────────────────────────────────────────────────────────

func Suppliers(snap listview.Snapshot[model.Supplier]) string {
	var b strings.Builder
	b.WriteString("Suppliers\n")
	if !preamble(&b, snap.Loading, snap.Error, snap.Loaded) {
		return b.String()
	}
	switch {
	case snap.Empty():
		b.WriteString(NoSuppliers + "\n")
		return b.String()
	case len(snap.Items) == 0:
		b.WriteString(NoSuppliersMatch + "\n")
		return b.String()
	}
	for _, s := range snap.Items {
		fmt.Fprintf(&b, "%s (%s) <%s>\n", s.Name, s.City, s.Email)
		fmt.Fprintf(&b, "    %s\n", Truncate(orDefault(s.Description, DescriptionMissing), DefaultWidth))
	}
	return b.String()
}

func SupplierDetail(s model.Supplier) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", s.Name)
	fmt.Fprintf(&b, "Email: %s\n", s.Email)
	fmt.Fprintf(&b, "City: %s\n", s.City)
	fmt.Fprintf(&b, "Description: %s\n", orDefault(s.Description, DescriptionNotGiven))
	return b.String()
}

// ─── Aggregate search ─────────────────────────────────────────────────────────

func Search(snap listview.Snapshot[listview.Hit], category string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search [%s]\n", category)
	if !preamble(&b, snap.Loading, snap.Error, snap.Loaded) {
		return b.String()
	}
	if len(snap.Items) == 0 {
		b.WriteString(NoSearchResults + "\n")
		return b.String()
	}
	for _, h := range snap.Items {
		switch h.Kind {
		case listview.HitProduct:
			fmt.Fprintf(&b, "product [%d] %s  %s\n", h.Product.ID, h.Product.Name, Price(h.Product.Price))
		case listview.HitStall:
			fmt.Fprintf(&b, "stall   [%d] %s  %s\n", h.Stall.ID, h.Stall.Name, orDefault(h.Stall.OpeningHours, HoursMissing))
		}
	}
	return b.String()
}

// ─── Form ─────────────────────────────────────────────────────────────────────

// Form renders the registration form for its current kind.
func Form(st form.State) string {
	var b strings.Builder
	tabs := make([]string, 0, len(form.Kinds))
	for _, k := range form.Kinds {
		if k == st.Kind {
			tabs = append(tabs, "["+string(k)+"]")
		} else {
			tabs = append(tabs, string(k))
		}
	}
	b.WriteString(strings.Join(tabs, " | ") + "\n")
	b.WriteString(st.Kind.Title() + "\n")
	if st.Result.Text != "" {
		fmt.Fprintf(&b, "(%s) %s\n", st.Result.Kind, st.Result.Text)
	}
	for _, f := range st.Fields {
		label := f.Label
		if f.Required {
			label += " *"
		}
		fmt.Fprintf(&b, "  %-22s %s\n", label+":", st.Values[f.Name])
	}
	if st.Submitting {
		b.WriteString("[Processing...]\n")
	} else {
		b.WriteString("[Register]\n")
	}
	return b.String()
}

// ─── Header ───────────────────────────────────────────────────────────────────

func Header(v session.HeaderView) string {
	var b strings.Builder
	b.WriteString(v.Brand)
	for _, l := range v.Links {
		if l.Active {
			fmt.Fprintf(&b, "  *%s*", l.Name)
		} else {
			fmt.Fprintf(&b, "  %s", l.Name)
		}
	}
	b.WriteString("  |")
	if v.LoggedIn {
		fmt.Fprintf(&b, " %s", v.UserName)
	}
	for _, a := range v.Actions {
		fmt.Fprintf(&b, " [%s]", a.Name)
	}
	b.WriteString("\n")
	return b.String()
}
