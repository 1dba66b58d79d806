package model

import "strings"

// Address is the physical location of a stall.
type Address struct {
	ID         string   `json:"id,omitempty"`
	Street     string   `json:"street"`
	Number     *string  `json:"number,omitempty"`
	Complement *string  `json:"complement,omitempty"`
	District   *string  `json:"district,omitempty"`
	City       string   `json:"city"`
	State      string   `json:"state"`
	ZipCode    string   `json:"zip_code"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are known.
func (a Address) HasCoordinates() bool {
	return a.Latitude != nil && a.Longitude != nil
}

// Line formats the address as "street, number - district, city/state", leaving out empty
// parts and their separators. An empty address yields "".
func (a Address) Line() string {
	head := strings.TrimSpace(a.Street)
	if n := strings.TrimSpace(deref(a.Number)); n != "" {
		head = joinNonEmpty(", ", head, n)
	}
	head = joinNonEmpty(" - ", head, strings.TrimSpace(deref(a.District)))
	locality := joinNonEmpty("/", strings.TrimSpace(a.City), strings.TrimSpace(a.State))
	return joinNonEmpty(", ", head, locality)
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// Stall ("banca") is a vendor stall owned by a supplier.
type Stall struct {
	ID           int64   `json:"id"`
	Name         string  `json:"nome"`
	Description  *string `json:"descricao,omitempty"`
	OpeningHours *string `json:"horario_funcionamento,omitempty"`
	SupplierID   string  `json:"supplier_id"`
	Address      Address `json:"address"`
	CreatedAt    string  `json:"created_at,omitempty"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Deref returns the pointed-to string or "" for nil.
func Deref(s *string) string { return deref(s) }
