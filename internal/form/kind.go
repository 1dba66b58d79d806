package form

import (
	"errors"
	"fmt"
	"slices"
)

// Kind is the entity the form registers.
type Kind string

const (
	KindSupplier Kind = "fornecedor"
	KindStall    Kind = "banca"
	KindProduct  Kind = "produto"
)

// Kinds lists every kind in tab order.
var Kinds = []Kind{KindSupplier, KindStall, KindProduct}

var ErrUnknownKind = errors.New("unknown entity kind")

// ParseKind accepts the kind names used by the form tabs.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !slices.Contains(Kinds, k) {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Title is the form heading for the kind.
func (k Kind) Title() string {
	switch k {
	case KindSupplier:
		return "New Supplier"
	case KindStall:
		return "New Stall"
	case KindProduct:
		return "New Product"
	}
	return string(k)
}

// Field describes one input of the form.
type Field struct {
	Name     string
	Label    string
	Required bool
}

// Field names.
const (
	FieldName         = "nome"
	FieldDescription  = "descricao"
	FieldEmail        = "email"
	FieldCity         = "cidade"
	FieldSupplierID   = "supplier_id"
	FieldOpeningHours = "horario_funcionamento"
	FieldStreet       = "street"
	FieldNumber       = "number"
	FieldComplement   = "complement"
	FieldDistrict     = "district"
	FieldStallCity    = "city"
	FieldState        = "state"
	FieldZipCode      = "zip_code"
	FieldLatitude     = "latitude"
	FieldLongitude    = "longitude"
	FieldPrice        = "preco"
	FieldImage        = "imagem"
	FieldStallID      = "banca_id"
)

var fieldsByKind = map[Kind][]Field{
	KindSupplier: {
		{FieldName, "Name", true},
		{FieldEmail, "Email", true},
		{FieldCity, "City", true},
		{FieldDescription, "Description", false},
	},
	KindStall: {
		{FieldName, "Stall name", true},
		{FieldSupplierID, "Supplier ID", true},
		{FieldStreet, "Street", true},
		{FieldNumber, "Number", false},
		{FieldComplement, "Complement", false},
		{FieldDistrict, "District", false},
		{FieldZipCode, "ZIP code", true},
		{FieldStallCity, "City", true},
		{FieldState, "State (UF)", true},
		{FieldLatitude, "Latitude", false},
		{FieldLongitude, "Longitude", false},
		{FieldOpeningHours, "Opening hours", false},
		{FieldDescription, "Description", false},
	},
	KindProduct: {
		{FieldName, "Product name", true},
		{FieldPrice, "Price (R$)", true},
		{FieldStallID, "Stall ID", true},
		{FieldImage, "Image URL", false},
	},
}

// Fields returns the ordered inputs for k.
func (k Kind) Fields() []Field {
	return slices.Clone(fieldsByKind[k])
}

// Has reports whether field belongs to k.
func (k Kind) Has(field string) bool {
	return slices.ContainsFunc(fieldsByKind[k], func(f Field) bool { return f.Name == field })
}
