package form

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/letsgobuy/storefront/internal/feira"
	"github.com/letsgobuy/storefront/pkg/model"
)

// Submitter is the backend the form writes to.
type Submitter interface {
	CreateSupplier(ctx context.Context, p *feira.SupplierPayload) (*model.Supplier, error)
	CreateStall(ctx context.Context, p *feira.StallPayload) (*model.Stall, error)
	CreateProduct(ctx context.Context, p *feira.ProductPayload) (*model.Product, error)
}

// Payload is the kind-specific request body: one of SupplierPayload, StallPayload or
// ProductPayload.
type Payload interface {
	Kind() Kind
	send(ctx context.Context, s Submitter) error
}

type SupplierPayload struct{ Body feira.SupplierPayload }

type StallPayload struct{ Body feira.StallPayload }

type ProductPayload struct{ Body feira.ProductPayload }

func (SupplierPayload) Kind() Kind { return KindSupplier }
func (StallPayload) Kind() Kind    { return KindStall }
func (ProductPayload) Kind() Kind  { return KindProduct }

func (p SupplierPayload) send(ctx context.Context, s Submitter) error {
	_, err := s.CreateSupplier(ctx, &p.Body)
	return err
}

func (p StallPayload) send(ctx context.Context, s Submitter) error {
	_, err := s.CreateStall(ctx, &p.Body)
	return err
}

func (p ProductPayload) send(ctx context.Context, s Submitter) error {
	_, err := s.CreateProduct(ctx, &p.Body)
	return err
}

// Build assembles and validates the payload for kind from flat field values.
func Build(kind Kind, values map[string]string) (Payload, error) {
	var (
		p    Payload
		body any
		err  error
	)
	switch kind {
	case KindSupplier:
		sp := SupplierPayload{Body: feira.SupplierPayload{
			Name:        values[FieldName],
			Email:       strings.TrimSpace(values[FieldEmail]),
			City:        values[FieldCity],
			Description: optional(values[FieldDescription]),
		}}
		p, body = sp, &sp.Body
	case KindStall:
		var sp StallPayload
		sp, err = buildStall(values)
		p, body = sp, &sp.Body
	case KindProduct:
		var pp ProductPayload
		pp, err = buildProduct(values)
		p, body = pp, &pp.Body
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if err != nil {
		return nil, err
	}
	if err := feira.Validate(body); err != nil {
		return nil, err
	}
	return p, nil
}

func buildStall(values map[string]string) (StallPayload, error) {
	lat, err := optionalFloat(values, FieldLatitude)
	if err != nil {
		return StallPayload{}, err
	}
	lon, err := optionalFloat(values, FieldLongitude)
	if err != nil {
		return StallPayload{}, err
	}
	return StallPayload{Body: feira.StallPayload{
		Name:         values[FieldName],
		Description:  optional(values[FieldDescription]),
		OpeningHours: optional(values[FieldOpeningHours]),
		SupplierID:   strings.TrimSpace(values[FieldSupplierID]),
		Address: feira.AddressPayload{
			Street:     values[FieldStreet],
			Number:     optional(values[FieldNumber]),
			Complement: optional(values[FieldComplement]),
			District:   optional(values[FieldDistrict]),
			City:       values[FieldStallCity],
			State:      values[FieldState],
			ZipCode:    values[FieldZipCode],
			Latitude:   lat,
			Longitude:  lon,
		},
	}}, nil
}

func buildProduct(values map[string]string) (ProductPayload, error) {
	price, err := ParsePrice(values[FieldPrice])
	if err != nil {
		return ProductPayload{}, &feira.ValidationError{Field: FieldPrice, Message: "preco must be a number"}
	}
	amount, ok := priceNumber(price)
	if !ok {
		return ProductPayload{}, &feira.ValidationError{Field: FieldPrice, Message: "preco is out of range"}
	}
	stallID, err := strconv.ParseInt(strings.TrimSpace(values[FieldStallID]), 10, 64)
	if err != nil {
		return ProductPayload{}, &feira.ValidationError{Field: FieldStallID, Message: "banca_id must be an integer"}
	}
	return ProductPayload{Body: feira.ProductPayload{
		Name:    values[FieldName],
		Price:   amount,
		Image:   optional(values[FieldImage]),
		StallID: stallID,
	}}, nil
}

// priceNumber converts d to the float sent on the wire. It fails when the value is not
// finite or does not survive the conversion unchanged.
func priceNumber(d decimal.Decimal) (float64, bool) {
	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, decimal.NewFromFloat(f).Equal(d)
}

// ParsePrice reads a currency amount, accepting a decimal comma.
func ParsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return decimal.NewFromString(s)
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func optionalFloat(values map[string]string, field string) (*float64, error) {
	raw := strings.TrimSpace(values[field])
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
	if err != nil {
		return nil, &feira.ValidationError{Field: field, Message: field + " must be a number"}
	}
	return &v, nil
}
