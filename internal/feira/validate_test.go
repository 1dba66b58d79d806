package feira

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Supplier(t *testing.T) {
	require.NoError(t, Validate(&SupplierPayload{Name: "Sítio", Email: "a@b.com", City: "Curitiba"}))

	err := Validate(&SupplierPayload{Name: "Sítio", Email: "not-an-email", City: "Curitiba"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "email", ve.Field)
}

func TestValidate_StallCoordinatesAndSupplier(t *testing.T) {
	lat, lon := -25.42, -49.27
	ok := &StallPayload{
		Name:       "Banca",
		SupplierID: "6f1c8f5e-1b9a-4c1e-9a59-1f3f1f0c2a11",
		Address:    AddressPayload{Street: "Rua A", City: "Curitiba", State: "PR", ZipCode: "80000-000", Latitude: &lat, Longitude: &lon},
	}
	require.NoError(t, Validate(ok))

	bad := *ok
	badLat := 123.0
	bad.Address.Latitude = &badLat
	var ve *ValidationError
	require.ErrorAs(t, Validate(&bad), &ve)
	assert.Equal(t, "latitude", ve.Field)

	bad = *ok
	bad.SupplierID = "42"
	require.ErrorAs(t, Validate(&bad), &ve)
	assert.Equal(t, "supplier_id", ve.Field)
}

func TestValidate_ProductPrice(t *testing.T) {
	require.NoError(t, Validate(&ProductPayload{Name: "Queijo", Price: 0, StallID: 1}))

	var ve *ValidationError
	require.ErrorAs(t, Validate(&ProductPayload{Name: "Queijo", Price: -1, StallID: 1}), &ve)
	assert.Equal(t, "preco", ve.Field)
	assert.Equal(t, "preco is out of range", ve.Message)
}

func TestValidate_RegisterType(t *testing.T) {
	var ve *ValidationError
	require.ErrorAs(t, Validate(&RegisterRequest{Name: "a", Email: "a@b.com", Password: "x", Type: "root"}), &ve)
	assert.Equal(t, "type", ve.Field)
}
