package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestAddressLine(t *testing.T) {
	full := Address{Street: "Av. Principal", Number: strPtr("123"), District: strPtr("Centro"), City: "Curitiba", State: "PR"}
	assert.Equal(t, "Av. Principal, 123 - Centro, Curitiba/PR", full.Line())

	bare := Address{Street: "Rua XV", City: "Curitiba", State: "PR"}
	assert.Equal(t, "Rua XV, Curitiba/PR", bare.Line())

	cityOnly := Address{City: "Lapa"}
	assert.Equal(t, "Lapa", cityOnly.Line())

	noCity := Address{Street: "Rua A", District: strPtr("Centro")}
	assert.Equal(t, "Rua A - Centro", noCity.Line())
}

func TestAddressLine_EmptyAddressHasNoSeparators(t *testing.T) {
	assert.Equal(t, "", Address{}.Line())
	assert.Equal(t, "", Address{Number: strPtr(" "), District: strPtr("")}.Line())
}

func TestStallDecode_BackendShape(t *testing.T) {
	raw := `{
		"id": 7, "nome": "Banca do João", "descricao": null,
		"horario_funcionamento": "08:00 - 18:00",
		"supplier_id": "6f1c8f5e-1b9a-4c1e-9a59-1f3f1f0c2a11",
		"address": {"street": "Rua A", "city": "Curitiba", "state": "PR", "zip_code": "80000-000", "latitude": -25.4, "longitude": -49.2},
		"created_at": "2025-01-01T00:00:00"
	}`

	var s Stall
	require.NoError(t, json.Unmarshal([]byte(raw), &s))
	assert.Equal(t, int64(7), s.ID)
	assert.Nil(t, s.Description)
	assert.Equal(t, "08:00 - 18:00", Deref(s.OpeningHours))
	assert.True(t, s.Address.HasCoordinates())
}

func TestProductDecode_NumericPrice(t *testing.T) {
	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"nome":"Maçã","preco":12.5,"banca_id":3}`), &p))
	assert.True(t, p.Price.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, int64(3), p.StallID)
}
