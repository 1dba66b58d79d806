package feira

import (
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

// SupplierPayload is the body of POST /suppliers/.
type SupplierPayload struct {
	Name        string  `json:"nome" validate:"required"`
	Email       string  `json:"email" validate:"required,email"`
	City        string  `json:"cidade" validate:"required"`
	Description *string `json:"descricao,omitempty"`
}

// AddressPayload is the nested address of a stall.
type AddressPayload struct {
	Street     string   `json:"street" validate:"required"`
	Number     *string  `json:"number,omitempty"`
	Complement *string  `json:"complement,omitempty"`
	District   *string  `json:"district,omitempty"`
	City       string   `json:"city" validate:"required"`
	State      string   `json:"state" validate:"required"`
	ZipCode    string   `json:"zip_code" validate:"required"`
	Latitude   *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude  *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
}

// StallPayload is the body of POST /bancas/.
type StallPayload struct {
	Name         string         `json:"nome" validate:"required"`
	Description  *string        `json:"descricao,omitempty"`
	OpeningHours *string        `json:"horario_funcionamento,omitempty"`
	SupplierID   string         `json:"supplier_id" validate:"required,uuid"`
	Address      AddressPayload `json:"address"`
}

// ProductPayload is the body of POST /produtos/. Price travels as a JSON number.
type ProductPayload struct {
	Name    string  `json:"nome" validate:"required"`
	Price   float64 `json:"preco" validate:"gte=0"`
	Image   *string `json:"imagem,omitempty" validate:"omitempty,url"`
	StallID int64   `json:"banca_id" validate:"gt=0"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /users/.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Type     string `json:"type" validate:"oneof=user admin supplier"`
}

type updateEmailRequest struct {
	Email string `json:"email"`
}

// UserResponse is the public user record returned by the auth and users endpoints.
type UserResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Type      string `json:"type"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Search kinds accepted by /pesquisa/.
const (
	SearchAll     = "all"
	SearchProduct = "produto"
	SearchStall   = "banca"
)

// Search orderings accepted by /pesquisa/.
const (
	OrderByPrice    = "preco"
	OrderByDistance = "distancia"
)

// SearchParams narrows the aggregate search server-side.
type SearchParams struct {
	Term              string
	Kind              string
	MaxPrice          *decimal.Decimal
	MaxDistanceMeters *float64
	OrderBy           string
	UserLat, UserLon  *float64
	RefLat, RefLon    *float64
}

// Query encodes p as /pesquisa/ query parameters. Kind defaults to "all".
func (p SearchParams) Query() url.Values {
	q := url.Values{}
	q.Set("termo", p.Term)
	kind := p.Kind
	if kind == "" {
		kind = SearchAll
	}
	q.Set("tipo", kind)
	if p.MaxPrice != nil {
		q.Set("preco_max", p.MaxPrice.String())
	}
	setFloat(q, "distancia_max_metros", p.MaxDistanceMeters)
	if p.OrderBy != "" {
		q.Set("order_by", p.OrderBy)
	}
	setFloat(q, "lat_user", p.UserLat)
	setFloat(q, "lon_user", p.UserLon)
	setFloat(q, "lat_ref", p.RefLat)
	setFloat(q, "lon_ref", p.RefLon)
	return q
}

func setFloat(q url.Values, key string, v *float64) {
	if v != nil {
		q.Set(key, strconv.FormatFloat(*v, 'f', -1, 64))
	}
}
