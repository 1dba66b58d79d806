package model

import "github.com/shopspring/decimal"

// Product is an item sold at a stall.
type Product struct {
	ID        int64           `json:"id"`
	Name      string          `json:"nome"`
	Price     decimal.Decimal `json:"preco"`
	Image     *string         `json:"imagem,omitempty"`
	StallID   int64           `json:"banca_id"`
	CreatedAt string          `json:"created_at,omitempty"`
	UpdatedAt string          `json:"updated_at,omitempty"`
}
