package model

// Supplier ("fornecedor") is the account that owns one or more stalls.
type Supplier struct {
	ID          string  `json:"id"`
	Name        string  `json:"nome"`
	Email       string  `json:"email"`
	City        string  `json:"cidade"`
	Description *string `json:"descricao,omitempty"`
	CreatedAt   string  `json:"created_at,omitempty"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
}
