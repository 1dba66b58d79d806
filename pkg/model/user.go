package model

// Account types accepted by the registration endpoint.
const (
	UserTypeUser     = "user"
	UserTypeAdmin    = "admin"
	UserTypeSupplier = "supplier"
)

// User is the session-scoped summary kept after login.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Type  string `json:"type"`
}
