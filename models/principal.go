package models

// Roles carried by authenticated principals.
const (
	RoleClient   = "client"
	RoleProvider = "provider"
	RoleAdmin    = "admin"
)

// Principal is the authenticated identity attached to every request by the
// auth middleware. The engine trusts it and layers its own ownership and
// role checks on top.
type Principal struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) IsProvider() bool {
	return p.Role == RoleProvider
}
