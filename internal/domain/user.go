package domain

type Role string

const (
	RoleTenant Role = "tenant"
	RoleAdmin  Role = "admin"
)

// User is owned by the auth service; this backend only reads it.
type User struct {
	ID          int32  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Role        Role   `json:"role"`
}

// Principal is the authenticated caller of an operation. It is resolved once
// per request and passed explicitly to every service call.
type Principal struct {
	UserID int32
	Role   Role
}

func (p Principal) IsAuthenticated() bool {
	return p.UserID > 0
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanActFor reports whether the principal may read or act on a tenant's data.
func (p Principal) CanActFor(tenantID int32) bool {
	return p.IsAdmin() || p.UserID == tenantID
}
