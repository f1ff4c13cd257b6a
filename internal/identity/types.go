package identity

import "time"

// TenantKind distinguishes the three account levels of the platform.
type TenantKind string

const (
	TenantKindPlatform TenantKind = "platform"
	TenantKindAgency   TenantKind = "agency"
	TenantKindClient   TenantKind = "client"
)

// Branding holds per-tenant presentation configuration.
type Branding struct {
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	CompanyName    string `json:"company_name"`
	LogoURL        string `json:"logo_url,omitempty"`
}

// Tenant is an isolated customer account. Every entity below Tenant carries
// exactly one tenant identifier and is only visible to members of that tenant.
type Tenant struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Kind      TenantKind `json:"kind"`
	Branding  Branding   `json:"branding"`
	CreatedAt time.Time  `json:"created_at"`
}

// User is an operator account. A user belongs to exactly one tenant and holds
// exactly one role; the permission set is derived from the role.
type User struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
