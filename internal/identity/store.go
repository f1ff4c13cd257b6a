package identity

import "context"

// Store describes the persistence operations required by the identity
// subsystem.
type Store interface {
	Users() UserStore
	Tenants() TenantStore
}

// UserStore manages user records. The reference model never deletes users.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*User, error)
}

// TenantStore manages tenant records.
type TenantStore interface {
	Create(ctx context.Context, t *Tenant) error
	Find(ctx context.Context, id string) (*Tenant, error)
	List(ctx context.Context) ([]*Tenant, error)
}
