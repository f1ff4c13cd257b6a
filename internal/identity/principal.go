package identity

// Principal is the authenticated caller: the verified token claims resolved
// into a permission set.
type Principal struct {
	UserID      string
	Email       string
	TenantID    string
	Role        Role
	Permissions map[string]struct{}
}

// NewPrincipal builds a principal with the permission set preloaded from the
// given keys.
func NewPrincipal(userID, email, tenantID string, role Role, perms []string) Principal {
	set := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return Principal{
		UserID:      userID,
		Email:       email,
		TenantID:    tenantID,
		Role:        role,
		Permissions: set,
	}
}

// HasPermission reports whether the principal may perform the operation
// identified by key. The wildcard permission satisfies every check.
func (p Principal) HasPermission(key string) bool {
	if _, ok := p.Permissions[PermissionWildcard]; ok {
		return true
	}
	_, ok := p.Permissions[key]
	return ok
}

// RequirePermission is the access guard applied before any operation observes
// its input: it fails with ErrForbidden so unauthorized callers never learn
// whether a target resource exists.
func RequirePermission(p Principal, key string) error {
	if !p.HasPermission(key) {
		return ErrForbidden
	}
	return nil
}
